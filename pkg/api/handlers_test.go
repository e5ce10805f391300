package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pucklabs/rinkside/pkg/events"
	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/services"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

const testAPIKey = "sekret"

func serverFixture(t *testing.T) (*Server, *services.GameRegistry, *services.UserService) {
	t.Helper()
	root := t.TempDir()

	registry := services.NewGameRegistry(root)
	users := services.NewUserService(root)
	standings := services.NewStandingService(root)
	playoffs := services.NewPlayoffService(root)
	playerStats := services.NewPlayerStatsService(nil, root)

	client := upstream.NewClient("http://127.0.0.1:0", "http://127.0.0.1:0")
	details := services.NewDetailsService(registry,
		services.NewEventService(client, root),
		services.NewStatsService(client, root),
		services.NewPlayerService(client, root))

	game := models.Game{
		GameUUID: "g1", HomeTeamCode: "SAIK", AwayTeamCode: "OHK",
		Status: models.StatusComing, GameType: models.GameTypeSeason,
		League: models.LeagueSHL, Season: models.CurrentSeason(),
		StartDateTime: time.Date(2023, 9, 16, 15, 15, 0, 0, time.UTC),
	}
	games := registry.Update(models.CurrentSeason(), []models.Game{game}, nil)
	standings.Update(models.CurrentSeason(), games)

	server := NewServer(0, testAPIKey, Deps{
		Registry:    registry,
		Details:     details,
		Standings:   standings,
		Playoffs:    playoffs,
		Teams:       services.NewTeamsService(root),
		PlayerStats: playerStats,
		Users:       users,
		Votes:       services.NewVoteService(root, registry),
		Status:      services.NewStatusService(root),
		Broadcaster: events.NewBroadcaster(time.Second),
	})
	return server, registry, users
}

func doRequest(t *testing.T, server *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.http.Handler.ServeHTTP(w, req)
	return w
}

func TestGetGames(t *testing.T) {
	server, _, _ := serverFixture(t)

	w := doRequest(t, server, http.MethodGet, "/v2/games/2023", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"game_uuid":"g1"`)

	w = doRequest(t, server, http.MethodGet, "/v2/games/1999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStandings(t *testing.T) {
	server, _, _ := serverFixture(t)

	w := doRequest(t, server, http.MethodGet, "/v2/standings/Season2023", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SHL"`)
	assert.Contains(t, w.Body.String(), `"HA"`)

	w = doRequest(t, server, http.MethodGet, "/v2/standings/bogus", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPlayoffsEmptyWithoutBracket(t *testing.T) {
	server, _, _ := serverFixture(t)

	w := doRequest(t, server, http.MethodGet, "/v2/playoffs/2023", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"SHL":{},"HA":{}}`, w.Body.String())
}

func TestGetTeamsEmpty(t *testing.T) {
	server, _, _ := serverFixture(t)
	w := doRequest(t, server, http.MethodGet, "/v2/teams", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetTeamPlayersEmptyRoster(t *testing.T) {
	server, _, _ := serverFixture(t)
	w := doRequest(t, server, http.MethodGet, "/v2/players/2023/SAIK", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetPlayerCareer(t *testing.T) {
	server, _, _ := serverFixture(t)

	w := doRequest(t, server, http.MethodGet, "/v2/player/not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, http.MethodGet, "/v2/player/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddUser(t *testing.T) {
	server, _, users := serverFixture(t)

	w := doRequest(t, server, http.MethodPost, "/v2/user",
		`{"id":"u1","teams":["SAIK"],"apn_token":"tok"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	user, ok := users.Read("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"SAIK"}, user.Teams)
	require.NotNil(t, user.APNToken)
	assert.Equal(t, "tok", *user.APNToken)

	w = doRequest(t, server, http.MethodPost, "/v2/user", `{"teams":["SAIK"]}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiveActivityRoutes(t *testing.T) {
	server, _, users := serverFixture(t)

	w := doRequest(t, server, http.MethodPost, "/v2/live-activity/start",
		`{"user_id":"u1","game_uuid":"g1","token":"la-tok"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	user, _ := users.Read("u1")
	_, held := user.LiveActivityFor("g1")
	assert.True(t, held)

	w = doRequest(t, server, http.MethodPost, "/v2/live-activity/start",
		`{"user_id":"u1","game_uuid":"bogus","token":"la-tok"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, server, http.MethodPost, "/v2/live-activity/end",
		`{"user_id":"u1","game_uuid":"g1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	user, _ = users.Read("u1")
	assert.Empty(t, user.LiveActivities)
}

func TestVoteRoute(t *testing.T) {
	server, _, _ := serverFixture(t)
	auth := map[string]string{"X-API-Key": testAPIKey}

	// missing key
	w := doRequest(t, server, http.MethodPost, "/v2/vote",
		`{"game_uuid":"g1","user_id":"u1","team_code":"SAIK"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// accepted vote returns percentages
	w = doRequest(t, server, http.MethodPost, "/v2/vote",
		`{"game_uuid":"g1","user_id":"u1","team_code":"SAIK"}`, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"home_perc":100,"away_perc":0}`, w.Body.String())

	// team not in the game
	w = doRequest(t, server, http.MethodPost, "/v2/vote",
		`{"game_uuid":"g1","user_id":"u1","team_code":"MODO"}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown game
	w = doRequest(t, server, http.MethodPost, "/v2/vote",
		`{"game_uuid":"bogus","user_id":"u1","team_code":"SAIK"}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteClosedGame(t *testing.T) {
	server, registry, _ := serverFixture(t)
	registry.UpdateFromReport(models.Report{
		GameUUID: "g1", Status: models.StatusPeriod1,
		HomeTeamCode: "SAIK", AwayTeamCode: "OHK",
	})

	w := doRequest(t, server, http.MethodPost, "/v2/vote",
		`{"game_uuid":"g1","user_id":"u1","team_code":"SAIK"}`,
		map[string]string{"X-API-Key": testAPIKey})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "voting closed")
}

func TestGetStatus(t *testing.T) {
	server, _, _ := serverFixture(t)
	w := doRequest(t, server, http.MethodGet, "/v2/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":null}`, w.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	server, _, _ := serverFixture(t)
	w := doRequest(t, server, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestGameDetails(t *testing.T) {
	server, _, _ := serverFixture(t)

	w := doRequest(t, server, http.MethodGet, "/v2/game/g1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"game_uuid":"g1"`)
	assert.Contains(t, w.Body.String(), `"events":[]`)

	w = doRequest(t, server, http.MethodGet, "/v2/game/bogus", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
