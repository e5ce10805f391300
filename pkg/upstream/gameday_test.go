package upstream

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pucklabs/rinkside/pkg/models"
)

func TestParseLegacyGoal(t *testing.T) {
	raw := `{"eventId":123,"revision":2,"hash":"q2w-123abc","period":1,"gametime":"13:37","description":"5 Olle Olsson gjorde mål","class":"Goal","team":"SAIK","location":{"x":12.5,"y":-3},"extra":{"scorerLong":"5 Olle Olsson","teamAdvantage":"PP1","homeAgainst":"0","homeForward":"1","assist":"10 Sven Svensson"}}`

	var row PlayByPlay
	require.NoError(t, json.Unmarshal([]byte(raw), &row))
	assert.Equal(t, 123, row.EventID)
	assert.Equal(t, "q2w-123abc", row.Hash)
	require.NotNil(t, row.Goal)
	assert.Equal(t, "SAIK", row.Goal.Team)
	assert.Equal(t, "PP1", row.Goal.Extra.TeamAdvantage)

	event := row.ToEvent("game-1")
	assert.Equal(t, "123", event.EventID)
	assert.Equal(t, models.StatusPeriod1, event.Status)
	assert.Equal(t, "13:37", event.Gametime)
	require.NotNil(t, event.Goal)
	assert.Equal(t, "SAIK", event.Goal.Team)
	assert.Equal(t, 1, event.Goal.HomeTeamResult)
	assert.Equal(t, 0, event.Goal.AwayTeamResult)
	assert.Equal(t, 12.5, event.Goal.Location.X)
	require.NotNil(t, event.Goal.Player)
	assert.Equal(t, "Olle", event.Goal.Player.FirstName)
	assert.Equal(t, "Olsson", event.Goal.Player.FamilyName)
	assert.Equal(t, 5, event.Goal.Player.Jersey)
	require.NotNil(t, event.Goal.Assist)
	assert.Equal(t, "10 Sven Svensson", *event.Goal.Assist)
}

func TestParseLegacyPenalty(t *testing.T) {
	raw := `{"eventId":44,"revision":1,"hash":"q2w-44pen","period":2,"gametime":"06:27","description":"1 Olle Olsson utvisas 5min, roughing","class":"Penalty","team":"LHF"}`

	var row PlayByPlay
	require.NoError(t, json.Unmarshal([]byte(raw), &row))
	require.NotNil(t, row.Penalty)

	event := row.ToEvent("game-1")
	assert.Equal(t, models.StatusPeriod2, event.Status)
	require.NotNil(t, event.Penalty)
	assert.Equal(t, "LHF", event.Penalty.Team)
	assert.Equal(t, "roughing", event.Penalty.Reason)
	require.NotNil(t, event.Penalty.Penalty)
	assert.Equal(t, "5min", *event.Penalty.Penalty)
	require.NotNil(t, event.Penalty.Player)
	assert.Equal(t, "Olle", event.Penalty.Player.FirstName)
	assert.Equal(t, "Olsson", event.Penalty.Player.FamilyName)
	assert.Equal(t, 1, event.Penalty.Player.Jersey)
}

func TestParseLegacyPeriod(t *testing.T) {
	tests := []struct {
		name       string
		gameStatus string
		expected   models.EventType
	}{
		{"playing starts period", "Playing", models.EventTypePeriodStart},
		{"anything else ends it", "Finished", models.EventTypePeriodEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := fmt.Sprintf(`{"eventId":7,"revision":1,"hash":"h7","period":2,"gametime":"00:00","description":"","class":"Period","extra":{"gameStatus":%q}}`, tt.gameStatus)
			var row PlayByPlay
			require.NoError(t, json.Unmarshal([]byte(raw), &row))
			require.NotNil(t, row.PeriodInfo)
			assert.Equal(t, tt.expected, row.ToEvent("game-1").Type)
		})
	}
}

func TestParseLegacyShotClasses(t *testing.T) {
	for _, class := range []string{"Shot", "ShotBlocked", "ShotWide", "ShotIron", "PenaltyShot", "ShootoutPenaltyShot"} {
		t.Run(class, func(t *testing.T) {
			raw := fmt.Sprintf(`{"eventId":9,"revision":1,"hash":"h9","period":3,"gametime":"10:00","description":"","class":%q,"team":"FHC","location":{"x":1,"y":2}}`, class)
			var row PlayByPlay
			require.NoError(t, json.Unmarshal([]byte(raw), &row))
			require.NotNil(t, row.Shot)

			event := row.ToEvent("game-1")
			assert.Equal(t, models.EventTypeShot, event.Type)
			require.NotNil(t, event.Shot)
			assert.Equal(t, "FHC", event.Shot.Team)
			assert.Equal(t, 2.0, event.Shot.Location.Y)
		})
	}
}

func TestParseLegacyGeneralClasses(t *testing.T) {
	tests := []struct {
		class    string
		expected models.EventType
	}{
		{"Timeout", models.EventTypeTimeout},
		{"General", models.EventTypeGeneral},
		{"GoolkeeperEvent", models.EventTypeGeneral},
		{"Livefeed_SHL", models.EventTypeGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			raw := fmt.Sprintf(`{"eventId":3,"revision":1,"hash":"h3","period":1,"gametime":"05:00","description":"something","class":%q}`, tt.class)
			var row PlayByPlay
			require.NoError(t, json.Unmarshal([]byte(raw), &row))
			event := row.ToEvent("game-1")
			assert.Equal(t, tt.expected, event.Type)
			assert.Equal(t, "something", event.Description)
		})
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	row := PlayByPlay{
		EventID:     55,
		Revision:    3,
		Hash:        "q2w-55",
		Period:      "2",
		Gametime:    "15:00",
		Description: "5 Olle Olsson gjorde mål",
		Class:       "Goal",
		Goal: &PBPGoal{
			Team:     "SAIK",
			Location: models.Location{X: 1, Y: 2},
			Extra:    PBPGoalExtra{ScorerLong: "5 Olle Olsson", TeamAdvantage: "EQ", HomeForward: "2", HomeAgainst: "1"},
		},
	}

	raw, err := json.Marshal(row)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Equal(t, "Goal", flat["class"])
	assert.Contains(t, flat, "extra")

	var restored PlayByPlay
	require.NoError(t, json.Unmarshal(raw, &restored))
	require.NotNil(t, restored.Goal)
	assert.Equal(t, row.Goal.Extra.ScorerLong, restored.Goal.Extra.ScorerLong)
	assert.Equal(t, 55, restored.EventID)
}

func TestParseEventPlayer(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *models.EventPlayer
	}{
		{
			name:     "jersey first family",
			raw:      "1 Mats Olle Matsson",
			expected: &models.EventPlayer{FirstName: "Mats", FamilyName: "Olle Matsson", Jersey: 1},
		},
		{
			name:     "simple",
			raw:      "5 Olle Olsson",
			expected: &models.EventPlayer{FirstName: "Olle", FamilyName: "Olsson", Jersey: 5},
		},
		{
			name:     "empty",
			raw:      "",
			expected: nil,
		},
		{
			name:     "single word keeps family",
			raw:      "Olle",
			expected: &models.EventPlayer{FirstName: "", FamilyName: "Olle", Jersey: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseEventPlayer(tt.raw))
		})
	}
}

func TestPenaltyFromDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		player      *models.EventPlayer
		penalty     *string
		reason      string
	}{
		{
			name:        "full form",
			description: "1 Olle Olsson utvisas 5min, roughing",
			player:      &models.EventPlayer{FirstName: "Olle", FamilyName: "Olsson", Jersey: 1},
			penalty:     strPtr("5min"),
			reason:      "roughing",
		},
		{
			name:        "team penalty",
			description: "Too many players on ice",
			player:      nil,
			penalty:     nil,
			reason:      "Too many players on ice",
		},
		{
			name:        "no comma keeps full description",
			description: "1 Olle Olsson utvisas Game Misconduct",
			player:      &models.EventPlayer{FirstName: "Olle", FamilyName: "Olsson", Jersey: 1},
			penalty:     nil,
			reason:      "1 Olle Olsson utvisas Game Misconduct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := penaltyFromDescription(tt.description, "LHF")
			assert.Equal(t, "LHF", info.Team)
			assert.Equal(t, tt.player, info.Player)
			assert.Equal(t, tt.penalty, info.Penalty)
			assert.Equal(t, tt.reason, info.Reason)
		})
	}
}

func TestParseTOI(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{"12:34", 754},
		{"05:00", 300},
		{"0:59", 59},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTOI(tt.raw))
		})
	}
}

func TestStatsToGameStats(t *testing.T) {
	rsp := StatsRsp{PeriodStatsBreakdown: []PeriodStatsBreakdown{
		{
			Period: StatsPeriod{Label: "P1", Value: "1"},
			Statistics: []Statistics{
				{Caption: "G", HomeTeamValue: 1, AwayTeamValue: 0},
			},
		},
		{
			Period: StatsPeriod{Label: "Total", Value: "Total"},
			Statistics: []Statistics{
				{Caption: "G", HomeTeamValue: 3, AwayTeamValue: 2},
				{Caption: "SOG", HomeTeamValue: 30, AwayTeamValue: 28},
				{Caption: "PIM", HomeTeamValue: 6, AwayTeamValue: 4},
				{Caption: "FOWon", HomeTeamValue: 22, AwayTeamValue: 18},
				{Caption: "Hits", HomeTeamValue: 12, AwayTeamValue: 9},
			},
		},
	}}

	stats, ok := rsp.ToGameStats()
	require.True(t, ok)
	assert.Equal(t, models.TeamGameStats{G: 3, SOG: 30, PIM: 6, FOW: 22}, stats.Home)
	assert.Equal(t, models.TeamGameStats{G: 2, SOG: 28, PIM: 4, FOW: 18}, stats.Away)

	_, ok = StatsRsp{}.ToGameStats()
	assert.False(t, ok)
}

func TestPlayerStatsToAthletes(t *testing.T) {
	rsp := PlayerStatsRsp{
		Stats: EachTeam[[]SkaterLine]{
			HomeTeamValue: []SkaterLine{{
				Info: LineInfo{PlayerID: 4446, TeamID: "SAIK"},
				G:    2, A: 1, SOG: 5, NR: 56, POS: "CE", TOI: "15:30", PlusMinus: 1,
			}},
			AwayTeamValue: []SkaterLine{{
				Info: LineInfo{PlayerID: 3219, TeamID: "MODO"},
				G:    0, NR: 33, POS: "LD", TOI: "18:02",
			}},
		},
		GKStats: EachTeam[[]GoalkeeperLine]{
			AwayTeamValue: []GoalkeeperLine{{
				Info: LineInfo{PlayerID: 6134, TeamID: "MODO"},
				GA:   2, SOGA: 25, SVS: 23, NR: 30,
			}},
			HomeTeamValue: []GoalkeeperLine{{
				Info: LineInfo{PlayerID: 920, TeamID: "SAIK"},
				NR:   1,
			}},
		},
		Players: EachTeam[map[int]PlayerName]{
			HomeTeamValue: map[int]PlayerName{4446: {FirstName: "Anton", LastName: "Olsson"}},
			AwayTeamValue: map[int]PlayerName{3219: {FirstName: "Kristians", LastName: "Rubins"}},
		},
		Goalkeepers: EachTeam[map[int]PlayerName]{
			AwayTeamValue: map[int]PlayerName{6134: {FirstName: "Lassi", LastName: "Lehtinen"}},
		},
	}

	athletes := rsp.ToAthletes(models.Season2023)
	require.Len(t, athletes, 4)

	byID := map[int]models.Athlete{}
	for _, a := range athletes {
		byID[a.ID] = a
	}

	anton := byID[4446]
	assert.Equal(t, "Anton", anton.FirstName)
	assert.Equal(t, "SAIK", anton.TeamCode)
	assert.Equal(t, "CE", anton.Position)
	assert.Equal(t, 56, anton.Jersey)
	require.NotNil(t, anton.Player)
	assert.Equal(t, 2, anton.Player.G)
	assert.Equal(t, 930, anton.Player.TOISec)
	assert.Equal(t, 1, anton.Player.GP)

	lassi := byID[6134]
	assert.Equal(t, "Lassi", lassi.FirstName)
	assert.Equal(t, "GK", lassi.Position)
	assert.Equal(t, models.AthleteTypeGoalkeeper, lassi.Type)
	require.NotNil(t, lassi.Goalkeeper)
	assert.Equal(t, 1, lassi.Goalkeeper.GP)

	benched := byID[920]
	require.NotNil(t, benched.Goalkeeper)
	assert.Equal(t, 0, benched.Goalkeeper.GP)
	assert.Equal(t, "", benched.FirstName)
}

func strPtr(s string) *string {
	return &s
}
