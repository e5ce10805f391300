package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/pucklabs/rinkside/pkg/apns"
	"github.com/pucklabs/rinkside/pkg/models"
)

const testTopic = "com.pucklabs.rinkside"

func notifierFixture(t *testing.T, handler http.HandlerFunc) (*Notifier, *UserService) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "apns.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(keyPath, pemBytes, 0o600))

	srv := httptest.NewServer(h2c.NewHandler(handler, &http2.Server{}))
	t.Cleanup(srv.Close)

	users := NewUserService(t.TempDir())
	client := apns.NewClient(srv.URL, "team", "key", keyPath)
	return NewNotifier(client, users, testTopic), users
}

func notifierGame() models.Game {
	g := seasonGame("g1", "SAIK", "OHK", 1, 0, false)
	g.Status = models.StatusPeriod1
	return g
}

func goalEvent() *models.Event {
	return &models.Event{
		GameUUID: "g1", EventID: "42", Status: models.StatusPeriod1,
		Gametime: "13:37", Description: "Mål", Type: models.EventTypeGoal,
		Goal: &models.GoalInfo{Team: "SAIK", HomeTeamResult: 1},
	}
}

func TestShouldSend(t *testing.T) {
	token := "tok"
	game := notifierGame()

	assert.True(t, shouldSend(models.User{APNToken: &token, Teams: []string{"SAIK"}}, game))
	assert.True(t, shouldSend(models.User{APNToken: &token, ExplicitGames: []string{"g1"}}, game))
	assert.False(t, shouldSend(models.User{Teams: []string{"SAIK"}}, game))
	assert.False(t, shouldSend(models.User{APNToken: &token, Teams: []string{"MODO"}}, game))
	assert.False(t, shouldSend(models.User{APNToken: &token, Teams: []string{"SAIK"}, MutedGames: []string{"g1"}}, game))
}

func TestBuildAlertTitles(t *testing.T) {
	game := notifierGame()
	fan := models.User{Teams: []string{"SAIK"}}
	neutral := models.User{}

	assert.Equal(t, "MÅÅÅL för SAIK! 🎉", buildAlert(fan, game, *goalEvent()).Title)
	assert.Equal(t, "Mål för SAIK", buildAlert(neutral, game, *goalEvent()).Title)

	start := models.Event{Type: models.EventTypeGameStart, Description: "Nedsläpp"}
	assert.Equal(t, "Nedsläpp", buildAlert(neutral, game, start).Title)

	winner := "SAIK"
	end := models.Event{Type: models.EventTypeGameEnd, GameEnd: &models.GameEndInfo{Winner: &winner}}
	assert.Equal(t, "SAIK vinner! 🥇", buildAlert(fan, game, end).Title)
	assert.Equal(t, "Matchen är slut", buildAlert(neutral, game, end).Title)

	alert := buildAlert(fan, game, *goalEvent())
	assert.Equal(t, "SAIK 1 - 0 OHK", alert.Body)
}

func TestBuildPushSelection(t *testing.T) {
	n := &Notifier{topic: testTopic}
	game := notifierGame()
	token := "device"

	// live-activity holders get a live-activity push even without an alert
	holder := models.User{ID: "u1", LiveActivities: []models.LiveActivity{{GameUUID: "g1", APNToken: "la"}}}
	gotToken, push, ok := n.buildPush(holder, game, nil)
	require.True(t, ok)
	assert.Equal(t, "la", gotToken)
	assert.Equal(t, apns.PushTypeLiveActivity, push.Header.PushType)
	assert.Equal(t, 5, push.Header.Priority)
	assert.Equal(t, testTopic+".push-type.liveactivity", push.Header.Topic)
	require.NotNil(t, push.Body.Aps.Event)
	assert.Equal(t, "update", *push.Body.Aps.Event)
	assert.Nil(t, push.Body.Aps.Alert)

	// a loud event raises the activity push priority and attaches the alert
	_, push, ok = n.buildPush(holder, game, goalEvent())
	require.True(t, ok)
	assert.Equal(t, 10, push.Header.Priority)
	require.NotNil(t, push.Body.Aps.Alert)
	require.NotNil(t, push.Body.Aps.RelevanceScore)
	assert.Equal(t, 100, *push.Body.Aps.RelevanceScore)

	// game end flips the activity event to "end"
	winner := "SAIK"
	end := &models.Event{Type: models.EventTypeGameEnd, GameEnd: &models.GameEndInfo{Winner: &winner}}
	_, push, ok = n.buildPush(holder, game, end)
	require.True(t, ok)
	assert.Equal(t, "end", *push.Body.Aps.Event)

	// subscribers without an activity get a plain alert push
	fan := models.User{ID: "u2", APNToken: &token, Teams: []string{"SAIK"}}
	gotToken, push, ok = n.buildPush(fan, game, goalEvent())
	require.True(t, ok)
	assert.Equal(t, token, gotToken)
	assert.Equal(t, apns.PushTypeAlert, push.Header.PushType)
	assert.Equal(t, 10, push.Header.Priority)
	assert.Equal(t, testTopic, push.Header.Topic)
	assert.Equal(t, "g1", push.Header.CollapseID)

	// nothing for a quiet event without an activity
	_, _, ok = n.buildPush(fan, game, &models.Event{Type: models.EventTypeShot, Shot: &models.ShotInfo{Team: "SAIK"}})
	assert.False(t, ok)

	// nothing for unrelated users
	_, _, ok = n.buildPush(models.User{ID: "u3"}, game, goalEvent())
	assert.False(t, ok)
}

func TestProcessDeliversToSubscribers(t *testing.T) {
	var mu sync.Mutex
	var tokens []string
	notifier, users := notifierFixture(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, strings.TrimPrefix(r.URL.Path, "/3/device/"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	token := "fan-token"
	users.AddUser(models.User{ID: "fan", APNToken: &token, Teams: []string{"SAIK"}})
	users.AddUser(models.User{ID: "bystander"})

	notifier.Process(context.Background(), notifierGame(), goalEvent())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fan-token"}, tokens)
}

func TestProcessLiveActivityOnlySkipsAlertPushes(t *testing.T) {
	var mu sync.Mutex
	var tokens []string
	notifier, users := notifierFixture(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, strings.TrimPrefix(r.URL.Path, "/3/device/"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	token := "fan-token"
	users.AddUser(models.User{ID: "fan", APNToken: &token, Teams: []string{"SAIK"}})
	users.StartLiveActivity("holder", "g1", "la-token")

	notifier.ProcessLiveActivity(context.Background(), notifierGame(), goalEvent())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"la-token"}, tokens)
}

func TestBadDeviceTokenPrunesRegistration(t *testing.T) {
	notifier, users := notifierFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`{"reason":"BadDeviceToken"}`))
	})

	token := "stale"
	users.AddUser(models.User{ID: "fan", APNToken: &token, Teams: []string{"SAIK"}})
	users.StartLiveActivity("holder", "g1", "stale-la")

	notifier.Process(context.Background(), notifierGame(), goalEvent())

	fan, _ := users.Read("fan")
	assert.Nil(t, fan.APNToken)

	holder, _ := users.Read("holder")
	assert.Empty(t, holder.LiveActivities)
}

func TestDeliveredGameEndClosesLiveActivity(t *testing.T) {
	notifier, users := notifierFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	users.StartLiveActivity("holder", "g1", "la-token")

	winner := "SAIK"
	end := &models.Event{
		GameUUID: "g1", Type: models.EventTypeGameEnd, Description: "Matchen slutade",
		Status: models.StatusFinished, GameEnd: &models.GameEndInfo{Winner: &winner},
	}
	game := notifierGame()
	game.Status = models.StatusFinished
	notifier.Process(context.Background(), game, end)

	holder, _ := users.Read("holder")
	assert.Empty(t, holder.LiveActivities)
}
