package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pucklabs/rinkside/pkg/apns"
	"github.com/pucklabs/rinkside/pkg/metrics"
	"github.com/pucklabs/rinkside/pkg/models"
)

// Notifier fans game updates out to users: alert pushes to subscribed
// devices and live-activity updates to active activity tokens. Push failures
// never propagate; a bad token prunes the user's registration instead.
type Notifier struct {
	client *apns.Client
	users  *UserService
	topic  string
	logger *slog.Logger
}

// NewNotifier wires the dispatcher. topic is the app's APNs base topic.
func NewNotifier(client *apns.Client, users *UserService, topic string) *Notifier {
	return &Notifier{
		client: client,
		users:  users,
		topic:  topic,
		logger: slog.With("component", "notifier"),
	}
}

// Process delivers the update to every user, alert pushes included. event
// may be nil for a pure scoreboard refresh.
func (n *Notifier) Process(ctx context.Context, game models.Game, event *models.Event) {
	n.fanOut(ctx, game, event, false)
}

// ProcessLiveActivity delivers the update to live-activity holders only.
func (n *Notifier) ProcessLiveActivity(ctx context.Context, game models.Game, event *models.Event) {
	n.fanOut(ctx, game, event, true)
}

func (n *Notifier) fanOut(ctx context.Context, game models.Game, event *models.Event, liveActivityOnly bool) {
	var wg sync.WaitGroup
	for _, user := range n.users.StreamAll() {
		token, push, ok := n.buildPush(user, game, event)
		if !ok {
			continue
		}
		if liveActivityOnly && push.Header.PushType != apns.PushTypeLiveActivity {
			continue
		}
		wg.Add(1)
		go func(user models.User, token string, push apns.Push) {
			defer wg.Done()
			n.deliver(ctx, user, game, token, push)
		}(user, token, push)
	}
	wg.Wait()
}

// deliver sends one push and reconciles the user's registration with the
// outcome: a bad token prunes it, a delivered game-end closes the activity.
func (n *Notifier) deliver(ctx context.Context, user models.User, game models.Game, token string, push apns.Push) {
	kind := string(push.Header.PushType)
	err := n.client.Push(ctx, push, token)
	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues(kind, "ok").Inc()
		if push.Header.PushType == apns.PushTypeLiveActivity && isEndEvent(push) {
			n.users.EndLiveActivity(user.ID, game.GameUUID)
		}
	case errors.Is(err, apns.ErrBadDeviceToken):
		metrics.Notifications.WithLabelValues(kind, "bad_token").Inc()
		if push.Header.PushType == apns.PushTypeLiveActivity {
			n.users.EndLiveActivity(user.ID, game.GameUUID)
		} else {
			n.users.RemoveAPNToken(user.ID)
		}
	default:
		metrics.Notifications.WithLabelValues(kind, "error").Inc()
		n.logger.Error("push failed", "user", user.ID, "game", game.GameUUID, "err", err)
	}
}

func isEndEvent(push apns.Push) bool {
	return push.Body.Aps.Event != nil && *push.Body.Aps.Event == "end"
}

// buildPush selects this user's push for the update: a live-activity update
// when they hold an activity for the game, an alert when the event is loud
// enough and the game concerns them, nothing otherwise.
func (n *Notifier) buildPush(user models.User, game models.Game, event *models.Event) (string, apns.Push, bool) {
	now := time.Now().Unix()
	expiration := time.Now().Add(time.Hour).Unix()

	var alert *apns.Alert
	if event != nil && event.ShouldNotify() {
		alert = buildAlert(user, game, *event)
	}

	if entry, ok := user.LiveActivityFor(game.GameUUID); ok {
		apsEvent := "update"
		if event != nil && event.Type == models.EventTypeGameEnd {
			apsEvent = "end"
		}
		relevance, priority := 75, 5
		var sound *string
		if alert != nil {
			relevance, priority = 100, 10
			sound = ptr("ping.aiff")
		}
		push := apns.Push{
			Header: apns.Header{
				PushType:   apns.PushTypeLiveActivity,
				Priority:   priority,
				Topic:      n.topic + ".push-type.liveactivity",
				CollapseID: game.GameUUID,
				Expiration: expiration,
			},
			Body: apns.Body{
				Aps: apns.Aps{
					Alert:          alert,
					Sound:          sound,
					Event:          &apsEvent,
					RelevanceScore: &relevance,
					StaleDate:      &expiration,
					Timestamp:      &now,
					ContentState:   contentState(game, event),
				},
				Game: game,
			},
		}
		return entry.APNToken, push, true
	}

	if alert != nil && shouldSend(user, game) {
		push := apns.Push{
			Header: apns.Header{
				PushType:   apns.PushTypeAlert,
				Priority:   10,
				Topic:      n.topic,
				CollapseID: game.GameUUID,
				Expiration: expiration,
			},
			Body: apns.Body{
				Aps: apns.Aps{
					Alert: alert,
					Sound: ptr("ping.aiff"),
				},
				Game: game,
			},
		}
		return *user.APNToken, push, true
	}

	return "", apns.Push{}, false
}

// shouldSend reports whether the user wants alert pushes for the game: a
// device token, the game not muted, and either an explicit follow or one of
// their teams playing.
func shouldSend(user models.User, game models.Game) bool {
	if user.APNToken == nil || slices.Contains(user.MutedGames, game.GameUUID) {
		return false
	}
	return slices.Contains(user.ExplicitGames, game.GameUUID) ||
		slices.Contains(user.Teams, game.HomeTeamCode) ||
		slices.Contains(user.Teams, game.AwayTeamCode)
}

// buildAlert renders the localized alert for the event, louder when one of
// the user's teams is behind it. The body is the scoreboard line.
func buildAlert(user models.User, game models.Game, event models.Event) *apns.Alert {
	subscribed := func(team string) bool { return slices.Contains(user.Teams, team) }
	var title string
	switch event.Type {
	case models.EventTypeGameStart:
		title = "Nedsläpp"
	case models.EventTypeGoal:
		team := event.Team()
		if subscribed(team) {
			title = fmt.Sprintf("MÅÅÅL för %s! 🎉", team)
		} else {
			title = fmt.Sprintf("Mål för %s", team)
		}
	case models.EventTypeGameEnd:
		winner := game.Winner()
		if event.GameEnd != nil && event.GameEnd.Winner != nil {
			winner = *event.GameEnd.Winner
		}
		if winner != "" && subscribed(winner) {
			title = fmt.Sprintf("%s vinner! 🥇", winner)
		} else {
			title = "Matchen är slut"
		}
	default:
		title = event.Description
	}
	return &apns.Alert{Title: title, Body: game.String()}
}

// contentState builds the live-activity scoreboard plus the highlighted
// event line, when one is worth showing.
func contentState(game models.Game, event *models.Event) *apns.ContentState {
	state := &apns.ContentState{
		Report: apns.ContentStateReport{
			HomeScore: game.HomeTeamResult,
			AwayScore: game.AwayTeamResult,
			Status:    &game.Status,
			Gametime:  game.Gametime,
		},
	}
	if event != nil && event.Level() >= models.LevelMedium {
		stateEvent := &apns.ContentStateEvent{Title: event.Description}
		if team := event.Team(); team != "" {
			stateEvent.TeamCode = &team
		}
		state.Event = stateEvent
	}
	return state
}

func ptr[T any](v T) *T { return &v }
