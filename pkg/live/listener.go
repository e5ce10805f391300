package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/pucklabs/rinkside/pkg/bus"
	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/services"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

// idleTimeout terminates a listener that hears nothing from upstream.
const idleTimeout = 5 * time.Minute

// StatsSink receives live team-statistics lines for broadcast.
type StatsSink interface {
	BroadcastStats(gameUUID, teamCode string, stats models.TeamGameStats)
}

// SseListener consumes one game's event stream and translates each frame
// into bus messages. It owns nothing but its subscription; all state
// mutation happens downstream of the bus.
type SseListener struct {
	sse      *SseClient
	bus      *bus.Bus
	registry *services.GameRegistry
	reports  *services.ReportService
	events   *services.EventService
	users    *services.UserService
	details  *services.DetailsService
	stats    StatsSink
	logger   *slog.Logger
}

// NewSseListener wires the SSE transport.
func NewSseListener(sse *SseClient, b *bus.Bus, registry *services.GameRegistry, reports *services.ReportService, events *services.EventService, users *services.UserService, details *services.DetailsService, stats StatsSink) *SseListener {
	return &SseListener{
		sse:      sse,
		bus:      b,
		registry: registry,
		reports:  reports,
		events:   events,
		users:    users,
		details:  details,
		stats:    stats,
		logger:   slog.With("component", "sse_listener"),
	}
}

// Run consumes the game's stream until the game both finished and went
// quiet. An idle stretch on an unfinished game returns true to ask for a
// respawn.
func (l *SseListener) Run(ctx context.Context, game models.Game) bool {
	uuid := game.GameUUID
	l.logger.Info("listener start", "game", uuid)

	frames := l.sse.Listen(ctx, uuid)
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	lastRevision := 0
	for {
		select {
		case <-ctx.Done():
			return false

		case frame, ok := <-frames:
			if !ok {
				return false
			}
			lastRevision = l.handleFrame(game, frame, lastRevision)
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(idleTimeout)

		case <-idle.C:
			if current, ok := l.registry.ReadCurrentSeasonGame(uuid); ok && current.Status == models.StatusFinished {
				l.logger.Info("game finished, closing listener", "game", uuid)
				l.users.RemoveReferencesTo(uuid)
				l.bus.Publish(bus.SseClosed{GameUUID: uuid})
				return false
			}
			l.logger.Info("stream idle, requesting respawn", "game", uuid)
			l.details.Read(ctx, uuid, 0)
			return true
		}
	}
}

// handleFrame maps one frame onto bus messages and returns the latest seen
// report revision.
func (l *SseListener) handleFrame(game models.Game, frame upstream.SseEvent, lastRevision int) int {
	uuid := game.GameUUID
	switch {
	case frame.GameReport != nil:
		report := *frame.GameReport
		if report.Revision != 0 && report.Revision == lastRevision {
			return lastRevision
		}
		l.bus.Publish(bus.UpdateReport{Update: report.ToUpdate()})
		return report.Revision

	case frame.PlayByPlay != nil:
		for _, action := range frame.PlayByPlay.Actions {
			if l.events.StoreLegacyRaw(uuid, action) {
				event := action.ToEvent(uuid)
				l.logger.Info("event", "game", uuid, "event", event.String())
				l.bus.Publish(bus.AddEvent{Event: event})
			}
		}

	case frame.LiveEvent != nil:
		live := *frame.LiveEvent
		if !l.events.StoreRaw(uuid, live) {
			return lastRevision
		}
		event := live.ToEvent()
		l.logger.Info("live event", "game", uuid, "event", event.String())
		l.bus.Publish(bus.UpdateReport{Update: live.ToUpdate()})
		l.bus.Publish(bus.AddEvent{Event: event})

	case frame.GameTime != nil:
		gametime := *frame.GameTime
		if !gametime.Valid() {
			return lastRevision
		}
		report, ok := l.reports.Read(uuid)
		if !ok || report.Status != gametime.Status() {
			l.logger.Info("clock for wrong period dropped", "game", uuid, "status", gametime.Status())
			return lastRevision
		}
		l.bus.Publish(bus.UpdateReport{Update: models.ReportUpdate{
			GameUUID: uuid,
			Gametime: gametime.PeriodTime,
		}})

	case frame.LiveState != nil:
		l.logger.Info("live state", "game", uuid, "from", frame.LiveState.PreviousLiveState, "to", frame.LiveState.LiveState)
		if frame.LiveState.Decided() {
			status := models.StatusFinished
			l.bus.Publish(bus.UpdateReport{Update: models.ReportUpdate{
				GameUUID: uuid,
				Status:   &status,
			}})
		}

	case frame.TeamStatistics != nil:
		stats := *frame.TeamStatistics
		if l.stats != nil {
			l.stats.BroadcastStats(uuid, stats.TeamID, stats.Totals())
		}
	}
	return lastRevision
}
