package live

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/pucklabs/rinkside/pkg/bus"
	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/services"
)

// pollInterval is the pause between event fetches.
const pollInterval = 10 * time.Second

// Poller is the fallback transport: instead of a stream subscription it
// refetches the game's event log on a fixed cadence and emits only what is
// new.
type Poller struct {
	bus      *bus.Bus
	registry *services.GameRegistry
	events   *services.EventService
	logger   *slog.Logger
}

// NewPoller wires the polling transport.
func NewPoller(b *bus.Bus, registry *services.GameRegistry, events *services.EventService) *Poller {
	return &Poller{
		bus:      b,
		registry: registry,
		events:   events,
		logger:   slog.With("component", "poller"),
	}
}

// Run polls the game until it finishes or ctx is done. A poller never asks
// for a respawn since every tick reconnects anyway.
func (p *Poller) Run(ctx context.Context, game models.Game) bool {
	uuid := game.GameUUID
	p.logger.Info("poller start", "game", uuid)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		p.poll(ctx, uuid)

		if current, ok := p.registry.ReadCurrentSeasonGame(uuid); ok && current.Status == models.StatusFinished {
			p.logger.Info("game finished, closing poller", "game", uuid)
			p.bus.Publish(bus.SseClosed{GameUUID: uuid})
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// poll fetches the current event log and emits a report delta plus the event
// for every entry not seen before.
func (p *Poller) poll(ctx context.Context, uuid string) {
	events, err := p.events.FetchLive(ctx, uuid)
	if err != nil {
		p.logger.Warn("fetch events", "game", uuid, "err", err)
		return
	}
	// the feed arrives newest first; emit in game order
	slices.Reverse(events)
	for _, live := range events {
		if !p.events.StoreRaw(uuid, live) {
			continue
		}
		event := live.ToEvent()
		p.logger.Info("new event", "game", uuid, "event", event.String())
		p.bus.Publish(bus.UpdateReport{Update: live.ToUpdate()})
		p.bus.Publish(bus.AddEvent{Event: event})
	}
}
