package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

// EventService owns the per-game raw event logs: the live-event feed for the
// current season and the legacy play-by-play feed for older ones. The raw
// log is the authoritative history; canonical events are mapped from it on
// read.
type EventService struct {
	client *upstream.Client
	live   *store.Collection[[]upstream.LiveEvent]
	legacy *store.Collection[[]upstream.PlayByPlay]
	logger *slog.Logger
}

// NewEventService opens the raw logs under root.
func NewEventService(client *upstream.Client, root string) *EventService {
	return &EventService{
		client: client,
		live:   store.NewCollection[[]upstream.LiveEvent](root, "v2_events_raw_2023"),
		legacy: store.NewCollection[[]upstream.PlayByPlay](root, "v2_events_raw"),
		logger: slog.With("component", "events"),
	}
}

// StoreRaw upserts one live event into the game's log, keyed by the derived
// event id. Returns true when the id was not in the log before.
func (s *EventService) StoreRaw(gameUUID string, event upstream.LiveEvent) bool {
	events, _ := s.live.Read(gameUUID)
	isNew := true
	pos := slices.IndexFunc(events, func(e upstream.LiveEvent) bool {
		return e.DeriveEventID() == event.DeriveEventID()
	})
	if pos >= 0 {
		events[pos] = event
		isNew = false
	} else {
		events = append(events, event)
	}
	if err := s.live.Write(gameUUID, events); err != nil {
		s.logger.Error("persist raw events", "game_uuid", gameUUID, "err", err)
	}
	return isNew
}

// StoreLegacyRaw upserts one legacy play-by-play row, keyed by the
// provider's event id. Returns true when the row is new.
func (s *EventService) StoreLegacyRaw(gameUUID string, event upstream.PlayByPlay) bool {
	events, _ := s.legacy.Read(gameUUID)
	isNew := true
	pos := slices.IndexFunc(events, func(e upstream.PlayByPlay) bool {
		return e.EventID == event.EventID
	})
	if pos >= 0 {
		events[pos] = event
		isNew = false
	} else {
		events = append(events, event)
	}
	if err := s.legacy.Write(gameUUID, events); err != nil {
		s.logger.Error("persist legacy raw events", "game_uuid", gameUUID, "err", err)
	}
	return isNew
}

// Read maps the game's stored live log to canonical events.
func (s *EventService) Read(gameUUID string) []models.Event {
	raw, _ := s.live.Read(gameUUID)
	events := make([]models.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, e.ToEvent())
	}
	return events
}

// Update refreshes the game's event log from upstream and returns the
// canonical events, newest first. Current-season games use the live feed;
// older ones the legacy play-by-play feed. A log younger than maxAge is
// served from the store without a fetch.
func (s *EventService) Update(ctx context.Context, season models.Season, gameUUID string, maxAge time.Duration) []models.Event {
	if season.IsCurrent() {
		return s.updateLive(ctx, gameUUID, maxAge)
	}
	return s.updateLegacy(ctx, gameUUID, maxAge)
}

func (s *EventService) updateLive(ctx context.Context, gameUUID string, maxAge time.Duration) []models.Event {
	raw, _ := s.live.Read(gameUUID)
	if s.live.IsStale(gameUUID, maxAge) {
		fetched, err := s.FetchLive(ctx, gameUUID)
		if err != nil {
			s.logger.Warn("live events fetch failed", "game_uuid", gameUUID, "err", err)
		} else {
			slices.Reverse(fetched)
			raw = addPeriodEvents(fetched)
			if err := s.live.Write(gameUUID, raw); err != nil {
				s.logger.Error("persist raw events", "game_uuid", gameUUID, "err", err)
			}
		}
	}
	events := make([]models.Event, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		events = append(events, raw[i].ToEvent())
	}
	return events
}

func (s *EventService) updateLegacy(ctx context.Context, gameUUID string, maxAge time.Duration) []models.Event {
	raw, _ := s.legacy.Read(gameUUID)
	if s.legacy.IsStale(gameUUID, maxAge) {
		fetched, err := s.fetchLegacy(ctx, gameUUID)
		if err != nil {
			s.logger.Warn("legacy events fetch failed", "game_uuid", gameUUID, "err", err)
		} else {
			raw = fetched
			if err := s.legacy.Write(gameUUID, raw); err != nil {
				s.logger.Error("persist legacy raw events", "game_uuid", gameUUID, "err", err)
			}
		}
	}
	events := make([]models.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, e.ToEvent(gameUUID))
	}
	return events
}

// FetchLive pulls the current play-by-play feed without touching the stored
// log. The polling transport uses it and stores each row itself to learn
// which rows are new.
func (s *EventService) FetchLive(ctx context.Context, gameUUID string) ([]upstream.LiveEvent, error) {
	body, err := s.client.Get(ctx, s.client.LiveEventsURL(gameUUID))
	if err != nil {
		return nil, err
	}
	var events []upstream.LiveEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *EventService) fetchLegacy(ctx context.Context, gameUUID string) ([]upstream.PlayByPlay, error) {
	body, err := s.client.Get(ctx, s.client.EventsURL(gameUUID))
	if err != nil {
		return nil, err
	}
	var events []upstream.PlayByPlay
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// addPeriodEvents synthesizes the PeriodStart/PeriodEnd boundaries the live
// feed leaves implicit: one start before the first event, an end/start pair
// wherever a goal, penalty or shot lands in a later period. The synthetic
// ids ("PeriodStart 2") make re-synthesis idempotent.
func addPeriodEvents(raw []upstream.LiveEvent) []upstream.LiveEvent {
	if len(raw) == 0 {
		return raw
	}

	result := make([]upstream.LiveEvent, 0, len(raw)+8)
	lastPeriod := 1
	result = append(result, periodMarker(raw[0].GameUUID, 1, false))

	for _, e := range raw {
		carriesPeriod := e.Goal != nil || e.Penalty != nil || e.Shot != nil
		if carriesPeriod && e.Period.Num() != lastPeriod {
			result = append(result,
				periodMarker(e.GameUUID, lastPeriod, true),
				periodMarker(e.GameUUID, e.Period.Num(), false))
			lastPeriod = e.Period.Num()
		}
		if e.PeriodInfo == nil {
			result = append(result, e)
		}
	}
	return result
}

func periodMarker(gameUUID string, period int, finished bool) upstream.LiveEvent {
	return upstream.LiveEvent{
		GameUUID:   gameUUID,
		Period:     upstream.StringOrNum(strconv.Itoa(period)),
		Type:       "period",
		PeriodInfo: &upstream.LivePeriod{Started: true, Finished: finished},
	}
}
