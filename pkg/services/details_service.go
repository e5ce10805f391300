package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
)

// DetailsService composes the full per-game view from the registry and the
// event, stats and boxscore services.
type DetailsService struct {
	registry *GameRegistry
	events   *EventService
	stats    *StatsService
	players  *PlayerService
	logger   *slog.Logger
}

// NewDetailsService wires the composition over its sources.
func NewDetailsService(registry *GameRegistry, events *EventService, stats *StatsService, players *PlayerService) *DetailsService {
	return &DetailsService{
		registry: registry,
		events:   events,
		stats:    stats,
		players:  players,
		logger:   slog.With("component", "details"),
	}
}

// Read assembles the game's details, refreshing each source concurrently
// when its cached copy is older than maxAge. A game that has not started
// short-circuits to the bare game entry. Events come back newest first.
func (s *DetailsService) Read(ctx context.Context, gameUUID string, maxAge time.Duration) (models.GameDetails, bool) {
	start := time.Now()
	game, ok := s.registry.ReadGame(gameUUID)
	if !ok {
		return models.GameDetails{}, false
	}
	if game.Status == models.StatusComing {
		return models.GameDetails{Game: game, Events: []models.Event{}, Players: []models.Athlete{}}, true
	}

	details := models.GameDetails{Game: game}
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		details.Events = s.events.Update(ctx, game.Season, gameUUID, maxAge)
	}()
	go func() {
		defer wg.Done()
		if stats, ok := s.stats.Update(ctx, game.League, gameUUID, maxAge); ok {
			details.Stats = &stats
		}
	}()
	go func() {
		defer wg.Done()
		details.Players = s.players.Update(ctx, game.Season, game.League, gameUUID, maxAge)
	}()
	wg.Wait()

	if details.Events == nil {
		details.Events = []models.Event{}
	}
	if details.Players == nil {
		details.Players = []models.Athlete{}
	}
	s.logger.Debug("details read", "game", gameUUID, "elapsed", time.Since(start).Round(time.Millisecond))
	return details, true
}
