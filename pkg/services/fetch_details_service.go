package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

const (
	fetchDetailsKey      = "key"
	fetchDetailsInterval = time.Hour
	fetchDetailsBatch    = 10
)

// FetchDetailsService backfills stats and boxscores for played games that
// never got them, a small batch at a time so the provider is not hammered.
type FetchDetailsService struct {
	registry *GameRegistry
	events   *EventService
	stats    *StatsService
	players  *PlayerService
	progress *store.Collection[string]
	logger   *slog.Logger
}

// NewFetchDetailsService wires the backfill over its sources.
func NewFetchDetailsService(registry *GameRegistry, events *EventService, stats *StatsService, players *PlayerService, root string) *FetchDetailsService {
	return &FetchDetailsService{
		registry: registry,
		events:   events,
		stats:    stats,
		players:  players,
		progress: store.NewCollection[string](root, "v2_fetch_details"),
		logger:   slog.With("component", "fetch_details"),
	}
}

// Update runs one backfill round: at most once per hour, pick the played
// games across all seasons that still miss a stats or boxscore response,
// force-fetch details for up to ten of them a second apart, and record how
// many remain.
func (s *FetchDetailsService) Update(ctx context.Context) {
	if !s.progress.IsStale(fetchDetailsKey, fetchDetailsInterval) {
		return
	}
	allGames := s.registry.ReadAllGames()
	var applicable []models.Game
	for _, g := range allGames {
		if !g.Played {
			continue
		}
		if s.stats.IsStale(g.League, g.GameUUID) || s.players.IsStale(g.League, g.GameUUID) {
			applicable = append(applicable, g)
		}
	}
	gamesLeft := len(applicable)
	if gamesLeft == 0 {
		s.logger.Info("backfill done")
	}
	if len(applicable) > fetchDetailsBatch {
		applicable = applicable[:fetchDetailsBatch]
	}
	for _, g := range applicable {
		s.logger.Info("backfill game", "game", g.GameUUID)
		s.stats.Update(ctx, g.League, g.GameUUID, 0)
		s.players.Update(ctx, g.Season, g.League, g.GameUUID, 0)
		s.events.Update(ctx, g.Season, g.GameUUID, 0)
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
	}
	info := fmt.Sprintf("%d out of %d left", gamesLeft, len(allGames))
	s.logger.Info("backfill round", "progress", info)
	if err := s.progress.Write(fetchDetailsKey, info); err != nil {
		s.logger.Error("persist progress", "err", err)
	}
}
