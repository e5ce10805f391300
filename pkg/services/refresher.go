package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pucklabs/rinkside/pkg/bus"
	"github.com/pucklabs/rinkside/pkg/models"
)

// refresherMaxAge throttles per-game detail refreshes while a game is live.
const refresherMaxAge = 30 * time.Second

// Refresher keeps the derived read-models warm: on every committed report or
// event it refreshes the game's stats and boxscore caches, and when the game
// lands on Finished it rebuilds the season aggregates.
type Refresher struct {
	bus         *bus.Bus
	registry    *GameRegistry
	stats       *StatsService
	players     *PlayerService
	standings   *StandingService
	playoffs    *PlayoffService
	playerStats *PlayerStatsService
	logger      *slog.Logger
}

// NewRefresher wires the refresher over its collaborators.
func NewRefresher(b *bus.Bus, registry *GameRegistry, stats *StatsService, players *PlayerService, standings *StandingService, playoffs *PlayoffService, playerStats *PlayerStatsService) *Refresher {
	return &Refresher{
		bus:         b,
		registry:    registry,
		stats:       stats,
		players:     players,
		standings:   standings,
		playoffs:    playoffs,
		playerStats: playerStats,
		logger:      slog.With("component", "refresher"),
	}
}

// Run consumes the bus until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	feed := r.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-feed:
			switch msg.(type) {
			case bus.ReportUpdated, bus.EventUpdated:
				r.refresh(ctx, bus.GameUUID(msg))
			}
		}
	}
}

func (r *Refresher) refresh(ctx context.Context, gameUUID string) {
	game, ok := r.registry.ReadCurrentSeasonGame(gameUUID)
	if !ok {
		return
	}
	r.stats.Update(ctx, game.League, game.GameUUID, refresherMaxAge)
	r.players.Update(ctx, game.Season, game.League, game.GameUUID, refresherMaxAge)

	if game.Status == models.StatusFinished {
		r.logger.Info("game finished, rebuilding aggregates", "game", game.String())
		season := game.Season
		games := r.registry.ReadCurrentSeason()
		r.standings.Update(season, games)
		r.playoffs.Update(season, games)
		r.playerStats.Update(games)
	}
}
