package services

import (
	"log/slog"
	"sync"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

// GameRegistry is the shared cache of decorated games: the current season as
// an ordered vector, every other season behind a uuid lookup. One writer at a
// time; readers get copies.
type GameRegistry struct {
	mu      sync.RWMutex
	current []models.Game
	rest    map[string]models.Game

	seasons *store.Collection[[]models.Game]
	logger  *slog.Logger
}

// NewGameRegistry opens the registry over the decorated season collection.
func NewGameRegistry(root string) *GameRegistry {
	return &GameRegistry{
		rest:    map[string]models.Game{},
		seasons: store.NewCollection[[]models.Game](root, "v2_season_decorated"),
		logger:  slog.With("component", "registry"),
	}
}

// Update rebuilds one season from freshly ingested games, attaching the vote
// snapshot, and persists the result. An empty rebuild for a season that
// already has games is ignored so a placeholder response cannot wipe it.
func (r *GameRegistry) Update(season models.Season, games []models.Game, votes map[string]models.VotePerGame) []models.Game {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(games) == 0 {
		if prior, ok := r.seasons.Read(string(season)); ok && len(prior) > 0 {
			r.logger.Warn("empty season rebuild ignored, keeping stored games", "season", season)
			if season.IsCurrent() {
				r.current = prior
			} else {
				for _, g := range prior {
					r.rest[g.GameUUID] = g
				}
			}
			return prior
		}
	}

	decorated := make([]models.Game, len(games))
	copy(decorated, games)
	for i := range decorated {
		if tally, ok := votes[decorated[i].GameUUID]; ok {
			perc := tally.Percentages()
			decorated[i].Votes = &perc
		}
	}

	if err := r.seasons.Write(string(season), decorated); err != nil {
		r.logger.Error("persist season", "season", season, "err", err)
	}
	if season.IsCurrent() {
		r.current = decorated
	} else {
		for _, g := range decorated {
			r.rest[g.GameUUID] = g
		}
	}
	r.logger.Info("season updated", "season", season, "games", len(decorated))
	return decorated
}

// UpdateFromReport merges a report into the matching current-season game and
// persists the season. ok is false when the uuid is not in the current
// season.
func (r *GameRegistry) UpdateFromReport(report models.Report) (models.Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.current {
		if r.current[i].GameUUID != report.GameUUID {
			continue
		}
		g := &r.current[i]
		g.Status = report.Status
		g.Played = report.Status == models.StatusFinished
		g.HomeTeamResult = report.HomeTeamResult
		g.AwayTeamResult = report.AwayTeamResult
		g.Overtime = report.Overtime
		g.Shootout = report.Shootout
		gametime := report.Gametime
		g.Gametime = &gametime

		if err := r.seasons.Write(string(g.Season), r.current); err != nil {
			r.logger.Error("persist season", "season", g.Season, "err", err)
		}
		return *g, true
	}
	return models.Game{}, false
}

// UpdateFromVotes assigns the tally's percentages onto the matching
// current-season game.
func (r *GameRegistry) UpdateFromVotes(gameUUID string, tally models.VotePerGame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.current {
		if r.current[i].GameUUID != gameUUID {
			continue
		}
		perc := tally.Percentages()
		r.current[i].Votes = &perc
		if err := r.seasons.Write(string(r.current[i].Season), r.current); err != nil {
			r.logger.Error("persist season", "season", r.current[i].Season, "err", err)
		}
		return
	}
}

// ReadCurrentSeason returns a copy of the current-season vector.
func (r *GameRegistry) ReadCurrentSeason() []models.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Game, len(r.current))
	copy(out, r.current)
	return out
}

// ReadCurrentSeasonGame returns the current-season game with the given uuid.
func (r *GameRegistry) ReadCurrentSeasonGame(gameUUID string) (models.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.current {
		if g.GameUUID == gameUUID {
			return g, true
		}
	}
	return models.Game{}, false
}

// ReadGame looks the uuid up in the current season first, then in the other
// seasons.
func (r *GameRegistry) ReadGame(gameUUID string) (models.Game, bool) {
	if g, ok := r.ReadCurrentSeasonGame(gameUUID); ok {
		return g, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.rest[gameUUID]
	return g, ok
}

// ReadRaw returns the stored season bytes for zero-copy serving.
func (r *GameRegistry) ReadRaw(season models.Season) ([]byte, bool) {
	return r.seasons.ReadRaw(string(season))
}

// ReadAllGames flattens every persisted season.
func (r *GameRegistry) ReadAllGames() []models.Game {
	var out []models.Game
	for _, season := range r.seasons.ReadAll() {
		out = append(out, season...)
	}
	return out
}
