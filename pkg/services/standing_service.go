package services

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

// StandingService derives the league tables from played regular-season
// games and persists them per (league, season).
type StandingService struct {
	standings *store.Collection[[]models.Standing]
	logger    *slog.Logger
}

// NewStandingService opens the standings collection under root.
func NewStandingService(root string) *StandingService {
	return &StandingService{
		standings: store.NewCollection[[]models.Standing](root, "v2_standings"),
		logger:    slog.With("component", "standings"),
	}
}

func standingKey(league models.League, season models.Season) string {
	return fmt.Sprintf("%s_%s", league, season)
}

// Update rebuilds both league tables of one season from the given games.
func (s *StandingService) Update(season models.Season, games []models.Game) {
	start := time.Now()
	for _, league := range models.AllLeagues() {
		table := buildStandings(league, games)
		if err := s.standings.Write(standingKey(league, season), table); err != nil {
			s.logger.Error("persist standings", "league", league, "season", season, "err", err)
		}
	}
	s.logger.Info("standings updated", "season", season, "elapsed", time.Since(start).Round(time.Millisecond))
}

// Read returns one league's table.
func (s *StandingService) Read(league models.League, season models.Season) []models.Standing {
	table, _ := s.standings.Read(standingKey(league, season))
	return table
}

// ReadRaw returns one league's stored table bytes.
func (s *StandingService) ReadRaw(league models.League, season models.Season) ([]byte, bool) {
	return s.standings.ReadRaw(standingKey(league, season))
}

// ReadAll returns both league tables of a season.
func (s *StandingService) ReadAll(season models.Season) models.Standings {
	return models.Standings{
		SHL: s.Read(models.LeagueSHL, season),
		HA:  s.Read(models.LeagueHA, season),
	}
}

// buildStandings folds the league's regular-season games into a ranked
// table. Every scheduled team gets a row; only played games score. Points:
// 3 for a regulation win, 2 for an overtime or shootout win, 1 for an
// overtime or shootout loss, 0 otherwise.
func buildStandings(league models.League, games []models.Game) []models.Standing {
	rows := map[string]*models.Standing{}
	rowFor := func(code string) *models.Standing {
		if row, ok := rows[code]; ok {
			return row
		}
		row := &models.Standing{TeamCode: code, League: league}
		rows[code] = row
		return row
	}

	for _, g := range games {
		if g.League != league || g.GameType != models.GameTypeSeason {
			continue
		}
		home := rowFor(g.HomeTeamCode)
		away := rowFor(g.AwayTeamCode)
		if !g.Played {
			continue
		}
		home.GP++
		home.Points += pointsFor(g, g.HomeTeamCode)
		home.Diff += g.HomeTeamResult - g.AwayTeamResult
		away.GP++
		away.Points += pointsFor(g, g.AwayTeamCode)
		away.Diff += g.AwayTeamResult - g.HomeTeamResult
	}

	table := make([]models.Standing, 0, len(rows))
	for _, row := range rows {
		table = append(table, *row)
	}
	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if (a.GP == 0) != (b.GP == 0) {
			return b.GP == 0
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Diff != b.Diff {
			return a.Diff > b.Diff
		}
		return a.TeamCode < b.TeamCode
	})
	for i := range table {
		if table[i].GP > 0 {
			table[i].Rank = i + 1
		}
	}
	return table
}

func pointsFor(g models.Game, teamCode string) int {
	won := g.Winner() == teamCode
	extra := g.Overtime || g.Shootout
	switch {
	case won && !extra:
		return 3
	case won:
		return 2
	case extra:
		return 1
	default:
		return 0
	}
}
