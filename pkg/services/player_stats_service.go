package services

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

// PlayerStatsService folds the per-game boxscore lines into season
// aggregates, keyed two ways: per (season, team) for roster listings and per
// player id for career views.
type PlayerStatsService struct {
	players *PlayerService
	rosters *store.Collection[[]models.PlayerSeasonStats]
	careers *store.Collection[[]models.PlayerSeasonStats]
	logger  *slog.Logger
}

// NewPlayerStatsService opens the aggregate collections under root.
func NewPlayerStatsService(players *PlayerService, root string) *PlayerStatsService {
	return &PlayerStatsService{
		players: players,
		rosters: store.NewCollection[[]models.PlayerSeasonStats](root, "v2_api_team_players"),
		careers: store.NewCollection[[]models.PlayerSeasonStats](root, "v2_api_player_career"),
		logger:  slog.With("component", "player_stats"),
	}
}

func rosterKey(season models.Season, teamCode string) string {
	return fmt.Sprintf("%s/%s", season, teamCode)
}

// ReadRosterRaw returns the stored roster bytes for one (season, team).
func (s *PlayerStatsService) ReadRosterRaw(season models.Season, teamCode string) ([]byte, bool) {
	return s.rosters.ReadRaw(rosterKey(season, teamCode))
}

// ReadCareerRaw returns the stored career bytes for one player.
func (s *PlayerStatsService) ReadCareerRaw(playerID int) ([]byte, bool) {
	return s.careers.ReadRaw(strconv.Itoa(playerID))
}

type playerSeasonKey struct {
	playerID int
	season   models.Season
	team     string
}

// Update rebuilds the aggregates from the cached boxscores of every game
// that has started. Games without a cached boxscore are skipped.
func (s *PlayerStatsService) Update(games []models.Game) {
	start := time.Now()
	s.logger.Info("player stats update", "games", len(games))

	rows := map[playerSeasonKey]*models.PlayerSeasonStats{}
	for _, g := range games {
		if g.Status == models.StatusComing {
			continue
		}
		athletes, ok := s.players.Read(g.Season, g.League, g.GameUUID)
		if !ok {
			continue
		}
		for _, a := range athletes {
			accumulate(rows, g.Season, a)
		}
	}
	s.logger.Info("player stats aggregated", "players", len(rows))

	rosters := map[string][]models.PlayerSeasonStats{}
	careers := map[string][]models.PlayerSeasonStats{}
	for key, row := range rows {
		rosters[rosterKey(key.season, key.team)] = append(rosters[rosterKey(key.season, key.team)], *row)
		careers[strconv.Itoa(key.playerID)] = append(careers[strconv.Itoa(key.playerID)], *row)
	}
	for key, list := range rosters {
		if err := s.rosters.Write(key, list); err != nil {
			s.logger.Error("persist roster", "key", key, "err", err)
		}
	}
	for key, list := range careers {
		if err := s.careers.Write(key, list); err != nil {
			s.logger.Error("persist career", "key", key, "err", err)
		}
	}
	s.logger.Info("player stats updated", "elapsed", time.Since(start).Round(time.Millisecond))
}

// accumulate adds one boxscore line to the player's season row. A goalkeeper
// only counts a game played when they recorded a save, so a dressed backup
// does not inflate gp.
func accumulate(rows map[playerSeasonKey]*models.PlayerSeasonStats, season models.Season, a models.Athlete) {
	key := playerSeasonKey{playerID: a.ID, season: season, team: a.TeamCode}
	row, ok := rows[key]
	if !ok {
		row = &models.PlayerSeasonStats{
			PlayerID:   a.ID,
			FirstName:  a.FirstName,
			FamilyName: a.FamilyName,
			Jersey:     a.Jersey,
			Season:     season,
			Team:       a.TeamCode,
			Position:   a.Position,
			Stats:      models.SeasonStats{Type: a.Type},
		}
		if a.Type == models.AthleteTypeGoalkeeper {
			row.Position = "GK"
			row.Stats.Goalkeeper = &models.GoalkeeperSeasonStats{}
		} else {
			row.Stats.Player = &models.SkaterSeasonStats{}
		}
		rows[key] = row
	}

	switch a.Type {
	case models.AthleteTypeGoalkeeper:
		gk, line := row.Stats.Goalkeeper, a.Goalkeeper
		if gk == nil || line == nil {
			return
		}
		gk.GA += line.GA
		gk.SOGA += line.SOGA
		gk.SPGA += line.SPGA
		gk.SVS += line.SVS
		if line.SVS > 0 {
			gk.GP++
		}
	default:
		st, line := row.Stats.Player, a.Player
		if st == nil || line == nil {
			return
		}
		st.A += line.A
		st.G += line.G
		st.GP++
		st.SOG += line.SOG
		st.PIM += line.PIM
		st.PlusMinus += line.PlusMinus
		st.TOISec += line.TOISec
		st.FOW += line.FOW
		st.Hits += line.Hits
	}
}
