package services

import (
	"log/slog"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

// PlayoffService keeps the per-season brackets. The pairings themselves are
// hand-authored and read back from the collection; Update only refreshes the
// series scores from played games.
type PlayoffService struct {
	playoffs *store.Collection[models.Playoffs]
	logger   *slog.Logger
}

// NewPlayoffService opens the playoffs collection under root.
func NewPlayoffService(root string) *PlayoffService {
	return &PlayoffService{
		playoffs: store.NewCollection[models.Playoffs](root, "v2_playoffs"),
		logger:   slog.With("component", "playoffs"),
	}
}

// Read returns the season's brackets.
func (s *PlayoffService) Read(season models.Season) (models.Playoffs, bool) {
	return s.playoffs.Read(string(season))
}

// ReadRaw returns the season's stored bracket bytes.
func (s *PlayoffService) ReadRaw(season models.Season) ([]byte, bool) {
	return s.playoffs.ReadRaw(string(season))
}

// Update recounts every series score of the season's brackets from the given
// games. A season without a stored bracket template is left alone.
func (s *PlayoffService) Update(season models.Season, games []models.Game) {
	brackets, ok := s.playoffs.Read(string(season))
	if !ok {
		return
	}
	fillSeries(&brackets.SHL, models.LeagueSHL, games)
	fillSeries(&brackets.HA, models.LeagueHA, games)
	if err := s.playoffs.Write(string(season), brackets); err != nil {
		s.logger.Error("persist playoffs", "season", season, "err", err)
		return
	}
	s.logger.Info("playoffs updated", "season", season)
}

func fillSeries(series *models.PlayoffSeries, league models.League, games []models.Game) {
	fill := func(entries []models.PlayoffEntry, gameType models.GameType) {
		for i := range entries {
			entries[i].Score1, entries[i].Score2 = seriesScore(entries[i], league, gameType, games)
		}
	}
	fill(series.Eight, models.GameTypePlayOff)
	fill(series.Quarter, models.GameTypePlayOff)
	fill(series.Semi, models.GameTypePlayOff)
	if series.Final != nil {
		series.Final.Score1, series.Final.Score2 = seriesScore(*series.Final, league, models.GameTypePlayOff, games)
	}
	if series.Demotion != nil {
		series.Demotion.Score1, series.Demotion.Score2 = seriesScore(*series.Demotion, league, models.GameTypeDemotion, games)
	}
}

// seriesScore counts each team's wins in the played games between the
// pairing's two teams. Undecided pairings score 0-0.
func seriesScore(entry models.PlayoffEntry, league models.League, gameType models.GameType, games []models.Game) (int, int) {
	if !entry.Decided() {
		return 0, 0
	}
	var score1, score2 int
	for _, g := range games {
		if g.League != league || g.GameType != gameType || !g.Played {
			continue
		}
		if !g.Includes(entry.Team1) || !g.Includes(entry.Team2) {
			continue
		}
		switch g.Winner() {
		case entry.Team1:
			score1++
		case entry.Team2:
			score2++
		}
	}
	return score1, score2
}
