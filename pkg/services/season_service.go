package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

// The current season is at most this old in cache; the poll loop decides how
// often to ask. Past seasons never expire once fetched.
const currentSeasonMaxAge = 10 * time.Hour

// SeasonService ingests the provider's schedule: one fetch per
// (season, league, game type) slice, normalized to Game records.
type SeasonService struct {
	client  *upstream.Client
	cache   *store.Collection[upstream.SeasonRsp]
	reports *ReportService
	teams   *TeamsService
	logger  *slog.Logger
}

// NewSeasonService builds the ingestor over the shared response cache.
func NewSeasonService(client *upstream.Client, root string, reports *ReportService, teams *TeamsService) *SeasonService {
	return &SeasonService{
		client:  client,
		cache:   store.NewCollection[upstream.SeasonRsp](root, "rest"),
		reports: reports,
		teams:   teams,
		logger:  slog.With("component", "season"),
	}
}

func seasonMaxAge(season models.Season) time.Duration {
	if season.IsCurrent() {
		return currentSeasonMaxAge
	}
	return store.Forever
}

// Update fetches and normalizes every slice of one season, folding team
// lists into the catalog on the way. updated reports whether at least one
// slice was freshly fetched rather than read from cache.
func (s *SeasonService) Update(ctx context.Context, season models.Season) ([]models.Game, bool) {
	start := time.Now()
	maxAge := seasonMaxAge(season)
	var games []models.Game
	updated := false

	for _, league := range models.AllLeagues() {
		for _, gameType := range models.AllGameTypes() {
			key := models.SeasonKey{Season: season, League: league, GameType: gameType}
			url := s.client.SeasonURL(key)
			wasStale := s.cache.IsStale(url, maxAge)
			rsp, ok := upstream.ThrottleCall(ctx, s.client, s.cache, url, maxAge)
			if !ok {
				continue
			}
			if wasStale {
				updated = true
			}
			games = append(games, s.decorate(key, rsp)...)
			s.teams.Merge(league, rsp.TeamList)
		}
	}

	s.logger.Info("season ingested", "season", season, "games", len(games),
		"updated", updated, "elapsed", time.Since(start).Round(time.Millisecond))
	return games, updated
}

// decorate maps one schedule slice to Game records. The base status comes
// from the provider state; for games about to start, a persisted live report
// overrides the schedule row so a restart resumes mid-game.
func (s *SeasonService) decorate(key models.SeasonKey, rsp upstream.SeasonRsp) []models.Game {
	now := time.Now()
	games := make([]models.Game, 0, len(rsp.GameInfo))
	for _, raw := range rsp.GameInfo {
		status := models.StatusComing
		if raw.Played() {
			status = models.StatusFinished
		}
		g := models.Game{
			GameUUID:       raw.UUID,
			HomeTeamCode:   raw.HomeTeamInfo.TeamCode(),
			AwayTeamCode:   raw.AwayTeamInfo.TeamCode(),
			HomeTeamResult: raw.HomeTeamInfo.Score.Num(),
			AwayTeamResult: raw.AwayTeamInfo.Score.Num(),
			StartDateTime:  raw.StartDateTime,
			Status:         status,
			Shootout:       raw.Shootout,
			Overtime:       raw.Overtime,
			Played:         status == models.StatusFinished,
			GameType:       key.GameType,
			League:         key.League,
			Season:         key.Season,
		}
		if raw.AboutToStart(now) {
			if report, ok := s.reports.Read(raw.UUID); ok {
				g.Status = report.Status
				g.Played = report.Status == models.StatusFinished
				g.HomeTeamResult = report.HomeTeamResult
				g.AwayTeamResult = report.AwayTeamResult
				g.Overtime = report.Overtime
				g.Shootout = report.Shootout
				gametime := report.Gametime
				g.Gametime = &gametime
			}
		}
		games = append(games, g)
	}
	return games
}
