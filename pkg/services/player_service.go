package services

import (
	"context"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

// PlayerService serves the per-game boxscore lines, cache-or-fetch from the
// provider's boxscore endpoint.
type PlayerService struct {
	client *upstream.Client
	cache  *store.Collection[upstream.PlayerStatsRsp]
}

// NewPlayerService opens the service over the shared response cache.
func NewPlayerService(client *upstream.Client, root string) *PlayerService {
	return &PlayerService{
		client: client,
		cache:  store.NewCollection[upstream.PlayerStatsRsp](root, "rest"),
	}
}

// Update returns the game's athlete lines, fetching when the cached response
// is older than maxAge.
func (s *PlayerService) Update(ctx context.Context, season models.Season, league models.League, gameUUID string, maxAge time.Duration) []models.Athlete {
	url := s.client.PlayerStatsURL(league, gameUUID)
	rsp, ok := upstream.ThrottleCall(ctx, s.client, s.cache, url, maxAge)
	if !ok {
		return nil
	}
	return rsp.ToAthletes(season)
}

// Read returns the athlete lines from cache only.
func (s *PlayerService) Read(season models.Season, league models.League, gameUUID string) ([]models.Athlete, bool) {
	rsp, ok := s.cache.Read(s.client.PlayerStatsURL(league, gameUUID))
	if !ok {
		return nil, false
	}
	return rsp.ToAthletes(season), true
}

// IsStale reports whether the game has no cached boxscore response.
func (s *PlayerService) IsStale(league models.League, gameUUID string) bool {
	return s.cache.IsStale(s.client.PlayerStatsURL(league, gameUUID), store.Forever)
}
