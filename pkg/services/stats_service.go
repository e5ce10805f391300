package services

import (
	"context"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
	"github.com/pucklabs/rinkside/pkg/upstream"
)

// StatsService serves the per-game team statistics, cache-or-fetch from the
// provider's period stats endpoint.
type StatsService struct {
	client *upstream.Client
	cache  *store.Collection[upstream.StatsRsp]
}

// NewStatsService opens the service over the shared response cache.
func NewStatsService(client *upstream.Client, root string) *StatsService {
	return &StatsService{
		client: client,
		cache:  store.NewCollection[upstream.StatsRsp](root, "rest"),
	}
}

// Update returns the game's team stats, fetching when the cached response is
// older than maxAge.
func (s *StatsService) Update(ctx context.Context, league models.League, gameUUID string, maxAge time.Duration) (models.GameStats, bool) {
	url := s.client.StatsURL(league, gameUUID)
	rsp, ok := upstream.ThrottleCall(ctx, s.client, s.cache, url, maxAge)
	if !ok {
		return models.GameStats{}, false
	}
	return rsp.ToGameStats()
}

// IsStale reports whether the game has no cached stats response.
func (s *StatsService) IsStale(league models.League, gameUUID string) bool {
	return s.cache.IsStale(s.client.StatsURL(league, gameUUID), store.Forever)
}
