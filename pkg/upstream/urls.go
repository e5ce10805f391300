package upstream

import (
	"fmt"

	"github.com/pucklabs/rinkside/pkg/models"
)

// Provider-opaque identifiers for the covered leagues, game types and
// seasons. New seasons get a new uuid from the provider each year.
var (
	leagueUUIDs = map[models.League]string{
		models.LeagueSHL: "qQ9-bb0bzEWUk",
		models.LeagueHA:  "qQ9-594cW8OWD",
	}

	gameTypeUUIDs = map[models.GameType]string{
		models.GameTypeSeason:   "qQ9-af37Ti40B",
		models.GameTypePlayOff:  "qQ9-7debq38kX",
		models.GameTypeDemotion: "qRf-347BaDIOc",
	}

	seasonUUIDs = map[models.Season]string{
		models.Season2023: "qcz-3NvSZ2Cmh",
		models.Season2022: "qbN-XMFfjGVt",
		models.Season2021: "qZl-8qa6OaFXf",
		models.Season2020: "qY7-AdVh5z1XJ",
		models.Season2019: "qWX-334j11U5o1",
		models.Season2018: "qUv-YXiuQN45",
	}
)

// BaseURL returns the REST base for a league.
func (c *Client) BaseURL(league models.League) string {
	if league == models.LeagueHA {
		return c.haURL
	}
	return c.shlURL
}

// SeasonURL builds the schedule endpoint for one season slice.
func (c *Client) SeasonURL(key models.SeasonKey) string {
	return fmt.Sprintf("%s/sports/game-info?gamePlace=all&played=all&seasonUuid=%s&seriesUuid=%s&gameTypeUuid=%s",
		c.BaseURL(key.League), seasonUUIDs[key.Season], leagueUUIDs[key.League], gameTypeUUIDs[key.GameType])
}

// EventsURL builds the legacy play-by-play endpoint. The provider serves it
// from the SHL base regardless of league.
func (c *Client) EventsURL(gameUUID string) string {
	return fmt.Sprintf("%s/gameday/play-by-play/initial-events/%s", c.shlURL, gameUUID)
}

// LiveEventsURL builds the current-season play-by-play endpoint, also served
// from the SHL base.
func (c *Client) LiveEventsURL(gameUUID string) string {
	return fmt.Sprintf("%s/gameday/play-by-play/%s", c.shlURL, gameUUID)
}

// StatsURL builds the period statistics endpoint.
func (c *Client) StatsURL(league models.League, gameUUID string) string {
	return fmt.Sprintf("%s/gameday/periodstats/%s", c.BaseURL(league), gameUUID)
}

// PlayerStatsURL builds the boxscore endpoint.
func (c *Client) PlayerStatsURL(league models.League, gameUUID string) string {
	return fmt.Sprintf("%s/gameday/boxscore/%s", c.BaseURL(league), gameUUID)
}
