package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// League identifies one of the two covered leagues.
type League string

const (
	LeagueSHL League = "SHL"
	LeagueHA  League = "HA"
)

// AllLeagues returns every league in ingestion order.
func AllLeagues() []League {
	return []League{LeagueSHL, LeagueHA}
}

// ParseLeague maps a route or payload value to a League.
func ParseLeague(s string) (League, error) {
	switch League(s) {
	case LeagueSHL:
		return LeagueSHL, nil
	case LeagueHA:
		return LeagueHA, nil
	}
	return "", fmt.Errorf("unknown league %q", s)
}

// GameType distinguishes regular season play from the post-season series.
type GameType string

const (
	GameTypeSeason   GameType = "Season"
	GameTypePlayOff  GameType = "PlayOff"
	GameTypeDemotion GameType = "Demotion"
)

// AllGameTypes returns every game type in ingestion order.
func AllGameTypes() []GameType {
	return []GameType{GameTypeSeason, GameTypePlayOff, GameTypeDemotion}
}

// Season names one yearly edition, e.g. "Season2023" covers 2023/2024.
type Season string

const (
	Season2023 Season = "Season2023"
	Season2022 Season = "Season2022"
	Season2021 Season = "Season2021"
	Season2020 Season = "Season2020"
	Season2019 Season = "Season2019"
	Season2018 Season = "Season2018"
)

// CurrentSeason returns the season the live pipeline tracks.
func CurrentSeason() Season {
	return Season2023
}

// AllSeasons returns every known season, current first.
func AllSeasons() []Season {
	return []Season{Season2023, Season2022, Season2021, Season2020, Season2019, Season2018}
}

// ParseSeason accepts both the canonical form ("Season2023") and the bare
// year ("2023") used by some clients.
func ParseSeason(s string) (Season, error) {
	candidate := Season(s)
	if !strings.HasPrefix(s, "Season") {
		candidate = Season("Season" + s)
	}
	if slices.Contains(AllSeasons(), candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// Year returns the bare year string, e.g. "2023".
func (s Season) Year() string {
	return strings.TrimPrefix(string(s), "Season")
}

// IsCurrent reports whether this season is the live one.
func (s Season) IsCurrent() bool {
	return s == CurrentSeason()
}

// SeasonKey addresses one upstream schedule slice.
type SeasonKey struct {
	Season   Season
	League   League
	GameType GameType
}

func (k SeasonKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Season, k.League, k.GameType)
}

// GameStatus tracks where in its lifecycle a game is. The zero value is not
// meaningful; Coming is the initial status.
type GameStatus string

const (
	StatusComing       GameStatus = "Coming"
	StatusPeriod1      GameStatus = "Period1"
	StatusPeriod2      GameStatus = "Period2"
	StatusPeriod3      GameStatus = "Period3"
	StatusIntermission GameStatus = "Intermission"
	StatusOvertime     GameStatus = "Overtime"
	StatusShootout     GameStatus = "Shootout"
	StatusFinished     GameStatus = "Finished"
)

// LegalSuccessors returns the statuses a game may move to next. Finished is
// terminal and returns nil.
func (s GameStatus) LegalSuccessors() []GameStatus {
	switch s {
	case StatusComing:
		return []GameStatus{StatusPeriod1}
	case StatusPeriod1:
		return []GameStatus{StatusIntermission, StatusPeriod2}
	case StatusPeriod2:
		return []GameStatus{StatusIntermission, StatusPeriod3}
	case StatusPeriod3:
		return []GameStatus{StatusIntermission, StatusFinished, StatusOvertime}
	case StatusOvertime:
		return []GameStatus{StatusIntermission, StatusFinished, StatusShootout}
	case StatusShootout:
		return []GameStatus{StatusIntermission, StatusFinished}
	case StatusIntermission:
		return []GameStatus{StatusPeriod1, StatusPeriod2, StatusPeriod3, StatusOvertime, StatusShootout, StatusFinished}
	default:
		return nil
	}
}

// CanBecome reports whether next is a legal successor of s.
func (s GameStatus) CanBecome(next GameStatus) bool {
	return slices.Contains(s.LegalSuccessors(), next)
}

// IsLive reports whether the game is in progress.
func (s GameStatus) IsLive() bool {
	return s != StatusComing && s != StatusFinished
}

// StatusFromGameState maps the provider's live-state string plus the current
// period number to a status.
func StatusFromGameState(gameState string, period int) GameStatus {
	switch gameState {
	case "NotStarted":
		return StatusComing
	case "GameEnded":
		return StatusFinished
	case "Intermission", "PeriodBreak":
		return StatusIntermission
	case "ShootOut":
		return StatusShootout
	case "OverTime":
		return StatusOvertime
	case "Ongoing":
		return StatusFromPeriod(period)
	default:
		return StatusComing
	}
}

// StatusFromPeriod maps the provider's period numbering: 1-3 are regulation,
// 4-10 overtime periods, 99 the shootout.
func StatusFromPeriod(period int) GameStatus {
	switch {
	case period == 99:
		return StatusShootout
	case period >= 4 && period <= 10:
		return StatusOvertime
	case period == 2:
		return StatusPeriod2
	case period == 3:
		return StatusPeriod3
	default:
		return StatusPeriod1
	}
}

// Game is the decorated season entry cached in the registry and served to
// clients.
type Game struct {
	GameUUID       string           `json:"game_uuid"`
	HomeTeamCode   string           `json:"home_team_code"`
	AwayTeamCode   string           `json:"away_team_code"`
	HomeTeamResult int              `json:"home_team_result"`
	AwayTeamResult int              `json:"away_team_result"`
	StartDateTime  time.Time        `json:"start_date_time"`
	Status         GameStatus       `json:"status"`
	Shootout       bool             `json:"shootout"`
	Overtime       bool             `json:"overtime"`
	Played         bool             `json:"played"`
	GameType       GameType         `json:"game_type"`
	League         League           `json:"league"`
	Season         Season           `json:"season"`
	Gametime       *string          `json:"gametime,omitempty"`
	Votes          *VotePercentages `json:"votes,omitempty"`
}

// String renders the scoreboard line, e.g. "SAIK 3 - 2 OHK".
func (g Game) String() string {
	return fmt.Sprintf("%s %d - %d %s", g.HomeTeamCode, g.HomeTeamResult, g.AwayTeamResult, g.AwayTeamCode)
}

// IsPotentiallyLive reports whether a live listener should cover the game:
// not yet finished and starting within the next three minutes, or already
// under way.
func (g Game) IsPotentiallyLive(now time.Time) bool {
	return g.Status != StatusFinished && g.StartDateTime.Before(now.Add(3*time.Minute))
}

// Winner returns the code of the leading team, or "" on a tie.
func (g Game) Winner() string {
	switch {
	case g.HomeTeamResult > g.AwayTeamResult:
		return g.HomeTeamCode
	case g.AwayTeamResult > g.HomeTeamResult:
		return g.AwayTeamCode
	default:
		return ""
	}
}

// Includes reports whether teamCode plays in this game.
func (g Game) Includes(teamCode string) bool {
	return g.HomeTeamCode == teamCode || g.AwayTeamCode == teamCode
}
