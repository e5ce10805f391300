package models

// Vote is one user's pick for a coming game. Stored keyed by user and game,
// so re-voting replaces the earlier pick.
type Vote struct {
	UserID       string `json:"user_id"`
	GameUUID     string `json:"game_uuid"`
	TeamCode     string `json:"team_code"`
	IsHomeWinner bool   `json:"is_home_winner"`
}

// VotePerGame is the running tally for one game.
type VotePerGame struct {
	HomeCount int `json:"home_count"`
	AwayCount int `json:"away_count"`
}

// Percentages reduces the tally to the public integer percentages. The away
// share is the complement of the home share so the two always sum to 100
// when any votes exist.
func (v VotePerGame) Percentages() VotePercentages {
	total := v.HomeCount + v.AwayCount
	if total == 0 {
		return VotePercentages{}
	}
	home := v.HomeCount * 100 / total
	return VotePercentages{HomePerc: home, AwayPerc: 100 - home}
}

// VotePercentages is the aggregate exposed on games and vote responses.
type VotePercentages struct {
	HomePerc int `json:"home_perc"`
	AwayPerc int `json:"away_perc"`
}

// GameVotes couples a tally with its game for channel hand-off to the
// registry integrator.
type GameVotes struct {
	GameUUID string
	Votes    VotePerGame
}
