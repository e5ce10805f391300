package models

// Standing is one row of a league table.
type Standing struct {
	TeamCode string `json:"team_code"`
	Rank     int    `json:"rank"`
	GP       int    `json:"gp"`
	Points   int    `json:"points"`
	Diff     int    `json:"diff"`
	League   League `json:"league"`
}

// Standings groups the per-league tables under the keys clients expect.
type Standings struct {
	SHL []Standing `json:"SHL"`
	HA  []Standing `json:"HA"`
}

// ForLeague returns the table of one league.
func (s Standings) ForLeague(league League) []Standing {
	if league == LeagueHA {
		return s.HA
	}
	return s.SHL
}
