package models

// PlayoffEntry is one series in the bracket. The pairings, series length and
// elimination notes are hand-authored; the scores are recomputed from played
// games. The "eliminiated" spelling is kept for wire compatibility.
type PlayoffEntry struct {
	Team1      string  `json:"team1"`
	Team2      string  `json:"team2"`
	Score1     int     `json:"score1"`
	Score2     int     `json:"score2"`
	Eliminated *string `json:"eliminiated,omitempty"`
	NrGames    int     `json:"nr_games"`
}

// Placeholder team code used in bracket templates before a pairing is known.
const TeamTBD = "TBD"

// Decided reports whether both teams of the pairing are known.
func (e PlayoffEntry) Decided() bool {
	return e.Team1 != TeamTBD && e.Team2 != TeamTBD && e.Team1 != "" && e.Team2 != ""
}

// PlayoffSeries is one league's bracket.
type PlayoffSeries struct {
	Eight    []PlayoffEntry `json:"eight,omitempty"`
	Quarter  []PlayoffEntry `json:"quarter,omitempty"`
	Semi     []PlayoffEntry `json:"semi,omitempty"`
	Final    *PlayoffEntry  `json:"final,omitempty"`
	Demotion *PlayoffEntry  `json:"demotion,omitempty"`
}

// Playoffs groups the per-league brackets under the keys clients expect.
type Playoffs struct {
	SHL PlayoffSeries `json:"SHL"`
	HA  PlayoffSeries `json:"HA"`
}
