package models

import "fmt"

// Report is the authoritative live scoreboard for one game, persisted per
// game uuid and merged over by sparse updates from the listeners.
type Report struct {
	GameUUID       string     `json:"game_uuid"`
	Gametime       string     `json:"gametime"`
	Status         GameStatus `json:"status"`
	HomeTeamCode   string     `json:"home_team_code"`
	AwayTeamCode   string     `json:"away_team_code"`
	HomeTeamResult int        `json:"home_team_result"`
	AwayTeamResult int        `json:"away_team_result"`
	Overtime       bool       `json:"overtime"`
	Shootout       bool       `json:"shootout"`
}

func (r Report) String() string {
	return fmt.Sprintf("%s %d - %d %s :: %s • %s",
		r.HomeTeamCode, r.HomeTeamResult, r.AwayTeamResult, r.AwayTeamCode, r.Status, r.Gametime)
}

// Scoreboard renders the short score line used in notification bodies.
func (r Report) Scoreboard() string {
	return fmt.Sprintf("%s %d - %d %s", r.HomeTeamCode, r.HomeTeamResult, r.AwayTeamResult, r.AwayTeamCode)
}

// ReportFromGame synthesizes an initial report for a game that has no
// persisted one yet.
func ReportFromGame(g Game) Report {
	gametime := "00:00"
	if g.Gametime != nil {
		gametime = *g.Gametime
	}
	return Report{
		GameUUID:       g.GameUUID,
		Gametime:       gametime,
		Status:         g.Status,
		HomeTeamCode:   g.HomeTeamCode,
		AwayTeamCode:   g.AwayTeamCode,
		HomeTeamResult: g.HomeTeamResult,
		AwayTeamResult: g.AwayTeamResult,
		Overtime:       g.Overtime,
		Shootout:       g.Shootout,
	}
}

// ReportUpdate is a sparse report delta. Nil fields leave the prior value
// untouched when applied.
type ReportUpdate struct {
	GameUUID       string      `json:"game_uuid"`
	Status         *GameStatus `json:"status,omitempty"`
	Gametime       *string     `json:"gametime,omitempty"`
	HomeTeamResult *int        `json:"home_team_result,omitempty"`
	AwayTeamResult *int        `json:"away_team_result,omitempty"`
	Overtime       *bool       `json:"overtime,omitempty"`
	Shootout       *bool       `json:"shootout,omitempty"`
}

// ApplyTo merges the delta over prior. A status landing on Overtime or
// Shootout latches the corresponding flag.
func (u ReportUpdate) ApplyTo(prior Report) Report {
	merged := prior
	merged.GameUUID = u.GameUUID
	if u.Status != nil {
		merged.Status = *u.Status
	}
	if u.Gametime != nil {
		merged.Gametime = *u.Gametime
	}
	if u.HomeTeamResult != nil {
		merged.HomeTeamResult = *u.HomeTeamResult
	}
	if u.AwayTeamResult != nil {
		merged.AwayTeamResult = *u.AwayTeamResult
	}
	if u.Overtime != nil {
		merged.Overtime = *u.Overtime
	}
	if u.Shootout != nil {
		merged.Shootout = *u.Shootout
	}
	if merged.Status == StatusOvertime {
		merged.Overtime = true
	}
	if merged.Status == StatusShootout {
		merged.Shootout = true
	}
	return merged
}
