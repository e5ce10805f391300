package models

import "encoding/json"

// AthleteType tags which stat family an athlete line carries.
type AthleteType string

const (
	AthleteTypePlayer     AthleteType = "Player"
	AthleteTypeGoalkeeper AthleteType = "Goalkeeper"
)

// SkaterGameStats is one skater's boxscore line for a single game.
type SkaterGameStats struct {
	PlusMinus int `json:"+/-"`
	A         int `json:"a"`
	FOL       int `json:"fol"`
	FOW       int `json:"fow"`
	G         int `json:"g"`
	Hits      int `json:"hits"`
	PIM       int `json:"pim"`
	SOG       int `json:"sog"`
	SW        int `json:"sw"`
	TOISec    int `json:"toi_s"`
	GP        int `json:"gp"`
}

// GoalkeeperGameStats is one goalkeeper's boxscore line for a single game.
type GoalkeeperGameStats struct {
	GA   int `json:"ga"`
	SOGA int `json:"soga"`
	SPGA int `json:"spga"`
	SVS  int `json:"svs"`
	GP   int `json:"gp"`
}

// Athlete is one game boxscore line. Like Event, the JSON form flattens the
// stat payload next to the shared fields under a "type" tag.
type Athlete struct {
	ID         int
	FirstName  string
	FamilyName string
	Jersey     int
	TeamCode   string
	Position   string
	Season     Season
	Type       AthleteType

	Player     *SkaterGameStats
	Goalkeeper *GoalkeeperGameStats
}

type athleteShell struct {
	ID         int         `json:"id"`
	FirstName  string      `json:"first_name"`
	FamilyName string      `json:"family_name"`
	Jersey     int         `json:"jersey"`
	TeamCode   string      `json:"team_code"`
	Position   string      `json:"position"`
	Season     Season      `json:"season"`
	Type       AthleteType `json:"type"`
}

func (a Athlete) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if err := mergeInto(out, athleteShell{
		ID:         a.ID,
		FirstName:  a.FirstName,
		FamilyName: a.FamilyName,
		Jersey:     a.Jersey,
		TeamCode:   a.TeamCode,
		Position:   a.Position,
		Season:     a.Season,
		Type:       a.Type,
	}); err != nil {
		return nil, err
	}
	switch a.Type {
	case AthleteTypeGoalkeeper:
		if a.Goalkeeper != nil {
			if err := mergeInto(out, a.Goalkeeper); err != nil {
				return nil, err
			}
		}
	default:
		if a.Player != nil {
			if err := mergeInto(out, a.Player); err != nil {
				return nil, err
			}
		}
	}
	return json.Marshal(out)
}

func (a *Athlete) UnmarshalJSON(data []byte) error {
	var shell athleteShell
	if err := json.Unmarshal(data, &shell); err != nil {
		return err
	}
	a.ID = shell.ID
	a.FirstName = shell.FirstName
	a.FamilyName = shell.FamilyName
	a.Jersey = shell.Jersey
	a.TeamCode = shell.TeamCode
	a.Position = shell.Position
	a.Season = shell.Season
	a.Type = shell.Type
	if shell.Type == AthleteTypeGoalkeeper {
		a.Goalkeeper = &GoalkeeperGameStats{}
		return json.Unmarshal(data, a.Goalkeeper)
	}
	a.Player = &SkaterGameStats{}
	return json.Unmarshal(data, a.Player)
}

// SkaterSeasonStats accumulates a skater's line across a season.
type SkaterSeasonStats struct {
	A         int `json:"a"`
	G         int `json:"g"`
	PlusMinus int `json:"plus_minus"`
	GP        int `json:"gp"`
	SOG       int `json:"sog"`
	TOISec    int `json:"toi_s"`
	PIM       int `json:"pim"`
	FOW       int `json:"fow"`
	Hits      int `json:"hits"`
}

// GoalkeeperSeasonStats accumulates a goalkeeper's line across a season.
type GoalkeeperSeasonStats struct {
	GA   int `json:"ga"`
	SOGA int `json:"soga"`
	SPGA int `json:"spga"`
	SVS  int `json:"svs"`
	GP   int `json:"gp"`
}

// SeasonStats is the tagged aggregate payload of a PlayerSeasonStats row.
type SeasonStats struct {
	Type       AthleteType
	Player     *SkaterSeasonStats
	Goalkeeper *GoalkeeperSeasonStats
}

func (s SeasonStats) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": s.Type}
	switch s.Type {
	case AthleteTypeGoalkeeper:
		if s.Goalkeeper != nil {
			if err := mergeInto(out, s.Goalkeeper); err != nil {
				return nil, err
			}
		}
	default:
		if s.Player != nil {
			if err := mergeInto(out, s.Player); err != nil {
				return nil, err
			}
		}
	}
	return json.Marshal(out)
}

func (s *SeasonStats) UnmarshalJSON(data []byte) error {
	var shell struct {
		Type AthleteType `json:"type"`
	}
	if err := json.Unmarshal(data, &shell); err != nil {
		return err
	}
	s.Type = shell.Type
	if shell.Type == AthleteTypeGoalkeeper {
		s.Goalkeeper = &GoalkeeperSeasonStats{}
		return json.Unmarshal(data, s.Goalkeeper)
	}
	s.Player = &SkaterSeasonStats{}
	return json.Unmarshal(data, s.Player)
}

// PlayerSeasonStats is one (player, season, team) aggregate row, served both
// in roster listings and career views.
type PlayerSeasonStats struct {
	PlayerID   int         `json:"player_id"`
	FirstName  string      `json:"first_name"`
	FamilyName string      `json:"family_name"`
	Jersey     int         `json:"jersey"`
	Season     Season      `json:"season"`
	Team       string      `json:"team"`
	Position   string      `json:"position"`
	Stats      SeasonStats `json:"stats"`
}
