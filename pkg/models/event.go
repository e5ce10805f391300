package models

import (
	"encoding/json"
	"fmt"
)

// EventType tags the payload variant carried by an Event.
type EventType string

const (
	EventTypeGameStart   EventType = "GameStart"
	EventTypeGameEnd     EventType = "GameEnd"
	EventTypeGoal        EventType = "Goal"
	EventTypePenalty     EventType = "Penalty"
	EventTypePeriodStart EventType = "PeriodStart"
	EventTypePeriodEnd   EventType = "PeriodEnd"
	EventTypeShot        EventType = "Shot"
	EventTypeTimeout     EventType = "Timeout"
	EventTypeGeneral     EventType = "General"
)

// EventLevel ranks how loudly an event is surfaced to users.
type EventLevel int

const (
	LevelLow EventLevel = iota
	LevelMedium
	LevelHigh
)

// Level classifies the event type. High-level events reach alert
// notifications, medium ones live activities only, low ones neither.
func (t EventType) Level() EventLevel {
	switch t {
	case EventTypeGoal, EventTypeGameStart, EventTypeGameEnd:
		return LevelHigh
	case EventTypePenalty, EventTypePeriodStart, EventTypePeriodEnd, EventTypeTimeout:
		return LevelMedium
	default:
		return LevelLow
	}
}

// EventPlayer names the athlete an event is attributed to.
type EventPlayer struct {
	FirstName  string `json:"first_name"`
	FamilyName string `json:"family_name"`
	Jersey     int    `json:"jersey"`
}

func (p EventPlayer) String() string {
	return fmt.Sprintf("%d %s %s", p.Jersey, p.FirstName, p.FamilyName)
}

// Location is a rink coordinate as reported upstream.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GoalInfo carries the goal variant payload.
type GoalInfo struct {
	Team           string       `json:"team"`
	Player         *EventPlayer `json:"player,omitempty"`
	TeamAdvantage  string       `json:"team_advantage"`
	Assist         *string      `json:"assist,omitempty"`
	HomeTeamResult int          `json:"home_team_result"`
	AwayTeamResult int          `json:"away_team_result"`
	Location       Location     `json:"location"`
}

// PenaltyInfo carries the penalty variant payload.
type PenaltyInfo struct {
	Team    string       `json:"team"`
	Player  *EventPlayer `json:"player,omitempty"`
	Reason  string       `json:"reason"`
	Penalty *string      `json:"penalty,omitempty"`
}

// ShotInfo carries the shot variant payload.
type ShotInfo struct {
	Team     string   `json:"team"`
	Location Location `json:"location"`
}

// GameEndInfo carries the winner, absent on a tie.
type GameEndInfo struct {
	Winner *string `json:"winner,omitempty"`
}

// Event is one canonical game event. The JSON form flattens the variant
// payload next to the shared fields under a "type" tag, for example:
//
//	{"game_uuid":"...","event_id":"42","revision":1,"status":"Period1",
//	 "gametime":"13:37","description":"...","type":"Goal","team":"SAIK",...}
type Event struct {
	GameUUID    string
	EventID     string
	Revision    int
	Status      GameStatus
	Gametime    string
	Description string
	Type        EventType

	Goal    *GoalInfo
	Penalty *PenaltyInfo
	Shot    *ShotInfo
	GameEnd *GameEndInfo
}

type eventShell struct {
	GameUUID    string     `json:"game_uuid"`
	EventID     string     `json:"event_id"`
	Revision    int        `json:"revision"`
	Status      GameStatus `json:"status"`
	Gametime    string     `json:"gametime"`
	Description string     `json:"description"`
	Type        EventType  `json:"type"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if err := mergeInto(out, eventShell{
		GameUUID:    e.GameUUID,
		EventID:     e.EventID,
		Revision:    e.Revision,
		Status:      e.Status,
		Gametime:    e.Gametime,
		Description: e.Description,
		Type:        e.Type,
	}); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventTypeGoal:
		if e.Goal != nil {
			if err := mergeInto(out, e.Goal); err != nil {
				return nil, err
			}
		}
	case EventTypePenalty:
		if e.Penalty != nil {
			if err := mergeInto(out, e.Penalty); err != nil {
				return nil, err
			}
		}
	case EventTypeShot:
		if e.Shot != nil {
			if err := mergeInto(out, e.Shot); err != nil {
				return nil, err
			}
		}
	case EventTypeGameEnd:
		if e.GameEnd != nil {
			if err := mergeInto(out, e.GameEnd); err != nil {
				return nil, err
			}
		}
	}
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var shell eventShell
	if err := json.Unmarshal(data, &shell); err != nil {
		return err
	}
	e.GameUUID = shell.GameUUID
	e.EventID = shell.EventID
	e.Revision = shell.Revision
	e.Status = shell.Status
	e.Gametime = shell.Gametime
	e.Description = shell.Description
	e.Type = shell.Type
	switch shell.Type {
	case EventTypeGoal:
		e.Goal = &GoalInfo{}
		return json.Unmarshal(data, e.Goal)
	case EventTypePenalty:
		e.Penalty = &PenaltyInfo{}
		return json.Unmarshal(data, e.Penalty)
	case EventTypeShot:
		e.Shot = &ShotInfo{}
		return json.Unmarshal(data, e.Shot)
	case EventTypeGameEnd:
		e.GameEnd = &GameEndInfo{}
		return json.Unmarshal(data, e.GameEnd)
	}
	return nil
}

// mergeInto marshals v and folds its top-level keys into dst.
func mergeInto(dst map[string]any, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, val := range fields {
		dst[k] = val
	}
	return nil
}

// Level classifies how loudly this event should be surfaced.
func (e Event) Level() EventLevel {
	return e.Type.Level()
}

// ShouldNotify reports whether the event warrants an alert notification.
func (e Event) ShouldNotify() bool {
	return e.Level() == LevelHigh
}

// Team returns the team code the event is attributed to, or "".
func (e Event) Team() string {
	switch {
	case e.Goal != nil:
		return e.Goal.Team
	case e.Penalty != nil:
		return e.Penalty.Team
	case e.Shot != nil:
		return e.Shot.Team
	default:
		return ""
	}
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s (%s)", e.Type, e.Description, e.Gametime)
}
