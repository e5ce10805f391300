package upstream

import (
	"encoding/json"
	"fmt"

	"github.com/pucklabs/rinkside/pkg/models"
)

// SseEvent is one frame of the live stream. The provider sets exactly one of
// the fields per frame; frames with none set carry nothing we act on.
type SseEvent struct {
	GameReport     *GameReport     `json:"gameReport,omitempty"`
	PlayByPlay     *Action         `json:"playByPlay,omitempty"`
	GameTime       *SseGameTime    `json:"gameTime,omitempty"`
	LiveEvent      *LiveEvent      `json:"liveEvent,omitempty"`
	TeamStatistics *TeamStatistics `json:"teamStatistics,omitempty"`
	LiveState      *LiveStateEvent `json:"liveState,omitempty"`
}

// Action batches legacy play-by-play rows for one game.
type Action struct {
	GameUUID string       `json:"gameUuid"`
	Actions  []PlayByPlay `json:"actions"`
}

// GameReport is the scoreboard frame.
type GameReport struct {
	GameUUID      string      `json:"gameUuid"`
	GameTime      string      `json:"gameTime"`
	StatusString  string      `json:"statusString"`
	GameState     string      `json:"gameState"`
	Period        StringOrNum `json:"period"`
	HomeTeamID    *string     `json:"homeTeamId"`
	AwayTeamID    *string     `json:"awayTeamId"`
	HomeTeamScore StringOrNum `json:"homeTeamScore"`
	AwayTeamScore StringOrNum `json:"awayTeamScore"`
	Revision      int         `json:"revision"`
}

// Status derives the canonical game status from the report's state and period.
func (r GameReport) Status() models.GameStatus {
	return models.StatusFromGameState(r.GameState, r.Period.Num())
}

// ToUpdate maps the frame to a sparse report update. Team codes are not
// carried; the receiver already knows them from the season schedule.
func (r GameReport) ToUpdate() models.ReportUpdate {
	status := r.Status()
	gametime := r.GameTime
	home := r.HomeTeamScore.Num()
	away := r.AwayTeamScore.Num()
	return models.ReportUpdate{
		GameUUID:       r.GameUUID,
		Status:         &status,
		Gametime:       &gametime,
		HomeTeamResult: &home,
		AwayTeamResult: &away,
	}
}

// SseGameTime is the clock-only frame. Period and clock may arrive alone;
// only frames carrying both are usable.
type SseGameTime struct {
	GameUUID   string       `json:"gameUuid"`
	Period     *StringOrNum `json:"period,omitempty"`
	PeriodTime *string      `json:"periodTime,omitempty"`
}

// Valid reports whether the frame carries both period and clock.
func (t SseGameTime) Valid() bool {
	return t.Period != nil && t.PeriodTime != nil
}

// Status derives the canonical status from the frame's period.
func (t SseGameTime) Status() models.GameStatus {
	if t.Period == nil {
		return models.StatusComing
	}
	return models.StatusFromPeriod(t.Period.Num())
}

// Live state values as the provider sends them.
const (
	LiveStateUnknown      = "unknown"
	LiveStateOngoing      = "ongoing"
	LiveStateIntermission = "intermission"
	LiveStateDecided      = "decided"
	LiveStateOvertime     = "overtime"
	LiveStateShootout     = "shootout"
)

// LiveStateEvent is the coarse state transition frame.
type LiveStateEvent struct {
	GameUUID          string `json:"gameUuid"`
	LiveState         string `json:"liveState"`
	PreviousLiveState string `json:"previousLiveState"`
}

// Decided reports whether the game just ended.
func (e LiveStateEvent) Decided() bool {
	return e.LiveState == LiveStateDecided
}

// TeamStatistics is the per-team statistics frame.
type TeamStatistics struct {
	GameUUID   string        `json:"gameUuid"`
	TeamID     string        `json:"teamId"`
	Statistics []PeriodStats `json:"statistics"`
}

// PeriodStats is one period's captioned values; period 0 holds game totals.
type PeriodStats struct {
	Period                StringOrNum  `json:"period"`
	ParsedTotalStatistics []StatsValue `json:"parsedTotalStatistics"`
}

// StatsValue is one captioned value. The provider sends null values for
// captions it has not computed yet.
type StatsValue struct {
	Caption string       `json:"caption"`
	Value   *StringOrNum `json:"value"`
}

func (t TeamStatistics) totalFor(caption string) (int, bool) {
	for _, period := range t.Statistics {
		if period.Period.Num() != 0 {
			continue
		}
		for _, stat := range period.ParsedTotalStatistics {
			if stat.Caption == caption && stat.Value != nil {
				return stat.Value.Num(), true
			}
		}
	}
	return 0, false
}

// Score returns the frame team's goal total.
func (t TeamStatistics) Score() (int, bool) {
	return t.totalFor("G")
}

// Totals reduces the frame's game-total block to the served stat line.
func (t TeamStatistics) Totals() models.TeamGameStats {
	g, _ := t.totalFor("G")
	sog, _ := t.totalFor("SOG")
	pim, _ := t.totalFor("PIM")
	fow, _ := t.totalFor("FOW")
	return models.TeamGameStats{G: g, SOG: sog, PIM: pim, FOW: fow}
}

// OpponentScore returns the goals scored against the frame team.
func (t TeamStatistics) OpponentScore() (int, bool) {
	return t.totalFor("GA")
}

// LiveTeam pairs a team with its current score.
type LiveTeam struct {
	TeamID string      `json:"teamId"`
	Score  StringOrNum `json:"score"`
}

// LiveEventTeam names the team an event belongs to.
type LiveEventTeam struct {
	TeamID string `json:"teamId"`
}

// LivePlayer is the player reference of a live event.
type LivePlayer struct {
	PlayerID    StringOrNum `json:"playerId"`
	FirstName   string      `json:"firstName"`
	FamilyName  string      `json:"familyName"`
	JerseyToday StringOrNum `json:"jerseyToday"`
}

// ToEventPlayer maps the reference to the served player form.
func (p LivePlayer) ToEventPlayer() models.EventPlayer {
	return models.EventPlayer{
		FirstName:  p.FirstName,
		FamilyName: p.FamilyName,
		Jersey:     p.JerseyToday.Num(),
	}
}

// LiveShot is the payload of both shot and goal events.
type LiveShot struct {
	Time       string        `json:"time"`
	GameState  string        `json:"gameState"`
	GoalStatus *string       `json:"goalStatus,omitempty"`
	HomeTeam   LiveTeam      `json:"homeTeam"`
	AwayTeam   LiveTeam      `json:"awayTeam"`
	EventTeam  LiveEventTeam `json:"eventTeam"`
	Revision   int           `json:"revision"`
	Player     LivePlayer    `json:"player"`
}

// LivePeriod is the period transition payload.
type LivePeriod struct {
	Started  bool `json:"started"`
	Finished bool `json:"finished"`
}

// PenaltyVariant carries the penalty length, e.g. "2 min".
type PenaltyVariant struct {
	Description string `json:"description"`
}

// LivePenalty is the penalty payload.
type LivePenalty struct {
	Time      string         `json:"time"`
	GameState string         `json:"gameState"`
	HomeTeam  LiveTeam       `json:"homeTeam"`
	AwayTeam  LiveTeam       `json:"awayTeam"`
	EventTeam LiveEventTeam  `json:"eventTeam"`
	Revision  int            `json:"revision"`
	Player    *LivePlayer    `json:"player,omitempty"`
	Offence   string         `json:"offence"`
	Variant   PenaltyVariant `json:"variant"`
}

// LiveGoalkeeper is the goalkeeper in/out payload.
type LiveGoalkeeper struct {
	Time      string `json:"time"`
	GameState string `json:"gameState"`
}

// LiveEvent is one event frame. The JSON form flattens the payload next to
// the shared fields under a lowercase "type" tag; unrecognized types keep
// only the shared fields.
type LiveEvent struct {
	GameUUID string
	EventID  *StringOrNum
	Period   StringOrNum
	Type     string

	Shot       *LiveShot
	Goal       *LiveShot
	PeriodInfo *LivePeriod
	Penalty    *LivePenalty
	Goalkeeper *LiveGoalkeeper
}

type liveEventShell struct {
	GameUUID string       `json:"gameUuid"`
	EventID  *StringOrNum `json:"eventId,omitempty"`
	Period   StringOrNum  `json:"period"`
	Type     string       `json:"type,omitempty"`
}

func (e LiveEvent) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if err := mergeJSON(out, liveEventShell{
		GameUUID: e.GameUUID,
		EventID:  e.EventID,
		Period:   e.Period,
		Type:     e.Type,
	}); err != nil {
		return nil, err
	}
	var payload any
	switch {
	case e.Shot != nil:
		payload = e.Shot
	case e.Goal != nil:
		payload = e.Goal
	case e.PeriodInfo != nil:
		payload = e.PeriodInfo
	case e.Penalty != nil:
		payload = e.Penalty
	case e.Goalkeeper != nil:
		payload = e.Goalkeeper
	}
	if payload != nil {
		if err := mergeJSON(out, payload); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (e *LiveEvent) UnmarshalJSON(data []byte) error {
	var shell liveEventShell
	if err := json.Unmarshal(data, &shell); err != nil {
		return err
	}
	e.GameUUID = shell.GameUUID
	e.EventID = shell.EventID
	e.Period = shell.Period
	e.Type = shell.Type
	switch shell.Type {
	case "shot":
		e.Shot = &LiveShot{}
		return json.Unmarshal(data, e.Shot)
	case "goal":
		e.Goal = &LiveShot{}
		return json.Unmarshal(data, e.Goal)
	case "period":
		e.PeriodInfo = &LivePeriod{}
		return json.Unmarshal(data, e.PeriodInfo)
	case "penalty":
		e.Penalty = &LivePenalty{}
		return json.Unmarshal(data, e.Penalty)
	case "goalkeeper":
		e.Goalkeeper = &LiveGoalkeeper{}
		return json.Unmarshal(data, e.Goalkeeper)
	}
	return nil
}

// DeriveEventID returns the identity used for deduplication and in-place
// replacement. Period frames get a synthetic id since the provider sends
// them without one.
func (e LiveEvent) DeriveEventID() string {
	if e.PeriodInfo != nil {
		if e.PeriodInfo.Finished {
			return fmt.Sprintf("PeriodEnd %s", e.Period.Str())
		}
		return fmt.Sprintf("PeriodStart %s", e.Period.Str())
	}
	if e.EventID != nil {
		return e.EventID.Str()
	}
	return "eventId"
}

func (e LiveEvent) revision() int {
	switch {
	case e.Shot != nil:
		return e.Shot.Revision
	case e.Goal != nil:
		return e.Goal.Revision
	case e.Penalty != nil:
		return e.Penalty.Revision
	}
	return 1
}

func (e LiveEvent) status() models.GameStatus {
	switch {
	case e.Shot != nil:
		return models.StatusFromGameState(e.Shot.GameState, e.Period.Num())
	case e.Goal != nil:
		return models.StatusFromGameState(e.Goal.GameState, e.Period.Num())
	case e.Penalty != nil:
		return models.StatusFromGameState(e.Penalty.GameState, e.Period.Num())
	case e.Goalkeeper != nil:
		return models.StatusFromGameState(e.Goalkeeper.GameState, e.Period.Num())
	case e.PeriodInfo != nil:
		return models.StatusFromGameState("Ongoing", e.Period.Num())
	}
	return models.StatusComing
}

func (e LiveEvent) gametime() string {
	switch {
	case e.Shot != nil:
		return e.Shot.Time
	case e.Goal != nil:
		return e.Goal.Time
	case e.Penalty != nil:
		return e.Penalty.Time
	case e.Goalkeeper != nil:
		return e.Goalkeeper.Time
	}
	return "00:00"
}

// ToEvent maps the frame to a canonical event.
func (e LiveEvent) ToEvent() models.Event {
	event := models.Event{
		GameUUID: e.GameUUID,
		EventID:  e.DeriveEventID(),
		Revision: e.revision(),
		Status:   e.status(),
		Gametime: e.gametime(),
		Type:     models.EventTypeGeneral,
	}
	switch {
	case e.Goal != nil:
		advantage := "EQ"
		if e.Goal.GoalStatus != nil && *e.Goal.GoalStatus != "" {
			advantage = *e.Goal.GoalStatus
		}
		player := e.Goal.Player.ToEventPlayer()
		event.Type = models.EventTypeGoal
		event.Goal = &models.GoalInfo{
			Team:           e.Goal.EventTeam.TeamID,
			Player:         &player,
			TeamAdvantage:  advantage,
			HomeTeamResult: e.Goal.HomeTeam.Score.Num(),
			AwayTeamResult: e.Goal.AwayTeam.Score.Num(),
		}
	case e.Shot != nil:
		event.Type = models.EventTypeShot
		event.Shot = &models.ShotInfo{Team: e.Shot.EventTeam.TeamID}
	case e.Penalty != nil:
		info := models.PenaltyInfo{
			Team:   e.Penalty.EventTeam.TeamID,
			Reason: offenceName(e.Penalty.Offence),
		}
		if e.Penalty.Player != nil {
			player := e.Penalty.Player.ToEventPlayer()
			info.Player = &player
		}
		if e.Penalty.Variant.Description != "" {
			penalty := e.Penalty.Variant.Description
			info.Penalty = &penalty
		}
		event.Type = models.EventTypePenalty
		event.Penalty = &info
	case e.PeriodInfo != nil:
		if e.PeriodInfo.Finished {
			event.Type = models.EventTypePeriodEnd
		} else {
			event.Type = models.EventTypePeriodStart
		}
	}
	return event
}

// ToUpdate derives the report delta a live event implies. Goals move the
// score, period transitions move the clock, unknown frames move nothing.
func (e LiveEvent) ToUpdate() models.ReportUpdate {
	update := models.ReportUpdate{GameUUID: e.GameUUID}
	switch {
	case e.Goal != nil:
		status := models.StatusFromGameState(e.Goal.GameState, e.Period.Num())
		gametime := e.Goal.Time
		home := e.Goal.HomeTeam.Score.Num()
		away := e.Goal.AwayTeam.Score.Num()
		update.Status = &status
		update.Gametime = &gametime
		update.HomeTeamResult = &home
		update.AwayTeamResult = &away
	case e.Shot != nil:
		status := models.StatusFromGameState(e.Shot.GameState, e.Period.Num())
		gametime := e.Shot.Time
		update.Status = &status
		update.Gametime = &gametime
	case e.Penalty != nil:
		status := models.StatusFromGameState(e.Penalty.GameState, e.Period.Num())
		gametime := e.Penalty.Time
		update.Status = &status
		update.Gametime = &gametime
	case e.PeriodInfo != nil:
		status := models.StatusFromGameState("Ongoing", e.Period.Num())
		gametime := "00:00"
		if e.PeriodInfo.Started && e.PeriodInfo.Finished {
			status = models.StatusIntermission
			gametime = "20:00"
		}
		update.Status = &status
		update.Gametime = &gametime
	case e.Goalkeeper != nil:
		status := models.StatusFromGameState(e.Goalkeeper.GameState, e.Period.Num())
		update.Status = &status
	}
	return update
}

// offenceName expands the provider's penalty codes to readable reasons.
func offenceName(code string) string {
	switch code {
	case "HOOK":
		return "Hooking"
	case "TRIP":
		return "Tripping"
	case "INTRF":
		return "Interference"
	case "UN-SP":
		return "Unsportsmanlike"
	case "ROUGH":
		return "Roughing"
	case "HI-ST":
		return "High-Sticking"
	case "TOO-M":
		return "Too many players"
	case "HOLD":
		return "Holding"
	case "CROSS":
		return "Crosschecking"
	case "GK-INTRF":
		return "Goalkeeper Interference"
	case "BOARD":
		return "Boarding"
	case "DELAY":
		return "Delay the game"
	case "KNEE":
		return "Kneeing"
	case "SLASH":
		return "Slashing"
	}
	return code
}

// mergeJSON marshals v and folds its keys into dst, mirroring how the wire
// formats flatten tagged payloads next to shared fields.
func mergeJSON(dst map[string]any, v any) error {
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
