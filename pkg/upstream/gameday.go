package upstream

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pucklabs/rinkside/pkg/models"
)

// StatsRsp is the provider's period statistics response.
type StatsRsp struct {
	PeriodStatsBreakdown []PeriodStatsBreakdown `json:"period_stats_breakdown"`
}

// PeriodStatsBreakdown is one period block; the "Total" block aggregates the
// whole game.
type PeriodStatsBreakdown struct {
	Period     StatsPeriod  `json:"period"`
	Statistics []Statistics `json:"statistics"`
}

// StatsPeriod labels a breakdown block.
type StatsPeriod struct {
	Label string      `json:"label"`
	Value StringOrNum `json:"value"`
}

// Statistics is one captioned home/away pair.
type Statistics struct {
	Caption       string `json:"caption"`
	HomeTeamValue int    `json:"homeTeamValue"`
	AwayTeamValue int    `json:"awayTeamValue"`
}

// ToGameStats reduces the response to the served shape, reading the Total
// block's G, SOG, PIM and FOWon captions.
func (r StatsRsp) ToGameStats() (models.GameStats, bool) {
	for _, breakdown := range r.PeriodStatsBreakdown {
		if breakdown.Period.Value.Str() != "Total" {
			continue
		}
		var stats models.GameStats
		for _, s := range breakdown.Statistics {
			switch s.Caption {
			case "G":
				stats.Home.G, stats.Away.G = s.HomeTeamValue, s.AwayTeamValue
			case "SOG":
				stats.Home.SOG, stats.Away.SOG = s.HomeTeamValue, s.AwayTeamValue
			case "PIM":
				stats.Home.PIM, stats.Away.PIM = s.HomeTeamValue, s.AwayTeamValue
			case "FOWon":
				stats.Home.FOW, stats.Away.FOW = s.HomeTeamValue, s.AwayTeamValue
			}
		}
		return stats, true
	}
	return models.GameStats{}, false
}

// EachTeam wraps the provider's home/away pairing of an arbitrary payload.
type EachTeam[T any] struct {
	HomeTeamValue T `json:"homeTeamValue"`
	AwayTeamValue T `json:"awayTeamValue"`
}

// StatsColumn describes one boxscore column.
type StatsColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PlayerName is the name lookup entry of the boxscore.
type PlayerName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LineInfo identifies whose line a boxscore row is.
type LineInfo struct {
	PlayerID int    `json:"playerId"`
	TeamID   string `json:"teamId"`
	Period   int    `json:"period"`
}

// SkaterLine is one skater's boxscore row.
type SkaterLine struct {
	Info      LineInfo    `json:"info"`
	PlusMinus int         `json:"+/-"`
	A         int         `json:"A"`
	FOL       int         `json:"FOL"`
	FOPerc    float64     `json:"FOPerc"`
	FOW       int         `json:"FOW"`
	G         int         `json:"G"`
	Hits      int         `json:"Hits"`
	NR        int         `json:"NR"`
	PIM       int         `json:"PIM"`
	POS       StringOrNum `json:"POS"`
	PPG       int         `json:"PPG"`
	PPSOG     int         `json:"PPSOG"`
	SOG       int         `json:"SOG"`
	SW        int         `json:"SW"`
	TOI       string      `json:"TOI"`
}

// GoalkeeperLine is one goalkeeper's boxscore row.
type GoalkeeperLine struct {
	Info    LineInfo `json:"info"`
	GA      int      `json:"GA"`
	NR      int      `json:"NR"`
	SOGA    int      `json:"SOGA"`
	SPGA    int      `json:"SPGA"`
	SVS     int      `json:"SVS"`
	SVSPerc float64  `json:"SVS%"`
}

// PlayerStatsRsp is the provider's boxscore response.
type PlayerStatsRsp struct {
	DataColumns   []StatsColumn                `json:"dataColumns"`
	GKDataColumns []StatsColumn                `json:"gkDataColumns"`
	GKStats       EachTeam[[]GoalkeeperLine]   `json:"gkStats"`
	Stats         EachTeam[[]SkaterLine]       `json:"stats"`
	Goalkeepers   EachTeam[map[int]PlayerName] `json:"goalkeepers"`
	Players       EachTeam[map[int]PlayerName] `json:"players"`
}

// ToAthletes joins the stat rows with the name lookups into the served
// athlete lines. Rows without a name entry keep an empty name.
func (r PlayerStatsRsp) ToAthletes(season models.Season) []models.Athlete {
	names := map[int]PlayerName{}
	for id, n := range r.Players.HomeTeamValue {
		names[id] = n
	}
	for id, n := range r.Players.AwayTeamValue {
		names[id] = n
	}
	for id, n := range r.Goalkeepers.HomeTeamValue {
		names[id] = n
	}
	for id, n := range r.Goalkeepers.AwayTeamValue {
		names[id] = n
	}

	var athletes []models.Athlete
	for _, line := range append(r.Stats.HomeTeamValue, r.Stats.AwayTeamValue...) {
		name := names[line.Info.PlayerID]
		athletes = append(athletes, models.Athlete{
			ID:         line.Info.PlayerID,
			FirstName:  name.FirstName,
			FamilyName: name.LastName,
			Jersey:     line.NR,
			TeamCode:   line.Info.TeamID,
			Position:   line.POS.Str(),
			Season:     season,
			Type:       models.AthleteTypePlayer,
			Player: &models.SkaterGameStats{
				PlusMinus: line.PlusMinus,
				A:         line.A,
				FOL:       line.FOL,
				FOW:       line.FOW,
				G:         line.G,
				Hits:      line.Hits,
				PIM:       line.PIM,
				SOG:       line.SOG,
				SW:        line.SW,
				TOISec:    ParseTOI(line.TOI),
				GP:        1,
			},
		})
	}
	for _, line := range append(r.GKStats.HomeTeamValue, r.GKStats.AwayTeamValue...) {
		name := names[line.Info.PlayerID]
		gp := 0
		if line.SVS > 0 {
			gp = 1
		}
		athletes = append(athletes, models.Athlete{
			ID:         line.Info.PlayerID,
			FirstName:  name.FirstName,
			FamilyName: name.LastName,
			Jersey:     line.NR,
			TeamCode:   line.Info.TeamID,
			Position:   "GK",
			Season:     season,
			Type:       models.AthleteTypeGoalkeeper,
			Goalkeeper: &models.GoalkeeperGameStats{
				GA:   line.GA,
				SOGA: line.SOGA,
				SPGA: line.SPGA,
				SVS:  line.SVS,
				GP:   gp,
			},
		})
	}
	return athletes
}

// ParseTOI converts the provider's "MM:SS" time-on-ice strings to seconds.
func ParseTOI(s string) int {
	minStr, secStr, found := strings.Cut(s, ":")
	if !found {
		return 0
	}
	min, _ := strconv.Atoi(minStr)
	sec, _ := strconv.Atoi(secStr)
	return min*60 + sec
}

// Legacy play-by-play classes that all map to a canonical Shot.
var shotClasses = map[string]bool{
	"Shot": true, "ShotBlocked": true, "ShotWide": true, "ShotIron": true,
	"PenaltyShot": true, "ShootoutPenaltyShot": true,
}

// PlayByPlay is one legacy play-by-play row, used for seasons before the
// live-event feed existed. The JSON form flattens the class payload next to
// the shared fields under a "class" tag.
type PlayByPlay struct {
	EventID     int
	Revision    int
	Hash        string
	Period      StringOrNum
	Gametime    string
	Description string
	Class       string

	Goal       *PBPGoal
	Shot       *PBPShot
	Penalty    *PBPPenalty
	PeriodInfo *PBPPeriod
}

// PBPGoal is the legacy goal payload.
type PBPGoal struct {
	Team     string          `json:"team"`
	Location models.Location `json:"location"`
	Extra    PBPGoalExtra    `json:"extra"`
}

// PBPGoalExtra carries the goal decorations. HomeForward is the home score,
// HomeAgainst the away score.
type PBPGoalExtra struct {
	ScorerLong    string      `json:"scorerLong"`
	TeamAdvantage string      `json:"teamAdvantage"`
	HomeAgainst   StringOrNum `json:"homeAgainst"`
	HomeForward   StringOrNum `json:"homeForward"`
	Assist        string      `json:"assist"`
}

// PBPShot is the payload shared by the legacy shot classes.
type PBPShot struct {
	Team     string          `json:"team"`
	Location models.Location `json:"location"`
}

// PBPPenalty is the legacy penalty payload; details live in the description.
type PBPPenalty struct {
	Team string `json:"team"`
}

// PBPPeriod is the legacy period marker payload.
type PBPPeriod struct {
	Extra PBPPeriodExtra `json:"extra"`
}

// PBPPeriodExtra carries the period game status, "Playing" on period start.
type PBPPeriodExtra struct {
	GameStatus string `json:"gameStatus"`
}

type playByPlayShell struct {
	EventID     int         `json:"eventId"`
	Revision    int         `json:"revision"`
	Hash        string      `json:"hash"`
	Period      StringOrNum `json:"period"`
	Gametime    string      `json:"gametime"`
	Description string      `json:"description"`
	Class       string      `json:"class"`
}

func (p PlayByPlay) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if err := mergeJSON(out, playByPlayShell{
		EventID:     p.EventID,
		Revision:    p.Revision,
		Hash:        p.Hash,
		Period:      p.Period,
		Gametime:    p.Gametime,
		Description: p.Description,
		Class:       p.Class,
	}); err != nil {
		return nil, err
	}
	var payload any
	switch {
	case p.Goal != nil:
		payload = p.Goal
	case p.Shot != nil:
		payload = p.Shot
	case p.Penalty != nil:
		payload = p.Penalty
	case p.PeriodInfo != nil:
		payload = p.PeriodInfo
	}
	if payload != nil {
		if err := mergeJSON(out, payload); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (p *PlayByPlay) UnmarshalJSON(data []byte) error {
	var shell playByPlayShell
	if err := json.Unmarshal(data, &shell); err != nil {
		return err
	}
	p.EventID = shell.EventID
	p.Revision = shell.Revision
	p.Hash = shell.Hash
	p.Period = shell.Period
	p.Gametime = shell.Gametime
	p.Description = shell.Description
	p.Class = shell.Class
	switch {
	case shell.Class == "Goal":
		p.Goal = &PBPGoal{}
		return json.Unmarshal(data, p.Goal)
	case shell.Class == "Penalty":
		p.Penalty = &PBPPenalty{}
		return json.Unmarshal(data, p.Penalty)
	case shell.Class == "Period":
		p.PeriodInfo = &PBPPeriod{}
		return json.Unmarshal(data, p.PeriodInfo)
	case shotClasses[shell.Class]:
		p.Shot = &PBPShot{}
		return json.Unmarshal(data, p.Shot)
	}
	return nil
}

// ToEvent maps the legacy row to a canonical event.
func (p PlayByPlay) ToEvent(gameUUID string) models.Event {
	event := models.Event{
		GameUUID:    gameUUID,
		EventID:     strconv.Itoa(p.EventID),
		Revision:    p.Revision,
		Status:      models.StatusFromPeriod(p.Period.Num()),
		Gametime:    p.Gametime,
		Description: p.Description,
		Type:        models.EventTypeGeneral,
	}
	switch {
	case p.Goal != nil:
		goal := &models.GoalInfo{
			Team:           p.Goal.Team,
			Player:         parseEventPlayer(p.Goal.Extra.ScorerLong),
			TeamAdvantage:  p.Goal.Extra.TeamAdvantage,
			HomeTeamResult: p.Goal.Extra.HomeForward.Num(),
			AwayTeamResult: p.Goal.Extra.HomeAgainst.Num(),
			Location:       p.Goal.Location,
		}
		if p.Goal.Extra.Assist != "" {
			assist := p.Goal.Extra.Assist
			goal.Assist = &assist
		}
		event.Type = models.EventTypeGoal
		event.Goal = goal
	case p.Penalty != nil:
		info := penaltyFromDescription(p.Description, p.Penalty.Team)
		event.Type = models.EventTypePenalty
		event.Penalty = &info
	case p.PeriodInfo != nil:
		if p.PeriodInfo.Extra.GameStatus == "Playing" {
			event.Type = models.EventTypePeriodStart
		} else {
			event.Type = models.EventTypePeriodEnd
		}
	case p.Shot != nil:
		event.Type = models.EventTypeShot
		event.Shot = &models.ShotInfo{Team: p.Shot.Team, Location: p.Shot.Location}
	case p.Class == "Timeout":
		event.Type = models.EventTypeTimeout
	}
	return event
}

// parseEventPlayer splits the legacy "1 Johan Johansson Olsson" form into
// jersey, first name and family name. Returns nil when nothing parses.
func parseEventPlayer(s string) *models.EventPlayer {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, " ")
	jersey, _ := strconv.Atoi(parts[0])
	var firstName string
	if len(parts) > 1 {
		firstName = parts[1]
	}
	familyName := strings.Replace(s, strconv.Itoa(jersey)+" "+firstName+" ", "", 1)
	if firstName == "" && familyName == "" {
		return nil
	}
	return &models.EventPlayer{FirstName: firstName, FamilyName: familyName, Jersey: jersey}
}

// penaltyFromDescription parses the legacy penalty description, e.g.
// "1 Olle Olsson utvisas 5min, roughing".
func penaltyFromDescription(description, team string) models.PenaltyInfo {
	info := models.PenaltyInfo{Team: team, Reason: description}
	playerPart, penaltyPart, found := strings.Cut(description, " utvisas ")
	if !found {
		return info
	}
	info.Player = parseEventPlayer(playerPart)
	penalty, reason, found := strings.Cut(penaltyPart, ",")
	if !found {
		return info
	}
	info.Penalty = &penalty
	info.Reason = strings.TrimSpace(reason)
	return info
}
