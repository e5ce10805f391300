package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
)

// StringOrNum tolerates the provider sending a value as either a JSON string
// or a number. It normalizes to the string form.
type StringOrNum string

func (s *StringOrNum) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StringOrNum(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = StringOrNum(num.String())
	return nil
}

// Num parses the value as an integer, 0 when not numeric.
func (s StringOrNum) Num() int {
	n, _ := strconv.Atoi(strings.TrimSpace(string(s)))
	return n
}

// Str returns the normalized string form.
func (s StringOrNum) Str() string {
	return string(s)
}

// SeasonRsp is the provider's season schedule response.
type SeasonRsp struct {
	GameInfo []SeasonGame `json:"gameInfo"`
	TeamList []SeasonTeam `json:"teamList"`
}

// SeasonGame is one scheduled game in the raw feed.
type SeasonGame struct {
	UUID          string       `json:"uuid"`
	AwayTeamInfo  GameTeamInfo `json:"awayTeamInfo"`
	HomeTeamInfo  GameTeamInfo `json:"homeTeamInfo"`
	StartDateTime time.Time    `json:"startDateTime"`
	State         string       `json:"state"`
	Shootout      bool         `json:"shootout"`
	Overtime      bool         `json:"overtime"`
	SeriesInfo    SeriesInfo   `json:"seriesInfo"`
}

// Played reports whether the provider already settled the game.
func (g SeasonGame) Played() bool {
	return g.State == "post-game"
}

// AboutToStart reports whether a pre-game entry starts within five minutes,
// the window in which a persisted live report overrides the schedule row.
func (g SeasonGame) AboutToStart(now time.Time) bool {
	return g.State == "pre-game" && g.StartDateTime.Before(now.Add(5*time.Minute))
}

// GameTeamInfo names one side of a scheduled game.
type GameTeamInfo struct {
	Code  string      `json:"code"`
	Score StringOrNum `json:"score"`
}

// TeamCode returns the code, with the provider's empty placeholder mapped to
// TBD.
func (i GameTeamInfo) TeamCode() string {
	if i.Code == "" {
		return models.TeamTBD
	}
	return i.Code
}

// SeriesInfo carries the league the game belongs to.
type SeriesInfo struct {
	Code models.League `json:"code"`
}

// SeasonTeam is one catalog row in the raw feed.
type SeasonTeam struct {
	TeamCode  string    `json:"teamCode"`
	TeamInfo  *TeamInfo `json:"teamInfo"`
	TeamNames TeamNames `json:"teamNames"`
}

// TeamInfo holds the optional decorations some teams carry upstream. The
// list values arrive as comma-separated strings.
type TeamInfo struct {
	Golds          *string `json:"golds"`
	RetiredNumbers *string `json:"retiredNumbers"`
	Founded        *string `json:"founded"`
}

// TeamNames carries the display names of a team.
type TeamNames struct {
	Code  string `json:"code"`
	Long  string `json:"long"`
	Short string `json:"short"`
}

// SplitList turns the provider's comma-separated decoration strings into a
// clean slice.
func SplitList(raw *string) []string {
	if raw == nil {
		return nil
	}
	parts := strings.Split(*raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
