package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pucklabs/rinkside/pkg/models"
)

func TestStringOrNum(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		str      string
		num      int
	}{
		{"quoted number", `"42"`, "42", 42},
		{"raw number", `42`, "42", 42},
		{"padded", `" 7 "`, " 7 ", 7},
		{"word", `"TBD"`, "TBD", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var value StringOrNum
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &value))
			assert.Equal(t, tt.str, value.Str())
			assert.Equal(t, tt.num, value.Num())
		})
	}
}

func TestParseSeasonRsp(t *testing.T) {
	raw := `{
		"gameInfo": [
			{
				"uuid": "qcz-3SBK10tiR7",
				"homeTeamInfo": {"code": "SAIK", "score": "3"},
				"awayTeamInfo": {"code": "MODO", "score": 2},
				"startDateTime": "2023-09-14T19:00:00Z",
				"state": "post-game",
				"shootout": false,
				"overtime": true,
				"seriesInfo": {"code": "SHL"}
			},
			{
				"uuid": "qcz-3SBK10tiR8",
				"homeTeamInfo": {"code": "", "score": 0},
				"awayTeamInfo": {"code": "FHC", "score": 0},
				"startDateTime": "2023-09-15T19:00:00Z",
				"state": "pre-game",
				"shootout": false,
				"overtime": false,
				"seriesInfo": {"code": "HA"}
			}
		],
		"teamList": [
			{
				"teamCode": "SAIK",
				"teamInfo": {"golds": "1978, 2023", "retiredNumbers": "19, 21", "founded": "1921"},
				"teamNames": {"code": "SKE", "long": "Skellefteå AIK", "short": "Skellefteå"}
			},
			{
				"teamCode": "MODO",
				"teamNames": {"code": "MODO", "long": "MoDo Hockey", "short": "MoDo"}
			}
		]
	}`

	var rsp SeasonRsp
	require.NoError(t, json.Unmarshal([]byte(raw), &rsp))
	require.Len(t, rsp.GameInfo, 2)
	require.Len(t, rsp.TeamList, 2)

	played := rsp.GameInfo[0]
	assert.True(t, played.Played())
	assert.Equal(t, "SAIK", played.HomeTeamInfo.TeamCode())
	assert.Equal(t, 3, played.HomeTeamInfo.Score.Num())
	assert.Equal(t, 2, played.AwayTeamInfo.Score.Num())
	assert.True(t, played.Overtime)
	assert.Equal(t, models.LeagueSHL, played.SeriesInfo.Code)

	upcoming := rsp.GameInfo[1]
	assert.False(t, upcoming.Played())
	assert.Equal(t, models.TeamTBD, upcoming.HomeTeamInfo.TeamCode())

	withInfo := rsp.TeamList[0]
	require.NotNil(t, withInfo.TeamInfo)
	assert.Equal(t, []string{"1978", "2023"}, SplitList(withInfo.TeamInfo.Golds))
	assert.Equal(t, []string{"19", "21"}, SplitList(withInfo.TeamInfo.RetiredNumbers))

	bare := rsp.TeamList[1]
	assert.Nil(t, bare.TeamInfo)
	assert.Nil(t, SplitList(nil))
}

func TestSeasonURLs(t *testing.T) {
	client := NewClient("https://shl.example", "https://ha.example")

	key := models.SeasonKey{Season: models.Season2023, League: models.LeagueSHL, GameType: models.GameTypeSeason}
	url := client.SeasonURL(key)
	assert.Contains(t, url, "https://shl.example/sports/game-info")
	assert.Contains(t, url, "gamePlace=all")
	assert.Contains(t, url, "played=all")

	haKey := models.SeasonKey{Season: models.Season2023, League: models.LeagueHA, GameType: models.GameTypeSeason}
	assert.Contains(t, client.SeasonURL(haKey), "https://ha.example")

	assert.Equal(t, "https://shl.example/gameday/play-by-play/initial-events/g-1", client.EventsURL("g-1"))
	assert.Equal(t, "https://shl.example/gameday/periodstats/g-1", client.StatsURL(models.LeagueSHL, "g-1"))
	assert.Equal(t, "https://ha.example/gameday/boxscore/g-1", client.PlayerStatsURL(models.LeagueHA, "g-1"))
}
