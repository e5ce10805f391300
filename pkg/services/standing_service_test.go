package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pucklabs/rinkside/pkg/models"
)

func seasonGame(uuid, home, away string, homeScore, awayScore int, played bool) models.Game {
	return models.Game{
		GameUUID:       uuid,
		HomeTeamCode:   home,
		AwayTeamCode:   away,
		HomeTeamResult: homeScore,
		AwayTeamResult: awayScore,
		Played:         played,
		GameType:       models.GameTypeSeason,
		League:         models.LeagueSHL,
		Season:         models.CurrentSeason(),
		StartDateTime:  time.Date(2023, 9, 16, 15, 15, 0, 0, time.UTC),
	}
}

func TestStandingsPoints(t *testing.T) {
	svc := NewStandingService(t.TempDir())

	overtimeWin := seasonGame("g2", "TIK", "SAIK", 2, 3, true)
	overtimeWin.Overtime = true

	games := []models.Game{
		seasonGame("g1", "SAIK", "OHK", 4, 1, true), // regulation win
		overtimeWin,                                 // OT win for SAIK, loser point for TIK
		seasonGame("g3", "OHK", "TIK", 0, 0, false), // scheduled only
	}
	svc.Update(models.CurrentSeason(), games)

	table := svc.Read(models.LeagueSHL, models.CurrentSeason())
	require.Len(t, table, 3)

	byTeam := map[string]models.Standing{}
	for _, row := range table {
		byTeam[row.TeamCode] = row
	}
	assert.Equal(t, 5, byTeam["SAIK"].Points) // 3 + 2
	assert.Equal(t, 2, byTeam["SAIK"].GP)
	assert.Equal(t, 4, byTeam["SAIK"].Diff)
	assert.Equal(t, 1, byTeam["TIK"].Points)
	assert.Equal(t, 0, byTeam["OHK"].Points)

	assert.Equal(t, "SAIK", table[0].TeamCode)
	assert.Equal(t, 1, table[0].Rank)
}

func TestStandingsUnplayedTeamsRankLastWithRankZero(t *testing.T) {
	svc := NewStandingService(t.TempDir())
	games := []models.Game{
		seasonGame("g1", "SAIK", "OHK", 2, 1, true),
		seasonGame("g2", "TIK", "AIS", 0, 0, false),
	}
	svc.Update(models.CurrentSeason(), games)

	table := svc.Read(models.LeagueSHL, models.CurrentSeason())
	require.Len(t, table, 4)

	assert.Equal(t, "SAIK", table[0].TeamCode)
	assert.Equal(t, "OHK", table[1].TeamCode)
	assert.Equal(t, 2, table[1].Rank)
	for _, row := range table[2:] {
		assert.Zero(t, row.GP)
		assert.Zero(t, row.Rank)
	}
}

func TestStandingsIgnorePlayoffGames(t *testing.T) {
	svc := NewStandingService(t.TempDir())
	playoff := seasonGame("g1", "SAIK", "OHK", 3, 0, true)
	playoff.GameType = models.GameTypePlayOff
	svc.Update(models.CurrentSeason(), []models.Game{playoff})

	assert.Empty(t, svc.Read(models.LeagueSHL, models.CurrentSeason()))
}

func TestStandingsReadAllSplitsLeagues(t *testing.T) {
	svc := NewStandingService(t.TempDir())
	haGame := seasonGame("g1", "MODO", "BIK", 5, 2, true)
	haGame.League = models.LeagueHA
	svc.Update(models.CurrentSeason(), []models.Game{
		seasonGame("g2", "SAIK", "OHK", 1, 0, true),
		haGame,
	})

	all := svc.ReadAll(models.CurrentSeason())
	require.Len(t, all.SHL, 2)
	require.Len(t, all.HA, 2)
	assert.Equal(t, "MODO", all.HA[0].TeamCode)
}
