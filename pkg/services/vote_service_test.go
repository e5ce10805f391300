package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pucklabs/rinkside/pkg/models"
)

func voteFixture(t *testing.T) (*VoteService, *GameRegistry, string) {
	t.Helper()
	root := t.TempDir()
	registry := NewGameRegistry(root)
	game := seasonGame("g1", "SAIK", "OHK", 0, 0, false)
	game.Status = models.StatusComing
	registry.Update(models.CurrentSeason(), []models.Game{game}, nil)
	return NewVoteService(root, registry), registry, root
}

func TestVoteTally(t *testing.T) {
	votes, _, _ := voteFixture(t)

	for i := 0; i < 101; i++ {
		_, err := votes.Vote(fmt.Sprintf("home-%d", i), "g1", "SAIK")
		require.NoError(t, err)
	}
	var last models.VotePerGame
	for i := 0; i < 9; i++ {
		var err error
		last, err = votes.Vote(fmt.Sprintf("away-%d", i), "g1", "OHK")
		require.NoError(t, err)
	}

	assert.Equal(t, models.VotePerGame{HomeCount: 101, AwayCount: 9}, last)
	assert.Equal(t, models.VotePercentages{HomePerc: 91, AwayPerc: 9}, last.Percentages())
}

func TestVoteRejections(t *testing.T) {
	votes, _, _ := voteFixture(t)

	_, err := votes.Vote("u1", "nope", "SAIK")
	assert.ErrorIs(t, err, ErrUnknownGame)

	_, err = votes.Vote("u1", "g1", "MODO")
	assert.ErrorIs(t, err, ErrInvalidTeam)
}

func TestVoteClosedOncePuckDrops(t *testing.T) {
	votes, registry, _ := voteFixture(t)
	registry.UpdateFromReport(models.Report{
		GameUUID: "g1", Status: models.StatusPeriod1,
		HomeTeamCode: "SAIK", AwayTeamCode: "OHK",
	})

	_, err := votes.Vote("u1", "g1", "SAIK")
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestRevoteReplacesEarlierPick(t *testing.T) {
	votes, _, _ := voteFixture(t)

	_, err := votes.Vote("u1", "g1", "SAIK")
	require.NoError(t, err)
	tally, err := votes.Vote("u1", "g1", "OHK")
	require.NoError(t, err)

	assert.Equal(t, models.VotePerGame{HomeCount: 0, AwayCount: 1}, tally)
}

func TestVotePublishesChangeAndSurvivesRestart(t *testing.T) {
	votes, registry, root := voteFixture(t)

	_, err := votes.Vote("u1", "g1", "SAIK")
	require.NoError(t, err)

	change := <-votes.Changes()
	assert.Equal(t, "g1", change.GameUUID)
	assert.Equal(t, models.VotePerGame{HomeCount: 1}, change.Votes)

	reopened := NewVoteService(root, registry)
	tally, ok := reopened.Get("g1")
	require.True(t, ok)
	assert.Equal(t, models.VotePerGame{HomeCount: 1}, tally)
}
