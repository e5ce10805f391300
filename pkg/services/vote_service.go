package services

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pucklabs/rinkside/pkg/models"
	"github.com/pucklabs/rinkside/pkg/store"
)

const allVotesKey = "all"

// VoteService records user picks for coming games and keeps the per-game
// tallies. The raw vote list and the derived tallies change together under
// one lock. Accepted votes push the new tally onto the integration channel
// so the registry can refresh its cached percentages.
type VoteService struct {
	mu      sync.Mutex
	tallies map[string]models.VotePerGame

	votes    *store.Collection[[]models.Vote]
	registry *GameRegistry
	onVote   chan models.GameVotes
	logger   *slog.Logger
}

// NewVoteService opens the vote collection under root and rebuilds the
// tallies from the persisted votes.
func NewVoteService(root string, registry *GameRegistry) *VoteService {
	s := &VoteService{
		votes:    store.NewCollection[[]models.Vote](root, "v2_votes"),
		registry: registry,
		onVote:   make(chan models.GameVotes, 1000),
		logger:   slog.With("component", "votes"),
	}
	all, _ := s.votes.Read(allVotesKey)
	s.tallies = tally(all)
	return s
}

// Vote validates and records one pick, returning the new tally for the game.
// A re-vote by the same user replaces the earlier pick.
func (s *VoteService) Vote(userID, gameUUID, teamCode string) (models.VotePerGame, error) {
	start := time.Now()
	game, ok := s.registry.ReadCurrentSeasonGame(gameUUID)
	if !ok {
		return models.VotePerGame{}, ErrUnknownGame
	}
	if !game.Includes(teamCode) {
		return models.VotePerGame{}, ErrInvalidTeam
	}
	if game.Status != models.StatusComing {
		return models.VotePerGame{}, ErrVotingClosed
	}

	vote := models.Vote{
		UserID:       userID,
		GameUUID:     gameUUID,
		TeamCode:     teamCode,
		IsHomeWinner: game.HomeTeamCode == teamCode,
	}

	s.mu.Lock()
	all, _ := s.votes.Read(allVotesKey)
	all = slices.DeleteFunc(all, func(v models.Vote) bool {
		return v.GameUUID == vote.GameUUID && v.UserID == vote.UserID
	})
	all = append(all, vote)
	if err := s.votes.Write(allVotesKey, all); err != nil {
		s.logger.Error("persist votes", "err", err)
	}
	s.tallies = tally(all)
	result := s.tallies[gameUUID]
	s.mu.Unlock()

	s.onVote <- models.GameVotes{GameUUID: gameUUID, Votes: result}
	s.logger.Info("vote recorded", "game_uuid", gameUUID, "elapsed", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// Get returns the tally for one game.
func (s *VoteService) Get(gameUUID string) (models.VotePerGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tallies[gameUUID]
	return t, ok
}

// GetAll returns a snapshot of every game's tally.
func (s *VoteService) GetAll() map[string]models.VotePerGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.VotePerGame, len(s.tallies))
	for k, v := range s.tallies {
		out[k] = v
	}
	return out
}

// Changes exposes the channel of accepted-vote tallies for the registry
// integrator.
func (s *VoteService) Changes() <-chan models.GameVotes {
	return s.onVote
}

func tally(votes []models.Vote) map[string]models.VotePerGame {
	out := map[string]models.VotePerGame{}
	for _, v := range votes {
		t := out[v.GameUUID]
		if v.IsHomeWinner {
			t.HomeCount++
		} else {
			t.AwayCount++
		}
		out[v.GameUUID] = t
	}
	return out
}
