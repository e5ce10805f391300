package services

import "errors"

var (
	// ErrUnknownGame is returned when a game uuid is not in the registry.
	ErrUnknownGame = errors.New("unknown game")

	// ErrInvalidTeam is returned when a vote names a team not playing in the
	// game.
	ErrInvalidTeam = errors.New("team not in game")

	// ErrVotingClosed is returned when a vote targets a game that has left
	// the Coming status.
	ErrVotingClosed = errors.New("voting closed")
)
