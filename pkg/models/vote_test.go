package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVotePercentages(t *testing.T) {
	tests := []struct {
		name     string
		tally    VotePerGame
		wantHome int
		wantAway int
	}{
		{name: "no votes", tally: VotePerGame{}, wantHome: 0, wantAway: 0},
		{name: "even split", tally: VotePerGame{HomeCount: 5, AwayCount: 5}, wantHome: 50, wantAway: 50},
		{name: "all home", tally: VotePerGame{HomeCount: 3}, wantHome: 100, wantAway: 0},
		{name: "skewed", tally: VotePerGame{HomeCount: 101, AwayCount: 9}, wantHome: 91, wantAway: 9},
		{name: "single away", tally: VotePerGame{AwayCount: 1}, wantHome: 0, wantAway: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perc := tt.tally.Percentages()
			assert.Equal(t, tt.wantHome, perc.HomePerc)
			assert.Equal(t, tt.wantAway, perc.AwayPerc)
			if tt.tally.HomeCount+tt.tally.AwayCount > 0 {
				assert.Equal(t, 100, perc.HomePerc+perc.AwayPerc)
			}
		})
	}
}
