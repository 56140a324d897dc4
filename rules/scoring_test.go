package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreRound(t *testing.T) {
	// Successful zero
	assert.Equal(t, 3, ScoreRound(0, 0, 1))

	// Broken zero loses a point per captured pile
	assert.Equal(t, -2, ScoreRound(0, 2, 1))

	// Hitting the declared target pays the target plus a bonus
	assert.Equal(t, 6, ScoreRound(1, 1, 1))
	assert.Equal(t, 13, ScoreRound(8, 8, 1))

	// Missing pays the absolute difference, whichever side it falls
	assert.Equal(t, -3, ScoreRound(5, 2, 1))
	assert.Equal(t, -3, ScoreRound(2, 5, 1))
}

func TestScoreRoundMultiplier(t *testing.T) {
	assert.Equal(t, 6, ScoreRound(0, 0, 2))
	assert.Equal(t, -9, ScoreRound(0, 3, 3))
	assert.Equal(t, 14, ScoreRound(2, 2, 2))
	assert.Equal(t, -4, ScoreRound(4, 2, 2))
}
