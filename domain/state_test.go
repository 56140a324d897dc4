package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liaptui/pieces"
)

func newStateForTest() *GameState {
	room := NewRoom("room", "host", "Host")
	g := NewGameState("room-1", room.Seats())
	for _, p := range g.Players {
		p.Hand = pieces.Pieces{pieces.New(pieces.Soldier, pieces.Red)}
	}
	return g
}

func TestCloneIsDeep(t *testing.T) {
	g := newStateForTest()
	g.Declarations[0] = 2
	g.TurnPlays = []TurnPlay{{Seat: 0, Pieces: g.Players[0].Hand.Clone(), Valid: true}}

	c := g.Clone()
	c.Declarations[0] = 7
	c.Players[1].Score = 99
	c.TurnPlays[0].Seat = 3
	c.Players[0].Hand[0] = pieces.New(pieces.General, pieces.Black)

	assert.Equal(t, 2, g.Declarations[0])
	assert.Equal(t, 0, g.Players[1].Score)
	assert.Equal(t, 0, g.TurnPlays[0].Seat)
	assert.Equal(t, pieces.New(pieces.Soldier, pieces.Red), g.Players[0].Hand[0])
}

func TestForbiddenDeclaration(t *testing.T) {
	g := newStateForTest()

	// Not the last declarer yet
	g.Declarations = map[int]int{0: 2}
	assert.Equal(t, -1, g.ForbiddenDeclaration(1))

	g.Declarations = map[int]int{0: 2, 1: 3, 2: 1}
	assert.Equal(t, 2, g.ForbiddenDeclaration(3))

	// Seats that already declared are unconstrained
	assert.Equal(t, -1, g.ForbiddenDeclaration(0))

	// Total already past the hand size leaves nothing forbidden
	g.Declarations = map[int]int{0: 4, 1: 4, 2: 4}
	assert.Equal(t, -1, g.ForbiddenDeclaration(3))
}

func TestNextSeatWithPieces(t *testing.T) {
	g := newStateForTest()
	g.Players[1].Hand = nil
	g.Players[2].Hand = nil

	assert.Equal(t, 0, g.NextSeatWithPieces(0))
	assert.Equal(t, 3, g.NextSeatWithPieces(1))
	assert.Equal(t, 0, g.NextSeatWithPieces(4%NumSeats))

	for _, p := range g.Players {
		p.Hand = nil
	}
	assert.Equal(t, -1, g.NextSeatWithPieces(0))
	assert.True(t, g.AllHandsEmpty())
}

func TestCheckInvariants(t *testing.T) {
	g := newStateForTest()
	require.NoError(t, g.CheckInvariants())

	// Declarations summing to the hand size are a handler bug
	g.Declarations = map[int]int{0: 2, 1: 2, 2: 2, 3: 2}
	assert.Error(t, g.CheckInvariants())
	g.Declarations = map[int]int{}

	// Oversized hands never happen
	g.Players[0].Hand = make(pieces.Pieces, HandSize+1)
	assert.Error(t, g.CheckInvariants())
	g.Players[0].Hand = pieces.Pieces{pieces.New(pieces.Soldier, pieces.Red)}

	// A follower's play must match the required count
	g.RequiredPieceCount = 2
	g.TurnPlays = []TurnPlay{
		{Seat: 0, Pieces: make(pieces.Pieces, 2)},
		{Seat: 1, Pieces: make(pieces.Pieces, 1)},
	}
	assert.Error(t, g.CheckInvariants())

	// Unless the seat played out a short hand entirely
	g.Players[1].Hand = nil
	g.CurrentPlayerSeat = 0
	require.NoError(t, g.CheckInvariants())
}
