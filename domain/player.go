package domain

import (
	"fmt"

	"liaptui/pieces"
)

// Player represents a seat occupant, human or bot
type Player struct {
	ID            string
	Name          string
	IsBot         bool
	Seat          int
	Hand          pieces.Pieces
	DeclaredPiles int // -1 until the seat has declared this round
	CapturedPiles int
	Score         int
	ZeroStreak    int // consecutive completed rounds with a zero declaration
}

// NewPlayer creates a new human player for the given seat
func NewPlayer(id string, name string, seat int) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		Seat:          seat,
		DeclaredPiles: -1,
	}
}

// NewBot creates a bot player for the given seat
func NewBot(seat int) *Player {
	return &Player{
		ID:            fmt.Sprintf("bot-%d", seat),
		Name:          fmt.Sprintf("Bot %d", seat+1),
		IsBot:         true,
		Seat:          seat,
		DeclaredPiles: -1,
	}
}

// ResetForNewRound clears the player's per-round state. Cumulative
// score and the zero-declaration streak persist across rounds.
func (p *Player) ResetForNewRound() {
	p.Hand = nil
	p.DeclaredPiles = -1
	p.CapturedPiles = 0
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	out := *p
	out.Hand = p.Hand.Clone()
	return &out
}
