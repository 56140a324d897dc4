package domain

import (
	"fmt"

	"liaptui/pieces"
)

// Phase represents the current phase of a game
type Phase string

const (
	PhasePreparation Phase = "PREPARATION"
	PhaseDeclaration Phase = "DECLARATION"
	PhaseTurn        Phase = "TURN"
	PhaseScoring     Phase = "SCORING"
	PhaseGameEnd     Phase = "GAME_END"
)

// HandSize is the number of pieces each seat holds at round start
const HandSize = 8

// Display categories a client may be asked to pace
const (
	DisplayTurnResults    = "turn_results"
	DisplayScoringDisplay = "scoring_display"
)

// TurnPlay is one seat's play within the current turn, in play order
type TurnPlay struct {
	Seat   int
	Pieces pieces.Pieces
	Valid  bool
}

// GameState is the authoritative state of one game. It is owned by
// the state machine and mutated only on the room's serializer; every
// other component observes it through dispatched events or cloned
// snapshots.
type GameState struct {
	RoomID            string
	Phase             Phase
	RoundNumber       int
	RedealMultiplier  int
	TurnNumber        int
	TurnStarterSeat   int
	CurrentPlayerSeat int

	TurnPlays          []TurnPlay
	RequiredPieceCount int // 0 until the first play of a turn sets it
	LastTurnWinner     int

	DeclarationOrder []int
	Declarations     map[int]int

	WeakHandSeats        []int
	CurrentWeakOfferSeat int // -1 when nobody is being prompted
	RedealRequests       []int
	ConfirmingRedeal     bool
	RedealGranted        bool

	AwaitingDisplay   string // "" or a Display* category
	DisplayGeneration int
	RoundComplete     bool
	ScoringAdvanced   bool
	WinnerSeat        int // -1 until a seat reaches the winning threshold

	Players [NumSeats]*Player

	LastEventSequence uint64
}

// NewGameState creates the state for a fresh game over the given seats
func NewGameState(roomID string, seats [NumSeats]*Player) *GameState {
	g := &GameState{
		RoomID:               roomID,
		RoundNumber:          1,
		RedealMultiplier:     1,
		TurnStarterSeat:      0,
		CurrentPlayerSeat:    -1,
		CurrentWeakOfferSeat: -1,
		LastTurnWinner:       -1,
		WinnerSeat:           -1,
		Declarations:         make(map[int]int),
	}
	for seat, p := range seats {
		g.Players[seat] = p.Clone()
	}
	return g
}

// Clone returns a deep copy of the state. Action handling mutates a
// clone and only commits it once validation and transition succeed.
func (g *GameState) Clone() *GameState {
	out := *g

	out.TurnPlays = make([]TurnPlay, len(g.TurnPlays))
	for i, tp := range g.TurnPlays {
		out.TurnPlays[i] = TurnPlay{Seat: tp.Seat, Pieces: tp.Pieces.Clone(), Valid: tp.Valid}
	}

	out.DeclarationOrder = append([]int(nil), g.DeclarationOrder...)
	out.WeakHandSeats = append([]int(nil), g.WeakHandSeats...)
	out.RedealRequests = append([]int(nil), g.RedealRequests...)

	out.Declarations = make(map[int]int, len(g.Declarations))
	for k, v := range g.Declarations {
		out.Declarations[k] = v
	}

	for seat, p := range g.Players {
		if p != nil {
			out.Players[seat] = p.Clone()
		}
	}

	return &out
}

// NextSeat returns the next seat index in ascending order, wrapping
func NextSeat(seat int) int {
	return (seat + 1) % NumSeats
}

// DeclarationTotal sums the declarations made so far
func (g *GameState) DeclarationTotal() int {
	total := 0
	for _, v := range g.Declarations {
		total += v
	}
	return total
}

// ForbiddenDeclaration returns the value the given seat may not
// declare, or -1. Only the last declarer of a round is constrained:
// it may not bring the declaration total to exactly the hand size.
func (g *GameState) ForbiddenDeclaration(seat int) int {
	if len(g.Declarations) != NumSeats-1 {
		return -1
	}
	if _, declared := g.Declarations[seat]; declared {
		return -1
	}
	forbidden := HandSize - g.DeclarationTotal()
	if forbidden < 0 || forbidden > HandSize {
		return -1
	}
	return forbidden
}

// AllHandsEmpty reports whether every seat has played out its hand
func (g *GameState) AllHandsEmpty() bool {
	for _, p := range g.Players {
		if p != nil && len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// NextSeatWithPieces returns the first seat at or after the given seat
// (wrapping) that still holds pieces, or -1 when all hands are empty.
func (g *GameState) NextSeatWithPieces(seat int) int {
	for i := 0; i < NumSeats; i++ {
		candidate := (seat + i) % NumSeats
		if p := g.Players[candidate]; p != nil && len(p.Hand) > 0 {
			return candidate
		}
	}
	return -1
}

// SeatHasPlayedThisTurn reports whether the seat already contributed
// to the current turn.
func (g *GameState) SeatHasPlayedThisTurn(seat int) bool {
	for _, tp := range g.TurnPlays {
		if tp.Seat == seat {
			return true
		}
	}
	return false
}

// CheckInvariants validates the structural invariants that must hold
// between actions. A failure here means a handler bug; the staged
// mutation carrying the violation is discarded instead of committed.
func (g *GameState) CheckInvariants() error {
	if len(g.Declarations) == NumSeats && g.DeclarationTotal() == HandSize {
		return fmt.Errorf("declarations sum to hand size (%d)", HandSize)
	}

	for i, tp := range g.TurnPlays {
		if i == 0 {
			continue
		}
		if g.RequiredPieceCount > 0 && len(tp.Pieces) != g.RequiredPieceCount {
			// Degenerate case: the seat's whole hand was smaller than
			// the required count and is now empty.
			if p := g.Players[tp.Seat]; p == nil || len(p.Hand) != 0 {
				return fmt.Errorf("play size %d does not match required count %d", len(tp.Pieces), g.RequiredPieceCount)
			}
		}
	}

	for seat, p := range g.Players {
		if p == nil {
			return fmt.Errorf("seat %d is empty", seat)
		}
		if len(p.Hand) > HandSize {
			return fmt.Errorf("seat %d holds %d pieces", seat, len(p.Hand))
		}
	}

	if g.Phase == PhaseTurn && g.AwaitingDisplay == "" && !g.RoundComplete {
		if g.CurrentPlayerSeat < 0 || g.CurrentPlayerSeat >= NumSeats {
			return fmt.Errorf("invalid current player seat %d", g.CurrentPlayerSeat)
		}
		if p := g.Players[g.CurrentPlayerSeat]; len(p.Hand) == 0 {
			return fmt.Errorf("current player seat %d has no pieces", g.CurrentPlayerSeat)
		}
	}

	return nil
}
