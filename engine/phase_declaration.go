package engine

import (
	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
)

// DeclarationPhase collects one pile declaration per seat, starting
// at the turn starter and wrapping in seat order. The last declarer
// may not bring the total to exactly the hand size, and a seat that
// declared zero in the two preceding rounds must declare at least one.
type DeclarationPhase struct{}

func (p *DeclarationPhase) Phase() domain.Phase { return domain.PhaseDeclaration }

func (p *DeclarationPhase) AllowedActions() map[string]bool {
	return map[string]bool{
		actions.Declare{}.Name(): true,
	}
}

func (p *DeclarationPhase) OnEnter(g *domain.GameState) []events.Event {
	g.DeclarationOrder = make([]int, 0, domain.NumSeats)
	for i := 0; i < domain.NumSeats; i++ {
		g.DeclarationOrder = append(g.DeclarationOrder, (g.TurnStarterSeat+i)%domain.NumSeats)
	}

	g.Declarations = make(map[int]int)
	g.CurrentPlayerSeat = g.TurnStarterSeat

	return nil
}

func (p *DeclarationPhase) Handle(a *Action, g *domain.GameState) ([]events.Event, *Rejection) {
	payload, ok := a.Payload.(actions.Declare)
	if !ok {
		return nil, reject("wrong_phase")
	}

	if a.Seat != g.CurrentPlayerSeat {
		return nil, reject("not_your_turn")
	}

	value := payload.Value
	if value < 0 || value > domain.HandSize {
		return nil, reject("invalid_value")
	}

	player := g.Players[a.Seat]
	if value == 0 && player.ZeroStreak >= 2 {
		return nil, reject("zero_streak_requires_nonzero")
	}

	if forbidden := g.ForbiddenDeclaration(a.Seat); forbidden >= 0 && value == forbidden {
		return nil, reject("would sum to hand_size")
	}

	g.Declarations[a.Seat] = value
	player.DeclaredPiles = value

	next := -1
	if len(g.Declarations) < domain.NumSeats {
		next = domain.NextSeat(a.Seat)
	}
	g.CurrentPlayerSeat = next

	declarations := make(map[int]int, len(g.Declarations))
	for k, v := range g.Declarations {
		declarations[k] = v
	}

	return []events.Event{events.Declared{
		RoomID:       g.RoomID,
		Seat:         a.Seat,
		Value:        value,
		Declarations: declarations,
		NextDeclarer: next,
	}}, nil
}

func (p *DeclarationPhase) NextPhase(g *domain.GameState) (domain.Phase, bool) {
	if len(g.Declarations) == domain.NumSeats {
		return domain.PhaseTurn, true
	}
	return "", false
}

func (p *DeclarationPhase) OnExit(g *domain.GameState) {}
