package engine

import (
	"liaptui/domain"
	"liaptui/domain/events"
)

// GameEndPhase is terminal: it announces the winner and refuses all
// further gameplay actions. Room teardown is the registry's job.
type GameEndPhase struct{}

func (p *GameEndPhase) Phase() domain.Phase { return domain.PhaseGameEnd }

func (p *GameEndPhase) AllowedActions() map[string]bool {
	return map[string]bool{}
}

func (p *GameEndPhase) OnEnter(g *domain.GameState) []events.Event {
	var totals [domain.NumSeats]int
	for seat, player := range g.Players {
		totals[seat] = player.Score
	}

	return []events.Event{events.GameEnded{
		RoomID:     g.RoomID,
		WinnerSeat: g.WinnerSeat,
		Totals:     totals,
		Rounds:     g.RoundNumber,
	}}
}

func (p *GameEndPhase) Handle(a *Action, g *domain.GameState) ([]events.Event, *Rejection) {
	return nil, reject("game_over")
}

func (p *GameEndPhase) NextPhase(g *domain.GameState) (domain.Phase, bool) {
	return "", false
}

func (p *GameEndPhase) OnExit(g *domain.GameState) {}
