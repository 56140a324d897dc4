package engine

import (
	"liaptui/domain"
	"liaptui/domain/events"
)

// Rejection is a rule-level refusal of an action. The origin seat
// receives an ActionRejected event with the reason; no state changes.
type Rejection struct {
	Reason string
}

func reject(reason string) *Rejection {
	return &Rejection{Reason: reason}
}

// PhaseState is the contract every game phase implements. Handle
// mutates the staged state it is given; the machine only commits the
// staged copy once validation and the transition decision succeed.
type PhaseState interface {
	Phase() domain.Phase

	// AllowedActions is the set of action names this phase accepts
	AllowedActions() map[string]bool

	// OnEnter performs the phase's idempotent setup (dealing,
	// ordering) and returns the events describing it.
	OnEnter(g *domain.GameState) []events.Event

	// Handle validates and applies one action against the staged state
	Handle(a *Action, g *domain.GameState) ([]events.Event, *Rejection)

	// NextPhase reports the phase to transition to, if any. It is
	// evaluated after every committed action and after every entry.
	NextPhase(g *domain.GameState) (domain.Phase, bool)

	// OnExit cleans up phase-local state before the next entry hook
	OnExit(g *domain.GameState)
}
