package engine

import (
	"math/rand"

	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
	"liaptui/pieces"
	"liaptui/rules"
)

// PreparationPhase deals a fresh round and walks weak-handed seats
// through the redeal offer protocol. Seats are prompted one at a time
// in seat order from the turn starter; requesters confirm in a second
// pass, and any accepted redeal re-enters Preparation with the
// multiplier incremented.
type PreparationPhase struct {
	rng *rand.Rand
}

func (p *PreparationPhase) Phase() domain.Phase { return domain.PhasePreparation }

func (p *PreparationPhase) AllowedActions() map[string]bool {
	return map[string]bool{
		actions.RequestRedeal{}.Name(): true,
		actions.AcceptRedeal{}.Name():  true,
		actions.DeclineRedeal{}.Name(): true,
	}
}

func (p *PreparationPhase) OnEnter(g *domain.GameState) []events.Event {
	deck := pieces.ShuffleDeck(p.rng, pieces.NewDeck())

	var evs []events.Event
	for seat := 0; seat < domain.NumSeats; seat++ {
		player := g.Players[seat]
		player.ResetForNewRound()

		var hand pieces.Pieces
		hand, deck = pieces.DealPieces(deck, domain.HandSize)
		player.Hand = hand

		evs = append(evs, events.HandDealt{
			RoomID:      g.RoomID,
			Seat:        seat,
			Hand:        hand.Strings(),
			PieceCount:  len(hand),
			RoundNumber: g.RoundNumber,
		})
	}

	g.TurnNumber = 0
	g.TurnPlays = nil
	g.RequiredPieceCount = 0
	g.LastTurnWinner = -1
	g.CurrentPlayerSeat = -1
	g.Declarations = make(map[int]int)
	g.DeclarationOrder = nil
	g.AwaitingDisplay = ""
	g.RoundComplete = false
	g.ScoringAdvanced = false

	g.RedealRequests = nil
	g.ConfirmingRedeal = false
	g.RedealGranted = false

	// Weak seats are offered redeals in seat order from the starter
	g.WeakHandSeats = nil
	for i := 0; i < domain.NumSeats; i++ {
		seat := (g.TurnStarterSeat + i) % domain.NumSeats
		if rules.IsWeakHand(g.Players[seat].Hand) {
			g.WeakHandSeats = append(g.WeakHandSeats, seat)
		}
	}

	if len(g.WeakHandSeats) == 0 {
		g.CurrentWeakOfferSeat = -1
	} else {
		g.CurrentWeakOfferSeat = g.WeakHandSeats[0]
		evs = append(evs, events.RedealOffered{RoomID: g.RoomID, Seat: g.CurrentWeakOfferSeat})
	}

	return evs
}

func (p *PreparationPhase) Handle(a *Action, g *domain.GameState) ([]events.Event, *Rejection) {
	if g.CurrentWeakOfferSeat < 0 {
		return nil, reject("no_redeal_offer")
	}
	if a.Seat != g.CurrentWeakOfferSeat {
		return nil, reject("not_your_turn")
	}

	var evs []events.Event

	switch a.Payload.(type) {
	case actions.RequestRedeal:
		if g.ConfirmingRedeal {
			return nil, reject("confirmation_pending")
		}
		g.RedealRequests = append(g.RedealRequests, a.Seat)
		evs = append(evs, events.RedealRequested{RoomID: g.RoomID, Seat: a.Seat})
		evs = p.advanceOffer(g, evs)

	case actions.DeclineRedeal:
		evs = append(evs, events.RedealDeclined{RoomID: g.RoomID, Seat: a.Seat})
		if g.ConfirmingRedeal {
			evs = p.advanceConfirmation(g, evs)
		} else {
			evs = p.advanceOffer(g, evs)
		}

	case actions.AcceptRedeal:
		if !g.ConfirmingRedeal {
			return nil, reject("no_request_to_accept")
		}
		g.RedealMultiplier++
		g.RedealGranted = true
		g.CurrentWeakOfferSeat = -1
		evs = append(evs, events.RedealAccepted{RoomID: g.RoomID, Seat: a.Seat, Multiplier: g.RedealMultiplier})

	default:
		return nil, reject("wrong_phase")
	}

	return evs, nil
}

// advanceOffer moves the first-pass prompt to the next weak seat, or
// into the confirmation pass once every weak seat has answered.
func (p *PreparationPhase) advanceOffer(g *domain.GameState, evs []events.Event) []events.Event {
	idx := -1
	for i, seat := range g.WeakHandSeats {
		if seat == g.CurrentWeakOfferSeat {
			idx = i
			break
		}
	}

	if idx >= 0 && idx+1 < len(g.WeakHandSeats) {
		g.CurrentWeakOfferSeat = g.WeakHandSeats[idx+1]
		return append(evs, events.RedealOffered{RoomID: g.RoomID, Seat: g.CurrentWeakOfferSeat})
	}

	if len(g.RedealRequests) > 0 {
		g.ConfirmingRedeal = true
		g.CurrentWeakOfferSeat = g.RedealRequests[0]
		return append(evs, events.RedealOffered{RoomID: g.RoomID, Seat: g.CurrentWeakOfferSeat, Confirming: true})
	}

	g.CurrentWeakOfferSeat = -1
	return evs
}

// advanceConfirmation withdraws the current requester and prompts the
// next one, if any.
func (p *PreparationPhase) advanceConfirmation(g *domain.GameState, evs []events.Event) []events.Event {
	if len(g.RedealRequests) > 0 {
		g.RedealRequests = g.RedealRequests[1:]
	}

	if len(g.RedealRequests) > 0 {
		g.CurrentWeakOfferSeat = g.RedealRequests[0]
		return append(evs, events.RedealOffered{RoomID: g.RoomID, Seat: g.CurrentWeakOfferSeat, Confirming: true})
	}

	g.CurrentWeakOfferSeat = -1
	return evs
}

func (p *PreparationPhase) NextPhase(g *domain.GameState) (domain.Phase, bool) {
	if g.RedealGranted {
		return domain.PhasePreparation, true
	}
	if g.CurrentWeakOfferSeat < 0 {
		return domain.PhaseDeclaration, true
	}
	return "", false
}

func (p *PreparationPhase) OnExit(g *domain.GameState) {
	g.CurrentWeakOfferSeat = -1
	g.WeakHandSeats = nil
	g.RedealRequests = nil
	g.ConfirmingRedeal = false
}
