package engine

import (
	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
	"liaptui/pieces"
	"liaptui/rules"
)

// TurnPhase runs the trick-taking turns of a round. The opener's play
// fixes the required piece count and play type; every following seat
// must play exactly that many pieces from its hand, whether or not
// they form a winning formation. The turn winner captures piles equal
// to the required count and opens the next turn.
type TurnPhase struct{}

func (p *TurnPhase) Phase() domain.Phase { return domain.PhaseTurn }

func (p *TurnPhase) AllowedActions() map[string]bool {
	return map[string]bool{
		actions.PlayPieces{}.Name():     true,
		actions.AdvanceDisplay{}.Name(): true,
	}
}

func (p *TurnPhase) OnEnter(g *domain.GameState) []events.Event {
	g.TurnNumber = 1
	g.CurrentPlayerSeat = g.TurnStarterSeat
	g.TurnPlays = nil
	g.RequiredPieceCount = 0
	g.AwaitingDisplay = ""

	return []events.Event{events.TurnStarted{
		RoomID:      g.RoomID,
		TurnNumber:  g.TurnNumber,
		StarterSeat: g.CurrentPlayerSeat,
	}}
}

func (p *TurnPhase) Handle(a *Action, g *domain.GameState) ([]events.Event, *Rejection) {
	switch payload := a.Payload.(type) {
	case actions.PlayPieces:
		return p.handlePlay(a, payload, g)
	case actions.AdvanceDisplay:
		return p.handleAdvance(payload, g)
	default:
		return nil, reject("wrong_phase")
	}
}

func (p *TurnPhase) handlePlay(a *Action, payload actions.PlayPieces, g *domain.GameState) ([]events.Event, *Rejection) {
	if g.AwaitingDisplay != "" {
		return nil, reject("awaiting_display")
	}
	if a.Seat != g.CurrentPlayerSeat {
		return nil, reject("not_your_turn")
	}

	player := g.Players[a.Seat]

	count := len(payload.PieceIndices)
	if count == 0 {
		return nil, reject("invalid_piece_indices")
	}
	seen := make(map[int]bool, count)
	for _, idx := range payload.PieceIndices {
		if idx < 0 || idx >= len(player.Hand) || seen[idx] {
			return nil, reject("invalid_piece_indices")
		}
		seen[idx] = true
	}

	opener := len(g.TurnPlays) == 0
	if opener {
		if count > 6 {
			return nil, reject("invalid_piece_count")
		}
	} else {
		// Followers match the opener's count exactly; a seat whose
		// hand is smaller plays its entire hand (degenerate turn).
		if len(player.Hand) < g.RequiredPieceCount {
			if count != len(player.Hand) {
				return nil, reject("piece_count_mismatch")
			}
		} else if count != g.RequiredPieceCount {
			return nil, reject("piece_count_mismatch")
		}
	}

	played := make(pieces.Pieces, 0, count)
	for _, idx := range payload.PieceIndices {
		played = append(played, player.Hand[idx])
	}

	playType := rules.ClassifyPlay(played)
	valid := true
	if opener {
		if playType == rules.Invalid {
			return nil, reject("invalid_play")
		}
		g.RequiredPieceCount = count
	} else {
		openerType := rules.ClassifyPlay(g.TurnPlays[0].Pieces)
		valid = rules.ValidatePlay(openerType, played)
	}

	// Played pieces leave the hand atomically with the acceptance
	remaining := make(pieces.Pieces, 0, len(player.Hand)-count)
	for idx, piece := range player.Hand {
		if !seen[idx] {
			remaining = append(remaining, piece)
		}
	}
	player.Hand = remaining

	g.TurnPlays = append(g.TurnPlays, domain.TurnPlay{Seat: a.Seat, Pieces: played, Valid: valid})

	next := -1
	for i := 1; i <= domain.NumSeats; i++ {
		candidate := (a.Seat + i) % domain.NumSeats
		if g.SeatHasPlayedThisTurn(candidate) {
			continue
		}
		if len(g.Players[candidate].Hand) == 0 {
			continue
		}
		next = candidate
		break
	}

	evs := []events.Event{events.Played{
		RoomID:        g.RoomID,
		Seat:          a.Seat,
		Pieces:        played.Strings(),
		PlayType:      string(playType),
		Valid:         valid,
		RequiredCount: g.RequiredPieceCount,
		NextSeat:      next,
	}}

	if next >= 0 {
		g.CurrentPlayerSeat = next
		return evs, nil
	}

	return append(evs, p.resolveTurn(g)), nil
}

// resolveTurn ranks the completed turn, credits the winner's piles
// and either gates the next turn behind the turn_results display or
// marks the round complete.
func (p *TurnPhase) resolveTurn(g *domain.GameState) events.Event {
	rulePlays := make([]rules.Play, len(g.TurnPlays))
	summaries := make([]events.TurnPlaySummary, len(g.TurnPlays))
	for i, tp := range g.TurnPlays {
		rulePlays[i] = rules.Play{Seat: tp.Seat, Pieces: tp.Pieces, Valid: tp.Valid}
		summaries[i] = events.TurnPlaySummary{Seat: tp.Seat, Pieces: tp.Pieces.Strings(), Valid: tp.Valid}
	}

	winner := rules.RankPlays(rulePlays)
	g.Players[winner].CapturedPiles += g.RequiredPieceCount
	g.LastTurnWinner = winner
	g.CurrentPlayerSeat = -1

	if g.AllHandsEmpty() {
		g.RoundComplete = true
	} else {
		g.AwaitingDisplay = domain.DisplayTurnResults
		g.DisplayGeneration++
	}

	return events.TurnResolved{
		RoomID:     g.RoomID,
		TurnNumber: g.TurnNumber,
		WinnerSeat: winner,
		PilesWon:   g.RequiredPieceCount,
		Plays:      summaries,
	}
}

func (p *TurnPhase) handleAdvance(payload actions.AdvanceDisplay, g *domain.GameState) ([]events.Event, *Rejection) {
	if g.AwaitingDisplay != domain.DisplayTurnResults || payload.Of != domain.DisplayTurnResults {
		return nil, reject("no_display_pending")
	}

	g.TurnNumber++
	starter := g.LastTurnWinner
	if len(g.Players[starter].Hand) == 0 {
		starter = g.NextSeatWithPieces(domain.NextSeat(starter))
	}
	g.CurrentPlayerSeat = starter
	g.TurnPlays = nil
	g.RequiredPieceCount = 0
	g.AwaitingDisplay = ""

	return []events.Event{events.TurnStarted{
		RoomID:      g.RoomID,
		TurnNumber:  g.TurnNumber,
		StarterSeat: starter,
	}}, nil
}

func (p *TurnPhase) NextPhase(g *domain.GameState) (domain.Phase, bool) {
	if g.RoundComplete {
		return domain.PhaseScoring, true
	}
	return "", false
}

func (p *TurnPhase) OnExit(g *domain.GameState) {
	g.TurnPlays = nil
	g.RequiredPieceCount = 0
	g.AwaitingDisplay = ""
}
