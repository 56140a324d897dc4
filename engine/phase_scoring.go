package engine

import (
	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
	"liaptui/rules"
)

// ScoringPhase applies the round's score deltas on entry. If a seat
// reached the winning threshold the game ends immediately; otherwise
// the scoring display gates the next round.
type ScoringPhase struct {
	threshold int
}

func (p *ScoringPhase) Phase() domain.Phase { return domain.PhaseScoring }

func (p *ScoringPhase) AllowedActions() map[string]bool {
	return map[string]bool{
		actions.AdvanceDisplay{}.Name(): true,
	}
}

func (p *ScoringPhase) OnEnter(g *domain.GameState) []events.Event {
	g.RoundComplete = false

	var deltas, totals [domain.NumSeats]int
	for seat, player := range g.Players {
		delta := rules.ScoreRound(player.DeclaredPiles, player.CapturedPiles, g.RedealMultiplier)
		player.Score += delta

		if player.DeclaredPiles == 0 {
			player.ZeroStreak++
		} else {
			player.ZeroStreak = 0
		}

		deltas[seat] = delta
		totals[seat] = player.Score
	}

	// Highest score at or above the threshold wins; equal highest
	// goes to the lower seat index.
	winner := -1
	for seat, player := range g.Players {
		if player.Score < p.threshold {
			continue
		}
		if winner < 0 || player.Score > g.Players[winner].Score {
			winner = seat
		}
	}
	g.WinnerSeat = winner

	if winner < 0 {
		g.AwaitingDisplay = domain.DisplayScoringDisplay
		g.DisplayGeneration++
	}

	return []events.Event{events.ScoringApplied{
		RoomID:      g.RoomID,
		RoundNumber: g.RoundNumber,
		Multiplier:  g.RedealMultiplier,
		Deltas:      deltas,
		Totals:      totals,
	}}
}

func (p *ScoringPhase) Handle(a *Action, g *domain.GameState) ([]events.Event, *Rejection) {
	payload, ok := a.Payload.(actions.AdvanceDisplay)
	if !ok {
		return nil, reject("wrong_phase")
	}
	if g.AwaitingDisplay != domain.DisplayScoringDisplay || payload.Of != domain.DisplayScoringDisplay {
		return nil, reject("no_display_pending")
	}

	g.RoundNumber++
	g.TurnStarterSeat = domain.NextSeat(g.TurnStarterSeat)
	g.RedealMultiplier = 1
	g.AwaitingDisplay = ""
	g.ScoringAdvanced = true

	return nil, nil
}

func (p *ScoringPhase) NextPhase(g *domain.GameState) (domain.Phase, bool) {
	if g.WinnerSeat >= 0 {
		return domain.PhaseGameEnd, true
	}
	if g.ScoringAdvanced {
		return domain.PhasePreparation, true
	}
	return "", false
}

func (p *ScoringPhase) OnExit(g *domain.GameState) {
	g.ScoringAdvanced = false
	g.AwaitingDisplay = ""
}
