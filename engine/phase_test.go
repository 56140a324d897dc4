package engine

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
	"liaptui/pieces"
	"liaptui/rules"
)

func newTestState() *domain.GameState {
	room := domain.NewRoom("test room", "host", "Host")
	g := domain.NewGameState("room-1", room.Seats())
	for _, p := range g.Players {
		p.Hand = make(pieces.Pieces, domain.HandSize)
	}
	return g
}

func phaseAction(seat int, payload actions.Action) *Action {
	return &Action{ID: uuid.NewString(), Seat: seat, Payload: payload}
}

func TestPreparationDealsFullHands(t *testing.T) {
	g := newTestState()
	p := &PreparationPhase{rng: rand.New(rand.NewSource(3))}

	evs := p.OnEnter(g)
	require.GreaterOrEqual(t, len(evs), 4)

	dealt := map[string]int{}
	for seat, player := range g.Players {
		assert.Len(t, player.Hand, domain.HandSize)
		assert.Equal(t, -1, player.DeclaredPiles)
		assert.Equal(t, 0, player.CapturedPiles)
		for _, piece := range player.Hand {
			dealt[piece.String()]++
		}

		weak := rules.IsWeakHand(player.Hand)
		assert.Equal(t, weak, containsSeat(g.WeakHandSeats, seat))
	}

	// All 32 pieces went out exactly once
	total := 0
	for _, n := range dealt {
		total += n
	}
	assert.Equal(t, 32, total)

	if len(g.WeakHandSeats) == 0 {
		assert.Equal(t, -1, g.CurrentWeakOfferSeat)
	} else {
		assert.Equal(t, g.WeakHandSeats[0], g.CurrentWeakOfferSeat)
	}
}

func containsSeat(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}

func TestRedealRequestAndAccept(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhasePreparation
	g.WeakHandSeats = []int{2, 3, 0}
	g.CurrentWeakOfferSeat = 2
	p := &PreparationPhase{}

	// Seat 2 requests; the offer walks on to the other weak seats
	_, rej := p.Handle(phaseAction(2, actions.RequestRedeal{}), g)
	require.Nil(t, rej)
	assert.Equal(t, 3, g.CurrentWeakOfferSeat)

	_, rej = p.Handle(phaseAction(3, actions.DeclineRedeal{}), g)
	require.Nil(t, rej)
	assert.Equal(t, 0, g.CurrentWeakOfferSeat)

	// Last decline moves into the confirmation pass for the requester
	_, rej = p.Handle(phaseAction(0, actions.DeclineRedeal{}), g)
	require.Nil(t, rej)
	assert.True(t, g.ConfirmingRedeal)
	assert.Equal(t, 2, g.CurrentWeakOfferSeat)

	_, rej = p.Handle(phaseAction(2, actions.AcceptRedeal{}), g)
	require.Nil(t, rej)
	assert.True(t, g.RedealGranted)
	assert.Equal(t, 2, g.RedealMultiplier)

	// An accepted redeal re-enters preparation
	next, ok := p.NextPhase(g)
	require.True(t, ok)
	assert.Equal(t, domain.PhasePreparation, next)
}

func TestRedealWithdrawnAtConfirmation(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhasePreparation
	g.WeakHandSeats = []int{1}
	g.CurrentWeakOfferSeat = 1
	p := &PreparationPhase{}

	_, rej := p.Handle(phaseAction(1, actions.RequestRedeal{}), g)
	require.Nil(t, rej)
	require.True(t, g.ConfirmingRedeal)
	require.Equal(t, 1, g.CurrentWeakOfferSeat)

	// Declining one's own request withdraws it
	_, rej = p.Handle(phaseAction(1, actions.DeclineRedeal{}), g)
	require.Nil(t, rej)
	assert.False(t, g.RedealGranted)
	assert.Equal(t, 1, g.RedealMultiplier)
	assert.Equal(t, -1, g.CurrentWeakOfferSeat)

	next, ok := p.NextPhase(g)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseDeclaration, next)
}

func TestRedealGuards(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhasePreparation
	g.WeakHandSeats = []int{1, 2}
	g.CurrentWeakOfferSeat = 1
	p := &PreparationPhase{}

	// Only the offered seat answers
	_, rej := p.Handle(phaseAction(2, actions.RequestRedeal{}), g)
	require.NotNil(t, rej)
	assert.Equal(t, "not_your_turn", rej.Reason)

	// Accepting without a confirmation pending is meaningless
	_, rej = p.Handle(phaseAction(1, actions.AcceptRedeal{}), g)
	require.NotNil(t, rej)
	assert.Equal(t, "no_request_to_accept", rej.Reason)

	g.CurrentWeakOfferSeat = -1
	_, rej = p.Handle(phaseAction(1, actions.RequestRedeal{}), g)
	require.NotNil(t, rej)
	assert.Equal(t, "no_redeal_offer", rej.Reason)
}

func TestNoWeakHandsSkipsStraightToDeclaration(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhasePreparation
	g.CurrentWeakOfferSeat = -1
	p := &PreparationPhase{}

	next, ok := p.NextPhase(g)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseDeclaration, next)
}

func TestZeroStreakForcesNonZeroDeclaration(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhaseDeclaration
	p := &DeclarationPhase{}
	p.OnEnter(g)

	g.Players[0].ZeroStreak = 2

	_, rej := p.Handle(phaseAction(0, actions.Declare{Value: 0}), g)
	require.NotNil(t, rej)
	assert.Equal(t, "zero_streak_requires_nonzero", rej.Reason)

	evs, rej := p.Handle(phaseAction(0, actions.Declare{Value: 1}), g)
	require.Nil(t, rej)
	assert.Len(t, evs, 1)
}

func TestFollowerWithShortHandPlaysItOut(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhaseTurn
	g.TurnStarterSeat = 0
	p := &TurnPhase{}
	p.OnEnter(g)

	g.Players[0].Hand = pieces.Pieces{
		pieces.New(pieces.Soldier, pieces.Red),
		pieces.New(pieces.Soldier, pieces.Red),
		pieces.New(pieces.Soldier, pieces.Black),
	}
	g.Players[1].Hand = pieces.Pieces{
		pieces.New(pieces.Horse, pieces.Red),
		pieces.New(pieces.Cannon, pieces.Black),
		pieces.New(pieces.Elephant, pieces.Red),
	}
	g.Players[2].Hand = pieces.Pieces{
		pieces.New(pieces.Chariot, pieces.Red),
		pieces.New(pieces.Chariot, pieces.Black),
		pieces.New(pieces.Advisor, pieces.Red),
	}
	g.Players[3].Hand = pieces.Pieces{
		pieces.New(pieces.General, pieces.Red),
		pieces.New(pieces.Advisor, pieces.Black),
	}

	// Opener fixes the count at three
	_, rej := p.Handle(phaseAction(0, actions.PlayPieces{PieceIndices: []int{0, 1, 2}}), g)
	require.Nil(t, rej)
	require.Equal(t, 3, g.RequiredPieceCount)

	for _, seat := range []int{1, 2} {
		_, rej = p.Handle(phaseAction(seat, actions.PlayPieces{PieceIndices: []int{0, 1, 2}}), g)
		require.Nil(t, rej)
	}

	// Seat 3 holds two pieces; anything short of the whole hand bounces
	_, rej = p.Handle(phaseAction(3, actions.PlayPieces{PieceIndices: []int{0}}), g)
	require.NotNil(t, rej)
	assert.Equal(t, "piece_count_mismatch", rej.Reason)

	evs, rej := p.Handle(phaseAction(3, actions.PlayPieces{PieceIndices: []int{0, 1}}), g)
	require.Nil(t, rej)
	assert.Empty(t, g.Players[3].Hand)

	// The short play still completes the turn, and with it the round
	resolved := evs[len(evs)-1].(events.TurnResolved)
	assert.Len(t, resolved.Plays, 4)
	assert.True(t, g.RoundComplete)

	next, ok := p.NextPhase(g)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseScoring, next)
}

func TestScoringAppliesDeltasAndStreaks(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhaseScoring
	g.RedealMultiplier = 2
	p := &ScoringPhase{threshold: 50}

	g.Players[0].DeclaredPiles, g.Players[0].CapturedPiles = 0, 0 // +3
	g.Players[1].DeclaredPiles, g.Players[1].CapturedPiles = 2, 2 // +7
	g.Players[2].DeclaredPiles, g.Players[2].CapturedPiles = 0, 1 // -1
	g.Players[3].DeclaredPiles, g.Players[3].CapturedPiles = 3, 1 // -2
	g.Players[2].ZeroStreak = 1

	evs := p.OnEnter(g)
	require.Len(t, evs, 1)

	assert.Equal(t, 6, g.Players[0].Score)
	assert.Equal(t, 14, g.Players[1].Score)
	assert.Equal(t, -2, g.Players[2].Score)
	assert.Equal(t, -4, g.Players[3].Score)

	// Zero declarations extend the streak, others reset it
	assert.Equal(t, 1, g.Players[0].ZeroStreak)
	assert.Equal(t, 0, g.Players[1].ZeroStreak)
	assert.Equal(t, 2, g.Players[2].ZeroStreak)

	// Nobody reached the threshold; the scoring display gates round 2
	assert.Equal(t, -1, g.WinnerSeat)
	assert.Equal(t, domain.DisplayScoringDisplay, g.AwaitingDisplay)

	_, ok := p.NextPhase(g)
	assert.False(t, ok)

	_, rej := p.Handle(phaseAction(0, actions.AdvanceDisplay{Of: domain.DisplayScoringDisplay}), g)
	require.Nil(t, rej)
	assert.Equal(t, 2, g.RoundNumber)
	assert.Equal(t, 1, g.TurnStarterSeat)
	assert.Equal(t, 1, g.RedealMultiplier)

	next, ok := p.NextPhase(g)
	require.True(t, ok)
	assert.Equal(t, domain.PhasePreparation, next)
}

func TestScoringDetectsWinner(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhaseScoring
	p := &ScoringPhase{threshold: 50}

	g.Players[1].Score = 45
	g.Players[1].DeclaredPiles, g.Players[1].CapturedPiles = 3, 3 // +8 -> 53
	g.Players[0].DeclaredPiles = 1
	g.Players[2].DeclaredPiles = 1
	g.Players[3].DeclaredPiles = 1

	p.OnEnter(g)

	assert.Equal(t, 1, g.WinnerSeat)
	assert.Empty(t, g.AwaitingDisplay)

	next, ok := p.NextPhase(g)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseGameEnd, next)
}

func TestScoringWinnerTieGoesToLowerSeat(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhaseScoring
	p := &ScoringPhase{threshold: 50}

	// Seats 1 and 3 both land on 53
	g.Players[1].Score = 45
	g.Players[1].DeclaredPiles, g.Players[1].CapturedPiles = 3, 3
	g.Players[3].Score = 45
	g.Players[3].DeclaredPiles, g.Players[3].CapturedPiles = 3, 3
	g.Players[0].DeclaredPiles = 1
	g.Players[2].DeclaredPiles = 1

	p.OnEnter(g)
	assert.Equal(t, 1, g.WinnerSeat)
}

func TestGameEndRejectsEverything(t *testing.T) {
	g := newTestState()
	g.Phase = domain.PhaseGameEnd
	g.WinnerSeat = 2
	p := &GameEndPhase{}

	evs := p.OnEnter(g)
	require.Len(t, evs, 1)

	_, rej := p.Handle(phaseAction(0, actions.Declare{Value: 1}), g)
	require.NotNil(t, rej)
	assert.Equal(t, "game_over", rej.Reason)

	_, ok := p.NextPhase(g)
	assert.False(t, ok)
}
