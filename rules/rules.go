package rules

import (
	"liaptui/pieces"
)

// PlayType classifies the formation of a played group of pieces
type PlayType string

const (
	Single      PlayType = "SINGLE"
	Pair        PlayType = "PAIR"
	Triple      PlayType = "TRIPLE"
	FourOfAKind PlayType = "FOUR_OF_A_KIND"
	FiveOfAKind PlayType = "FIVE_OF_A_KIND"
	SixOfAKind  PlayType = "SIX_OF_A_KIND"
	Invalid     PlayType = "INVALID"
)

// Play is one seat's contribution to a turn, in play order
type Play struct {
	Seat   int
	Pieces pieces.Pieces
	Valid  bool
}

// ClassifyPlay determines the play type of a group of pieces.
// A pair must match in kind and color; larger groups must match in
// kind. Anything else is an invalid formation: it may still be played
// as a forced filler but can never win the turn.
func ClassifyPlay(play pieces.Pieces) PlayType {
	switch len(play) {
	case 1:
		return Single
	case 2:
		if play[0].Kind == play[1].Kind && play[0].Color == play[1].Color {
			return Pair
		}
		return Invalid
	case 3, 4, 5, 6:
		kind := play[0].Kind
		for _, p := range play[1:] {
			if p.Kind != kind {
				return Invalid
			}
		}
		switch len(play) {
		case 3:
			return Triple
		case 4:
			return FourOfAKind
		case 5:
			return FiveOfAKind
		default:
			return SixOfAKind
		}
	default:
		return Invalid
	}
}

// ValidatePlay reports whether a follower's play matches the play type
// the opener produced. Size equality is the engine's concern; this
// only checks the formation.
func ValidatePlay(openerType PlayType, play pieces.Pieces) bool {
	if openerType == Invalid {
		return false
	}
	return ClassifyPlay(play) == openerType
}

// RankPlays determines the winning seat of a turn. Plays are given in
// play order (opener first). Among valid plays the highest total point
// value wins; ties go to the earliest play. The opener's play is
// always a candidate: if every follower is invalid, the opener wins.
func RankPlays(plays []Play) int {
	winnerIdx := 0
	winnerPoints := -1

	for i, play := range plays {
		if i > 0 && !play.Valid {
			continue
		}
		points := play.Pieces.TotalPoints()
		if points > winnerPoints {
			winnerIdx = i
			winnerPoints = points
		}
	}

	return plays[winnerIdx].Seat
}

// IsWeakHand reports whether a hand has no piece stronger than 9 points
func IsWeakHand(hand pieces.Pieces) bool {
	for _, p := range hand {
		if p.Point > 9 {
			return false
		}
	}
	return true
}
