package bot

import (
	"sort"

	"liaptui/domain"
	"liaptui/pieces"
	"liaptui/rules"
)

// Strategy decides a bot seat's move from a state snapshot. Snapshots
// are clones, so strategies may inspect them freely but mutations are
// never observed by the engine.
type Strategy interface {
	Declare(g *domain.GameState, seat int) int
	ChoosePlay(g *domain.GameState, seat int) []int
	RequestRedeal(g *domain.GameState, seat int) bool
	ConfirmRedeal(g *domain.GameState, seat int) bool
}

// Heuristic is the default strategy: declare roughly one pile per
// strong piece, open with the best pair on hand, follow with the
// strongest matching formation when it can take the turn and dump
// fillers otherwise.
type Heuristic struct{}

func (h Heuristic) Declare(g *domain.GameState, seat int) int {
	strong := 0
	for _, p := range g.Players[seat].Hand {
		if p.Point > 9 {
			strong++
		}
	}
	return LegalDeclaration(g, seat, strong)
}

func (h Heuristic) ChoosePlay(g *domain.GameState, seat int) []int {
	hand := g.Players[seat].Hand

	if len(g.TurnPlays) == 0 {
		if pair := bestGroup(g, seat, 2); pair != nil {
			return pair
		}
		return []int{highestIndex(g, seat)}
	}

	required := g.RequiredPieceCount
	if len(hand) <= required {
		return allIndices(len(hand))
	}

	// A matching formation is only worth its pieces if it actually
	// takes the turn; otherwise shed the cheapest pieces.
	if group := bestGroup(g, seat, required); group != nil {
		points := 0
		for _, idx := range group {
			points += hand[idx].Point
		}
		if points > leadingPoints(g) {
			return group
		}
	}

	return lowestIndices(g, seat, required)
}

func (h Heuristic) RequestRedeal(g *domain.GameState, seat int) bool {
	// Only truly hopeless hands are worth doubling the stakes over
	for _, p := range g.Players[seat].Hand {
		if p.Point > 7 {
			return false
		}
	}
	return true
}

func (h Heuristic) ConfirmRedeal(g *domain.GameState, seat int) bool {
	return true
}

// LegalDeclaration clamps a desired declaration to the legal range for
// the seat, stepping around the forbidden last-declarer value and the
// zero-streak floor.
func LegalDeclaration(g *domain.GameState, seat int, desired int) int {
	if desired < 0 {
		desired = 0
	}
	if desired > domain.HandSize {
		desired = domain.HandSize
	}
	if desired == 0 && g.Players[seat].ZeroStreak >= 2 {
		desired = 1
	}

	if forbidden := g.ForbiddenDeclaration(seat); forbidden >= 0 && desired == forbidden {
		if desired < domain.HandSize {
			desired++
		} else {
			desired--
		}
	}

	return desired
}

// FallbackDeclaration is the minimal legal declaration, used when a
// strategy fails.
func FallbackDeclaration(g *domain.GameState, seat int) int {
	return LegalDeclaration(g, seat, 0)
}

// FallbackPlay is the front of the hand, sized to the turn. It is
// always accepted: openers may play a single, followers may play any
// pieces as a filler.
func FallbackPlay(g *domain.GameState, seat int) []int {
	hand := g.Players[seat].Hand

	count := 1
	if len(g.TurnPlays) > 0 {
		count = g.RequiredPieceCount
		if len(hand) < count {
			count = len(hand)
		}
	}

	return allIndices(count)
}

// bestGroup returns the highest-point group of the given size that
// forms a valid play, or nil. Pairs must match kind and color, larger
// groups kind only.
func bestGroup(g *domain.GameState, seat int, size int) []int {
	hand := g.Players[seat].Hand
	if size < 1 || size > len(hand) {
		return nil
	}
	if size == 1 {
		return []int{highestIndex(g, seat)}
	}

	groups := make(map[string][]int)
	for idx, p := range hand {
		key := string(p.Kind)
		if size == 2 {
			key = p.String()
		}
		groups[key] = append(groups[key], idx)
	}

	var best []int
	bestPoints := -1
	for _, idxs := range groups {
		if len(idxs) < size {
			continue
		}
		sort.Slice(idxs, func(i, j int) bool {
			return hand[idxs[i]].Point > hand[idxs[j]].Point
		})
		pick := idxs[:size]
		points := 0
		for _, idx := range pick {
			points += hand[idx].Point
		}
		if points > bestPoints {
			best = append([]int(nil), pick...)
			bestPoints = points
		}
	}

	if best == nil {
		return nil
	}
	if rules.ClassifyPlay(pickPieces(g, seat, best)) == rules.Invalid {
		return nil
	}
	return best
}

// leadingPoints is the point total currently winning the turn
func leadingPoints(g *domain.GameState) int {
	best := -1
	for i, tp := range g.TurnPlays {
		if i > 0 && !tp.Valid {
			continue
		}
		if points := tp.Pieces.TotalPoints(); points > best {
			best = points
		}
	}
	return best
}

func highestIndex(g *domain.GameState, seat int) int {
	hand := g.Players[seat].Hand
	best := 0
	for idx, p := range hand {
		if p.Point > hand[best].Point {
			best = idx
		}
	}
	return best
}

func lowestIndices(g *domain.GameState, seat int, count int) []int {
	hand := g.Players[seat].Hand
	idxs := allIndices(len(hand))
	sort.Slice(idxs, func(i, j int) bool {
		return hand[idxs[i]].Point < hand[idxs[j]].Point
	})
	return idxs[:count]
}

func allIndices(count int) []int {
	idxs := make([]int, count)
	for i := range idxs {
		idxs[i] = i
	}
	return idxs
}

func pickPieces(g *domain.GameState, seat int, idxs []int) pieces.Pieces {
	hand := g.Players[seat].Hand
	out := make(pieces.Pieces, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, hand[idx])
	}
	return out
}
