package pieces

import "math/rand"

// deckCounts is the fixed per-color multiset of the 32-piece deck
var deckCounts = []struct {
	kind  Kind
	count int
}{
	{General, 1},
	{Advisor, 2},
	{Elephant, 2},
	{Chariot, 2},
	{Horse, 2},
	{Cannon, 2},
	{Soldier, 5},
}

// NewDeck creates the full 32-piece deck (16 red, 16 black), unshuffled
func NewDeck() Pieces {
	var deck Pieces
	for _, color := range []Color{Red, Black} {
		for _, dc := range deckCounts {
			for i := 0; i < dc.count; i++ {
				deck = append(deck, New(dc.kind, color))
			}
		}
	}
	return deck
}

// ShuffleDeck shuffles a deck using the provided random source. The
// source is per-room and seeded at room creation so deals can be
// replayed deterministically.
func ShuffleDeck(r *rand.Rand, deck Pieces) Pieces {
	shuffled := deck.Clone()
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// DealPieces deals count pieces from the top and returns them with the
// remaining deck
func DealPieces(deck Pieces, count int) (Pieces, Pieces) {
	if count > len(deck) {
		count = len(deck)
	}

	dealt := make(Pieces, count)
	copy(dealt, deck[:count])

	return dealt, deck[count:]
}
