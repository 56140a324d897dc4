package pieces

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	assert.Len(t, deck, 32)

	colorCounts := map[Color]int{}
	kindCounts := map[Color]map[Kind]int{Red: {}, Black: {}}
	for _, p := range deck {
		colorCounts[p.Color]++
		kindCounts[p.Color][p.Kind]++
	}

	assert.Equal(t, 16, colorCounts[Red])
	assert.Equal(t, 16, colorCounts[Black])

	for _, color := range []Color{Red, Black} {
		assert.Equal(t, 1, kindCounts[color][General])
		assert.Equal(t, 2, kindCounts[color][Advisor])
		assert.Equal(t, 2, kindCounts[color][Elephant])
		assert.Equal(t, 2, kindCounts[color][Chariot])
		assert.Equal(t, 2, kindCounts[color][Horse])
		assert.Equal(t, 2, kindCounts[color][Cannon])
		assert.Equal(t, 5, kindCounts[color][Soldier])
	}
}

func TestPointValues(t *testing.T) {
	assert.Equal(t, 14, New(General, Red).Point)
	assert.Equal(t, 13, New(General, Black).Point)
	assert.Equal(t, 12, New(Advisor, Red).Point)
	assert.Equal(t, 11, New(Advisor, Black).Point)
	assert.Equal(t, 10, New(Elephant, Red).Point)
	assert.Equal(t, 9, New(Elephant, Black).Point)
	assert.Equal(t, 2, New(Soldier, Red).Point)
	assert.Equal(t, 1, New(Soldier, Black).Point)
}

func TestShuffleDeckDeterministic(t *testing.T) {
	a := ShuffleDeck(rand.New(rand.NewSource(42)), NewDeck())
	b := ShuffleDeck(rand.New(rand.NewSource(42)), NewDeck())
	assert.Equal(t, a, b)

	// Same pieces, shuffled order
	c := ShuffleDeck(rand.New(rand.NewSource(7)), NewDeck())
	assert.Len(t, c, 32)
	assert.NotEqual(t, NewDeck(), c)
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	deck := NewDeck()
	_ = ShuffleDeck(rand.New(rand.NewSource(1)), deck)
	assert.Equal(t, NewDeck(), deck)
}

func TestDealPieces(t *testing.T) {
	deck := NewDeck()

	hand, rest := DealPieces(deck, 8)
	assert.Len(t, hand, 8)
	assert.Len(t, rest, 24)
	assert.Equal(t, deck[:8], hand)

	// Dealing past the end returns what is left
	short, empty := DealPieces(rest[:3], 8)
	assert.Len(t, short, 3)
	assert.Empty(t, empty)
}

func TestPieceStringRoundTrip(t *testing.T) {
	p := New(Chariot, Black)
	assert.Equal(t, "CHARIOT_BLACK", p.String())

	back, err := FromString("CHARIOT_BLACK")
	assert.NoError(t, err)
	assert.Equal(t, p, back)

	_, err = FromString("DRAGON_GREEN")
	assert.Error(t, err)
}

func TestTotalPoints(t *testing.T) {
	hand := Pieces{New(General, Red), New(Soldier, Black), New(Horse, Red)}
	assert.Equal(t, 14+1+6, hand.TotalPoints())
	assert.Equal(t, 0, Pieces{}.TotalPoints())
}
