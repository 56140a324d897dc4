package pieces

import "fmt"

// Kind represents a piece kind from the Chinese-chess set
type Kind string

const (
	General  Kind = "GENERAL"
	Advisor  Kind = "ADVISOR"
	Elephant Kind = "ELEPHANT"
	Chariot  Kind = "CHARIOT"
	Horse    Kind = "HORSE"
	Cannon   Kind = "CANNON"
	Soldier  Kind = "SOLDIER"
)

// Color represents a piece color
type Color string

const (
	Red   Color = "RED"
	Black Color = "BLACK"
)

// Piece represents a single immutable game piece
type Piece struct {
	Kind  Kind  `json:"kind"`
	Color Color `json:"color"`
	Point int   `json:"point"`
}

// Pieces is an ordered sequence of pieces (a hand, a play, a deck)
type Pieces []Piece

// pointTable maps kind+color to the piece's point value. The point
// value determines both play strength and weak-hand detection.
var pointTable = map[Color]map[Kind]int{
	Red: {
		General:  14,
		Advisor:  12,
		Elephant: 10,
		Chariot:  8,
		Horse:    6,
		Cannon:   4,
		Soldier:  2,
	},
	Black: {
		General:  13,
		Advisor:  11,
		Elephant: 9,
		Chariot:  7,
		Horse:    5,
		Cannon:   3,
		Soldier:  1,
	},
}

// New creates a piece of the given kind and color with its fixed point value
func New(kind Kind, color Color) Piece {
	return Piece{Kind: kind, Color: color, Point: pointTable[color][kind]}
}

// String returns the string representation of a piece, e.g. "GENERAL_RED"
func (p Piece) String() string {
	return string(p.Kind) + "_" + string(p.Color)
}

// Equals checks whether two pieces are the same kind and color
func (p Piece) Equals(other Piece) bool {
	return p.Kind == other.Kind && p.Color == other.Color
}

// FromString creates a piece from its string representation
// e.g., "GENERAL_RED" -> Piece{Kind: General, Color: Red, Point: 14}
func FromString(s string) (Piece, error) {
	for color, kinds := range pointTable {
		for kind := range kinds {
			if s == string(kind)+"_"+string(color) {
				return New(kind, color), nil
			}
		}
	}
	return Piece{}, fmt.Errorf("invalid piece shorthand: %s", s)
}

// TotalPoints sums the point values of a sequence of pieces
func (ps Pieces) TotalPoints() int {
	total := 0
	for _, p := range ps {
		total += p.Point
	}
	return total
}

// Contains checks whether the sequence holds at least one equal piece
func (ps Pieces) Contains(piece Piece) bool {
	for _, p := range ps {
		if p.Equals(piece) {
			return true
		}
	}
	return false
}

// Clone returns a copy of the sequence
func (ps Pieces) Clone() Pieces {
	out := make(Pieces, len(ps))
	copy(out, ps)
	return out
}

// Strings renders the sequence as piece shorthands
func (ps Pieces) Strings() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
