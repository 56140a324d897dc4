package domain

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// NumSeats is the fixed number of seats in every room
const NumSeats = 4

// Room holds four seats, a host and the started flag. Seat membership
// changes before the game starts (joins, host kicks); once started,
// seats only change when a departing human is replaced by a bot.
type Room struct {
	ID       string
	Name     string
	HostSeat int

	mu      sync.RWMutex
	seats   [NumSeats]*Player
	started bool
}

// NewRoom creates a room hosted by the given player at seat 0, with
// bots filling the remaining seats.
func NewRoom(name string, hostID string, hostName string) *Room {
	room := &Room{
		ID:       uuid.NewString(),
		Name:     name,
		HostSeat: 0,
	}

	room.seats[0] = NewPlayer(hostID, hostName, 0)
	for seat := 1; seat < NumSeats; seat++ {
		room.seats[seat] = NewBot(seat)
	}

	return room
}

// Started reports whether the game has begun
func (r *Room) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started
}

// MarkStarted flips the started flag. It fails if already started.
func (r *Room) MarkStarted() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("game already started")
	}
	r.started = true
	return nil
}

// Seat returns the player at the given seat index
func (r *Room) Seat(seat int) *Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if seat < 0 || seat >= NumSeats {
		return nil
	}
	return r.seats[seat]
}

// Seats returns a snapshot of all four seats
func (r *Room) Seats() [NumSeats]*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seats
}

// SeatOf returns the seat index of a player ID, or -1
func (r *Room) SeatOf(playerID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for seat, p := range r.seats {
		if p != nil && p.ID == playerID {
			return seat
		}
	}
	return -1
}

// JoinPlayer replaces the first bot seat with a human player. Joining
// is only possible before the game starts.
func (r *Room) JoinPlayer(playerID string, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return -1, errors.New("game already started")
	}

	for _, p := range r.seats {
		if p != nil && p.ID == playerID {
			return -1, errors.New("player already seated")
		}
	}

	for seat, p := range r.seats {
		if p != nil && p.IsBot {
			r.seats[seat] = NewPlayer(playerID, name, seat)
			return seat, nil
		}
	}

	return -1, errors.New("room is full")
}

// ReplaceSeatWithBot converts a seat to a bot, preserving the seat's
// accumulated score when the game is running.
func (r *Room) ReplaceSeatWithBot(seat int) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seat < 0 || seat >= NumSeats {
		return nil, errors.New("invalid seat")
	}
	if seat == r.HostSeat {
		return nil, errors.New("cannot replace the host seat")
	}

	bot := NewBot(seat)
	if prev := r.seats[seat]; prev != nil {
		bot.Score = prev.Score
		bot.Hand = prev.Hand
		bot.DeclaredPiles = prev.DeclaredPiles
		bot.CapturedPiles = prev.CapturedPiles
		bot.ZeroStreak = prev.ZeroStreak
	}
	r.seats[seat] = bot

	return bot, nil
}
