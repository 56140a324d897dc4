package engine

import (
	"time"

	"liaptui/domain/actions"
)

// SystemSeat marks actions originated by the engine itself (safety
// auto-advance, shutdown) rather than a player or bot.
const SystemSeat = -1

// Action is a queued intent to mutate game state. Every inbound
// action carries an id for deduplication, the origin seat and the
// decoded payload; Arrival is stamped by the queue.
type Action struct {
	ID      string
	Seat    int
	Payload actions.Action
	Arrival uint64

	EnqueuedAt time.Time

	// Reply, when non-nil, receives the handling result exactly once.
	// Used by callers that need a synchronous answer (joins, tests).
	Reply chan Result
}

// Result is the outcome of handling a single action
type Result struct {
	OK     bool
	Reason string
	Seat   int // seat assigned by JOIN_ROOM
}

func (a *Action) reply(r Result) {
	if a.Reply == nil {
		return
	}
	select {
	case a.Reply <- r:
	default:
	}
}
