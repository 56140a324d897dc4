package events

import (
	"encoding/json"

	"github.com/decred/slog"

	"liaptui/domain/events"
	"liaptui/engine"
	"liaptui/server/connection"
)

// Broadcaster bridges a room's dispatcher to the websocket layer. It
// runs at priority 0 so clients observe every event before the bot
// coordinator reacts to it. Envelopes are marshaled once and fanned
// out as-is.
type Broadcaster struct {
	log  slog.Logger
	conn *connection.Registry
}

// NewBroadcaster creates a broadcaster over the connection registry
func NewBroadcaster(log slog.Logger, conn *connection.Registry) *Broadcaster {
	return &Broadcaster{log: log, conn: conn}
}

// Attach subscribes the broadcaster to a room
func (b *Broadcaster) Attach(room *engine.Room) {
	room.Dispatcher.Subscribe("broadcast", 0, nil, b.handle)
}

func (b *Broadcaster) handle(env *events.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		b.log.Errorf("marshal of %s seq=%d failed: %v", env.Event.Name(), env.Sequence, err)
		return
	}

	switch ev := env.Event.(type) {
	case events.HandDealt:
		// Hands are private: the owning seat gets the pieces, the rest
		// of the room gets a copy carrying only the count.
		b.conn.SendToSeat(env.RoomID, ev.Seat, payload, true)

		redacted := *env
		redacted.Event = events.HandDealt{
			RoomID:      ev.RoomID,
			Seat:        ev.Seat,
			PieceCount:  ev.PieceCount,
			RoundNumber: ev.RoundNumber,
		}
		counts, err := json.Marshal(&redacted)
		if err != nil {
			b.log.Errorf("marshal of redacted %s seq=%d failed: %v", env.Event.Name(), env.Sequence, err)
			return
		}
		b.conn.BroadcastExcept(env.RoomID, ev.Seat, counts, false)

	case events.ActionRejected:
		// Rejections go to the origin seat only; system-origin
		// rejections have no connection to inform.
		if ev.Seat >= 0 {
			b.conn.SendToSeat(env.RoomID, ev.Seat, payload, false)
		}

	case events.GameStarted:
		b.conn.MarkStarted(env.RoomID)
		b.conn.Broadcast(env.RoomID, payload, true)

	case events.PhaseChanged, events.TurnResolved, events.ScoringApplied,
		events.SeatReplaced, events.PlayerLeft, events.GameEnded:
		// State-bearing events a reconnecting client cannot infer are
		// held for dark seats across the grace window.
		b.conn.Broadcast(env.RoomID, payload, true)

	case events.RoomClosed:
		b.conn.Broadcast(env.RoomID, payload, true)
		b.conn.CloseRoom(env.RoomID)

	default:
		b.conn.Broadcast(env.RoomID, payload, false)
	}
}
