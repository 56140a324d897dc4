package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liaptui/config"
	"liaptui/domain/events"
	"liaptui/engine"
	"liaptui/server/connection"
)

func newTestBroadcaster(t *testing.T) (*engine.Room, *connection.Registry) {
	t.Helper()

	conns := connection.NewRegistry(config.Default(), slog.Disabled)
	room := &engine.Room{Dispatcher: engine.NewDispatcher(slog.Disabled)}
	NewBroadcaster(slog.Disabled, conns).Attach(room)

	return room, conns
}

func boundClient(conns *connection.Registry, id, roomID string, seat int) *connection.Client {
	c := &connection.Client{ID: id, Send: make(chan []byte, 8), Seat: -1}
	conns.Add(c)
	conns.Bind(c, roomID, seat, id)
	return c
}

func receiveHand(t *testing.T, c *connection.Client) (uint64, events.HandDealt) {
	t.Helper()

	select {
	case payload := <-c.Send:
		var env events.Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		raw, ok := env.Event.(events.RawEvent)
		require.True(t, ok)
		require.Equal(t, "HAND_DEALT", raw.Name())

		var hd events.HandDealt
		require.NoError(t, json.Unmarshal(raw.Payload, &hd))
		return env.Sequence, hd
	case <-time.After(time.Second):
		t.Fatal("no payload reached the client")
		return 0, events.HandDealt{}
	}
}

func TestHandStaysPrivateToItsSeat(t *testing.T) {
	room, conns := newTestBroadcaster(t)

	owner := boundClient(conns, "owner", "room-1", 0)
	other := boundClient(conns, "other", "room-1", 1)
	watcher := boundClient(conns, "watcher", "room-1", -1)

	room.Dispatcher.Dispatch(&events.Envelope{
		Sequence: 5,
		Event: events.HandDealt{
			RoomID:      "room-1",
			Seat:        0,
			Hand:        []string{"GENERAL_RED", "SOLDIER_BLACK"},
			PieceCount:  2,
			RoundNumber: 1,
		},
		Phase:     "PREPARATION",
		RoomID:    "room-1",
		Timestamp: time.Now(),
	})

	seq, full := receiveHand(t, owner)
	assert.Equal(t, uint64(5), seq)
	assert.Equal(t, []string{"GENERAL_RED", "SOLDIER_BLACK"}, full.Hand)
	assert.Equal(t, 2, full.PieceCount)

	// Everybody else sees only how many pieces seat 0 holds
	for _, c := range []*connection.Client{other, watcher} {
		seq, redacted := receiveHand(t, c)
		assert.Equal(t, uint64(5), seq)
		assert.Empty(t, redacted.Hand)
		assert.Equal(t, 2, redacted.PieceCount)
		assert.Equal(t, 0, redacted.Seat)
	}

	// One payload each, nothing doubled up
	for _, c := range []*connection.Client{owner, other, watcher} {
		select {
		case extra := <-c.Send:
			t.Fatalf("client %s received a second payload: %s", c.ID, extra)
		default:
		}
	}
}

func TestRejectionsReachOnlyTheOriginSeat(t *testing.T) {
	room, conns := newTestBroadcaster(t)

	origin := boundClient(conns, "origin", "room-1", 2)
	other := boundClient(conns, "other", "room-1", 3)

	room.Dispatcher.Dispatch(&events.Envelope{
		Sequence:  9,
		Event:     events.ActionRejected{RoomID: "room-1", Seat: 2, Reason: "not_your_turn"},
		RoomID:    "room-1",
		Timestamp: time.Now(),
	})

	select {
	case <-origin.Send:
	case <-time.After(time.Second):
		t.Fatal("origin never received its rejection")
	}

	select {
	case <-other.Send:
		t.Fatal("rejection leaked to another seat")
	default:
	}
}
