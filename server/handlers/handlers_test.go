package handlers

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

func newTestRouter(t *testing.T) (*ActionRouter, *engine.Registry, *connection.Registry) {
	t.Helper()

	cfg := config.Default()
	rooms := engine.NewRegistry(cfg, slog.Disabled)
	conns := connection.NewRegistry(cfg, slog.Disabled)

	t.Cleanup(func() { rooms.CloseAll("test over") })

	return NewActionRouter(slog.Disabled, rooms, conns), rooms, conns
}

func newTestClient(conns *connection.Registry) *connection.Client {
	c := &connection.Client{ID: "c1", Send: make(chan []byte, 16), Seat: -1}
	conns.Add(c)
	return c
}

func receiveRejection(t *testing.T, c *connection.Client) events.RawEvent {
	t.Helper()

	select {
	case payload := <-c.Send:
		var env events.Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		raw, ok := env.Event.(events.RawEvent)
		require.True(t, ok)
		return raw
	case <-time.After(time.Second):
		t.Fatal("no message reached the client")
		return events.RawEvent{}
	}
}

func TestUnknownActionName(t *testing.T) {
	router, _, conns := newTestRouter(t)
	client := newTestClient(conns)

	err := router.HandleMessage(client, []byte(`{"name":"DO_A_FLIP"}`))
	assert.Error(t, err)
}

func TestJoinBindsConnectionToSeat(t *testing.T) {
	router, rooms, conns := newTestRouter(t)
	client := newTestClient(conns)

	room, err := rooms.CreateRoom("room", "host", "Host", 1)
	require.NoError(t, err)

	msg := []byte(`{"name":"JOIN_ROOM","room_id":"` + room.Domain.ID + `","player_id":"alice","player_name":"Alice"}`)
	require.NoError(t, router.HandleMessage(client, msg))

	assert.Equal(t, room.Domain.ID, client.RoomID)
	assert.Equal(t, 1, client.Seat)
	assert.Equal(t, "alice", client.PlayerID)
	assert.Equal(t, 1, room.Domain.SeatOf("alice"))
}

func TestJoinUnknownRoom(t *testing.T) {
	router, _, conns := newTestRouter(t)
	client := newTestClient(conns)

	msg := []byte(`{"name":"JOIN_ROOM","room_id":"missing","player_id":"alice"}`)
	require.NoError(t, router.HandleMessage(client, msg))

	raw := receiveRejection(t, client)
	assert.Equal(t, "ACTION_REJECTED", raw.Name())

	var rejected events.ActionRejected
	require.NoError(t, json.Unmarshal(raw.Payload, &rejected))
	assert.Equal(t, "room_not_found", rejected.Reason)
}

func TestSubmitRequiresBoundSeat(t *testing.T) {
	router, rooms, conns := newTestRouter(t)
	client := newTestClient(conns)

	room, err := rooms.CreateRoom("room", "host", "Host", 1)
	require.NoError(t, err)

	msg := []byte(`{"name":"DECLARE","room_id":"` + room.Domain.ID + `","value":2}`)
	require.NoError(t, router.HandleMessage(client, msg))

	raw := receiveRejection(t, client)
	var rejected events.ActionRejected
	require.NoError(t, json.Unmarshal(raw.Payload, &rejected))
	assert.Equal(t, "not_in_room", rejected.Reason)
}

func TestRejoinRebindsExistingSeat(t *testing.T) {
	router, rooms, conns := newTestRouter(t)

	room, err := rooms.CreateRoom("room", "host", "Host", 1)
	require.NoError(t, err)

	client := newTestClient(conns)
	msg := []byte(`{"name":"REJOIN_ROOM","room_id":"` + room.Domain.ID + `","player_id":"host"}`)
	require.NoError(t, router.HandleMessage(client, msg))

	assert.Equal(t, 0, client.Seat)
	assert.Equal(t, "host", client.PlayerID)
}

func TestRejoinUnknownPlayer(t *testing.T) {
	router, rooms, conns := newTestRouter(t)

	room, err := rooms.CreateRoom("room", "host", "Host", 1)
	require.NoError(t, err)

	client := newTestClient(conns)
	msg := []byte(`{"name":"REJOIN_ROOM","room_id":"` + room.Domain.ID + `","player_id":"stranger"}`)
	require.NoError(t, router.HandleMessage(client, msg))

	raw := receiveRejection(t, client)
	var rejected events.ActionRejected
	require.NoError(t, json.Unmarshal(raw.Payload, &rejected))
	assert.Equal(t, "not_in_room", rejected.Reason)
}

func TestWatchRoomBindsObserver(t *testing.T) {
	router, rooms, conns := newTestRouter(t)

	room, err := rooms.CreateRoom("room", "host", "Host", 1)
	require.NoError(t, err)

	client := newTestClient(conns)
	msg := []byte(`{"name":"WATCH_ROOM","room_id":"` + room.Domain.ID + `"}`)
	require.NoError(t, router.HandleMessage(client, msg))

	assert.Equal(t, room.Domain.ID, client.RoomID)
	assert.Equal(t, -1, client.Seat)
}
