package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"liaptui/domain/actions"
	"liaptui/domain/events"
	"liaptui/engine"
	"liaptui/server/connection"
)

// joinReplyTimeout bounds how long a join waits for the room
// serializer before the client gets an error back.
const joinReplyTimeout = 2 * time.Second

// ActionRouter decodes inbound websocket messages and routes them to
// the right room's action queue. Join and rejoin are handled here
// because they bind the connection to a seat; everything else is
// submitted and answered through the event stream.
type ActionRouter struct {
	log   slog.Logger
	rooms *engine.Registry
	conn  *connection.Registry
}

// NewActionRouter creates a router over the room and connection registries
func NewActionRouter(log slog.Logger, rooms *engine.Registry, conn *connection.Registry) *ActionRouter {
	return &ActionRouter{log: log, rooms: rooms, conn: conn}
}

// HandleMessage processes one inbound message from a client
func (r *ActionRouter) HandleMessage(client *connection.Client, message []byte) error {
	var base struct {
		Name     string `json:"name"`
		ActionID string `json:"action_id"`
		RoomID   string `json:"room_id"`
	}
	if err := json.Unmarshal(message, &base); err != nil {
		return err
	}

	switch base.Name {
	case actions.JoinRoom{}.Name():
		var act actions.JoinRoom
		if err := json.Unmarshal(message, &act); err != nil {
			return err
		}
		return r.handleJoin(client, base.RoomID, base.ActionID, act)

	case "REJOIN_ROOM":
		var act struct {
			PlayerID string `json:"player_id"`
		}
		if err := json.Unmarshal(message, &act); err != nil {
			return err
		}
		return r.handleRejoin(client, base.RoomID, base.ActionID, act.PlayerID)

	case "WATCH_ROOM":
		if _, err := r.rooms.GetRoom(base.RoomID); err != nil {
			return r.sendRejection(client, base.RoomID, base.ActionID, base.Name, "room_not_found")
		}
		r.conn.Bind(client, base.RoomID, -1, "")
		return nil

	case actions.StartGame{}.Name():
		return r.submit(client, base.RoomID, base.ActionID, actions.StartGame{})

	case actions.Leave{}.Name():
		return r.submit(client, base.RoomID, base.ActionID, actions.Leave{})

	case actions.HostReplaceSeat{}.Name():
		var act actions.HostReplaceSeat
		if err := json.Unmarshal(message, &act); err != nil {
			return err
		}
		return r.submit(client, base.RoomID, base.ActionID, act)

	case actions.Declare{}.Name():
		var act actions.Declare
		if err := json.Unmarshal(message, &act); err != nil {
			return err
		}
		return r.submit(client, base.RoomID, base.ActionID, act)

	case actions.PlayPieces{}.Name():
		var act actions.PlayPieces
		if err := json.Unmarshal(message, &act); err != nil {
			return err
		}
		return r.submit(client, base.RoomID, base.ActionID, act)

	case actions.RequestRedeal{}.Name():
		return r.submit(client, base.RoomID, base.ActionID, actions.RequestRedeal{})

	case actions.AcceptRedeal{}.Name():
		return r.submit(client, base.RoomID, base.ActionID, actions.AcceptRedeal{})

	case actions.DeclineRedeal{}.Name():
		return r.submit(client, base.RoomID, base.ActionID, actions.DeclineRedeal{})

	case actions.AdvanceDisplay{}.Name():
		var act actions.AdvanceDisplay
		if err := json.Unmarshal(message, &act); err != nil {
			return err
		}
		return r.submit(client, base.RoomID, base.ActionID, act)

	default:
		return fmt.Errorf("unknown action type %q", base.Name)
	}
}

// handleJoin routes the join through the room serializer and binds the
// connection to the granted seat once the result comes back.
func (r *ActionRouter) handleJoin(client *connection.Client, roomID, actionID string, act actions.JoinRoom) error {
	room, err := r.rooms.GetRoom(roomID)
	if err != nil {
		return r.sendRejection(client, roomID, actionID, act.Name(), "room_not_found")
	}
	if act.PlayerID == "" {
		return r.sendRejection(client, roomID, actionID, act.Name(), "player_id_required")
	}

	reply := make(chan engine.Result, 1)
	err = room.Queue.Enqueue(&engine.Action{
		ID:      r.actionID(actionID),
		Seat:    -1,
		Payload: act,
		Reply:   reply,
	})
	if err != nil {
		return r.sendRejection(client, roomID, actionID, act.Name(), r.enqueueReason(err))
	}

	select {
	case res := <-reply:
		if !res.OK {
			// The engine already emitted the rejection to seat -1; the
			// join origin has no seat yet, so answer it directly.
			return r.sendRejection(client, roomID, actionID, act.Name(), res.Reason)
		}
		r.conn.Bind(client, roomID, res.Seat, act.PlayerID)
		return nil
	case <-time.After(joinReplyTimeout):
		return errors.New("join timed out waiting for the room")
	}
}

// handleRejoin rebinds a returning player's connection to the seat it
// still occupies. Pending payloads and the replay window drain on bind.
func (r *ActionRouter) handleRejoin(client *connection.Client, roomID, actionID, playerID string) error {
	room, err := r.rooms.GetRoom(roomID)
	if err != nil {
		return r.sendRejection(client, roomID, actionID, "REJOIN_ROOM", "room_not_found")
	}

	seat := room.Domain.SeatOf(playerID)
	if seat < 0 {
		return r.sendRejection(client, roomID, actionID, "REJOIN_ROOM", "not_in_room")
	}

	r.conn.Bind(client, roomID, seat, playerID)
	return nil
}

// submit enqueues a gameplay action for the client's bound seat
func (r *ActionRouter) submit(client *connection.Client, roomID, actionID string, payload actions.Action) error {
	if client.Seat < 0 || client.RoomID != roomID {
		return r.sendRejection(client, roomID, actionID, payload.Name(), "not_in_room")
	}

	room, err := r.rooms.GetRoom(roomID)
	if err != nil {
		return r.sendRejection(client, roomID, actionID, payload.Name(), "room_not_found")
	}

	err = room.Queue.Enqueue(&engine.Action{
		ID:      r.actionID(actionID),
		Seat:    client.Seat,
		Payload: payload,
	})
	if err != nil {
		return r.sendRejection(client, roomID, actionID, payload.Name(), r.enqueueReason(err))
	}
	return nil
}

func (r *ActionRouter) actionID(actionID string) string {
	if actionID == "" {
		return uuid.NewString()
	}
	return actionID
}

func (r *ActionRouter) enqueueReason(err error) string {
	if errors.Is(err, engine.ErrQueueFull) {
		return "queue_full"
	}
	return "room_closed"
}

// sendRejection answers the origin connection directly for errors that
// never reach the room serializer.
func (r *ActionRouter) sendRejection(client *connection.Client, roomID, actionID, actionName, reason string) error {
	env := &events.Envelope{
		Event: events.ActionRejected{
			RoomID:     roomID,
			Seat:       client.Seat,
			ActionID:   actionID,
			ActionName: actionName,
			Reason:     reason,
		},
		RoomID:    roomID,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case client.Send <- payload:
	default:
		r.log.Warnf("client %s send buffer full, dropping rejection", client.ID)
	}
	return nil
}
