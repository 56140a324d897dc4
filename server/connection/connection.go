package connection

import (
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"

	"liaptui/config"
)

// Client represents one websocket connection. A client starts as an
// observer (Seat -1) and binds to a room seat when its join or rejoin
// is accepted.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	RoomID   string
	Seat     int
	PlayerID string
}

// seatState tracks the delivery state of one seat in one room: its
// live connections, the critical payloads held while it has none, and
// the grace timer racing the player's reconnect.
type seatState struct {
	clients map[string]*Client
	pending [][]byte
	grace   *time.Timer
}

type roomState struct {
	seats     map[int]*seatState
	observers map[string]*Client
	replay    [][]byte
	started   bool
}

// Registry tracks which connection speaks for which seat and buffers
// critical payloads across disconnects. A seat whose player stays gone
// past the grace window is reported through OnGraceExpired, which the
// server wires to a leave action.
type Registry struct {
	cfg config.Config
	log slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]*roomState

	// OnGraceExpired is invoked off the registry lock when a seat's
	// reconnect window lapses.
	OnGraceExpired func(roomID string, seat int)
}

// NewRegistry creates an empty connection registry
func NewRegistry(cfg config.Config, log slog.Logger) *Registry {
	return &Registry{
		cfg:     cfg,
		log:     log,
		clients: make(map[string]*Client),
		rooms:   make(map[string]*roomState),
	}
}

// Add registers a fresh, unbound connection
func (r *Registry) Add(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client.Seat = -1
	r.clients[client.ID] = client
}

// Remove drops a connection. If it was the seat's last live
// connection, the seat's grace timer starts.
func (r *Registry) Remove(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client.ID]; !ok {
		return
	}
	delete(r.clients, client.ID)
	close(client.Send)

	room, ok := r.rooms[client.RoomID]
	if !ok {
		return
	}
	delete(room.observers, client.ID)

	if client.Seat < 0 {
		return
	}
	seat, ok := room.seats[client.Seat]
	if !ok {
		return
	}
	delete(seat.clients, client.ID)

	if len(seat.clients) == 0 {
		r.startGraceLocked(client.RoomID, client.Seat, room, seat)
	}
}

// Bind attaches a connection to a room seat. Payloads held while the
// seat was dark drain to the new connection in order, preceded by the
// replay window when resync is enabled. A seat of -1 binds an observer.
func (r *Registry) Bind(client *Client, roomID string, seat int, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client.RoomID = roomID
	client.Seat = seat
	client.PlayerID = playerID

	room := r.roomLocked(roomID)
	if seat < 0 {
		room.observers[client.ID] = client
		for _, payload := range room.replay {
			r.offer(client, payload)
		}
		return
	}

	ss := r.seatLocked(room, seat)
	if ss.grace != nil {
		ss.grace.Stop()
		ss.grace = nil
	}
	ss.clients[client.ID] = client

	// Broadcasts held while the seat was dark also sit in the replay
	// window; replayed payloads are skipped on the pending drain so the
	// client sees each one once.
	replayed := make(map[*byte]bool, len(room.replay))
	for _, payload := range room.replay {
		if len(payload) > 0 {
			replayed[&payload[0]] = true
		}
		r.offer(client, payload)
	}
	for _, payload := range ss.pending {
		if len(payload) > 0 && replayed[&payload[0]] {
			continue
		}
		r.offer(client, payload)
	}
	ss.pending = nil
}

// SendToSeat delivers a payload to every live connection of a seat.
// Critical payloads sent to a dark seat are held until the seat
// rebinds or its grace lapses.
func (r *Registry) SendToSeat(roomID string, seat int, payload []byte, critical bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		if !critical {
			return
		}
		room = r.roomLocked(roomID)
	}

	ss := r.seatLocked(room, seat)
	if len(ss.clients) == 0 {
		if critical {
			ss.pending = append(ss.pending, payload)
		}
		return
	}

	for _, client := range ss.clients {
		r.offer(client, payload)
	}
}

// Broadcast delivers a payload to every connection in the room.
// Critical payloads are additionally held for dark seats, and every
// broadcast feeds the replay window when resync is enabled.
func (r *Registry) Broadcast(roomID string, payload []byte, critical bool) {
	r.broadcast(roomID, payload, critical, -1)
}

// BroadcastExcept delivers a payload to every connection in the room
// except the named seat, which received its own version directly.
func (r *Registry) BroadcastExcept(roomID string, exceptSeat int, payload []byte, critical bool) {
	r.broadcast(roomID, payload, critical, exceptSeat)
}

func (r *Registry) broadcast(roomID string, payload []byte, critical bool, exceptSeat int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.roomLocked(roomID)

	if n := r.cfg.ReplayLastNEvents; n > 0 {
		room.replay = append(room.replay, payload)
		if len(room.replay) > n {
			room.replay = room.replay[len(room.replay)-n:]
		}
	}

	for seat, ss := range room.seats {
		if seat == exceptSeat {
			continue
		}
		if len(ss.clients) == 0 {
			if critical {
				ss.pending = append(ss.pending, payload)
			}
			continue
		}
		for _, client := range ss.clients {
			r.offer(client, payload)
		}
	}
	for _, client := range room.observers {
		r.offer(client, payload)
	}
}

// MarkStarted switches the room's grace window from the short lobby
// window to the long in-game one.
func (r *Registry) MarkStarted(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomLocked(roomID).started = true
}

// CloseRoom forgets a room and detaches its connections. The sockets
// stay open; clients observe the closure through the last broadcast.
func (r *Registry) CloseRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(r.rooms, roomID)

	for _, ss := range room.seats {
		if ss.grace != nil {
			ss.grace.Stop()
		}
		for _, client := range ss.clients {
			client.RoomID = ""
			client.Seat = -1
		}
	}
	for _, client := range room.observers {
		client.RoomID = ""
	}
}

func (r *Registry) roomLocked(roomID string) *roomState {
	room, ok := r.rooms[roomID]
	if !ok {
		room = &roomState{
			seats:     make(map[int]*seatState),
			observers: make(map[string]*Client),
		}
		r.rooms[roomID] = room
	}
	return room
}

func (r *Registry) seatLocked(room *roomState, seat int) *seatState {
	ss, ok := room.seats[seat]
	if !ok {
		ss = &seatState{clients: make(map[string]*Client)}
		room.seats[seat] = ss
	}
	return ss
}

// offer writes without blocking; a connection that cannot keep up
// loses the payload rather than stalling the serializer.
func (r *Registry) offer(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		r.log.Warnf("client %s send buffer full, dropping payload", client.ID)
	}
}

func (r *Registry) startGraceLocked(roomID string, seat int, room *roomState, ss *seatState) {
	graceMs := r.cfg.BroadcastGraceMsLobby
	if room.started {
		graceMs = r.cfg.BroadcastGraceMsGame
	}

	if ss.grace != nil {
		ss.grace.Stop()
	}
	ss.grace = time.AfterFunc(time.Duration(graceMs)*time.Millisecond, func() {
		r.graceExpired(roomID, seat)
	})
}

func (r *Registry) graceExpired(roomID string, seat int) {
	r.mu.Lock()
	room, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return
	}
	ss, ok := room.seats[seat]
	if !ok || len(ss.clients) > 0 {
		r.mu.Unlock()
		return
	}
	ss.pending = nil
	ss.grace = nil
	callback := r.OnGraceExpired
	r.mu.Unlock()

	r.log.Infof("seat %d in room %s did not reconnect within grace", seat, roomID)
	if callback != nil {
		callback(roomID, seat)
	}
}
