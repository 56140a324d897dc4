package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/decred/slog"

	"liaptui/config"
	"liaptui/domain"
)

// Room bundles one room's island: the domain room, its serializer
// queue, its dispatcher and its state machine. Rooms share no mutable
// state with each other.
type Room struct {
	Domain     *domain.Room
	Queue      *ActionQueue
	Dispatcher *Dispatcher
	Machine    *Machine

	mu      sync.Mutex
	closers []func()
}

// AddCloser registers extra teardown (bot coordinators, broadcast
// bindings) run when the room closes.
func (r *Room) AddCloser(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, fn)
}

func (r *Room) runClosers() {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	for _, fn := range closers {
		fn()
	}
}

// RoomWirer attaches subscribers (broadcaster, bots) to a fresh room
type RoomWirer func(*Room)

// Registry is the process-wide room directory: explicit create,
// lookup and close, tied to server lifecycle. No leaf component
// reaches rooms except through it.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	cfg    config.Config
	log    slog.Logger
	wirers []RoomWirer
}

// NewRegistry creates an empty room registry
func NewRegistry(cfg config.Config, log slog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		log:   log,
	}
}

// OnRoomCreated registers a wirer invoked for every created room,
// before its machine starts consuming actions.
func (r *Registry) OnRoomCreated(wirer RoomWirer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wirers = append(r.wirers, wirer)
}

// CreateRoom creates a room hosted by the given player, wires its
// subscribers and starts its machine. A seed of 0 seeds the room's
// deal sequence from the clock.
func (r *Registry) CreateRoom(name string, hostID string, hostName string, seed int64) (*Room, error) {
	if name == "" {
		return nil, errors.New("room name is required")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	dr := domain.NewRoom(name, hostID, hostName)
	queue := NewActionQueue(r.cfg.ActionQueueSoftCap)
	dispatcher := NewDispatcher(r.log)
	machine := NewMachine(r.cfg, r.log, dr, queue, dispatcher, seed)

	room := &Room{
		Domain:     dr,
		Queue:      queue,
		Dispatcher: dispatcher,
		Machine:    machine,
	}

	machine.SetOnClose(func(reason string) {
		go func() {
			if err := r.CloseRoom(dr.ID, reason); err != nil {
				r.log.Warnf("close of room %s failed: %v", dr.ID, err)
			}
		}()
	})

	r.mu.Lock()
	for _, wirer := range r.wirers {
		wirer(room)
	}
	r.rooms[dr.ID] = room
	r.mu.Unlock()

	machine.Start()
	r.log.Infof("room %s (%q) created, host %s, seed %d", dr.ID, name, hostID, seed)

	return room, nil
}

// GetRoom retrieves a room by ID
func (r *Registry) GetRoom(roomID string) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil, errors.New("room not found")
	}
	return room, nil
}

// Rooms returns all open rooms
func (r *Registry) Rooms() []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// CloseRoom tears a room down: subscribers detach, the queue drains
// with rejections and a RoomClosed event goes out last.
func (r *Registry) CloseRoom(roomID string, reason string) error {
	r.mu.Lock()
	room, exists := r.rooms[roomID]
	if exists {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()

	if !exists {
		return errors.New("room not found")
	}

	room.runClosers()
	room.Machine.Stop(reason)
	r.log.Infof("room %s closed: %s", roomID, reason)

	return nil
}

// CloseAll closes every room; used at process shutdown
func (r *Registry) CloseAll(reason string) {
	for _, room := range r.Rooms() {
		_ = r.CloseRoom(room.Domain.ID, reason)
	}
}
