package engine

import (
	"sort"
	"sync"

	"github.com/decred/slog"

	"liaptui/domain/events"
)

// Subscriber is a registered event consumer. Subscribers with lower
// priority values run first; Kinds of nil means every event kind.
type Subscriber struct {
	Name     string
	Priority int
	Kinds    map[string]bool
	Handler  events.EventHandler
}

// Dispatcher is the per-room synchronous pub-sub. Dispatch runs on
// the room serializer, so subscribers observe every event of an
// action handling before the next action is dequeued. A panicking
// subscriber is isolated: the event is retried once against it, then
// skipped; other subscribers are unaffected.
type Dispatcher struct {
	mu   sync.Mutex
	subs []Subscriber
	log  slog.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(log slog.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// Subscribe registers a handler for the given event kinds. An empty
// kinds list subscribes to everything.
func (d *Dispatcher) Subscribe(name string, priority int, kinds []string, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var kindSet map[string]bool
	if len(kinds) > 0 {
		kindSet = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			kindSet[k] = true
		}
	}

	d.subs = append(d.subs, Subscriber{
		Name:     name,
		Priority: priority,
		Kinds:    kindSet,
		Handler:  handler,
	})
	sort.SliceStable(d.subs, func(i, j int) bool {
		return d.subs[i].Priority < d.subs[j].Priority
	})
}

// Dispatch fans the envelope out to all matching subscribers in
// priority order.
func (d *Dispatcher) Dispatch(env *events.Envelope) {
	d.mu.Lock()
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	kind := env.Event.Name()
	for _, sub := range subs {
		if sub.Kinds != nil && !sub.Kinds[kind] {
			continue
		}
		if !d.invoke(sub, env) {
			// One retry per event; subscribers must tolerate seeing
			// the same envelope twice.
			if !d.invoke(sub, env) {
				d.log.Errorf("subscriber %s skipped event %s seq=%d after retry", sub.Name, kind, env.Sequence)
			}
		}
	}
}

func (d *Dispatcher) invoke(sub Subscriber, env *events.Envelope) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("subscriber %s panicked on %s: %v", sub.Name, env.Event.Name(), r)
			ok = false
		}
	}()
	sub.Handler(env)
	return true
}
