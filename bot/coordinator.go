package bot

import (
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"liaptui/config"
	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
	"liaptui/engine"
)

// Coordinator drives the bot seats of one room. It subscribes to the
// room's dispatcher after the broadcaster, schedules at most one
// pending decision per seat with a randomized humanlike delay, and
// submits the decision through the action queue like any client.
// Phase changes invalidate everything scheduled before them.
type Coordinator struct {
	cfg      config.Config
	log      slog.Logger
	room     *engine.Room
	strategy Strategy

	mu      sync.Mutex
	rng     *rand.Rand
	epoch   int
	pending map[int]*time.Timer
	stopped bool
}

// Attach creates a coordinator for the room and wires it to the
// dispatcher and room teardown.
func Attach(cfg config.Config, log slog.Logger, room *engine.Room, strategy Strategy, seed int64) *Coordinator {
	if strategy == nil {
		strategy = Heuristic{}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	c := &Coordinator{
		cfg:      cfg,
		log:      log,
		room:     room,
		strategy: strategy,
		rng:      rand.New(rand.NewSource(seed)),
		pending:  make(map[int]*time.Timer),
	}

	room.Dispatcher.Subscribe("bots", 10, nil, c.onEvent)
	room.AddCloser(c.Stop)

	return c
}

// Stop cancels every pending decision and refuses new ones
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.cancelAllLocked()
}

func (c *Coordinator) onEvent(env *events.Envelope) {
	switch ev := env.Event.(type) {
	case events.PhaseChanged:
		// Decisions queued for the previous phase are moot
		c.invalidate()
		c.scheduleAll()

	case events.RedealOffered:
		c.schedule(ev.Seat)

	case events.RedealRequested, events.RedealAccepted, events.RedealDeclined:
		c.scheduleAll()

	case events.Declared:
		if ev.NextDeclarer >= 0 {
			c.schedule(ev.NextDeclarer)
		}

	case events.TurnStarted:
		c.schedule(ev.StarterSeat)

	case events.Played:
		if ev.NextSeat >= 0 {
			c.schedule(ev.NextSeat)
		}

	case events.SeatReplaced:
		// A freshly botted seat may already be on the clock
		c.schedule(ev.Seat)

	case events.RoomClosed:
		c.Stop()
	}
}

// invalidate bumps the epoch and cancels all pending decisions
func (c *Coordinator) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.cancelAllLocked()
}

func (c *Coordinator) cancelAllLocked() {
	for seat, timer := range c.pending {
		timer.Stop()
		delete(c.pending, seat)
	}
}

// scheduleAll schedules a decision check for every seat. Seats that
// turn out not to be acting bots fall through harmlessly at fire time.
func (c *Coordinator) scheduleAll() {
	for seat := 0; seat < domain.NumSeats; seat++ {
		c.schedule(seat)
	}
}

func (c *Coordinator) schedule(seat int) {
	if seat < 0 || seat >= domain.NumSeats {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if _, exists := c.pending[seat]; exists {
		return
	}

	epoch := c.epoch
	delay := c.decisionDelayLocked()
	c.pending[seat] = time.AfterFunc(delay, func() {
		c.fire(seat, epoch)
	})
}

func (c *Coordinator) decisionDelayLocked() time.Duration {
	min := c.cfg.BotDecisionDelayMinMs
	max := c.cfg.BotDecisionDelayMaxMs
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min+c.rng.Intn(max-min)) * time.Millisecond
}

// fire runs on the timer goroutine. The epoch check under the mutex
// guarantees a decision invalidated by a phase change is never
// submitted, even if its timer already popped.
func (c *Coordinator) fire(seat int, epoch int) {
	c.mu.Lock()
	if c.stopped || epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	delete(c.pending, seat)
	c.mu.Unlock()

	g := c.room.Machine.Snapshot()
	if g == nil {
		return
	}
	player := g.Players[seat]
	if player == nil || !player.IsBot {
		return
	}

	payload := c.decide(g, seat)
	if payload == nil {
		return
	}

	err := c.room.Queue.Enqueue(&engine.Action{
		ID:      uuid.NewString(),
		Seat:    seat,
		Payload: payload,
	})
	if err == engine.ErrQueueFull {
		// Backpressure; the next relevant event reschedules the seat
		c.log.Debugf("bot seat %d decision dropped: queue full", seat)
		c.schedule(seat)
	} else if err != nil {
		c.log.Debugf("bot seat %d decision dropped: %v", seat, err)
	}
}

// decide picks the seat's action for the snapshot, or nil when the
// seat has nothing to do. A panicking strategy falls back to the
// minimal legal move.
func (c *Coordinator) decide(g *domain.GameState, seat int) (payload actions.Action) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("bot strategy panicked for seat %d in %s: %v", seat, g.Phase, r)
			payload = c.fallback(g, seat)
		}
	}()

	switch g.Phase {
	case domain.PhasePreparation:
		if g.CurrentWeakOfferSeat != seat {
			return nil
		}
		if g.ConfirmingRedeal {
			if c.strategy.ConfirmRedeal(g, seat) {
				return actions.AcceptRedeal{}
			}
			return actions.DeclineRedeal{}
		}
		if c.strategy.RequestRedeal(g, seat) {
			return actions.RequestRedeal{}
		}
		return actions.DeclineRedeal{}

	case domain.PhaseDeclaration:
		if g.CurrentPlayerSeat != seat {
			return nil
		}
		return actions.Declare{Value: c.strategy.Declare(g, seat)}

	case domain.PhaseTurn:
		if g.AwaitingDisplay != "" || g.CurrentPlayerSeat != seat {
			return nil
		}
		return actions.PlayPieces{PieceIndices: c.strategy.ChoosePlay(g, seat)}
	}

	return nil
}

func (c *Coordinator) fallback(g *domain.GameState, seat int) actions.Action {
	switch g.Phase {
	case domain.PhasePreparation:
		return actions.DeclineRedeal{}
	case domain.PhaseDeclaration:
		return actions.Declare{Value: FallbackDeclaration(g, seat)}
	case domain.PhaseTurn:
		return actions.PlayPieces{PieceIndices: FallbackPlay(g, seat)}
	}
	return nil
}
