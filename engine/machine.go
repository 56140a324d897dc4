package engine

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/sanity-io/litter"

	"liaptui/config"
	"liaptui/domain"
	"liaptui/domain/actions"
	"liaptui/domain/events"
)

// dedupWindow is how long a handled action id keeps returning its
// original result instead of being re-applied
const dedupWindow = 5 * time.Second

type dedupEntry struct {
	result Result
	at     time.Time
}

// Machine owns the authoritative GameState of one room and drives the
// phase states. All mutation happens on the room serializer: the run
// loop consuming the action queue. No action-handling path blocks on
// wall-clock time; pacing is client-side display metadata plus the
// safety deadline, which re-enters through the queue.
type Machine struct {
	cfg        config.Config
	log        slog.Logger
	room       *domain.Room
	queue      *ActionQueue
	dispatcher *Dispatcher
	rng        *rand.Rand

	state   *domain.GameState
	phases  map[domain.Phase]PhaseState
	current PhaseState

	seq       uint64
	causingID string
	dedup     map[string]dedupEntry
	snapshot  atomic.Pointer[domain.GameState]
	display   displayTimer

	onClose func(reason string)

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  atomic.Bool
}

// NewMachine creates the state machine for a room. The seed fixes the
// room's deal sequence for deterministic replay.
func NewMachine(cfg config.Config, log slog.Logger, room *domain.Room, queue *ActionQueue, dispatcher *Dispatcher, seed int64) *Machine {
	rng := rand.New(rand.NewSource(seed))

	m := &Machine{
		cfg:        cfg,
		log:        log,
		room:       room,
		queue:      queue,
		dispatcher: dispatcher,
		rng:        rng,
		dedup:      make(map[string]dedupEntry),
	}

	m.phases = map[domain.Phase]PhaseState{
		domain.PhasePreparation: &PreparationPhase{rng: rng},
		domain.PhaseDeclaration: &DeclarationPhase{},
		domain.PhaseTurn:        &TurnPhase{},
		domain.PhaseScoring:     &ScoringPhase{threshold: cfg.WinningScoreThreshold},
		domain.PhaseGameEnd:     &GameEndPhase{},
	}

	return m
}

// Room returns the room this machine drives
func (m *Machine) Room() *domain.Room {
	return m.room
}

// SetOnClose registers the callback invoked when the machine decides
// the room must close (host departure, fatal error).
func (m *Machine) SetOnClose(fn func(reason string)) {
	m.onClose = fn
}

// Start launches the run loop consuming the action queue
func (m *Machine) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run()
	}()
}

func (m *Machine) run() {
	for {
		act, ok := m.queue.Dequeue()
		if !ok {
			return
		}
		m.Dispatch(act)
	}
}

// Stop tears the machine down: intake closes, pending actions are
// rejected with a fatal error, the safety timer is canceled and a
// terminal RoomClosed event is emitted.
func (m *Machine) Stop(reason string) {
	m.stopOnce.Do(func() {
		m.stopped.Store(true)
		m.display.cancel()
		m.queue.Close()
		m.wg.Wait()

		for _, act := range m.queue.Drain() {
			m.emit(events.ActionRejected{
				RoomID:     m.room.ID,
				Seat:       act.Seat,
				ActionID:   act.ID,
				ActionName: act.Payload.Name(),
				Reason:     "room_closed",
			}, nil)
			act.reply(Result{OK: false, Reason: "room_closed"})
		}

		m.emit(events.RoomClosed{RoomID: m.room.ID, Reason: reason}, nil)
	})
}

// Snapshot returns the most recently committed state clone. Bots and
// other off-serializer readers observe state only through this.
func (m *Machine) Snapshot() *domain.GameState {
	return m.snapshot.Load()
}

// Dispatch handles a single action end to end: dedup, validation,
// staged mutation, commit, synchronous transition and event fan-out.
// It runs on the room serializer; tests may call it directly.
func (m *Machine) Dispatch(act *Action) Result {
	res := m.handle(act)
	act.reply(res)
	if m.state != nil {
		m.snapshot.Store(m.state.Clone())
		if m.state.AwaitingDisplay == "" {
			m.display.cancel()
		}
	}
	return res
}

func (m *Machine) handle(act *Action) Result {
	if act.ID != "" {
		if entry, seen := m.dedup[act.ID]; seen && time.Since(entry.at) < dedupWindow {
			return entry.result
		}
	}

	res := m.process(act)

	if act.ID != "" {
		m.pruneDedup()
		m.dedup[act.ID] = dedupEntry{result: res, at: time.Now()}
	}
	return res
}

func (m *Machine) process(act *Action) Result {
	m.causingID = act.ID
	defer func() { m.causingID = "" }()

	switch payload := act.Payload.(type) {
	case actions.JoinRoom:
		return m.handleJoin(act, payload)
	case actions.Leave:
		return m.handleLeave(act)
	case actions.HostReplaceSeat:
		return m.handleHostReplace(act, payload)
	case actions.StartGame:
		return m.handleStartGame(act)
	}

	if m.state == nil {
		return m.rejectAction(act, "game_not_started")
	}

	// A stale safety advance is dropped silently: the display it was
	// armed for has already been advanced or superseded.
	if adv, isAdvance := act.Payload.(actions.AdvanceDisplay); isAdvance && act.Seat == SystemSeat {
		if m.state.AwaitingDisplay == "" || adv.Generation != m.state.DisplayGeneration {
			return Result{OK: true}
		}
	}

	if !m.current.AllowedActions()[act.Payload.Name()] {
		return m.rejectAction(act, "wrong_phase")
	}

	staged := m.state.Clone()
	evs, rejection := m.current.Handle(act, staged)
	if rejection != nil {
		return m.rejectAction(act, rejection.Reason)
	}

	if err := staged.CheckInvariants(); err != nil {
		m.log.Errorf("invariant violation handling %s from seat %d: %v", act.Payload.Name(), act.Seat, err)
		m.log.Debugf("discarded staged state: %s", litter.Sdump(staged))
		m.emit(events.InternalError{RoomID: m.room.ID, Detail: err.Error()}, nil)
		return Result{OK: false, Reason: "internal_error"}
	}

	m.state = staged

	for _, ev := range evs {
		m.emit(ev, m.displayFor(ev))
	}

	m.runTransitions()

	return Result{OK: true, Seat: act.Seat}
}

// runTransitions performs pending phase transitions synchronously.
// Exit and enter hooks run before any subscriber observes the
// PhaseChanged event; entering a phase may immediately chain into the
// next one (e.g. Preparation with no weak hands).
func (m *Machine) runTransitions() {
	for {
		next, ok := m.current.NextPhase(m.state)
		if !ok {
			break
		}

		previous := m.state.Phase
		m.current.OnExit(m.state)

		m.current = m.phases[next]
		m.state.Phase = next
		enterEvents := m.current.OnEnter(m.state)

		m.emit(events.PhaseChanged{
			RoomID:        m.room.ID,
			PreviousPhase: string(previous),
			NewPhase:      string(next),
		}, nil)

		for _, ev := range enterEvents {
			m.emit(ev, m.displayFor(ev))
		}
	}

	// Exit and enter hooks mutate the committed state directly; a
	// violation here cannot be rolled back, only surfaced.
	if err := m.state.CheckInvariants(); err != nil {
		m.log.Errorf("invariant violation after transition into %s: %v", m.state.Phase, err)
		m.log.Debugf("committed state: %s", litter.Sdump(m.state))
		m.emit(events.InternalError{RoomID: m.room.ID, Detail: err.Error()}, nil)
	}
}

// Pre-game and cross-phase control actions

func (m *Machine) handleJoin(act *Action, payload actions.JoinRoom) Result {
	if m.room.Started() {
		return m.rejectAction(act, "game_already_started")
	}

	seat, err := m.room.JoinPlayer(payload.PlayerID, payload.PlayerName)
	if err != nil {
		return m.rejectAction(act, err.Error())
	}

	m.emit(events.PlayerJoined{
		RoomID:     m.room.ID,
		Seat:       seat,
		PlayerID:   payload.PlayerID,
		PlayerName: payload.PlayerName,
	}, nil)

	return Result{OK: true, Seat: seat}
}

func (m *Machine) handleLeave(act *Action) Result {
	seat := act.Seat
	player := m.room.Seat(seat)
	if player == nil {
		return m.rejectAction(act, "invalid_seat")
	}

	if seat == m.room.HostSeat {
		// The host cannot be replaced by a bot; the room dissolves
		m.emit(events.PlayerLeft{RoomID: m.room.ID, Seat: seat, PlayerID: player.ID}, nil)
		if m.onClose != nil {
			m.onClose("host left")
		}
		return Result{OK: true}
	}

	bot, err := m.room.ReplaceSeatWithBot(seat)
	if err != nil {
		return m.rejectAction(act, err.Error())
	}

	if m.state != nil {
		// The departing seat keeps its in-round state; only the
		// occupant changes. The bot coordinator picks the seat up on
		// the events below.
		sp := m.state.Players[seat]
		sp.ID = bot.ID
		sp.Name = bot.Name
		sp.IsBot = true
	}

	m.emit(events.PlayerLeft{RoomID: m.room.ID, Seat: seat, PlayerID: player.ID, ReplacedByBot: true}, nil)
	m.emit(events.SeatReplaced{RoomID: m.room.ID, Seat: seat, BotName: bot.Name}, nil)

	return Result{OK: true}
}

func (m *Machine) handleHostReplace(act *Action, payload actions.HostReplaceSeat) Result {
	if m.room.Started() {
		return m.rejectAction(act, "game_already_started")
	}
	if act.Seat != m.room.HostSeat {
		return m.rejectAction(act, "not_host")
	}

	target := m.room.Seat(payload.Seat)
	if target == nil {
		return m.rejectAction(act, "invalid_seat")
	}
	removedID := target.ID

	bot, err := m.room.ReplaceSeatWithBot(payload.Seat)
	if err != nil {
		return m.rejectAction(act, err.Error())
	}

	if !target.IsBot {
		m.emit(events.PlayerLeft{RoomID: m.room.ID, Seat: payload.Seat, PlayerID: removedID, ReplacedByBot: true}, nil)
	}
	m.emit(events.SeatReplaced{RoomID: m.room.ID, Seat: payload.Seat, BotName: bot.Name}, nil)

	return Result{OK: true}
}

func (m *Machine) handleStartGame(act *Action) Result {
	if act.Seat != m.room.HostSeat {
		return m.rejectAction(act, "not_host")
	}
	if err := m.room.MarkStarted(); err != nil {
		return m.rejectAction(act, "game_already_started")
	}

	m.state = domain.NewGameState(m.room.ID, m.room.Seats())

	seats := m.room.Seats()
	names := make([]string, len(seats))
	for i, p := range seats {
		names[i] = p.Name
	}
	m.emit(events.GameStarted{RoomID: m.room.ID, RoundNumber: 1, Seats: names}, nil)

	m.current = m.phases[domain.PhasePreparation]
	m.state.Phase = domain.PhasePreparation
	enterEvents := m.current.OnEnter(m.state)

	m.emit(events.PhaseChanged{RoomID: m.room.ID, PreviousPhase: "", NewPhase: string(domain.PhasePreparation)}, nil)
	for _, ev := range enterEvents {
		m.emit(ev, m.displayFor(ev))
	}

	// No weak hands short-circuits straight into Declaration within
	// the same action handling.
	m.runTransitions()

	return Result{OK: true}
}

// Event emission

func (m *Machine) emit(ev events.Event, display *events.Display) {
	m.seq++

	phase := ""
	if m.state != nil {
		phase = string(m.state.Phase)
		m.state.LastEventSequence = m.seq
	}

	env := &events.Envelope{
		Sequence:        m.seq,
		Event:           ev,
		Phase:           phase,
		RoomID:          m.room.ID,
		Display:         display,
		CausingActionID: m.causingID,
		Timestamp:       time.Now(),
	}

	m.dispatcher.Dispatch(env)
}

func (m *Machine) rejectAction(act *Action, reason string) Result {
	m.emit(events.ActionRejected{
		RoomID:     m.room.ID,
		Seat:       act.Seat,
		ActionID:   act.ID,
		ActionName: act.Payload.Name(),
		Reason:     reason,
	}, nil)
	return Result{OK: false, Reason: reason}
}

// displayFor attaches pacing metadata to the two client-paced events
// and arms the server-side safety deadline when the phase is gated on
// a client advance.
func (m *Machine) displayFor(ev events.Event) *events.Display {
	switch ev.(type) {
	case events.TurnResolved:
		next := domain.PhaseTurn
		if m.state.RoundComplete {
			next = domain.PhaseScoring
		}
		if m.state.AwaitingDisplay == domain.DisplayTurnResults {
			m.armSafety(domain.DisplayTurnResults, m.cfg.TurnResultsDisplaySeconds)
		}
		return &events.Display{
			Type:           domain.DisplayTurnResults,
			ShowForSeconds: m.cfg.TurnResultsDisplaySeconds,
			AutoAdvance:    true,
			CanSkip:        true,
			NextPhase:      string(next),
		}

	case events.ScoringApplied:
		next := domain.PhasePreparation
		if m.state.WinnerSeat >= 0 {
			next = domain.PhaseGameEnd
		}
		if m.state.AwaitingDisplay == domain.DisplayScoringDisplay {
			m.armSafety(domain.DisplayScoringDisplay, m.cfg.ScoringDisplaySeconds)
		}
		return &events.Display{
			Type:           domain.DisplayScoringDisplay,
			ShowForSeconds: m.cfg.ScoringDisplaySeconds,
			AutoAdvance:    true,
			CanSkip:        true,
			NextPhase:      string(next),
		}
	}

	return nil
}

func (m *Machine) armSafety(of string, showForSeconds float64) {
	generation := m.state.DisplayGeneration
	delay := time.Duration(showForSeconds * m.cfg.DisplayServerSafetyMultiplier * float64(time.Second))

	m.display.arm(delay, func() {
		if m.stopped.Load() {
			return
		}
		err := m.queue.Enqueue(&Action{
			ID:   uuid.NewString(),
			Seat: SystemSeat,
			Payload: actions.AdvanceDisplay{
				Of:         of,
				Generation: generation,
			},
		})
		if err != nil {
			m.log.Warnf("safety advance for %s not enqueued: %v", of, err)
		}
	})
}

func (m *Machine) pruneDedup() {
	if len(m.dedup) < 128 {
		return
	}
	cutoff := time.Now().Add(-dedupWindow)
	for id, entry := range m.dedup {
		if entry.at.Before(cutoff) {
			delete(m.dedup, id)
		}
	}
}
