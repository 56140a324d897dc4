package events

// EventHandler is a callback invoked with each dispatched envelope
type EventHandler func(*Envelope)

// Event is the interface that all game events implement
type Event interface {
	Name() string
}

// Room membership events

type PlayerJoined struct {
	RoomID     string `json:"room_id"`
	Seat       int    `json:"seat"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	IsBot      bool   `json:"is_bot"`
}

func (p PlayerJoined) Name() string { return "PLAYER_JOINED" }

type PlayerLeft struct {
	RoomID        string `json:"room_id"`
	Seat          int    `json:"seat"`
	PlayerID      string `json:"player_id"`
	ReplacedByBot bool   `json:"replaced_by_bot"`
}

func (p PlayerLeft) Name() string { return "PLAYER_LEFT" }

type SeatReplaced struct {
	RoomID  string `json:"room_id"`
	Seat    int    `json:"seat"`
	BotName string `json:"bot_name"`
}

func (s SeatReplaced) Name() string { return "SEAT_REPLACED" }

type GameStarted struct {
	RoomID      string   `json:"room_id"`
	RoundNumber int      `json:"round_number"`
	Seats       []string `json:"seats"`
}

func (g GameStarted) Name() string { return "GAME_STARTED" }

// Phase flow events

type PhaseChanged struct {
	RoomID        string `json:"room_id"`
	PreviousPhase string `json:"previous_phase"`
	NewPhase      string `json:"new_phase"`
}

func (p PhaseChanged) Name() string { return "PHASE_CHANGED" }

// HandDealt is private to its seat: only that seat's connection
// receives the pieces. The broadcaster fans a copy with the hand
// stripped to the rest of the room, so everybody learns the count.
type HandDealt struct {
	RoomID      string   `json:"room_id"`
	Seat        int      `json:"seat"`
	Hand        []string `json:"hand,omitempty"`
	PieceCount  int      `json:"piece_count"`
	RoundNumber int      `json:"round_number"`
}

func (h HandDealt) Name() string { return "HAND_DEALT" }

type RedealOffered struct {
	RoomID     string `json:"room_id"`
	Seat       int    `json:"seat"`
	Confirming bool   `json:"confirming"`
}

func (r RedealOffered) Name() string { return "REDEAL_OFFERED" }

type RedealRequested struct {
	RoomID string `json:"room_id"`
	Seat   int    `json:"seat"`
}

func (r RedealRequested) Name() string { return "REDEAL_REQUESTED" }

type RedealAccepted struct {
	RoomID     string `json:"room_id"`
	Seat       int    `json:"seat"`
	Multiplier int    `json:"multiplier"`
}

func (r RedealAccepted) Name() string { return "REDEAL_ACCEPTED" }

type RedealDeclined struct {
	RoomID string `json:"room_id"`
	Seat   int    `json:"seat"`
}

func (r RedealDeclined) Name() string { return "REDEAL_DECLINED" }

type Declared struct {
	RoomID       string      `json:"room_id"`
	Seat         int         `json:"seat"`
	Value        int         `json:"value"`
	Declarations map[int]int `json:"declarations"`
	NextDeclarer int         `json:"next_declarer"`
}

func (d Declared) Name() string { return "DECLARED" }

type TurnStarted struct {
	RoomID      string `json:"room_id"`
	TurnNumber  int    `json:"turn_number"`
	StarterSeat int    `json:"starter_seat"`
}

func (t TurnStarted) Name() string { return "TURN_STARTED" }

type Played struct {
	RoomID        string   `json:"room_id"`
	Seat          int      `json:"seat"`
	Pieces        []string `json:"pieces"`
	PlayType      string   `json:"play_type"`
	Valid         bool     `json:"valid"`
	RequiredCount int      `json:"required_count"`
	NextSeat      int      `json:"next_seat"`
}

func (p Played) Name() string { return "PLAYED" }

type TurnPlaySummary struct {
	Seat   int      `json:"seat"`
	Pieces []string `json:"pieces"`
	Valid  bool     `json:"valid"`
}

type TurnResolved struct {
	RoomID     string            `json:"room_id"`
	TurnNumber int               `json:"turn_number"`
	WinnerSeat int               `json:"winner_seat"`
	PilesWon   int               `json:"piles_won"`
	Plays      []TurnPlaySummary `json:"plays"`
}

func (t TurnResolved) Name() string { return "TURN_RESOLVED" }

type ScoringApplied struct {
	RoomID      string `json:"room_id"`
	RoundNumber int    `json:"round_number"`
	Multiplier  int    `json:"multiplier"`
	Deltas      [4]int `json:"deltas"`
	Totals      [4]int `json:"totals"`
}

func (s ScoringApplied) Name() string { return "SCORING_APPLIED" }

type GameEnded struct {
	RoomID     string `json:"room_id"`
	WinnerSeat int    `json:"winner_seat"`
	Totals     [4]int `json:"totals"`
	Rounds     int    `json:"rounds"`
}

func (g GameEnded) Name() string { return "GAME_ENDED" }

// Error events

// ActionRejected is sent to the origin seat only; other seats never
// observe a rejected action.
type ActionRejected struct {
	RoomID     string `json:"room_id"`
	Seat       int    `json:"seat"`
	ActionID   string `json:"action_id"`
	ActionName string `json:"action_name"`
	Reason     string `json:"reason"`
}

func (a ActionRejected) Name() string { return "ACTION_REJECTED" }

type InternalError struct {
	RoomID string `json:"room_id"`
	Detail string `json:"detail"`
}

func (i InternalError) Name() string { return "INTERNAL_ERROR" }

type RoomClosed struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

func (r RoomClosed) Name() string { return "ROOM_CLOSED" }
