package actions

// Action is the interface all inbound player intents implement. The
// transport layer decodes free-form JSON into these tagged variants
// before anything reaches the engine.
type Action interface {
	Name() string
}

type Declare struct {
	Value int `json:"value"`
}

func (d Declare) Name() string { return "DECLARE" }

type PlayPieces struct {
	PieceIndices []int `json:"piece_indices"`
}

func (p PlayPieces) Name() string { return "PLAY_PIECES" }

type RequestRedeal struct{}

func (r RequestRedeal) Name() string { return "REQUEST_REDEAL" }

type AcceptRedeal struct{}

func (a AcceptRedeal) Name() string { return "ACCEPT_REDEAL" }

type DeclineRedeal struct{}

func (d DeclineRedeal) Name() string { return "DECLINE_REDEAL" }

// AdvanceDisplay asks the engine to move past a client-paced visual.
// Generation is only set by the server-side safety deadline; a stale
// generation is dropped silently instead of rejected.
type AdvanceDisplay struct {
	Of         string `json:"of"`
	Generation int    `json:"-"`
}

func (a AdvanceDisplay) Name() string { return "ADVANCE_DISPLAY" }

type Leave struct{}

func (l Leave) Name() string { return "LEAVE" }

type HostReplaceSeat struct {
	Seat int `json:"seat"`
}

func (h HostReplaceSeat) Name() string { return "HOST_REPLACE_SEAT" }

type StartGame struct{}

func (s StartGame) Name() string { return "START_GAME" }

// JoinRoom routes room membership through the same serializer as game
// actions so membership events carry ordered sequence numbers.
type JoinRoom struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

func (j JoinRoom) Name() string { return "JOIN_ROOM" }

// Critical reports whether an action must survive queue backpressure.
// Control actions are never dropped; gameplay actions may be rejected
// with a transient error when the queue is saturated.
func Critical(a Action) bool {
	switch a.(type) {
	case Leave, HostReplaceSeat, AdvanceDisplay:
		return true
	default:
		return false
	}
}
