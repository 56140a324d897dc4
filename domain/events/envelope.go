package events

import (
	"encoding/json"
	"time"
)

// Display is the pacing hint block attached only by the backend. The
// backend never sleeps for ShowForSeconds; clients own the pacing and
// the server only enforces a safety deadline.
type Display struct {
	Type           string  `json:"type"`
	ShowForSeconds float64 `json:"show_for_seconds"`
	AutoAdvance    bool    `json:"auto_advance"`
	CanSkip        bool    `json:"can_skip"`
	NextPhase      string  `json:"next_phase"`
}

// Envelope wraps an event with the room-monotonic sequence number and
// routing metadata. Every outbound event is wrapped exactly once.
type Envelope struct {
	Sequence        uint64
	Event           Event
	Phase           string
	RoomID          string
	Display         *Display
	CausingActionID string
	Timestamp       time.Time
}

// wireEnvelope is the JSON shape clients receive
type wireEnvelope struct {
	Sequence        uint64          `json:"sequence"`
	Name            string          `json:"name"`
	Phase           string          `json:"phase"`
	RoomID          string          `json:"room_id"`
	Payload         json.RawMessage `json:"payload"`
	Display         *Display        `json:"display,omitempty"`
	CausingActionID string          `json:"causing_action_id,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// MarshalJSON renders the envelope in the client wire format, with
// the event itself as the payload object.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{
		Sequence:        e.Sequence,
		Name:            e.Event.Name(),
		Phase:           e.Phase,
		RoomID:          e.RoomID,
		Payload:         payload,
		Display:         e.Display,
		CausingActionID: e.CausingActionID,
		Timestamp:       e.Timestamp,
	})
}

// UnmarshalJSON restores the wire format into an envelope with a raw
// payload event. Used by clients and round-trip tests.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.Sequence = wire.Sequence
	e.Phase = wire.Phase
	e.RoomID = wire.RoomID
	e.Display = wire.Display
	e.CausingActionID = wire.CausingActionID
	e.Timestamp = wire.Timestamp
	e.Event = RawEvent{EventName: wire.Name, Payload: wire.Payload}
	return nil
}

// RawEvent carries an undecoded payload for consumers that only need
// the event name and raw JSON.
type RawEvent struct {
	EventName string
	Payload   json.RawMessage
}

func (r RawEvent) Name() string { return r.EventName }
