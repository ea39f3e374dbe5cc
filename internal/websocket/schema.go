package websocket

import (
	"encoding/json"

	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/session"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer    Action = "answer"
	ActionDoubt     Action = "doubt"
	ActionNavigate  Action = "navigate"
	ActionViolation Action = "violation"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape; unused fields stay at
// their zero value depending on the action.
type RequestPayload struct {
	Action Action          `json:"action"`
	QID    string          `json:"q_id,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Index  int             `json:"index,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventSaved     Event = "saved"
	EventDoubt     Event = "doubt"
	EventNavigated Event = "navigated"
	EventTick      Event = "tick"
	EventWarning   Event = "warning"
	EventFinished  Event = "finished"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries the full session view, sent once after connect so a
// reloading client can resume where it left off.
type StateResponse struct {
	Event     Event                     `json:"event"`
	ExamID    string                    `json:"exam_id"`
	ExamTitle string                    `json:"exam_title"`
	Questions []session.StudentQuestion `json:"questions"`
	Snapshot  session.Snapshot          `json:"snapshot"`
}

// SavedResponse acknowledges a recorded answer.
type SavedResponse struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
}

// DoubtResponse acknowledges a doubt toggle with the new marker state.
type DoubtResponse struct {
	Event    Event  `json:"event"`
	QID      string `json:"q_id"`
	Doubtful bool   `json:"doubtful"`
}

// NavigatedResponse acknowledges a navigation.
type NavigatedResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

// TickEvent is pushed every second while the session runs.
type TickEvent struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

// WarningEvent is pushed after a recorded proctoring violation.
type WarningEvent struct {
	Event     Event  `json:"event"`
	Message   string `json:"message"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
}

// FinishedEvent is pushed exactly once when the session reaches its terminal
// state, whatever triggered it.
type FinishedEvent struct {
	Event          Event        `json:"event"`
	Reason         string       `json:"reason"`
	Score          int          `json:"score"`
	ViolationCount int          `json:"violation_count"`
	IsDisqualified bool         `json:"is_disqualified"`
	Result         model.Result `json:"result"`
}

// ErrorResponse reports a rejected action; the session stays usable.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongResponse answers a client keepalive ping.
type PongResponse struct {
	Event Event `json:"event"`
}
