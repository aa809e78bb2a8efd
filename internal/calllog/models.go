package calllog

import "time"

// CallLog is the permanent record of one assisted call session.
//
// Invariants:
// - StartTime is set by the server at creation; EndTime/Duration stay null
//   until the session ends.
// - Updates may only touch end/duration/recording fields; identity fields are
//   immutable after creation.
//
// JSON field names follow the public API contract (camelCase).
type CallLog struct {
	ID     string `json:"id" db:"id"`
	UserID int    `json:"userId" db:"user_id"`

	StartTime time.Time  `json:"startTime" db:"start_time"`
	EndTime   *time.Time `json:"endTime" db:"end_time"`

	// Duration is the call duration in seconds; null until the call ends.
	Duration *int `json:"duration" db:"duration"`

	Mode     Mode   `json:"mode" db:"mode"`
	Language string `json:"language" db:"language"`

	HasRecording  bool    `json:"hasRecording" db:"has_recording"`
	RecordingPath *string `json:"recordingPath" db:"recording_path"`
}

// Mode is the accessibility mode a call was started in.
type Mode string

const (
	ModeDeaf Mode = "deaf"
	ModeMute Mode = "mute"
	ModeBoth Mode = "both"
)

// ValidMode reports whether m is a known accessibility mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeDeaf, ModeMute, ModeBoth:
		return true
	default:
		return false
	}
}

// CallMessage is one transcript entry of a call.
//
// Messages are append-only: no update or delete is offered.
type CallMessage struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"callId" db:"call_id"`
	Text   string `json:"text" db:"text"`

	// Sender is "caller" or "user".
	Sender Sender `json:"sender" db:"sender"`

	// Method is "text" or "voice" for user messages; null for caller messages
	// (the caller channel is always speech-to-text).
	Method *Method `json:"method" db:"method"`

	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type Sender string

const (
	SenderCaller Sender = "caller"
	SenderUser   Sender = "user"
)

type Method string

const (
	MethodText  Method = "text"
	MethodVoice Method = "voice"
)

// CallLogUpdate is the patchable subset of CallLog. Nil fields are untouched.
type CallLogUpdate struct {
	EndTime       *time.Time `json:"endTime"`
	Duration      *int       `json:"duration"`
	HasRecording  *bool      `json:"hasRecording"`
	RecordingPath *string    `json:"recordingPath"`
}
