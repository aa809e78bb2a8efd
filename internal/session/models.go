// Package session owns the live call: its lifecycle, the transcript, and
// the arbitration between speech capture, speech output, the recorder,
// and the call log store.
package session

import (
	"errors"
	"time"

	"callassist/internal/capture"
	"callassist/internal/record"
)

// Status is the call lifecycle state.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Accessibility modes, fixed for the life of a call.
const (
	ModeDeaf = "deaf"
	ModeMute = "mute"
	ModeBoth = "both"
)

func validMode(m string) bool {
	return m == ModeDeaf || m == ModeMute || m == ModeBoth
}

// Senders and input methods for transcript messages.
const (
	SenderCaller = "caller"
	SenderUser   = "user"

	MethodText  = "text"
	MethodVoice = "voice"
)

// Greeting opens every call transcript, attributed to the caller.
const Greeting = "Hello, can you hear me?"

// Message is one transcript line. Method is set for user messages only;
// the caller channel is always speech to text.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Method    *string   `json:"method,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a point-in-time copy of the live call, safe to hand to
// transports and handlers.
type Snapshot struct {
	Status          Status          `json:"status"`
	CallID          string          `json:"callId,omitempty"`
	Mode            string          `json:"mode,omitempty"`
	Language        string          `json:"language,omitempty"`
	StartedAt       time.Time       `json:"startedAt"`
	EndedAt         *time.Time      `json:"endedAt,omitempty"`
	DurationSeconds int             `json:"durationSeconds"`
	VoiceResponse   bool            `json:"voiceResponse"`
	RecordingState  record.RecState `json:"recordingState,omitempty"`
	Transcript      []Message       `json:"transcript"`
	Capture         capture.State   `json:"capture"`
	Speaking        bool            `json:"speaking"`
}

// Capabilities reports the device probes made at construction.
type Capabilities struct {
	Recognizer bool `json:"recognizer"`
	Speech     bool `json:"speech"`
	Microphone bool `json:"microphone"`
}

var (
	ErrCallActive   = errors.New("session: a call is already active")
	ErrNoActiveCall = errors.New("session: no active call")
	ErrInvalidMode  = errors.New("session: invalid accessibility mode")
	ErrVoiceModeOff = errors.New("session: voice response mode is not engaged")
)
