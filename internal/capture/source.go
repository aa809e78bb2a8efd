// Package capture turns the remote caller's audio into a rolling text
// transcript. The primary source streams audio to a realtime recognizer
// over a websocket; when no recognizer is reachable the fallback source
// produces simulated captions so the call screen stays usable.
package capture

import "errors"

// Result is one recognizer emission. Interim results revise each other;
// a final result is stable and safe to ingest into the call transcript.
// A result with Offline set carries no text: it signals that the source
// has permanently lost its backend and will produce nothing further.
type Result struct {
	Text    string `json:"text"`
	Final   bool   `json:"final"`
	Offline bool   `json:"offline,omitempty"`
}

// State is a point-in-time snapshot of a source.
type State struct {
	Transcript string `json:"transcript"`
	Interim    string `json:"interim"`
	Listening  bool   `json:"listening"`
	Offline    bool   `json:"offline"`
	Err        string `json:"error,omitempty"`
}

// ErrNotListening is returned by SendAudio when the source is stopped.
var ErrNotListening = errors.New("capture: source is not listening")

// Source produces caller-side transcript results.
//
// Start and Stop are idempotent. Results delivery stops after Stop;
// the channel itself stays open for the life of the source.
type Source interface {
	Start() error
	Stop()
	// ResetTranscript clears the accumulated transcript and interim text.
	ResetTranscript()
	// SendAudio feeds raw caller audio into the source. Sources that do
	// not consume audio accept and discard it.
	SendAudio(p []byte) error
	Results() <-chan Result
	State() State
	// Available reports whether this source can actually produce
	// recognition results right now.
	Available() bool
}

// CommonPhrases seed the simulated caption stream when no recognizer is
// reachable. They read like plausible things a caller would say.
var CommonPhrases = []string{
	"Hello, can you hear me?",
	"I need assistance please",
	"Could you repeat that?",
	"Thank you for your help",
	"Yes, I understand",
	"No, that's not correct",
	"I'll call you back later",
	"Is this working properly?",
	"Can you speak more slowly?",
	"I'm having trouble hearing you",
}
