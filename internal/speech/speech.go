// Package speech renders outgoing text as audible speech for the hearing
// party on a call. Synth is the low-level synthesizer; Engine layers the
// at-most-one-utterance policy on top of it.
package speech

import (
	"context"
	"errors"
)

// Voice describes one installed synthesizer voice.
type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default"`
}

// Options tune a single utterance. Zero values mean "use the defaults"
// (rate 1.0, pitch 1.0, volume 1.0).
type Options struct {
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
	Voice  string  `json:"voice"`
}

func (o Options) withDefaults() Options {
	if o.Rate == 0 {
		o.Rate = 1.0
	}
	if o.Pitch == 0 {
		o.Pitch = 1.0
	}
	if o.Volume == 0 {
		o.Volume = 1.0
	}
	return o
}

var (
	// ErrUnavailable is returned when no synthesizer backend is wired.
	ErrUnavailable = errors.New("speech: synthesizer unavailable")
	// ErrEmptyText is returned for blank utterances.
	ErrEmptyText = errors.New("speech: empty text")
)

// Synth is a speech synthesizer backend. Speak blocks until the utterance
// finishes or ctx is cancelled.
type Synth interface {
	Voices() []Voice
	Speak(ctx context.Context, text string, voice Voice, opts Options) error
}
