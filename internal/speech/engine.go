package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Engine speaks at most one utterance at a time. Starting a new utterance
// cancels whatever is currently being spoken.
type Engine struct {
	synth Synth
	log   *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	speaking bool
	lang     string
}

// NewEngine wraps synth. A nil synth produces an engine that reports
// unavailable and rejects Speak; callers can probe with Available.
func NewEngine(synth Synth, lang string, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{synth: synth, lang: lang, log: log}
}

// Available reports whether a synthesizer backend is wired.
func (e *Engine) Available() bool {
	return e != nil && e.synth != nil
}

// Speaking reports whether an utterance is currently in flight.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speaking
}

// Speak queues text for synthesis, cancelling any in-flight utterance
// first. It returns once the utterance has been handed to the backend;
// playback completes asynchronously.
func (e *Engine) Speak(text string, opts Options) error {
	if !e.Available() {
		return ErrUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	opts = opts.withDefaults()
	voice := SelectVoice(e.synth.Voices(), opts.Voice, e.lang)

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.speaking = true
	e.mu.Unlock()

	go func() {
		err := e.synth.Speak(ctx, text, voice, opts)
		e.mu.Lock()
		// Only clear state if no newer utterance replaced this one.
		if e.cancel != nil && ctx.Err() == nil {
			e.cancel()
			e.cancel = nil
			e.speaking = false
		}
		e.mu.Unlock()
		if err != nil && ctx.Err() == nil {
			e.log.Warn("speech synthesis failed", "err", err)
		}
	}()
	return nil
}

// Cancel stops the in-flight utterance, if any.
func (e *Engine) Cancel() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.speaking = false
}
