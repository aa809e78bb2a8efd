package capture

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	wordRevealDelay = 300 * time.Millisecond
	phrasePause     = 2 * time.Second
)

// FallbackConfig overrides the simulation defaults; the zero value gives
// the standard cadence and a random phrase picker.
type FallbackConfig struct {
	WordDelay   time.Duration
	PhrasePause time.Duration
	// Pick selects a phrase index; tests inject a deterministic one.
	Pick func(n int) int
}

// Fallback is the simulated caption source used when no recognizer is
// reachable. It reveals a random phrase word by word at a steady cadence,
// finalizes it, pauses, and repeats until stopped.
type Fallback struct {
	log *slog.Logger

	pick       func(n int) int
	wordDelay  time.Duration
	pauseDelay time.Duration

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	results chan Result
}

func NewFallback(cfg FallbackConfig, log *slog.Logger) *Fallback {
	if log == nil {
		log = slog.Default()
	}
	if cfg.WordDelay == 0 {
		cfg.WordDelay = wordRevealDelay
	}
	if cfg.PhrasePause == 0 {
		cfg.PhrasePause = phrasePause
	}
	if cfg.Pick == nil {
		cfg.Pick = rand.Intn
	}
	return &Fallback{
		log:        log,
		pick:       cfg.Pick,
		wordDelay:  cfg.WordDelay,
		pauseDelay: cfg.PhrasePause,
		results:    make(chan Result, 32),
	}
}

func (f *Fallback) Available() bool { return true }

func (f *Fallback) Results() <-chan Result { return f.results }

func (f *Fallback) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Fallback) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.state.Listening = true
	f.state.Offline = true
	f.state.Err = ""
	go f.loop(ctx)
	return nil
}

func (f *Fallback) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.cancel = nil
	f.state.Listening = false
	f.state.Interim = ""
}

func (f *Fallback) ResetTranscript() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Transcript = ""
	f.state.Interim = ""
}

// SendAudio accepts and discards audio; the simulation has no use for it.
func (f *Fallback) SendAudio(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.Listening {
		return ErrNotListening
	}
	return nil
}

func (f *Fallback) loop(ctx context.Context) {
	for ctx.Err() == nil {
		phrase := CommonPhrases[f.pick(len(CommonPhrases))]
		words := strings.Fields(phrase)

		for i := range words {
			if !sleep(ctx, f.wordDelay) {
				return
			}
			partial := strings.Join(words[:i+1], " ")
			f.mu.Lock()
			f.state.Interim = partial
			f.mu.Unlock()
			f.emit(Result{Text: partial})
		}

		f.mu.Lock()
		if f.state.Transcript != "" {
			f.state.Transcript += " "
		}
		f.state.Transcript += phrase
		f.state.Interim = ""
		f.mu.Unlock()
		f.emit(Result{Text: phrase, Final: true})

		if !sleep(ctx, f.pauseDelay) {
			return
		}
	}
}

func (f *Fallback) emit(r Result) {
	select {
	case f.results <- r:
	default:
		f.log.Warn("caption result dropped, consumer too slow")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
