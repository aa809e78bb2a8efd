package speech

import (
	"context"
	"sync"
	"time"
)

// MockSynth is an in-memory Synth for tests and for running the app
// without an audio device. Each Speak call sleeps for Delay per utterance
// (so cancellation paths are exercisable) and records what was spoken.
type MockSynth struct {
	VoiceList []Voice
	Delay     time.Duration
	Err       error

	mu     sync.Mutex
	spoken []string
}

func NewMockSynth() *MockSynth {
	return &MockSynth{
		VoiceList: []Voice{
			{Name: "Mock Female", Lang: "en-US"},
			{Name: "Mock Male", Lang: "en-US", Default: true},
		},
	}
}

func (m *MockSynth) Voices() []Voice { return m.VoiceList }

func (m *MockSynth) Speak(ctx context.Context, text string, voice Voice, opts Options) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	m.mu.Unlock()
	return nil
}

// Spoken returns the utterances completed so far.
func (m *MockSynth) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}
