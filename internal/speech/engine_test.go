package speech

import (
	"testing"
	"time"
)

func TestEngineSpeaksAndClears(t *testing.T) {
	synth := NewMockSynth()
	e := NewEngine(synth, "en-US", nil)

	if err := e.Speak("hello there", Options{}); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	waitFor(t, func() bool { return len(synth.Spoken()) == 1 })
	waitFor(t, func() bool { return !e.Speaking() })

	got := synth.Spoken()
	if got[0] != "hello there" {
		t.Fatalf("spoken = %q", got[0])
	}
}

func TestEngineNewUtteranceCancelsPrior(t *testing.T) {
	synth := NewMockSynth()
	synth.Delay = 200 * time.Millisecond
	e := NewEngine(synth, "en-US", nil)

	if err := e.Speak("first", Options{}); err != nil {
		t.Fatalf("Speak first: %v", err)
	}
	if err := e.Speak("second", Options{}); err != nil {
		t.Fatalf("Speak second: %v", err)
	}
	waitFor(t, func() bool { return len(synth.Spoken()) == 1 })

	got := synth.Spoken()
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("spoken = %v, want only %q", got, "second")
	}
}

func TestEngineCancelStopsUtterance(t *testing.T) {
	synth := NewMockSynth()
	synth.Delay = 500 * time.Millisecond
	e := NewEngine(synth, "en-US", nil)

	if err := e.Speak("long sentence", Options{}); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	e.Cancel()
	if e.Speaking() {
		t.Fatal("Speaking() = true after Cancel")
	}
	time.Sleep(600 * time.Millisecond)
	if n := len(synth.Spoken()); n != 0 {
		t.Fatalf("spoken %d utterances after cancel", n)
	}
}

func TestEngineRejectsEmptyText(t *testing.T) {
	e := NewEngine(NewMockSynth(), "en-US", nil)
	if err := e.Speak("   ", Options{}); err != ErrEmptyText {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestEngineUnavailableWithoutSynth(t *testing.T) {
	e := NewEngine(nil, "en-US", nil)
	if e.Available() {
		t.Fatal("Available() = true with nil synth")
	}
	if err := e.Speak("hello", Options{}); err != ErrUnavailable {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestSelectVoicePrecedence(t *testing.T) {
	voices := []Voice{
		{Name: "British Male", Lang: "en-GB", Default: true},
		{Name: "US Female", Lang: "en-US"},
		{Name: "Spanish Female", Lang: "es-ES"},
	}

	if v := SelectVoice(voices, "Spanish Female", "en-US"); v.Name != "Spanish Female" {
		t.Fatalf("explicit name: got %q", v.Name)
	}
	if v := SelectVoice(voices, "", "en-US"); v.Name != "US Female" {
		t.Fatalf("female heuristic: got %q", v.Name)
	}
	if v := SelectVoice(voices, "", "fr-FR"); v.Name != "British Male" {
		t.Fatalf("fallback to default: got %q", v.Name)
	}
	if v := SelectVoice(nil, "", "en-US"); v.Name != "" {
		t.Fatalf("no voices: got %q", v.Name)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
