package record

import (
	"errors"
	"testing"
)

func TestLeaseExclusivity(t *testing.T) {
	l := NewLease(true)
	if err := l.Acquire("recorder"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Acquire("voice-input"); !errors.Is(err, ErrMicBusy) {
		t.Fatalf("second holder err = %v, want ErrMicBusy", err)
	}
	// Re-acquire by the same holder is fine.
	if err := l.Acquire("recorder"); err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	// Only the holder can release.
	l.Release("voice-input")
	if l.Holder() != "recorder" {
		t.Fatalf("holder = %q after foreign release", l.Holder())
	}
	l.Release("recorder")
	if err := l.Acquire("voice-input"); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
}

func TestLeaseUnavailableMic(t *testing.T) {
	l := NewLease(false)
	if err := l.Acquire("recorder"); !errors.Is(err, ErrMicUnavailable) {
		t.Fatalf("err = %v, want ErrMicUnavailable", err)
	}
}

func TestRecorderLifecycle(t *testing.T) {
	lease := NewLease(true)
	r := NewRecorder(lease)

	if got := r.State(); got != RecNotStarted {
		t.Fatalf("initial state = %s", got)
	}
	if err := r.Start("audio/webm"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if lease.Holder() == "" {
		t.Fatal("recorder did not take the mic lease")
	}
	if err := r.AppendChunk([]byte("abc")); err != nil {
		t.Fatalf("AppendChunk: %v", err)
	}
	if err := r.AppendChunk([]byte("def")); err != nil {
		t.Fatalf("AppendChunk: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if lease.Holder() != "" {
		t.Fatal("mic lease still held after Stop")
	}
	if got := string(r.Bytes()); got != "abcdef" {
		t.Fatalf("Bytes = %q", got)
	}
	if err := r.MarkUploading(); err != nil {
		t.Fatalf("MarkUploading: %v", err)
	}
	if err := r.MarkAttached(); err != nil {
		t.Fatalf("MarkAttached: %v", err)
	}
	if got := r.State(); got != RecAttached {
		t.Fatalf("final state = %s", got)
	}
}

func TestRecorderRejectsBackwardTransitions(t *testing.T) {
	r := NewRecorder(NewLease(true))
	if err := r.Stop(); err == nil {
		t.Fatal("Stop before Start succeeded")
	}
	if err := r.MarkAttached(); err == nil {
		t.Fatal("MarkAttached from not_started succeeded")
	}
	if err := r.Start("audio/webm"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start("audio/webm"); err == nil {
		t.Fatal("double Start succeeded")
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := r.AppendChunk([]byte("x")); err == nil {
		t.Fatal("AppendChunk after Stop succeeded")
	}
	if err := r.MarkUploading(); err != nil {
		t.Fatalf("MarkUploading: %v", err)
	}
	if err := r.MarkUploading(); err == nil {
		t.Fatal("double MarkUploading succeeded")
	}
}

func TestRecorderNeedsTheMic(t *testing.T) {
	lease := NewLease(true)
	if err := lease.Acquire("voice-input"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	r := NewRecorder(lease)
	if err := r.Start("audio/webm"); !errors.Is(err, ErrMicBusy) {
		t.Fatalf("Start with busy mic err = %v, want ErrMicBusy", err)
	}
	if got := r.State(); got != RecNotStarted {
		t.Fatalf("state = %s after failed Start", got)
	}
}
