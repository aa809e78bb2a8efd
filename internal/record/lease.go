// Package record manages the call audio recorder and exclusive access to
// the microphone. The capture device can serve one consumer at a time, so
// both the recorder and the voice input path acquire a Lease before
// touching it.
package record

import (
	"errors"
	"sync"
)

var (
	// ErrMicBusy is returned when another holder owns the microphone.
	ErrMicBusy = errors.New("record: microphone is in use")
	// ErrMicUnavailable is returned when no capture device exists.
	ErrMicUnavailable = errors.New("record: microphone unavailable")
)

// Lease grants exclusive use of the microphone to one named holder.
type Lease struct {
	mu        sync.Mutex
	holder    string
	available bool
}

// NewLease creates a lease over the microphone. available reflects the
// capability probe made at startup.
func NewLease(available bool) *Lease {
	return &Lease{available: available}
}

// Available reports whether a capture device exists at all.
func (l *Lease) Available() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// Acquire claims the microphone for holder. Re-acquiring by the current
// holder succeeds.
func (l *Lease) Acquire(holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.available {
		return ErrMicUnavailable
	}
	if l.holder != "" && l.holder != holder {
		return ErrMicBusy
	}
	l.holder = holder
	return nil
}

// Release gives the microphone back. Only the current holder can release.
func (l *Lease) Release(holder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == holder {
		l.holder = ""
	}
}

// Holder returns the current holder name, empty when free.
func (l *Lease) Holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}
