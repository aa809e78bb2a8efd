package record

import (
	"bytes"
	"fmt"
	"sync"
)

// RecState is the recorder lifecycle state. Transitions only move
// forward: not_started, recording, stopped, uploading, attached.
type RecState string

const (
	RecNotStarted RecState = "not_started"
	RecRecording  RecState = "recording"
	RecStopped    RecState = "stopped"
	RecUploading  RecState = "uploading"
	RecAttached   RecState = "attached"
)

// micHolder is the lease holder name used by the recorder.
const micHolder = "recorder"

// badTransitionError reports an attempted backward or skipped state change.
type badTransitionError struct {
	from, to RecState
}

func (e badTransitionError) Error() string {
	return fmt.Sprintf("record: cannot transition %s -> %s", e.from, e.to)
}

// Recorder accumulates one call's audio. It holds the microphone lease
// for the whole time it is recording.
type Recorder struct {
	lease *Lease

	mu          sync.Mutex
	state       RecState
	buf         bytes.Buffer
	contentType string
}

func NewRecorder(lease *Lease) *Recorder {
	return &Recorder{lease: lease, state: RecNotStarted}
}

func (r *Recorder) State() RecState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start claims the microphone and begins accumulating audio.
func (r *Recorder) Start(contentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecNotStarted {
		return badTransitionError{r.state, RecRecording}
	}
	if err := r.lease.Acquire(micHolder); err != nil {
		return err
	}
	r.state = RecRecording
	r.contentType = contentType
	return nil
}

// AppendChunk adds captured audio. Chunks arriving outside the recording
// window are rejected.
func (r *Recorder) AppendChunk(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecRecording {
		return badTransitionError{r.state, RecRecording}
	}
	_, err := r.buf.Write(p)
	return err
}

// Stop seals the recording and releases the microphone.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecRecording {
		return badTransitionError{r.state, RecStopped}
	}
	r.state = RecStopped
	r.lease.Release(micHolder)
	return nil
}

// MarkUploading records that the sealed audio is being shipped to the
// store.
func (r *Recorder) MarkUploading() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecStopped {
		return badTransitionError{r.state, RecUploading}
	}
	r.state = RecUploading
	return nil
}

// MarkAttached records that the upload finished and the recording path
// is attached to the call log.
func (r *Recorder) MarkAttached() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecUploading {
		return badTransitionError{r.state, RecAttached}
	}
	r.state = RecAttached
	return nil
}

// Bytes returns the sealed audio. Valid from stopped onward.
func (r *Recorder) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, r.buf.Len())
	copy(out, r.buf.Bytes())
	return out
}

// ContentType returns the MIME type given at Start.
func (r *Recorder) ContentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contentType
}
