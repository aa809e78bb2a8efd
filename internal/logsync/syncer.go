package logsync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const taskTimeout = 10 * time.Second

type task struct {
	name    string
	needsID bool
	// run returns a non-empty id when it created the call log.
	run func(ctx context.Context, callID string) (string, error)
}

// Syncer applies one call's store writes in order on a single worker so
// the live call never blocks on the store. Failures are logged and
// skipped; tasks that need a call id are dropped when creation failed.
type Syncer struct {
	client Client
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
	callID string

	tasks chan task
	done  chan struct{}
}

func NewSyncer(client Client, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	s := &Syncer{
		client: client,
		log:    log,
		tasks:  make(chan task, 64),
		done:   make(chan struct{}),
	}
	go s.worker()
	return s
}

// CallID returns the store id of the call, empty until creation lands.
func (s *Syncer) CallID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callID
}

// StartCall queues creation of the call log. Must be queued before any
// task that needs the call id.
func (s *Syncer) StartCall(userID int, mode, language string) {
	s.enqueue(task{
		name: "create call log",
		run: func(ctx context.Context, _ string) (string, error) {
			return s.client.CreateCallLog(ctx, userID, mode, language)
		},
	})
}

// Message queues one transcript line.
func (s *Syncer) Message(text, sender string, method *string) {
	s.enqueue(task{
		name:    "append message",
		needsID: true,
		run: func(ctx context.Context, callID string) (string, error) {
			return "", s.client.AppendMessage(ctx, callID, text, sender, method)
		},
	})
}

// EndCall queues the final end-time and duration patch.
func (s *Syncer) EndCall(end time.Time, duration int) {
	s.enqueue(task{
		name:    "end call log",
		needsID: true,
		run: func(ctx context.Context, callID string) (string, error) {
			return "", s.client.PatchCallLog(ctx, callID, CallPatch{EndTime: &end, Duration: &duration})
		},
	})
}

// AttachRecording queues the recording upload and the patch that links
// it to the call log. onUpload fires when the upload actually begins and
// onAttached once the patch lands; neither fires when the task is
// dropped because the call log was never created.
func (s *Syncer) AttachRecording(audio []byte, contentType string, onUpload, onAttached func()) {
	s.enqueue(task{
		name:    "attach recording",
		needsID: true,
		run: func(ctx context.Context, callID string) (string, error) {
			if onUpload != nil {
				onUpload()
			}
			path, err := s.client.UploadRecording(ctx, audio, contentType)
			if err != nil {
				return "", err
			}
			has := true
			if err := s.client.PatchCallLog(ctx, callID, CallPatch{HasRecording: &has, RecordingPath: &path}); err != nil {
				return "", err
			}
			if onAttached != nil {
				onAttached()
			}
			return "", nil
		},
	})
}

// Close stops accepting tasks and blocks until the queue drains.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.tasks)
	<-s.done
}

func (s *Syncer) enqueue(t task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Warn("sync task after close dropped", "task", t.name)
		return
	}
	select {
	case s.tasks <- t:
	default:
		s.log.Warn("sync queue full, task dropped", "task", t.name)
	}
}

func (s *Syncer) worker() {
	defer close(s.done)
	for t := range s.tasks {
		callID := s.CallID()
		if t.needsID && callID == "" {
			s.log.Warn("sync task dropped, call log was never created", "task", t.name)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		id, err := t.run(ctx, callID)
		cancel()
		if err != nil {
			s.log.Warn("call sync failed", "task", t.name, "err", err)
			continue
		}
		if id != "" {
			s.mu.Lock()
			s.callID = id
			s.mu.Unlock()
		}
	}
}
