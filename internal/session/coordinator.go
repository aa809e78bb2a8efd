package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"callassist/internal/capture"
	"callassist/internal/record"
	"callassist/internal/speech"

	"github.com/oklog/ulid/v2"
)

// recordingMIME is what the recorder produces for every call.
const recordingMIME = "audio/webm"

// SyncQueue ships call events to the store with best-effort delivery.
// *logsync.Syncer satisfies it.
type SyncQueue interface {
	StartCall(userID int, mode, language string)
	Message(text, sender string, method *string)
	EndCall(end time.Time, duration int)
	AttachRecording(audio []byte, contentType string, onUpload, onAttached func())
	CallID() string
	Close()
}

// Config wires the coordinator's collaborators.
type Config struct {
	UserID int

	// Recognizer is the primary capture source; Fallback takes over when
	// the recognizer cannot start.
	Recognizer capture.Source
	Fallback   capture.Source

	Speech *speech.Engine
	Mic    *record.Lease

	// NewSyncer builds the store sync queue for one call.
	NewSyncer func() SyncQueue

	// OnChange, when set, receives a snapshot after every state change.
	OnChange func(Snapshot)

	Clock        func() time.Time
	NewID        func() string
	TickInterval time.Duration
	Log          *slog.Logger
}

// call is the per-session state. All fields are guarded by the
// coordinator's mutex.
type call struct {
	mode     string
	language string
	status   Status

	startedAt time.Time
	endedAt   *time.Time
	duration  int

	transcript    []Message
	voiceResponse bool

	source   capture.Source
	recorder *record.Recorder
	sync     SyncQueue
	cancel   context.CancelFunc
}

// Coordinator is the single authority over the live call. At most one
// call is active at a time.
type Coordinator struct {
	cfg  Config
	caps Capabilities
	log  *slog.Logger

	mu  sync.Mutex
	cur *call
}

func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return ulid.Make().String() }
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Speech == nil {
		cfg.Speech = speech.NewEngine(nil, "", cfg.Log)
	}
	c := &Coordinator{
		cfg: cfg,
		log: cfg.Log,
		caps: Capabilities{
			Recognizer: cfg.Recognizer != nil && cfg.Recognizer.Available(),
			Speech:     cfg.Speech.Available(),
			Microphone: cfg.Mic != nil && cfg.Mic.Available(),
		},
	}
	return c
}

// Capabilities reports the device probes made at construction.
func (c *Coordinator) Capabilities() Capabilities { return c.caps }

// Snapshot returns a copy of the current call state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := c.cur
	if s == nil {
		return Snapshot{Status: StatusIdle, Transcript: []Message{}}
	}
	snap := Snapshot{
		Status:          s.status,
		CallID:          s.sync.CallID(),
		Mode:            s.mode,
		Language:        s.language,
		StartedAt:       s.startedAt,
		EndedAt:         s.endedAt,
		DurationSeconds: s.duration,
		VoiceResponse:   s.voiceResponse,
		RecordingState:  s.recorder.State(),
		Transcript:      make([]Message, len(s.transcript)),
		Capture:         s.source.State(),
		Speaking:        c.cfg.Speech.Speaking(),
	}
	copy(snap.Transcript, s.transcript)
	return snap
}

// StartCall opens a new call session. The store create, the capture
// start, and the recorder start are all best effort; the session becomes
// interactive immediately.
func (c *Coordinator) StartCall(mode, language string) (Snapshot, error) {
	if !validMode(mode) {
		return Snapshot{}, ErrInvalidMode
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = "en-US"
	}

	c.mu.Lock()
	if c.cur != nil && c.cur.status == StatusActive {
		c.mu.Unlock()
		return Snapshot{}, ErrCallActive
	}
	if prev := c.cur; prev != nil {
		// Previous call is over; let its queue drain in the background.
		go prev.sync.Close()
	}

	source := c.pickSource()
	recorder := record.NewRecorder(c.cfg.Mic)
	syncq := c.cfg.NewSyncer()

	now := c.cfg.Clock()
	ctx, cancel := context.WithCancel(context.Background())
	sess := &call{
		mode:      mode,
		language:  language,
		status:    StatusActive,
		startedAt: now,
		transcript: []Message{{
			ID:        c.cfg.NewID(),
			Text:      Greeting,
			Sender:    SenderCaller,
			Timestamp: now,
		}},
		source:   source,
		recorder: recorder,
		sync:     syncq,
		cancel:   cancel,
	}
	c.cur = sess

	syncq.StartCall(c.cfg.UserID, mode, language)

	if err := source.Start(); err != nil {
		// Recognizer refused after the pick; switch to simulated captions.
		c.log.Warn("capture start failed, switching to simulated captions", "err", err)
		sess.source = c.cfg.Fallback
		if err := sess.source.Start(); err != nil {
			c.log.Warn("fallback capture start failed, call continues text-only", "err", err)
		}
	}
	if err := recorder.Start(recordingMIME); err != nil {
		c.log.Warn("recorder unavailable, call continues without recording", "err", err)
	}

	go c.tickLoop(ctx, sess)
	go c.ingestLoop(ctx, sess)

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("call started", "mode", mode, "language", language)
	c.changed(snap)
	return snap, nil
}

// pickSource prefers the realtime recognizer and falls back to the
// simulated caption source.
func (c *Coordinator) pickSource() capture.Source {
	if c.cfg.Recognizer != nil && c.cfg.Recognizer.Available() {
		return c.cfg.Recognizer
	}
	c.log.Info("recognizer offline, using simulated captions")
	return c.cfg.Fallback
}

// EndCall closes the active call. Local state always reaches ended; the
// store patch and the recording upload are fire-and-forget.
func (c *Coordinator) EndCall() (Snapshot, error) {
	c.mu.Lock()
	sess := c.cur
	if sess == nil || sess.status != StatusActive {
		c.mu.Unlock()
		return Snapshot{}, ErrNoActiveCall
	}

	sess.cancel()
	now := c.cfg.Clock()
	sess.status = StatusEnded
	sess.endedAt = &now

	sess.source.Stop()
	c.cfg.Speech.Cancel()

	if sess.recorder.State() == record.RecRecording {
		if err := sess.recorder.Stop(); err != nil {
			c.log.Warn("recorder stop failed", "err", err)
		} else if audio := sess.recorder.Bytes(); len(audio) > 0 {
			rec := sess.recorder
			sess.sync.AttachRecording(audio, rec.ContentType(),
				func() { _ = rec.MarkUploading() },
				func() { _ = rec.MarkAttached() })
		}
	}
	sess.sync.EndCall(now, sess.duration)

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("call ended", "duration", snap.DurationSeconds)
	c.changed(snap)
	return snap, nil
}

// SubmitTextResponse appends a typed user message and voices it. Empty
// or whitespace text is silently ignored.
func (c *Coordinator) SubmitTextResponse(text string) (Snapshot, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	sess := c.cur
	if sess == nil || sess.status != StatusActive {
		c.mu.Unlock()
		return Snapshot{}, ErrNoActiveCall
	}
	if text == "" {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	method := MethodText
	c.appendLocked(sess, text, SenderUser, &method)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.cfg.Speech.Speak(text, speech.Options{}); err != nil {
		c.log.Warn("speaking response failed", "err", err)
	}
	c.changed(snap)
	return snap, nil
}

// SubmitVoiceResponse turns the capture source's held transcript into a
// user message. The user already spoke aloud, so nothing is synthesized.
func (c *Coordinator) SubmitVoiceResponse() (Snapshot, error) {
	c.mu.Lock()
	sess := c.cur
	if sess == nil || sess.status != StatusActive {
		c.mu.Unlock()
		return Snapshot{}, ErrNoActiveCall
	}
	if !sess.voiceResponse {
		c.mu.Unlock()
		return Snapshot{}, ErrVoiceModeOff
	}
	text := strings.TrimSpace(sess.source.State().Transcript)
	if text == "" {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	method := MethodVoice
	c.appendLocked(sess, text, SenderUser, &method)
	sess.source.ResetTranscript()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.changed(snap)
	return snap, nil
}

// ToggleVoiceResponseMode flips between typing and speaking responses.
// While engaged the capture source serves the user's own voice, so
// caller ingestion is paused.
func (c *Coordinator) ToggleVoiceResponseMode() (Snapshot, error) {
	c.mu.Lock()
	sess := c.cur
	if sess == nil || sess.status != StatusActive {
		c.mu.Unlock()
		return Snapshot{}, ErrNoActiveCall
	}
	sess.voiceResponse = !sess.voiceResponse

	// Either direction gets a fresh capture pass: entering must not
	// treat leftover caller text as the user's words, leaving must not
	// attribute the user's leftovers to the caller.
	sess.source.Stop()
	sess.source.ResetTranscript()
	if err := sess.source.Start(); err != nil {
		c.log.Warn("capture restart failed on mode toggle", "err", err)
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.changed(snap)
	return snap, nil
}

// SendAudio feeds caller audio into the active capture source and, while
// recording, into the recorder.
func (c *Coordinator) SendAudio(p []byte) error {
	c.mu.Lock()
	sess := c.cur
	if sess == nil || sess.status != StatusActive {
		c.mu.Unlock()
		return ErrNoActiveCall
	}
	source := sess.source
	recorder := sess.recorder
	c.mu.Unlock()

	if recorder.State() == record.RecRecording {
		if err := recorder.AppendChunk(p); err != nil {
			c.log.Warn("recording chunk dropped", "err", err)
		}
	}
	if err := source.SendAudio(p); err != nil && err != capture.ErrNotListening {
		return err
	}
	return nil
}

// Close tears down the active call, if any, and drains its sync queue.
func (c *Coordinator) Close() {
	if _, err := c.EndCall(); err != nil && err != ErrNoActiveCall {
		c.log.Warn("close failed", "err", err)
	}
	c.mu.Lock()
	sess := c.cur
	c.mu.Unlock()
	if sess != nil {
		sess.sync.Close()
	}
}

// appendLocked adds one transcript line and queues its store sync.
func (c *Coordinator) appendLocked(sess *call, text, sender string, method *string) Message {
	msg := Message{
		ID:        c.cfg.NewID(),
		Text:      text,
		Sender:    sender,
		Method:    method,
		Timestamp: c.cfg.Clock(),
	}
	sess.transcript = append(sess.transcript, msg)
	sess.sync.Message(text, sender, method)
	return msg
}

// tickLoop advances the duration counter once per interval while the
// session stays active.
func (c *Coordinator) tickLoop(ctx context.Context, sess *call) {
	t := time.NewTicker(c.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.mu.Lock()
			if c.cur != sess || sess.status != StatusActive {
				c.mu.Unlock()
				return
			}
			sess.duration++
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.changed(snap)
		}
	}
}

// ingestLoop turns finalized capture results into caller messages. The
// liveness checks run under the lock so nothing lands after EndCall.
func (c *Coordinator) ingestLoop(ctx context.Context, sess *call) {
	for {
		// The active source can change (fallback switch, mode toggle),
		// so re-read it each round.
		c.mu.Lock()
		if c.cur != sess || sess.status != StatusActive {
			c.mu.Unlock()
			return
		}
		results := sess.source.Results()
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case r := <-results:
			if r.Offline {
				c.escalateOffline(sess)
				continue
			}
			if !r.Final {
				continue
			}
			c.ingestCallerText(sess, r.Text)
		}
	}
}

// escalateOffline swaps a mid-call dead recognizer for the simulated
// caption source so the transcript keeps moving.
func (c *Coordinator) escalateOffline(sess *call) {
	c.mu.Lock()
	if c.cur != sess || sess.status != StatusActive || sess.source == c.cfg.Fallback {
		c.mu.Unlock()
		return
	}
	sess.source.Stop()
	sess.source = c.cfg.Fallback
	if err := sess.source.Start(); err != nil {
		c.log.Warn("fallback capture start failed, call continues text-only", "err", err)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Warn("recognizer lost mid-call, switching to simulated captions")
	c.changed(snap)
}

func (c *Coordinator) ingestCallerText(sess *call, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.mu.Lock()
	if c.cur != sess || sess.status != StatusActive || sess.voiceResponse {
		c.mu.Unlock()
		return
	}
	c.appendLocked(sess, text, SenderCaller, nil)
	sess.source.ResetTranscript()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.changed(snap)
}

func (c *Coordinator) changed(snap Snapshot) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(snap)
	}
}
