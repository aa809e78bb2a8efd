package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// minAudioChunk keeps outbound frames large enough for the recognizer;
// 3200 bytes is 100ms of 16kHz 16-bit mono PCM.
const minAudioChunk = 3200

// Dialer abstracts websocket dialing so tests can inject a fake.
type Dialer interface {
	Dial(urlStr string, header http.Header) (*websocket.Conn, *http.Response, error)
}

// RecognizerConfig configures the realtime recognizer connection.
type RecognizerConfig struct {
	URL      string
	APIKey   string
	Language string
	Dialer   Dialer
}

// recognizerMessage is the recognizer's wire format. The service emits
// partial results that revise each other and a final result that ends
// the recognition pass.
type recognizerMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Err  string `json:"error,omitempty"`
}

// Recognizer streams caller audio to a realtime speech recognizer over a
// websocket and folds the responses into a transcript. Each final result
// ends the current pass; while listening, the recognizer immediately
// opens a new pass, so the transcript keeps growing across utterances.
type Recognizer struct {
	cfg RecognizerConfig
	log *slog.Logger

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	conn    *websocket.Conn
	buf     []byte
	results chan Result
}

func NewRecognizer(cfg RecognizerConfig, log *slog.Logger) *Recognizer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Recognizer{
		cfg:     cfg,
		log:     log,
		results: make(chan Result, 32),
	}
}

// Available reports whether a recognizer endpoint is configured and the
// source has not gone offline.
func (r *Recognizer) Available() bool {
	if r.cfg.URL == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.state.Offline
}

func (r *Recognizer) Results() <-chan Result { return r.results }

func (r *Recognizer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start dials the recognizer and begins the first pass. A dial failure
// marks the source offline so the caller can switch to the fallback.
func (r *Recognizer) Start() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	conn, err := r.dial()
	if err != nil {
		r.mu.Lock()
		r.cancel = nil
		r.state.Offline = true
		r.state.Err = err.Error()
		r.mu.Unlock()
		cancel()
		return fmt.Errorf("recognizer dial: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.state.Listening = true
	r.state.Offline = false
	r.state.Err = ""
	r.mu.Unlock()

	go r.run(ctx, conn)
	return nil
}

func (r *Recognizer) Stop() {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.cancel = nil
	conn := r.conn
	r.conn = nil
	r.state.Listening = false
	r.state.Interim = ""
	r.buf = nil
	r.mu.Unlock()

	if conn != nil {
		msg, _ := json.Marshal(recognizerMessage{Type: "terminate"})
		_ = conn.WriteMessage(websocket.TextMessage, msg)
		conn.Close()
	}
}

func (r *Recognizer) ResetTranscript() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Transcript = ""
	r.state.Interim = ""
}

// SendAudio buffers caller audio and forwards it in chunks of at least
// minAudioChunk bytes.
func (r *Recognizer) SendAudio(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Listening || r.conn == nil {
		return ErrNotListening
	}
	r.buf = append(r.buf, p...)
	if len(r.buf) < minAudioChunk {
		return nil
	}
	chunk := r.buf
	r.buf = nil
	if err := r.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("recognizer write: %w", err)
	}
	return nil
}

func (r *Recognizer) dial() (*websocket.Conn, error) {
	u, err := url.Parse(r.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer url: %w", err)
	}
	q := u.Query()
	if r.cfg.Language != "" {
		q.Set("language", r.cfg.Language)
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	if r.cfg.APIKey != "" {
		header.Set("Authorization", r.cfg.APIKey)
	}
	conn, _, err := r.cfg.Dialer.Dial(u.String(), header)
	return conn, err
}

// run reads one recognition pass and, while still listening, opens the
// next. One immediate redial is attempted after an unexpected drop;
// a second failure marks the source offline.
func (r *Recognizer) run(ctx context.Context, conn *websocket.Conn) {
	retried := false
	for ctx.Err() == nil {
		clean := r.readPass(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		if !clean {
			if retried {
				r.goOffline("recognizer connection lost")
				return
			}
			retried = true
			r.log.Warn("recognizer connection dropped, redialing")
		} else {
			retried = false
		}

		next, err := r.dial()
		if err != nil {
			r.goOffline(err.Error())
			return
		}
		conn = next
		r.mu.Lock()
		r.conn = next
		r.mu.Unlock()
	}
}

// readPass consumes one pass. It returns true when the pass ended on a
// final result and false when the connection dropped unexpectedly.
func (r *Recognizer) readPass(ctx context.Context, conn *websocket.Conn) bool {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return ctx.Err() != nil
		}
		var msg recognizerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			r.log.Warn("unparseable recognizer message", "err", err)
			continue
		}
		switch msg.Type {
		case "partial":
			r.mu.Lock()
			r.state.Interim = msg.Text
			r.mu.Unlock()
			r.emit(Result{Text: msg.Text})
		case "final":
			r.mu.Lock()
			if r.state.Transcript != "" {
				r.state.Transcript += " "
			}
			r.state.Transcript += msg.Text
			r.state.Interim = ""
			r.mu.Unlock()
			r.emit(Result{Text: msg.Text, Final: true})
			return true
		case "error":
			r.log.Warn("recognizer error", "err", msg.Err)
			return true
		default:
			r.log.Debug("ignoring recognizer message", "type", msg.Type)
		}
	}
}

func (r *Recognizer) goOffline(reason string) {
	r.mu.Lock()
	r.state.Listening = false
	r.state.Offline = true
	r.state.Err = reason
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.conn = nil
	r.mu.Unlock()
	r.log.Warn("recognizer offline", "reason", reason)
	// Tell the consumer the source is dead so it can switch over.
	r.emit(Result{Offline: true})
}

func (r *Recognizer) emit(res Result) {
	select {
	case r.results <- res:
	default:
		r.log.Warn("recognition result dropped, consumer too slow")
	}
}
