// Package logsync ships live-call events to the call log store without
// blocking the call itself. Client is the store API; Syncer serializes
// writes for one call behind a single worker.
package logsync

import (
	"context"
	"time"
)

// CallPatch is a partial call log update. Nil fields are left untouched.
type CallPatch struct {
	EndTime       *time.Time `json:"endTime,omitempty"`
	Duration      *int       `json:"duration,omitempty"`
	HasRecording  *bool      `json:"hasRecording,omitempty"`
	RecordingPath *string    `json:"recordingPath,omitempty"`
}

// Client talks to the call log store.
type Client interface {
	// CreateCallLog opens a call log and returns its id.
	CreateCallLog(ctx context.Context, userID int, mode, language string) (string, error)
	// AppendMessage appends one transcript line to a call.
	AppendMessage(ctx context.Context, callID, text, sender string, method *string) error
	// PatchCallLog applies a partial update to a call log.
	PatchCallLog(ctx context.Context, callID string, patch CallPatch) error
	// UploadRecording stores an audio blob and returns its serving path.
	UploadRecording(ctx context.Context, audio []byte, contentType string) (string, error)
}
