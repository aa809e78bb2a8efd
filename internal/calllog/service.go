package calllog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Repository abstracts call log persistence.
// Implementations: MemoryRepo (default), PostgresRepo.
//
// AppendMessage MUST be append-only; no message update or delete exists.
type Repository interface {
	ListByUser(ctx context.Context, userID int) ([]CallLog, error)
	Get(ctx context.Context, id string) (CallLog, error)
	Create(ctx context.Context, l CallLog) (CallLog, error)
	Update(ctx context.Context, id string, u CallLogUpdate) (CallLog, error)

	ListMessages(ctx context.Context, callID string) ([]CallMessage, error)
	AppendMessage(ctx context.Context, m CallMessage) (CallMessage, error)
}

var (
	ErrNotFound       = errors.New("calllog: not found")
	ErrInvalidCall    = errors.New("calllog: invalid call log")
	ErrInvalidMessage = errors.New("calllog: invalid message")
)

// Service owns call-log reads and writes.
type Service struct {
	repo  Repository
	clock func() time.Time
	newID func() string
	// newMessageID produces session-scoped, time-ordered ids.
	newMessageID func() string
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:         repo,
		clock:        time.Now,
		newID:        uuid.NewString,
		newMessageID: func() string { return ulid.Make().String() },
	}
}

func (s *Service) List(ctx context.Context, userID int) ([]CallLog, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id string) (CallLog, error) {
	return s.repo.Get(ctx, id)
}

// Start opens a new call log. The server assigns id and startTime; end fields
// stay null until the session ends.
func (s *Service) Start(ctx context.Context, userID int, mode Mode, language string) (CallLog, error) {
	if !ValidMode(mode) {
		return CallLog{}, ErrInvalidCall
	}
	if strings.TrimSpace(language) == "" {
		return CallLog{}, ErrInvalidCall
	}

	l := CallLog{
		ID:        s.newID(),
		UserID:    userID,
		StartTime: s.clock().UTC(),
		Mode:      mode,
		Language:  language,
	}
	return s.repo.Create(ctx, l)
}

// Update patches end/duration/recording fields, preserving everything else.
func (s *Service) Update(ctx context.Context, id string, u CallLogUpdate) (CallLog, error) {
	if u.Duration != nil && *u.Duration < 0 {
		return CallLog{}, ErrInvalidCall
	}
	return s.repo.Update(ctx, id, u)
}

func (s *Service) Messages(ctx context.Context, callID string) ([]CallMessage, error) {
	if _, err := s.repo.Get(ctx, callID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, callID)
}

// AppendMessage appends one transcript entry to an existing call.
//
// Rules:
// - Text must be non-empty after trimming.
// - Sender must be caller or user.
// - Method is required to be text/voice for user messages and absent for
//   caller messages (the caller channel is always speech-to-text).
func (s *Service) AppendMessage(ctx context.Context, callID, text string, sender Sender, method *Method) (CallMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return CallMessage{}, ErrInvalidMessage
	}

	switch sender {
	case SenderCaller:
		method = nil
	case SenderUser:
		if method == nil || (*method != MethodText && *method != MethodVoice) {
			return CallMessage{}, ErrInvalidMessage
		}
	default:
		return CallMessage{}, ErrInvalidMessage
	}

	m := CallMessage{
		ID:        s.newMessageID(),
		CallID:    callID,
		Text:      text,
		Sender:    sender,
		Method:    method,
		Timestamp: s.clock().UTC(),
	}
	return s.repo.AppendMessage(ctx, m)
}
