package calllog

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a map-backed repository. It is the default store for the demo
// deployment and doubles as the test double for the service.
type MemoryRepo struct {
	mu       sync.Mutex
	logs     map[string]CallLog
	messages map[string][]CallMessage // call id -> chronological transcript
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		logs:     make(map[string]CallLog),
		messages: make(map[string][]CallMessage),
	}
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID int) ([]CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]CallLog, 0)
	for _, l := range r.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	// Most recent call first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.logs[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepo) Create(ctx context.Context, l CallLog) (CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs[l.ID] = l
	return l, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, u CallLogUpdate) (CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.logs[id]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	if u.EndTime != nil {
		l.EndTime = u.EndTime
	}
	if u.Duration != nil {
		l.Duration = u.Duration
	}
	if u.HasRecording != nil {
		l.HasRecording = *u.HasRecording
	}
	if u.RecordingPath != nil {
		l.RecordingPath = u.RecordingPath
	}
	r.logs[id] = l
	return l, nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, callID string) ([]CallMessage, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[callID]
	out := make([]CallMessage, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, m CallMessage) (CallMessage, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.logs[m.CallID]; !ok {
		return CallMessage{}, ErrNotFound
	}
	r.messages[m.CallID] = append(r.messages[m.CallID], m)
	return m, nil
}
