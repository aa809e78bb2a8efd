package calllog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestService(clock func() time.Time) *Service {
	s := NewService(NewMemoryRepo())
	if clock != nil {
		s.clock = clock
	}
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("call-%d", n)
	}
	m := 0
	s.newMessageID = func() string {
		m++
		return fmt.Sprintf("msg-%02d", m)
	}
	return s
}

func TestStart_SetsServerFields(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(func() time.Time { return now })

	l, err := s.Start(context.Background(), 1, ModeDeaf, "en")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if l.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if !l.StartTime.Equal(now) {
		t.Fatalf("expected start time %v, got %v", now, l.StartTime)
	}
	if l.EndTime != nil || l.Duration != nil || l.HasRecording || l.RecordingPath != nil {
		t.Fatalf("expected null end fields, got %+v", l)
	}
}

func TestStart_RejectsUnknownMode(t *testing.T) {
	s := newTestService(nil)
	if _, err := s.Start(context.Background(), 1, Mode("loud"), "en"); !errors.Is(err, ErrInvalidCall) {
		t.Fatalf("expected ErrInvalidCall, got %v", err)
	}
}

func TestUpdate_PatchesSubsetAndPreservesRest(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()

	l, _ := s.Start(ctx, 1, ModeBoth, "en")

	end := time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC)
	dur := 42
	updated, err := s.Update(ctx, l.ID, CallLogUpdate{EndTime: &end, Duration: &dur})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.EndTime == nil || !updated.EndTime.Equal(end) {
		t.Fatalf("expected end time %v, got %v", end, updated.EndTime)
	}
	if updated.Duration == nil || *updated.Duration != 42 {
		t.Fatalf("expected duration 42, got %v", updated.Duration)
	}
	if updated.Mode != ModeBoth || updated.Language != "en" || updated.UserID != 1 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	// Round-trip: GET reflects both updates.
	got, err := s.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.EndTime == nil || got.Duration == nil || *got.Duration != 42 {
		t.Fatalf("round-trip lost updates: %+v", got)
	}
	if !got.StartTime.Equal(l.StartTime) {
		t.Fatalf("start time changed on patch")
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	s := newTestService(nil)
	dur := 1
	if _, err := s.Update(context.Background(), "nope", CallLogUpdate{Duration: &dur}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(nil)
	times := []time.Time{now, now.Add(2 * time.Hour), now.Add(time.Hour)}
	i := 0
	s.clock = func() time.Time {
		t := times[i]
		i++
		return t
	}
	ctx := context.Background()

	first, _ := s.Start(ctx, 1, ModeDeaf, "en")
	second, _ := s.Start(ctx, 1, ModeDeaf, "en")
	third, _ := s.Start(ctx, 1, ModeDeaf, "en")

	list, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != third.ID || list[2].ID != first.ID {
		t.Fatalf("expected newest-first order, got %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestAppendMessage_CallerHasNoMethod(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	l, _ := s.Start(ctx, 1, ModeDeaf, "en")

	m, err := s.AppendMessage(ctx, l.ID, "I need help", SenderCaller, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Method != nil {
		t.Fatalf("expected nil method for caller message")
	}

	// A method on a caller message is dropped, not an error.
	method := MethodText
	m2, err := s.AppendMessage(ctx, l.ID, "again", SenderCaller, &method)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m2.Method != nil {
		t.Fatalf("expected method to be dropped for caller message")
	}
}

func TestAppendMessage_UserRequiresMethod(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	l, _ := s.Start(ctx, 1, ModeDeaf, "en")

	if _, err := s.AppendMessage(ctx, l.ID, "hi", SenderUser, nil); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	method := MethodVoice
	if _, err := s.AppendMessage(ctx, l.ID, "hi", SenderUser, &method); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAppendMessage_RejectsEmptyTextAndUnknownCall(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	l, _ := s.Start(ctx, 1, ModeDeaf, "en")

	if _, err := s.AppendMessage(ctx, l.ID, "   ", SenderCaller, nil); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if _, err := s.AppendMessage(ctx, "nope", "hi", SenderCaller, nil); err == nil {
		t.Fatalf("expected error for unknown call")
	}
}

func TestMessages_Chronological(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(nil)
	tick := 0
	s.clock = func() time.Time {
		tick++
		return now.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()
	l, _ := s.Start(ctx, 1, ModeBoth, "en")

	_, _ = s.AppendMessage(ctx, l.ID, "first", SenderCaller, nil)
	method := MethodText
	_, _ = s.AppendMessage(ctx, l.ID, "second", SenderUser, &method)
	_, _ = s.AppendMessage(ctx, l.ID, "third", SenderCaller, nil)

	msgs, err := s.Messages(ctx, l.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "first" || msgs[1].Text != "second" || msgs[2].Text != "third" {
		t.Fatalf("expected chronological order, got %v %v %v", msgs[0].Text, msgs[1].Text, msgs[2].Text)
	}
}
