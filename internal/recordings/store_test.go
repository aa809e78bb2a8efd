package recordings

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s.newID = func() string { return "rec-1" }
	return s
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Save(strings.NewReader("audio-bytes"), "audio/webm")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.ID != "rec-1" {
		t.Fatalf("expected id rec-1, got %q", rec.ID)
	}
	if rec.Path != "/recordings/rec-1.webm" {
		t.Fatalf("unexpected path %q", rec.Path)
	}

	f, err := s.Open("rec-1.webm")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "audio-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSave_EmptyUpload(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save(strings.NewReader(""), "audio/webm"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSave_ExtensionFollowsContentType(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Save(strings.NewReader("x"), "audio/mpeg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Path != "/recordings/rec-1.mp3" {
		t.Fatalf("unexpected path %q", rec.Path)
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Open("../secret"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Open("missing.webm"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
