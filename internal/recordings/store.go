package recordings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Recording is the stored result of one uploaded call recording.
type Recording struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

var (
	ErrNotFound = errors.New("recordings: not found")
	ErrEmpty    = errors.New("recordings: empty upload")
)

// Store writes uploaded audio blobs to disk and serves them back.
//
// Paths returned to clients are of the form /recordings/<id>.<ext>; the file
// lives under dir with the same basename.
type Store struct {
	dir   string
	newID func() string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("recordings: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recordings: create dir: %w", err)
	}
	return &Store{dir: dir, newID: uuid.NewString}, nil
}

// Save persists one audio blob and returns its public reference.
func (s *Store) Save(r io.Reader, contentType string) (Recording, error) {
	id := s.newID()
	name := id + extensionFor(contentType)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return Recording{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return Recording{}, err
	}
	if n == 0 {
		_ = os.Remove(filepath.Join(s.dir, name))
		return Recording{}, ErrEmpty
	}

	return Recording{ID: id, Path: "/recordings/" + name}, nil
}

// Open returns the stored file for a previously saved basename.
func (s *Store) Open(name string) (*os.File, error) {
	// Reject traversal; name must be a bare basename.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	default:
		// Browser MediaRecorder default.
		return ".webm"
	}
}
