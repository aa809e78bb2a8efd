package phrases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Repository abstracts phrase persistence.
// Implementations: MemoryRepo (default), PostgresRepo.
type Repository interface {
	ListByUser(ctx context.Context, userID int) ([]Phrase, error)
	Create(ctx context.Context, p Phrase) (Phrase, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound      = errors.New("phrases: not found")
	ErrInvalidPhrase = errors.New("phrases: invalid phrase")
)

// Service owns phrase reads and writes for the demo user.
//
// Contract:
// - Text must be non-empty after trimming.
// - Category must be one of the known categories.
// - The optional cache is best-effort: cache failures never fail a request.
type Service struct {
	repo  Repository
	cache *Cache
	newID func() string
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, newID: uuid.NewString}
}

func (s *Service) List(ctx context.Context, userID int) ([]Phrase, error) {
	if s.cache != nil {
		if out, ok := s.cache.Get(ctx, userID); ok {
			return out, nil
		}
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, userID, out)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, userID int, text, category string) (Phrase, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Phrase{}, ErrInvalidPhrase
	}
	if category == "" {
		category = "general"
	}
	if !ValidCategory(category) {
		return Phrase{}, ErrInvalidPhrase
	}

	p := Phrase{
		ID:       s.newID(),
		UserID:   userID,
		Text:     text,
		Category: category,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Phrase{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return created, nil
}

func (s *Service) Delete(ctx context.Context, userID int, id string) error {
	if id == "" {
		return ErrInvalidPhrase
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return nil
}

// Seed inserts the starter demo phrases if the user has none yet.
func (s *Service) Seed(ctx context.Context, userID int) error {
	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil || len(existing) > 0 {
		return err
	}
	demo := []Phrase{
		{Text: "Hello, how may I assist you?", Category: "greetings"},
		{Text: "Could you please repeat that?", Category: "questions"},
		{Text: "Thank you for your patience", Category: "responses"},
	}
	for _, p := range demo {
		p.ID = s.newID()
		p.UserID = userID
		if _, err := s.repo.Create(ctx, p); err != nil {
			return err
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return nil
}
