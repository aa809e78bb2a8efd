package phrases

import (
	"context"
	"sync"
)

// MemoryRepo is a map-backed repository. It is the default store for the demo
// deployment and doubles as the test double for the service.
type MemoryRepo struct {
	mu      sync.Mutex
	byID    map[string]Phrase
	created []string // insertion order, for stable listings
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Phrase)}
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID int) ([]Phrase, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Phrase, 0)
	for _, id := range r.created {
		p, ok := r.byID[id]
		if !ok || p.UserID != userID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, p Phrase) (Phrase, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[p.ID] = p
	r.created = append(r.created, p.ID)
	return p, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)

	for idx, created := range r.created {
		if created == id {
			r.created = append(r.created[:idx], r.created[idx+1:]...)
			break
		}
	}
	return nil
}
