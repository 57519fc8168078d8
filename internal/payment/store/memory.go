package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clearway/internal/payment/models"
	"clearway/pkg/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and zero-dependency
// development mode.
type MemoryStore struct {
	mu          sync.Mutex
	obligations map[string]*models.Obligation
}

func NewMemory() *MemoryStore {
	return &MemoryStore{obligations: make(map[string]*models.Obligation)}
}

func (s *MemoryStore) Create(ctx context.Context, o *models.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.obligations[o.ID]; exists {
		return sentinel.ErrConflict
	}
	s.obligations[o.ID] = o.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.obligations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *MemoryStore) ListByParty(ctx context.Context, partyID string) ([]*models.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Obligation
	for _, o := range s.obligations {
		if o.ImporterID == partyID || o.AgentID == partyID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListOpen(ctx context.Context, now time.Time) ([]*models.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Obligation
	for _, o := range s.obligations {
		if !o.Status.Terminal() && o.Deadline.After(now) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*models.Obligation) error) (*models.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.obligations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	candidate := current.Clone()
	if err := fn(candidate); err != nil {
		return nil, err
	}
	s.obligations[id] = candidate
	return candidate.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string, guard func(*models.Obligation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.obligations[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := guard(current.Clone()); err != nil {
		return err
	}
	delete(s.obligations, id)
	return nil
}
