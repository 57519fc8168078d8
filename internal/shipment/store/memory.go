package store

import (
	"context"
	"sort"
	"sync"

	"clearway/internal/shipment/models"
	"clearway/pkg/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and zero-dependency
// development mode.
type MemoryStore struct {
	mu        sync.Mutex
	shipments map[string]*models.Shipment
}

func NewMemory() *MemoryStore {
	return &MemoryStore{shipments: make(map[string]*models.Shipment)}
}

func (s *MemoryStore) Create(ctx context.Context, shipment *models.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.shipments[shipment.ID]; exists {
		return sentinel.ErrConflict
	}
	s.shipments[shipment.ID] = shipment.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shipment, ok := s.shipments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return shipment.Clone(), nil
}

func (s *MemoryStore) ListByParty(ctx context.Context, partyID string) ([]*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Shipment
	for _, shipment := range s.shipments {
		if shipment.ImporterID == partyID || shipment.AgentID == partyID {
			out = append(out, shipment.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Mutate runs fn on the live row under the store lock. If fn returns an
// error the row is left untouched.
func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*models.Shipment) error) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.shipments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	candidate := current.Clone()
	if err := fn(candidate); err != nil {
		return nil, err
	}
	s.shipments[id] = candidate
	return candidate.Clone(), nil
}
