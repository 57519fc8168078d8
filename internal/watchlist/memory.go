package watchlist

import (
	"context"
	"sync"
)

// MemoryStore keeps watcher lists in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	watchers map[string][]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{watchers: make(map[string][]string)}
}

func (s *MemoryStore) Add(ctx context.Context, shipmentID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.watchers[shipmentID] {
		if existing == email {
			return nil
		}
	}
	s.watchers[shipmentID] = append(s.watchers[shipmentID], email)
	return nil
}

func (s *MemoryStore) Resolve(ctx context.Context, shipmentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emails := s.watchers[shipmentID]
	out := make([]string, len(emails))
	copy(out, emails)
	return out, nil
}
