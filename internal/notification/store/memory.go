package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clearway/internal/notification/models"
	"clearway/pkg/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and zero-dependency
// development mode.
type MemoryStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *n
	s.notifications = append(s.notifications, &stored)
	return nil
}

func (s *MemoryStore) ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(n *models.Notification) bool {
		return n.RecipientID == recipientID
	}), nil
}

func (s *MemoryStore) ListUnread(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(n *models.Notification) bool {
		return n.RecipientID == recipientID && !n.IsRead
	}), nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) CountSince(ctx context.Context, entityType models.EntityType, entityID string, window time.Duration, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-window)
	count := 0
	for _, n := range s.notifications {
		if n.EntityType == entityType && n.EntityID == entityID && n.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

// filter must be called with the lock held.
func (s *MemoryStore) filter(keep func(*models.Notification) bool) []*models.Notification {
	var out []*models.Notification
	for _, n := range s.notifications {
		if keep(n) {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
