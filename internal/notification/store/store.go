package store

import (
	"context"
	"time"

	"clearway/internal/notification/models"
)

// Store persists notifications and answers the reminder scheduler's
// idempotency question: how many notifications of a kind exist for an entity
// inside a lookback window.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	// CountSince returns the number of notifications for (entityType,
	// entityID) created strictly after now minus window.
	CountSince(ctx context.Context, entityType models.EntityType, entityID string, window time.Duration, now time.Time) (int, error)
}
