package store

import (
	"context"
	"time"

	"clearway/internal/payment/models"
)

// Store persists payment obligations. Mutate and Delete run their callbacks
// atomically against the current row (mutex in memory, row lock in postgres)
// so status guards cannot race. Deleting is physical only for REQUESTED
// obligations; terminal statuses are the destruction signal otherwise.
type Store interface {
	Create(ctx context.Context, o *models.Obligation) error
	Get(ctx context.Context, id string) (*models.Obligation, error)
	ListByParty(ctx context.Context, partyID string) ([]*models.Obligation, error)
	// ListOpen returns obligations that are not terminal and whose deadline
	// is strictly after now. The reminder sweep is its only caller.
	ListOpen(ctx context.Context, now time.Time) ([]*models.Obligation, error)
	Mutate(ctx context.Context, id string, fn func(*models.Obligation) error) (*models.Obligation, error)
	// Delete removes the row iff guard returns nil for the current state.
	Delete(ctx context.Context, id string, guard func(*models.Obligation) error) error
}
