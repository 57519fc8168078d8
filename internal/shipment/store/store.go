package store

import (
	"context"

	"clearway/internal/shipment/models"
)

// Store persists shipments. Mutate is the atomic unit every guarded
// transition runs through: the callback sees the current row, validates its
// precondition, and applies the change; the whole read-validate-write runs
// indivisibly (mutex in memory, row lock in postgres). Two concurrent
// accepts on one shipment therefore race safely: exactly one callback sees
// the precondition hold.
type Store interface {
	Create(ctx context.Context, s *models.Shipment) error
	Get(ctx context.Context, id string) (*models.Shipment, error)
	ListByParty(ctx context.Context, partyID string) ([]*models.Shipment, error)
	Mutate(ctx context.Context, id string, fn func(*models.Shipment) error) (*models.Shipment, error)
}
