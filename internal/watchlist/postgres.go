package watchlist

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists watcher lists in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, shipmentID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shipment_watchers (shipment_id, email)
		VALUES ($1,$2)
		ON CONFLICT (shipment_id, email) DO NOTHING`, shipmentID, email)
	if err != nil {
		return fmt.Errorf("add watcher: %w", err)
	}
	return nil
}

func (s *PostgresStore) Resolve(ctx context.Context, shipmentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM shipment_watchers WHERE shipment_id=$1 ORDER BY email`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("resolve watchers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
