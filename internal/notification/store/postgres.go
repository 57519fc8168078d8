package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clearway/internal/notification/models"
	"clearway/pkg/sentinel"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	var shipmentID any
	if n.ShipmentID != "" {
		shipmentID = n.ShipmentID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, recipient_id, sender_id, title, message,
			entity_type, entity_id, shipment_id, is_read, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		n.ID, n.RecipientID, n.SenderID, n.Title, n.Message,
		string(n.EntityType), n.EntityID, shipmentID, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	return s.list(ctx, selectNotification+` WHERE recipient_id=$1 ORDER BY created_at DESC`, recipientID)
}

func (s *PostgresStore) ListUnread(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	return s.list(ctx, selectNotification+` WHERE recipient_id=$1 AND NOT is_read ORDER BY created_at DESC`, recipientID)
}

func (s *PostgresStore) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountSince(ctx context.Context, entityType models.EntityType, entityID string, window time.Duration, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE entity_type=$1 AND entity_id=$2 AND created_at > $3`,
		string(entityType), entityID, now.Add(-window),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

const selectNotification = `
	SELECT id, recipient_id, sender_id, title, message,
	       entity_type, entity_id, COALESCE(shipment_id::text, ''), is_read, created_at
	FROM notifications`

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var entityType string
		err := rows.Scan(
			&n.ID, &n.RecipientID, &n.SenderID, &n.Title, &n.Message,
			&entityType, &n.EntityID, &n.ShipmentID, &n.IsRead, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.EntityType = models.EntityType(entityType)
		out = append(out, &n)
	}
	return out, rows.Err()
}
