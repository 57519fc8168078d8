package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clearway/internal/shipment/models"
	"clearway/pkg/sentinel"
)

// PostgresStore persists shipments in PostgreSQL. Mutate takes a row lock
// (SELECT ... FOR UPDATE) so the read-validate-write of a transition is one
// indivisible unit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, shipment *models.Shipment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shipments (
			id, reference, importer_id, agent_id, payment_partner,
			status, is_accepted, is_completed, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		shipment.ID, shipment.Reference, shipment.ImporterID, shipment.AgentID,
		string(shipment.PaymentPartner), string(shipment.Status),
		shipment.IsAccepted, shipment.IsCompleted, shipment.CreatedAt, shipment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create shipment: %w", err)
	}
	for _, entry := range shipment.Timeline {
		if err := s.insertTimelineEntry(ctx, s.db, shipment.ID, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Shipment, error) {
	shipment, err := scanShipment(s.db.QueryRowContext(ctx, selectShipment+` WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	shipment.Timeline, err = s.loadTimeline(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *PostgresStore) ListByParty(ctx context.Context, partyID string) ([]*models.Shipment, error) {
	rows, err := s.db.QueryContext(ctx,
		selectShipment+` WHERE importer_id=$1 OR agent_id=$1 ORDER BY created_at DESC`, partyID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	var out []*models.Shipment
	for rows.Next() {
		shipment, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, shipment)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Mutate(ctx context.Context, id string, fn func(*models.Shipment) error) (*models.Shipment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mutate: %w", err)
	}
	defer tx.Rollback()

	shipment, err := scanShipment(tx.QueryRowContext(ctx, selectShipment+` WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	shipment.Timeline, err = s.loadTimeline(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	before := len(shipment.Timeline)
	if err := fn(shipment); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE shipments
		SET status=$2, is_accepted=$3, is_completed=$4, payment_partner=$5, updated_at=$6
		WHERE id=$1`,
		id, string(shipment.Status), shipment.IsAccepted, shipment.IsCompleted,
		string(shipment.PaymentPartner), shipment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	for _, entry := range shipment.Timeline[before:] {
		if err := s.insertTimelineEntry(ctx, tx, id, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mutate: %w", err)
	}
	return shipment, nil
}

const selectShipment = `
	SELECT id, reference, importer_id, agent_id, payment_partner,
	       status, is_accepted, is_completed, created_at, updated_at
	FROM shipments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*models.Shipment, error) {
	var shipment models.Shipment
	var partner, status string
	err := row.Scan(
		&shipment.ID, &shipment.Reference, &shipment.ImporterID, &shipment.AgentID,
		&partner, &status, &shipment.IsAccepted, &shipment.IsCompleted,
		&shipment.CreatedAt, &shipment.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan shipment: %w", err)
	}
	shipment.PaymentPartner = models.PaymentPartner(partner)
	shipment.Status = models.Status(status)
	return &shipment, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) loadTimeline(ctx context.Context, q queryer, shipmentID string) ([]models.TimelineEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, author_id, text, COALESCE(attachment_ref, ''), created_at
		FROM shipment_timeline WHERE shipment_id=$1 ORDER BY created_at, id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.TimelineEntry
	for rows.Next() {
		var e models.TimelineEntry
		if err := rows.Scan(&e.ID, &e.AuthorID, &e.Text, &e.AttachmentRef, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) insertTimelineEntry(ctx context.Context, q queryer, shipmentID string, e models.TimelineEntry) error {
	var attachment any
	if e.AttachmentRef != "" {
		attachment = e.AttachmentRef
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO shipment_timeline (id, shipment_id, author_id, text, attachment_ref, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, shipmentID, e.AuthorID, e.Text, attachment, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append timeline entry: %w", err)
	}
	return nil
}
