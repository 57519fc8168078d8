package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clearway/internal/payment/models"
	"clearway/pkg/sentinel"
)

// PostgresStore persists payment obligations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, o *models.Obligation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_obligations (
			id, shipment_id, shipment_ref, importer_id, agent_id,
			amount, deadline, status, payment_partner, description,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.ShipmentID, o.ShipmentRef, o.ImporterID, o.AgentID,
		o.Amount, o.Deadline, string(o.Status), string(o.PaymentPartner),
		o.Description, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create obligation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Obligation, error) {
	o, err := scanObligation(s.db.QueryRowContext(ctx, selectObligation+` WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	o.Comments, err = s.loadComments(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresStore) ListByParty(ctx context.Context, partyID string) ([]*models.Obligation, error) {
	rows, err := s.db.QueryContext(ctx,
		selectObligation+` WHERE importer_id=$1 OR agent_id=$1 ORDER BY created_at DESC`, partyID)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	return collectObligations(rows)
}

func (s *PostgresStore) ListOpen(ctx context.Context, now time.Time) ([]*models.Obligation, error) {
	rows, err := s.db.QueryContext(ctx,
		selectObligation+` WHERE status NOT IN ($1,$2) AND deadline > $3 ORDER BY deadline`,
		string(models.StatusCompleted), string(models.StatusRejected), now)
	if err != nil {
		return nil, fmt.Errorf("list open obligations: %w", err)
	}
	return collectObligations(rows)
}

func (s *PostgresStore) Mutate(ctx context.Context, id string, fn func(*models.Obligation) error) (*models.Obligation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mutate: %w", err)
	}
	defer tx.Rollback()

	o, err := scanObligation(tx.QueryRowContext(ctx, selectObligation+` WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	o.Comments, err = s.loadComments(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	before := len(o.Comments)
	if err := fn(o); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_obligations
		SET amount=$2, deadline=$3, status=$4, description=$5, updated_at=$6
		WHERE id=$1`,
		id, o.Amount, o.Deadline, string(o.Status), o.Description, o.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update obligation: %w", err)
	}
	for _, c := range o.Comments[before:] {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_comments (id, obligation_id, author_id, author_name, text, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			c.ID, id, c.AuthorID, c.AuthorName, c.Text, c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("append comment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mutate: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string, guard func(*models.Obligation) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	o, err := scanObligation(tx.QueryRowContext(ctx, selectObligation+` WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return err
	}
	if err := guard(o); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_comments WHERE obligation_id=$1`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_obligations WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete obligation: %w", err)
	}
	return tx.Commit()
}

const selectObligation = `
	SELECT id, shipment_id, shipment_ref, importer_id, agent_id,
	       amount, deadline, status, payment_partner, description,
	       created_at, updated_at
	FROM payment_obligations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (*models.Obligation, error) {
	var o models.Obligation
	var status, partner string
	err := row.Scan(
		&o.ID, &o.ShipmentID, &o.ShipmentRef, &o.ImporterID, &o.AgentID,
		&o.Amount, &o.Deadline, &status, &partner, &o.Description,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan obligation: %w", err)
	}
	o.Status = models.Status(status)
	o.PaymentPartner = models.Payer(partner)
	return &o, nil
}

func collectObligations(rows *sql.Rows) ([]*models.Obligation, error) {
	defer rows.Close()
	var out []*models.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) loadComments(ctx context.Context, q queryer, obligationID string) ([]models.Comment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, author_id, author_name, text, created_at
		FROM payment_comments WHERE obligation_id=$1 ORDER BY created_at, id`, obligationID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
