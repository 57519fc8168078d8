package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearway/internal/payment/models"
	"clearway/pkg/sentinel"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedObligation(t *testing.T, s *MemoryStore, id string, deadline time.Time, status models.Status) {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), &models.Obligation{
		ID:             id,
		ShipmentID:     "ship-1",
		ImporterID:     "importer-1",
		AgentID:        "agent-1",
		Amount:         "100.00",
		Deadline:       deadline,
		Status:         status,
		PaymentPartner: models.PayerImporter,
		CreatedAt:      baseTime.Add(-time.Hour),
	}))
}

func TestListOpen(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedObligation(t, s, "due-soon", baseTime.Add(time.Hour), models.StatusRequested)
	seedObligation(t, s, "due-later", baseTime.Add(48*time.Hour), models.StatusConfirmed)
	seedObligation(t, s, "done", baseTime.Add(time.Hour), models.StatusCompleted)
	seedObligation(t, s, "declined", baseTime.Add(time.Hour), models.StatusRejected)
	seedObligation(t, s, "overdue", baseTime.Add(-time.Minute), models.StatusRequested)
	seedObligation(t, s, "at-deadline", baseTime, models.StatusRequested)

	open, err := s.ListOpen(ctx, baseTime)
	require.NoError(t, err)

	require.Len(t, open, 2)
	assert.Equal(t, "due-soon", open[0].ID, "soonest deadline first")
	assert.Equal(t, "due-later", open[1].ID)
}

func TestDeleteGuard(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedObligation(t, s, "pay-1", baseTime.Add(time.Hour), models.StatusConfirmed)

	guardErr := errors.New("not deletable")
	err := s.Delete(ctx, "pay-1", func(o *models.Obligation) error {
		if o.Status != models.StatusRequested {
			return guardErr
		}
		return nil
	})
	assert.ErrorIs(t, err, guardErr)

	_, err = s.Get(ctx, "pay-1")
	require.NoError(t, err, "a vetoed delete leaves the row in place")

	require.NoError(t, s.Delete(ctx, "pay-1", func(*models.Obligation) error { return nil }))
	_, err = s.Get(ctx, "pay-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMutateCommentsIsolated(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	seedObligation(t, s, "pay-1", baseTime.Add(time.Hour), models.StatusRequested)

	withComment, err := s.Mutate(ctx, "pay-1", func(o *models.Obligation) error {
		o.Comments = append(o.Comments, models.Comment{ID: "c1", Text: "first"})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)

	// Mutating the returned snapshot must not leak into the store.
	withComment.Comments[0].Text = "tampered"

	current, err := s.Get(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "first", current.Comments[0].Text)
}
