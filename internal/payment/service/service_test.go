package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifmodels "clearway/internal/notification/models"
	"clearway/internal/payment/models"
	"clearway/internal/payment/store"
	shipmodels "clearway/internal/shipment/models"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
	"clearway/pkg/testutil"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notifmodels.Notification
}

func (n *recordingNotifier) CreateAndDispatch(_ context.Context, notif *notifmodels.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notif)
	return nil
}

func (n *recordingNotifier) all() []*notifmodels.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*notifmodels.Notification(nil), n.sent...)
}

type fixedShipments struct {
	shipment *shipmodels.Shipment
}

func (f fixedShipments) Get(_ context.Context, id string) (*shipmodels.Shipment, error) {
	if f.shipment == nil || f.shipment.ID != id {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "shipment %s not found", id)
	}
	return f.shipment, nil
}

var testShipment = &shipmodels.Shipment{
	ID:         "ship-1",
	Reference:  "BAYAN-2001",
	ImporterID: "importer-1",
	AgentID:    "agent-1",
}

func newTestService() (*Service, *store.MemoryStore, *recordingNotifier) {
	st := store.NewMemory()
	notifier := &recordingNotifier{}
	svc := New(st, fixedShipments{shipment: testShipment}, notifier, slog.New(slog.DiscardHandler))
	return svc, st, notifier
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func createObligation(t *testing.T, svc *Service) *models.Obligation {
	t.Helper()
	obligation, err := svc.Create(testCtx(), "agent-1", CreateParams{
		ShipmentID: "ship-1",
		Amount:     "1500.00",
		Deadline:   testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return obligation
}

func TestCreate(t *testing.T) {
	testutil.When(t, "all required fields are present", func(t *testing.T) {
		svc, _, notifier := newTestService()

		obligation := createObligation(t, svc)

		assert.Equal(t, models.StatusRequested, obligation.Status)
		assert.Equal(t, "BAYAN-2001", obligation.ShipmentRef)
		assert.Equal(t, "importer-1", obligation.ImporterID)
		require.Len(t, notifier.all(), 1)
		assert.Equal(t, "importer-1", notifier.all()[0].RecipientID, "the paying party is notified")
	})

	testutil.When(t, "the amount is missing", func(t *testing.T) {
		svc, st, _ := newTestService()

		_, err := svc.Create(testCtx(), "agent-1", CreateParams{
			ShipmentID: "ship-1",
			Deadline:   testNow.Add(time.Hour),
		})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "amount")

		open, err := st.ListOpen(testCtx(), testNow)
		require.NoError(t, err)
		assert.Empty(t, open, "nothing is persisted on validation failure")
	})

	testutil.When(t, "the amount is not a positive decimal", func(t *testing.T) {
		svc, _, _ := newTestService()

		for _, amount := range []string{"-5", "0", "abc"} {
			_, err := svc.Create(testCtx(), "agent-1", CreateParams{
				ShipmentID: "ship-1",
				Amount:     amount,
				Deadline:   testNow.Add(time.Hour),
			})
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "amount %q", amount)
		}
	})

	testutil.When(t, "the shipment does not exist", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Create(testCtx(), "agent-1", CreateParams{
			ShipmentID: "ghost",
			Amount:     "10",
			Deadline:   testNow.Add(time.Hour),
		})

		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSetStatus(t *testing.T) {
	testutil.Given(t, "a requested obligation", func(t *testing.T) {
		svc, _, notifier := newTestService()
		obligation := createObligation(t, svc)

		confirmed, err := svc.SetStatus(testCtx(), obligation.ID, "importer-1", models.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, confirmed.Status)

		completed, err := svc.SetStatus(testCtx(), obligation.ID, "agent-1", models.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, completed.Status)

		assert.Len(t, notifier.all(), 3)
	})

	testutil.Given(t, "a completed obligation", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)
		_, err := svc.SetStatus(testCtx(), obligation.ID, "importer-1", models.StatusConfirmed)
		require.NoError(t, err)
		_, err = svc.SetStatus(testCtx(), obligation.ID, "agent-1", models.StatusCompleted)
		require.NoError(t, err)

		_, err = svc.SetStatus(testCtx(), obligation.ID, "agent-1", models.StatusRejected)

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Contains(t, err.Error(), string(models.StatusCompleted))
	})

	testutil.When(t, "skipping the confirmation step", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)

		_, err := svc.SetStatus(testCtx(), obligation.ID, "importer-1", models.StatusCompleted)

		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Contains(t, err.Error(), string(models.StatusRequested))
	})

	testutil.When(t, "the status is unknown", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)

		_, err := svc.SetStatus(testCtx(), obligation.ID, "importer-1", "PAID")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestEdit(t *testing.T) {
	testutil.Given(t, "a requested obligation", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)

		edited, err := svc.Edit(testCtx(), obligation.ID, "agent-1", EditParams{Amount: "1750.50"})
		require.NoError(t, err)

		assert.Equal(t, "1750.50", edited.Amount)
		assert.Equal(t, obligation.Deadline, edited.Deadline, "unset fields are untouched")
	})

	testutil.Given(t, "a confirmed obligation", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)
		_, err := svc.SetStatus(testCtx(), obligation.ID, "importer-1", models.StatusConfirmed)
		require.NoError(t, err)

		_, err = svc.Edit(testCtx(), obligation.ID, "agent-1", EditParams{Amount: "1"})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Contains(t, err.Error(), string(models.StatusConfirmed))
	})
}

func TestDelete(t *testing.T) {
	testutil.Given(t, "a requested obligation", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)

		require.NoError(t, svc.Delete(testCtx(), obligation.ID, "agent-1"))

		_, err := svc.Get(testCtx(), obligation.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	testutil.Given(t, "a confirmed obligation", func(t *testing.T) {
		svc, _, _ := newTestService()
		obligation := createObligation(t, svc)
		_, err := svc.SetStatus(testCtx(), obligation.ID, "importer-1", models.StatusConfirmed)
		require.NoError(t, err)

		err = svc.Delete(testCtx(), obligation.ID, "agent-1")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestAddComment(t *testing.T) {
	svc, _, notifier := newTestService()
	obligation := createObligation(t, svc)

	withComment, err := svc.AddComment(testCtx(), obligation.ID, "importer-1", "Al Amri Imports", "paying tomorrow")
	require.NoError(t, err)

	require.Len(t, withComment.Comments, 1)
	assert.Equal(t, "paying tomorrow", withComment.Comments[0].Text)
	assert.Equal(t, "Al Amri Imports", withComment.Comments[0].AuthorName)

	last := notifier.all()[len(notifier.all())-1]
	assert.Equal(t, "agent-1", last.RecipientID, "the counterparty of the commenter is notified")

	_, err = svc.AddComment(testCtx(), obligation.ID, "importer-1", "Al Amri Imports", "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
