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
	"clearway/internal/shipment/models"
	"clearway/internal/shipment/store"
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

func newTestService() (*Service, *store.MemoryStore, *recordingNotifier) {
	st := store.NewMemory()
	notifier := &recordingNotifier{}
	svc := New(st, notifier, slog.New(slog.DiscardHandler))
	return svc, st, notifier
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func createShipment(t *testing.T, svc *Service) *models.Shipment {
	t.Helper()
	shipment, err := svc.Create(testCtx(), "importer-1", CreateParams{
		Reference:  "BAYAN-1001",
		ImporterID: "importer-1",
		AgentID:    "agent-1",
	})
	require.NoError(t, err)
	return shipment
}

func TestCreate(t *testing.T) {
	svc, _, notifier := newTestService()

	testutil.When(t, "all required fields are present", func(t *testing.T) {
		shipment := createShipment(t, svc)

		assert.Equal(t, models.StatusAssigned, shipment.Status)
		assert.False(t, shipment.IsAccepted)
		assert.False(t, shipment.IsCompleted)
		require.Len(t, notifier.all(), 1)
		assert.Equal(t, "agent-1", notifier.all()[0].RecipientID)
	})

	testutil.When(t, "required fields are missing", func(t *testing.T) {
		_, err := svc.Create(testCtx(), "importer-1", CreateParams{Reference: "BAYAN-1002"})

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "importer_id")
		assert.Contains(t, err.Error(), "agent_id")
	})
}

func TestAccept(t *testing.T) {
	testutil.Given(t, "an unaccepted shipment", func(t *testing.T) {
		svc, _, notifier := newTestService()
		shipment := createShipment(t, svc)

		accepted, err := svc.Accept(testCtx(), shipment.ID, "agent-1", "taking this one")
		require.NoError(t, err)

		assert.True(t, accepted.IsAccepted)
		assert.Equal(t, models.StatusAtPort, accepted.Status)
		require.Len(t, accepted.Timeline, 1)
		assert.Equal(t, "agent-1", accepted.Timeline[0].AuthorID)
		// create + accept
		assert.Len(t, notifier.all(), 2)
	})

	testutil.Given(t, "an already accepted shipment", func(t *testing.T) {
		svc, _, _ := newTestService()
		shipment := createShipment(t, svc)
		_, err := svc.Accept(testCtx(), shipment.ID, "agent-1", "")
		require.NoError(t, err)

		_, err = svc.Accept(testCtx(), shipment.ID, "agent-1", "again")

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Contains(t, err.Error(), string(models.StatusAtPort))
	})

	testutil.Given(t, "a missing shipment", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Accept(testCtx(), "nope", "agent-1", "")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestAcceptConcurrent(t *testing.T) {
	svc, _, _ := newTestService()
	shipment := createShipment(t, svc)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Accept(testCtx(), shipment.ID, "agent-1", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent accept may win")
}

func TestReject(t *testing.T) {
	testutil.Given(t, "an unaccepted shipment", func(t *testing.T) {
		svc, _, _ := newTestService()
		shipment := createShipment(t, svc)

		rejected, err := svc.Reject(testCtx(), shipment.ID, "agent-1", "wrong port")
		require.NoError(t, err)

		assert.Equal(t, models.StatusRejected, rejected.Status)
		assert.False(t, rejected.IsAccepted)
	})

	testutil.Given(t, "an accepted shipment", func(t *testing.T) {
		svc, _, _ := newTestService()
		shipment := createShipment(t, svc)
		_, err := svc.Accept(testCtx(), shipment.ID, "agent-1", "")
		require.NoError(t, err)

		_, err = svc.Reject(testCtx(), shipment.ID, "agent-1", "changed my mind")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func TestRecordUpdate(t *testing.T) {
	testutil.Given(t, "an accepted shipment", func(t *testing.T) {
		svc, _, notifier := newTestService()
		shipment := createShipment(t, svc)
		_, err := svc.Accept(testCtx(), shipment.ID, "agent-1", "")
		require.NoError(t, err)

		updated, err := svc.RecordUpdate(testCtx(), shipment.ID, "agent-1",
			models.StatusClearingInProgress, "docs filed", "s3://docs/1")
		require.NoError(t, err)

		assert.Equal(t, models.StatusClearingInProgress, updated.Status)
		require.Len(t, updated.Timeline, 2)
		assert.Equal(t, "s3://docs/1", updated.Timeline[1].AttachmentRef)
		last := notifier.all()[len(notifier.all())-1]
		assert.Equal(t, "importer-1", last.RecipientID)
	})

	testutil.Given(t, "an unaccepted shipment", func(t *testing.T) {
		svc, _, _ := newTestService()
		shipment := createShipment(t, svc)

		_, err := svc.RecordUpdate(testCtx(), shipment.ID, "agent-1",
			models.StatusClearingInProgress, "too early", "")

		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Contains(t, err.Error(), string(models.StatusAssigned))
	})

	testutil.When(t, "the update completes customs", func(t *testing.T) {
		svc, _, _ := newTestService()
		shipment := createShipment(t, svc)
		_, err := svc.Accept(testCtx(), shipment.ID, "agent-1", "")
		require.NoError(t, err)

		completed, err := svc.RecordUpdate(testCtx(), shipment.ID, "agent-1",
			models.StatusCompletedByCustoms, "cleared", "")
		require.NoError(t, err)
		assert.True(t, completed.IsCompleted)

		// nothing may follow completion
		_, err = svc.RecordUpdate(testCtx(), shipment.ID, "agent-1",
			models.StatusInTransit, "late", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	testutil.When(t, "the status is unknown", func(t *testing.T) {
		svc, _, _ := newTestService()
		shipment := createShipment(t, svc)

		_, err := svc.RecordUpdate(testCtx(), shipment.ID, "agent-1", "BOGUS", "", "")

		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
