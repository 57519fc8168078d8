package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearway/internal/shipment/models"
	"clearway/internal/shipment/service"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
)

type stubService struct {
	shipment *models.Shipment
	err      error

	gotActor  string
	gotStatus models.Status
}

func (s *stubService) Create(_ context.Context, actorID string, _ service.CreateParams) (*models.Shipment, error) {
	s.gotActor = actorID
	return s.shipment, s.err
}

func (s *stubService) Get(context.Context, string) (*models.Shipment, error) {
	return s.shipment, s.err
}

func (s *stubService) List(context.Context, string) ([]*models.Shipment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Shipment{s.shipment}, nil
}

func (s *stubService) Accept(_ context.Context, _, actorID, _ string) (*models.Shipment, error) {
	s.gotActor = actorID
	return s.shipment, s.err
}

func (s *stubService) Reject(_ context.Context, _, actorID, _ string) (*models.Shipment, error) {
	s.gotActor = actorID
	return s.shipment, s.err
}

func (s *stubService) RecordUpdate(_ context.Context, _, actorID string, status models.Status, _, _ string) (*models.Shipment, error) {
	s.gotActor = actorID
	s.gotStatus = status
	return s.shipment, s.err
}

type stubWatchlist struct {
	added map[string]string
}

func (w *stubWatchlist) Add(_ context.Context, shipmentID, email string) error {
	if w.added == nil {
		w.added = make(map[string]string)
	}
	w.added[shipmentID] = email
	return nil
}

func newTestRouter(svc *stubService, watchers *stubWatchlist) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActorID(req.Context(), "agent-1")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, watchers, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestCreateShipment(t *testing.T) {
	svc := &stubService{shipment: &models.Shipment{ID: "ship-1", Status: models.StatusAssigned}}
	router := newTestRouter(svc, &stubWatchlist{})

	req := httptest.NewRequest(http.MethodPost, "/shipments",
		strings.NewReader(`{"reference":"BAYAN-1","importer_id":"importer-1","agent_id":"agent-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "agent-1", svc.gotActor, "actor comes from the request context")

	var body models.Shipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ship-1", body.ID)
}

func TestCreateShipmentRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubWatchlist{})

	req := httptest.NewRequest(http.MethodPost, "/shipments", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestAcceptMapsInvalidStateTo409(t *testing.T) {
	svc := &stubService{err: dErrors.Newf(dErrors.CodeInvalidState, "cannot accept shipment in status AT_PORT")}
	router := newTestRouter(svc, &stubWatchlist{})

	req := httptest.NewRequest(http.MethodPost, "/shipments/ship-1/accept", strings.NewReader(`{"note":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "AT_PORT", "the current status is named in the response")
}

func TestRecordUpdatePassesStatus(t *testing.T) {
	svc := &stubService{shipment: &models.Shipment{ID: "ship-1", Status: models.StatusOnHoldByCustoms}}
	router := newTestRouter(svc, &stubWatchlist{})

	req := httptest.NewRequest(http.MethodPost, "/shipments/ship-1/updates",
		strings.NewReader(`{"status":"ON_HOLD_BY_CUSTOMS","note":"customs query"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusOnHoldByCustoms, svc.gotStatus)
}

func TestGetMapsNotFoundTo404(t *testing.T) {
	svc := &stubService{err: dErrors.Newf(dErrors.CodeNotFound, "shipment ghost not found")}
	router := newTestRouter(svc, &stubWatchlist{})

	req := httptest.NewRequest(http.MethodGet, "/shipments/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddWatcher(t *testing.T) {
	watchers := &stubWatchlist{}
	router := newTestRouter(&stubService{}, watchers)

	req := httptest.NewRequest(http.MethodPost, "/shipments/ship-1/watchers",
		strings.NewReader(`{"email":"ops@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ops@example.com", watchers.added["ship-1"])

	req = httptest.NewRequest(http.MethodPost, "/shipments/ship-1/watchers", strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
