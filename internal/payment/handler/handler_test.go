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

	"clearway/internal/payment/models"
	"clearway/internal/payment/service"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
)

type stubService struct {
	obligation *models.Obligation
	err        error

	gotStatus models.Status
	deleted   string
}

func (s *stubService) Create(context.Context, string, service.CreateParams) (*models.Obligation, error) {
	return s.obligation, s.err
}

func (s *stubService) Get(context.Context, string) (*models.Obligation, error) {
	return s.obligation, s.err
}

func (s *stubService) List(context.Context, string) ([]*models.Obligation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Obligation{s.obligation}, nil
}

func (s *stubService) Edit(context.Context, string, string, service.EditParams) (*models.Obligation, error) {
	return s.obligation, s.err
}

func (s *stubService) Delete(_ context.Context, id, _ string) error {
	s.deleted = id
	return s.err
}

func (s *stubService) SetStatus(_ context.Context, _, _ string, to models.Status) (*models.Obligation, error) {
	s.gotStatus = to
	return s.obligation, s.err
}

func (s *stubService) AddComment(context.Context, string, string, string, string) (*models.Obligation, error) {
	return s.obligation, s.err
}

func newTestRouter(svc *stubService) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithActorID(req.Context(), "importer-1")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestCreatePayment(t *testing.T) {
	svc := &stubService{obligation: &models.Obligation{ID: "pay-1", Status: models.StatusRequested}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments",
		strings.NewReader(`{"shipment_id":"ship-1","amount":"1500.00","deadline":"2025-06-03T12:00:00Z"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body models.Obligation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pay-1", body.ID)
}

func TestCreatePaymentValidationErrorIs400(t *testing.T) {
	svc := &stubService{err: dErrors.Newf(dErrors.CodeValidation, "missing required fields: [amount]")}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments",
		strings.NewReader(`{"shipment_id":"ship-1","deadline":"2025-06-03T12:00:00Z"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "amount")
}

func TestSetStatus(t *testing.T) {
	svc := &stubService{obligation: &models.Obligation{ID: "pay-1", Status: models.StatusConfirmed}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments/pay-1/status",
		strings.NewReader(`{"status":"CONFIRMED"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusConfirmed, svc.gotStatus)
}

func TestSetStatusInvalidTransitionIs409(t *testing.T) {
	svc := &stubService{err: dErrors.Newf(dErrors.CodeInvalidState, "cannot move payment from COMPLETED to REJECTED")}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments/pay-1/status",
		strings.NewReader(`{"status":"REJECTED"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMPLETED")
}

func TestDeletePayment(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/payments/pay-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "pay-1", svc.deleted)
}

func TestAddCommentRequiresText(t *testing.T) {
	router := newTestRouter(&stubService{obligation: &models.Obligation{ID: "pay-1"}})

	req := httptest.NewRequest(http.MethodPost, "/payments/pay-1/comments",
		strings.NewReader(`{"author_name":"Al Amri Imports"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
