// Package handler exposes the payment obligation lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clearway/internal/payment/models"
	"clearway/internal/payment/service"
	"clearway/internal/transport/httpapi"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
)

// Service is the slice of the payment service the handler needs.
type Service interface {
	Create(ctx context.Context, actorID string, p service.CreateParams) (*models.Obligation, error)
	Get(ctx context.Context, id string) (*models.Obligation, error)
	List(ctx context.Context, partyID string) ([]*models.Obligation, error)
	Edit(ctx context.Context, id, actorID string, p service.EditParams) (*models.Obligation, error)
	Delete(ctx context.Context, id, actorID string) error
	SetStatus(ctx context.Context, id, actorID string, to models.Status) (*models.Obligation, error)
	AddComment(ctx context.Context, id, actorID, authorName, text string) (*models.Obligation, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.edit)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/status", h.setStatus)
		r.Post("/{id}/comments", h.addComment)
	})
}

type createRequest struct {
	ShipmentID     string    `json:"shipment_id"`
	Amount         string    `json:"amount"`
	Deadline       time.Time `json:"deadline"`
	PaymentPartner string    `json:"payment_partner"`
	Description    string    `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	obligation, err := h.service.Create(r.Context(), requestcontext.ActorID(r.Context()), service.CreateParams{
		ShipmentID:     req.ShipmentID,
		Amount:         req.Amount,
		Deadline:       req.Deadline,
		PaymentPartner: models.Payer(req.PaymentPartner),
		Description:    req.Description,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, obligation)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	obligations, err := h.service.List(r.Context(), requestcontext.ActorID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, obligations)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	obligation, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, obligation)
}

type editRequest struct {
	Amount      string    `json:"amount"`
	Deadline    time.Time `json:"deadline"`
	Description string    `json:"description"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	obligation, err := h.service.Edit(r.Context(), chi.URLParam(r, "id"), requestcontext.ActorID(r.Context()), service.EditParams{
		Amount:      req.Amount,
		Deadline:    req.Deadline,
		Description: req.Description,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, obligation)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), requestcontext.ActorID(r.Context())); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	obligation, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"),
		requestcontext.ActorID(r.Context()), models.Status(req.Status))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, obligation)
}

type commentRequest struct {
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if req.Text == "" {
		httpapi.WriteError(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "comment text is required"))
		return
	}
	obligation, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"),
		requestcontext.ActorID(r.Context()), req.AuthorName, req.Text)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, obligation)
}
