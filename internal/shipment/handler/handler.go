// Package handler exposes the shipment lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clearway/internal/shipment/models"
	"clearway/internal/shipment/service"
	"clearway/internal/transport/httpapi"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
)

// Service is the slice of the shipment service the handler needs.
type Service interface {
	Create(ctx context.Context, actorID string, p service.CreateParams) (*models.Shipment, error)
	Get(ctx context.Context, id string) (*models.Shipment, error)
	List(ctx context.Context, partyID string) ([]*models.Shipment, error)
	Accept(ctx context.Context, shipmentID, actorID, note string) (*models.Shipment, error)
	Reject(ctx context.Context, shipmentID, actorID, note string) (*models.Shipment, error)
	RecordUpdate(ctx context.Context, shipmentID, actorID string, newStatus models.Status, note, attachmentRef string) (*models.Shipment, error)
}

// Watchlist grants email subscriptions on a shipment.
type Watchlist interface {
	Add(ctx context.Context, shipmentID, email string) error
}

type Handler struct {
	service  Service
	watchers Watchlist
	logger   *slog.Logger
}

func New(service Service, watchers Watchlist, logger *slog.Logger) *Handler {
	return &Handler{service: service, watchers: watchers, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/shipments", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/accept", h.accept)
		r.Post("/{id}/reject", h.reject)
		r.Post("/{id}/updates", h.recordUpdate)
		r.Post("/{id}/watchers", h.addWatcher)
	})
}

type createRequest struct {
	Reference      string `json:"reference"`
	ImporterID     string `json:"importer_id"`
	AgentID        string `json:"agent_id"`
	PaymentPartner string `json:"payment_partner"`
	Note           string `json:"note"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	shipment, err := h.service.Create(r.Context(), requestcontext.ActorID(r.Context()), service.CreateParams{
		Reference:      req.Reference,
		ImporterID:     req.ImporterID,
		AgentID:        req.AgentID,
		PaymentPartner: models.PaymentPartner(req.PaymentPartner),
		Note:           req.Note,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, shipment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.service.List(r.Context(), requestcontext.ActorID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, shipments)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	shipment, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, shipment)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	shipment, err := h.service.Accept(r.Context(), chi.URLParam(r, "id"), requestcontext.ActorID(r.Context()), req.Note)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, shipment)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	shipment, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), requestcontext.ActorID(r.Context()), req.Note)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, shipment)
}

type updateRequest struct {
	Status        string `json:"status"`
	Note          string `json:"note"`
	AttachmentRef string `json:"attachment_ref"`
}

func (h *Handler) recordUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	shipment, err := h.service.RecordUpdate(r.Context(), chi.URLParam(r, "id"),
		requestcontext.ActorID(r.Context()), models.Status(req.Status), req.Note, req.AttachmentRef)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, shipment)
}

type watcherRequest struct {
	Email string `json:"email"`
}

func (h *Handler) addWatcher(w http.ResponseWriter, r *http.Request) {
	var req watcherRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if req.Email == "" {
		httpapi.WriteError(w, r, h.logger, dErrors.New(dErrors.CodeValidation, "email is required"))
		return
	}
	if err := h.watchers.Add(r.Context(), chi.URLParam(r, "id"), req.Email); err != nil {
		httpapi.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "add watcher"))
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
