// Package handler exposes notification history and the live event stream.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clearway/internal/livebus"
	"clearway/internal/notification/models"
	"clearway/internal/transport/httpapi"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
	"clearway/pkg/sentinel"
)

// Store is the slice of the notification store the handler needs.
type Store interface {
	ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type Handler struct {
	store  Store
	bus    livebus.Bus
	logger *slog.Logger
}

func New(store Store, bus livebus.Bus, logger *slog.Logger) *Handler {
	return &Handler{store: store, bus: bus, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/unread", h.listUnread)
		r.Post("/{id}/read", h.markRead)
	})
}

// StreamRegistrar mounts the long-lived SSE route. Kept separate from
// Register so the router can exempt it from the request timeout.
type StreamRegistrar struct{ H *Handler }

func (s StreamRegistrar) Register(r chi.Router) {
	r.Get("/notifications/stream", s.H.stream)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.store.ListByRecipient(r.Context(), requestcontext.ActorID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "list notifications"))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) listUnread(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.store.ListUnread(r.Context(), requestcontext.ActorID(r.Context()))
	if err != nil {
		httpapi.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "list unread notifications"))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.store.MarkRead(r.Context(), id, requestcontext.ActorID(r.Context()))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httpapi.WriteError(w, r, h.logger, dErrors.Newf(dErrors.CodeNotFound, "notification %s not found", id))
			return
		}
		httpapi.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "mark notification read"))
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

// stream pushes the recipient's live events as server-sent events until the
// client disconnects.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpapi.WriteError(w, r, h.logger, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	recipientID := requestcontext.ActorID(r.Context())
	events, cancel, err := h.bus.Subscribe(r.Context(), recipientID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "subscribe live events"))
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.ErrorContext(r.Context(), "marshal live event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
