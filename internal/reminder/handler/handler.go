// Package handler exposes a manual trigger for the reminder sweep, used by
// operators and the scheduler's cron fallback.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clearway/internal/reminder"
	"clearway/internal/transport/httpapi"
	dErrors "clearway/pkg/domain-errors"
)

// Sweeper runs one reminder sweep.
type Sweeper interface {
	RunSweep(ctx context.Context) (reminder.Stats, error)
}

type Handler struct {
	sweeper Sweeper
	logger  *slog.Logger
}

func New(sweeper Sweeper, logger *slog.Logger) *Handler {
	return &Handler{sweeper: sweeper, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/internal/reminders/sweep", h.sweep)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sweeper.RunSweep(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, dErrors.Wrap(err, dErrors.CodeInternal, "reminder sweep"))
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, stats)
}
