package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clearway/internal/platform/metrics"
	"clearway/internal/platform/middleware"
)

// Registrar is anything that mounts routes on the router. Feature handlers
// satisfy it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func() error

// RouterConfig assembles the HTTP surface.
type RouterConfig struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.TokenValidator
	Timeout   time.Duration
	Handlers  []Registrar
	// StreamHandlers mount long-lived routes (server-sent events) that must
	// not sit behind the request timeout: http.TimeoutHandler's writer does
	// not flush.
	StreamHandlers []Registrar
	Health         map[string]HealthChecker
}

// NewRouter builds the full middleware chain and mounts every handler.
// /healthz and /metrics sit outside the auth boundary.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger, cfg.Metrics))

	r.Get("/healthz", healthHandler(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Timeout))
		r.Use(middleware.RequireActor(cfg.Validator, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor(cfg.Validator, cfg.Logger))
		for _, h := range cfg.StreamHandlers {
			h.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		WriteJSON(w, status, body)
	}
}
