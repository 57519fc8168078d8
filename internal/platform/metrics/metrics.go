package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Methods are safe
// on a nil receiver so unit tests can pass nil instead of wiring a registry.
type Metrics struct {
	HTTPDuration *prometheus.HistogramVec

	ShipmentTransitions *prometheus.CounterVec
	PaymentTransitions  *prometheus.CounterVec

	NotificationsCreated prometheus.Counter
	EmailsAttempted      prometheus.Counter
	EmailsFailed         prometheus.Counter

	ReminderSweeps       prometheus.Counter
	RemindersSent        prometheus.Counter
	ReminderItemFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clearway_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		ShipmentTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearway_shipment_transitions_total",
			Help: "Shipment status transitions by target status.",
		}, []string{"status"}),
		PaymentTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "clearway_payment_transitions_total",
			Help: "Payment obligation status transitions by target status.",
		}, []string{"status"}),
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearway_notifications_created_total",
			Help: "Notifications persisted and dispatched.",
		}),
		EmailsAttempted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearway_watcher_emails_attempted_total",
			Help: "Best-effort watcher email sends attempted.",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearway_watcher_emails_failed_total",
			Help: "Watcher email sends that failed (logged, not retried).",
		}),
		ReminderSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearway_reminder_sweeps_total",
			Help: "Reminder sweeps executed.",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearway_reminders_sent_total",
			Help: "Reminder notifications created by the scheduler.",
		}),
		ReminderItemFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clearway_reminder_item_failures_total",
			Help: "Obligations skipped in a sweep due to per-item errors.",
		}),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, path, statusLabel(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) IncShipmentTransition(status string) {
	if m == nil {
		return
	}
	m.ShipmentTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncPaymentTransition(status string) {
	if m == nil {
		return
	}
	m.PaymentTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncNotificationsCreated() {
	if m == nil {
		return
	}
	m.NotificationsCreated.Inc()
}

func (m *Metrics) IncEmailAttempted() {
	if m == nil {
		return
	}
	m.EmailsAttempted.Inc()
}

func (m *Metrics) IncEmailFailed() {
	if m == nil {
		return
	}
	m.EmailsFailed.Inc()
}

func (m *Metrics) IncReminderSweep() {
	if m == nil {
		return
	}
	m.ReminderSweeps.Inc()
}

func (m *Metrics) IncReminderSent() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

func (m *Metrics) IncReminderItemFailure() {
	if m == nil {
		return
	}
	m.ReminderItemFailures.Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
