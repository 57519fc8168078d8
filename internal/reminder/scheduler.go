package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"clearway/internal/events"
	notifmodels "clearway/internal/notification/models"
	"clearway/internal/payment/models"
	"clearway/internal/platform/metrics"
	"clearway/pkg/requestcontext"
)

var tracer = otel.Tracer("clearway/reminder")

// ObligationSource lists the obligations still eligible for reminders:
// non-terminal status, deadline strictly in the future.
type ObligationSource interface {
	ListOpen(ctx context.Context, now time.Time) ([]*models.Obligation, error)
}

// History answers how many reminders an obligation already received inside a
// window. One or more means the current tier's reminder was already sent.
type History interface {
	CountSince(ctx context.Context, entityType notifmodels.EntityType, entityID string, window time.Duration, now time.Time) (int, error)
}

// Notifier dispatches the reminder notification.
type Notifier interface {
	CreateAndDispatch(ctx context.Context, n *notifmodels.Notification) error
}

// Stats summarizes one sweep.
type Stats struct {
	Scanned int64 `json:"scanned"`
	Sent    int64 `json:"sent"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// Scheduler runs reminder sweeps. One instance owns the sweep; it is not
// safe to run two sweeps against the same store concurrently.
type Scheduler struct {
	source      ObligationSource
	history     History
	notifier    Notifier
	logger      *slog.Logger
	tiers       []Tier
	itemTimeout time.Duration
	concurrency int
	metrics     *metrics.Metrics
	events      *events.Publisher
}

type Option func(*Scheduler)

func WithTiers(tiers []Tier) Option {
	return func(s *Scheduler) { s.tiers = tiers }
}

func WithItemTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.itemTimeout = d }
}

func WithConcurrency(n int) Option {
	return func(s *Scheduler) { s.concurrency = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithEvents(p *events.Publisher) Option {
	return func(s *Scheduler) { s.events = p }
}

func New(source ObligationSource, history History, notifier Notifier, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:      source,
		history:     history,
		notifier:    notifier,
		logger:      logger,
		tiers:       DefaultTiers,
		itemTimeout: 10 * time.Second,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunSweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "reminder sweep failed", "error", err)
			}
		}
	}
}

// RunSweep examines every open obligation once. A per-item failure is
// counted and logged; it never aborts the sweep.
func (s *Scheduler) RunSweep(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "reminder.sweep")
	defer span.End()

	now := requestcontext.Now(ctx).UTC()
	s.metrics.IncReminderSweep()

	open, err := s.source.ListOpen(ctx, now)
	if err != nil {
		return Stats{}, fmt.Errorf("list open obligations: %w", err)
	}

	var stats Stats
	stats.Scanned = int64(len(open))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, o := range open {
		o := o
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(gctx, s.itemTimeout)
			defer cancel()

			sent, err := s.remind(itemCtx, o, now)
			switch {
			case err != nil:
				atomic.AddInt64(&stats.Failed, 1)
				s.metrics.IncReminderItemFailure()
				s.logger.ErrorContext(itemCtx, "reminder item failed",
					"error", err,
					"payment_id", o.ID,
					"shipment_ref", o.ShipmentRef,
				)
			case sent:
				atomic.AddInt64(&stats.Sent, 1)
				s.metrics.IncReminderSent()
			default:
				atomic.AddInt64(&stats.Skipped, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int64("reminder.scanned", stats.Scanned),
		attribute.Int64("reminder.sent", stats.Sent),
		attribute.Int64("reminder.failed", stats.Failed),
	)
	s.logger.InfoContext(ctx, "reminder sweep complete",
		"scanned", stats.Scanned,
		"sent", stats.Sent,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return stats, nil
}

// remind sends one reminder for o unless the current tier's window already
// holds one. Returns whether a reminder was sent.
func (s *Scheduler) remind(ctx context.Context, o *models.Obligation, now time.Time) (bool, error) {
	remaining := o.Deadline.Sub(now)
	interval := TierFor(s.tiers, remaining)

	count, err := s.history.CountSince(ctx, notifmodels.EntityPayment, o.ID, interval, now)
	if err != nil {
		return false, fmt.Errorf("count recent reminders: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	n := &notifmodels.Notification{
		RecipientID: o.PayerID(),
		SenderID:    o.CounterpartyID(),
		Title:       fmt.Sprintf("%s: payment due for shipment %s", UrgencyLabel(remaining), o.ShipmentRef),
		Message: fmt.Sprintf("A payment of %s for shipment %s is due in %s.",
			o.Amount, o.ShipmentRef, FormatRemaining(remaining)),
		EntityType: notifmodels.EntityPayment,
		EntityID:   o.ID,
		ShipmentID: o.ShipmentID,
	}
	if err := s.notifier.CreateAndDispatch(ctx, n); err != nil {
		return false, fmt.Errorf("dispatch reminder: %w", err)
	}

	s.events.Emit(ctx, events.Event{
		Kind:       "payment.reminder_sent",
		EntityType: string(notifmodels.EntityPayment),
		EntityID:   o.ID,
		Status:     string(o.Status),
		OccurredAt: now,
	})
	return true, nil
}
