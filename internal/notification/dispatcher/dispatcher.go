// Package dispatcher persists notifications and fans them out: a live event
// to the recipient, then best-effort emails to any watchers of the
// originating shipment. Persistence is the only step whose failure reaches
// the caller.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"clearway/internal/events"
	"clearway/internal/livebus"
	"clearway/internal/mailer"
	"clearway/internal/notification/models"
	"clearway/internal/platform/metrics"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
)

var tracer = otel.Tracer("clearway/notification/dispatcher")

// Store is the slice of the notification store the dispatcher needs.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
}

// WatchResolver answers which email addresses watch a shipment.
type WatchResolver interface {
	Resolve(ctx context.Context, shipmentID string) ([]string, error)
}

// Dispatcher implements the create-and-dispatch contract.
type Dispatcher struct {
	store    Store
	bus      livebus.Bus
	sender   mailer.Sender
	watchers WatchResolver
	events   *events.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Dispatcher)

func WithEvents(p *events.Publisher) Option {
	return func(d *Dispatcher) { d.events = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func New(store Store, bus livebus.Bus, sender mailer.Sender, watchers WatchResolver, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		bus:      bus,
		sender:   sender,
		watchers: watchers,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateAndDispatch persists n, emits a live event to the recipient, and
// best-effort emails the shipment's watchers. Only a persistence failure is
// returned; everything after the record exists is logged, never propagated.
func (d *Dispatcher) CreateAndDispatch(ctx context.Context, n *models.Notification) error {
	ctx, span := tracer.Start(ctx, "notification.dispatch")
	defer span.End()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = requestcontext.Now(ctx).UTC()
	}
	span.SetAttributes(
		attribute.String("notification.entity_type", string(n.EntityType)),
		attribute.String("notification.entity_id", n.EntityID),
	)

	if err := d.store.Create(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist notification")
	}
	d.metrics.IncNotificationsCreated()

	if err := d.bus.Publish(ctx, n.RecipientID, livebus.Event{
		NotificationID: n.ID,
		Title:          n.Title,
		Message:        n.Message,
		EntityType:     string(n.EntityType),
		EntityID:       n.EntityID,
		CreatedAt:      n.CreatedAt,
	}); err != nil {
		d.logger.ErrorContext(ctx, "live event emission failed",
			"error", err,
			"notification_id", n.ID,
			"recipient_id", n.RecipientID,
		)
	}

	d.events.Emit(ctx, events.Event{
		Kind:       "notification.created",
		EntityType: string(n.EntityType),
		EntityID:   n.EntityID,
		ActorID:    n.SenderID,
		OccurredAt: n.CreatedAt,
	})

	if n.ShipmentID != "" {
		d.emailWatchers(ctx, n)
	}
	return nil
}

// emailWatchers sends one email per watcher address, each attempted
// independently. Failures are logged and swallowed.
func (d *Dispatcher) emailWatchers(ctx context.Context, n *models.Notification) {
	addresses, err := d.watchers.Resolve(ctx, n.ShipmentID)
	if err != nil {
		d.logger.ErrorContext(ctx, "watch list resolution failed",
			"error", err,
			"shipment_id", n.ShipmentID,
		)
		return
	}
	body := fmt.Sprintf("%s\n\n%s", n.Title, n.Message)
	for _, to := range addresses {
		d.metrics.IncEmailAttempted()
		if err := d.sender.Send(ctx, to, n.Title, body); err != nil {
			d.metrics.IncEmailFailed()
			d.logger.WarnContext(ctx, "watcher email failed",
				"error", err,
				"to", to,
				"shipment_id", n.ShipmentID,
			)
		}
	}
}
