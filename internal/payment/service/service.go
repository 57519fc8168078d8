// Package service enforces the payment obligation lifecycle. Status moves are
// monotonic and validated against the transition table; edits and deletes are
// legal only while an obligation is still REQUESTED.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clearway/internal/events"
	notifmodels "clearway/internal/notification/models"
	"clearway/internal/payment/models"
	"clearway/internal/payment/store"
	"clearway/internal/platform/metrics"
	shipmodels "clearway/internal/shipment/models"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
	"clearway/pkg/sentinel"
)

// Notifier dispatches a notification. Failures are logged, never surfaced to
// the caller of the state change.
type Notifier interface {
	CreateAndDispatch(ctx context.Context, n *notifmodels.Notification) error
}

// ShipmentSource resolves the shipment an obligation attaches to.
type ShipmentSource interface {
	Get(ctx context.Context, id string) (*shipmodels.Shipment, error)
}

// Service is the payment obligation lifecycle engine.
type Service struct {
	store     store.Store
	shipments ShipmentSource
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	events    *events.Publisher
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithEvents(p *events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func New(st store.Store, shipments ShipmentSource, notifier Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: st, shipments: shipments, notifier: notifier, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries the fields needed to request a payment.
type CreateParams struct {
	ShipmentID     string
	Amount         string
	Deadline       time.Time
	PaymentPartner models.Payer
	Description    string
}

// Create validates the request, denormalizes the shipment parties onto the
// obligation, and notifies the paying party. Validation failures persist
// nothing.
func (s *Service) Create(ctx context.Context, actorID string, p CreateParams) (*models.Obligation, error) {
	var missing []string
	if p.ShipmentID == "" {
		missing = append(missing, "shipment_id")
	}
	if p.Amount == "" {
		missing = append(missing, "amount")
	}
	if p.Deadline.IsZero() {
		missing = append(missing, "deadline")
	}
	if len(missing) > 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "missing required fields: %v", missing)
	}
	if !models.ValidAmount(p.Amount) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "amount %q is not a positive decimal", p.Amount)
	}
	if p.PaymentPartner == "" {
		p.PaymentPartner = models.PayerImporter
	}
	if !p.PaymentPartner.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment partner %q", p.PaymentPartner)
	}

	shipment, err := s.shipments.Get(ctx, p.ShipmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "shipment %s not found", p.ShipmentID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve shipment")
	}

	now := requestcontext.Now(ctx).UTC()
	obligation := &models.Obligation{
		ID:             uuid.NewString(),
		ShipmentID:     shipment.ID,
		ShipmentRef:    shipment.Reference,
		ImporterID:     shipment.ImporterID,
		AgentID:        shipment.AgentID,
		Amount:         p.Amount,
		Deadline:       p.Deadline.UTC(),
		Status:         models.StatusRequested,
		PaymentPartner: p.PaymentPartner,
		Description:    p.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, obligation); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create payment obligation")
	}
	s.metrics.IncPaymentTransition(string(models.StatusRequested))
	s.emit(ctx, "payment.requested", obligation, actorID)

	s.notify(ctx, obligation, actorID, "Payment requested",
		fmt.Sprintf("A payment of %s was requested for shipment %s.", obligation.Amount, obligation.ShipmentRef))
	return obligation, nil
}

// Get returns one obligation with its comments.
func (s *Service) Get(ctx context.Context, id string) (*models.Obligation, error) {
	obligation, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return obligation, nil
}

// List returns the obligations a party is importer or agent on.
func (s *Service) List(ctx context.Context, partyID string) ([]*models.Obligation, error) {
	obligations, err := s.store.ListByParty(ctx, partyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list payment obligations")
	}
	return obligations, nil
}

// EditParams carries the mutable fields of a REQUESTED obligation. Zero
// values leave the current value in place.
type EditParams struct {
	Amount      string
	Deadline    time.Time
	Description string
}

// Edit updates amount, deadline, or description. Legal only while the
// obligation is still REQUESTED.
func (s *Service) Edit(ctx context.Context, id, actorID string, p EditParams) (*models.Obligation, error) {
	if p.Amount != "" && !models.ValidAmount(p.Amount) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "amount %q is not a positive decimal", p.Amount)
	}

	now := requestcontext.Now(ctx).UTC()
	obligation, err := s.store.Mutate(ctx, id, func(o *models.Obligation) error {
		if o.Status != models.StatusRequested {
			return dErrors.Newf(dErrors.CodeInvalidState, "cannot edit payment in status %s", o.Status)
		}
		if p.Amount != "" {
			o.Amount = p.Amount
		}
		if !p.Deadline.IsZero() {
			o.Deadline = p.Deadline.UTC()
		}
		if p.Description != "" {
			o.Description = p.Description
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, translate(err, id)
	}
	s.emit(ctx, "payment.edited", obligation, actorID)

	s.notify(ctx, obligation, actorID, "Payment request updated",
		fmt.Sprintf("The payment request for shipment %s was updated.", obligation.ShipmentRef))
	return obligation, nil
}

// Delete removes an obligation. Legal only while it is still REQUESTED.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	err := s.store.Delete(ctx, id, func(o *models.Obligation) error {
		if o.Status != models.StatusRequested {
			return dErrors.Newf(dErrors.CodeInvalidState, "cannot delete payment in status %s", o.Status)
		}
		return nil
	})
	if err != nil {
		return translate(err, id)
	}
	s.emit(ctx, "payment.deleted", &models.Obligation{ID: id}, actorID)
	return nil
}

// SetStatus moves an obligation along the transition table and notifies the
// counterparty. Illegal moves name the current status.
func (s *Service) SetStatus(ctx context.Context, id, actorID string, to models.Status) (*models.Obligation, error) {
	if !to.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment status %q", to)
	}

	now := requestcontext.Now(ctx).UTC()
	obligation, err := s.store.Mutate(ctx, id, func(o *models.Obligation) error {
		if !o.Status.CanTransition(to) {
			return dErrors.Newf(dErrors.CodeInvalidState, "cannot move payment from %s to %s", o.Status, to)
		}
		o.Status = to
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, translate(err, id)
	}
	s.metrics.IncPaymentTransition(string(to))
	s.emit(ctx, "payment.status_changed", obligation, actorID)

	s.notify(ctx, obligation, actorID, fmt.Sprintf("Payment %s", strings.ToLower(string(to))),
		fmt.Sprintf("The payment of %s for shipment %s is now %s.", obligation.Amount, obligation.ShipmentRef, to))
	return obligation, nil
}

// AddComment appends a comment to an obligation's thread. Comments stay open
// on terminal obligations; only the status is frozen.
func (s *Service) AddComment(ctx context.Context, id, actorID, authorName, text string) (*models.Obligation, error) {
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment text is required")
	}

	now := requestcontext.Now(ctx).UTC()
	obligation, err := s.store.Mutate(ctx, id, func(o *models.Obligation) error {
		o.Comments = append(o.Comments, models.Comment{
			ID:         uuid.NewString(),
			AuthorID:   actorID,
			AuthorName: authorName,
			Text:       text,
			CreatedAt:  now,
		})
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, translate(err, id)
	}

	s.notify(ctx, obligation, actorID, "New payment comment",
		fmt.Sprintf("%s commented on the payment for shipment %s.", authorName, obligation.ShipmentRef))
	return obligation, nil
}

// notify targets the party opposite the acting user, logging on failure.
func (s *Service) notify(ctx context.Context, o *models.Obligation, actorID, title, message string) {
	recipient := o.PayerID()
	if recipient == actorID {
		recipient = o.CounterpartyID()
	}
	n := &notifmodels.Notification{
		RecipientID: recipient,
		SenderID:    actorID,
		Title:       title,
		Message:     message,
		EntityType:  notifmodels.EntityPayment,
		EntityID:    o.ID,
		ShipmentID:  o.ShipmentID,
	}
	if err := s.notifier.CreateAndDispatch(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "payment notification dispatch failed",
			"error", err,
			"payment_id", o.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) emit(ctx context.Context, kind string, o *models.Obligation, actorID string) {
	s.events.Emit(ctx, events.Event{
		Kind:       kind,
		EntityType: string(notifmodels.EntityPayment),
		EntityID:   o.ID,
		ActorID:    actorID,
		Status:     string(o.Status),
		OccurredAt: o.UpdatedAt,
	})
}

// translate maps store sentinels onto coded domain errors.
func translate(err error, id string) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeInvalidState):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "payment %s not found", id)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "payment store")
	}
}
