// Package service enforces the shipment lifecycle: acceptance, rejection,
// and customs progress updates. Every guarded mutation runs through the
// store's atomic Mutate so concurrent calls on one shipment serialize and
// exactly one sees its precondition hold.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clearway/internal/events"
	notifmodels "clearway/internal/notification/models"
	"clearway/internal/platform/metrics"
	"clearway/internal/shipment/models"
	"clearway/internal/shipment/store"
	dErrors "clearway/pkg/domain-errors"
	"clearway/pkg/requestcontext"
	"clearway/pkg/sentinel"
)

// Notifier dispatches a notification. Dispatch is decoupled from the state
// change: the service logs notifier failures and never rolls back.
type Notifier interface {
	CreateAndDispatch(ctx context.Context, n *notifmodels.Notification) error
}

// Service is the shipment lifecycle engine.
type Service struct {
	store    store.Store
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	events   *events.Publisher
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithEvents(p *events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func New(st store.Store, notifier Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: st, notifier: notifier, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries the fields needed to open a shipment case.
type CreateParams struct {
	Reference      string
	ImporterID     string
	AgentID        string
	PaymentPartner models.PaymentPartner
	Note           string
}

// Create opens a new shipment in ASSIGNED status and notifies the agent.
func (s *Service) Create(ctx context.Context, actorID string, p CreateParams) (*models.Shipment, error) {
	var missing []string
	if p.Reference == "" {
		missing = append(missing, "reference")
	}
	if p.ImporterID == "" {
		missing = append(missing, "importer_id")
	}
	if p.AgentID == "" {
		missing = append(missing, "agent_id")
	}
	if len(missing) > 0 {
		return nil, dErrors.Newf(dErrors.CodeValidation, "missing required fields: %v", missing)
	}
	if p.PaymentPartner == "" {
		p.PaymentPartner = models.PartnerSelf
	}
	if !p.PaymentPartner.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment partner %q", p.PaymentPartner)
	}

	now := requestcontext.Now(ctx).UTC()
	shipment := &models.Shipment{
		ID:             uuid.NewString(),
		Reference:      p.Reference,
		ImporterID:     p.ImporterID,
		AgentID:        p.AgentID,
		PaymentPartner: p.PaymentPartner,
		Status:         models.StatusAssigned,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Note != "" {
		shipment.Timeline = append(shipment.Timeline, newEntry(actorID, p.Note, "", now))
	}

	if err := s.store.Create(ctx, shipment); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "shipment %s already exists", shipment.ID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create shipment")
	}
	s.metrics.IncShipmentTransition(string(models.StatusAssigned))
	s.emit(ctx, "shipment.created", shipment, actorID)

	s.notify(ctx, shipment, actorID, "New shipment assigned",
		fmt.Sprintf("Shipment %s has been assigned for clearance.", shipment.Reference))
	return shipment, nil
}

// Get returns one shipment with its timeline.
func (s *Service) Get(ctx context.Context, id string) (*models.Shipment, error) {
	shipment, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return shipment, nil
}

// List returns the shipments a party is importer or agent on.
func (s *Service) List(ctx context.Context, partyID string) ([]*models.Shipment, error) {
	shipments, err := s.store.ListByParty(ctx, partyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list shipments")
	}
	return shipments, nil
}

// Accept marks an unaccepted shipment as accepted and opens the in-progress
// phase. Legal only while the shipment is neither accepted nor completed.
func (s *Service) Accept(ctx context.Context, shipmentID, actorID, note string) (*models.Shipment, error) {
	now := requestcontext.Now(ctx).UTC()
	shipment, err := s.store.Mutate(ctx, shipmentID, func(sh *models.Shipment) error {
		if sh.IsAccepted || sh.IsCompleted {
			return invalidState("accept", sh.Status)
		}
		sh.IsAccepted = true
		sh.Status = models.StatusAtPort
		sh.UpdatedAt = now
		sh.Timeline = append(sh.Timeline, newEntry(actorID, note, "", now))
		return nil
	})
	if err != nil {
		return nil, translate(err, shipmentID)
	}
	s.metrics.IncShipmentTransition(string(shipment.Status))
	s.emit(ctx, "shipment.accepted", shipment, actorID)

	s.notify(ctx, shipment, actorID, "Shipment accepted",
		fmt.Sprintf("Shipment %s was accepted for clearance.", shipment.Reference))
	return shipment, nil
}

// Reject declines an unaccepted shipment, terminally.
func (s *Service) Reject(ctx context.Context, shipmentID, actorID, note string) (*models.Shipment, error) {
	now := requestcontext.Now(ctx).UTC()
	shipment, err := s.store.Mutate(ctx, shipmentID, func(sh *models.Shipment) error {
		if sh.IsAccepted || sh.IsCompleted {
			return invalidState("reject", sh.Status)
		}
		sh.Status = models.StatusRejected
		sh.UpdatedAt = now
		sh.Timeline = append(sh.Timeline, newEntry(actorID, note, "", now))
		return nil
	})
	if err != nil {
		return nil, translate(err, shipmentID)
	}
	s.metrics.IncShipmentTransition(string(models.StatusRejected))
	s.emit(ctx, "shipment.rejected", shipment, actorID)

	s.notify(ctx, shipment, actorID, "Shipment rejected",
		fmt.Sprintf("Shipment %s was rejected by the clearance agent.", shipment.Reference))
	return shipment, nil
}

// RecordUpdate appends a customs progress update to an accepted shipment.
// COMPLETED_BY_CUSTOMS closes the shipment; nothing may follow it.
func (s *Service) RecordUpdate(ctx context.Context, shipmentID, actorID string, newStatus models.Status, note, attachmentRef string) (*models.Shipment, error) {
	if !newStatus.ValidUpdate() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown shipment status %q", newStatus)
	}

	now := requestcontext.Now(ctx).UTC()
	shipment, err := s.store.Mutate(ctx, shipmentID, func(sh *models.Shipment) error {
		if !sh.IsAccepted || sh.IsCompleted {
			return invalidState("update", sh.Status)
		}
		sh.Status = newStatus
		if newStatus == models.StatusCompletedByCustoms {
			sh.IsCompleted = true
		}
		sh.UpdatedAt = now
		sh.Timeline = append(sh.Timeline, newEntry(actorID, note, attachmentRef, now))
		return nil
	})
	if err != nil {
		return nil, translate(err, shipmentID)
	}
	s.metrics.IncShipmentTransition(string(newStatus))
	s.emit(ctx, "shipment.updated", shipment, actorID)

	s.notify(ctx, shipment, actorID, fmt.Sprintf("Shipment status: %s", newStatus),
		fmt.Sprintf("Shipment %s is now %s. %s", shipment.Reference, newStatus, note))
	return shipment, nil
}

// notify dispatches to the actor's counterparty, logging instead of failing.
func (s *Service) notify(ctx context.Context, shipment *models.Shipment, actorID, title, message string) {
	n := &notifmodels.Notification{
		RecipientID: shipment.Counterparty(actorID),
		SenderID:    actorID,
		Title:       title,
		Message:     message,
		EntityType:  notifmodels.EntityShipment,
		EntityID:    shipment.ID,
		ShipmentID:  shipment.ID,
	}
	if err := s.notifier.CreateAndDispatch(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "shipment notification dispatch failed",
			"error", err,
			"shipment_id", shipment.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (s *Service) emit(ctx context.Context, kind string, shipment *models.Shipment, actorID string) {
	s.events.Emit(ctx, events.Event{
		Kind:       kind,
		EntityType: string(notifmodels.EntityShipment),
		EntityID:   shipment.ID,
		ActorID:    actorID,
		Status:     string(shipment.Status),
		OccurredAt: shipment.UpdatedAt,
	})
}

func newEntry(authorID, text, attachmentRef string, now time.Time) models.TimelineEntry {
	return models.TimelineEntry{
		ID:            uuid.NewString(),
		AuthorID:      authorID,
		Text:          text,
		AttachmentRef: attachmentRef,
		CreatedAt:     now,
	}
}

func invalidState(action string, current models.Status) error {
	return dErrors.Newf(dErrors.CodeInvalidState, "cannot %s shipment in status %s", action, current)
}

// translate maps store sentinels onto coded domain errors.
func translate(err error, id string) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeInvalidState):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "shipment %s not found", id)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "shipment store")
	}
}
