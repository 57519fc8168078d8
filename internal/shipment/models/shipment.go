package models

import "time"

// Status is the closed set of shipment lifecycle states. A shipment starts
// ASSIGNED; acceptance opens the in-progress family; COMPLETED_BY_CUSTOMS,
// REJECTED_BY_CUSTOMS and REJECTED are terminal.
type Status string

const (
	StatusAssigned                   Status = "ASSIGNED"
	StatusRejected                   Status = "REJECTED"
	StatusAtPort                     Status = "AT_PORT"
	StatusClearingInProgress         Status = "CLEARING_IN_PROGRESS"
	StatusOnHoldByCustoms            Status = "ON_HOLD_BY_CUSTOMS"
	StatusInTransit                  Status = "IN_TRANSIT"
	StatusAdditionalDocumentRequired Status = "ADDITIONAL_DOCUMENT_REQUIRED"
	StatusOther                      Status = "OTHER"
	StatusCompletedByCustoms         Status = "COMPLETED_BY_CUSTOMS"
	StatusRejectedByCustoms          Status = "REJECTED_BY_CUSTOMS"
)

// progressStatuses are the states a clearance agent may record on an accepted
// shipment. Terminal states are included because recording them is how a
// shipment ends.
var progressStatuses = map[Status]bool{
	StatusAtPort:                     true,
	StatusClearingInProgress:         true,
	StatusOnHoldByCustoms:            true,
	StatusInTransit:                  true,
	StatusAdditionalDocumentRequired: true,
	StatusOther:                      true,
	StatusCompletedByCustoms:         true,
	StatusRejectedByCustoms:          true,
}

// ValidUpdate reports whether s may be recorded as a progress update.
func (s Status) ValidUpdate() bool { return progressStatuses[s] }

// Terminal reports whether no further transitions may leave s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompletedByCustoms || s == StatusRejectedByCustoms
}

// PaymentPartner names the party financially responsible for a shipment.
type PaymentPartner string

const (
	PartnerImporter PaymentPartner = "importer"
	PartnerAgent    PaymentPartner = "agent"
	PartnerSelf     PaymentPartner = "self"
)

func (p PaymentPartner) Valid() bool {
	return p == PartnerImporter || p == PartnerAgent || p == PartnerSelf
}

// TimelineEntry is one append-only narration entry on a shipment. Entries are
// immutable once appended.
type TimelineEntry struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Text          string    `json:"text"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Shipment is a tracked customs-clearance case between an importer and an
// agent. Invariant: IsCompleted implies IsAccepted.
type Shipment struct {
	ID             string          `json:"id"`
	Reference      string          `json:"reference"` // bayan number
	ImporterID     string          `json:"importer_id"`
	AgentID        string          `json:"agent_id"`
	PaymentPartner PaymentPartner  `json:"payment_partner"`
	Status         Status          `json:"status"`
	IsAccepted     bool            `json:"is_accepted"`
	IsCompleted    bool            `json:"is_completed"`
	Timeline       []TimelineEntry `json:"timeline"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Counterparty returns the other party of the shipment relative to actorID.
// An unknown actor defaults to the importer so admin-driven changes still
// notify the owning party.
func (s *Shipment) Counterparty(actorID string) string {
	if actorID == s.ImporterID {
		return s.AgentID
	}
	return s.ImporterID
}

// Clone returns a deep copy so store callers can hand out snapshots without
// sharing the timeline slice.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	out := *s
	out.Timeline = make([]TimelineEntry, len(s.Timeline))
	copy(out.Timeline, s.Timeline)
	return &out
}
