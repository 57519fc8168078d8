package models

import (
	"strconv"
	"time"
)

// Status is the closed set of payment obligation states. Transitions are
// monotonic: REQUESTED -> {CONFIRMED, REJECTED}, CONFIRMED -> COMPLETED;
// COMPLETED and REJECTED are terminal.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
)

// transitions is the single transition table consulted by every mutating
// operation.
var transitions = map[Status]map[Status]bool{
	StatusRequested: {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusCompleted: true},
}

func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// CanTransition reports whether s -> to is a legal move.
func (s Status) CanTransition(to Status) bool {
	return transitions[s][to]
}

// Payer names the party that owes the money for an obligation.
type Payer string

const (
	PayerImporter Payer = "importer"
	PayerAgent    Payer = "agent"
)

func (p Payer) Valid() bool { return p == PayerImporter || p == PayerAgent }

// Comment is one append-only entry on an obligation's comment list.
type Comment struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Obligation is a money request tied to a shipment, owed by one of the two
// parties. Importer and agent IDs are denormalized from the shipment at
// creation so listing by party needs no join.
type Obligation struct {
	ID             string    `json:"id"`
	ShipmentID     string    `json:"shipment_id"`
	ShipmentRef    string    `json:"shipment_ref"` // bayan number
	ImporterID     string    `json:"importer_id"`
	AgentID        string    `json:"agent_id"`
	Amount         string    `json:"amount"` // positive decimal, kept as string
	Deadline       time.Time `json:"deadline"`
	Status         Status    `json:"status"`
	PaymentPartner Payer     `json:"payment_partner"`
	Description    string    `json:"description"`
	Comments       []Comment `json:"comments"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PayerID returns the party that owes this obligation.
func (o *Obligation) PayerID() string {
	if o.PaymentPartner == PayerAgent {
		return o.AgentID
	}
	return o.ImporterID
}

// CounterpartyID returns the party on the other side of the obligation.
func (o *Obligation) CounterpartyID() string {
	if o.PaymentPartner == PayerAgent {
		return o.ImporterID
	}
	return o.AgentID
}

// Clone returns a deep copy so store callers can hand out snapshots without
// sharing the comment slice.
func (o *Obligation) Clone() *Obligation {
	if o == nil {
		return nil
	}
	out := *o
	out.Comments = make([]Comment, len(o.Comments))
	copy(out.Comments, o.Comments)
	return &out
}

// ValidAmount reports whether s parses as a positive decimal.
func ValidAmount(s string) bool {
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v > 0
}
