package models

import "time"

// EntityType names the kind of entity a notification is about.
type EntityType string

const (
	EntityPayment  EntityType = "PAYMENT"
	EntityShipment EntityType = "SHIPMENT"
)

// Notification is an immutable record of something a party must be told
// about. Only the read flag may change after creation.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipient_id"`
	SenderID    string     `json:"sender_id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	ShipmentID  string     `json:"shipment_id,omitempty"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}
