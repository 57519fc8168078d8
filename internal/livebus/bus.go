// Package livebus is the live-event fan-out to connected clients. The Bus
// interface keeps the transport swappable: in-process channels for tests and
// development, Redis pub/sub when running more than one API instance.
// Delivery is at-least-once to any connected subscriber; there is no backlog
// for recipients who are offline (the notification store is the durable
// record).
package livebus

import (
	"context"
	"time"
)

// Event is the payload pushed to a recipient's live channel.
type Event struct {
	NotificationID string    `json:"notification_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Bus publishes events keyed by recipient and lets transports subscribe.
type Bus interface {
	Publish(ctx context.Context, recipientID string, ev Event) error
	// Subscribe returns a channel of events for recipientID and a cancel
	// function that releases the subscription.
	Subscribe(ctx context.Context, recipientID string) (<-chan Event, func(), error)
}
