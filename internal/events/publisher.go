// Package events broadcasts lifecycle events to Kafka for downstream
// consumers (reporting, audit). Publishing is best-effort and fully
// decoupled from business state: a nil *Publisher is a no-op, and produce
// errors are logged in the delivery callback, never surfaced.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Event is one lifecycle fact: a shipment or payment changed state, or a
// reminder fired.
type Event struct {
	Kind       string    `json:"kind"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher produces lifecycle events to a Kafka topic.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewPublisher connects to the given brokers. Returns nil (a valid no-op
// publisher) when brokers are unconfigured.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, logger: logger}, nil
}

// Emit produces ev asynchronously, keyed by entity ID so per-entity ordering
// holds within a partition.
func (p *Publisher) Emit(ctx context.Context, ev Event) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal lifecycle event", "error", err)
		return
	}
	record := &kgo.Record{Key: []byte(ev.EntityID), Value: payload}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("produce lifecycle event",
				"error", err,
				"kind", ev.Kind,
				"entity_id", ev.EntityID,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}
