package livebus

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// MemoryBus fans events out to in-process subscribers. A slow subscriber's
// full buffer drops the event rather than blocking the publisher; the
// durable notification record is the source of truth, the live channel is a
// hint.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemory() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[chan Event]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, recipientID string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[recipientID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, recipientID string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[recipientID] == nil {
		b.subs[recipientID] = make(map[chan Event]struct{})
	}
	b.subs[recipientID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[recipientID], ch)
			if len(b.subs[recipientID]) == 0 {
				delete(b.subs, recipientID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
