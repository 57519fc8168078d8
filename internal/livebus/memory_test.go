package livebus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemory()
	ctx := context.Background()

	first, cancelFirst, err := bus.Subscribe(ctx, "importer-1")
	require.NoError(t, err)
	defer cancelFirst()
	second, cancelSecond, err := bus.Subscribe(ctx, "importer-1")
	require.NoError(t, err)
	defer cancelSecond()
	other, cancelOther, err := bus.Subscribe(ctx, "agent-1")
	require.NoError(t, err)
	defer cancelOther()

	ev := Event{NotificationID: "n1", Title: "hello"}
	require.NoError(t, bus.Publish(ctx, "importer-1", ev))

	assert.Equal(t, ev, <-first)
	assert.Equal(t, ev, <-second)
	select {
	case <-other:
		t.Fatal("event leaked to another recipient")
	default:
	}
}

func TestMemoryBusCancel(t *testing.T) {
	bus := NewMemory()
	ctx := context.Background()

	events, cancel, err := bus.Subscribe(ctx, "importer-1")
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	_, open := <-events
	assert.False(t, open, "cancel closes the channel")
	require.NoError(t, bus.Publish(ctx, "importer-1", Event{NotificationID: "n1"}))
}

func TestMemoryBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewMemory()
	ctx := context.Background()

	events, cancel, err := bus.Subscribe(ctx, "importer-1")
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+5; i++ {
			_ = bus.Publish(ctx, "importer-1", Event{NotificationID: "n"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, events, subscriberBuffer)
}
