package events

import (
	"context"
	"testing"
	"time"

	"creditmeter/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitDispatchesToSubscribers(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 2)

	bus.Subscribe(EventTypeCreditsConsumed, func(ctx context.Context, event Event) {
		received <- event
	})
	bus.Subscribe(EventTypeCreditsConsumed, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), CreditsConsumedEvent{OwnerID: 1, Module: models.ModuleEmail, Amount: 5})

	for i := 0; i < 2; i++ {
		select {
		case event := <-received:
			consumed, ok := event.(CreditsConsumedEvent)
			require.True(t, ok)
			assert.Equal(t, int64(5), consumed.Amount)
		case <-time.After(time.Second):
			t.Fatal("handler not invoked")
		}
	}
}

func TestBus_EmitIgnoresOtherEventTypes(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeQuotaExhausted, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), CreditsConsumedEvent{OwnerID: 1})

	select {
	case <-received:
		t.Fatal("handler invoked for unrelated event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)

	bus.Subscribe(EventTypeCreditsGranted, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeCreditsGranted, func(ctx context.Context, event Event) {
		received <- event
	})

	bus.Emit(context.Background(), CreditsGrantedEvent{OwnerID: 1, NewCredits: 10})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("surviving handler not invoked")
	}
}

func TestTransactionalBus_FlushAndDiscard(t *testing.T) {
	real := NewBus()
	received := make(chan Event, 2)
	real.Subscribe(EventTypeCreditsReleased, func(ctx context.Context, event Event) {
		received <- event
	})

	t.Run("flush emits pending events once", func(t *testing.T) {
		txBus := NewTransactionalBus(real)
		txBus.Publish(CreditsReleasedEvent{OwnerID: 1, Amount: 3})

		select {
		case <-received:
			t.Fatal("event emitted before flush")
		case <-time.After(50 * time.Millisecond):
		}

		txBus.Flush(context.Background())

		select {
		case event := <-received:
			released, ok := event.(CreditsReleasedEvent)
			require.True(t, ok)
			assert.Equal(t, int64(3), released.Amount)
		case <-time.After(time.Second):
			t.Fatal("event not emitted after flush")
		}

		// Flushing again must not re-emit
		txBus.Flush(context.Background())
		select {
		case <-received:
			t.Fatal("event re-emitted on second flush")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("discard drops pending events", func(t *testing.T) {
		txBus := NewTransactionalBus(real)
		txBus.Publish(CreditsReleasedEvent{OwnerID: 2, Amount: 1})
		txBus.Discard()
		txBus.Flush(context.Background())

		select {
		case <-received:
			t.Fatal("discarded event was emitted")
		case <-time.After(50 * time.Millisecond):
		}
	})
}
