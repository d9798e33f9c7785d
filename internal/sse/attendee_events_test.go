package sse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/models"
	"eventhub/internal/sse"
)

func update(eventID string, count int) models.AttendeeUpdate {
	return models.AttendeeUpdate{
		Type:             models.AttendeeUpdateType,
		EventID:          eventID,
		CurrentAttendees: count,
	}
}

func TestEmitReachesSubscriber(t *testing.T) {
	emitter := sse.NewAttendeeEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToEvent(ctx, "ev1")
	emitter.Emit(update("ev1", 3))

	select {
	case got := <-ch:
		assert.Equal(t, "ev1", got.EventID)
		assert.Equal(t, 3, got.CurrentAttendees)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestEmitIsScopedToEvent(t *testing.T) {
	emitter := sse.NewAttendeeEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	other := emitter.SubscribeToEvent(ctx, "ev2")
	emitter.Emit(update("ev1", 1))

	select {
	case got := <-other:
		t.Fatalf("subscriber of ev2 received update for %s", got.EventID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUpdatesArriveInEmitOrder(t *testing.T) {
	emitter := sse.NewAttendeeEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToEvent(ctx, "ev1")
	for i := 1; i <= 5; i++ {
		emitter.Emit(update("ev1", i))
	}

	for i := 1; i <= 5; i++ {
		select {
		case got := <-ch:
			assert.Equal(t, i, got.CurrentAttendees)
		case <-time.After(time.Second):
			t.Fatal("update stream dried up")
		}
	}
}

func TestSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	emitter := sse.NewAttendeeEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter.SubscribeToEvent(ctx, "ev1") // never drained

	done := make(chan struct{})
	go func() {
		// Well past the channel buffer size; must not block.
		for i := 0; i < 100; i++ {
			emitter.Emit(update("ev1", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}
}

func TestEmitDuringUnsubscribe(t *testing.T) {
	emitter := sse.NewAttendeeEventEmitter()

	// Viewers connect and disconnect in a tight loop while updates keep
	// flowing. A send racing a channel close would panic here.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			ch := emitter.SubscribeToEvent(ctx, "ev1")
			cancel()
			for range ch {
				// drain until the unsubscribe closes the channel
			}
		}
	}()

	for emitting := true; emitting; {
		select {
		case <-done:
			emitting = false
		default:
			emitter.Emit(update("ev1", 1))
		}
	}
	assert.Equal(t, 0, emitter.ClientCount("ev1"))
}

func TestUnsubscribeOnContextCancel(t *testing.T) {
	emitter := sse.NewAttendeeEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := emitter.SubscribeToEvent(ctx, "ev1")
	require.Equal(t, 1, emitter.ClientCount("ev1"))

	cancel()

	// Removal runs in a goroutine; the channel close signals it.
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Equal(t, 0, emitter.ClientCount("ev1"))
}
