package messaging

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/insight-engine/internal/domain/shared"
)

func newTestDispatcher(t *testing.T, bus *InMemoryEventBus) *Dispatcher {
	t.Helper()
	cfg := DefaultDispatcherConfig(bus)
	cfg.RetryConfig = RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	d := NewDispatcher(cfg)
	t.Cleanup(func() { _ = d.Stop() })
	return d
}

func TestDispatcher_RoutesBusEventsToSyncHandler(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	d := newTestDispatcher(t, bus)

	var received []shared.Event
	require.NoError(t, d.RegisterSync(shared.EventAttemptCompleted, "recorder", func(e shared.Event) error {
		received = append(received, e)
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(shared.NewAttemptCompletedEvent("s1", "a1", 85)))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventAttemptCompleted, received[0].EventType())
	assert.Equal(t, "s1", received[0].AggregateID())
}

func TestDispatcher_IgnoresEventTypesWithoutHandlers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	d := newTestDispatcher(t, bus)

	called := false
	require.NoError(t, d.RegisterSync(shared.EventAttemptCompleted, "recorder", func(e shared.Event) error {
		called = true
		return nil
	}))
	require.NoError(t, d.Start())

	require.NoError(t, bus.Publish(shared.NewAttemptStartedEvent("s1", "a1", 1)))
	assert.False(t, called)
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	d := newTestDispatcher(t, bus)

	attempts := 0
	require.NoError(t, d.RegisterSync(shared.EventAttemptCompleted, "flaky", func(e shared.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}))

	err := d.Dispatch(shared.NewAttemptCompletedEvent("s1", "a1", 70))

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Zero(t, d.DeadLetterQueue().Size())
}

func TestDispatcher_ExhaustedRetriesLandInDeadLetterQueue(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	d := newTestDispatcher(t, bus)

	attempts := 0
	require.NoError(t, d.RegisterSync(shared.EventAttemptCompleted, "broken", func(e shared.Event) error {
		attempts++
		return errors.New("storage down")
	}))

	err := d.Dispatch(shared.NewAttemptCompletedEvent("s1", "a1", 70))
	require.Error(t, err)

	// MaxRetries=2 means one initial attempt plus two retries
	assert.Equal(t, 3, attempts)

	entries := d.DeadLetterQueue().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken", entries[0].HandlerName)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.Equal(t, shared.EventAttemptCompleted, entries[0].Event.EventType())
	assert.EqualError(t, entries[0].Error, "storage down")
	assert.False(t, entries[0].FailedAt.IsZero())
}

func TestRecoveryMiddleware_ConvertsPanicToError(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	d := newTestDispatcher(t, bus)
	d.Use(RecoveryMiddleware(slog.Default()))

	require.NoError(t, d.RegisterSync(shared.EventAttemptCompleted, "panicky", func(e shared.Event) error {
		panic("nil anchor")
	}))

	err := d.Dispatch(shared.NewAttemptCompletedEvent("s1", "a1", 70))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic: nil anchor")
	assert.Equal(t, 1, d.DeadLetterQueue().Size())
}

func TestDispatcher_MetricsTrackRetriesAndFailures(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	d := newTestDispatcher(t, bus)

	attempts := 0
	require.NoError(t, d.RegisterSync(shared.EventAttemptCompleted, "flaky", func(e shared.Event) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, d.Dispatch(shared.NewAttemptCompletedEvent("s1", "a1", 70)))

	snap := d.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalDispatched)
	assert.Equal(t, int64(1), snap.TotalRetries)
	assert.Zero(t, snap.TotalFailures)
}

func TestDeadLetterQueue_EvictsOldestAtCapacity(t *testing.T) {
	q := NewDeadLetterQueue(2)

	q.Add(DeadLetterEntry{HandlerName: "first"})
	q.Add(DeadLetterEntry{HandlerName: "second"})
	q.Add(DeadLetterEntry{HandlerName: "third"})

	require.Equal(t, 2, q.Size())

	entry, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "second", entry.HandlerName)

	entry, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "third", entry.HandlerName)

	_, ok = q.Pop()
	assert.False(t, ok)
}
