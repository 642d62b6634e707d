package events

import (
	"context"
	"errors"
	"testing"

	"job-listings/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishRunsHandlersInOrder(t *testing.T) {
	bus := NewBus(logging.Discard())
	var calls []string

	_, err := bus.Subscribe(EventPostingsChanged, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return nil
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(EventPostingsChanged, func(ctx context.Context, e Event) error {
		change, ok := e.Payload.(PostingChange)
		require.True(t, ok)
		calls = append(calls, "second:"+change.Kind)
		return nil
	})
	require.NoError(t, err)

	err = bus.Publish(context.Background(), Event{Type: EventPostingsChanged, Payload: PostingChange{Kind: ChangeCreated, ID: "1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second:created"}, calls)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(logging.Discard())
	count := 0
	unsubscribe, err := bus.Subscribe("x", func(ctx context.Context, e Event) error {
		count++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: "x"}))
	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), Event{Type: "x"}))

	assert.Equal(t, 1, count)
}

func TestBus_HandlerErrorsAreJoined(t *testing.T) {
	bus := NewBus(logging.Discard())
	boom := errors.New("boom")
	reached := false

	_, _ = bus.Subscribe("x", func(ctx context.Context, e Event) error { return boom })
	_, _ = bus.Subscribe("x", func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{Type: "x"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, reached)
}

func TestBus_Closed(t *testing.T) {
	bus := NewBus(logging.Discard())
	called := false
	_, _ = bus.Subscribe("x", func(ctx context.Context, e Event) error {
		called = true
		return nil
	})
	bus.Close()

	assert.NoError(t, bus.Publish(context.Background(), Event{Type: "x"}))
	assert.False(t, called)

	_, err := bus.Subscribe("x", func(ctx context.Context, e Event) error { return nil })
	assert.Error(t, err)
}

func TestBus_NilHandler(t *testing.T) {
	bus := NewBus(logging.Discard())
	_, err := bus.Subscribe("x", nil)
	assert.Error(t, err)
}
