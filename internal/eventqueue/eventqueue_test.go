package eventqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/clifford/internal/eventbus"
)

func TestReadsFromLag(t *testing.T) {
	bus := eventbus.New[struct{}]()
	q := New[struct{}](bus)
	defer q.Dispose()

	bus.Publish(struct{}{})
	bus.Publish(struct{}{})
	bus.Publish(struct{}{})

	assert.Equal(t, 3, q.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context proves none of these calls needs to block.
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Next(ctx), "next #%d", i+1)
	}
	assert.Equal(t, 0, q.Pending())
	assert.ErrorIs(t, q.Next(ctx), context.Canceled)
}

func TestNextWaitsForOccurrence(t *testing.T) {
	bus := eventbus.New[struct{}]()
	q := New[struct{}](bus)
	defer q.Dispose()

	errc := make(chan error, 1)
	go func() {
		errc <- q.Next(context.Background())
	}()

	select {
	case err := <-errc:
		t.Fatalf("Next returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	bus.Publish(struct{}{})

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Publish")
	}
	assert.Equal(t, 0, q.Pending())
}

func TestOneOccurrencePerCall(t *testing.T) {
	bus := eventbus.New[struct{}]()
	q := New[struct{}](bus)
	defer q.Dispose()

	bus.Publish(struct{}{})
	require.NoError(t, q.Next(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Next(ctx), context.DeadlineExceeded)
}

func TestOccurrencesBeforeNewAreIgnored(t *testing.T) {
	bus := eventbus.New[struct{}]()
	bus.Publish(struct{}{})

	q := New[struct{}](bus)
	defer q.Dispose()

	assert.Equal(t, 0, q.Pending())
}

func TestClosedDrainsPendingFirst(t *testing.T) {
	bus := eventbus.New[struct{}]()
	q := New[struct{}](bus)
	defer q.Dispose()

	bus.Publish(struct{}{})
	bus.Close()

	require.NoError(t, q.Next(context.Background()))
	assert.ErrorIs(t, q.Next(context.Background()), ErrClosed)
}

func TestCloseWakesWaiter(t *testing.T) {
	bus := eventbus.New[struct{}]()
	q := New[struct{}](bus)
	defer q.Dispose()

	errc := make(chan error, 1)
	go func() {
		errc <- q.Next(context.Background())
	}()

	bus.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Next hung after the source closed")
	}
}

func TestDispose(t *testing.T) {
	bus := eventbus.New[struct{}]()
	q := New[struct{}](bus)
	require.Equal(t, 1, bus.Count())

	q.Dispose()
	q.Dispose()

	assert.Equal(t, 0, bus.Count())
	assert.ErrorIs(t, q.Next(context.Background()), ErrDisposed)
}
