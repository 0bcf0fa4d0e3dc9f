package clifford

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWaitsLeaveNoSubscriptions(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	r := newReader(pr, resolveOptions(nil), zap.NewNop())
	go func() { _ = r.run() }()

	ctx := context.Background()
	go func() { _, _ = pw.Write([]byte("ready\n")) }()

	_, err := r.Until(ctx, Text("ready"))
	require.NoError(t, err)
	assert.Zero(t, r.feeds.Count(), "after a match")

	_, err = r.Until(ctx, Text("never"), WithinTimeout(20*time.Millisecond))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Zero(t, r.feeds.Count(), "after a timeout")

	line, err := r.FindByText(ctx, Text("ready"))
	require.NoError(t, err)
	assert.Equal(t, "ready", line)
	assert.Zero(t, r.feeds.Count(), "after FindByText")

	require.NoError(t, pw.Close())
	_, err = r.Until(ctx, Text("never"))
	require.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, r.feeds.Count(), "after the output closed")
}
