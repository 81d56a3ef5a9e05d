package notify_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rezkam/reminders/internal/application/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTicker struct {
	ticks atomic.Int32
	err   error
}

func (c *countingTicker) Tick(ctx context.Context) error {
	c.ticks.Add(1)
	return c.err
}

func TestRunner_TicksUntilCancelled(t *testing.T) {
	ticker := &countingTicker{err: errors.New("transient")}
	runner := notify.NewRunner(ticker, notify.WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Start(ctx)
	}()

	// Errors are logged, never stop the loop.
	assert.Eventually(t, func() bool {
		return ticker.ticks.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_RunOnce(t *testing.T) {
	ticker := &countingTicker{}
	runner := notify.NewRunner(ticker)

	runner.RunOnce(context.Background())
	assert.Equal(t, int32(1), ticker.ticks.Load())
}
