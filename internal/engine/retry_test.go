package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	ok := Retry(clockwork.NewFakeClock(), 3, time.Hour, func(attempt int) bool {
		calls++
		return attempt == 1
	})
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsWithBackoff(t *testing.T) {
	fc := clockwork.NewFakeClock()
	var calls atomic.Int32

	done := make(chan bool, 1)
	go func() {
		done <- Retry(fc, 3, 50*time.Millisecond, func(int) bool {
			calls.Add(1)
			return false
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Two sleeps between three attempts, none after the last.
	for i := 0; i < 2; i++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1), "sleep %d", i+1)
		assert.Equal(t, int32(i+1), calls.Load())
		fc.Advance(50 * time.Millisecond)
	}

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-ctx.Done():
		t.Fatal("Retry did not return after the third attempt")
	}
	assert.Equal(t, int32(3), calls.Load())
}
