// internal/realtime/reconnect_test.go
package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnector_BackoffGrowsAndCaps(t *testing.T) {
	r := newReconnector(100*time.Millisecond, time.Second, 0)

	var prev time.Duration
	for i := 0; i < 10; i++ {
		d := r.nextDelay()
		assert.GreaterOrEqual(t, d, prev/2, "delay should trend upward despite jitter")
		assert.LessOrEqual(t, d, time.Second, "delay is capped at the maximum")
		prev = d
	}
	assert.Equal(t, time.Second, prev, "after enough attempts the cap is hit exactly")
}

func TestReconnector_AttemptLimit(t *testing.T) {
	r := newReconnector(time.Millisecond, time.Millisecond, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, r.shouldReconnect())
		r.nextDelay()
	}
	assert.False(t, r.shouldReconnect(), "gives up after the configured attempts")
}

func TestReconnector_UnlimitedWhenZero(t *testing.T) {
	r := newReconnector(time.Millisecond, time.Millisecond, 0)
	for i := 0; i < 50; i++ {
		r.nextDelay()
	}
	assert.True(t, r.shouldReconnect())
}

func TestReconnector_ResetsAfterStableUptime(t *testing.T) {
	r := newReconnector(100*time.Millisecond, time.Minute, 0)
	for i := 0; i < 5; i++ {
		r.nextDelay()
	}

	// A connection that stayed up past the stability window starts the
	// backoff ladder over.
	r.connectedAt = time.Now().Add(-2 * time.Minute)
	d := r.nextDelay()
	assert.Less(t, d, 200*time.Millisecond)
}

func TestReconnector_Reset(t *testing.T) {
	r := newReconnector(100*time.Millisecond, time.Minute, 2)
	r.nextDelay()
	r.nextDelay()
	assert.False(t, r.shouldReconnect())

	r.reset()
	assert.True(t, r.shouldReconnect())
}

func TestReconnector_Defaults(t *testing.T) {
	r := newReconnector(0, 0, 0)
	assert.Equal(t, time.Second, r.baseDelay)
	assert.Equal(t, 30*time.Second, r.maxDelay)
}

// The read loop computes delays while Connect marks the channel up; both
// must be safe to call from separate goroutines.
func TestReconnector_ConcurrentUse(t *testing.T) {
	r := newReconnector(time.Millisecond, 10*time.Millisecond, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.markConnected()
				_ = r.shouldReconnect()
				d := r.nextDelay()
				assert.LessOrEqual(t, d, 10*time.Millisecond)
			}
		}()
	}
	wg.Wait()
	assert.Positive(t, r.attempts())
}
