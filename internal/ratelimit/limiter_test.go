package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives the limiter deterministically in tests
type fakeClock struct {
	t       time.Time
	slept   []time.Duration
	advance bool // advance the clock when sleeping
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	if c.advance {
		c.t = c.t.Add(d)
	}
}

func newTestLimiter(maxPerMin int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), advance: true}
	l := New(maxPerMin)
	l.now = clock.now
	l.sleep = clock.sleep
	return l, clock
}

func TestAcquire_UnderLimit_DoesNotBlock(t *testing.T) {
	l, clock := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		l.Acquire()
	}

	assert.Empty(t, clock.slept)
	assert.Equal(t, 0, l.Remaining())
}

func TestAcquire_AtLimit_BlocksUntilSlotFrees(t *testing.T) {
	l, clock := newTestLimiter(3)

	l.Acquire()
	clock.t = clock.t.Add(10 * time.Second)
	l.Acquire()
	l.Acquire()

	// Fourth call must wait until the first timestamp leaves the window
	l.Acquire()

	assert.Len(t, clock.slept, 1)
	// ~50s left on the oldest entry plus the buffer
	assert.InDelta(t, float64(50*time.Second+100*time.Millisecond), float64(clock.slept[0]), float64(time.Second))
}

func TestAcquire_OldEntriesExpire(t *testing.T) {
	l, clock := newTestLimiter(2)

	l.Acquire()
	l.Acquire()

	// Move past the window: both slots free again
	clock.t = clock.t.Add(61 * time.Second)

	l.Acquire()
	assert.Empty(t, clock.slept)
	assert.Equal(t, 1, l.Remaining())
}

func TestRemaining_CountsOnlyRecentCalls(t *testing.T) {
	l, clock := newTestLimiter(10)

	l.Acquire()
	l.Acquire()
	assert.Equal(t, 8, l.Remaining())

	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, 10, l.Remaining())
}
