// Package ratelimit gates outbound API calls with a sliding 60-second window.
package ratelimit

import (
	"sync"
	"time"
)

const window = 60 * time.Second

// Limiter enforces a maximum number of requests per trailing 60-second
// window. Acquire blocks until a slot is available, then records the call.
// The limiter is shared by every component that issues outbound quote or
// advisory calls; it must be injected, not reached for as global state.
type Limiter struct {
	mu         sync.Mutex
	maxPerMin  int
	timestamps []time.Time
	now        func() time.Time
	sleep      func(time.Duration)
}

// New creates a limiter allowing requestsPerMinute calls per sliding window
func New(requestsPerMinute int) *Limiter {
	return &Limiter{
		maxPerMin: requestsPerMinute,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Acquire blocks until the call fits inside the window, then records it
func (l *Limiter) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())

	if len(l.timestamps) >= l.maxPerMin {
		oldest := l.timestamps[0]
		// Small buffer so the oldest entry has definitely left the window
		wait := window - l.now().Sub(oldest) + 100*time.Millisecond
		if wait > 0 {
			l.sleep(wait)
			l.prune(l.now())
		}
	}

	l.timestamps = append(l.timestamps, l.now())
}

// Remaining returns the number of request slots left in the current window
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())

	remaining := l.maxPerMin - len(l.timestamps)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// prune drops timestamps older than the window. Callers hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.timestamps) && now.Sub(l.timestamps[cut]) > window {
		cut++
	}
	if cut > 0 {
		l.timestamps = l.timestamps[cut:]
	}
}
