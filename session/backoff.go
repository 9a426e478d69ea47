package session

import (
	"math/rand"
	"time"
)

// Backoff controls the reconnect schedule: exponential growth from Initial up
// to Max, with optional jitter, over at most MaxAttempts dials.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      bool
	MaxAttempts int
}

// DefaultBackoff returns the default reconnect schedule. All values are
// configurable via session options.
func DefaultBackoff() *Backoff {
	return &Backoff{
		Initial:     500 * time.Millisecond,
		Max:         30 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
		MaxAttempts: 5,
	}
}

// Delay returns the wait before the given zero-based attempt. The first
// attempt has no delay.
func (b *Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(b.Initial)
	for i := 1; i < attempt; i++ {
		delay *= b.Multiplier
		if delay >= float64(b.Max) {
			delay = float64(b.Max)
			break
		}
	}
	if delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	if b.Jitter {
		// full jitter keeps concurrent reconnecting clients from stampeding
		delay = delay/2 + rand.Float64()*delay/2
	}
	return time.Duration(delay)
}
