// internal/stream/backoff.go
package stream

import (
	"math"
	"time"
)

// Backoff computes exponential reconnect delays. It holds no timers
// and never sleeps, so reconnect policy can be tested without a clock.
// The zero value uses 1s..30s with factor 2.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64

	attempt int
}

// Next returns the delay before the next reconnect attempt and
// advances the attempt counter.
func (b *Backoff) Next() time.Duration {
	min := b.Min
	if min <= 0 {
		min = time.Second
	}
	max := b.Max
	if max <= 0 {
		max = 30 * time.Second
	}
	factor := b.Factor
	if factor < 1 {
		factor = 2
	}

	d := float64(min) * math.Pow(factor, float64(b.attempt))
	b.attempt++
	if math.IsInf(d, 1) || d < 0 || d > float64(max) {
		return max
	}
	return time.Duration(d)
}

// Reset clears the attempt counter after a healthy connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt returns how many delays have been handed out since the last
// reset.
func (b *Backoff) Attempt() int {
	return b.attempt
}
