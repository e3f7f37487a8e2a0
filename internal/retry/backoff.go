// Package retry paces retries of operations that should survive
// transient failure, such as the acceptor's accept loop.
package retry

import (
	"context"
	"time"
)

// Backoff escalates a wait between consecutive failures and resets on
// success.  The zero value is usable and starts from DefaultInitial.
type Backoff struct {
	// Initial is the wait after the first failure (default 5ms).
	Initial time.Duration
	// Max caps the escalation (default 1s).
	Max time.Duration
	// Multiplier grows the wait per consecutive failure (default 2).
	Multiplier float64

	current time.Duration
}

const (
	// DefaultInitial keeps the first retry fast: most transient accept
	// failures (EMFILE, ECONNABORTED) clear almost immediately.
	DefaultInitial = 5 * time.Millisecond
	// DefaultMax bounds how long a persistently failing accept loop
	// sleeps between attempts.
	DefaultMax = time.Second
)

// Wait sleeps for the current backoff, escalating for the next call.
// It returns early with the context's error if ctx is cancelled.
func (b *Backoff) Wait(ctx context.Context) error {
	initial := b.Initial
	if initial <= 0 {
		initial = DefaultInitial
	}
	max := b.Max
	if max <= 0 {
		max = DefaultMax
	}
	mult := b.Multiplier
	if mult <= 1 {
		mult = 2
	}

	if b.current <= 0 {
		b.current = initial
	}
	wait := b.current

	b.current = time.Duration(float64(b.current) * mult)
	if b.current > max {
		b.current = max
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// Reset returns the backoff to its initial wait after a success.
func (b *Backoff) Reset() { b.current = 0 }
