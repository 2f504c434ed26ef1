package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff is a (blocking) function returns when to retry.
//
// # Args
//
// - context: context. If context is canceled, Backoff should return ctx.Err().
//
// # Returns
//
// - error: nil if retry, non-nil if not.
type Backoff func(context.Context) error

// StaticBackoff returns a Backoff function that waits for a fixed interval.
var StaticBackoff = func(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1)
}

// ExponentialBackoff returns a Backoff function that waits with exponential backoff.
//
// For N-th call, it waits for `initialInterval * r^N` or context to be done.
var ExponentialBackoff = func(initialInterval time.Duration, r float64) Backoff {
	return JitteredBackoff(Policy{Initial: initialInterval, Multiplier: r})
}

// Policy describes intervals of JitteredBackoff.
type Policy struct {
	// first interval.
	Initial time.Duration

	// multiplier of interval for each call. Values less than 1 are treated as 1.
	Multiplier float64

	// upper bound of interval before jitter. Zero means unbounded.
	Max time.Duration

	// fraction of interval randomized, in [0, 1].
	//
	// With Jitter = 0.2, an interval of 10s becomes something in [8s, 12s).
	Jitter float64

	// random source returning [0, 1). When nil, math/rand/v2 is used.
	Rand func() float64
}

// Interval returns the wait before n-th retry (n >= 0), jitter included.
func (p Policy) Interval(n int) time.Duration {
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	interval := float64(p.Initial)
	for i := 0; i < n; i++ {
		interval *= m
		if p.Max > 0 && time.Duration(interval) >= p.Max {
			interval = float64(p.Max)
			break
		}
	}

	if j := clamp(p.Jitter, 0, 1); 0 < j {
		rnd := p.Rand
		if rnd == nil {
			rnd = rand.Float64
		}
		interval += interval * j * (2*rnd() - 1)
	}
	if interval < 0 {
		interval = 0
	}
	return time.Duration(int64(interval))
}

// JitteredBackoff returns a Backoff function which waits for p.Interval(N) on N-th call,
// or returns ctx.Err() when the context is done before that.
func JitteredBackoff(p Policy) Backoff {
	n := 0
	return func(ctx context.Context) error {
		timer := time.NewTimer(p.Interval(n))
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			n += 1
			return nil
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi < v {
		return hi
	}
	return v
}
