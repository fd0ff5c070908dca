// Package backoff provides delay strategies for pacing workflow
// re-invocations. The engine never retries internally; callers that loop on
// a failed workflow use these to wait between attempts. All strategies are
// stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// DelayFunc computes the delay before retry attempt n (1-indexed).
// Attempt 1 is the first re-invocation after the initial failure.
type DelayFunc func(attempt int) time.Duration

// Constant always returns the same delay regardless of attempt number.
func Constant(interval time.Duration) DelayFunc {
	return func(int) time.Duration { return interval }
}

// Linear increases the delay linearly: min(initial * attempt, max).
// A max of 0 means uncapped.
func Linear(initial, max time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return clamp(initial*time.Duration(attempt), max)
	}
}

// Exponential doubles the delay each attempt:
// min(initial * 2^(attempt-1), max). A max of 0 means uncapped.
func Exponential(initial, max time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
		return clamp(d, max)
	}
}

// FullJitter wraps a strategy so each delay is drawn uniformly from
// [0, next). Spreads out simultaneous retriers.
func FullJitter(next DelayFunc) DelayFunc {
	return func(attempt int) time.Duration {
		d := next(attempt)
		if d <= 0 {
			return 0
		}
		return time.Duration(rand.Float64() * float64(d)) //nolint:gosec // jitter intentionally uses non-crypto rand
	}
}

// Default is the strategy suggested for interactive callers: exponential
// from 1s capped at 1m, with full jitter.
func Default() DelayFunc {
	return FullJitter(Exponential(1*time.Second, 1*time.Minute))
}

func clamp(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}
