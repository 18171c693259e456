package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr returns a pointer to the given duration.
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// MaxDuration returns the largest duration in the slice, or zero for an empty slice.
func MaxDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// ComputeJitter returns a pseudo-random duration in [0, max).
// A non-positive max yields zero.
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes the delay before retry number backoffCount.
//
//	delay = min(initial * multiplier^(backoffCount-1), max) + jitter
//
// backoffCount values below 1 are treated as 1.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng *rand.Rand,
	backoffParam BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}

	exponent := float64(backoffCount - 1)
	delay := float64(backoffParam.InitialDuration()) * math.Pow(backoffParam.Multiplier(), exponent)
	if maxDelay := float64(backoffParam.MaxDuration()); maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}

	return time.Duration(delay) + ComputeJitter(jitter, rng)
}
