package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// ExponentialBackoffDelay computes the delay preceding retry attempt
// backoffCount: initial * multiplier^(count-1), capped at the configured
// maximum, plus a pseudo-random jitter in [0, jitter). The rng is passed
// by value so callers control seeding and keep runs reproducible.
func ExponentialBackoffDelay(
	backoffCount int,
	jitter time.Duration,
	rng rand.Rand,
	param BackoffParam,
) time.Duration {
	if backoffCount < 1 {
		backoffCount = 1
	}

	exponent := float64(backoffCount - 1)
	delay := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), exponent)
	if param.MaxDuration() > 0 && delay > float64(param.MaxDuration()) {
		delay = float64(param.MaxDuration())
	}

	if jitter > 0 {
		delay += float64(rng.Int63n(int64(jitter)))
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
