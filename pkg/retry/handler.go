package retry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/robots-policy/pkg/failure"
	"github.com/rohmanhakim/robots-policy/pkg/timeutil"
)

// Retry executes fn up to MaxAttempts times, sleeping an exponential
// backoff with jitter between attempts. Only retryable errors trigger a
// retry; a non-retryable error returns immediately.
//
// Type parameter T is the return type of the function being retried.
func Retry[T any](retryParam RetryParam, fn func() (T, failure.ClassifiedError)) (T, failure.ClassifiedError) {
	var lastErr failure.ClassifiedError
	var zero T

	if retryParam.MaxAttempts < 1 {
		return zero, &RetryError{
			Message:   "max attempt cannot be 0",
			Cause:     ErrZeroAttempt,
			Retryable: true,
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isErrorRetryable(err) {
			return zero, err
		}
		if attempt == retryParam.MaxAttempts {
			break
		}

		time.Sleep(timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			*rng,
			retryParam.BackoffParam,
		))
	}

	return zero, &RetryError{
		Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
		Cause:     ErrExhaustedAttempts,
		Retryable: true, // still recoverable at the caller level
	}
}

// isErrorRetryable checks if an error should be retried. Errors that
// expose IsRetryable decide for themselves; everything else defaults to
// retryable.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}
	return true
}
