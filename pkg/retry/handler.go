package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/timeutil"
)

// Retry executes fn with retry logic.
// It runs fn up to MaxAttempts times, applying exponential backoff with
// jitter between attempts. Only retryable errors trigger another attempt;
// a non-retryable error is returned as-is. Cancelling ctx interrupts the
// backoff wait.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](ctx context.Context, retryParam RetryParam, fn func() (T, failure.ClassifiedError)) Result[T] {
	var zero T

	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			value: zero,
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: true,
			},
		}
	}

	seed := retryParam.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var lastValue T
	var lastErr failure.ClassifiedError
	attempt := 0

	for attempt < retryParam.MaxAttempts {
		attempt++
		value, err := fn()
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}

		lastValue = value
		lastErr = err

		if !isErrorRetryable(err) {
			return Result[T]{value: value, err: err, attempts: attempt}
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		backoffDelay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			rng,
			retryParam.BackoffParam,
		)

		if retryParam.onRetry != nil {
			retryParam.onRetry(attempt, err, backoffDelay)
		}

		if waitErr := sleep(ctx, backoffDelay); waitErr != nil {
			return Result[T]{
				value: lastValue,
				err: &RetryError{
					Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, waitErr),
					Cause:     ErrCanceled,
					Retryable: false,
					LastErr:   lastErr,
				},
				attempts: attempt,
			}
		}
	}

	return Result[T]{
		value: lastValue,
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: true,
			LastErr:   lastErr,
		},
		attempts: attempt,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isErrorRetryable reports whether err asks to be retried.
// Errors that do not implement IsRetryable default to retryable.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	return true
}
