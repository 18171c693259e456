package retry

import (
	"time"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/timeutil"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
type RetryParam struct {
	Jitter       time.Duration
	RandomSeed   int64
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
	onRetry      RetryHook
}

// RetryHook is invoked before sleeping ahead of the next attempt.
type RetryHook func(attempt int, err failure.ClassifiedError, delay time.Duration)

// NewRetryParam creates a new RetryParam with the given settings.
// A zero randomSeed seeds the jitter source from the clock.
func NewRetryParam(
	jitter time.Duration,
	randomSeed int64,
	maxAttempts int,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		Jitter:       jitter,
		RandomSeed:   randomSeed,
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}

// WithOnRetry returns a copy of the param that calls hook before each backoff wait.
func (p RetryParam) WithOnRetry(hook RetryHook) RetryParam {
	p.onRetry = hook
	return p
}

// Result is the outcome of a retried operation.
type Result[T any] struct {
	value    T
	err      failure.ClassifiedError
	attempts int
}

// Value returns the value produced by the last attempt. After exhausted
// attempts this is whatever the final attempt returned alongside its error.
func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() failure.ClassifiedError {
	return r.err
}

func (r Result[T]) Attempts() int {
	return r.attempts
}

func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

func (r Result[T]) IsFailure() bool {
	return r.err != nil
}
