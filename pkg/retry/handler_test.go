package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/retry"
	"github.com/rohmanhakim/wayback-archiver/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond)
}

type stubError struct {
	msg       string
	retryable bool
}

func (s *stubError) Error() string { return s.msg }

func (s *stubError) Severity() failure.Severity { return failure.SeverityRecoverable }

func (s *stubError) IsRetryable() bool { return s.retryable }

// severityOnly does not expose IsRetryable and must be treated as retryable.
type severityOnly struct{}

func (severityOnly) Error() string              { return "plain" }
func (severityOnly) Severity() failure.Severity { return failure.SeverityRecoverable }

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 3, fastBackoff()), func() (string, failure.ClassifiedError) {
		calls++
		return "ok", nil
	})

	assert.True(t, result.IsSuccess())
	assert.Equal(t, "ok", result.Value())
	assert.Equal(t, 1, result.Attempts())
	assert.Equal(t, 1, calls)
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 5, fastBackoff()), func() (int, failure.ClassifiedError) {
		calls++
		if calls < 3 {
			return 0, &stubError{msg: "transient", retryable: true}
		}
		return calls, nil
	})

	require.True(t, result.IsSuccess())
	assert.Equal(t, 3, result.Value())
	assert.Equal(t, 3, result.Attempts())
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	permanent := &stubError{msg: "permanent", retryable: false}
	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 5, fastBackoff()), func() (string, failure.ClassifiedError) {
		calls++
		return "partial", permanent
	})

	assert.True(t, result.IsFailure())
	assert.Same(t, permanent, result.Err())
	assert.Equal(t, "partial", result.Value())
	assert.Equal(t, 1, calls)
}

func TestRetry_ExhaustedKeepsLastValueAndError(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 4, fastBackoff()), func() (int, failure.ClassifiedError) {
		calls++
		return calls * 10, &stubError{msg: "still failing", retryable: true}
	})

	require.True(t, result.IsFailure())
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, result.Attempts())
	assert.Equal(t, 40, result.Value())

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)

	var last *stubError
	require.True(t, errors.As(result.Err(), &last))
	assert.Equal(t, "still failing", last.msg)
}

func TestRetry_ZeroAttempts(t *testing.T) {
	called := false
	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 0, fastBackoff()), func() (string, failure.ClassifiedError) {
		called = true
		return "", nil
	})

	assert.False(t, called)
	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrZeroAttempt, retryErr.Cause)
	assert.Equal(t, 0, result.Attempts())
}

func TestRetry_ErrorsWithoutRetryableFlagAreRetried(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), retry.NewRetryParam(0, 42, 3, fastBackoff()), func() (string, failure.ClassifiedError) {
		calls++
		return "", severityOnly{}
	})

	assert.True(t, result.IsFailure())
	assert.Equal(t, 3, calls)
}

func TestRetry_CancelledContextInterruptsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := timeutil.NewBackoffParam(time.Hour, 2.0, time.Hour)

	calls := 0
	done := make(chan retry.Result[string], 1)
	go func() {
		done <- retry.Retry(ctx, retry.NewRetryParam(0, 42, 5, slow), func() (string, failure.ClassifiedError) {
			calls++
			return "", &stubError{msg: "transient", retryable: true}
		})
	}()

	cancel()

	select {
	case result := <-done:
		var retryErr *retry.RetryError
		require.True(t, errors.As(result.Err(), &retryErr))
		assert.Equal(t, retry.ErrCanceled, retryErr.Cause)
		assert.Equal(t, 1, result.Attempts())
		assert.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe context cancellation")
	}
}

func TestRetry_OnRetryHookSeesEveryWait(t *testing.T) {
	var attempts []int
	param := retry.NewRetryParam(0, 42, 3, fastBackoff()).
		WithOnRetry(func(attempt int, err failure.ClassifiedError, delay time.Duration) {
			attempts = append(attempts, attempt)
			assert.Positive(t, delay)
			assert.Error(t, err)
		})

	retry.Retry(context.Background(), param, func() (string, failure.ClassifiedError) {
		return "", &stubError{msg: "transient", retryable: true}
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetryError_Classification(t *testing.T) {
	err := &retry.RetryError{Cause: retry.ErrExhaustedAttempts, Retryable: true}
	assert.Equal(t, failure.SeverityRecoverable, err.Severity())
	assert.True(t, errors.Is(err, &retry.RetryError{}))

	fatal := &retry.RetryError{Cause: retry.ErrCanceled}
	assert.Equal(t, failure.SeverityFatal, fatal.Severity())
	assert.False(t, fatal.IsRetryable())
}
