package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/retry"
)

/*
RetryingTransport decorates a Transport with bounded retry.

Outcome classes

- transient: connection failures, timeouts, 5xx, 429
- permanent: any other status, non-retryable errors

Transient outcomes are retried with exponential backoff and jitter.
Permanent outcomes are returned immediately. When attempts run out the
final outcome is returned untouched: its Response if the last attempt
completed an exchange, else a *retry.RetryError wrapping the last error.
*/
type RetryingTransport struct {
	next         Transport
	retryParam   retry.RetryParam
	metadataSink metadata.MetadataSink
}

func NewRetryingTransport(
	next Transport,
	retryParam retry.RetryParam,
	metadataSink metadata.MetadataSink,
) *RetryingTransport {
	return &RetryingTransport{
		next:         next,
		retryParam:   retryParam,
		metadataSink: metadataSink,
	}
}

func (r *RetryingTransport) Send(ctx context.Context, param RequestParam) (Response, failure.ClassifiedError) {
	callerMethod := "RetryingTransport.Send"

	retryParam := r.retryParam.WithOnRetry(func(attempt int, err failure.ClassifiedError, delay time.Duration) {
		r.metadataSink.RecordRetry(param.target, attempt, delay, err.Error())
	})

	result := retry.Retry(ctx, retryParam, func() (Response, failure.ClassifiedError) {
		resp, err := r.next.Send(ctx, param)
		if err != nil {
			return Response{}, err
		}
		if isTransientStatus(resp.StatusCode()) {
			return resp, &TransportError{
				Message:   fmt.Sprintf("status %d", resp.StatusCode()),
				Retryable: true,
				Cause:     ErrCauseTransientStatus,
				Status:    resp.StatusCode(),
			}
		}
		return resp, nil
	})

	if result.IsSuccess() {
		return result.Value(), nil
	}

	err := result.Err()

	var retryErr *retry.RetryError
	exhausted := errors.As(err, &retryErr) && retryErr.Cause == retry.ErrExhaustedAttempts

	var transportErr *TransportError
	if exhausted && errors.As(err, &transportErr) && transportErr.Cause == ErrCauseTransientStatus {
		return result.Value(), nil
	}

	r.recordError(callerMethod, param.target, err)
	return Response{}, err
}

func (r *RetryingTransport) recordError(callerMethod string, target string, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var transportErr *TransportError
	if errors.Is(err, &retry.RetryError{}) {
		cause = metadata.CauseRetryFailure
	} else if errors.As(err, &transportErr) {
		cause = mapTransportErrorToMetadataCause(transportErr)
	}

	r.metadataSink.RecordError(
		time.Now(),
		"transport",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, target),
		},
	)
}

func isTransientStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}
