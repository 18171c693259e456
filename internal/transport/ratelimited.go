package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/limiter"
	"github.com/rohmanhakim/wayback-archiver/pkg/urlutil"
)

// RateLimitedTransport paces requests per target host and widens a host's
// backoff window whenever it answers 429.
type RateLimitedTransport struct {
	next         Transport
	rateLimiter  limiter.RateLimiter
	metadataSink metadata.MetadataSink
}

func NewRateLimitedTransport(
	next Transport,
	rateLimiter limiter.RateLimiter,
	metadataSink metadata.MetadataSink,
) *RateLimitedTransport {
	return &RateLimitedTransport{
		next:         next,
		rateLimiter:  rateLimiter,
		metadataSink: metadataSink,
	}
}

func (r *RateLimitedTransport) Send(ctx context.Context, param RequestParam) (Response, failure.ClassifiedError) {
	host := urlutil.Host(param.target)

	if err := r.rateLimiter.Wait(ctx, host); err != nil {
		r.metadataSink.RecordError(
			time.Now(),
			"transport",
			"RateLimitedTransport.Send",
			metadata.CausePolicyDisallow,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, param.target),
				metadata.NewAttr(metadata.AttrHost, host),
			},
		)
		return Response{}, &TransportError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseCanceled,
		}
	}

	r.rateLimiter.MarkLastFetchAsNow(host)
	resp, err := r.next.Send(ctx, param)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		r.rateLimiter.Backoff(host)
	} else {
		r.rateLimiter.ResetBackoff(host)
	}
	return resp, nil
}
