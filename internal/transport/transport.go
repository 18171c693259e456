package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
)

/*
Responsibilities

- Perform HTTP GET requests
- Apply headers and timeouts
- Follow redirects, vetting each hop when asked, and report the final URL
- Bound the amount of body read

Send Semantics

- Any completed exchange yields a Response, whatever its status
- Errors are returned only when no exchange completed or the body could not be read
- Status interpretation belongs to decorators and callers

The transport has no archiving knowledge.
*/
type Transport interface {
	Send(ctx context.Context, param RequestParam) (Response, failure.ClassifiedError)
}

const maxRedirects = 10

type HTTPTransport struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPTransport returns a transport sharing one pooled client. A zero
// timeout leaves requests bounded only by their context.
func NewHTTPTransport(
	metadataSink metadata.MetadataSink,
	userAgent string,
	timeout time.Duration,
	maxBodyBytes int64,
) *HTTPTransport {
	return &HTTPTransport{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *HTTPTransport) Send(ctx context.Context, param RequestParam) (Response, failure.ClassifiedError) {
	startTime := time.Now()

	resp, err := h.perform(ctx, param)

	h.metadataSink.RecordFetch(param.target, resp.statusCode, time.Since(startTime), 0)

	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (h *HTTPTransport) perform(ctx context.Context, param RequestParam) (Response, *TransportError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, param.target, nil)
	if err != nil {
		return Response{}, &TransportError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
		}
	}

	for key, value := range requestHeaders(h.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.client(param).Do(req)
	if err != nil {
		return Response{}, classifyDoError(ctx, err)
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if h.maxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, h.maxBodyBytes)
	}

	var body []byte
	if param.discardBody {
		_, err = io.Copy(io.Discard, reader)
	} else {
		body, err = io.ReadAll(reader)
	}
	if err != nil {
		return Response{statusCode: resp.StatusCode}, &TransportError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	return Response{
		statusCode: resp.StatusCode,
		finalURL:   *resp.Request.URL,
		header:     resp.Header,
		body:       body,
	}, nil
}

// client returns the shared client, or a copy of it that vets every
// redirect hop when param carries a redirect check.
func (h *HTTPTransport) client(param RequestParam) *http.Client {
	if param.redirectCheck == nil {
		return h.httpClient
	}
	c := *h.httpClient
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if err := param.redirectCheck(req.URL); err != nil {
			return &redirectRejection{target: req.URL.String(), err: err}
		}
		return nil
	}
	return &c
}

func classifyDoError(ctx context.Context, err error) *TransportError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &TransportError{
			Message:   ctxErr.Error(),
			Retryable: false,
			Cause:     ErrCauseCanceled,
		}
	}

	var rejection *redirectRejection
	if errors.As(err, &rejection) {
		return &TransportError{
			Message:   rejection.Error(),
			Retryable: false,
			Cause:     ErrCauseRedirectRejected,
			Target:    rejection.target,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{
			Message:   fmt.Sprintf("request timed out: %v", err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}

	// Connection-level failures are retryable
	return &TransportError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
