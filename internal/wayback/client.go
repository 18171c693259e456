package wayback

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/internal/transport"
	"github.com/rohmanhakim/wayback-archiver/pkg/limiter"
)

/*
Responsibilities

- Decide, per URL, whether to skip, submit, or report failure
- Avoid submitting pages that already have a fresh snapshot
- Compensate for submissions reported as failed that actually succeeded

Pipeline

 1. VALIDATE  reject unsafe, malformed and excluded targets before any I/O
 2. RESOLVE   follow redirects once; a failed request falls back to the input
 3. CHECK     a fresh snapshot ends the call with RecentArchiveExists
 4. SUBMIT    a non-2xx answer triggers one existence check on the original URL

Transient failures are retried below this level by the transport. The
client makes no other semantic retries and holds no mutable state, so
one Client may serve any number of concurrent ArchiveURL calls.
*/
type Client struct {
	config       ClientConfig
	validator    Validator
	transport    transport.Transport
	metadataSink metadata.MetadataSink
}

// NewClient wires the default transport stack: HTTP, optionally rate
// limited per host, wrapped in retry.
func NewClient(config ClientConfig, metadataSink metadata.MetadataSink) *Client {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}

	var base transport.Transport = transport.NewHTTPTransport(
		metadataSink,
		config.userAgent,
		config.timeout,
		config.maxBodyBytes,
	)

	if config.requestsPerMinute > 0 {
		rateLimiter := limiter.NewConcurrentRateLimiter(config.requestsPerMinute, config.BackoffParam())
		rateLimiter.SetJitter(config.jitter)
		if config.randomSeed != 0 {
			rateLimiter.SetRandomSeed(config.randomSeed)
		}
		base = transport.NewRateLimitedTransport(base, rateLimiter, metadataSink)
	}

	return NewClientWithTransport(
		config,
		transport.NewRetryingTransport(base, config.RetryParam(), metadataSink),
		metadataSink,
	)
}

// NewClientWithTransport uses t as is; retry, if wanted, is t's concern.
func NewClientWithTransport(config ClientConfig, t transport.Transport, metadataSink metadata.MetadataSink) *Client {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	return &Client{
		config:       config,
		validator:    NewValidator(config.excludedDomains),
		transport:    t,
		metadataSink: metadataSink,
	}
}

func (c *Client) Config() ClientConfig {
	return c.config
}

// ArchiveURL runs the four-stage pipeline once for raw.
func (c *Client) ArchiveURL(ctx context.Context, raw string) (ArchiveResult, *ArchiveError) {
	original, err := c.validator.Parse(raw)
	if err != nil {
		return ArchiveResult{}, err
	}

	resolved, err := c.resolve(ctx, original)
	if err != nil {
		return ArchiveResult{}, err
	}

	checkErr := c.CheckRecent(ctx, resolved)
	if checkErr == nil {
		return RecentArchiveExists(), nil
	}
	if !errors.Is(checkErr, ErrNoRecentArchive) {
		c.recordError("Client.CheckRecent", checkErr)
	}

	resp, sendErr := c.transport.Send(ctx, transport.NewRequestParam(c.config.archiveEndpoint+resolved.String()))
	if sendErr != nil {
		failed := &ArchiveError{Cause: ErrCauseRequestFailed, URL: raw, Message: sendErr.Error()}
		c.recordError("Client.ArchiveURL", failed)
		return ArchiveResult{}, failed
	}

	location := archivedLocation(resp)
	if resp.IsSuccess() {
		return Archived(location), nil
	}

	// The save endpoint sometimes fails after capturing the page; a fresh
	// snapshot of the original URL means the submission went through.
	if c.CheckRecent(ctx, original) == nil {
		return Archived(location), nil
	}

	failed := &ArchiveError{Cause: ErrCauseCannotArchive, Status: resp.StatusCode(), URL: original.String()}
	c.recordError("Client.ArchiveURL", failed)
	return ArchiveResult{}, failed
}

// resolve follows redirects from original and validates where they land.
// A hop refused by the validator aborts; any other failed request keeps
// original.
func (c *Client) resolve(ctx context.Context, original ArchivableURL) (ArchivableURL, *ArchiveError) {
	resp, err := c.transport.Send(ctx, transport.NewRequestParam(original.String()).
		WithDiscardBody().
		WithRedirectCheck(c.validator.checkRedirect))
	if err != nil {
		var transportErr *transport.TransportError
		if errors.As(err, &transportErr) && transportErr.Cause == transport.ErrCauseRedirectRejected {
			if _, rejected := c.validator.Parse(transportErr.Target); rejected != nil {
				return ArchivableURL{}, rejected
			}
		}
		return original, nil
	}

	final := resp.FinalURL()
	if final.Host == "" {
		return original, nil
	}
	if final.String() == original.String() {
		return original, nil
	}
	return c.validator.Parse(final.String())
}

// archivedLocation prefers the Content-Location header, resolved against
// the submission's final URL.
func archivedLocation(resp transport.Response) string {
	final := resp.FinalURL()
	if header := resp.Header("Content-Location"); header != "" {
		if ref, err := url.Parse(header); err == nil {
			return final.ResolveReference(ref).String()
		}
	}
	return final.String()
}

func (c *Client) recordError(action string, err *ArchiveError) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrURL, err.URL),
	}
	if err.Status != 0 {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(err.Status)))
	}
	c.metadataSink.RecordError(
		time.Now(),
		"wayback",
		action,
		mapArchiveErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}
