package wayback

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rohmanhakim/wayback-archiver/pkg/retry"
	"github.com/rohmanhakim/wayback-archiver/pkg/timeutil"
)

const (
	DefaultArchiveEndpoint      = "https://web.archive.org/save/"
	DefaultCheckEndpoint        = "https://web.archive.org/cdx/search/cdx?output=json&fl=timestamp&filter=statuscode:200&limit=-1&url="
	DefaultMaxRequestRetries    = 5
	DefaultArchiveThresholdDays = 30
	DefaultUserAgent            = "Mozilla/5.0 (X11; Fedora; Linux x86_64; rv:40.0) Gecko/20100101 Firefox/40.0"
	DefaultMaxBodyBytes         = 5 << 20
)

// DefaultExcludedDomains lists hosts known to block archive submissions.
var DefaultExcludedDomains = []string{
	"archive.org",
	"jstor.org",
	"diw.de",
	"youtube.com",
	"plato.stanford.edu",
}

var ErrInvalidClientConfig = errors.New("invalid client config")

// ClientConfig is immutable once built. The freshness cutoff is computed
// by Build and never refreshed, so a long-lived client's window narrows
// as wall-clock time advances.
type ClientConfig struct {
	archiveEndpoint      string
	checkEndpoint        string
	maxRequestRetries    int
	archiveThresholdDays int
	userAgent            string
	excludedDomains      []string

	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	backoffMaxDuration     time.Duration
	jitter                 time.Duration
	randomSeed             int64

	// single request ceiling, includes redirects and body read
	timeout           time.Duration
	maxBodyBytes      int64
	requestsPerMinute int

	now    func() time.Time
	cutoff time.Time
}

// DefaultClientConfig returns a config pointed at the public Wayback Machine.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		archiveEndpoint:        DefaultArchiveEndpoint,
		checkEndpoint:          DefaultCheckEndpoint,
		maxRequestRetries:      DefaultMaxRequestRetries,
		archiveThresholdDays:   DefaultArchiveThresholdDays,
		userAgent:              DefaultUserAgent,
		excludedDomains:        append([]string(nil), DefaultExcludedDomains...),
		backoffInitialDuration: time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		jitter:                 500 * time.Millisecond,
		timeout:                30 * time.Second,
		maxBodyBytes:           DefaultMaxBodyBytes,
		now:                    time.Now,
	}
}

func (c *ClientConfig) WithArchiveEndpoint(endpoint string) *ClientConfig {
	c.archiveEndpoint = endpoint
	return c
}

func (c *ClientConfig) WithCheckEndpoint(endpoint string) *ClientConfig {
	c.checkEndpoint = endpoint
	return c
}

func (c *ClientConfig) WithMaxRequestRetries(retries int) *ClientConfig {
	c.maxRequestRetries = retries
	return c
}

func (c *ClientConfig) WithArchiveThresholdDays(days int) *ClientConfig {
	c.archiveThresholdDays = days
	return c
}

func (c *ClientConfig) WithUserAgent(agent string) *ClientConfig {
	c.userAgent = agent
	return c
}

// WithExcludedDomains replaces the exclusion list. Entries match hosts by
// substring, in order.
func (c *ClientConfig) WithExcludedDomains(domains []string) *ClientConfig {
	c.excludedDomains = append([]string(nil), domains...)
	return c
}

func (c *ClientConfig) WithBackoff(initial time.Duration, multiplier float64, max time.Duration) *ClientConfig {
	c.backoffInitialDuration = initial
	c.backoffMultiplier = multiplier
	c.backoffMaxDuration = max
	return c
}

func (c *ClientConfig) WithJitter(jitter time.Duration) *ClientConfig {
	c.jitter = jitter
	return c
}

func (c *ClientConfig) WithRandomSeed(seed int64) *ClientConfig {
	c.randomSeed = seed
	return c
}

func (c *ClientConfig) WithTimeout(timeout time.Duration) *ClientConfig {
	c.timeout = timeout
	return c
}

func (c *ClientConfig) WithMaxBodyBytes(limit int64) *ClientConfig {
	c.maxBodyBytes = limit
	return c
}

func (c *ClientConfig) WithRequestsPerMinute(rpm int) *ClientConfig {
	c.requestsPerMinute = rpm
	return c
}

// WithClock overrides the time source used to compute the cutoff.
func (c *ClientConfig) WithClock(now func() time.Time) *ClientConfig {
	c.now = now
	return c
}

func (c *ClientConfig) Build() (ClientConfig, error) {
	if err := validateEndpoint("archive endpoint", c.archiveEndpoint); err != nil {
		return ClientConfig{}, err
	}
	if err := validateEndpoint("check endpoint", c.checkEndpoint); err != nil {
		return ClientConfig{}, err
	}
	if c.maxRequestRetries < 0 {
		return ClientConfig{}, fmt.Errorf("%w: max request retries must not be negative, got %d", ErrInvalidClientConfig, c.maxRequestRetries)
	}
	if c.archiveThresholdDays < 0 {
		return ClientConfig{}, fmt.Errorf("%w: archive threshold days must not be negative, got %d", ErrInvalidClientConfig, c.archiveThresholdDays)
	}
	if c.backoffMultiplier < 1 {
		return ClientConfig{}, fmt.Errorf("%w: backoff multiplier must be at least 1, got %v", ErrInvalidClientConfig, c.backoffMultiplier)
	}
	if c.requestsPerMinute < 0 {
		return ClientConfig{}, fmt.Errorf("%w: requests per minute must not be negative, got %d", ErrInvalidClientConfig, c.requestsPerMinute)
	}

	now := c.now
	if now == nil {
		now = time.Now
	}

	built := *c
	built.excludedDomains = append([]string(nil), c.excludedDomains...)
	built.cutoff = now().UTC().AddDate(0, 0, -c.archiveThresholdDays)
	return built, nil
}

func validateEndpoint(name string, endpoint string) error {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL, got %q", ErrInvalidClientConfig, name, endpoint)
	}
	return nil
}

func (c ClientConfig) ArchiveEndpoint() string {
	return c.archiveEndpoint
}

func (c ClientConfig) CheckEndpoint() string {
	return c.checkEndpoint
}

func (c ClientConfig) MaxRequestRetries() int {
	return c.maxRequestRetries
}

func (c ClientConfig) ArchiveThresholdDays() int {
	return c.archiveThresholdDays
}

func (c ClientConfig) UserAgent() string {
	return c.userAgent
}

func (c ClientConfig) ExcludedDomains() []string {
	return append([]string(nil), c.excludedDomains...)
}

func (c ClientConfig) Timeout() time.Duration {
	return c.timeout
}

func (c ClientConfig) MaxBodyBytes() int64 {
	return c.maxBodyBytes
}

func (c ClientConfig) RequestsPerMinute() int {
	return c.requestsPerMinute
}

func (c ClientConfig) Jitter() time.Duration {
	return c.jitter
}

// Cutoff is the instant a snapshot must be newer than to count as recent.
func (c ClientConfig) Cutoff() time.Time {
	return c.cutoff
}

func (c ClientConfig) BackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration)
}

// RetryParam converts the retry budget into attempts: one initial request
// plus maxRequestRetries retries.
func (c ClientConfig) RetryParam() retry.RetryParam {
	return retry.NewRetryParam(c.jitter, c.randomSeed, c.maxRequestRetries+1, c.BackoffParam())
}
