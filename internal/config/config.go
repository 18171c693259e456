package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/batch"
	"github.com/rohmanhakim/wayback-archiver/internal/wayback"
)

type Config struct {
	//===============
	// Archive service
	//===============
	// Prefix the target URL is appended to when submitting a capture
	archiveEndpoint string
	// Prefix the target URL is appended to when querying snapshots
	checkEndpoint string
	// Retries after the first attempt for every outbound request
	maxRequestRetries int
	// A snapshot younger than this many days is considered recent
	archiveThresholdDays int
	// User agent sent with every request
	userAgent string

	//===============
	// Scope
	//===============
	// Host substrings the archive refuses; matching inputs are skipped
	excludedDomains []string
	// Regular expressions; a matching input is skipped before the pipeline runs
	excludePatterns []string

	//===============
	// Politeness
	//===============
	// Maximum number of URLs processed at once
	concurrency int
	// Requests per minute per host, 0 means unlimited
	requestsPerMinute int
	// Randomized variation added on top of every backoff delay
	jitter time.Duration
	// Seed for the backoff jitter, 0 seeds from the clock
	randomSeed int64
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Ceiling for a single request including redirects and body read
	timeout time.Duration

	//===============
	// Observability
	//===============
	logLevel       string
	logDevelopment bool
	// node-exporter textfile written at the end of the run, empty disables it
	metricsFile string
	// JSON Lines report with one record per input URL, empty disables it
	reportFile string
}

// WithDefault creates a new Config pointed at the public Wayback Machine.
func WithDefault() *Config {
	defaultConfig := Config{
		archiveEndpoint:        wayback.DefaultArchiveEndpoint,
		checkEndpoint:          wayback.DefaultCheckEndpoint,
		maxRequestRetries:      wayback.DefaultMaxRequestRetries,
		archiveThresholdDays:   wayback.DefaultArchiveThresholdDays,
		userAgent:              wayback.DefaultUserAgent,
		excludedDomains:        append([]string(nil), wayback.DefaultExcludedDomains...),
		excludePatterns:        []string{},
		concurrency:            batch.DefaultConcurrency,
		requestsPerMinute:      0,
		jitter:                 500 * time.Millisecond,
		randomSeed:             0,
		backoffInitialDuration: time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		timeout:                30 * time.Second,
		logLevel:               "info",
		logDevelopment:         false,
		metricsFile:            "",
		reportFile:             "",
	}
	return &defaultConfig
}

func (c *Config) WithArchiveEndpoint(endpoint string) *Config {
	c.archiveEndpoint = endpoint
	return c
}

func (c *Config) WithCheckEndpoint(endpoint string) *Config {
	c.checkEndpoint = endpoint
	return c
}

func (c *Config) WithMaxRequestRetries(retries int) *Config {
	c.maxRequestRetries = retries
	return c
}

func (c *Config) WithArchiveThresholdDays(days int) *Config {
	c.archiveThresholdDays = days
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithExcludedDomains(domains []string) *Config {
	c.excludedDomains = domains
	return c
}

func (c *Config) WithExcludePatterns(patterns []string) *Config {
	c.excludePatterns = patterns
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithRequestsPerMinute(rpm int) *Config {
	c.requestsPerMinute = rpm
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogDevelopment(development bool) *Config {
	c.logDevelopment = development
	return c
}

func (c *Config) WithMetricsFile(path string) *Config {
	c.metricsFile = path
	return c
}

func (c *Config) WithReportFile(path string) *Config {
	c.reportFile = path
	return c
}

// Build validates the accumulated values through the same DTO rules a
// config file is checked against.
func (c *Config) Build() (Config, error) {
	c.logLevel = strings.ToLower(strings.TrimSpace(c.logLevel))
	if err := validateDTO(c.toDTO()); err != nil {
		return Config{}, err
	}
	if _, err := batch.CompileExcludePatterns(c.excludePatterns); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return *c, nil
}

// ClientConfig derives the wayback client settings.
func (c Config) ClientConfig() (wayback.ClientConfig, error) {
	clientConfig, err := wayback.DefaultClientConfig().
		WithArchiveEndpoint(c.archiveEndpoint).
		WithCheckEndpoint(c.checkEndpoint).
		WithMaxRequestRetries(c.maxRequestRetries).
		WithArchiveThresholdDays(c.archiveThresholdDays).
		WithUserAgent(c.userAgent).
		WithExcludedDomains(c.ExcludedDomains()).
		WithBackoff(c.backoffInitialDuration, c.backoffMultiplier, c.backoffMaxDuration).
		WithJitter(c.jitter).
		WithRandomSeed(c.randomSeed).
		WithTimeout(c.timeout).
		WithRequestsPerMinute(c.requestsPerMinute).
		Build()
	if err != nil {
		return wayback.ClientConfig{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return clientConfig, nil
}

func (c Config) ArchiveEndpoint() string {
	return c.archiveEndpoint
}

func (c Config) CheckEndpoint() string {
	return c.checkEndpoint
}

func (c Config) MaxRequestRetries() int {
	return c.maxRequestRetries
}

func (c Config) ArchiveThresholdDays() int {
	return c.archiveThresholdDays
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) ExcludedDomains() []string {
	domains := make([]string, len(c.excludedDomains))
	copy(domains, c.excludedDomains)
	return domains
}

func (c Config) ExcludePatterns() []string {
	patterns := make([]string, len(c.excludePatterns))
	copy(patterns, c.excludePatterns)
	return patterns
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) RequestsPerMinute() int {
	return c.requestsPerMinute
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogDevelopment() bool {
	return c.logDevelopment
}

func (c Config) MetricsFile() string {
	return c.metricsFile
}

func (c Config) ReportFile() string {
	return c.reportFile
}
