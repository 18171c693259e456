package metadata

import (
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metrics"
	"github.com/rohmanhakim/wayback-archiver/pkg/hashutil"
	"github.com/rohmanhakim/wayback-archiver/pkg/urlutil"
	"go.uber.org/zap"
)

/*
Metadata Collected
- Request timestamps and durations
- HTTP status codes
- Retry attempts
- Per-URL outcomes

Logging Goals
- Debuggable archiving behavior
- Post-run auditability
- Failure diagnostics

Metadata is write-only.
No component may read metadata to influence archiving decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		retryCount int,
	)

	RecordRetry(
		fetchUrl string,
		attempt int,
		delay time.Duration,
		details string,
	)

	RecordOutcome(
		inputUrl string,
		outcome Outcome,
		details string,
		attrs []Attribute,
	)
}

type RunFinalizer interface {
	RecordFinalRunStats(
		totalURLs int,
		archived int,
		skipped int,
		failed int,
		duration time.Duration,
	)
}

/*
Recorder turns archiving events into structured zap log entries and
Prometheus observations.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events from one goroutine are recorded in the order they are received.
- No global ordering across concurrently processed URLs is guaranteed.
*/
type Recorder struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	runId   string
}

// NewRecorder returns a Recorder. A nil collector set disables metrics.
func NewRecorder(logger *zap.Logger, collectors *metrics.Metrics, runId string) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:  logger.With(zap.String("run_id", runId)),
		metrics: collectors,
		runId:   runId,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Stringer("cause", cause),
		zap.String("error", errorString),
	}
	r.logger.Warn("error recorded", append(fields, attrFields(attrs)...)...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
) {
	host := urlutil.Host(fetchUrl)
	r.logger.Debug("request completed",
		zap.String("url", fetchUrl),
		zap.String("host", host),
		zap.Int("http_status", httpStatus),
		zap.Duration("duration", duration),
		zap.Int("retry_count", retryCount),
	)
	if r.metrics != nil {
		r.metrics.ObserveRequest(host, httpStatus, duration)
	}
}

func (r *Recorder) RecordRetry(
	fetchUrl string,
	attempt int,
	delay time.Duration,
	details string,
) {
	host := urlutil.Host(fetchUrl)
	r.logger.Info("retrying request",
		zap.String("url", fetchUrl),
		zap.String("host", host),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.String("error", details),
	)
	if r.metrics != nil {
		r.metrics.ObserveRetry(host)
	}
}

func (r *Recorder) RecordOutcome(
	inputUrl string,
	outcome Outcome,
	details string,
	attrs []Attribute,
) {
	fields := []zap.Field{
		zap.String("url", inputUrl),
		zap.String("url_id", hashutil.URLID(urlutil.CanonicalString(inputUrl))),
		zap.String("outcome", string(outcome)),
	}
	if details != "" {
		fields = append(fields, zap.String("details", details))
	}
	fields = append(fields, attrFields(attrs)...)

	switch outcome {
	case OutcomeFailed:
		r.logger.Error("url failed", fields...)
	case OutcomeSkipped:
		r.logger.Info("url skipped", fields...)
	default:
		r.logger.Info("url archived", fields...)
	}

	if r.metrics != nil {
		r.metrics.ObserveOutcome(string(outcome))
	}
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per run, after every URL finished.
  - The provided counts MUST be derived from the batch runner's results,
    not accumulated via the recorder.
*/
func (r *Recorder) RecordFinalRunStats(
	totalURLs int,
	archived int,
	skipped int,
	failed int,
	duration time.Duration,
) {
	stats := runStats{
		totalURLs:  totalURLs,
		archived:   archived,
		skipped:    skipped,
		failed:     failed,
		durationMs: duration.Milliseconds(),
	}
	r.logger.Info("run finished",
		zap.Int("total", stats.totalURLs),
		zap.Int("archived", stats.archived),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
		zap.Int64("duration_ms", stats.durationMs),
	)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, attr := range attrs {
		fields = append(fields, zap.String(string(attr.Key), attr.Value))
	}
	return fields
}

// NoopSink implements MetadataSink and RunFinalizer but records nothing.
// Callers (or tests) decide whether to inject a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int) {
}

func (n *NoopSink) RecordRetry(fetchUrl string, attempt int, delay time.Duration, details string) {}

func (n *NoopSink) RecordOutcome(inputUrl string, outcome Outcome, details string, attrs []Attribute) {
}

func (n *NoopSink) RecordFinalRunStats(totalURLs, archived, skipped, failed int, duration time.Duration) {
}
