package batch

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/internal/wayback"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
	"github.com/rohmanhakim/wayback-archiver/pkg/urlutil"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// Archiver is the part of wayback.Client the runner drives.
type Archiver interface {
	ArchiveURL(ctx context.Context, raw string) (wayback.ArchiveResult, *wayback.ArchiveError)
}

/*
Runner drives one archiving run over a list of input URLs.

Responsibilities
- Drop inputs matching an exclude pattern
- Drop repeated inputs by canonical form
- Run the pipeline for the remaining inputs with bounded concurrency
- Classify every input as archived, skipped or failed
- Report each outcome and the final counts to the metadata sink

The runner never retries: retries belong to the transport.
*/
type Runner struct {
	archiver        Archiver
	metadataSink    metadata.MetadataSink
	runFinalizer    metadata.RunFinalizer
	concurrency     int
	excludePatterns []*regexp.Regexp
	runID           string
	now             func() time.Time
}

func NewRunner(archiver Archiver, metadataSink metadata.MetadataSink, runFinalizer metadata.RunFinalizer) *Runner {
	return &Runner{
		archiver:     archiver,
		metadataSink: metadataSink,
		runFinalizer: runFinalizer,
		concurrency:  DefaultConcurrency,
		runID:        NewRunID(),
		now:          time.Now,
	}
}

// NewRunID returns a fresh identifier for correlating one run's log entries.
func NewRunID() string {
	return uuid.NewString()
}

// WithConcurrency caps the number of URLs processed at once. Values below 1
// fall back to DefaultConcurrency.
func (r *Runner) WithConcurrency(n int) *Runner {
	if n < 1 {
		n = DefaultConcurrency
	}
	r.concurrency = n
	return r
}

func (r *Runner) WithExcludePatterns(patterns []*regexp.Regexp) *Runner {
	r.excludePatterns = patterns
	return r
}

func (r *Runner) WithRunID(id string) *Runner {
	r.runID = id
	return r
}

func (r *Runner) RunID() string {
	return r.runID
}

// CompileExcludePatterns compiles every pattern, failing on the first
// invalid one.
func CompileExcludePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &BatchError{Message: err.Error(), Cause: ErrCauseInvalidPattern}
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Run archives urls and returns one Item per input in input order.
// A canceled context stops scheduling new URLs; the ones not started are
// reported as failed and Run returns an interrupted error with the summary.
func (r *Runner) Run(ctx context.Context, urls []string) (Summary, error) {
	start := r.now()
	items := make([]Item, len(urls))
	seen := NewSet[string]()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, raw := range urls {
		items[i].Input = raw

		if r.excluded(raw) {
			items[i].Outcome = metadata.OutcomeSkipped
			items[i].Reason = ReasonExcluded
			continue
		}
		if !seen.AddIfAbsent(urlutil.CanonicalString(raw)) {
			items[i].Outcome = metadata.OutcomeSkipped
			items[i].Reason = ReasonDuplicate
			continue
		}

		if gctx.Err() != nil {
			items[i].Outcome = metadata.OutcomeFailed
			items[i].Err = &wayback.ArchiveError{Cause: wayback.ErrCauseRequestFailed, URL: raw, Message: gctx.Err().Error()}
			continue
		}

		g.Go(func() error {
			result, err := r.archiver.ArchiveURL(gctx, raw)
			items[i].Result = result
			items[i].Err = err
			items[i].Outcome = classify(result, err)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{RunID: r.runID, Items: items}
	for _, item := range items {
		summary.count(item.Outcome)
		r.recordOutcome(item)
	}
	summary.Duration = r.now().Sub(start)

	r.runFinalizer.RecordFinalRunStats(
		summary.Total(),
		summary.Archived,
		summary.Skipped,
		summary.Failed,
		summary.Duration,
	)

	if err := ctx.Err(); err != nil {
		return summary, &BatchError{Message: err.Error(), Cause: ErrCauseInterrupted}
	}
	return summary, nil
}

func (r *Runner) excluded(raw string) bool {
	for _, re := range r.excludePatterns {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

// classify maps a pipeline result onto a run outcome. A fresh existing
// snapshot and unsafe or excluded inputs count as skipped, not failed.
func classify(result wayback.ArchiveResult, err *wayback.ArchiveError) metadata.Outcome {
	if err == nil {
		if result.IsArchived() {
			return metadata.OutcomeArchived
		}
		return metadata.OutcomeSkipped
	}
	if err.Severity() == failure.SeverityIgnorable {
		return metadata.OutcomeSkipped
	}
	return metadata.OutcomeFailed
}

func (r *Runner) recordOutcome(item Item) {
	outcome := item.Outcome
	var attrs []metadata.Attribute

	switch {
	case item.Err != nil:
		if item.Err.Status != 0 {
			attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(item.Err.Status)))
		}
		attrs = append(attrs, metadata.NewAttr(metadata.AttrStage, string(item.Err.Cause)))
	case item.Reason != "":
		attrs = append(attrs, metadata.NewAttr(metadata.AttrStage, "batch"))
	case item.Result.IsArchived():
		attrs = append(attrs, metadata.NewAttr(metadata.AttrLocation, item.Result.Location()))
	}

	r.metadataSink.RecordOutcome(item.Input, outcome, item.Detail(), attrs)
}
