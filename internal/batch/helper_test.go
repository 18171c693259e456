package batch_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/internal/wayback"
	"github.com/stretchr/testify/mock"
)

// archiverMock is a testify mock for the wayback client
type archiverMock struct {
	mock.Mock
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (a *archiverMock) ArchiveURL(ctx context.Context, raw string) (wayback.ArchiveResult, *wayback.ArchiveError) {
	current := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		peak := a.maxInFlight.Load()
		if current <= peak || a.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	if a.delay > 0 {
		time.Sleep(a.delay)
	}

	args := a.Called(ctx, raw)
	result := args.Get(0).(wayback.ArchiveResult)
	var err *wayback.ArchiveError
	if args.Get(1) != nil {
		err = args.Get(1).(*wayback.ArchiveError)
	}
	return result, err
}

type recordedOutcome struct {
	url     string
	outcome metadata.Outcome
	details string
	attrs   []metadata.Attribute
}

type capturedStats struct {
	total    int
	archived int
	skipped  int
	failed   int
	duration time.Duration
}

// outcomeRecordingSink captures outcomes and final stats
type outcomeRecordingSink struct {
	mu       sync.Mutex
	outcomes []recordedOutcome
	stats    *capturedStats
	calls    int
}

func (s *outcomeRecordingSink) RecordError(time.Time, string, string, metadata.ErrorCause, string, []metadata.Attribute) {
}

func (s *outcomeRecordingSink) RecordFetch(string, int, time.Duration, int) {}

func (s *outcomeRecordingSink) RecordRetry(string, int, time.Duration, string) {}

func (s *outcomeRecordingSink) RecordOutcome(inputUrl string, outcome metadata.Outcome, details string, attrs []metadata.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, recordedOutcome{url: inputUrl, outcome: outcome, details: details, attrs: attrs})
}

func (s *outcomeRecordingSink) RecordFinalRunStats(total, archived, skipped, failed int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.stats = &capturedStats{total: total, archived: archived, skipped: skipped, failed: failed, duration: duration}
}

func newArchiverMockForTest(t *testing.T) *archiverMock {
	t.Helper()
	return new(archiverMock)
}

func attrValue(attrs []metadata.Attribute, key metadata.AttributeKey) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
