package batch

import (
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/internal/wayback"
)

// Skip reasons reported for inputs that never reach the archive pipeline.
const (
	ReasonDuplicate = "duplicate"
	ReasonExcluded  = "matched exclude pattern"
)

// Item is the terminal result for one input URL, in input order.
type Item struct {
	Input   string
	Outcome metadata.Outcome
	Result  wayback.ArchiveResult
	// Err is set when the pipeline returned an error.
	Err *wayback.ArchiveError
	// Reason explains a skip decided before the pipeline ran.
	Reason string
}

// Detail renders the human-readable part of a result line.
func (i Item) Detail() string {
	switch {
	case i.Err != nil:
		return i.Err.Error()
	case i.Reason != "":
		return i.Reason
	case i.Outcome == metadata.OutcomeArchived:
		return i.Result.Location()
	default:
		return i.Result.String()
	}
}

type Summary struct {
	RunID    string
	Items    []Item
	Archived int
	Skipped  int
	Failed   int
	Duration time.Duration
}

func (s Summary) Total() int {
	return len(s.Items)
}

// ExitCode is 1 when any URL failed and 0 otherwise.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

func (s *Summary) count(outcome metadata.Outcome) {
	switch outcome {
	case metadata.OutcomeArchived:
		s.Archived++
	case metadata.OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
