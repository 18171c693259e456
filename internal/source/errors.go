package source

import (
	"fmt"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
)

type SourceErrorCause string

const (
	ErrCauseUnknownFormat SourceErrorCause = "unknown format"
	ErrCauseReadFailure   SourceErrorCause = "read failure"
	ErrCauseParseFailure  SourceErrorCause = "parse failure"
)

type SourceError struct {
	Message string
	Cause   SourceErrorCause
	Path    string
}

func (e *SourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("source error: %s: %s", e.Cause, e.Message)
	}
	return fmt.Sprintf("source error: %s: %s: %s", e.Cause, e.Path, e.Message)
}

// Severity is always fatal: a source that cannot be read aborts the run
// before any URL is submitted.
func (e *SourceError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match SourceError values by cause
func (e *SourceError) Is(target error) bool {
	t, ok := target.(*SourceError)
	return ok && (t.Cause == "" || t.Cause == e.Cause)
}
