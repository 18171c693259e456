package batch

import (
	"fmt"

	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
)

type BatchErrorCause string

const (
	ErrCauseInvalidPattern BatchErrorCause = "invalid exclude pattern"
	ErrCauseInterrupted    BatchErrorCause = "run interrupted"
)

type BatchError struct {
	Message string
	Cause   BatchErrorCause
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch error: %s: %s", e.Cause, e.Message)
}

func (e *BatchError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match BatchError values by cause
func (e *BatchError) Is(target error) bool {
	t, ok := target.(*BatchError)
	return ok && (t.Cause == "" || t.Cause == e.Cause)
}
