package wayback

import (
	"fmt"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
)

type ArchiveErrorCause string

const (
	ErrCauseInvalidURL         ArchiveErrorCause = "invalid url"
	ErrCauseExcludedURL        ArchiveErrorCause = "excluded url"
	ErrCauseRequestFailed      ArchiveErrorCause = "request failed"
	ErrCauseCannotCheckArchive ArchiveErrorCause = "cannot check archive"
	ErrCauseNoRecentArchive    ArchiveErrorCause = "no recent archive"
	ErrCauseCannotArchive      ArchiveErrorCause = "cannot archive"
)

// ArchiveError is the single error type returned by the archiving pipeline.
// Cause selects the variant; the other fields carry its payload.
type ArchiveError struct {
	Cause ArchiveErrorCause
	// URL is the offending input as the caller supplied it.
	URL string
	// Status is the submission status for ErrCauseCannotArchive.
	Status int
	// Message carries diagnostic detail from the failing stage.
	Message string
}

// Sentinels for errors.Is; matching is by cause only.
var (
	ErrInvalidURL         = &ArchiveError{Cause: ErrCauseInvalidURL}
	ErrExcludedURL        = &ArchiveError{Cause: ErrCauseExcludedURL}
	ErrRequestFailed      = &ArchiveError{Cause: ErrCauseRequestFailed}
	ErrCannotCheckArchive = &ArchiveError{Cause: ErrCauseCannotCheckArchive}
	ErrNoRecentArchive    = &ArchiveError{Cause: ErrCauseNoRecentArchive}
	ErrCannotArchive      = &ArchiveError{Cause: ErrCauseCannotArchive}
)

func (e *ArchiveError) Error() string {
	switch e.Cause {
	case ErrCauseInvalidURL:
		return fmt.Sprintf("Invalid URL: %s", e.URL)
	case ErrCauseExcludedURL:
		return fmt.Sprintf("Excluded URL: %s", e.URL)
	case ErrCauseRequestFailed:
		return fmt.Sprintf("Request failed: %s", e.Message)
	case ErrCauseCannotCheckArchive:
		return fmt.Sprintf("Failed to get archive: %s", e.Message)
	case ErrCauseNoRecentArchive:
		return fmt.Sprintf("No recent archive exists: %s", e.URL)
	case ErrCauseCannotArchive:
		return fmt.Sprintf("Failed (%d): %s", e.Status, e.URL)
	default:
		return fmt.Sprintf("wayback error: %s", e.Cause)
	}
}

// Severity tells a batch caller how to treat the failure: unsafe and
// excluded inputs are skipped silently, everything else is reported.
func (e *ArchiveError) Severity() failure.Severity {
	switch e.Cause {
	case ErrCauseInvalidURL, ErrCauseExcludedURL:
		return failure.SeverityIgnorable
	default:
		return failure.SeverityRecoverable
	}
}

// Is allows errors.Is to match ArchiveError values by cause
func (e *ArchiveError) Is(target error) bool {
	t, ok := target.(*ArchiveError)
	return ok && t.Cause == e.Cause
}

// mapArchiveErrorToMetadataCause maps pipeline error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapArchiveErrorToMetadataCause(err *ArchiveError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidURL, ErrCauseExcludedURL:
		return metadata.CausePolicyDisallow
	case ErrCauseRequestFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseCannotCheckArchive:
		return metadata.CauseContentInvalid
	case ErrCauseCannotArchive:
		return metadata.CauseArchiveRejected
	default:
		return metadata.CauseUnknown
	}
}

func invalidURL(raw string, reason string) *ArchiveError {
	return &ArchiveError{Cause: ErrCauseInvalidURL, URL: raw, Message: reason}
}
