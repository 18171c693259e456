package transport

import (
	"fmt"

	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/pkg/failure"
)

type TransportErrorCause string

const (
	ErrCauseInvalidRequest        TransportErrorCause = "invalid request"
	ErrCauseTimeout               TransportErrorCause = "timeout"
	ErrCauseNetworkFailure        TransportErrorCause = "network issues"
	ErrCauseReadResponseBodyError TransportErrorCause = "failed to read response body"
	ErrCauseTransientStatus       TransportErrorCause = "transient status"
	ErrCauseCanceled              TransportErrorCause = "canceled"
	ErrCauseRedirectRejected      TransportErrorCause = "redirect rejected"
)

type TransportError struct {
	Message   string
	Retryable bool
	Cause     TransportErrorCause
	// Status is set for ErrCauseTransientStatus.
	Status int
	// Target is the hop refused for ErrCauseRedirectRejected.
	Target string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s: %s", e.Cause, e.Message)
}

func (e *TransportError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// mapTransportErrorToMetadataCause maps transport-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapTransportErrorToMetadataCause(err *TransportError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError:
		return metadata.CauseNetworkFailure
	case ErrCauseTransientStatus:
		if err.Status == 429 {
			return metadata.CausePolicyDisallow
		}
		return metadata.CauseNetworkFailure
	case ErrCauseRedirectRejected:
		return metadata.CausePolicyDisallow
	default:
		return metadata.CauseUnknown
	}
}

// redirectRejection carries a refused hop out of http.Client.CheckRedirect.
type redirectRejection struct {
	target string
	err    error
}

func (r *redirectRejection) Error() string {
	return fmt.Sprintf("redirect to %s rejected: %v", r.target, r.err)
}
