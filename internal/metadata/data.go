package metadata

/*
runStats
  - Represents a terminal, derived summary of a completed archiving run
  - Contains only aggregate counts and durations
  - Is computed by the batch runner after every URL finished
  - Is recorded exactly once
*/
type runStats struct {
	totalURLs  int
	archived   int
	skipped    int
	failed     int
	durationMs int64
}

// Outcome is the terminal classification of one input URL.
type Outcome string

const (
	OutcomeArchived Outcome = "archived"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, metrics, reporting).

Rules:
  - ErrorCause MUST NOT influence control flow.
  - ErrorCause MUST NOT be used for retry, skip, or abort decisions.
  - Packages MAY map their local errors to ErrorCause but MUST NOT invent
    new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Fallback for failures without a clear category.

# CauseNetworkFailure

Transport or remote availability failures: timeouts, DNS, connection resets,
5xx answers.

# CausePolicyDisallow

The request was refused by policy: a denylisted or unsafe target, 403/401,
rate-limit enforcement (429).

# CauseContentInvalid

A response arrived but could not be interpreted, e.g. a snapshot index that
is not valid JSON or carries a malformed timestamp.

# CauseArchiveRejected

The archive service answered the submission with a non-success status and
the follow-up existence query found no fresh snapshot.

# CauseRetryFailure

Retries were exhausted or interrupted.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseArchiveRejected
	CauseRetryFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseArchiveRejected:
		return "archive_rejected"
	case CauseRetryFailure:
		return "retry_failure"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrLocation   AttributeKey = "location"
	AttrMessage    AttributeKey = "message"
	AttrStage      AttributeKey = "stage"
	AttrSource     AttributeKey = "source"
	AttrPath       AttributeKey = "path"
)
