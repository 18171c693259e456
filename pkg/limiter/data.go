package limiter

import (
	"time"

	"golang.org/x/time/rate"
)

// per-host pacing state
type hostTiming struct {
	lastFetchAt  time.Time
	backoffDelay time.Duration
	backoffCount int
	bucket       *rate.Limiter
}

func (h hostTiming) BackOffDelay() time.Duration {
	return h.backoffDelay
}

func (h hostTiming) LastFetchAt() time.Time {
	return h.lastFetchAt
}

func (h hostTiming) BackoffCount() int {
	return h.backoffCount
}
