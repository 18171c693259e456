package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/wayback-archiver/pkg/timeutil"
	"golang.org/x/time/rate"
)

// RateLimiter
// Paces outgoing requests per host.
// Responsibilities:
// - Hold a token bucket per host when a request budget is configured
// - Track a backoff window per host after throttling responses
// - Block callers until both the bucket and the backoff window allow a request
type RateLimiter interface {
	Wait(ctx context.Context, host string) error
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastFetchAsNow(host string)
	ResolveDelay(host string) time.Duration
}

type ConcurrentRateLimiter struct {
	mu                sync.RWMutex
	rngMu             sync.Mutex
	requestsPerMinute int
	jitter            time.Duration
	backoffParam      timeutil.BackoffParam
	hostTimings       map[string]hostTiming
	rng               *rand.Rand
}

// NewConcurrentRateLimiter returns a limiter allowing requestsPerMinute
// requests to each host. Zero or negative means unlimited.
func NewConcurrentRateLimiter(requestsPerMinute int, backoffParam timeutil.BackoffParam) *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		requestsPerMinute: requestsPerMinute,
		backoffParam:      backoffParam,
		hostTimings:       make(map[string]hostTiming),
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()

	r.rng = rand.New(rand.NewSource(randomSeed))
}

// Wait blocks until host may be contacted again or ctx is done.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	if bucket := r.bucketFor(host); bucket != nil {
		if err := bucket.Wait(ctx); err != nil {
			return err
		}
	}

	delay := r.ResolveDelay(host)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// bucketFor returns the host's token bucket, creating it on first use.
// Returns nil when no request budget is configured.
func (r *ConcurrentRateLimiter) bucketFor(host string) *rate.Limiter {
	if r.requestsPerMinute <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	if timing.bucket == nil {
		timing.bucket = rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.requestsPerMinute)), 1)
		r.hostTimings[host] = timing
	}
	return timing.bucket
}

// Backoff widens the host's backoff window exponentially.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.backoffCount++
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, 0, nil, r.backoffParam)
	r.hostTimings[host] = timing
}

// ResetBackoff clears the backoff window once the host answers normally.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.hostTimings[host]
	if !exists {
		return
	}
	timing.backoffCount = 0
	timing.backoffDelay = 0
	r.hostTimings[host] = timing
}

func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastFetchAt = time.Now()
	r.hostTimings[host] = timing
}

// ResolveDelay returns how long to wait before the backoff window for host
// has elapsed. Unknown hosts and hosts without backoff need no delay.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists || timing.backoffDelay <= 0 {
		return 0
	}

	r.rngMu.Lock()
	finalDelay := timing.backoffDelay + timeutil.ComputeJitter(jitter, r.rng)
	r.rngMu.Unlock()

	elapsed := time.Since(timing.lastFetchAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

func (r *ConcurrentRateLimiter) RequestsPerMinute() int {
	return r.requestsPerMinute
}

// HostTimings returns a shallow copy of the per-host state.
func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copyMap := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		copyMap[k] = v
	}
	return copyMap
}
