package github

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Quota headers exposed by the GitHub API on every response.
const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

// resetFallback is assumed when the quota is exhausted but the reset header
// is missing or unparsable.
const resetFallback = time.Hour

// warnThreshold is the remaining-quota level below which a warning is logged.
const warnThreshold = 10

// RateLimiter suspends the traversal when the API quota is exhausted.
//
// Exhausted quota is never surfaced as a failure: the limiter blocks until
// the quota window resets and tells the caller to re-issue the same request.
// The clock and sleep functions are injectable so tests can observe waits
// without real delays.
type RateLimiter struct {
	logger *log.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// NewRateLimiter creates a rate limiter using the wall clock.
func NewRateLimiter(logger *log.Logger) *RateLimiter {
	return &RateLimiter{
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Pause inspects the quota counters on res. When the remaining quota is zero,
// or the response signals a quota-exceeded condition, it blocks until one
// second past the reset instant and reports true: the caller must retry the
// same request rather than advancing. Otherwise it returns immediately.
// The returned error is non-nil only when the context is cancelled during
// the wait.
func (rl *RateLimiter) Pause(ctx context.Context, res *Response) (bool, error) {
	remainingHeader := res.Header.Get(headerRateRemaining)
	if remainingHeader == "" {
		return false, nil
	}
	remaining, err := strconv.Atoi(remainingHeader)
	if err != nil {
		return false, nil
	}

	if remaining < warnThreshold {
		rl.logger.Warn("API quota running low", "remaining", remaining)
	}

	if remaining > 0 && !quotaExceeded(res) {
		return false, nil
	}

	wait := rl.waitDuration(res)
	rl.logger.Warn("API rate limit reached, pausing", "wait", wait)
	if err := rl.sleep(ctx, wait); err != nil {
		return false, err
	}
	return true, nil
}

// waitDuration computes how long to pause: one second past the reset epoch,
// never negative.
func (rl *RateLimiter) waitDuration(res *Response) time.Duration {
	reset := rl.now().Add(resetFallback)
	if epoch, err := strconv.ParseInt(res.Header.Get(headerRateReset), 10, 64); err == nil {
		reset = time.Unix(epoch, 0)
	}
	return max(reset.Sub(rl.now()), 0) + time.Second
}

// quotaExceeded detects secondary rate-limit responses that arrive with a
// nonzero remaining count but a 403 quota body.
func quotaExceeded(res *Response) bool {
	return res.StatusCode == 403 && strings.Contains(strings.ToLower(string(res.Body)), "rate limit exceeded")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
