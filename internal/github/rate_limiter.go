package github

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultRemaining is the GitHub API default hourly quota.
const defaultRemaining = 5000

// lowWater is the remaining-request threshold below which the limiter waits
// for the quota window to reset instead of spending the last few requests.
const lowWater = 10

// RateLimiter tracks the upstream quota reported in response headers and
// enforces a minimum spacing between requests.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetAt   time.Time
	spacing   *rate.Limiter
}

// NewRateLimiter creates a rate limiter that allows at most maxPerHour
// requests. maxPerHour <= 0 disables the spacing limit.
func NewRateLimiter(maxPerHour int) *RateLimiter {
	lim := rate.Inf
	if maxPerHour > 0 {
		lim = rate.Every(time.Hour / time.Duration(maxPerHour))
	}
	return &RateLimiter{
		remaining: defaultRemaining,
		resetAt:   time.Now().Add(time.Hour),
		spacing:   rate.NewLimiter(lim, 1),
	}
}

// Wait blocks until it is safe to make another API call.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	remaining, resetAt := r.remaining, r.resetAt
	r.mu.Unlock()

	if remaining <= lowWater {
		if wait := time.Until(resetAt); wait > 0 {
			slog.Info("rate limit low, waiting for reset", "remaining", remaining, "wait", wait.Round(time.Second))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		r.mu.Lock()
		r.remaining = defaultRemaining
		r.resetAt = time.Now().Add(time.Hour)
		r.mu.Unlock()
	}

	return r.spacing.Wait(ctx)
}

// Update records the quota reported by an API response.
func (r *RateLimiter) Update(remaining int, resetAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
	r.resetAt = resetAt
}

// Status returns the last known quota state.
func (r *RateLimiter) Status() (remaining int, resetAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining, r.resetAt
}
