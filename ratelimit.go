package dobhasi

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces provider calls by a minimum interval. With the default
// burst of one it is a leaky bucket of one: a call waits until MinInterval has
// passed since the previous call was issued.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
	mu       sync.Mutex
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	MinInterval time.Duration // Minimum spacing between calls (default: 1s)
	BurstSize   int           // Calls allowed back to back (default: 1)
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = MinRequestInterval
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
		interval: interval,
	}
}

// Wait blocks until a call may be issued or ctx is done. The slot is reserved
// at the moment Wait is entered, so concurrent callers queue behind each other
// instead of measuring against the same timestamp.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.last = time.Now()
	r.mu.Unlock()
	return nil
}

// TryAcquire attempts to acquire a slot without blocking.
func (r *RateLimiter) TryAcquire() bool {
	if !r.limiter.Allow() {
		return false
	}

	r.mu.Lock()
	r.last = time.Now()
	r.mu.Unlock()
	return true
}

// LastIssued returns when the most recent slot was handed out.
func (r *RateLimiter) LastIssued() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Interval returns the configured minimum spacing.
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}

// RateLimitedProvider wraps an AIProvider with rate limiting.
type RateLimitedProvider struct {
	provider AIProvider
	limiter  *RateLimiter
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider AIProvider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Translate implements AIProvider with rate limiting.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Kind:    KindTimeout,
			Message: "rate limit wait cancelled",
			Cause:   err,
		}
	}

	return p.provider.Translate(ctx, req)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *RateLimiter {
	return p.limiter
}
