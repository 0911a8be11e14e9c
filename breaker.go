package dobhasi

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig configures the provider circuit breaker.
type BreakerConfig struct {
	Name             string        // Breaker name used in metrics (default: "translation-provider")
	FailureThreshold uint32        // Consecutive failures that open the breaker (default: 5)
	OpenTimeout      time.Duration // Time the breaker stays open (default: 30s)
	Interval         time.Duration // Closed-state counter reset period (default: 1m)
}

// BreakerProvider wraps an AIProvider with a circuit breaker. While open, calls
// fail fast with a KindNetwork error and callers show the original text.
// Rate-limit rejections do not count as failures.
type BreakerProvider struct {
	provider AIProvider
	breaker  *gobreaker.CircuitBreaker
}

// NewBreakerProvider creates a new provider guarded by a circuit breaker.
func NewBreakerProvider(provider AIProvider, cfg BreakerConfig) *BreakerProvider {
	name := cfg.Name
	if name == "" {
		name = "translation-provider"
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			recordBreakerStateChange(name, from, to)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsRateLimited(err) || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerProvider{
		provider: provider,
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

// Translate implements AIProvider through the circuit breaker.
func (p *BreakerProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.provider.Translate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ProviderError{
				Kind:    KindNetwork,
				Message: "translation backend unavailable",
				Cause:   err,
			}
		}
		return nil, err
	}

	translations, _ := result.([]string)
	return translations, nil
}

// State returns the current breaker state.
func (p *BreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}
