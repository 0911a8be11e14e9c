package dobhasi

import (
	"context"
	"errors"
	"time"

	"github.com/ZaguanLabs/dobhasi/cache"
	"go.uber.org/zap"
)

// Config describes a complete translation context for Open.
type Config struct {
	Provider AIProvider  // Translation backend (required)
	Store    cache.Store // Where the cache and language preference live (required)

	CacheTTL  time.Duration   // Entry lifetime (default: cache.DefaultTTL)
	RateLimit RateLimitConfig // Spacing between provider calls (default: 1s)
	Timeout   time.Duration   // Provider call timeout (default: 30s)
	Notifier  Notifier        // Receives failure notices (default: logged)
	Logger    *zap.Logger     // Defaults to a no-op logger
}

// Open builds the cache and gateway over cfg.Store, loads the persisted cache
// and restores the language preference. Close on the returned Translator saves
// the cache and closes the store.
func Open(ctx context.Context, cfg Config) (*Translator, error) {
	if cfg.Provider == nil {
		return nil, &TranslationError{Message: "opening translator", Cause: errors.New("provider is required")}
	}
	if cfg.Store == nil {
		return nil, &TranslationError{Message: "opening translator", Cause: errors.New("store is required")}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheOpts := []cache.Option{cache.WithLogger(logger.Named("cache"))}
	if cfg.CacheTTL > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(cfg.CacheTTL))
	}
	c := cache.NewTranslationCache(cfg.Store, cacheOpts...)
	c.Load(ctx)

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	gwOpts := []GatewayOption{
		WithCache(c),
		WithRateLimit(cfg.RateLimit),
		WithNotifier(notifier),
		WithLogger(logger.Named("gateway")),
	}
	if cfg.Timeout > 0 {
		gwOpts = append(gwOpts, WithTimeout(cfg.Timeout))
	}

	t := NewTranslator(NewGateway(cfg.Provider, gwOpts...),
		WithPreferences(NewStorePreferences(cfg.Store)),
		WithTranslatorLogger(logger),
		WithCloser(cfg.Store),
	)
	t.Restore(ctx)

	return t, nil
}
