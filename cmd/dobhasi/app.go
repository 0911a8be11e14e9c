package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/ZaguanLabs/dobhasi/cache"
	"github.com/ZaguanLabs/dobhasi/config"
	"github.com/ZaguanLabs/dobhasi/provider"
	"go.uber.org/zap"
)

// app is everything a command needs, assembled from configuration.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      cache.Store
	cache      *cache.TranslationCache
	provider   dobhasi.AIProvider
	gateway    *dobhasi.Gateway
	translator *dobhasi.Translator
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.LoadWith(o.viper, o.configPath)
}

// newApp opens the store, loads the cache and builds the translator. The
// provider is only constructed when withProvider is set, so cache and
// language commands work without credentials.
func newApp(ctx context.Context, opts *rootOptions, withProvider bool) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := openStore(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Cache.Store, err)
	}

	c := cache.NewTranslationCache(store,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger.Named("cache")),
	)
	c.Load(ctx)

	a := &app{cfg: cfg, logger: logger, store: store, cache: c}

	var p dobhasi.AIProvider = unavailableProvider{}
	if withProvider {
		base, err := newProvider(ctx, cfg.Provider)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		p = wrapProvider(base, cfg.Gateway)
	}
	a.provider = p

	a.gateway = dobhasi.NewGateway(p,
		dobhasi.WithCache(c),
		dobhasi.WithRateLimit(dobhasi.RateLimitConfig{MinInterval: cfg.Gateway.MinInterval}),
		dobhasi.WithTimeout(cfg.Gateway.Timeout),
		dobhasi.WithNotifier(dobhasi.NewLogNotifier(logger.Named("notice"))),
		dobhasi.WithLogger(logger.Named("gateway")),
	)

	trOpts := []dobhasi.TranslatorOption{
		dobhasi.WithPreferences(dobhasi.NewStorePreferences(store)),
		dobhasi.WithTranslatorLogger(logger),
		dobhasi.WithCloser(store),
	}
	a.translator = dobhasi.NewTranslator(a.gateway, trOpts...)
	a.translator.Restore(ctx)

	// A configured language wins over the stored preference.
	if cfg.Language != "" {
		lang, ok := dobhasi.ParseLanguage(cfg.Language)
		if !ok {
			_ = a.Close()
			return nil, fmt.Errorf("unsupported language %q", cfg.Language)
		}
		if err := a.translator.SetLanguage(ctx, lang); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	return a, nil
}

// Close persists the cache and releases the store.
func (a *app) Close() error {
	err := a.translator.Close()
	_ = a.logger.Sync()
	return err
}

func openStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Store {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "file":
		return cache.NewFileStore(cfg.Path), nil
	case "redis":
		return cache.NewRedisStore(cache.RedisConfig{
			URL:       cfg.RedisURL,
			KeyPrefix: cfg.KeyPrefix,
		})
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
				return nil, err
			}
			dsn = filepath.Join(cfg.Path, "dobhasi.db")
		}
		return cache.OpenSQLStore(ctx, cache.DialectSQLite, dsn)
	case "postgres":
		return cache.OpenSQLStore(ctx, cache.DialectPostgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown cache store %q", cfg.Store)
	}
}

func newProvider(ctx context.Context, cfg config.ProviderConfig) (dobhasi.AIProvider, error) {
	switch cfg.Name {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("OpenAI API key required (provider.api_key or OPENAI_API_KEY env)")
		}
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		}), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, errors.New("Gemini API key required (provider.api_key or GEMINI_API_KEY env)")
		}
		return provider.NewGeminiProvider(ctx, provider.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
		})
	case "function":
		return provider.NewFunctionProvider(provider.FunctionConfig{
			URL:    cfg.FunctionURL,
			APIKey: cfg.APIKey,
		}), nil
	case "mock":
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// wrapProvider adds retries for transient failures and, when enabled, a
// circuit breaker in front of the retries.
func wrapProvider(p dobhasi.AIProvider, cfg config.GatewayConfig) dobhasi.AIProvider {
	if cfg.Retries > 0 {
		retry := dobhasi.DefaultRetryConfig()
		retry.MaxRetries = cfg.Retries
		p = dobhasi.NewRetryableProvider(p, retry)
	}
	if cfg.Breaker {
		p = dobhasi.NewBreakerProvider(p, dobhasi.BreakerConfig{})
	}
	return p
}

// unavailableProvider backs commands that never translate.
type unavailableProvider struct{}

func (unavailableProvider) Translate(context.Context, dobhasi.TranslateRequest) ([]string, error) {
	return nil, &dobhasi.ProviderError{Kind: dobhasi.KindNetwork, Message: "no translation backend configured"}
}
