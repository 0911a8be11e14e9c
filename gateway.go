package dobhasi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AIProvider is the interface for AI translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// AIProviderFunc adapts a function to the AIProvider interface.
type AIProviderFunc func(ctx context.Context, req TranslateRequest) ([]string, error)

// Translate calls f(ctx, req).
func (f AIProviderFunc) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	return f(ctx, req)
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get returns a live translation of text into lang.
	Get(lang, text string) (string, bool)

	// Put stores a translation with the current timestamp.
	Put(lang, text, value string)

	// Save persists the cache.
	Save(ctx context.Context) error
}

// Gateway turns lists of strings into lists of translations with as few
// provider calls as possible. It is safe for concurrent use.
type Gateway struct {
	provider   AIProvider
	cache      TranslationCache
	limiter    *RateLimiter
	notifier   Notifier
	logger     *zap.Logger
	sourceLang Language
	timeout    time.Duration
	group      singleflight.Group
	inFlight   atomic.Int64

	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	providerCalls atomic.Int64
	sharedWaits   atomic.Int64
	failures      atomic.Int64
}

// GatewayOption is a functional option for configuring the Gateway.
type GatewayOption func(*Gateway)

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) GatewayOption {
	return func(g *Gateway) {
		g.cache = cache
	}
}

// WithRateLimit sets the minimum spacing between provider calls.
func WithRateLimit(cfg RateLimitConfig) GatewayOption {
	return func(g *Gateway) {
		g.limiter = NewRateLimiter(cfg)
	}
}

// WithTimeout bounds each provider call. Time spent queued on the rate limiter is not counted.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithNotifier sets where user-visible failure notices go.
func WithNotifier(n Notifier) GatewayOption {
	return func(g *Gateway) {
		if n != nil {
			g.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithSourceLang sets the authored language. Batches targeting it are returned unchanged.
func WithSourceLang(lang Language) GatewayOption {
	return func(g *Gateway) {
		g.sourceLang = lang
	}
}

// NewGateway creates a new Gateway in front of provider.
func NewGateway(provider AIProvider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:   provider,
		limiter:    NewRateLimiter(RateLimitConfig{}),
		notifier:   nopNotifier{},
		logger:     zap.NewNop(),
		sourceLang: English,
		timeout:    DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// BatchOption tunes a single TranslateBatch call.
type BatchOption func(*batchOptions)

type batchOptions struct {
	explicit bool
}

// ExplicitTarget translates even when the target is the source language.
// Used for content authored in Bengali that is requested in English.
func ExplicitTarget() BatchOption {
	return func(o *batchOptions) {
		o.explicit = true
	}
}

// Translate translates a single text. It is TranslateBatch with one item.
func (g *Gateway) Translate(ctx context.Context, text string, lang Language, opts ...BatchOption) string {
	return g.TranslateBatch(ctx, []string{text}, lang, opts...)[0]
}

// TranslateBatch translates texts into lang. The result always has the same
// length and order as texts. Blank texts pass through, cached texts are served
// from the cache and the remaining texts are sent to the provider in one call,
// shared with any identical call already in flight. Failures fall back to the
// original text; no error is returned.
//
// Cancelling ctx returns the originals for texts still waiting on the provider.
// The provider call itself keeps running and still fills the cache.
func (g *Gateway) TranslateBatch(ctx context.Context, texts []string, lang Language, opts ...BatchOption) []string {
	results := make([]string, len(texts))
	copy(results, texts)

	var o batchOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(texts) == 0 || (lang == g.sourceLang && !o.explicit) {
		return results
	}

	positions := make(map[string][]int)
	var missed []string
	for i, text := range texts {
		if IsBlank(text) {
			continue
		}

		if g.cache != nil {
			if cached, ok := g.cache.Get(string(lang), text); ok {
				results[i] = cached
				g.cacheHits.Add(1)
				recordCacheLookup(lang, true)
				continue
			}
		}

		if _, seen := positions[text]; !seen {
			missed = append(missed, text)
			g.cacheMisses.Add(1)
			recordCacheLookup(lang, false)
		}
		positions[text] = append(positions[text], i)
	}

	if len(missed) == 0 {
		return results
	}

	// Sorted so every caller with the same key sends and reads the same order.
	sort.Strings(missed)
	key := BatchKey(lang, missed)

	// Set only when this caller's function is the one that runs.
	var ran bool
	ch := g.group.DoChan(key, func() (interface{}, error) {
		ran = true
		return g.fetch(ctx, lang, missed), nil
	})

	var translated []string
	select {
	case res := <-ch:
		translated, _ = res.Val.([]string)
		if !ran {
			g.sharedWaits.Add(1)
			recordSharedRequest()
		}
	case <-ctx.Done():
		return results
	}

	if len(translated) != len(missed) {
		return results
	}

	for j, text := range missed {
		for _, i := range positions[text] {
			results[i] = translated[j]
		}
	}

	return results
}

// fetch issues one provider call for texts and returns translations in the
// same order, or texts itself on failure.
func (g *Gateway) fetch(parent context.Context, lang Language, texts []string) (out []string) {
	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	requestID := uuid.NewString()
	log := g.logger.With(
		zap.String("request_id", requestID),
		zap.String("lang", string(lang)),
		zap.Int("texts", len(texts)),
	)

	// One caller giving up must not cancel the call for everyone sharing it.
	detached := context.WithoutCancel(parent)

	defer func() {
		if r := recover(); r != nil {
			out = g.fail(detached, log, lang, texts, &ProviderError{
				Kind:    KindNetwork,
				Message: fmt.Sprintf("provider panicked: %v", r),
			})
		}
	}()

	// Queued batches are delayed, never failed: the timeout starts after the wait.
	if err := g.limiter.Wait(detached); err != nil {
		return g.fail(detached, log, lang, texts, &ProviderError{
			Kind:    KindRateLimited,
			Message: "rate limit wait aborted",
			Cause:   err,
		})
	}

	ctx, cancel := context.WithTimeout(detached, g.timeout)
	defer cancel()

	g.providerCalls.Add(1)
	start := time.Now()

	translations, err := g.provider.Translate(ctx, TranslateRequest{
		Texts:      texts,
		TargetLang: lang,
		SourceLang: g.requestSource(lang),
	})
	if err == nil && len(translations) != len(texts) {
		err = &CountMismatchError{Expected: len(texts), Got: len(translations)}
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && KindOf(err) != KindTimeout {
		err = &ProviderError{Kind: KindTimeout, Message: "translation call timed out", Cause: err}
	}

	recordProviderCall(lang, KindOf(err), time.Since(start).Seconds())

	if err != nil {
		return g.fail(ctx, log, lang, texts, err)
	}

	if g.cache != nil {
		for i, text := range texts {
			g.cache.Put(string(lang), text, translations[i])
		}
		if err := g.cache.Save(ctx); err != nil {
			log.Warn("persisting translation cache failed", zap.Error(err))
		}
	}

	log.Debug("translated batch", zap.Duration("elapsed", time.Since(start)))
	return translations
}

// fail logs err, notifies the user unless it is a rate limit, and returns the
// original texts.
func (g *Gateway) fail(ctx context.Context, log *zap.Logger, lang Language, texts []string, err error) []string {
	g.failures.Add(1)
	kind := KindOf(err)

	switch kind {
	case KindRateLimited:
		log.Debug("translation rate limited", zap.Error(err))
	case KindMalformed:
		log.Error("malformed translation response", zap.Error(err))
	default:
		log.Warn("translation failed", zap.String("kind", kind.String()), zap.Error(err))
	}

	if notice, ok := noticeFor(kind, lang, len(texts)); ok {
		g.notifier.Notify(ctx, notice)
	}

	return texts
}

func (g *Gateway) requestSource(target Language) Language {
	if target == g.sourceLang {
		return ""
	}
	return g.sourceLang
}

// InFlight returns the number of provider calls currently outstanding.
func (g *Gateway) InFlight() int64 {
	return g.inFlight.Load()
}

// SourceLang returns the authored language.
func (g *Gateway) SourceLang() Language {
	return g.sourceLang
}

// Limiter returns the rate limiter for inspection.
func (g *Gateway) Limiter() *RateLimiter {
	return g.limiter
}

// Stats returns a snapshot of the gateway counters.
func (g *Gateway) Stats() GatewayStats {
	return GatewayStats{
		CacheHits:     g.cacheHits.Load(),
		CacheMisses:   g.cacheMisses.Load(),
		ProviderCalls: g.providerCalls.Load(),
		SharedWaits:   g.sharedWaits.Load(),
		Failures:      g.failures.Load(),
	}
}
