package dobhasi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ZaguanLabs/dobhasi/cache"
	"go.uber.org/zap"
)

// PreferenceStore persists the active UI language.
type PreferenceStore interface {
	LoadLanguage(ctx context.Context) (Language, error)
	SaveLanguage(ctx context.Context, lang Language) error
}

// Translator is the process-wide translation state: the active language and
// the translate API the rest of the application uses. Create one per
// application with NewTranslator and release it with Close.
type Translator struct {
	gateway *Gateway
	prefs   PreferenceStore
	logger  *zap.Logger
	closers []io.Closer

	mu       sync.RWMutex
	language Language
	subs     map[int]chan Language
	nextSub  int
	closed   bool
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithPreferences sets where the language preference is persisted.
func WithPreferences(prefs PreferenceStore) TranslatorOption {
	return func(t *Translator) {
		t.prefs = prefs
	}
}

// WithTranslatorLogger sets the logger.
func WithTranslatorLogger(logger *zap.Logger) TranslatorOption {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithCloser registers a resource released by Close, such as the cache store.
func WithCloser(c io.Closer) TranslatorOption {
	return func(t *Translator) {
		if c != nil {
			t.closers = append(t.closers, c)
		}
	}
}

// WithInitialLanguage sets the language used before Restore is called.
func WithInitialLanguage(lang Language) TranslatorOption {
	return func(t *Translator) {
		if lang.Valid() {
			t.language = lang
		}
	}
}

// NewTranslator creates a new Translator over gw. The language starts as English.
func NewTranslator(gw *Gateway, opts ...TranslatorOption) *Translator {
	t := &Translator{
		gateway:  gw,
		logger:   zap.NewNop(),
		language: English,
		subs:     make(map[int]chan Language),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Restore loads the persisted language preference. Missing or invalid values
// leave English active; storage errors are logged only.
func (t *Translator) Restore(ctx context.Context) Language {
	if t.prefs == nil {
		return t.Language()
	}

	lang, err := t.prefs.LoadLanguage(ctx)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			t.logger.Warn("loading language preference failed", zap.Error(err))
		}
		lang = English
	}
	if !lang.Valid() {
		lang = English
	}

	t.mu.Lock()
	t.language = lang
	t.mu.Unlock()

	return lang
}

// Language returns the active language.
func (t *Translator) Language() Language {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.language
}

// SetLanguage changes the active language, persists it and notifies
// subscribers. Persistence failures are logged, not returned.
func (t *Translator) SetLanguage(ctx context.Context, lang Language) error {
	if !lang.Valid() {
		return &TranslationError{Message: fmt.Sprintf("unsupported language %q", lang)}
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return &TranslationError{Message: "setting language", Cause: ErrClosed}
	}
	changed := t.language != lang
	t.language = lang
	if changed {
		for _, ch := range t.subs {
			publish(ch, lang)
		}
	}
	t.mu.Unlock()

	if t.prefs != nil {
		if err := t.prefs.SaveLanguage(ctx, lang); err != nil {
			t.logger.Warn("saving language preference failed", zap.String("lang", string(lang)), zap.Error(err))
		}
	}

	return nil
}

// publish delivers lang, replacing an undelivered older value.
func publish(ch chan Language, lang Language) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- lang:
	default:
	}
}

// Subscribe returns a channel that receives the new language on every change.
// Only the latest change is kept for slow readers. The returned function
// unsubscribes and closes the channel.
func (t *Translator) Subscribe() (<-chan Language, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Language, 1)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
}

// Translate translates text into the active language, or into override when given.
func (t *Translator) Translate(ctx context.Context, text string, override ...Language) string {
	return t.TranslateBatch(ctx, []string{text}, override...)[0]
}

// TranslateBatch translates texts into the active language, or into override
// when given. An explicit override translates even into English.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, override ...Language) []string {
	if len(override) > 0 && override[0] != "" {
		return t.gateway.TranslateBatch(ctx, texts, override[0], ExplicitTarget())
	}
	return t.gateway.TranslateBatch(ctx, texts, t.Language())
}

// IsTranslating reports whether any provider call is outstanding.
func (t *Translator) IsTranslating() bool {
	return t.gateway.InFlight() > 0
}

// Gateway returns the underlying gateway.
func (t *Translator) Gateway() *Gateway {
	return t.gateway
}

// Close closes all subscriptions, persists the cache and releases registered
// resources. It is safe to call more than once.
func (t *Translator) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
	t.mu.Unlock()

	var errs []error
	if c := t.gateway.cache; c != nil {
		if err := c.Save(context.Background()); err != nil {
			errs = append(errs, &CacheError{Message: "saving on close", Cause: err})
		}
	}
	for _, c := range t.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StorePreferences persists the language preference in a cache.Store under
// LanguageStorageKey.
type StorePreferences struct {
	store cache.Store
	key   string
}

// NewStorePreferences creates a PreferenceStore backed by store.
func NewStorePreferences(store cache.Store) *StorePreferences {
	return &StorePreferences{store: store, key: LanguageStorageKey}
}

// LoadLanguage implements PreferenceStore. Invalid stored values yield English.
func (p *StorePreferences) LoadLanguage(ctx context.Context) (Language, error) {
	data, err := p.store.Load(ctx, p.key)
	if err != nil {
		return English, err
	}
	return LanguageOrDefault(string(data)), nil
}

// SaveLanguage implements PreferenceStore.
func (p *StorePreferences) SaveLanguage(ctx context.Context, lang Language) error {
	return p.store.Update(ctx, p.key, func([]byte) ([]byte, error) {
		return []byte(lang), nil
	})
}

// Verify StorePreferences implements PreferenceStore
var _ PreferenceStore = (*StorePreferences)(nil)
