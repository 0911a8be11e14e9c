package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultKey is the versioned storage key of the cache blob.
	DefaultKey = "translation_cache_v2"

	// DefaultTTL is the lifetime of a cached translation.
	DefaultTTL = 24 * time.Hour
)

// DefaultLanguages are the namespaces present in every loaded cache.
var DefaultLanguages = []string{"en", "bn"}

// Entry is one translated string and when it was produced (epoch millis).
type Entry struct {
	Value     string `json:"value" yaml:"value"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// Data maps language -> source text -> entry. It is the persisted format.
type Data map[string]map[string]Entry

// NewData returns empty namespaces for DefaultLanguages.
func NewData() Data {
	d := make(Data, len(DefaultLanguages))
	for _, lang := range DefaultLanguages {
		d[lang] = make(map[string]Entry)
	}
	return d
}

// TranslationCache is a namespaced, TTL-based translation cache persisted to a
// Store under a single key. The in-memory copy is authoritative; Store
// failures are logged and never lose in-memory entries.
type TranslationCache struct {
	store  Store
	key    string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu   sync.RWMutex
	data Data
}

// Option is a functional option for configuring the TranslationCache.
type Option func(*TranslationCache)

// WithKey sets the storage key (default: DefaultKey).
func WithKey(key string) Option {
	return func(c *TranslationCache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithTTL sets the entry lifetime (default: DefaultTTL).
func WithTTL(ttl time.Duration) Option {
	return func(c *TranslationCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *TranslationCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *TranslationCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewTranslationCache creates an empty cache persisted to store. A nil store
// keeps the cache in memory only.
func NewTranslationCache(store Store, opts ...Option) *TranslationCache {
	c := &TranslationCache{
		store:  store,
		key:    DefaultKey,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
		data:   NewData(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load replaces the in-memory cache with the persisted one, dropping expired
// entries. Missing, unreadable or old-format data yields an empty cache; the
// problem is logged, never returned.
func (c *TranslationCache) Load(ctx context.Context) {
	data := NewData()

	if c.store != nil {
		raw, err := c.store.Load(ctx, c.key)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			c.logger.Warn("reading translation cache failed", zap.String("key", c.key), zap.Error(err))
		default:
			parsed, err := decode(raw)
			if err != nil {
				c.logger.Warn("discarding unreadable translation cache", zap.String("key", c.key), zap.Error(err))
			} else {
				data = parsed
			}
		}
	}

	removed := prune(data, c.cutoff())
	if removed > 0 {
		c.logger.Debug("pruned expired translations", zap.Int("removed", removed))
	}

	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
}

// Save merges the in-memory cache into the persisted blob and writes it back.
// Concurrent writers sharing the store (other processes or tabs) are merged,
// not overwritten: the newest entry per source text wins.
func (c *TranslationCache) Save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	snapshot := c.Snapshot()
	var merged Data

	err := c.store.Update(ctx, c.key, func(old []byte) ([]byte, error) {
		merged = copyData(snapshot)
		if old != nil {
			if persisted, err := decode(old); err == nil {
				mergeInto(merged, persisted)
			}
		}
		prune(merged, c.cutoff())
		return json.Marshal(merged)
	})
	if err != nil {
		c.logger.Warn("writing translation cache failed", zap.String("key", c.key), zap.Error(err))
		return fmt.Errorf("saving translation cache: %w", err)
	}

	c.Merge(merged)
	return nil
}

// Get returns the cached translation of text into lang if present and not
// expired. Blank texts are never cached.
func (c *TranslationCache) Get(lang, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	c.mu.RLock()
	entry, ok := c.data[lang][text]
	c.mu.RUnlock()

	if !ok || entry.Timestamp < c.cutoff() {
		return "", false
	}
	return entry.Value, true
}

// Put stores a translation with the current timestamp. The caller saves.
func (c *TranslationCache) Put(lang, text, value string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data[lang] == nil {
		c.data[lang] = make(map[string]Entry)
	}
	c.data[lang][text] = Entry{Value: value, Timestamp: c.now().UnixMilli()}
}

// Merge adds entries from d that are newer than the ones held. Expired
// entries are skipped. It returns the number of entries added or replaced.
func (c *TranslationCache) Merge(d Data) int {
	cutoff := c.cutoff()

	c.mu.Lock()
	defer c.mu.Unlock()

	changed := 0
	for lang, entries := range d {
		for text, entry := range entries {
			if entry.Timestamp < cutoff || strings.TrimSpace(text) == "" {
				continue
			}
			if c.data[lang] == nil {
				c.data[lang] = make(map[string]Entry)
			}
			if held, ok := c.data[lang][text]; ok && held.Timestamp >= entry.Timestamp {
				continue
			}
			c.data[lang][text] = entry
			changed++
		}
	}
	return changed
}

// Prune removes expired entries and returns how many were removed.
func (c *TranslationCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return prune(c.data, c.cutoff())
}

// Len returns the number of live entries across all languages.
func (c *TranslationCache) Len() int {
	cutoff := c.cutoff()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, entries := range c.data {
		for _, entry := range entries {
			if entry.Timestamp >= cutoff {
				n++
			}
		}
	}
	return n
}

// Languages returns the language namespaces held, sorted.
func (c *TranslationCache) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	langs := make([]string, 0, len(c.data))
	for lang := range c.data {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Snapshot returns a deep copy of the cache contents.
func (c *TranslationCache) Snapshot() Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyData(c.data)
}

// Clear removes all entries from memory. The persisted blob is untouched;
// Save merges it back in, so use Store.Delete to drop it.
func (c *TranslationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = NewData()
}

// TTL returns the entry lifetime.
func (c *TranslationCache) TTL() time.Duration {
	return c.ttl
}

// Key returns the storage key.
func (c *TranslationCache) Key() string {
	return c.key
}

func (c *TranslationCache) cutoff() int64 {
	return c.now().Add(-c.ttl).UnixMilli()
}

// decode parses a persisted blob. Anything that is not a language map of
// entries is rejected.
func decode(raw []byte) (Data, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("empty cache payload")
	}
	for _, lang := range DefaultLanguages {
		if data[lang] == nil {
			data[lang] = make(map[string]Entry)
		}
	}
	return data, nil
}

func prune(data Data, cutoff int64) int {
	removed := 0
	for _, entries := range data {
		for text, entry := range entries {
			if entry.Timestamp < cutoff {
				delete(entries, text)
				removed++
			}
		}
	}
	return removed
}

// mergeInto copies entries of src into dst where dst has none or an older one.
func mergeInto(dst, src Data) {
	for lang, entries := range src {
		if dst[lang] == nil {
			dst[lang] = make(map[string]Entry, len(entries))
		}
		for text, entry := range entries {
			if held, ok := dst[lang][text]; ok && held.Timestamp >= entry.Timestamp {
				continue
			}
			dst[lang][text] = entry
		}
	}
}

func copyData(src Data) Data {
	dst := make(Data, len(src))
	for lang, entries := range src {
		m := make(map[string]Entry, len(entries))
		for text, entry := range entries {
			m[text] = entry
		}
		dst[lang] = m
	}
	return dst
}
