package dobhasi

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/dobhasi/cache"
)

// memoryPrefs is an in-memory PreferenceStore.
type memoryPrefs struct {
	lang    Language
	loadErr error
	saveErr error
	saves   int
}

func (p *memoryPrefs) LoadLanguage(context.Context) (Language, error) {
	if p.loadErr != nil {
		return English, p.loadErr
	}
	return p.lang, nil
}

func (p *memoryPrefs) SaveLanguage(_ context.Context, lang Language) error {
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.lang = lang
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newTestTranslator(opts ...TranslatorOption) (*Translator, *stubProvider) {
	p := newStubProvider()
	g := NewGateway(p, fastRateLimit(), WithCache(newTestCache()))
	return NewTranslator(g, opts...), p
}

func TestTranslator_StartsInEnglish(t *testing.T) {
	tr, p := newTestTranslator()

	if tr.Language() != English {
		t.Errorf("Expected English, got %q", tr.Language())
	}
	if got := tr.Translate(context.Background(), "Hello"); got != "Hello" {
		t.Errorf("Expected identity in English, got %q", got)
	}
	if p.calls.Load() != 0 {
		t.Error("English should not call the provider")
	}
}

func TestTranslator_Restore(t *testing.T) {
	tests := []struct {
		name  string
		prefs *memoryPrefs
		want  Language
	}{
		{"stored bengali", &memoryPrefs{lang: Bengali}, Bengali},
		{"not found", &memoryPrefs{loadErr: cache.ErrNotFound}, English},
		{"storage error", &memoryPrefs{loadErr: errors.New("disk on fire")}, English},
		{"invalid value", &memoryPrefs{lang: "fr"}, English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTranslator(WithPreferences(tt.prefs))
			if got := tr.Restore(context.Background()); got != tt.want {
				t.Errorf("Restore() = %q, want %q", got, tt.want)
			}
			if tr.Language() != tt.want {
				t.Errorf("Language() = %q, want %q", tr.Language(), tt.want)
			}
		})
	}
}

func TestTranslator_RestoreWithoutPreferences(t *testing.T) {
	tr, _ := newTestTranslator(WithInitialLanguage(Bengali))
	if got := tr.Restore(context.Background()); got != Bengali {
		t.Errorf("Expected initial language to stay, got %q", got)
	}
}

func TestTranslator_SetLanguage(t *testing.T) {
	prefs := &memoryPrefs{lang: English}
	tr, p := newTestTranslator(WithPreferences(prefs))
	ctx := context.Background()

	if err := tr.SetLanguage(ctx, Bengali); err != nil {
		t.Fatalf("SetLanguage failed: %v", err)
	}
	if prefs.lang != Bengali {
		t.Errorf("Expected preference persisted, got %q", prefs.lang)
	}
	if got := tr.Translate(ctx, "Hello"); got != "হ্যালো" {
		t.Errorf("Expected Bengali translation, got %q", got)
	}
	if p.calls.Load() != 1 {
		t.Errorf("Expected 1 provider call, got %d", p.calls.Load())
	}
}

func TestTranslator_SetLanguageRejectsUnsupported(t *testing.T) {
	prefs := &memoryPrefs{}
	tr, _ := newTestTranslator(WithPreferences(prefs))

	err := tr.SetLanguage(context.Background(), "fr")
	var tErr *TranslationError
	if !errors.As(err, &tErr) {
		t.Fatalf("Expected TranslationError, got %v", err)
	}
	if tr.Language() != English {
		t.Errorf("Language should be unchanged, got %q", tr.Language())
	}
	if prefs.saves != 0 {
		t.Error("Unsupported language should not be persisted")
	}
}

func TestTranslator_SetLanguageSaveFailureStillSwitches(t *testing.T) {
	prefs := &memoryPrefs{saveErr: errors.New("quota exceeded")}
	tr, _ := newTestTranslator(WithPreferences(prefs))

	if err := tr.SetLanguage(context.Background(), Bengali); err != nil {
		t.Fatalf("Persistence failures should not be returned, got %v", err)
	}
	if tr.Language() != Bengali {
		t.Errorf("Expected Bengali, got %q", tr.Language())
	}
}

func TestTranslator_Subscribe(t *testing.T) {
	tr, _ := newTestTranslator()
	ctx := context.Background()

	ch, unsubscribe := tr.Subscribe()

	if err := tr.SetLanguage(ctx, Bengali); err != nil {
		t.Fatal(err)
	}
	select {
	case lang := <-ch:
		if lang != Bengali {
			t.Errorf("Expected Bengali, got %q", lang)
		}
	case <-time.After(time.Second):
		t.Fatal("No notification received")
	}

	// Same language again is not a change.
	_ = tr.SetLanguage(ctx, Bengali)
	select {
	case lang := <-ch:
		t.Errorf("Unexpected notification %q", lang)
	default:
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}
}

func TestTranslator_SubscribeKeepsLatest(t *testing.T) {
	tr, _ := newTestTranslator()
	ctx := context.Background()
	ch, unsubscribe := tr.Subscribe()
	defer unsubscribe()

	_ = tr.SetLanguage(ctx, Bengali)
	_ = tr.SetLanguage(ctx, English)

	if lang := <-ch; lang != English {
		t.Errorf("Expected the latest language, got %q", lang)
	}
}

func TestTranslator_Override(t *testing.T) {
	tr, p := newTestTranslator()
	ctx := context.Background()

	if got := tr.Translate(ctx, "Save", Bengali); got != "সংরক্ষণ" {
		t.Errorf("Expected override into Bengali, got %q", got)
	}

	got := tr.TranslateBatch(ctx, []string{"সংরক্ষণ"}, English)
	if got[0] != "[en] সংরক্ষণ" {
		t.Errorf("Expected explicit English translation, got %q", got[0])
	}
	if p.calls.Load() != 2 {
		t.Errorf("Expected 2 provider calls, got %d", p.calls.Load())
	}
}

func TestTranslator_IsTranslating(t *testing.T) {
	tr, p := newTestTranslator(WithInitialLanguage(Bengali))
	p.gate = make(chan struct{})
	p.entered = make(chan struct{}, 1)

	done := make(chan string, 1)
	go func() { done <- tr.Translate(context.Background(), "Hello") }()

	<-p.entered
	if !tr.IsTranslating() {
		t.Error("Expected IsTranslating while the call is outstanding")
	}

	close(p.gate)
	<-done
	if tr.IsTranslating() {
		t.Error("Expected IsTranslating to clear after the call")
	}
}

func TestTranslator_Close(t *testing.T) {
	store := cache.NewMemoryStore()
	c := cache.NewTranslationCache(store)
	g := NewGateway(newStubProvider(), fastRateLimit(), WithCache(c))

	closed := 0
	tr := NewTranslator(g, WithCloser(closerFunc(func() error {
		closed++
		return nil
	})))
	ch, _ := tr.Subscribe()

	c.Put("bn", "Home", "হোম")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	if closed != 1 {
		t.Errorf("Expected closer called once, got %d", closed)
	}
	if _, ok := <-ch; ok {
		t.Error("Expected subscriptions closed")
	}
	if !errors.Is(tr.SetLanguage(context.Background(), Bengali), ErrClosed) {
		t.Error("Expected ErrClosed after Close")
	}

	reloaded := cache.NewTranslationCache(store)
	reloaded.Load(context.Background())
	if _, ok := reloaded.Get("bn", "Home"); !ok {
		t.Error("Expected cache saved on close")
	}

	sub, unsubscribe := tr.Subscribe()
	unsubscribe()
	if _, ok := <-sub; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
}

type failingUpdateStore struct {
	cache.Store
}

func (failingUpdateStore) Update(context.Context, string, cache.UpdateFunc) error {
	return errors.New("read-only")
}

func TestTranslator_CloseReportsSaveError(t *testing.T) {
	c := cache.NewTranslationCache(failingUpdateStore{cache.NewMemoryStore()})
	g := NewGateway(newStubProvider(), fastRateLimit(), WithCache(c))
	tr := NewTranslator(g, WithCloser(closerFunc(func() error {
		return errors.New("close failed")
	})))

	c.Put("bn", "Home", "হোম")
	err := tr.Close()

	var cacheErr *CacheError
	if !errors.As(err, &cacheErr) {
		t.Fatalf("Expected CacheError, got %v", err)
	}
	if !strings.Contains(err.Error(), "read-only") || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("Expected both errors reported, got %v", err)
	}
}

func TestStorePreferences(t *testing.T) {
	store := cache.NewMemoryStore()
	prefs := NewStorePreferences(store)
	ctx := context.Background()

	if _, err := prefs.LoadLanguage(ctx); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := prefs.SaveLanguage(ctx, Bengali); err != nil {
		t.Fatal(err)
	}
	raw, err := store.Load(ctx, LanguageStorageKey)
	if err != nil || string(raw) != "bn" {
		t.Errorf("Expected raw value bn, got %q, %v", raw, err)
	}

	lang, err := prefs.LoadLanguage(ctx)
	if err != nil || lang != Bengali {
		t.Errorf("Expected Bengali, got %q, %v", lang, err)
	}

	_ = store.Update(ctx, LanguageStorageKey, func([]byte) ([]byte, error) {
		return []byte("klingon"), nil
	})
	if lang, _ := prefs.LoadLanguage(ctx); lang != English {
		t.Errorf("Expected invalid stored value to yield English, got %q", lang)
	}
}

func TestTranslator_RestoreFromStore(t *testing.T) {
	store := cache.NewMemoryStore()
	ctx := context.Background()

	first, _ := newTestTranslator(WithPreferences(NewStorePreferences(store)))
	if err := first.SetLanguage(ctx, Bengali); err != nil {
		t.Fatal(err)
	}

	second, _ := newTestTranslator(WithPreferences(NewStorePreferences(store)))
	if got := second.Restore(ctx); got != Bengali {
		t.Errorf("Expected Bengali restored, got %q", got)
	}
}
