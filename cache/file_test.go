package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFileStore(dir)

	if _, err := s.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}

	err := s.Update(ctx, "k", func(old []byte) ([]byte, error) {
		return []byte(`{"ok":true}`), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "k.json")); err != nil {
		t.Errorf("expected k.json on disk: %v", err)
	}

	got, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("Load() = %q", got)
	}

	if s.Dir() != dir {
		t.Errorf("Dir() = %q", s.Dir())
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	s := NewFileStore(t.TempDir())

	for _, key := range []string{"../escape", "a/b", ""} {
		if _, err := s.Load(context.Background(), key); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%q) should reject the key, got %v", key, err)
		}
	}
}

func TestFileStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir())

	s.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("v"), nil })
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Error("deleted key should be missing")
	}

	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileStore_TranslationCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c := NewTranslationCache(NewFileStore(dir))
	c.Put("bn", "Hello", "হ্যালো")
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := NewTranslationCache(NewFileStore(dir))
	reloaded.Load(ctx)
	if val, ok := reloaded.Get("bn", "Hello"); !ok || val != "হ্যালো" {
		t.Errorf("Get() = %q, %v", val, ok)
	}
}
