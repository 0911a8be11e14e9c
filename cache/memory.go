package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryItem holds a stored value with its write time.
type memoryItem struct {
	value   []byte
	updated time.Time
}

// MemoryStore is a thread-safe in-memory Store. Nothing survives a restart.
type MemoryStore struct {
	items map[string]memoryItem
	mu    sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
	}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), item.value...), nil
}

// Update implements Store. The whole read-modify-write runs under the lock.
func (s *MemoryStore) Update(_ context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old []byte
	if item, ok := s.items[key]; ok {
		old = append([]byte(nil), item.value...)
	}

	next, err := fn(old)
	if err != nil {
		return err
	}

	s.items[key] = memoryItem{
		value:   append([]byte(nil), next...),
		updated: time.Now(),
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of keys held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Keys returns all keys, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Verify MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
