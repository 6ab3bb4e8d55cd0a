package clientstore

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store, used in development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
// PRE: ttl > 0, otherwise DefaultTTL is used
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		items: make(map[string]map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetItem returns a live item.
// POST: Expired items are reported missing and dropped
func (s *MemoryStore) GetItem(_ context.Context, namespace, key string) (string, bool, error) {
	if err := checkArgs(namespace); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	item, ok := s.items[namespace][key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if s.now().After(item.expiresAt) {
		s.mu.Lock()
		s.dropLocked(namespace, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return item.value, true, nil
}

// SetItem stores value under key.
// POST: Item is stored with a fresh expiry
func (s *MemoryStore) SetItem(_ context.Context, namespace, key, value string) error {
	if err := checkArgs(namespace); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.items[namespace]
	if !ok {
		ns = make(map[string]memoryItem)
		s.items[namespace] = ns
	}
	ns[key] = memoryItem{value: value, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// RemoveItem deletes key; removing a missing key is not an error.
func (s *MemoryStore) RemoveItem(_ context.Context, namespace, key string) error {
	if err := checkArgs(namespace); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(namespace, key)
	return nil
}

func (s *MemoryStore) dropLocked(namespace, key string) {
	delete(s.items[namespace], key)
	if len(s.items[namespace]) == 0 {
		delete(s.items, namespace)
	}
}

// Len returns the number of namespaces holding at least one item.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
