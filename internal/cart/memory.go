package cart

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps carts in process memory behind the same Store contract as
// the Redis store. It backs tests and single-process development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	carts    map[string]string
	notifier changeNotifier
}

// NewMemoryStore builds an empty in-memory store. notifier may be nil.
func NewMemoryStore(notifier changeNotifier) *MemoryStore {
	return &MemoryStore{
		carts:    make(map[string]string),
		notifier: notifier,
	}
}

func (s *MemoryStore) Read(_ context.Context, key string) ([]LineItem, error) {
	s.mu.RLock()
	raw, ok := s.carts[key]
	s.mu.RUnlock()
	if !ok {
		return []LineItem{}, nil
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []LineItem{}, nil
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func (s *MemoryStore) Write(ctx context.Context, key string, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.carts[key] = string(payload)
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Notify(ctx, key)
	}
	return nil
}

func (s *MemoryStore) AddItem(ctx context.Context, key string, item LineItem) error {
	items, err := s.Read(ctx, key)
	if err != nil {
		return err
	}
	return s.Write(ctx, key, MergeItem(items, item))
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	return s.Write(ctx, key, []LineItem{})
}

// Seed loads raw payload bytes for a key without signaling, for tests that
// need malformed or pre-existing state.
func (s *MemoryStore) Seed(key, raw string) {
	s.mu.Lock()
	s.carts[key] = raw
	s.mu.Unlock()
}
