package kvstore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used by tests and single-instance
// deployments that run without Redis. Counters and tokens lose their
// cross-instance guarantees in that mode.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*memoryItem
	lists map[string]*memoryList
	now   func() time.Time
}

type memoryItem struct {
	value     string
	expiresAt time.Time
}

type memoryList struct {
	entries   []string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*memoryItem),
		lists: make(map[string]*memoryList),
		now:   time.Now,
	}
}

func (s *MemoryStore) liveLocked(key string) *memoryItem {
	item, ok := s.items[key]
	if !ok {
		return nil
	}
	if !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		delete(s.items, key)
		return nil
	}
	return item
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.liveLocked(key)
	if item == nil {
		return "", ErrKeyNotFound
	}
	return item.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = &memoryItem{value: value, expiresAt: s.expiry(ttl)}
	return nil
}

func (s *MemoryStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.liveLocked(key) != nil {
		return false, nil
	}
	s.items[key] = &memoryItem{value: value, expiresAt: s.expiry(ttl)}
	return true, nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.liveLocked(key)
	if item == nil {
		s.items[key] = &memoryItem{value: "1", expiresAt: s.expiry(ttl)}
		return 1, nil
	}
	n, err := strconv.ParseInt(item.value, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	item.value = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.liveLocked(key)
	if item == nil {
		return 0, ErrKeyNotFound
	}
	if item.expiresAt.IsZero() {
		return 0, nil
	}
	return item.expiresAt.Sub(s.now()), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) PushTrim(ctx context.Context, key, value string, maxLen int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[key]
	if !ok || (!list.expiresAt.IsZero() && !s.now().Before(list.expiresAt)) {
		list = &memoryList{}
		s.lists[key] = list
	}
	list.entries = append([]string{value}, list.entries...)
	if maxLen > 0 && int64(len(list.entries)) > maxLen {
		list.entries = list.entries[:maxLen]
	}
	list.expiresAt = s.expiry(ttl)
	return nil
}

func (s *MemoryStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[key]
	if !ok || (!list.expiresAt.IsZero() && !s.now().Before(list.expiresAt)) {
		return nil, nil
	}
	n := int64(len(list.entries))
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list.entries[start:stop+1])
	return out, nil
}

func (s *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}
