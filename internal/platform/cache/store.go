package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/predictions-league/internal/platform/resilience"
)

// Store is an in-process TTL cache. Loads for the same key are collapsed so a
// cold key hits the backing store once no matter how many readers race.
type Store struct {
	mu     sync.RWMutex
	items  map[string]item
	ttl    time.Duration
	flight resilience.SingleFlight
}

type item struct {
	value    any
	deadline time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.deadline.IsZero() && !now.Before(it.deadline)
}

// NewStore builds a cache whose entries live for ttl. A non-positive ttl
// keeps entries until they are deleted.
func NewStore(ttl time.Duration) *Store {
	return &Store{items: make(map[string]item), ttl: ttl}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := time.Now()
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	switch {
	case !ok:
		return nil, false
	case it.expired(now):
		s.evictExpired(key, now)
		return nil, false
	}
	return it.value, true
}

// evictExpired drops key only if it still holds an expired entry, so a value
// written after the read lock was released survives.
func (s *Store) evictExpired(key string, now time.Time) {
	s.mu.Lock()
	if cur, ok := s.items[key]; ok && cur.expired(now) {
		delete(s.items, key)
	}
	s.mu.Unlock()
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	var deadline time.Time
	if s.ttl > 0 {
		deadline = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[key] = item{value: value, deadline: deadline}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// DeletePrefix drops every entry whose key starts with prefix.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value for key, running loader on a miss.
// Concurrent misses for the same key share one loader call. Loader errors
// pass through without populating the cache. An empty key bypasses the cache
// entirely.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		// A flight that finished while this caller was queuing may already
		// have populated the cache.
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}
