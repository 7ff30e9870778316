package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	createdAt time.Time
	expiresAt time.Time
}

// Memory is an in-process TTL store. Reads lazily evict expired entries;
// a background janitor also sweeps so entries nobody reads again do not
// accumulate.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemory returns an empty store with no janitor running.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// StartJanitor launches a background sweep every interval. Stop terminates it.
func (m *Memory[V]) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.ClearExpired()
			}
		}
	}()
}

// Stop terminates the janitor goroutine.
func (m *Memory[V]) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a Set may have raced the eviction.
		if cur, still := m.entries[key]; still && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return e.data, true
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	now := m.now()
	m.mu.Lock()
	m.entries[key] = entry[V]{
		data:      value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	m.mu.Unlock()
}

func (m *Memory[V]) Has(ctx context.Context, key string) bool {
	_, ok := m.Get(ctx, key)
	return ok
}

func (m *Memory[V]) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *Memory[V]) Clear(_ context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]entry[V])
	m.mu.Unlock()
}

// ClearExpired removes every entry past its expiry.
func (m *Memory[V]) ClearExpired() {
	now := m.now()
	m.mu.Lock()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}

// Len reports the number of entries, expired or not.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
