package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryConfig configures the in-memory cache.
type MemoryConfig struct {
	Capacity        int           // maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // interval for expired entry cleanup (default: 1 minute)
}

// Memory is an LRU cache with TTL support. It is the default Cache
// implementation when no redis address is configured, and the one tests use.
type Memory struct {
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex

	entries map[string]*memoryEntry
	order   *list.List // doubly linked list for LRU ordering

	done chan struct{}
	once sync.Once
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// NewMemory creates a new in-memory cache and starts its cleanup loop.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	m := &Memory{
		capacity:   cfg.Capacity,
		defaultTTL: cfg.DefaultTTL,
		entries:    make(map[string]*memoryEntry),
		order:      list.New(),
		done:       make(chan struct{}),
	}

	go m.cleanupLoop(cfg.CleanupInterval)
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.removeEntry(e)
		return nil, false
	}

	m.order.MoveToFront(e.element)
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		m.order.MoveToFront(e.element)
		return nil
	}

	for len(m.entries) >= m.capacity {
		m.evictOldest()
	}

	e := &memoryEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = m.order.PushFront(e)
	m.entries[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		m.removeEntry(e)
	}
	return nil
}

// Size returns the number of entries currently held.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	m.once.Do(func() {
		close(m.done)
	})
	return nil
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupExpired()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) cleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var expired []*memoryEntry
	for _, e := range m.entries {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		m.removeEntry(e)
	}
}

// evictOldest removes the least recently used entry. Lock must be held.
func (m *Memory) evictOldest() {
	oldest := m.order.Back()
	if oldest == nil {
		return
	}
	m.removeEntry(oldest.Value.(*memoryEntry))
}

// removeEntry removes an entry. Lock must be held.
func (m *Memory) removeEntry(e *memoryEntry) {
	m.order.Remove(e.element)
	delete(m.entries, e.key)
}

var _ Cache = (*Memory)(nil)
