package cache

import (
	"sync"
	"time"
)

// MemoryStore is a simple in-memory key-value store with expiration
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]*memoryItem[V]
	ttl   time.Duration
	now   func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
}

type memoryItem[V any] struct {
	value      V
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store whose entries live for ttl
func NewMemoryStore[V any](ttl time.Duration) *MemoryStore[V] {
	store := &MemoryStore[V]{
		items:    make(map[string]*memoryItem[V]),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(cleanupInterval(ttl))

	return store
}

// Set stores a value with the default expiration
func (ms *MemoryStore[V]) Set(key string, value V) {
	ms.SetWithTTL(key, value, ms.ttl)
}

// SetWithTTL stores a value with an explicit expiration
func (ms *MemoryStore[V]) SetWithTTL(key string, value V, expiration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = &memoryItem[V]{
		value:      value,
		expireTime: ms.now().Add(expiration),
	}
}

// Get retrieves a value by key; expired entries are reported as missing
func (ms *MemoryStore[V]) Get(key string) (V, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var zero V
	item, exists := ms.items[key]
	if !exists {
		return zero, false
	}

	// Check if expired
	if ms.now().After(item.expireTime) {
		return zero, false
	}

	return item.value, true
}

// Delete removes a key
func (ms *MemoryStore[V]) Delete(key string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
}

// Len returns the number of entries, including expired ones not yet swept
func (ms *MemoryStore[V]) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.items)
}

// Close stops the cleanup goroutine
func (ms *MemoryStore[V]) Close() {
	ms.stopOnce.Do(func() { close(ms.stopChan) })
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore[V]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stopChan:
			return
		case <-ticker.C:
			ms.sweep()
		}
	}
}

func (ms *MemoryStore[V]) sweep() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, item := range ms.items {
		if now.After(item.expireTime) {
			delete(ms.items, key)
		}
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 5*time.Minute {
		return 5 * time.Minute
	}
	return ttl
}
