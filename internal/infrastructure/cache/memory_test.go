package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_Expiration(t *testing.T) {
	store := NewMemoryStore[string](time.Minute)
	defer store.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set("transcript", "hello")
	v, ok := store.Get("transcript")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	now = now.Add(2 * time.Minute)
	_, ok = store.Get("transcript")
	assert.False(t, ok)

	store.sweep()
	assert.Zero(t, store.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore[int](time.Minute)
	defer store.Close()

	store.Set("a", 1)
	store.Delete("a")
	_, ok := store.Get("a")
	assert.False(t, ok)

	store.Close()
	store.Close()
}
