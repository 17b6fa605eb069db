// Package kvcache is a small string cache with two backends: a shared
// valkey instance when one is configured, and an in-process map when not.
//
// The TMDB client uses it to memoize genre and keyword lookups so mood
// filtering does not re-resolve the same keyword ids on every request.
// Cache misses and backend failures are both just misses; callers always
// fall through to the source of truth.
package kvcache

import (
	"context"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache is the lookup surface the clients depend on.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

/*─────────────────────────────────────────────────────────────────────────────*
| valkey backend                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Valkey is a Cache backed by a valkey server.
type Valkey struct {
	client valkey.Client
}

// NewValkey connects to the valkey server at addr (host:port).
func NewValkey(addr string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	return &Valkey{client: client}, nil
}

// Get implements Cache.
func (v *Valkey) Get(ctx context.Context, key string) (string, bool) {
	val, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set implements Cache. Failures are ignored; the cache is advisory.
func (v *Valkey) Set(ctx context.Context, key, value string, ttl time.Duration) {
	_ = v.client.Do(ctx, v.client.B().Set().Key(key).Value(value).Ex(ttl).Build()).Error()
}

// Close releases the valkey connection.
func (v *Valkey) Close() {
	v.client.Close()
}

/*─────────────────────────────────────────────────────────────────────────────*
| in-process backend                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a Cache held in the process. Entries expire lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}
