// Package cache provides persistent key-value caches. Feature generators use
// them to avoid recomputing expensive per-row features across runs.
package cache

import "sync"

// KeyValue is a persistent byte-oriented cache. Values are opaque; callers
// typically store JSON-encoded rows.
type KeyValue interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	// Set stores the value for key, replacing any existing value.
	Set(key string, value []byte) error
	Close() error
}

// Memory is an in-process KeyValue, useful for tests and single-run caching.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

var _ KeyValue = (*Memory)(nil)

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (c *Memory) Get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	out := append([]byte(nil), v...)
	return out, true, nil
}

func (c *Memory) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = append([]byte(nil), value...)
	return nil
}

func (c *Memory) Close() error { return nil }

// Len returns the number of cached entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
