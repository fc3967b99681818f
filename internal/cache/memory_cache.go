package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemorySize = 4096

// tier groups entries sharing one TTL. Pinned tiers have no size bound.
type tier struct {
	ttl    time.Duration
	pinned bool
}

// MemoryCache is an in-process Store for single-instance runs and tests.
// Values are kept as JSON so callers get the same copy semantics as Redis.
//
// Entries live in one expirable LRU per TTL. Keys under a pinned prefix,
// and all locks, go to unbounded tiers and only leave on expiry or delete.
type MemoryCache struct {
	mu     sync.Mutex
	size   int
	pinned []string
	tiers  map[tier]*expirable.LRU[string, []byte]
}

// NewMemoryCache bounds unpinned keys to size entries per TTL. Keys starting
// with one of pinned are never evicted for space.
func NewMemoryCache(size int, pinned ...string) *MemoryCache {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &MemoryCache{
		size:   size,
		pinned: append([]string{lockPrefix}, pinned...),
		tiers:  map[tier]*expirable.LRU[string, []byte]{},
	}
}

func (c *MemoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	b, ok := c.peek(key)
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		_ = c.Del(context.Background(), key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, b, ttl)
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.remove(k)
	}
	return nil
}

func (c *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.peek(lockKey(key)); held {
		return "", false, nil
	}
	token := uuid.NewString()
	c.put(lockKey(key), []byte(token), ttl)
	return token, true, nil
}

func (c *MemoryCache) Unlock(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, held := c.peek(lockKey(key)); held && string(b) == token {
		c.remove(lockKey(key))
	}
	return nil
}

// The helpers below must be called with mu held.

func (c *MemoryCache) peek(key string) ([]byte, bool) {
	for _, l := range c.tiers {
		if b, ok := l.Get(key); ok {
			return b, true
		}
	}
	return nil, false
}

func (c *MemoryCache) put(key string, b []byte, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	t := tier{ttl: ttl, pinned: c.isPinned(key)}
	for other, l := range c.tiers {
		if other != t {
			l.Remove(key)
		}
	}
	l, ok := c.tiers[t]
	if !ok {
		size := c.size
		if t.pinned {
			size = 0
		}
		l = expirable.NewLRU[string, []byte](size, nil, ttl)
		c.tiers[t] = l
	}
	l.Add(key, b)
}

func (c *MemoryCache) remove(key string) {
	for _, l := range c.tiers {
		l.Remove(key)
	}
}

func (c *MemoryCache) isPinned(key string) bool {
	for _, p := range c.pinned {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
