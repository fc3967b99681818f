package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Locker is a best-effort mutual exclusion keyed by string. A lock expires
// after ttl even if never released. TryLock returns the holder's token;
// Unlock only releases the lock while that token still owns it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Store is what the services need from a backend.
type Store interface {
	Cache
	Locker
}
