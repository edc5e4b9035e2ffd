package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/kv"
)

// scanBatch bounds one cursor step during pattern invalidation so a large
// key space never blocks the store on a single enumeration.
const scanBatch = 500

// DecodeFault reports a cached value that failed to deserialize and was
// treated as a miss.
type DecodeFault func(key string, err error)

// Cache is the namespaced generic cache. Logical keys are prefixed with
// the namespace, so entity types sharing one flat key space cannot
// collide.
type Cache struct {
	kv         kv.Store
	prefix     string
	defaultTTL time.Duration
	onFault    DecodeFault
}

// New creates a [Cache] with the given namespace prefix and default TTL.
func New(store kv.Store, prefix string, defaultTTL time.Duration, onFault DecodeFault) *Cache {
	if prefix == "" {
		prefix = "cache"
	}
	return &Cache{
		kv:         store,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		onFault:    onFault,
	}
}

func (c *Cache) key(key string) string {
	return c.prefix + ":" + key
}

// DefaultTTL returns the TTL applied when the caller passes none.
func (c *Cache) DefaultTTL() time.Duration { return c.defaultTTL }

// Set serializes value and stores it under the namespaced key. With
// ttl <= 0 the default TTL applies.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.kv.Set(ctx, c.key(key), data, ttl)
}

// Get reads the namespaced key into dest and reports whether it was found.
// A missing key and an undeserializable value both come back as a miss;
// cached data is reconstructible, so corruption is not worth failing a
// request over.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.kv.Get(ctx, c.key(key))
	if err != nil {
		if errors.Is(err, kv.ErrNil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		if c.onFault != nil {
			c.onFault(key, err)
		}
		return false, nil
	}
	return true, nil
}

// Delete removes the namespaced key. Deleting an absent key is a no-op.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.kv.Del(ctx, c.key(key))
	return err
}

// InvalidateUser deletes every cached entry belonging to one user
// (logical pattern user:<userID>:*) and returns the number removed.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) (int, error) {
	return c.InvalidatePattern(ctx, "user:"+userID+":*")
}

// InvalidatePattern deletes all and only keys matching the namespaced
// pattern. Enumeration is an incremental cursor scan with batched deletes,
// never one blocking keyspace listing.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.kv.Scan(ctx, cursor, c.key(pattern), scanBatch)
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.kv.Del(ctx, keys...)
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
