package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNil marks an absent key or field. Absence is a normal outcome for
// expired or never-written keys and is never wrapped in an [OpError].
var ErrNil = errors.New("kv: nil")

// ErrConnection is returned by [Supervisor.Connect] when the store is
// unreachable within the connect timeout.
var ErrConnection = errors.New("kv: connection failed")

// ErrNotConnected is returned for any primitive call issued while the
// supervisor holds no live connection.
var ErrNotConnected = errors.New("kv: not connected")

// ErrUnavailable marks a primitive call that failed at the transport level
// after the connection had been established.
var ErrUnavailable = errors.New("kv: store unavailable")

// TTL sentinels. [Supervisor.TTL] maps the backing store's bare -1/-2
// replies onto these values.
const (
	// TTLPersistent is reported for a key that exists without an expiry.
	TTLPersistent = -1 * time.Second
	// TTLMissing is reported for a key that does not exist.
	TTLMissing = -2 * time.Second
)

// OpError records a failed primitive call: the operation name, the key it
// targeted, and the underlying cause. It unwraps to the cause so callers
// can branch on [ErrUnavailable] or [ErrNotConnected] with errors.Is.
type OpError struct {
	Op  string
	Key string
	Err error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("kv: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("kv: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Store is the capability surface the session, token, and cache stores
// consume. Every operation is a single round trip against the backing
// store; composite behavior (index maintenance, sliding windows) is built
// above this interface.
//
// Set with ttl > 0 must be atomic set-and-expire in one round trip. A
// plain set followed by a separate expire would leave a window where the
// key is durably unexpiring.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)

	HSet(ctx context.Context, key, field string, value []byte) error
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	Ping(ctx context.Context) (time.Duration, error)
}
