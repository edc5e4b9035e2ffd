package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Typed primitive operations. Every method is one round trip, routed
// through the supervisor's connection-state accounting: absence comes back
// as [ErrNil], everything else as an [*OpError] naming the operation and
// key.

// Set writes value under key. With ttl > 0 the expiry is applied in the
// same round trip as the write.
func (s *Supervisor) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	client := s.ready()
	if client == nil {
		return &OpError{Op: "SET", Key: key, Err: ErrNotConnected}
	}
	return s.finish("SET", key, client.Set(ctx, key, value, ttl).Err())
}

// Get reads the value under key, or [ErrNil] when absent.
func (s *Supervisor) Get(ctx context.Context, key string) ([]byte, error) {
	client := s.ready()
	if client == nil {
		return nil, &OpError{Op: "GET", Key: key, Err: ErrNotConnected}
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, s.finish("GET", key, err)
	}
	s.observeSuccess()
	return data, nil
}

// Del removes the given keys and reports how many existed.
func (s *Supervisor) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	client := s.ready()
	if client == nil {
		return 0, &OpError{Op: "DEL", Key: keys[0], Err: ErrNotConnected}
	}
	removed, err := client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, s.finish("DEL", keys[0], err)
	}
	s.observeSuccess()
	return removed, nil
}

// Exists reports whether key is present.
func (s *Supervisor) Exists(ctx context.Context, key string) (bool, error) {
	client := s.ready()
	if client == nil {
		return false, &OpError{Op: "EXISTS", Key: key, Err: ErrNotConnected}
	}
	n, err := client.Exists(ctx, key).Result()
	if err != nil {
		return false, s.finish("EXISTS", key, err)
	}
	s.observeSuccess()
	return n > 0, nil
}

// Expire sets the expiry of an existing key and reports whether the key
// was found.
func (s *Supervisor) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	client := s.ready()
	if client == nil {
		return false, &OpError{Op: "EXPIRE", Key: key, Err: ErrNotConnected}
	}
	ok, err := client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, s.finish("EXPIRE", key, err)
	}
	s.observeSuccess()
	return ok, nil
}

// TTL returns the remaining lifetime of key, [TTLPersistent] for a key
// without expiry, or [TTLMissing] for an absent key.
func (s *Supervisor) TTL(ctx context.Context, key string) (time.Duration, error) {
	client := s.ready()
	if client == nil {
		return 0, &OpError{Op: "TTL", Key: key, Err: ErrNotConnected}
	}
	d, err := client.TTL(ctx, key).Result()
	if err != nil {
		return 0, s.finish("TTL", key, err)
	}
	s.observeSuccess()
	// go-redis passes the server's raw -1/-2 integer replies through as
	// nanosecond durations; map them onto the documented sentinels.
	switch d {
	case -1:
		return TTLPersistent, nil
	case -2:
		return TTLMissing, nil
	}
	return d, nil
}

// HSet writes a single hash field.
func (s *Supervisor) HSet(ctx context.Context, key, field string, value []byte) error {
	client := s.ready()
	if client == nil {
		return &OpError{Op: "HSET", Key: key, Err: ErrNotConnected}
	}
	return s.finish("HSET", key, client.HSet(ctx, key, field, value).Err())
}

// HGet reads a single hash field, or [ErrNil] when the key or field is
// absent.
func (s *Supervisor) HGet(ctx context.Context, key, field string) ([]byte, error) {
	client := s.ready()
	if client == nil {
		return nil, &OpError{Op: "HGET", Key: key, Err: ErrNotConnected}
	}
	data, err := client.HGet(ctx, key, field).Bytes()
	if err != nil {
		return nil, s.finish("HGET", key, err)
	}
	s.observeSuccess()
	return data, nil
}

// HGetAll returns the full field-value mapping of a hash. An absent key
// yields an empty map, not an error.
func (s *Supervisor) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	client := s.ready()
	if client == nil {
		return nil, &OpError{Op: "HGETALL", Key: key, Err: ErrNotConnected}
	}
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, s.finish("HGETALL", key, err)
	}
	s.observeSuccess()
	return fields, nil
}

// HDel removes hash fields. Missing fields are a no-op.
func (s *Supervisor) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	client := s.ready()
	if client == nil {
		return &OpError{Op: "HDEL", Key: key, Err: ErrNotConnected}
	}
	return s.finish("HDEL", key, client.HDel(ctx, key, fields...).Err())
}

// SAdd adds members to a set.
func (s *Supervisor) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	client := s.ready()
	if client == nil {
		return &OpError{Op: "SADD", Key: key, Err: ErrNotConnected}
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.finish("SADD", key, client.SAdd(ctx, key, args...).Err())
}

// SRem removes members from a set. Missing members are a no-op.
func (s *Supervisor) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	client := s.ready()
	if client == nil {
		return &OpError{Op: "SREM", Key: key, Err: ErrNotConnected}
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.finish("SREM", key, client.SRem(ctx, key, args...).Err())
}

// SMembers returns all members of a set; an absent key yields an empty
// slice.
func (s *Supervisor) SMembers(ctx context.Context, key string) ([]string, error) {
	client := s.ready()
	if client == nil {
		return nil, &OpError{Op: "SMEMBERS", Key: key, Err: ErrNotConnected}
	}
	members, err := client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, s.finish("SMEMBERS", key, err)
	}
	s.observeSuccess()
	return members, nil
}

// Scan advances one cursor step over keys matching the pattern. Callers
// loop until the returned cursor is zero; each step is bounded, so a large
// key space never blocks the store on a single enumeration.
func (s *Supervisor) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	client := s.ready()
	if client == nil {
		return nil, 0, &OpError{Op: "SCAN", Key: match, Err: ErrNotConnected}
	}
	keys, next, err := client.Scan(ctx, cursor, match, count).Result()
	if err != nil {
		return nil, 0, s.finish("SCAN", match, err)
	}
	s.observeSuccess()
	return keys, next, nil
}

// Ping performs a point-in-time availability probe and returns its
// latency.
func (s *Supervisor) Ping(ctx context.Context) (time.Duration, error) {
	client := s.ready()
	if client == nil {
		return 0, &OpError{Op: "PING", Err: ErrNotConnected}
	}
	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		return time.Since(start), s.finish("PING", "", err)
	}
	s.observeSuccess()
	return time.Since(start), nil
}

// finish folds a primitive's outcome into the supervisor's connection
// accounting and normalizes the error shape.
func (s *Supervisor) finish(op, key string, err error) error {
	if err == nil {
		s.observeSuccess()
		return nil
	}
	if errors.Is(err, redis.Nil) {
		s.observeSuccess()
		return ErrNil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The caller abandoned the operation; that says nothing about the
		// connection.
		return &OpError{Op: op, Key: key, Err: err}
	}
	if isTransportError(err) {
		s.observeFailure(err)
		return &OpError{Op: op, Key: key, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	s.observeSuccess()
	return &OpError{Op: op, Key: key, Err: err}
}

// isTransportError separates link failures from server replies. A reply
// that parses as a store-side error proves the connection is alive, and a
// caller-abandoned context says nothing about it either way.
func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
