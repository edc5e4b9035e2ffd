package goSession

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/cache"
	"github.com/MrEthical07/goSession/ident"
	"github.com/MrEthical07/goSession/kv"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// Session is the user-visible session state. Re-exported so callers of
// the facade never import the store packages directly.
type Session = session.Session

// RefreshToken is the persisted state of one refresh token.
type RefreshToken = token.Record

// OpError is the failure shape of a single store operation.
type OpError = kv.OpError

// Health is the structured result of [Core.HealthCheck].
type Health = kv.Health

// Core is the engine facade. It owns the connection lifecycle and
// delegates to the session, token, and cache stores, adding metrics and
// audit events on the way through. Safe for concurrent use.
type Core struct {
	config     Config
	store      kv.Store
	supervisor *kv.Supervisor
	sessions   *session.Store
	tokens     *token.Store
	cache      *cache.Cache
	metrics    *Metrics
	audit      *auditDispatcher
	closed     atomic.Bool
}

// Connect establishes the store connection. A no-op when the Core was
// built with an injected store.
func (c *Core) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCoreClosed
	}
	if c.supervisor == nil {
		return nil
	}
	return c.supervisor.Connect(ctx)
}

// Close disconnects the store and stops the audit dispatcher after
// draining its buffer. Idempotent.
func (c *Core) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	var err error
	if c.supervisor != nil {
		err = c.supervisor.Disconnect()
	}
	c.audit.Close()
	return err
}

// IsHealthy reports connection state without a network round trip.
func (c *Core) IsHealthy() bool {
	if c.closed.Load() {
		return false
	}
	if c.supervisor == nil {
		return true
	}
	return c.supervisor.IsHealthy()
}

// HealthCheck performs an active probe and returns latency plus store
// metadata, or the last error and reconnect attempt count when degraded.
func (c *Core) HealthCheck(ctx context.Context) Health {
	if c.supervisor != nil {
		return c.supervisor.HealthCheck(ctx)
	}
	latency, err := c.store.Ping(ctx)
	if err != nil {
		return Health{
			Status:  kv.HealthStatusUnhealthy,
			Details: kv.HealthDetails{ResponseTime: latency, Error: err.Error()},
		}
	}
	return Health{
		Status:  kv.HealthStatusHealthy,
		Details: kv.HealthDetails{Connected: true, ResponseTime: latency},
	}
}

// Ping is a bare latency probe without the metadata of HealthCheck.
func (c *Core) Ping(ctx context.Context) (time.Duration, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	return c.store.Ping(ctx)
}

// guard rejects operations on a closed Core with [ErrCoreClosed].
func (c *Core) guard() error {
	if c.closed.Load() {
		return ErrCoreClosed
	}
	return nil
}

// MetricsSnapshot copies every counter and histogram at a single point in
// time.
func (c *Core) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Metrics exposes the live counter set, primarily for the exporters.
func (c *Core) Metrics() *Metrics {
	return c.metrics
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (c *Core) AuditDropped() uint64 {
	return c.audit.Dropped()
}

/*
====================================
SESSIONS
====================================
*/

// CreateSession stores a new session for the given state and returns its
// generated identifier. UserID is required; LoginAt defaults to now.
func (c *Core) CreateSession(ctx context.Context, sess Session) (string, error) {
	if err := c.guard(); err != nil {
		return "", err
	}
	if sess.UserID == "" {
		return "", errors.New("session UserID is required")
	}
	sid, err := ident.NewSessionID()
	if err != nil {
		return "", err
	}
	sess.SessionID = sid

	if err := c.sessions.Create(ctx, &sess); err != nil {
		return "", err
	}
	c.metrics.Inc(MetricSessionCreated)
	return sess.SessionID, nil
}

// GetSession reads a session by identifier, sliding its expiry out to the
// full inactivity window. Absent or expired sessions come back as
// [ErrNotFound]; an undecodable record fails closed.
func (c *Core) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	start := time.Now()
	sess, err := c.sessions.Get(ctx, sessionID)
	c.metrics.Observe(MetricSessionReadLatency, time.Since(start))

	switch {
	case err == nil:
		c.metrics.Inc(MetricSessionRead)
		return sess, nil
	case errors.Is(err, kv.ErrNil):
		c.metrics.Inc(MetricSessionMiss)
		return nil, ErrNotFound
	case errors.Is(err, session.ErrSessionCorrupt):
		c.metrics.Inc(MetricSessionCorrupt)
		c.emit(AuditEvent{
			EventType: EventSessionCorrupt,
			SessionID: sessionID,
			Error:     err.Error(),
		})
		return nil, err
	default:
		return nil, err
	}
}

// DeleteSession removes one session. Deleting an absent session is a
// no-op.
func (c *Core) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	c.metrics.Inc(MetricSessionDeleted)
	return nil
}

// DeleteAllUserSessions revokes every session tracked for a user and
// returns how many were revoked.
func (c *Core) DeleteAllUserSessions(ctx context.Context, userID string) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	revoked, err := c.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.metrics.Add(MetricSessionsRevoked, uint64(revoked))
	c.emit(AuditEvent{
		EventType: EventSessionBulkRevoke,
		UserID:    userID,
		Metadata:  map[string]string{"count": strconv.Itoa(revoked)},
	})
	return revoked, nil
}

// ActiveSessionIDs lists the session identifiers tracked for a user.
func (c *Core) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	return c.sessions.ActiveSessionIDs(ctx, userID)
}

// ActiveSessionCount returns the number of tracked sessions for a user.
func (c *Core) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	return c.sessions.ActiveSessionCount(ctx, userID)
}

/*
====================================
REFRESH TOKENS
====================================
*/

// StoreRefreshToken persists custody of a raw refresh token under its
// SHA-256 hash with the fixed configured TTL, and returns the generated
// token identifier. The raw value is never stored.
func (c *Core) StoreRefreshToken(ctx context.Context, userID, rawToken string) (string, error) {
	if err := c.guard(); err != nil {
		return "", err
	}
	if userID == "" {
		return "", errors.New("userID is required")
	}
	if rawToken == "" {
		return "", errors.New("rawToken is required")
	}

	rec := &RefreshToken{
		UserID:  userID,
		TokenID: ident.NewTokenID(),
	}
	if err := c.tokens.Save(ctx, ident.HashToken(rawToken), rec); err != nil {
		return "", err
	}
	c.metrics.Inc(MetricRefreshStored)
	return rec.TokenID, nil
}

// GetRefreshToken looks up the record for a raw token. Absent, expired,
// and never-stored tokens all come back as [ErrNotFound].
func (c *Core) GetRefreshToken(ctx context.Context, rawToken string) (*RefreshToken, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	rec, err := c.tokens.Get(ctx, ident.HashToken(rawToken))
	switch {
	case err == nil:
		c.metrics.Inc(MetricRefreshRead)
		return rec, nil
	case errors.Is(err, kv.ErrNil):
		c.metrics.Inc(MetricRefreshMiss)
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

// DeleteRefreshToken revokes a single token. Revoking an absent token is
// a no-op.
func (c *Core) DeleteRefreshToken(ctx context.Context, rawToken string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.tokens.Delete(ctx, ident.HashToken(rawToken)); err != nil {
		return err
	}
	c.metrics.Inc(MetricRefreshDeleted)
	return nil
}

// DeleteAllUserRefreshTokens revokes every token tracked for a user and
// returns how many were revoked.
func (c *Core) DeleteAllUserRefreshTokens(ctx context.Context, userID string) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	revoked, err := c.tokens.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.metrics.Add(MetricRefreshRevoked, uint64(revoked))
	c.emit(AuditEvent{
		EventType: EventTokenBulkRevoke,
		UserID:    userID,
		Metadata:  map[string]string{"count": strconv.Itoa(revoked)},
	})
	return revoked, nil
}

// EstimateStoredTokens counts token records with an incremental keyspace
// scan. Admin-only; O(n) in the token count.
func (c *Core) EstimateStoredTokens(ctx context.Context) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	return c.tokens.EstimateStored(ctx)
}

/*
====================================
CACHE
====================================
*/

// CacheData serializes value under the namespaced key. ttl <= 0 applies
// the configured default.
func (c *Core) CacheData(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	c.metrics.Inc(MetricCacheWrite)
	return nil
}

// GetCachedData reads the namespaced key into dest and reports whether a
// usable value was found. Undeserializable values count as a miss.
func (c *Core) GetCachedData(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := c.guard(); err != nil {
		return false, err
	}
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		return false, err
	}
	if found {
		c.metrics.Inc(MetricCacheHit)
	} else {
		c.metrics.Inc(MetricCacheMiss)
	}
	return found, nil
}

// DeleteCachedData removes one cached entry.
func (c *Core) DeleteCachedData(ctx context.Context, key string) error {
	if err := c.guard(); err != nil {
		return err
	}
	return c.cache.Delete(ctx, key)
}

// InvalidateUserCache removes every cached entry under the user's logical
// namespace and returns how many were removed.
func (c *Core) InvalidateUserCache(ctx context.Context, userID string) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	removed, err := c.cache.InvalidateUser(ctx, userID)
	if err != nil {
		return removed, err
	}
	c.metrics.Add(MetricCacheInvalidated, uint64(removed))
	c.emit(AuditEvent{
		EventType: EventCacheInvalidate,
		UserID:    userID,
		Metadata:  map[string]string{"count": strconv.Itoa(removed)},
	})
	return removed, nil
}

// InvalidateCachePattern removes all cached entries matching the logical
// pattern and returns how many were removed.
func (c *Core) InvalidateCachePattern(ctx context.Context, pattern string) (int, error) {
	if err := c.guard(); err != nil {
		return 0, err
	}
	removed, err := c.cache.InvalidatePattern(ctx, pattern)
	if err != nil {
		return removed, err
	}
	c.metrics.Add(MetricCacheInvalidated, uint64(removed))
	return removed, nil
}
