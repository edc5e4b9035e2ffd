package goSession

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newCoreTest(t *testing.T, mutate func(*Config)) (*Core, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := DefaultConfig()
	cfg.Store.Addr = mr.Addr()
	cfg.Store.ConnectTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	core, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := core.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return core, mr
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.TTL = 0

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithAddr("localhost:6379")
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second build")
	}
}

func TestSessionLifecycle(t *testing.T) {
	core, _ := newCoreTest(t, nil)
	ctx := context.Background()

	sid, err := core.CreateSession(ctx, Session{
		UserID:    "u-1",
		Email:     "u1@example.com",
		FirstName: "Ada",
		IP:        "10.0.0.1",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sid) != 64 {
		t.Fatalf("expected 64 char hex session id, got %q", sid)
	}

	sess, err := core.GetSession(ctx, sid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.UserID != "u-1" || sess.Email != "u1@example.com" || sess.FirstName != "Ada" {
		t.Fatalf("unexpected session state: %+v", sess)
	}
	if sess.LoginAt == 0 || sess.LastActivityAt == 0 {
		t.Fatal("expected timestamps to be stamped")
	}

	if err := core.DeleteSession(ctx, sid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := core.GetSession(ctx, sid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionSlidingWindow(t *testing.T) {
	core, mr := newCoreTest(t, nil)
	ctx := context.Background()

	sid, err := core.CreateSession(ctx, Session{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(10 * time.Minute)
	if _, err := core.GetSession(ctx, sid); err != nil {
		t.Fatalf("get inside window: %v", err)
	}
	if ttl := mr.TTL("session:" + sid); ttl != 15*time.Minute {
		t.Fatalf("expected read to restore the full window, got %v", ttl)
	}

	mr.FastForward(15*time.Minute + time.Second)
	if _, err := core.GetSession(ctx, sid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry after idle window, got %v", err)
	}
}

func TestDeleteAllUserSessions(t *testing.T) {
	core, _ := newCoreTest(t, nil)
	ctx := context.Background()

	var sids []string
	for i := 0; i < 3; i++ {
		sid, err := core.CreateSession(ctx, Session{UserID: "u-1"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		sids = append(sids, sid)
	}
	other, err := core.CreateSession(ctx, Session{UserID: "u-2"})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	revoked, err := core.DeleteAllUserSessions(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked, got %d", revoked)
	}

	for _, sid := range sids {
		if _, err := core.GetSession(ctx, sid); !errors.Is(err, ErrNotFound) {
			t.Fatalf("session %s must be gone, got %v", sid, err)
		}
	}
	ids, err := core.ActiveSessionIDs(ctx, "u-1")
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected empty index, got %v %v", ids, err)
	}
	if _, err := core.GetSession(ctx, other); err != nil {
		t.Fatalf("other user's session must survive: %v", err)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	core, mr := newCoreTest(t, nil)
	ctx := context.Background()

	tokenID, err := core.StoreRefreshToken(ctx, "u-1", "raw-secret-token")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if tokenID == "" {
		t.Fatal("expected a token id")
	}

	rec, err := core.GetRefreshToken(ctx, "raw-secret-token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.UserID != "u-1" || rec.TokenID != tokenID {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := core.GetRefreshToken(ctx, "some-other-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}

	// Fixed lifetime: reads must not extend the TTL.
	mr.FastForward(24 * time.Hour)
	if _, err := core.GetRefreshToken(ctx, "raw-secret-token"); err != nil {
		t.Fatalf("get after a day: %v", err)
	}
	mr.FastForward(6*24*time.Hour + time.Minute)
	if _, err := core.GetRefreshToken(ctx, "raw-secret-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry after 7 days, got %v", err)
	}
}

func TestRefreshTokenNeverStoredRaw(t *testing.T) {
	core, mr := newCoreTest(t, nil)
	ctx := context.Background()

	const raw = "super-secret-raw-value"
	if _, err := core.StoreRefreshToken(ctx, "u-1", raw); err != nil {
		t.Fatalf("store: %v", err)
	}

	for _, key := range mr.Keys() {
		if key == "refresh_user:u-1" {
			continue
		}
		if v, err := mr.Get(key); err == nil && strings.Contains(v, raw) {
			t.Fatalf("raw token leaked into key %s", key)
		}
		if strings.Contains(key, raw) {
			t.Fatalf("raw token leaked into key name %s", key)
		}
	}
}

func TestDeleteAllUserRefreshTokens(t *testing.T) {
	core, _ := newCoreTest(t, nil)
	ctx := context.Background()

	for _, raw := range []string{"tok-a", "tok-b", "tok-c"} {
		if _, err := core.StoreRefreshToken(ctx, "u-1", raw); err != nil {
			t.Fatalf("store %s: %v", raw, err)
		}
	}
	if _, err := core.StoreRefreshToken(ctx, "u-2", "tok-other"); err != nil {
		t.Fatalf("store other: %v", err)
	}

	revoked, err := core.DeleteAllUserRefreshTokens(ctx, "u-1")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked != 3 {
		t.Fatalf("expected 3 revoked, got %d", revoked)
	}
	for _, raw := range []string{"tok-a", "tok-b", "tok-c"} {
		if _, err := core.GetRefreshToken(ctx, raw); !errors.Is(err, ErrNotFound) {
			t.Fatalf("token %s must be gone, got %v", raw, err)
		}
	}
	if _, err := core.GetRefreshToken(ctx, "tok-other"); err != nil {
		t.Fatalf("other user's token must survive: %v", err)
	}
}

func TestCacheRoundTripAndInvalidation(t *testing.T) {
	core, _ := newCoreTest(t, nil)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	if err := core.CacheData(ctx, "user:u-1:profile", payload{Name: "ada", N: 1}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := core.CacheData(ctx, "user:u-1:settings", payload{Name: "dark", N: 2}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := core.CacheData(ctx, "user:u-2:profile", payload{Name: "bob", N: 3}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	found, err := core.GetCachedData(ctx, "user:u-1:profile", &got)
	if err != nil || !found || got.Name != "ada" {
		t.Fatalf("get: %v %v %+v", found, err, got)
	}

	removed, err := core.InvalidateUserCache(ctx, "u-1")
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if found, _ := core.GetCachedData(ctx, "user:u-1:profile", &got); found {
		t.Fatal("u-1 profile must be invalidated")
	}
	if found, _ := core.GetCachedData(ctx, "user:u-2:profile", &got); !found {
		t.Fatal("u-2 profile must survive")
	}
}

func TestMetricsCountOperations(t *testing.T) {
	core, _ := newCoreTest(t, nil)
	ctx := context.Background()

	sid, err := core.CreateSession(ctx, Session{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := core.GetSession(ctx, sid); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := core.GetSession(ctx, "missing-session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected miss, got %v", err)
	}

	snap := core.MetricsSnapshot()
	if snap.Counters[MetricSessionCreated] != 1 {
		t.Fatalf("expected 1 created, got %d", snap.Counters[MetricSessionCreated])
	}
	if snap.Counters[MetricSessionRead] != 1 {
		t.Fatalf("expected 1 read, got %d", snap.Counters[MetricSessionRead])
	}
	if snap.Counters[MetricSessionMiss] != 1 {
		t.Fatalf("expected 1 miss, got %d", snap.Counters[MetricSessionMiss])
	}
	if snap.Counters[MetricStoreConnected] != 1 {
		t.Fatalf("expected 1 connect transition, got %d", snap.Counters[MetricStoreConnected])
	}
}

func TestAuditEventsFlowToSink(t *testing.T) {
	sink := NewChannelSink(16)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := DefaultConfig()
	cfg.Store.Addr = mr.Addr()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16

	core, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx := context.Background()
	if err := core.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := core.CreateSession(ctx, Session{UserID: "u-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := core.DeleteAllUserSessions(ctx, "u-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// Close drains the dispatcher before returning.
	if err := core.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var types []string
	for {
		select {
		case ev := <-sink.Events():
			types = append(types, ev.EventType)
			continue
		default:
		}
		break
	}

	var sawConnected, sawRevoke bool
	for _, typ := range types {
		switch typ {
		case EventStoreConnected:
			sawConnected = true
		case EventSessionBulkRevoke:
			sawRevoke = true
		}
	}
	if !sawConnected || !sawRevoke {
		t.Fatalf("expected connected and bulk_revoke events, got %v", types)
	}
}

func TestHealthCheckReflectsReconnectionCap(t *testing.T) {
	core, mr := newCoreTest(t, nil)
	ctx := context.Background()

	if !core.IsHealthy() {
		t.Fatal("expected healthy after connect")
	}

	mr.Close()
	for i := 0; i < 5; i++ {
		if _, err := core.GetSession(ctx, "sid"); err == nil {
			t.Fatalf("attempt %d: expected failure", i+1)
		}
	}

	if core.IsHealthy() {
		t.Fatal("expected unhealthy after the attempt cap")
	}
	health := core.HealthCheck(ctx)
	if health.Status != "unhealthy" {
		t.Fatalf("expected unhealthy status, got %+v", health)
	}
	if health.Details.ReconnectAttempts != 5 {
		t.Fatalf("expected 5 attempts reported, got %+v", health.Details)
	}

	if _, err := core.GetSession(ctx, "sid"); !IsUnavailable(err) {
		t.Fatalf("expected unavailability error while disconnected, got %v", err)
	}

	if err := mr.Restart(); err != nil {
		t.Fatalf("miniredis restart: %v", err)
	}
	if err := core.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !core.IsHealthy() {
		t.Fatal("expected healthy after reconnect")
	}
	health = core.HealthCheck(ctx)
	if health.Status != "healthy" {
		t.Fatalf("expected healthy status, got %+v", health)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	core, _ := newCoreTest(t, nil)

	if err := core.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := core.Connect(context.Background()); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("expected ErrCoreClosed, got %v", err)
	}
}

func TestClosedCoreRefusesOperations(t *testing.T) {
	core, _ := newCoreTest(t, nil)
	ctx := context.Background()

	sid, err := core.CreateSession(ctx, Session{UserID: "u-1"})
	if err != nil {
		t.Fatalf("create before close: %v", err)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := core.CreateSession(ctx, Session{UserID: "u-1"}); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("CreateSession: expected ErrCoreClosed, got %v", err)
	}
	if _, err := core.GetSession(ctx, sid); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("GetSession: expected ErrCoreClosed, got %v", err)
	}
	if _, err := core.StoreRefreshToken(ctx, "u-1", "raw"); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("StoreRefreshToken: expected ErrCoreClosed, got %v", err)
	}
	if _, err := core.GetRefreshToken(ctx, "raw"); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("GetRefreshToken: expected ErrCoreClosed, got %v", err)
	}
	if err := core.CacheData(ctx, "k", "v", 0); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("CacheData: expected ErrCoreClosed, got %v", err)
	}
	var dest string
	if _, err := core.GetCachedData(ctx, "k", &dest); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("GetCachedData: expected ErrCoreClosed, got %v", err)
	}
	if _, err := core.DeleteAllUserSessions(ctx, "u-1"); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("DeleteAllUserSessions: expected ErrCoreClosed, got %v", err)
	}
	if _, err := core.Ping(ctx); !errors.Is(err, ErrCoreClosed) {
		t.Fatalf("Ping: expected ErrCoreClosed, got %v", err)
	}
}
