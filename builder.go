package goSession

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goSession/cache"
	"github.com/MrEthical07/goSession/kv"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

// Builder assembles a [Core]. Zero or more With calls, then Build once.
type Builder struct {
	config    Config
	auditSink AuditSink
	store     kv.Store

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithAuditSink sets the destination for audit events. Implies nothing
// about Audit.Enabled; both must be set for events to flow.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithStore injects a primitive store, bypassing the built-in connection
// supervisor. Intended for tests that substitute a fake; a Core built this
// way treats Connect and Close as no-ops and reports health through Ping.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithAddr overrides just the store address.
func (b *Builder) WithAddr(addr string) *Builder {
	b.config.Store.Addr = addr
	return b
}

// WithMetricsEnabled toggles the counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the read-latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the stores, metrics, audit
// dispatcher, and connection supervisor together. Call [Core.Connect]
// on the result before issuing operations.
func (b *Builder) Build() (*Core, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	core := &Core{
		config:  cfg,
		metrics: NewMetrics(cfg.Metrics),
	}
	core.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	if b.store != nil {
		core.store = b.store
	} else {
		sup := kv.NewSupervisor(cfg.Store, kv.Hooks{
			OnConnected: func() {
				core.metrics.Inc(MetricStoreConnected)
				core.emit(AuditEvent{EventType: EventStoreConnected})
			},
			OnReconnecting: func(attempt int) {
				core.metrics.Inc(MetricStoreReconnecting)
				core.emit(AuditEvent{
					EventType: EventStoreReconnecting,
					Metadata:  map[string]string{"attempt": strconv.Itoa(attempt)},
				})
			},
			OnDisconnected: func(attempts int, err error) {
				core.metrics.Inc(MetricStoreDisconnected)
				ev := AuditEvent{
					EventType: EventStoreDisconnected,
					Metadata:  map[string]string{"attempts": strconv.Itoa(attempts)},
				}
				if err != nil {
					ev.Error = err.Error()
				}
				core.emit(ev)
			},
		})
		core.supervisor = sup
		core.store = sup
	}

	core.sessions = session.NewStore(
		core.store,
		cfg.Session.Prefix,
		cfg.Session.IndexPrefix,
		cfg.Session.TTL,
		func(userID, sessionID string, err error) {
			core.metrics.Inc(MetricSessionIndexFault)
			core.emit(AuditEvent{
				EventType: EventSessionIndexFault,
				UserID:    userID,
				SessionID: sessionID,
				Error:     err.Error(),
			})
		},
		func(userID, sessionID string, err error) {
			core.metrics.Inc(MetricSessionRefreshFault)
			core.emit(AuditEvent{
				EventType: EventSessionRefreshFault,
				UserID:    userID,
				SessionID: sessionID,
				Error:     err.Error(),
			})
		},
	)

	core.tokens = token.NewStore(
		core.store,
		cfg.RefreshToken.Prefix,
		cfg.RefreshToken.IndexPrefix,
		cfg.RefreshToken.TTL,
		func(userID, tokenID string, err error) {
			core.metrics.Inc(MetricRefreshIndexFault)
			core.emit(AuditEvent{
				EventType: EventTokenIndexFault,
				UserID:    userID,
				Key:       tokenID,
				Error:     err.Error(),
			})
		},
	)

	core.cache = cache.New(
		core.store,
		cfg.Cache.Prefix,
		cfg.Cache.DefaultTTL,
		func(key string, err error) {
			core.metrics.Inc(MetricCacheDecodeFault)
			core.emit(AuditEvent{
				EventType: EventCacheDecodeFault,
				Key:       key,
				Error:     err.Error(),
			})
		},
	)

	b.built = true

	return core, nil
}

func (c *Core) emit(event AuditEvent) {
	if c.audit == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	c.audit.Emit(context.Background(), event)
}

