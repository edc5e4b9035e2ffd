package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/internal/info"
)

// State is the supervisor's view of the connection.
type State int32

const (
	// StateDisconnected means no live connection is held.
	StateDisconnected State = iota
	// StateConnecting means a handshake is in flight.
	StateConnecting
	// StateReady means the last round trip succeeded.
	StateReady
	// StateReconnecting means the connection dropped and recovery attempts
	// are being counted against the configured cap.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Config controls how the supervisor dials and recovers.
type Config struct {
	Addr     string
	Password string
	DB       int

	// ConnectTimeout bounds the dial plus liveness probe in Connect.
	ConnectTimeout time.Duration
	// MaxReconnectAttempts caps consecutive failed round trips before the
	// supervisor force-disconnects instead of retrying indefinitely.
	MaxReconnectAttempts int
}

// Hooks are optional callbacks for connection lifecycle transitions. They
// are invoked synchronously on the goroutine that observed the transition
// and must not block.
type Hooks struct {
	OnConnected    func()
	OnReconnecting func(attempt int)
	OnDisconnected func(attempts int, err error)
}

// Supervisor owns the single connection to the backing store. It
// implements [Store] by routing every primitive through connection-state
// accounting: a transport-level failure moves the state to reconnecting
// and counts an attempt, a success resets the counter, and reaching the
// attempt cap forces a full disconnect. Unbounded silent retries would
// mask a persistently broken dependency from the rest of the system.
//
// A Supervisor is an explicitly constructed dependency, not a process
// global: build one at startup, inject it into the stores, tear it down at
// shutdown.
type Supervisor struct {
	cfg   Config
	hooks Hooks

	// connectMu serializes Connect calls so concurrent connects cannot
	// each construct a client and leak the loser.
	connectMu sync.Mutex

	mu       sync.RWMutex
	client   *redis.Client
	state    State
	attempts int
	lastErr  error
}

// NewSupervisor creates a disconnected supervisor. Call [Supervisor.Connect]
// before issuing operations.
func NewSupervisor(cfg Config, hooks Hooks) *Supervisor {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	return &Supervisor{cfg: cfg, hooks: hooks, state: StateDisconnected}
}

// Connect establishes the connection and verifies liveness with a
// round-trip probe. It fails with [ErrConnection] when the store is
// unreachable within the connect timeout. A successful Connect resets the
// reconnection counter to zero.
func (s *Supervisor) Connect(ctx context.Context) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	existing := s.client
	if existing != nil && s.state == StateReady {
		s.mu.Unlock()
		return nil
	}
	if existing == nil {
		s.state = StateConnecting
	}
	s.mu.Unlock()

	// A client held in the reconnecting state is probed rather than
	// replaced; its pool redials on its own.
	client := existing
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:        s.cfg.Addr,
			Password:    s.cfg.Password,
			DB:          s.cfg.DB,
			DialTimeout: s.cfg.ConnectTimeout,
		})
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(probeCtx).Err(); err != nil {
		s.mu.Lock()
		if existing == nil {
			s.state = StateDisconnected
		}
		s.lastErr = err
		s.mu.Unlock()
		if existing == nil {
			_ = client.Close()
		}
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	s.mu.Lock()
	if existing != nil && s.client != existing {
		// The client was torn down while the probe was in flight.
		s.mu.Unlock()
		return fmt.Errorf("%w: connection closed during probe", ErrConnection)
	}
	s.client = client
	s.state = StateReady
	s.attempts = 0
	s.lastErr = nil
	s.mu.Unlock()

	if s.hooks.OnConnected != nil {
		s.hooks.OnConnected()
	}
	return nil
}

// Disconnect tears the connection down gracefully. It is idempotent:
// disconnecting an already-disconnected supervisor is a no-op.
func (s *Supervisor) Disconnect() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// IsHealthy reports the current connection state without a network round
// trip.
func (s *Supervisor) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil && s.state == StateReady
}

// CurrentState returns the supervisor's state.
func (s *Supervisor) CurrentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ReconnectAttempts returns the consecutive failed round trips observed
// since the last success.
func (s *Supervisor) ReconnectAttempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts
}

// Health is the structured result of an active [Supervisor.HealthCheck].
type Health struct {
	Status  string        `json:"status"`
	Details HealthDetails `json:"details"`
}

// HealthDetails carries the probe latency plus store metadata when
// healthy, or the last known error and attempt count when unhealthy.
type HealthDetails struct {
	Connected         bool          `json:"connected"`
	ResponseTime      time.Duration `json:"responseTime"`
	Version           string        `json:"version,omitempty"`
	UptimeSeconds     int64         `json:"uptime,omitempty"`
	ConnectedClients  int64         `json:"connectedClients,omitempty"`
	UsedMemory        string        `json:"usedMemory,omitempty"`
	Error             string        `json:"error,omitempty"`
	ReconnectAttempts int           `json:"reconnectAttempts,omitempty"`
}

const (
	// HealthStatusHealthy is reported when the probe round trip succeeds.
	HealthStatusHealthy = "healthy"
	// HealthStatusUnhealthy is reported when no connection is held or the
	// probe fails.
	HealthStatusUnhealthy = "unhealthy"
)

// HealthCheck performs an active round trip. When the probe succeeds it
// also fetches store metadata (version, uptime, client count, memory); a
// metadata fetch failure downgrades the result to unhealthy because it
// means the connection died between the two round trips.
func (s *Supervisor) HealthCheck(ctx context.Context) Health {
	client := s.ready()
	if client == nil {
		return s.unhealthy(0)
	}

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		s.observeFailure(err)
		return s.unhealthy(time.Since(start))
	}
	latency := time.Since(start)

	var meta info.Info
	raw, err := client.Info(ctx, "server", "clients", "memory").Result()
	switch {
	case err == nil:
		meta = info.Parse(raw)
	case isTransportError(err):
		// The connection died between the probe and the metadata fetch.
		s.observeFailure(err)
		return s.unhealthy(latency)
	default:
		// The server answered but does not expose metadata; the probe
		// already proved liveness.
	}
	s.observeSuccess()
	return Health{
		Status: HealthStatusHealthy,
		Details: HealthDetails{
			Connected:        true,
			ResponseTime:     latency,
			Version:          meta.Version,
			UptimeSeconds:    meta.UptimeSeconds,
			ConnectedClients: meta.ConnectedClients,
			UsedMemory:       meta.UsedMemory,
		},
	}
}

func (s *Supervisor) unhealthy(latency time.Duration) Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := HealthDetails{
		Connected:         s.client != nil && s.state == StateReady,
		ResponseTime:      latency,
		ReconnectAttempts: s.attempts,
	}
	if s.lastErr != nil {
		details.Error = s.lastErr.Error()
	}
	return Health{Status: HealthStatusUnhealthy, Details: details}
}

// ready returns the live client, or nil when disconnected.
func (s *Supervisor) ready() *redis.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// observeFailure counts a transport-level failure against the attempt cap
// and forces a full disconnect when the cap is reached. Command-level
// errors (the server replied, the link is alive) never reach here.
func (s *Supervisor) observeFailure(err error) {
	s.mu.Lock()
	if s.client == nil {
		s.mu.Unlock()
		return
	}
	s.lastErr = err
	s.attempts++
	attempts := s.attempts
	capped := attempts >= s.cfg.MaxReconnectAttempts

	var client *redis.Client
	if capped {
		client = s.client
		s.client = nil
		s.state = StateDisconnected
	} else {
		s.state = StateReconnecting
	}
	s.mu.Unlock()

	if capped {
		if client != nil {
			_ = client.Close()
		}
		if s.hooks.OnDisconnected != nil {
			s.hooks.OnDisconnected(attempts, err)
		}
		return
	}
	if s.hooks.OnReconnecting != nil {
		s.hooks.OnReconnecting(attempts)
	}
}

// observeSuccess resets the attempt counter after any successful round
// trip.
func (s *Supervisor) observeSuccess() {
	s.mu.Lock()
	recovered := s.state == StateReconnecting
	if s.client != nil {
		s.state = StateReady
	}
	s.attempts = 0
	s.lastErr = nil
	s.mu.Unlock()

	if recovered && s.hooks.OnConnected != nil {
		s.hooks.OnConnected()
	}
}
