package goSession

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the [Core]. Lifecycle events track the
// connection supervisor; fault events track degraded-but-tolerated
// outcomes like a failed index write or an undecodable cache value.
const (
	EventStoreConnected    = "store.connected"
	EventStoreReconnecting = "store.reconnecting"
	EventStoreDisconnected = "store.disconnected"

	EventSessionIndexFault   = "session.index_fault"
	EventSessionRefreshFault = "session.refresh_fault"
	EventSessionCorrupt      = "session.corrupt"
	EventSessionBulkRevoke   = "session.bulk_revoke"

	EventTokenIndexFault = "token.index_fault"
	EventTokenBulkRevoke = "token.bulk_revoke"

	EventCacheDecodeFault = "cache.decode_fault"
	EventCacheInvalidate  = "cache.invalidate"
)

// AuditEvent is one observable occurrence inside the engine.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Key       string            `json:"key,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher goroutine. Emit must be
// safe for concurrent use and should return quickly; a slow sink backs up
// the dispatch buffer.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events into a buffered channel for consumption by
// application code.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to the given writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
