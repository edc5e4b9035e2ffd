package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), AuditEvent{EventType: EventCacheInvalidate, UserID: "u-1"})

	select {
	case ev := <-sink.Events():
		if ev.EventType != EventCacheInvalidate || ev.UserID != "u-1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: EventSessionBulkRevoke,
		UserID:    "u-1",
		Metadata:  map[string]string{"count": "3"},
	})

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if decoded.EventType != EventSessionBulkRevoke || decoded.Metadata["count"] != "3" {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled audit must produce a nil dispatcher")
	}
	// All operations on a nil dispatcher are safe no-ops.
	d.Emit(context.Background(), AuditEvent{EventType: EventStoreConnected})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports zero drops")
	}
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: EventStoreReconnecting})
	}
	d.Close()

	var got int
	for {
		select {
		case <-sink.Events():
			got++
			continue
		default:
		}
		break
	}
	if got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// An unconsumed channel sink saturates immediately; DropIfFull must
	// count instead of blocking.
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: EventTokenBulkRevoke})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}
	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, _ AuditEvent) {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
}
