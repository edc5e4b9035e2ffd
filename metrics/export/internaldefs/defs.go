package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef binds one engine counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical counter list shared by every exporter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Created sessions."},
	{ID: goSession.MetricSessionRead, Name: "gosession_session_read_total", Help: "Successful session reads."},
	{ID: goSession.MetricSessionMiss, Name: "gosession_session_miss_total", Help: "Session reads that found nothing."},
	{ID: goSession.MetricSessionDeleted, Name: "gosession_session_deleted_total", Help: "Single-session deletions."},
	{ID: goSession.MetricSessionsRevoked, Name: "gosession_sessions_revoked_total", Help: "Sessions removed by bulk revocation."},
	{ID: goSession.MetricSessionCorrupt, Name: "gosession_session_corrupt_total", Help: "Session records that failed to decode."},
	{ID: goSession.MetricSessionIndexFault, Name: "gosession_session_index_fault_total", Help: "Tolerated session index write failures."},
	{ID: goSession.MetricSessionRefreshFault, Name: "gosession_session_refresh_fault_total", Help: "Tolerated sliding-window re-set failures during reads."},
	{ID: goSession.MetricRefreshStored, Name: "gosession_refresh_stored_total", Help: "Stored refresh tokens."},
	{ID: goSession.MetricRefreshRead, Name: "gosession_refresh_read_total", Help: "Successful refresh token lookups."},
	{ID: goSession.MetricRefreshMiss, Name: "gosession_refresh_miss_total", Help: "Refresh token lookups that found nothing."},
	{ID: goSession.MetricRefreshDeleted, Name: "gosession_refresh_deleted_total", Help: "Single refresh token deletions."},
	{ID: goSession.MetricRefreshRevoked, Name: "gosession_refresh_revoked_total", Help: "Refresh tokens removed by bulk revocation."},
	{ID: goSession.MetricRefreshIndexFault, Name: "gosession_refresh_index_fault_total", Help: "Tolerated refresh token index write failures."},
	{ID: goSession.MetricCacheWrite, Name: "gosession_cache_write_total", Help: "Cache writes."},
	{ID: goSession.MetricCacheHit, Name: "gosession_cache_hit_total", Help: "Cache reads that produced a value."},
	{ID: goSession.MetricCacheMiss, Name: "gosession_cache_miss_total", Help: "Cache reads that found nothing usable."},
	{ID: goSession.MetricCacheInvalidated, Name: "gosession_cache_invalidated_total", Help: "Cache entries removed by pattern invalidation."},
	{ID: goSession.MetricCacheDecodeFault, Name: "gosession_cache_decode_fault_total", Help: "Cached values that failed to decode."},
	{ID: goSession.MetricStoreConnected, Name: "gosession_store_connected_total", Help: "Store supervisor transitions into the ready state."},
	{ID: goSession.MetricStoreReconnecting, Name: "gosession_store_reconnecting_total", Help: "Transport failures counted against the reconnect cap."},
	{ID: goSession.MetricStoreDisconnected, Name: "gosession_store_disconnected_total", Help: "Forced disconnects at the reconnect cap."},
}

// HistogramDefs is the canonical histogram list shared by every exporter.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricSessionReadLatency, Name: "gosession_session_read_latency_seconds", Help: "Session read latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, Prometheus
// `le` label format.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix carries the same bounds as instrument name
// suffixes for backends that cannot express labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
