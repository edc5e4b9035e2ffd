package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricSessionCreated counts successful session writes.
	MetricSessionCreated MetricID = iota
	// MetricSessionRead counts successful session reads.
	MetricSessionRead
	// MetricSessionMiss counts session reads that found nothing.
	MetricSessionMiss
	// MetricSessionDeleted counts single-session deletions.
	MetricSessionDeleted
	// MetricSessionsRevoked counts sessions removed by bulk revocation.
	MetricSessionsRevoked
	// MetricSessionCorrupt counts session blobs that failed to decode.
	MetricSessionCorrupt
	// MetricSessionIndexFault counts tolerated per-user index write failures.
	MetricSessionIndexFault
	// MetricSessionRefreshFault counts tolerated sliding-window re-set
	// failures during reads.
	MetricSessionRefreshFault
	// MetricRefreshStored counts refresh token writes.
	MetricRefreshStored
	// MetricRefreshRead counts successful refresh token lookups.
	MetricRefreshRead
	// MetricRefreshMiss counts refresh lookups that found nothing.
	MetricRefreshMiss
	// MetricRefreshDeleted counts single-token deletions.
	MetricRefreshDeleted
	// MetricRefreshRevoked counts tokens removed by bulk revocation.
	MetricRefreshRevoked
	// MetricRefreshIndexFault counts tolerated token index write failures.
	MetricRefreshIndexFault
	// MetricCacheWrite counts cache writes.
	MetricCacheWrite
	// MetricCacheHit counts cache reads that produced a value.
	MetricCacheHit
	// MetricCacheMiss counts cache reads that found nothing usable.
	MetricCacheMiss
	// MetricCacheInvalidated counts entries removed by pattern invalidation.
	MetricCacheInvalidated
	// MetricCacheDecodeFault counts stored values that failed to decode.
	MetricCacheDecodeFault
	// MetricStoreConnected counts supervisor transitions into the ready state.
	MetricStoreConnected
	// MetricStoreReconnecting counts transport failures counted against the cap.
	MetricStoreReconnecting
	// MetricStoreDisconnected counts forced disconnects at the attempt cap.
	MetricStoreDisconnected
	// MetricSessionReadLatency is the session read latency histogram.
	MetricSessionReadLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps each counter on its own cache line so concurrent
// increments of different metrics never contend.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free set of engine counters. A nil or disabled
// Metrics accepts every call and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Add adds n to a counter. Used by bulk operations that remove many keys
// in one call.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records a latency sample into the histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricSessionReadLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram at a single point in time.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricSessionReadLatency].buckets[i])
		}
		s.Histograms[MetricSessionReadLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
