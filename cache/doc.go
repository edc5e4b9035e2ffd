// Package cache provides the namespaced generic cache: JSON-serialized
// values under a cache: prefix with caller-overridable TTLs and
// cursor-based pattern invalidation.
//
// Cached data is always reconstructible from a source of truth, so reads
// fail soft: a value that cannot be deserialized is a miss, never an
// error. Contrast with the session and token stores, where corrupt data
// fails closed.
package cache
