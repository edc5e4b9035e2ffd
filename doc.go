// Package goSession provides session, refresh-token, and cache custody on
// top of a supervised Redis connection: sliding-window sessions with a
// per-user index, hashed-key refresh tokens with fixed TTLs and bulk
// revocation, a namespaced invalidatable cache, and a bounded-reconnect
// connection supervisor.
//
// The package is designed for concurrent server workloads: Core methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Core], [Builder], [Config],
// the audit event stream, and the metrics snapshot. Route handlers call
// the Core; the Core delegates to the session, token, and cache stores;
// those stores speak only the kv.Store primitive interface; and the
// kv.Supervisor behind it is the single component aware of
// transport-level state.
//
// # What this package must NOT do
//
//   - Expose the Redis client or any transport detail in its public API.
//   - Hold session, token, or cache state in process memory beyond the
//     lifetime of a single operation; the key-value store is the only
//     source of truth.
//   - Issue access credentials, hash passwords, or route HTTP. Those
//     belong to the embedding service.
package goSession
