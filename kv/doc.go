// Package kv owns the connection to the backing key-value store and the
// typed primitive operations every higher-level store is built on.
//
// # Architecture boundaries
//
// [Supervisor] is the only type in the module that knows the transport
// exists: it dials, probes, tracks reconnection attempts, and force-closes
// the connection when the attempt cap is reached. Everything above it
// programs against the narrow [Store] capability interface, so the backing
// store is swappable (and fakeable in tests) without touching session,
// token, or cache logic.
//
// # What this package must NOT do
//
//   - Interpret the bytes it stores. Encoding belongs to the callers.
//   - Import goSession, session, token, or cache (no upward imports).
//   - Retry silently past the configured attempt cap.
package kv
