// Package middleware exposes HTTP middleware adapters built on top of
// goSession.Core session validation.
//
// # Guards
//
//   - [RequireSession] — loads the session named by a cookie and rejects
//     the request when it is absent, expired, or corrupt.
//
// The guard injects the validated session into the request context;
// handlers read it back with [SessionFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Core calls. It does NOT
// implement session logic itself. All decisions are delegated to
// Core.GetSession.
package middleware
