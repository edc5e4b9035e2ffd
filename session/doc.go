// Package session provides the Redis-backed session store: create, read
// with a sliding expiration window, delete, and per-user bulk revocation
// through a native-set session index.
//
// # Index contract
//
// Every live session's identifier appears in its owner's index set; the
// index is maintained with atomic set operations so concurrent creators
// and deleters for the same user never read-modify-write a shared
// structure. The index is an enumeration aid, not the source of truth:
// session validity is always checked directly by key, and an index entry
// whose session already expired is tolerated. The index key shares its TTL
// with the most recently touched session, so an abandoned index
// self-expires.
//
// # What this package must NOT do
//
//   - Import goSession, token, or cache (no upward or sibling imports).
//   - Infer session validity from index membership.
//   - Fail a read because the best-effort sliding refresh failed.
package session
