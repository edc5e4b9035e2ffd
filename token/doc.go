// Package token provides hashed-key refresh-token custody with a fixed
// seven-day TTL and per-user bulk revocation.
//
// # Hashing contract
//
// The raw token a client presents is never persisted. Storage is keyed by
// the SHA-256 hex digest of the raw token (ident.HashToken), and the same
// digest is the lookup key on verification. The token ID inside a record
// is a separate, non-secret correlation identifier for audit and
// revocation bookkeeping.
//
// # Revocation index
//
// Each user's live token hashes are tracked in a hash-field index mapping
// token hash to token ID, populated at creation time. Bulk revocation
// reads that index instead of scanning the whole token keyspace, so
// revoking one user is O(tokens for that user), not O(all tokens).
//
// # What this package must NOT do
//
//   - Accept or store a raw token value.
//   - Extend a token's TTL on read: refresh tokens are rotated, not kept
//     alive by use.
//   - Import goSession, session, or cache.
package token
