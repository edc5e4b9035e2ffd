// Package ident generates the module's identifiers and one-way token
// hashes.
//
// Session identifiers are the only secret this package produces: 256 bits
// of crypto/rand entropy, hex-encoded, unguessable within a session
// lifetime. Token IDs are non-secret correlation identifiers for audit and
// revocation bookkeeping. HashToken is the deterministic SHA-256 digest
// used to key refresh-token storage so the raw token is never persisted.
package ident

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

const sessionIDBytes = 32

// NewSessionID returns a 256-bit cryptographically secure random session
// identifier, hex-encoded.
func NewSessionID() (string, error) {
	var raw [sessionIDBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewTokenID returns a random UUID used as a non-secret correlation
// identifier for refresh tokens.
func NewTokenID() string {
	return uuid.NewString()
}

// HashToken returns the SHA-256 hex digest of a raw token. The digest is
// deterministic: the same input always yields the same output, which is
// what makes lookup-by-hash work.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
