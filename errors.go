package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/kv"
)

var (
	// ErrNotFound marks an absent value. "Not found" and "expired" are
	// indistinguishable by design: both come back as this sentinel.
	ErrNotFound = kv.ErrNil
	// ErrCoreNotReady is returned when a Core method is called before
	// Connect or after Close.
	ErrCoreNotReady = errors.New("core not connected")
	// ErrCoreClosed is returned when the Core has been shut down.
	ErrCoreClosed = errors.New("core closed")
)

// IsNotFound reports whether err marks an absent value, which is a
// normal, expected outcome for expired or never-written keys.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable reports whether err was caused by the backing store being
// unreachable, either because the connection dropped mid-operation or
// because the supervisor gave up after its attempt cap.
func IsUnavailable(err error) bool {
	return errors.Is(err, kv.ErrUnavailable) ||
		errors.Is(err, kv.ErrNotConnected) ||
		errors.Is(err, kv.ErrConnection)
}
