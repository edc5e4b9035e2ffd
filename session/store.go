package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/kv"
)

// IndexFault reports a non-fatal failure while maintaining a user's
// session index. The index is an enumeration aid, so these faults are
// surfaced for logging and metrics but never fail the primary operation.
type IndexFault func(userID, sessionID string, err error)

// RefreshFault reports a failed best-effort sliding-window re-set during
// a read. The read itself still succeeds; the session just keeps its
// previous expiry until the next successful read.
type RefreshFault func(userID, sessionID string, err error)

// Store is the Redis-backed session store. Sessions live under
// prefix:<sessionID> with a sliding TTL; each user's live session IDs are
// tracked in a native set under userPrefix:<userID>.
type Store struct {
	kv         kv.Store
	prefix     string
	userPrefix string
	ttl        time.Duration
	onFault    IndexFault
	onRefresh  RefreshFault
}

// NewStore creates a session [Store] on top of the primitive layer. ttl is
// the full inactivity window; every successful read restores it.
func NewStore(store kv.Store, prefix, userPrefix string, ttl time.Duration, onFault IndexFault, onRefresh RefreshFault) *Store {
	if prefix == "" {
		prefix = "session"
	}
	if userPrefix == "" {
		userPrefix = "user_sessions"
	}
	return &Store{
		kv:         store,
		prefix:     prefix,
		userPrefix: userPrefix,
		ttl:        ttl,
		onFault:    onFault,
		onRefresh:  onRefresh,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix + ":" + userID
}

// TTL returns the configured inactivity window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create persists a session and adds its identifier to the owner's index.
// The session write propagates failure; the index write is
// log-and-continue, since the worst case is a session that works but is
// not enumerable for bulk revocation.
func (s *Store) Create(ctx context.Context, sess *Session) error {
	now := time.Now().Unix()
	if sess.LoginAt == 0 {
		sess.LoginAt = now
	}
	sess.LastActivityAt = now

	data, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key(sess.SessionID), data, s.ttl); err != nil {
		return err
	}

	s.indexAdd(ctx, sess.UserID, sess.SessionID)
	return nil
}

// Get reads a session by identifier. On a hit it stamps LastActivityAt and
// resets the key's TTL to the full window before returning; that refresh
// is best-effort and never fails the read. Absence comes back as
// [kv.ErrNil], corruption as [ErrSessionCorrupt].
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.kv.Get(ctx, s.key(sessionID))
	if err != nil {
		return nil, err
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrSessionCorrupt, sessionID)
	}
	sess.SessionID = sessionID
	sess.LastActivityAt = time.Now().Unix()

	if refreshed, err := Encode(sess); err == nil {
		if err := s.kv.Set(ctx, s.key(sessionID), refreshed, s.ttl); err != nil {
			s.refreshFault(sess.UserID, sessionID, err)
		}
	}

	return sess, nil
}

// Delete removes a session and its index entry. Deleting a session that no
// longer exists is a no-op, not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	data, err := s.kv.Get(ctx, s.key(sessionID))
	if err != nil {
		if errors.Is(err, kv.ErrNil) {
			return nil
		}
		return err
	}

	sess, decodeErr := Decode(data)

	if _, err := s.kv.Del(ctx, s.key(sessionID)); err != nil {
		return err
	}
	if decodeErr != nil {
		// The blob is gone but its owner is unknowable, so the index entry
		// is left to expire with the index key.
		s.fault("", sessionID, decodeErr)
		return nil
	}

	s.indexRemove(ctx, sess.UserID, sessionID)
	return nil
}

// DeleteAllForUser enumerates the user's index, deletes every listed
// session key in one batch even if some are already gone, then deletes the
// index itself. It returns the number of session IDs that were tracked.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	sessionIDs, err := s.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, s.userKey(userID))

	if _, err := s.kv.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(sessionIDs), nil
}

// ActiveSessionIDs returns the session identifiers tracked for a user. An
// index entry may outlive its session; callers must still check the
// session key directly.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.kv.SMembers(ctx, s.userKey(userID))
	if err != nil {
		if errors.Is(err, kv.ErrNil) {
			return []string{}, nil
		}
		return nil, err
	}
	return ids, nil
}

// ActiveSessionCount returns the number of tracked session IDs for a user.
func (s *Store) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	ids, err := s.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// indexAdd registers a session in its owner's index and aligns the index
// TTL with the session just written.
func (s *Store) indexAdd(ctx context.Context, userID, sessionID string) {
	userKey := s.userKey(userID)
	if err := s.kv.SAdd(ctx, userKey, sessionID); err != nil {
		s.fault(userID, sessionID, err)
		return
	}
	if _, err := s.kv.Expire(ctx, userKey, s.ttl); err != nil {
		s.fault(userID, sessionID, err)
	}
}

// indexRemove drops a session from its owner's index, deletes the index
// when it was the last member, and otherwise re-aligns the index TTL.
func (s *Store) indexRemove(ctx context.Context, userID, sessionID string) {
	userKey := s.userKey(userID)
	if err := s.kv.SRem(ctx, userKey, sessionID); err != nil {
		s.fault(userID, sessionID, err)
		return
	}

	remaining, err := s.kv.SMembers(ctx, userKey)
	if err != nil && !errors.Is(err, kv.ErrNil) {
		s.fault(userID, sessionID, err)
		return
	}
	if len(remaining) == 0 {
		if _, err := s.kv.Del(ctx, userKey); err != nil {
			s.fault(userID, sessionID, err)
		}
		return
	}
	if _, err := s.kv.Expire(ctx, userKey, s.ttl); err != nil {
		s.fault(userID, sessionID, err)
	}
}

func (s *Store) fault(userID, sessionID string, err error) {
	if s.onFault != nil {
		s.onFault(userID, sessionID, err)
	}
}

func (s *Store) refreshFault(userID, sessionID string, err error) {
	if s.onRefresh != nil {
		s.onRefresh(userID, sessionID, err)
	}
}
