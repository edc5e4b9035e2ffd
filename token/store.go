package token

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/goSession/kv"
)

const recordVersionV1 = 1

// ErrTokenCorrupt is returned when a stored token record cannot be
// decoded. Token reads fail closed: the record backs an auth decision.
var ErrTokenCorrupt = errors.New("refresh token record corrupt")

// Record is the persisted state of one refresh token. Records are written
// once and never updated in place; rotation stores a new record and
// deletes the old one.
type Record struct {
	UserID    string
	TokenID   string
	CreatedAt int64
	ExpiresAt int64
}

// IndexFault reports a non-fatal failure while maintaining a user's token
// index.
type IndexFault func(userID, tokenID string, err error)

// Store is the Redis-backed refresh token store. Records live under
// prefix:<sha256(token)> with a fixed TTL; each user's live token hashes
// are tracked in a hash under userPrefix:<userID>.
type Store struct {
	kv         kv.Store
	prefix     string
	userPrefix string
	ttl        time.Duration
	onFault    IndexFault
}

// NewStore creates a refresh token [Store]. ttl is fixed at creation; use
// is deliberately not a TTL extension.
func NewStore(store kv.Store, prefix, userPrefix string, ttl time.Duration, onFault IndexFault) *Store {
	if prefix == "" {
		prefix = "refresh_token"
	}
	if userPrefix == "" {
		userPrefix = "refresh_user"
	}
	return &Store{
		kv:         store,
		prefix:     prefix,
		userPrefix: userPrefix,
		ttl:        ttl,
		onFault:    onFault,
	}
}

func (s *Store) key(tokenHash string) string {
	return s.prefix + ":" + tokenHash
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix + ":" + userID
}

// TTL returns the fixed token lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Save persists a record under its token hash with the fixed TTL and
// registers the hash in the owner's index. The record write propagates
// failure; the index write is log-and-continue.
func (s *Store) Save(ctx context.Context, tokenHash string, rec *Record) error {
	now := time.Now().Unix()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	if rec.ExpiresAt == 0 {
		rec.ExpiresAt = now + int64(s.ttl/time.Second)
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key(tokenHash), data, s.ttl); err != nil {
		return err
	}

	userKey := s.userKey(rec.UserID)
	if err := s.kv.HSet(ctx, userKey, tokenHash, []byte(rec.TokenID)); err != nil {
		s.fault(rec.UserID, rec.TokenID, err)
		return nil
	}
	if _, err := s.kv.Expire(ctx, userKey, s.ttl); err != nil {
		s.fault(rec.UserID, rec.TokenID, err)
	}
	return nil
}

// Get returns the record stored under a token hash, or [kv.ErrNil] when
// absent or expired. Corruption surfaces as [ErrTokenCorrupt].
func (s *Store) Get(ctx context.Context, tokenHash string) (*Record, error) {
	data, err := s.kv.Get(ctx, s.key(tokenHash))
	if err != nil {
		return nil, err
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > rec.ExpiresAt {
		return nil, kv.ErrNil
	}
	return rec, nil
}

// Delete removes a token record and its index entry. Deleting an absent
// token is a no-op.
func (s *Store) Delete(ctx context.Context, tokenHash string) error {
	data, err := s.kv.Get(ctx, s.key(tokenHash))
	if err != nil {
		if errors.Is(err, kv.ErrNil) {
			return nil
		}
		return err
	}

	rec, decodeErr := decodeRecord(data)

	if _, err := s.kv.Del(ctx, s.key(tokenHash)); err != nil {
		return err
	}
	if decodeErr != nil {
		s.fault("", "", decodeErr)
		return nil
	}

	s.indexRemove(ctx, rec.UserID, rec.TokenID, tokenHash)
	return nil
}

// DeleteAllForUser revokes every token tracked for a user and returns how
// many were revoked. It reads the per-user index, deletes all listed token
// keys in one batch even if some already expired, then deletes the index.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)

	fields, err := s.kv.HGetAll(ctx, userKey)
	if err != nil && !errors.Is(err, kv.ErrNil) {
		return 0, err
	}

	keys := make([]string, 0, len(fields)+1)
	for tokenHash := range fields {
		keys = append(keys, s.key(tokenHash))
	}
	keys = append(keys, userKey)

	if _, err := s.kv.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(fields), nil
}

// EstimateStored scans the token keyspace and counts records. This is an
// admin-only O(n) operation and must not be used in request hot paths;
// each cursor step is bounded so the store is never blocked on one call.
func (s *Store) EstimateStored(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.kv.Scan(ctx, cursor, s.prefix+":*", 1000)
		if err != nil {
			return 0, err
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return total, nil
}

func (s *Store) indexRemove(ctx context.Context, userID, tokenID, tokenHash string) {
	userKey := s.userKey(userID)
	if err := s.kv.HDel(ctx, userKey, tokenHash); err != nil {
		s.fault(userID, tokenID, err)
		return
	}
	remaining, err := s.kv.HGetAll(ctx, userKey)
	if err != nil && !errors.Is(err, kv.ErrNil) {
		s.fault(userID, tokenID, err)
		return
	}
	if len(remaining) == 0 {
		if _, err := s.kv.Del(ctx, userKey); err != nil {
			s.fault(userID, tokenID, err)
		}
	}
}

func (s *Store) fault(userID, tokenID string, err error) {
	if s.onFault != nil {
		s.onFault(userID, tokenID, err)
	}
}

func encodeRecord(rec *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"userID", rec.UserID},
		{"tokenID", rec.TokenID},
	} {
		if len(field.value) > 65535 {
			return nil, errors.New(field.name + " too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field.value))); err != nil {
			return nil, err
		}
		buf.WriteString(field.value)
	}

	if err := binary.Write(&buf, binary.BigEndian, rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, rec.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil || version != recordVersionV1 {
		return nil, ErrTokenCorrupt
	}

	var rec Record
	for _, dst := range []*string{&rec.UserID, &rec.TokenID} {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, ErrTokenCorrupt
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, ErrTokenCorrupt
		}
		*dst = string(raw)
	}

	if err := binary.Read(reader, binary.BigEndian, &rec.CreatedAt); err != nil {
		return nil, ErrTokenCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &rec.ExpiresAt); err != nil {
		return nil, ErrTokenCorrupt
	}
	if reader.Len() != 0 {
		return nil, ErrTokenCorrupt
	}

	return &rec, nil
}
