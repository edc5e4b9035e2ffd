package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionV1 = 1

// ErrSessionCorrupt is returned when a stored session blob cannot be
// decoded. Session reads fail closed on corruption: the blob backs an
// auth decision, so it is never silently treated as a miss.
var ErrSessionCorrupt = errors.New("session blob corrupt")

// Encode serializes a [Session] into the versioned binary format. The
// format is append-only: new versions add fields, never reinterpret old
// ones.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionV1)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"userID", s.UserID},
		{"email", s.Email},
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"ip", s.IP},
		{"userAgent", s.UserAgent},
	} {
		if err := writeString(&buf, field.name, field.value); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.BigEndian, s.LoginAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.LastActivityAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a stored session blob. The session identifier is not part
// of the blob; callers stamp it from the key they read.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrSessionCorrupt
	}
	if version != sessionFormatVersionV1 {
		return nil, ErrSessionCorrupt
	}

	var sess Session
	for _, dst := range []*string{
		&sess.UserID, &sess.Email, &sess.FirstName,
		&sess.LastName, &sess.IP, &sess.UserAgent,
	} {
		value, err := readString(reader)
		if err != nil {
			return nil, ErrSessionCorrupt
		}
		*dst = value
	}

	if err := binary.Read(reader, binary.BigEndian, &sess.LoginAt); err != nil {
		return nil, ErrSessionCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &sess.LastActivityAt); err != nil {
		return nil, ErrSessionCorrupt
	}
	if reader.Len() != 0 {
		return nil, ErrSessionCorrupt
	}

	return &sess, nil
}

func writeString(buf *bytes.Buffer, name, value string) error {
	if len(value) > 65535 {
		return errors.New(name + " too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(value))); err != nil {
		return err
	}
	buf.WriteString(value)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
