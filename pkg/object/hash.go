package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the length in bytes of a raw object digest.
const HashSize = sha1.Size

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// HashBytes computes the SHA-1 of data and returns it as a lowercase
// hex-encoded Hash. Callers hash the full envelope, not the bare payload.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// the same digest Git assigns to the object.
func HashObject(objType ObjectType, data []byte) Hash {
	return HashBytes(Envelope(objType, data))
}

// ParseHash validates s as a full hex object hash.
func ParseHash(s string) (Hash, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2*HashSize {
		return "", fmt.Errorf("invalid object hash %q: want %d hex characters", s, 2*HashSize)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("invalid object hash %q: %w", s, err)
	}
	return Hash(strings.ToLower(s)), nil
}

// Raw decodes h into its 20 raw digest bytes.
func (h Hash) Raw() ([]byte, error) {
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("decode hash %q: %w", h, err)
	}
	if len(raw) != HashSize {
		return nil, fmt.Errorf("decode hash %q: got %d bytes, want %d", h, len(raw), HashSize)
	}
	return raw, nil
}

// Short returns the first 8 characters of h, for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// HashFromRaw renders 20 raw digest bytes as a Hash.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != HashSize {
		return "", fmt.Errorf("raw hash: got %d bytes, want %d", len(raw), HashSize)
	}
	return Hash(hex.EncodeToString(raw)), nil
}
