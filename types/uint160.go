package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// UInt160 is a 20-byte opaque identifier used for script hashes and account
// addresses. Equality is by bytes.
type UInt160 [20]byte

var UInt160Zero UInt160

// Bytes returns the raw 20 bytes.
func (u UInt160) Bytes() []byte { return u[:] }

// Equals reports whether u and o hold the same bytes.
func (u UInt160) Equals(o UInt160) bool { return u == o }

// Compare orders UInt160 values by byte sequence.
func (u UInt160) Compare(o UInt160) int { return bytes.Compare(u[:], o[:]) }

// String returns the canonical little-endian hex representation: the
// reverse byte order of the underlying array, matching Neo's on-screen
// convention for 160/256-bit identifiers.
func (u UInt160) String() string {
	return reversedHex(u[:])
}

func (u UInt160) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UInt160) UnmarshalText(b []byte) error {
	v, err := UInt160FromString(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// UInt160FromBytes copies b (big-endian storage order) into a UInt160.
func UInt160FromBytes(b []byte) (UInt160, error) {
	var out UInt160
	if len(b) != 20 {
		return out, fmt.Errorf("types: UInt160 requires 20 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// UInt160FromString parses the canonical little-endian hex form (with or
// without a leading "0x").
func UInt160FromString(s string) (UInt160, error) {
	raw, err := reversedBytesFromHex(s, 20)
	if err != nil {
		return UInt160{}, fmt.Errorf("types: UInt160: %w", err)
	}
	var out UInt160
	copy(out[:], raw)
	return out, nil
}

func reversedHex(b []byte) string {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return hex.EncodeToString(rev)
}

func reversedBytesFromHex(s string, n int) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != n {
		return nil, fmt.Errorf("expected %d bytes, got %d", n, len(raw))
	}
	rev := make([]byte, n)
	for i, v := range raw {
		rev[n-1-i] = v
	}
	return rev, nil
}
