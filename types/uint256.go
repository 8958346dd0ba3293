package types

import (
	"bytes"
	"fmt"
)

// UInt256 is a 32-byte opaque identifier used for transaction, block, and
// witness-script hashes.
type UInt256 [32]byte

var UInt256Zero UInt256

func (u UInt256) Bytes() []byte { return u[:] }

func (u UInt256) Equals(o UInt256) bool { return u == o }

func (u UInt256) Compare(o UInt256) int { return bytes.Compare(u[:], o[:]) }

func (u UInt256) IsZero() bool { return u == UInt256Zero }

func (u UInt256) String() string {
	return reversedHex(u[:])
}

func (u UInt256) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UInt256) UnmarshalText(b []byte) error {
	v, err := UInt256FromString(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

func UInt256FromBytes(b []byte) (UInt256, error) {
	var out UInt256
	if len(b) != 32 {
		return out, fmt.Errorf("types: UInt256 requires 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func UInt256FromString(s string) (UInt256, error) {
	raw, err := reversedBytesFromHex(s, 32)
	if err != nil {
		return UInt256{}, fmt.Errorf("types: UInt256: %w", err)
	}
	var out UInt256
	copy(out[:], raw)
	return out, nil
}
