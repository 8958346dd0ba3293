// Package codec provides the small set of deterministic byte-layout helpers
// shared by the consensus snapshot format, the ledger's persisted records,
// and any other component that needs a fixed, documented binary encoding.
// It has no notion of network wire framing — that lives entirely behind the
// collab.PeerSink / collab.PeerStream boundary.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Error reports a codec failure with a short, stable reason string.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "codec: " + e.Reason }

func errf(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

func ReadU8(b []byte, off *int) (uint8, error) {
	if *off+1 > len(b) {
		return 0, errf("unexpected EOF (u8)")
	}
	v := b[*off]
	*off++
	return v, nil
}

func ReadU16LE(b []byte, off *int) (uint16, error) {
	if *off+2 > len(b) {
		return 0, errf("unexpected EOF (u16le)")
	}
	v := binary.LittleEndian.Uint16(b[*off : *off+2])
	*off += 2
	return v, nil
}

func ReadU32LE(b []byte, off *int) (uint32, error) {
	if *off+4 > len(b) {
		return 0, errf("unexpected EOF (u32le)")
	}
	v := binary.LittleEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

func ReadU64LE(b []byte, off *int) (uint64, error) {
	if *off+8 > len(b) {
		return 0, errf("unexpected EOF (u64le)")
	}
	v := binary.LittleEndian.Uint64(b[*off : *off+8])
	*off += 8
	return v, nil
}

func ReadBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 {
		return nil, errf("negative length")
	}
	if *off+n > len(b) {
		return nil, errf("unexpected EOF (bytes)")
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

func AppendU16LE(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendU32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendU64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}
