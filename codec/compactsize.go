package codec

// CompactSize is the minimal variable-length count encoding used to prefix
// lists and byte strings in ledger records: values below 0xfd
// encode as a single byte; 0xfd/0xfe/0xff tags switch to a fixed-width
// field. Encoders must choose the minimal tag for a given value; decoders
// reject non-minimal encodings.

func EncodeCompactSize(n uint64) []byte {
	return AppendCompactSize(nil, n)
}

func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return AppendU16LE(dst, uint16(n))
	case n <= 0xffff_ffff:
		dst = append(dst, 0xfe)
		return AppendU32LE(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return AppendU64LE(dst, n)
	}
}

// DecodeCompactSize decodes one CompactSize value from the front of buf and
// returns the value and the number of bytes consumed.
func DecodeCompactSize(buf []byte) (uint64, int, error) {
	off := 0
	v, err := readCompactSize(buf, &off)
	return v, off, err
}

func readCompactSize(b []byte, off *int) (uint64, error) {
	tag, err := ReadU8(b, off)
	if err != nil {
		return 0, err
	}

	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		v, err := ReadU16LE(b, off)
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, errf("non-minimal CompactSize (0xfd)")
		}
		return uint64(v), nil
	case tag == 0xfe:
		v, err := ReadU32LE(b, off)
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, errf("non-minimal CompactSize (0xfe)")
		}
		return uint64(v), nil
	default:
		v, err := ReadU64LE(b, off)
		if err != nil {
			return 0, err
		}
		if v <= 0xffff_ffff {
			return 0, errf("non-minimal CompactSize (0xff)")
		}
		return v, nil
	}
}
