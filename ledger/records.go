package ledger

import (
	"neonode.dev/core/codec"
	"neonode.dev/core/types"
)

// encodeTrimmedBlock lays out a TrimmedBlock as: header fields in the order
// listed in the data model, followed by a CompactSize-prefixed list of
// transaction hashes.
func encodeTrimmedBlock(b types.TrimmedBlock) []byte {
	buf := make([]byte, 0, 256)
	buf = encodeHeader(buf, b.Header)
	buf = codec.AppendCompactSize(buf, uint64(len(b.TxHashes)))
	for _, h := range b.TxHashes {
		buf = append(buf, h.Bytes()...)
	}
	return buf
}

func decodeTrimmedBlock(raw []byte) (types.TrimmedBlock, error) {
	off := 0
	header, err := decodeHeader(raw, &off)
	if err != nil {
		return types.TrimmedBlock{}, err
	}
	count, err := readCompactSizeAt(raw, &off)
	if err != nil {
		return types.TrimmedBlock{}, err
	}
	hashes := make([]types.UInt256, count)
	for i := range hashes {
		b, err := codec.ReadBytes(raw, &off, 32)
		if err != nil {
			return types.TrimmedBlock{}, err
		}
		copy(hashes[i][:], b)
	}
	return types.TrimmedBlock{Header: header, TxHashes: hashes}, nil
}

func encodeHeader(buf []byte, h types.BlockHeader) []byte {
	buf = codec.AppendU32LE(buf, h.Version)
	buf = append(buf, h.PrevHash.Bytes()...)
	buf = append(buf, h.MerkleRoot.Bytes()...)
	buf = codec.AppendU64LE(buf, h.Timestamp)
	buf = codec.AppendU64LE(buf, h.Nonce)
	buf = codec.AppendU32LE(buf, h.Index)
	buf = append(buf, h.PrimaryIndex)
	buf = append(buf, h.NextConsensus.Bytes()...)
	buf = codec.AppendCompactSize(buf, uint64(len(h.Witnesses)))
	for _, w := range h.Witnesses {
		buf = codec.AppendCompactSize(buf, uint64(len(w.InvocationScript)))
		buf = append(buf, w.InvocationScript...)
		buf = codec.AppendCompactSize(buf, uint64(len(w.VerificationScript)))
		buf = append(buf, w.VerificationScript...)
	}
	return buf
}

func decodeHeader(raw []byte, off *int) (types.BlockHeader, error) {
	var h types.BlockHeader
	var err error
	if h.Version, err = codec.ReadU32LE(raw, off); err != nil {
		return h, err
	}
	prev, err := codec.ReadBytes(raw, off, 32)
	if err != nil {
		return h, err
	}
	copy(h.PrevHash[:], prev)
	mr, err := codec.ReadBytes(raw, off, 32)
	if err != nil {
		return h, err
	}
	copy(h.MerkleRoot[:], mr)
	if h.Timestamp, err = codec.ReadU64LE(raw, off); err != nil {
		return h, err
	}
	if h.Nonce, err = codec.ReadU64LE(raw, off); err != nil {
		return h, err
	}
	if h.Index, err = codec.ReadU32LE(raw, off); err != nil {
		return h, err
	}
	pb, err := codec.ReadU8(raw, off)
	if err != nil {
		return h, err
	}
	h.PrimaryIndex = pb
	nc, err := codec.ReadBytes(raw, off, 20)
	if err != nil {
		return h, err
	}
	copy(h.NextConsensus[:], nc)
	wCount, err := readCompactSizeAt(raw, off)
	if err != nil {
		return h, err
	}
	h.Witnesses = make([]types.Witness, wCount)
	for i := range h.Witnesses {
		invLen, err := readCompactSizeAt(raw, off)
		if err != nil {
			return h, err
		}
		inv, err := codec.ReadBytes(raw, off, int(invLen))
		if err != nil {
			return h, err
		}
		verLen, err := readCompactSizeAt(raw, off)
		if err != nil {
			return h, err
		}
		ver, err := codec.ReadBytes(raw, off, int(verLen))
		if err != nil {
			return h, err
		}
		h.Witnesses[i] = types.Witness{
			InvocationScript:   append([]byte(nil), inv...),
			VerificationScript: append([]byte(nil), ver...),
		}
	}
	return h, nil
}

func readCompactSizeAt(raw []byte, off *int) (uint64, error) {
	v, n, err := codec.DecodeCompactSize(raw[*off:])
	if err != nil {
		return 0, err
	}
	*off += n
	return v, nil
}

// encodeCurrentBlock lays out the CURRENT_BLOCK record: hash then index.
func encodeCurrentBlock(hash types.UInt256, index uint32) []byte {
	buf := make([]byte, 0, 36)
	buf = append(buf, hash.Bytes()...)
	buf = codec.AppendU32LE(buf, index)
	return buf
}

func decodeCurrentBlock(raw []byte) (types.UInt256, uint32, error) {
	off := 0
	h, err := codec.ReadBytes(raw, &off, 32)
	if err != nil {
		return types.UInt256{}, 0, err
	}
	idx, err := codec.ReadU32LE(raw, &off)
	if err != nil {
		return types.UInt256{}, 0, err
	}
	var out types.UInt256
	copy(out[:], h)
	return out, idx, nil
}
