package consensus

import (
	"sort"

	"neonode.dev/core/codec"
	"neonode.dev/core/collab"
	"neonode.dev/core/types"
)

// Snapshot captures the engine's round state in a deterministic byte
// layout: height (u64 LE), view (u16 LE), proposal presence flag and hash,
// tx hash count + hashes, received-message count and entries (each
// length-prefixed), then change-view-intent count and entries. Counts and
// lengths use 4-byte LE fields (the documented choice between LEB128 and
// fixed-width from §9's design notes). received/changeViewIntents are
// emitted in sorted key order so that identical state always serializes to
// identical bytes, independent of Go's randomized map iteration order.
func (e *Engine) Snapshot() []byte {
	s := &e.state
	buf := make([]byte, 0, 256)
	buf = codec.AppendU64LE(buf, s.height)
	buf = codec.AppendU16LE(buf, s.view)

	if s.hasProposal {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, s.proposal.Bytes()...)

	buf = codec.AppendU32LE(buf, uint32(len(s.proposalTxHashes)))
	for _, h := range s.proposalTxHashes {
		buf = append(buf, h.Bytes()...)
	}

	recvKeys := make([]receivedKey, 0, len(s.received))
	for k := range s.received {
		recvKeys = append(recvKeys, k)
	}
	sort.Slice(recvKeys, func(i, j int) bool {
		if recvKeys[i].kind != recvKeys[j].kind {
			return recvKeys[i].kind < recvKeys[j].kind
		}
		return recvKeys[i].validator < recvKeys[j].validator
	})
	buf = codec.AppendU32LE(buf, uint32(len(recvKeys)))
	for _, k := range recvKeys {
		m := s.received[k]
		buf = append(buf, byte(k.kind))
		buf = codec.AppendU16LE(buf, uint16(k.validator))
		buf = codec.AppendU32LE(buf, uint32(len(m.Signature)))
		buf = append(buf, m.Signature...)
	}

	cviKeys := make([]types.ValidatorID, 0, len(s.changeViewIntents))
	for v := range s.changeViewIntents {
		cviKeys = append(cviKeys, v)
	}
	sort.Slice(cviKeys, func(i, j int) bool { return cviKeys[i] < cviKeys[j] })
	buf = codec.AppendU32LE(buf, uint32(len(cviKeys)))
	for _, v := range cviKeys {
		buf = codec.AppendU16LE(buf, uint16(v))
		buf = codec.AppendU16LE(buf, s.changeViewIntents[v])
	}

	return buf
}

// FromSnapshot reconstructs an engine from a byte layout produced by
// Snapshot. Its subsequent ProcessMessage behaviour is indistinguishable
// from the original engine's (P5): duplicates, missing-participant sets,
// and quorum results are all preserved.
func FromSnapshot(validators types.ValidatorSet, verifier collab.SignatureVerifier, hasher collab.HashFn, curve string, raw []byte) (*Engine, error) {
	off := 0
	height, err := codec.ReadU64LE(raw, &off)
	if err != nil {
		return nil, err
	}
	view, err := codec.ReadU16LE(raw, &off)
	if err != nil {
		return nil, err
	}
	hasProposalByte, err := codec.ReadU8(raw, &off)
	if err != nil {
		return nil, err
	}
	proposalBytes, err := codec.ReadBytes(raw, &off, 32)
	if err != nil {
		return nil, err
	}
	var proposal types.UInt256
	copy(proposal[:], proposalBytes)

	txCount, err := codec.ReadU32LE(raw, &off)
	if err != nil {
		return nil, err
	}
	txHashes := make([]types.UInt256, txCount)
	for i := range txHashes {
		b, err := codec.ReadBytes(raw, &off, 32)
		if err != nil {
			return nil, err
		}
		copy(txHashes[i][:], b)
	}

	e := &Engine{validators: validators, verifier: verifier, hasher: hasher, curve: curve}
	e.state = snapshotState{
		height:            height,
		view:              view,
		hasProposal:       hasProposalByte == 1,
		proposal:          proposal,
		proposalTxHashes:  txHashes,
		received:          make(map[receivedKey]SignedMessage),
		changeViewIntents: make(map[types.ValidatorID]uint16),
	}

	recvCount, err := codec.ReadU32LE(raw, &off)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < recvCount; i++ {
		kindByte, err := codec.ReadU8(raw, &off)
		if err != nil {
			return nil, err
		}
		validatorID, err := codec.ReadU16LE(raw, &off)
		if err != nil {
			return nil, err
		}
		sigLen, err := codec.ReadU32LE(raw, &off)
		if err != nil {
			return nil, err
		}
		sig, err := codec.ReadBytes(raw, &off, int(sigLen))
		if err != nil {
			return nil, err
		}
		key := receivedKey{kind: MessageKind(kindByte), validator: types.ValidatorID(validatorID)}
		e.state.received[key] = SignedMessage{
			Height:    height,
			View:      view,
			Validator: types.ValidatorID(validatorID),
			Signature: append([]byte(nil), sig...),
		}
	}

	cviCount, err := codec.ReadU32LE(raw, &off)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < cviCount; i++ {
		v, err := codec.ReadU16LE(raw, &off)
		if err != nil {
			return nil, err
		}
		nv, err := codec.ReadU16LE(raw, &off)
		if err != nil {
			return nil, err
		}
		e.state.changeViewIntents[types.ValidatorID(v)] = nv
	}

	return e, nil
}
