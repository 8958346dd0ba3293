package ledger

import (
	"neonode.dev/core/codec"
	"neonode.dev/core/types"
)

// encodeTxRecord lays out a PersistedTransactionState as the shared
// ExecTransactionByte marker, the serialized transaction, the committing
// block index, and the VM state byte. Its total length is never 5 (a real
// transaction always serializes to more than a version byte), which is
// exactly what lets DecodeConflictStub tell the two apart (I7).
func encodeTxRecord(s types.PersistedTransactionState) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, types.ExecTransactionByte)
	buf = encodeTransaction(buf, s.Transaction)
	buf = codec.AppendU32LE(buf, s.BlockIndex)
	buf = append(buf, s.VMState)
	return buf
}

func decodeTxRecord(raw []byte) (types.PersistedTransactionState, error) {
	off := 1 // skip the shared marker byte; caller has already checked it.
	tx, err := decodeTransaction(raw, &off)
	if err != nil {
		return types.PersistedTransactionState{}, err
	}
	blockIndex, err := codec.ReadU32LE(raw, &off)
	if err != nil {
		return types.PersistedTransactionState{}, err
	}
	vmState, err := codec.ReadU8(raw, &off)
	if err != nil {
		return types.PersistedTransactionState{}, err
	}
	return types.PersistedTransactionState{Transaction: tx, BlockIndex: blockIndex, VMState: vmState}, nil
}

func encodeTransaction(buf []byte, tx types.Transaction) []byte {
	buf = append(buf, tx.Version)
	buf = codec.AppendU32LE(buf, tx.Nonce)
	buf = codec.AppendU64LE(buf, uint64(tx.SystemFee))
	buf = codec.AppendU64LE(buf, uint64(tx.NetworkFee))
	buf = codec.AppendU32LE(buf, tx.ValidUntilBlock)

	buf = codec.AppendCompactSize(buf, uint64(len(tx.Signers)))
	for _, s := range tx.Signers {
		buf = append(buf, s.Account.Bytes()...)
		buf = append(buf, byte(s.Scopes))
		buf = codec.AppendCompactSize(buf, uint64(len(s.AllowedContracts)))
		for _, c := range s.AllowedContracts {
			buf = append(buf, c.Bytes()...)
		}
		buf = codec.AppendCompactSize(buf, uint64(len(s.AllowedGroups)))
		for _, g := range s.AllowedGroups {
			buf = codec.AppendCompactSize(buf, uint64(len(g.Raw)))
			buf = append(buf, g.Raw...)
		}
	}

	buf = codec.AppendCompactSize(buf, uint64(len(tx.Attributes)))
	for _, a := range tx.Attributes {
		buf = append(buf, byte(a.Kind))
		switch a.Kind {
		case types.AttrOracleResponse:
			buf = codec.AppendU64LE(buf, a.OracleID)
			buf = append(buf, a.OracleCode)
			buf = codec.AppendCompactSize(buf, uint64(len(a.OracleResult)))
			buf = append(buf, a.OracleResult...)
		case types.AttrNotValidBefore:
			buf = codec.AppendU32LE(buf, a.NotValidBeforeHeight)
		case types.AttrConflicts:
			buf = append(buf, a.ConflictsHash.Bytes()...)
		}
	}

	buf = codec.AppendCompactSize(buf, uint64(len(tx.Script)))
	buf = append(buf, tx.Script...)

	buf = codec.AppendCompactSize(buf, uint64(len(tx.Witnesses)))
	for _, w := range tx.Witnesses {
		buf = codec.AppendCompactSize(buf, uint64(len(w.InvocationScript)))
		buf = append(buf, w.InvocationScript...)
		buf = codec.AppendCompactSize(buf, uint64(len(w.VerificationScript)))
		buf = append(buf, w.VerificationScript...)
	}
	return buf
}

func decodeTransaction(raw []byte, off *int) (types.Transaction, error) {
	var tx types.Transaction
	var err error
	if tx.Version, err = codec.ReadU8(raw, off); err != nil {
		return tx, err
	}
	if tx.Nonce, err = codec.ReadU32LE(raw, off); err != nil {
		return tx, err
	}
	sysFee, err := codec.ReadU64LE(raw, off)
	if err != nil {
		return tx, err
	}
	tx.SystemFee = int64(sysFee)
	netFee, err := codec.ReadU64LE(raw, off)
	if err != nil {
		return tx, err
	}
	tx.NetworkFee = int64(netFee)
	if tx.ValidUntilBlock, err = codec.ReadU32LE(raw, off); err != nil {
		return tx, err
	}

	signerCount, err := readCompactSizeAt(raw, off)
	if err != nil {
		return tx, err
	}
	tx.Signers = make([]types.Signer, signerCount)
	for i := range tx.Signers {
		acct, err := codec.ReadBytes(raw, off, 20)
		if err != nil {
			return tx, err
		}
		var s types.Signer
		copy(s.Account[:], acct)
		scopeByte, err := codec.ReadU8(raw, off)
		if err != nil {
			return tx, err
		}
		s.Scopes = types.WitnessScope(scopeByte)
		contractCount, err := readCompactSizeAt(raw, off)
		if err != nil {
			return tx, err
		}
		s.AllowedContracts = make([]types.UInt160, contractCount)
		for j := range s.AllowedContracts {
			cb, err := codec.ReadBytes(raw, off, 20)
			if err != nil {
				return tx, err
			}
			copy(s.AllowedContracts[j][:], cb)
		}
		groupCount, err := readCompactSizeAt(raw, off)
		if err != nil {
			return tx, err
		}
		s.AllowedGroups = make([]types.ECPoint, groupCount)
		for j := range s.AllowedGroups {
			glen, err := readCompactSizeAt(raw, off)
			if err != nil {
				return tx, err
			}
			gb, err := codec.ReadBytes(raw, off, int(glen))
			if err != nil {
				return tx, err
			}
			s.AllowedGroups[j] = types.ECPoint{Raw: append([]byte(nil), gb...)}
		}
		tx.Signers[i] = s
	}

	attrCount, err := readCompactSizeAt(raw, off)
	if err != nil {
		return tx, err
	}
	tx.Attributes = make([]types.TransactionAttribute, attrCount)
	for i := range tx.Attributes {
		kindByte, err := codec.ReadU8(raw, off)
		if err != nil {
			return tx, err
		}
		a := types.TransactionAttribute{Kind: types.AttributeKind(kindByte)}
		switch a.Kind {
		case types.AttrOracleResponse:
			if a.OracleID, err = codec.ReadU64LE(raw, off); err != nil {
				return tx, err
			}
			if a.OracleCode, err = codec.ReadU8(raw, off); err != nil {
				return tx, err
			}
			rlen, err := readCompactSizeAt(raw, off)
			if err != nil {
				return tx, err
			}
			rb, err := codec.ReadBytes(raw, off, int(rlen))
			if err != nil {
				return tx, err
			}
			a.OracleResult = append([]byte(nil), rb...)
		case types.AttrNotValidBefore:
			if a.NotValidBeforeHeight, err = codec.ReadU32LE(raw, off); err != nil {
				return tx, err
			}
		case types.AttrConflicts:
			cb, err := codec.ReadBytes(raw, off, 32)
			if err != nil {
				return tx, err
			}
			copy(a.ConflictsHash[:], cb)
		}
		tx.Attributes[i] = a
	}

	scriptLen, err := readCompactSizeAt(raw, off)
	if err != nil {
		return tx, err
	}
	script, err := codec.ReadBytes(raw, off, int(scriptLen))
	if err != nil {
		return tx, err
	}
	tx.Script = append([]byte(nil), script...)

	witCount, err := readCompactSizeAt(raw, off)
	if err != nil {
		return tx, err
	}
	tx.Witnesses = make([]types.Witness, witCount)
	for i := range tx.Witnesses {
		invLen, err := readCompactSizeAt(raw, off)
		if err != nil {
			return tx, err
		}
		inv, err := codec.ReadBytes(raw, off, int(invLen))
		if err != nil {
			return tx, err
		}
		verLen, err := readCompactSizeAt(raw, off)
		if err != nil {
			return tx, err
		}
		ver, err := codec.ReadBytes(raw, off, int(verLen))
		if err != nil {
			return tx, err
		}
		tx.Witnesses[i] = types.Witness{
			InvocationScript:   append([]byte(nil), inv...),
			VerificationScript: append([]byte(nil), ver...),
		}
	}

	return tx, nil
}
