// Package ledger persists blocks, transactions, and conflict records under
// fixed one-byte key prefixes atop the storage cache, and answers the
// traceability-window queries consensus and admission depend on.
package ledger

import (
	"encoding/binary"

	"neonode.dev/core/types"
)

// Key prefixes. Conflict-by-signer records (txConflictBySignerKey) share
// prefixTx with plain transaction records, as in the real Neo protocol, and
// differ only by their longer suffix; they have no prefix byte of their own.
const (
	prefixBlockHash byte = 9
	prefixBlock     byte = 5
	prefixTx        byte = 11
	prefixCurrent   byte = 12
)

// oracleResponseBookkeepingContractID is a module-internal reserved
// contract-storage slot the admission oracle's Oracle-response-id conflict
// predicate consults (§4.C step 3). It is not a real Neo-N3 native contract
// ID: actual Oracle execution state is VM/native-contract owned and out of
// this module's scope per §1 — only the consumed-response-id bookkeeping
// the conflict check needs lives here, addressed through the same
// types.StorageKey layout §6 defines for contract storage.
const oracleResponseBookkeepingContractID int32 = -9

// oracleResponseStorageKey addresses, via storage.ContractStore, the
// bookkeeping entry recording that an OracleResponse attribute carrying id
// has been committed.
func oracleResponseStorageKey(id uint64) types.StorageKey {
	suffix := make([]byte, 8)
	binary.LittleEndian.PutUint64(suffix, id)
	return types.StorageKey{ContractID: oracleResponseBookkeepingContractID, Suffix: suffix}
}

func blockHashKey(index uint32) []byte {
	out := make([]byte, 5)
	out[0] = prefixBlockHash
	binary.BigEndian.PutUint32(out[1:], index)
	return out
}

func blockKey(hash types.UInt256) []byte {
	out := make([]byte, 1+32)
	out[0] = prefixBlock
	copy(out[1:], hash.Bytes())
	return out
}

func txKey(hash types.UInt256) []byte {
	out := make([]byte, 1+32)
	out[0] = prefixTx
	copy(out[1:], hash.Bytes())
	return out
}

func txConflictBySignerKey(hash types.UInt256, signer types.UInt160) []byte {
	out := make([]byte, 1+32+20)
	out[0] = prefixTx
	copy(out[1:33], hash.Bytes())
	copy(out[33:], signer.Bytes())
	return out
}

func currentBlockKey() []byte {
	return []byte{prefixCurrent}
}
