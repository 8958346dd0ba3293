package types

import "bytes"

// StorageKeyPrefix is the one-byte tag that marks a Store key as
// contract-storage (as opposed to the ledger's own block/tx/current-block
// keys, which reserve their own prefixes under the same flat namespace).
const StorageKeyPrefix byte = 1

// StorageKey addresses a single entry in a contract's storage area.
// Ordering is by ContractID first, then Suffix lexicographically, which is
// the order Seek operations over a contract's storage rely on for prefix
// scans to yield contiguous ranges.
type StorageKey struct {
	ContractID int32
	Suffix     []byte
}

// Compare orders StorageKeys by ContractID then Suffix.
func (k StorageKey) Compare(o StorageKey) int {
	if k.ContractID != o.ContractID {
		if k.ContractID < o.ContractID {
			return -1
		}
		return 1
	}
	return bytes.Compare(k.Suffix, o.Suffix)
}

// Bytes encodes the key per §6's bit-exact storage key layout: a one-byte
// StorageKeyPrefix tag, a 4-byte little-endian ContractID, then the raw
// Suffix. This encoding does NOT preserve numeric ContractID ordering under
// byte comparison (little-endian multi-byte fields never do); callers that
// need ordered iteration over Compare's order must sort in memory rather
// than rely on a prefix Seek spanning more than one ContractID.
func (k StorageKey) Bytes() []byte {
	out := make([]byte, 1+4+len(k.Suffix))
	out[0] = StorageKeyPrefix
	cid := uint32(k.ContractID)
	out[1] = byte(cid)
	out[2] = byte(cid >> 8)
	out[3] = byte(cid >> 16)
	out[4] = byte(cid >> 24)
	copy(out[5:], k.Suffix)
	return out
}

// ContractPrefix returns the Store key prefix common to every StorageKey
// belonging to contractID, suitable for a bounded Seek over just that
// contract's storage area.
func ContractPrefix(contractID int32) []byte {
	return StorageKey{ContractID: contractID}.Bytes()[:5]
}

// StorageItem is the value half of a storage entry.
type StorageItem struct {
	Value []byte
}
