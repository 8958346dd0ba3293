package storage

import (
	"neonode.dev/core/collab"
	"neonode.dev/core/types"
)

// ContractStore is the typed facade native contracts and the VM host use to
// read and write their own storage area of a collab.Store (normally a
// Cache-wrapped bbolt store), addressing entries by types.StorageKey rather
// than raw bytes per §5/§6's storage key layout.
type ContractStore struct {
	store collab.Store
}

// NewContractStore wraps store for typed contract-storage access.
func NewContractStore(store collab.Store) ContractStore {
	return ContractStore{store: store}
}

// Get returns the item at key. Per §5, the returned StorageItem must be
// treated as an immutable snapshot: callers that want to mutate it must call
// Put with a new value rather than modifying Value in place.
func (c ContractStore) Get(key types.StorageKey) (types.StorageItem, bool, error) {
	raw, ok, err := c.store.Get(key.Bytes())
	if err != nil || !ok {
		return types.StorageItem{}, ok, err
	}
	return types.StorageItem{Value: raw}, true, nil
}

// Put writes item at key.
func (c ContractStore) Put(key types.StorageKey, item types.StorageItem) error {
	return c.store.PutBatch([]collab.BatchItem{{Key: key.Bytes(), Value: item.Value, Op: collab.OpPut}})
}

// Delete removes the entry at key, if any.
func (c ContractStore) Delete(key types.StorageKey) error {
	return c.store.PutBatch([]collab.BatchItem{{Key: key.Bytes(), Op: collab.OpDelete}})
}

// Find iterates every entry belonging to contractID in suffix order,
// stopping early if visit returns false. Results are yielded in the
// underlying Store's byte order, which for a single contractID coincides
// with types.StorageKey.Compare's suffix ordering since ContractID is fixed
// across the whole scan.
func (c ContractStore) Find(contractID int32, visit func(types.StorageKey, types.StorageItem) bool) error {
	prefix := types.ContractPrefix(contractID)
	return c.store.Seek(prefix, collab.SeekForward, func(kv collab.KVPair) bool {
		suffix := append([]byte(nil), kv.Key[len(prefix):]...)
		key := types.StorageKey{ContractID: contractID, Suffix: suffix}
		return visit(key, types.StorageItem{Value: kv.Value})
	})
}
