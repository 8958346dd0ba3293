package ledger

import (
	"errors"

	"neonode.dev/core/codec"
	"neonode.dev/core/collab"
	"neonode.dev/core/storage"
	"neonode.dev/core/types"
)

// ErrNotFound is returned by point lookups that find nothing; callers that
// model "absent" as a bool/ok pair never see this, it exists for the
// Ledger's own internal plumbing against collab.Store.
var ErrNotFound = errors.New("ledger: not found")

// Ledger persists blocks, transactions, and conflict records atop a
// collab.Store (typically a storage.Cache-wrapped KV store) and answers
// every read query the consensus, sync, and admission layers need.
type Ledger struct {
	store     collab.Store
	hasher    collab.HashFn
	contracts storage.ContractStore
}

// Open wraps store for ledger use. It does not bootstrap genesis; call
// EnsureGenesis for that.
func Open(store collab.Store, hasher collab.HashFn) *Ledger {
	return &Ledger{store: store, hasher: hasher, contracts: storage.NewContractStore(store)}
}

// HashOrIndex selects a block by hash or by height for GetBlock /
// GetTrimmedBlock.
type HashOrIndex struct {
	hash   types.UInt256
	index  uint32
	byHash bool
}

func ByHash(h types.UInt256) HashOrIndex { return HashOrIndex{hash: h, byHash: true} }
func ByIndex(i uint32) HashOrIndex       { return HashOrIndex{index: i} }

func (l *Ledger) resolveHash(ref HashOrIndex) (types.UInt256, bool, error) {
	if ref.byHash {
		return ref.hash, true, nil
	}
	raw, ok, err := l.store.Get(blockHashKey(ref.index))
	if err != nil || !ok {
		return types.UInt256{}, ok, err
	}
	h, err := types.UInt256FromBytes(raw)
	return h, true, err
}

// CurrentHash returns the hash of the most recently persisted block.
func (l *Ledger) CurrentHash() (types.UInt256, bool, error) {
	raw, ok, err := l.store.Get(currentBlockKey())
	if err != nil || !ok {
		return types.UInt256{}, ok, err
	}
	h, _, err := decodeCurrentBlock(raw)
	return h, true, err
}

// CurrentIndex returns the height of the most recently persisted block.
func (l *Ledger) CurrentIndex() (uint32, bool, error) {
	raw, ok, err := l.store.Get(currentBlockKey())
	if err != nil || !ok {
		return 0, ok, err
	}
	_, idx, err := decodeCurrentBlock(raw)
	return idx, true, err
}

// GetTrimmedBlock returns the trimmed payload at ref without rehydrating its
// transactions. ref resolves to nothing if its block's index is outside the
// traceability window: index + maxTraceable must exceed the current height
// (I2/P6), the same boundary ContainsConflictHash enforces.
func (l *Ledger) GetTrimmedBlock(ref HashOrIndex, maxTraceable uint32) (types.TrimmedBlock, bool, error) {
	hash, ok, err := l.resolveHash(ref)
	if err != nil || !ok {
		return types.TrimmedBlock{}, ok, err
	}
	raw, ok, err := l.store.Get(blockKey(hash))
	if err != nil || !ok {
		return types.TrimmedBlock{}, ok, err
	}
	tb, err := decodeTrimmedBlock(raw)
	if err != nil {
		return types.TrimmedBlock{}, false, err
	}
	current, ok, err := l.CurrentIndex()
	if err != nil {
		return types.TrimmedBlock{}, false, err
	}
	if !ok || !IsTraceable(current, tb.Header.Index, maxTraceable) {
		return types.TrimmedBlock{}, false, nil
	}
	return tb, true, nil
}

// GetBlock loads the trimmed block at ref and rehydrates every contained
// transaction by hash. It returns (_, false, nil) if the trimmed block is
// absent, outside the traceability window (S5/P6), or any transaction it
// names is missing.
func (l *Ledger) GetBlock(ref HashOrIndex, maxTraceable uint32) (types.Block, bool, error) {
	tb, ok, err := l.GetTrimmedBlock(ref, maxTraceable)
	if err != nil || !ok {
		return types.Block{}, ok, err
	}
	txs := make([]types.Transaction, len(tb.TxHashes))
	for i, h := range tb.TxHashes {
		state, ok, err := l.getTxRecord(h)
		if err != nil {
			return types.Block{}, false, err
		}
		if !ok {
			return types.Block{}, false, nil
		}
		txs[i] = state.Transaction
	}
	return types.Block{Header: tb.Header, Transactions: txs}, true, nil
}

// ContainsBlock reports whether a trimmed block is persisted at hash.
func (l *Ledger) ContainsBlock(hash types.UInt256) (bool, error) {
	_, ok, err := l.store.Get(blockKey(hash))
	return ok, err
}

func (l *Ledger) getTxRecord(hash types.UInt256) (types.PersistedTransactionState, bool, error) {
	raw, ok, err := l.store.Get(txKey(hash))
	if err != nil || !ok {
		return types.PersistedTransactionState{}, ok, err
	}
	if _, isStub := types.DecodeConflictStub(raw); isStub {
		return types.PersistedTransactionState{}, false, nil
	}
	state, err := decodeTxRecord(raw)
	return state, err == nil, err
}

// ContainsTransaction reports whether a full transaction record (not a
// conflict stub) is persisted at hash.
func (l *Ledger) ContainsTransaction(hash types.UInt256) (bool, error) {
	_, ok, err := l.getTxRecord(hash)
	return ok, err
}

// TransactionAttributes returns the OracleResponse/NotValidBefore fields of
// the transaction persisted at hash, implementing the remaining predicates
// of the conflict check admission.Oracle.ContainsConflictHash consults
// (§4.C step 3). It returns (_, false, nil) if hash has no full transaction
// record (absent, or only a conflict stub).
func (l *Ledger) TransactionAttributes(hash types.UInt256) (types.TxAttributes, bool, error) {
	state, ok, err := l.getTxRecord(hash)
	if err != nil || !ok {
		return types.TxAttributes{}, ok, err
	}
	return state.Transaction.ConflictAttributes(), true, nil
}

// ContainsConsumedOracleResponse reports whether an OracleResponse
// attribute carrying id has already been committed in some earlier
// transaction, implementing the Oracle-response-id bookkeeping predicate of
// the conflict check (§4.C step 3). Presence is permanent, not
// traceability-windowed: a response id must never become reusable again,
// mirroring how the real Oracle native contract tracks consumed request ids
// for the life of the chain rather than within a rolling window.
func (l *Ledger) ContainsConsumedOracleResponse(id uint64) (bool, error) {
	_, ok, err := l.contracts.Get(oracleResponseStorageKey(id))
	return ok, err
}

// ContainsConflictHash reports whether hash has a traceable conflict stub
// AND at least one of signers has a traceable conflict-by-signer record for
// it (I7, P7).
func (l *Ledger) ContainsConflictHash(hash types.UInt256, signers []types.UInt160, maxTraceable uint32) (bool, error) {
	current, ok, err := l.CurrentIndex()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	raw, ok, err := l.store.Get(txKey(hash))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	stub, isStub := types.DecodeConflictStub(raw)
	if !isStub {
		return false, nil
	}
	if !IsTraceable(current, stub.BlockIndex, maxTraceable) {
		return false, nil
	}

	for _, signer := range signers {
		sraw, ok, err := l.store.Get(txConflictBySignerKey(hash, signer))
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		sstub, isStub := types.DecodeConflictStub(sraw)
		if !isStub {
			continue
		}
		if IsTraceable(current, sstub.BlockIndex, maxTraceable) {
			return true, nil
		}
	}
	return false, nil
}

// OnPersist writes BLOCK_HASH[index], BLOCK[hash] (trimmed), TX[tx.hash]
// for every transaction, and the conflict-record bookkeeping for every
// Conflicts attribute. It must be called once per height, strictly before
// PostPersist for the same height.
func (l *Ledger) OnPersist(block types.Block) error {
	hash := l.BlockHash(block.Header)
	txHashes := make([]types.UInt256, len(block.Transactions))

	var items []collab.BatchItem
	items = append(items, collab.BatchItem{Key: blockHashKey(block.Header.Index), Value: hash.Bytes(), Op: collab.OpPut})

	for i, tx := range block.Transactions {
		txHash := l.TransactionHash(tx)
		txHashes[i] = txHash
		record := types.PersistedTransactionState{Transaction: tx, BlockIndex: block.Header.Index}
		items = append(items, collab.BatchItem{Key: txKey(txHash), Value: encodeTxRecord(record), Op: collab.OpPut})

		for _, conflictHash := range tx.ConflictHashes() {
			items = append(items, collab.BatchItem{
				Key:   txKey(conflictHash),
				Value: types.EncodeConflictStub(block.Header.Index),
				Op:    collab.OpPut,
			})
			for _, signer := range tx.SignerAccounts() {
				items = append(items, collab.BatchItem{
					Key:   txConflictBySignerKey(conflictHash, signer),
					Value: types.EncodeConflictStub(block.Header.Index),
					Op:    collab.OpPut,
				})
			}
		}

		if attrs := tx.ConflictAttributes(); attrs.HasOracleResponse {
			items = append(items, collab.BatchItem{
				Key:   oracleResponseStorageKey(attrs.OracleResponseID).Bytes(),
				Value: codec.AppendU32LE(nil, block.Header.Index),
				Op:    collab.OpPut,
			})
		}
	}

	trimmed := types.TrimmedBlock{Header: block.Header, TxHashes: txHashes}
	items = append(items, collab.BatchItem{Key: blockKey(hash), Value: encodeTrimmedBlock(trimmed), Op: collab.OpPut})

	return l.store.PutBatch(items)
}

// PostPersist updates CURRENT_BLOCK to point at block. Deferred VM-state
// updates captured during block execution are flushed by the caller before
// this is invoked; the ledger has no visibility into VM state beyond what
// OnPersist already wrote.
func (l *Ledger) PostPersist(block types.Block) error {
	hash := l.BlockHash(block.Header)
	item := collab.BatchItem{Key: currentBlockKey(), Value: encodeCurrentBlock(hash, block.Header.Index), Op: collab.OpPut}
	return l.store.PutBatch([]collab.BatchItem{item})
}

// BlockHash computes a block's hash as hash256 over its header fields,
// excluding witnesses.
func (l *Ledger) BlockHash(h types.BlockHeader) types.UInt256 {
	buf := make([]byte, 0, 128)
	buf = encodeHeaderSansWitness(buf, h)
	return l.hasher.Hash256(buf)
}

// TransactionHash computes a transaction's hash as hash256 over its
// non-witness fields.
func (l *Ledger) TransactionHash(tx types.Transaction) types.UInt256 {
	stripped := tx
	stripped.Witnesses = nil
	buf := encodeTransaction(nil, stripped)
	return l.hasher.Hash256(buf)
}

func encodeHeaderSansWitness(buf []byte, h types.BlockHeader) []byte {
	stripped := h
	stripped.Witnesses = nil
	return encodeHeader(buf, stripped)
}

// VerifyMerkleRoot checks invariant I1: header.merkle_root must equal the
// Merkle root of the block's transaction hashes.
func (l *Ledger) VerifyMerkleRoot(block types.Block) bool {
	leaves := make([][32]byte, len(block.Transactions))
	for i, tx := range block.Transactions {
		leaves[i] = l.TransactionHash(tx)
	}
	root := types.UInt256(l.hasher.MerkleRoot(leaves))
	return root.Equals(block.Header.MerkleRoot)
}
