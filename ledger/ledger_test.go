package ledger

import (
	"testing"

	"neonode.dev/core/cryptoimpl"
	"neonode.dev/core/storage"
	"neonode.dev/core/types"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return Open(storage.NewMemStore(), cryptoimpl.Provider{})
}

func blockAt(index uint32, prev types.UInt256, txs []types.Transaction, l *Ledger) types.Block {
	leaves := make([][32]byte, len(txs))
	for i, tx := range txs {
		leaves[i] = l.TransactionHash(tx)
	}
	root := types.UInt256(cryptoimpl.Provider{}.MerkleRoot(leaves))
	header := types.BlockHeader{
		Version:    0,
		PrevHash:   prev,
		MerkleRoot: root,
		Timestamp:  uint64(index) * 15000,
		Index:      index,
	}
	return types.Block{Header: header, Transactions: txs}
}

func persist(t *testing.T, l *Ledger, block types.Block) {
	t.Helper()
	if err := l.OnPersist(block); err != nil {
		t.Fatalf("OnPersist(%d): %v", block.Header.Index, err)
	}
	if err := l.PostPersist(block); err != nil {
		t.Fatalf("PostPersist(%d): %v", block.Header.Index, err)
	}
}

func TestLedgerGenesisBootstrap(t *testing.T) {
	l := newTestLedger(t)
	if err := l.EnsureGenesis(GenesisParams{Network: 860833102}); err != nil {
		t.Fatalf("EnsureGenesis: %v", err)
	}
	idx, ok, err := l.CurrentIndex()
	if err != nil || !ok {
		t.Fatalf("CurrentIndex: ok=%v err=%v", ok, err)
	}
	if idx != 0 {
		t.Fatalf("CurrentIndex = %d, want 0", idx)
	}
	// Second call is a no-op: current index stays 0, not re-bootstrapped.
	if err := l.EnsureGenesis(GenesisParams{Network: 860833102}); err != nil {
		t.Fatalf("EnsureGenesis (second call): %v", err)
	}
	idx2, _, _ := l.CurrentIndex()
	if idx2 != 0 {
		t.Fatalf("CurrentIndex after repeat EnsureGenesis = %d, want 0", idx2)
	}
}

func TestLedgerOnPersistThenGetBlockRehydratesTransactions(t *testing.T) {
	l := newTestLedger(t)
	tx := types.Transaction{Version: 0, Nonce: 1, Script: []byte{0x51}}
	block := blockAt(1, types.UInt256Zero, []types.Transaction{tx}, l)
	persist(t, l, block)

	hash := l.BlockHash(block.Header)
	got, ok, err := l.GetBlock(ByHash(hash), 2102400)
	if err != nil || !ok {
		t.Fatalf("GetBlock: ok=%v err=%v", ok, err)
	}
	if len(got.Transactions) != 1 {
		t.Fatalf("len(Transactions) = %d, want 1", len(got.Transactions))
	}
	if !l.VerifyMerkleRoot(got) {
		t.Fatal("rehydrated block fails merkle root verification (I1)")
	}

	byIdx, ok, err := l.GetBlock(ByIndex(1), 2102400)
	if err != nil || !ok {
		t.Fatalf("GetBlock(ByIndex): ok=%v err=%v", ok, err)
	}
	if !l.BlockHash(byIdx.Header).Equals(hash) {
		t.Fatal("GetBlock(ByIndex) returned a different block than GetBlock(ByHash)")
	}
}

func TestLedgerContainsTransactionFalseForConflictStub(t *testing.T) {
	l := newTestLedger(t)
	victim := types.Transaction{Version: 0, Nonce: 1, Script: []byte{0x51}}
	victimHash := l.TransactionHash(victim)

	signer := types.UInt160{0x01}
	declarer := types.Transaction{
		Version: 0, Nonce: 2, Script: []byte{0x52},
		Signers:    []types.Signer{{Account: signer}},
		Attributes: []types.TransactionAttribute{{Kind: types.AttrConflicts, ConflictsHash: victimHash}},
	}
	block := blockAt(1, types.UInt256Zero, []types.Transaction{declarer}, l)
	persist(t, l, block)

	ok, err := l.ContainsTransaction(victimHash)
	if err != nil {
		t.Fatalf("ContainsTransaction: %v", err)
	}
	if ok {
		t.Fatal("a conflict stub must not report as a contained transaction")
	}

	ok, err = l.ContainsTransaction(l.TransactionHash(declarer))
	if err != nil || !ok {
		t.Fatalf("ContainsTransaction(declarer) = %v, %v, want true, nil", ok, err)
	}
}

// S5 — traceability boundary.
func TestLedgerTraceabilityBoundary(t *testing.T) {
	l := newTestLedger(t)
	prev := types.UInt256Zero
	var last types.Block
	for i := uint32(0); i <= 15; i++ {
		b := blockAt(i, prev, nil, l)
		persist(t, l, b)
		prev = l.BlockHash(b.Header)
		if i == 5 {
			last = b
		}
	}
	hashAt5 := l.BlockHash(last.Header)

	// current height is 15; block 5 traceable iff 5 + max > 15.
	if IsTraceable(15, 5, 10) {
		t.Fatal("IsTraceable(15, 5, 10) should be false: 5+10=15, not > 15")
	}
	if !IsTraceable(14, 5, 10) {
		t.Fatal("IsTraceable(14, 5, 10) should be true: 5+10=15 > 14")
	}

	// max_traceable=10, block 5 persisted, current height 15: 5+10=15, not
	// > 15, so GetBlock reports it absent even though it is physically
	// still on disk.
	_, ok, err := l.GetBlock(ByHash(hashAt5), 10)
	if err != nil || ok {
		t.Fatalf("GetBlock(hashAt5, max=10) = ok=%v err=%v, want ok=false: block 5 is outside the traceability window at height 15", ok, err)
	}

	// Widening the window back to where 5+max > 15 makes it visible again.
	got, ok, err := l.GetBlock(ByHash(hashAt5), 11)
	if err != nil || !ok {
		t.Fatalf("GetBlock(hashAt5, max=11): ok=%v err=%v, want true", ok, err)
	}
	if got.Header.Index != 5 {
		t.Fatalf("Header.Index = %d, want 5", got.Header.Index)
	}

	// GetTrimmedBlock enforces the same boundary.
	if _, ok, _ := l.GetTrimmedBlock(ByIndex(5), 10); ok {
		t.Fatal("GetTrimmedBlock(ByIndex(5), max=10) should also be gated by traceability")
	}
}

// P7 — conflict symmetry: a persisted Conflicts declaration is visible via
// ContainsConflictHash for as long as it remains traceable.
func TestLedgerContainsConflictHashSymmetry(t *testing.T) {
	l := newTestLedger(t)
	victim := types.Transaction{Version: 0, Nonce: 9, Script: []byte{0x53}}
	victimHash := l.TransactionHash(victim)
	signer := types.UInt160{0xaa}

	declarer := types.Transaction{
		Version: 0, Nonce: 10, Script: []byte{0x54},
		Signers:    []types.Signer{{Account: signer}},
		Attributes: []types.TransactionAttribute{{Kind: types.AttrConflicts, ConflictsHash: victimHash}},
	}

	prev := types.UInt256Zero
	for i := uint32(0); i <= 3; i++ {
		var txs []types.Transaction
		if i == 2 {
			txs = []types.Transaction{declarer}
		}
		b := blockAt(i, prev, txs, l)
		persist(t, l, b)
		prev = l.BlockHash(b.Header)
	}

	ok, err := l.ContainsConflictHash(victimHash, []types.UInt160{signer}, 100)
	if err != nil {
		t.Fatalf("ContainsConflictHash: %v", err)
	}
	if !ok {
		t.Fatal("expected conflict hash to be detected while traceable")
	}

	ok, err = l.ContainsConflictHash(victimHash, []types.UInt160{{0xbb}}, 100)
	if err != nil {
		t.Fatalf("ContainsConflictHash (wrong signer): %v", err)
	}
	if ok {
		t.Fatal("a signer that never declared the conflict must not match")
	}

	// Narrow the traceability window past the declaring block (index 2,
	// current index 3): 2 + max(=1) = 3, not > 3.
	ok, err = l.ContainsConflictHash(victimHash, []types.UInt160{signer}, 1)
	if err != nil {
		t.Fatalf("ContainsConflictHash (narrow window): %v", err)
	}
	if ok {
		t.Fatal("conflict should no longer be traceable outside the window")
	}
}

// TransactionAttributes and ContainsConsumedOracleResponse back the
// admission oracle's NotValidBefore / Oracle-response-id conflict
// predicates (§4.C step 3).
func TestLedgerTransactionAttributesAndOracleResponseBookkeeping(t *testing.T) {
	l := newTestLedger(t)
	plain := types.Transaction{Version: 0, Nonce: 1, Script: []byte{0x51}}
	withNVB := types.Transaction{
		Version: 0, Nonce: 2, Script: []byte{0x52},
		Attributes: []types.TransactionAttribute{{Kind: types.AttrNotValidBefore, NotValidBeforeHeight: 100}},
	}
	withOracle := types.Transaction{
		Version: 0, Nonce: 3, Script: []byte{0x53},
		Attributes: []types.TransactionAttribute{{Kind: types.AttrOracleResponse, OracleID: 7}},
	}
	block := blockAt(1, types.UInt256Zero, []types.Transaction{plain, withNVB, withOracle}, l)
	persist(t, l, block)

	attrs, ok, err := l.TransactionAttributes(l.TransactionHash(plain))
	if err != nil || !ok {
		t.Fatalf("TransactionAttributes(plain): ok=%v err=%v", ok, err)
	}
	if attrs.HasNotValidBefore || attrs.HasOracleResponse {
		t.Fatalf("plain tx attrs = %+v, want neither set", attrs)
	}

	attrs, ok, err = l.TransactionAttributes(l.TransactionHash(withNVB))
	if err != nil || !ok {
		t.Fatalf("TransactionAttributes(withNVB): ok=%v err=%v", ok, err)
	}
	if !attrs.HasNotValidBefore || attrs.NotValidBeforeHeight != 100 {
		t.Fatalf("withNVB attrs = %+v, want HasNotValidBefore=true height=100", attrs)
	}

	attrs, ok, err = l.TransactionAttributes(l.TransactionHash(withOracle))
	if err != nil || !ok {
		t.Fatalf("TransactionAttributes(withOracle): ok=%v err=%v", ok, err)
	}
	if !attrs.HasOracleResponse || attrs.OracleResponseID != 7 {
		t.Fatalf("withOracle attrs = %+v, want HasOracleResponse=true id=7", attrs)
	}

	consumed, err := l.ContainsConsumedOracleResponse(7)
	if err != nil || !consumed {
		t.Fatalf("ContainsConsumedOracleResponse(7) = %v, %v, want true, nil", consumed, err)
	}
	consumed, err = l.ContainsConsumedOracleResponse(8)
	if err != nil || consumed {
		t.Fatalf("ContainsConsumedOracleResponse(8) = %v, %v, want false, nil", consumed, err)
	}

	_, ok, err = l.TransactionAttributes(types.UInt256{0xff})
	if err != nil || ok {
		t.Fatalf("TransactionAttributes(unknown) = ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestLedgerContainsBlock(t *testing.T) {
	l := newTestLedger(t)
	b := blockAt(0, types.UInt256Zero, nil, l)
	persist(t, l, b)
	hash := l.BlockHash(b.Header)

	ok, err := l.ContainsBlock(hash)
	if err != nil || !ok {
		t.Fatalf("ContainsBlock = %v, %v, want true, nil", ok, err)
	}
	ok, err = l.ContainsBlock(types.UInt256{0xff})
	if err != nil || ok {
		t.Fatalf("ContainsBlock(unknown) = %v, %v, want false, nil", ok, err)
	}
}
