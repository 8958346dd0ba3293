package storage

import (
	"testing"

	"neonode.dev/core/collab"
)

func TestOpenBoltRequiresDatadir(t *testing.T) {
	if _, err := OpenBolt("", 0); err == nil {
		t.Fatal("expected error for empty datadir")
	}
}

func TestBoltStorePutGetDelete(t *testing.T) {
	s, err := OpenBolt(t.TempDir(), MagicMainNetTest)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get([]byte("k")); err != nil || ok {
		t.Fatalf("expected initial miss, ok=%v err=%v", ok, err)
	}
	if err := s.PutBatch([]collab.BatchItem{{Key: []byte("k"), Value: []byte("v"), Op: collab.OpPut}}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	v, ok, err := s.Get([]byte("k"))
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := s.PutBatch([]collab.BatchItem{{Key: []byte("k"), Op: collab.OpDelete}}); err != nil {
		t.Fatalf("PutBatch delete: %v", err)
	}
	if _, ok, _ := s.Get([]byte("k")); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestBoltStoreSeekForwardAndBackward(t *testing.T) {
	s, err := OpenBolt(t.TempDir(), MagicMainNetTest)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer s.Close()

	if err := s.PutBatch([]collab.BatchItem{
		{Key: []byte("a"), Value: []byte("1"), Op: collab.OpPut},
		{Key: []byte("b"), Value: []byte("2"), Op: collab.OpPut},
		{Key: []byte("c"), Value: []byte("3"), Op: collab.OpPut},
	}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}

	var forward []string
	if err := s.Seek(nil, collab.SeekForward, func(kv collab.KVPair) bool {
		forward = append(forward, string(kv.Key))
		return true
	}); err != nil {
		t.Fatalf("Seek forward: %v", err)
	}
	if len(forward) != 3 || forward[0] != "a" || forward[2] != "c" {
		t.Fatalf("unexpected forward order: %v", forward)
	}

	var backward []string
	if err := s.Seek(nil, collab.SeekBackward, func(kv collab.KVPair) bool {
		backward = append(backward, string(kv.Key))
		return true
	}); err != nil {
		t.Fatalf("Seek backward: %v", err)
	}
	if len(backward) != 3 || backward[0] != "c" || backward[2] != "a" {
		t.Fatalf("unexpected backward order: %v", backward)
	}
}

func TestBoltStoreChainDirLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBolt(dir, MagicMainNetTest)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	defer s.Close()
	want := ChainDir(dir, MagicMainNetTest)
	if s.ChainDir() != want {
		t.Fatalf("ChainDir() = %q, want %q", s.ChainDir(), want)
	}
}

func TestBoltStoreCloseNilSafe(t *testing.T) {
	var s *BoltStore
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil *BoltStore should be a no-op, got %v", err)
	}
}

// MagicMainNetTest is an arbitrary network magic used only to namespace
// this test's chain directory; it does not need to match any real network.
const MagicMainNetTest = 0x00c0ffee
