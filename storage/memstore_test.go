package storage

import (
	"testing"

	"neonode.dev/core/collab"
)

func TestMemStorePutGetDelete(t *testing.T) {
	m := NewMemStore()
	if _, ok, err := m.Get([]byte("k")); err != nil || ok {
		t.Fatalf("expected initial miss, ok=%v err=%v", ok, err)
	}
	if err := m.PutBatch([]collab.BatchItem{{Key: []byte("k"), Value: []byte("v"), Op: collab.OpPut}}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	v, ok, err := m.Get([]byte("k"))
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := m.PutBatch([]collab.BatchItem{{Key: []byte("k"), Op: collab.OpDelete}}); err != nil {
		t.Fatalf("PutBatch delete: %v", err)
	}
	if _, ok, _ := m.Get([]byte("k")); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemStoreSeekForwardOrder(t *testing.T) {
	m := NewMemStore()
	if err := m.PutBatch([]collab.BatchItem{
		{Key: []byte("b"), Value: []byte("2"), Op: collab.OpPut},
		{Key: []byte("a"), Value: []byte("1"), Op: collab.OpPut},
		{Key: []byte("c"), Value: []byte("3"), Op: collab.OpPut},
	}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	var got []string
	err := m.Seek(nil, collab.SeekForward, func(kv collab.KVPair) bool {
		got = append(got, string(kv.Key))
		return true
	})
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("Seek order = %v, want %v", got, want)
		}
	}
}

func TestMemStoreSeekBackwardOrder(t *testing.T) {
	m := NewMemStore()
	if err := m.PutBatch([]collab.BatchItem{
		{Key: []byte("a"), Value: []byte("1"), Op: collab.OpPut},
		{Key: []byte("b"), Value: []byte("2"), Op: collab.OpPut},
		{Key: []byte("c"), Value: []byte("3"), Op: collab.OpPut},
	}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	var got []string
	err := m.Seek(nil, collab.SeekBackward, func(kv collab.KVPair) bool {
		got = append(got, string(kv.Key))
		return true
	})
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	want := []string{"c", "b", "a"}
	for i, k := range want {
		if got[i] != k {
			t.Fatalf("Seek backward order = %v, want %v", got, want)
		}
	}
}

func TestMemStoreSeekPrefixFilters(t *testing.T) {
	m := NewMemStore()
	if err := m.PutBatch([]collab.BatchItem{
		{Key: []byte("x1"), Value: []byte("1"), Op: collab.OpPut},
		{Key: []byte("x2"), Value: []byte("2"), Op: collab.OpPut},
		{Key: []byte("y1"), Value: []byte("3"), Op: collab.OpPut},
	}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	var got []string
	err := m.Seek([]byte("x"), collab.SeekForward, func(kv collab.KVPair) bool {
		got = append(got, string(kv.Key))
		return true
	})
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 keys under prefix x, got %v", got)
	}
}

func TestMemStoreSeekStopsEarly(t *testing.T) {
	m := NewMemStore()
	if err := m.PutBatch([]collab.BatchItem{
		{Key: []byte("a"), Value: []byte("1"), Op: collab.OpPut},
		{Key: []byte("b"), Value: []byte("2"), Op: collab.OpPut},
	}); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	count := 0
	err := m.Seek(nil, collab.SeekForward, func(kv collab.KVPair) bool {
		count++
		return false
	})
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected Seek to stop after first yield, got %d calls", count)
	}
}
