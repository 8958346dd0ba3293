package storage

import (
	"testing"

	"neonode.dev/core/types"
)

func TestContractStoreGetMissing(t *testing.T) {
	c := NewContractStore(NewMemStore())
	key := types.StorageKey{ContractID: 1, Suffix: []byte("a")}
	_, ok, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for unwritten key")
	}
}

func TestContractStorePutGetRoundTrip(t *testing.T) {
	c := NewContractStore(NewMemStore())
	key := types.StorageKey{ContractID: 7, Suffix: []byte("balance")}
	item := types.StorageItem{Value: []byte{0x01, 0x02, 0x03}}
	if err := c.Put(key, item); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got.Value) != string(item.Value) {
		t.Fatalf("Get = %x, want %x", got.Value, item.Value)
	}
}

func TestContractStoreDelete(t *testing.T) {
	c := NewContractStore(NewMemStore())
	key := types.StorageKey{ContractID: 3, Suffix: []byte("x")}
	if err := c.Put(key, types.StorageItem{Value: []byte("v")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss after delete")
	}
}

func TestContractStoreFindScopesToContract(t *testing.T) {
	c := NewContractStore(NewMemStore())
	entries := []types.StorageKey{
		{ContractID: 1, Suffix: []byte("a")},
		{ContractID: 1, Suffix: []byte("b")},
		{ContractID: 2, Suffix: []byte("a")},
	}
	for _, k := range entries {
		if err := c.Put(k, types.StorageItem{Value: []byte("v")}); err != nil {
			t.Fatalf("Put(%v): %v", k, err)
		}
	}

	var seen []string
	err := c.Find(1, func(k types.StorageKey, item types.StorageItem) bool {
		seen = append(seen, string(k.Suffix))
		if k.ContractID != 1 {
			t.Fatalf("Find(1, ...) yielded a key from contract %d", k.ContractID)
		}
		return true
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 entries for contract 1, got %v", seen)
	}
}

func TestContractStoreFindStopsEarly(t *testing.T) {
	c := NewContractStore(NewMemStore())
	for _, suffix := range []string{"a", "b", "c"} {
		key := types.StorageKey{ContractID: 9, Suffix: []byte(suffix)}
		if err := c.Put(key, types.StorageItem{Value: []byte("v")}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	count := 0
	err := c.Find(9, func(k types.StorageKey, item types.StorageItem) bool {
		count++
		return false
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected Find to stop after first entry, visited %d", count)
	}
}
