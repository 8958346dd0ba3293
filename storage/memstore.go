package storage

import (
	"sort"
	"sync"

	"neonode.dev/core/collab"
)

// MemStore is an in-memory collab.Store, used in tests in place of a real
// bbolt database.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemStore) PutBatch(items []collab.BatchItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		switch item.Op {
		case collab.OpPut:
			m.data[string(item.Key)] = append([]byte(nil), item.Value...)
		case collab.OpDelete:
			delete(m.data, string(item.Key))
		}
	}
	return nil
}

func (m *MemStore) Seek(prefix []byte, dir collab.SeekDirection, yield func(collab.KVPair) bool) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if hasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	if dir == collab.SeekBackward {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	for _, k := range keys {
		m.mu.RLock()
		v, ok := m.data[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if !yield(collab.KVPair{Key: []byte(k), Value: append([]byte(nil), v...)}) {
			return nil
		}
	}
	return nil
}

func (m *MemStore) Close() error { return nil }
