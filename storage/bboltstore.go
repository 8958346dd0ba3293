package storage

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"neonode.dev/core/collab"
)

var rootBucket = []byte("kv")

// BoltStore implements collab.Store over a single bbolt bucket keyed by
// the caller's raw byte-prefix key layout (ledger, storage cache, and
// anything else writing through this store share one flat namespace).
type BoltStore struct {
	chainDir string
	db       *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt-backed store for the given
// network magic under datadir.
func OpenBolt(datadir string, magic uint32) (*BoltStore, error) {
	if datadir == "" {
		return nil, fmt.Errorf("storage: datadir required")
	}
	chainDir := ChainDir(datadir, magic)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "kv.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bbolt: %w", err)
	}

	if err := bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	return &BoltStore{chainDir: chainDir, db: bdb}, nil
}

func (s *BoltStore) ChainDir() string { return s.chainDir }

func (s *BoltStore) Get(key []byte) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(rootBucket).Get(key)
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

func (s *BoltStore) PutBatch(items []collab.BatchItem) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket)
		for _, item := range items {
			switch item.Op {
			case collab.OpPut:
				if err := b.Put(item.Key, item.Value); err != nil {
					return err
				}
			case collab.OpDelete:
				if err := b.Delete(item.Key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *BoltStore) Seek(prefix []byte, dir collab.SeekDirection, yield func(collab.KVPair) bool) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(rootBucket).Cursor()

		advance := c.Next
		var k, v []byte
		if dir == collab.SeekBackward {
			advance = c.Prev
			k, v = seekLastWithPrefix(c, prefix)
		} else {
			k, v = c.Seek(prefix)
		}

		for ; k != nil && hasPrefix(k, prefix); k, v = advance() {
			if !yield(collab.KVPair{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)}) {
				return nil
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// seekLastWithPrefix positions c at the last key with the given prefix by
// seeking to the first key past the prefix range and stepping back once.
func seekLastWithPrefix(c *bolt.Cursor, prefix []byte) ([]byte, []byte) {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			upper = upper[:i+1]
			k, _ := c.Seek(upper)
			if k == nil {
				return c.Last()
			}
			return c.Prev()
		}
	}
	return c.Last()
}
