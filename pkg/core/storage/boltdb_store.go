package storage

import (
	"bytes"

	"go.etcd.io/bbolt"

	"github.com/neocorelabs/neo-core/pkg/core/storage/dbconfig"
)

var boltBucket = []byte("neo-core")

// BoltDBStore is a Store backed by a single bbolt bucket.
type BoltDBStore struct {
	db *bbolt.DB
}

// NewBoltDBStore opens (creating if absent) the bbolt database at
// cfg.FilePath.
func NewBoltDBStore(cfg dbconfig.BoltDBOptions) (*BoltDBStore, error) {
	db, err := bbolt.Open(cfg.FilePath, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *BoltDBStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v != nil {
			value = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// Put implements the Store interface.
func (s *BoltDBStore) Put(key, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

// Delete implements the Store interface.
func (s *BoltDBStore) Delete(key []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

// PutChangeSet implements the Store interface.
func (s *BoltDBStore) PutChangeSet(put map[string][]byte, del map[string][]byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		for k, v := range put {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		for k := range del {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Seek implements the Store interface.
func (s *BoltDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	lowBound := append(append([]byte{}, rng.Prefix...), rng.Start...)
	matches := func(k []byte) bool {
		if len(k) < len(rng.Prefix) || !bytes.Equal(k[:len(rng.Prefix)], rng.Prefix) {
			return false
		}
		if rng.Backwards {
			return len(rng.Start) == 0 || bytesCompare(k, lowBound) <= 0
		}
		return bytesCompare(k, lowBound) >= 0
	}

	type kv struct{ k, v []byte }
	var items []kv
	_ = s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.Seek(rng.Prefix); k != nil && len(k) >= len(rng.Prefix) && bytes.Equal(k[:len(rng.Prefix)], rng.Prefix); k, v = c.Next() {
			if matches(k) {
				items = append(items, kv{bytes.Clone(k), bytes.Clone(v)})
			}
		}
		return nil
	})

	if rng.Backwards {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	for _, it := range items {
		if !f(it.k, it.v) {
			break
		}
	}
}

// SeekGC implements the Store interface.
func (s *BoltDBStore) SeekGC(rng SeekRange, keep func(k, v []byte) bool) error {
	var drop [][]byte
	s.Seek(rng, func(k, v []byte) bool {
		if !keep(k, v) {
			drop = append(drop, bytes.Clone(k))
		}
		return true
	})
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		for _, k := range drop {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements the Store interface.
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}
