package storage

import (
	"bytes"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/neocorelabs/neo-core/pkg/core/storage/dbconfig"
)

// LevelDBStore is a Store backed by a goleveldb database directory.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens (creating if absent) the LevelDB database at
// cfg.DataDirectoryPath.
func NewLevelDBStore(cfg dbconfig.LevelDBOptions) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(cfg.DataDirectoryPath, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

// Get implements the Store interface.
func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return v, nil
}

// Put implements the Store interface.
func (s *LevelDBStore) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Delete implements the Store interface.
func (s *LevelDBStore) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// PutChangeSet implements the Store interface.
func (s *LevelDBStore) PutChangeSet(put map[string][]byte, del map[string][]byte) error {
	tx, err := s.db.OpenTransaction()
	if err != nil {
		return err
	}
	for k, v := range put {
		if err := tx.Put([]byte(k), v, nil); err != nil {
			tx.Discard()
			return err
		}
	}
	for k := range del {
		if err := tx.Delete([]byte(k), nil); err != nil {
			tx.Discard()
			return err
		}
	}
	return tx.Commit()
}

// Seek implements the Store interface.
func (s *LevelDBStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
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
	iter := s.db.NewIterator(util.BytesPrefix(rng.Prefix), nil)
	for iter.Next() {
		if matches(iter.Key()) {
			items = append(items, kv{bytes.Clone(iter.Key()), bytes.Clone(iter.Value())})
		}
	}
	iter.Release()

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
func (s *LevelDBStore) SeekGC(rng SeekRange, keep func(k, v []byte) bool) error {
	var drop [][]byte
	s.Seek(rng, func(k, v []byte) bool {
		if !keep(k, v) {
			drop = append(drop, bytes.Clone(k))
		}
		return true
	})
	batch := new(leveldb.Batch)
	for _, k := range drop {
		batch.Delete(k)
	}
	return s.db.Write(batch, nil)
}

// Close implements the Store interface.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
