package storage

import (
	"bytes"
	"sort"
	"sync"
)

// MemCachedStore is a write-back cache layered on top of a persistent
// Store: Put/Delete only touch the in-memory overlay until Persist or
// PersistSync flushes the accumulated change set down to the lower
// store in one batch.
type MemCachedStore struct {
	MemoryStore

	// plock serializes Persist/PersistSync calls against each other. A
	// private store is only ever touched by a single owner at a time
	// (e.g. a DAO's per-block working cache), so it skips this lock.
	plock   sync.RWMutex
	private bool

	del map[string]bool
	ps  Store
}

// NewMemCachedStore creates a cache on top of lower.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return newMemCachedStore(lower, false)
}

// NewPrivateMemCachedStore creates a cache on top of lower that assumes
// exclusive ownership: callers are responsible for not calling Persist
// concurrently with other operations.
func NewPrivateMemCachedStore(lower Store) *MemCachedStore {
	return newMemCachedStore(lower, true)
}

func newMemCachedStore(lower Store, private bool) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: MemoryStore{mem: make(map[string][]byte)},
		del:         make(map[string]bool),
		ps:          lower,
		private:     private,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	v, ok := s.mem[string(key)]
	deleted := s.del[string(key)]
	s.mut.RUnlock()
	if ok {
		return v, nil
	}
	if deleted {
		return nil, ErrKeyNotFound
	}
	return s.ps.Get(key)
}

// Put implements the Store interface.
func (s *MemCachedStore) Put(key, value []byte) error {
	vc := bytes.Clone(value)
	s.mut.Lock()
	s.mem[string(key)] = vc
	delete(s.del, string(key))
	s.mut.Unlock()
	return nil
}

// Delete implements the Store interface.
func (s *MemCachedStore) Delete(key []byte) error {
	s.mut.Lock()
	delete(s.mem, string(key))
	s.del[string(key)] = true
	s.mut.Unlock()
	return nil
}

// PutChangeSet implements the Store interface, applying the change set
// directly to this store's own overlay (not the lower store).
func (s *MemCachedStore) PutChangeSet(put map[string][]byte, del map[string][]byte) error {
	s.mut.Lock()
	for k, v := range put {
		s.mem[k] = v
		delete(s.del, k)
	}
	for k := range del {
		delete(s.mem, k)
		s.del[k] = true
	}
	s.mut.Unlock()
	return nil
}

// GetBatch returns the pending change set, annotating every entry with
// whether the key already exists in the lower store.
func (s *MemCachedStore) GetBatch() *MemBatch {
	s.mut.RLock()
	defer s.mut.RUnlock()

	b := &MemBatch{
		Put:     make([]KeyValueExists, 0, len(s.mem)),
		Deleted: make([]KeyValueExists, 0, len(s.del)),
	}
	for k, v := range s.mem {
		_, err := s.ps.Get([]byte(k))
		b.Put = append(b.Put, KeyValueExists{
			KeyValue: KeyValue{Key: []byte(k), Value: v},
			Exists:   err == nil,
		})
	}
	for k := range s.del {
		_, err := s.ps.Get([]byte(k))
		b.Deleted = append(b.Deleted, KeyValueExists{
			KeyValue: KeyValue{Key: []byte(k)},
			Exists:   err == nil,
		})
	}
	return b
}

// Persist flushes the accumulated change set to the lower store.
func (s *MemCachedStore) Persist() (int, error) {
	return s.persist()
}

// PersistSync is Persist's synchronous counterpart; this implementation
// has no asynchronous path, so the two are equivalent.
func (s *MemCachedStore) PersistSync() (int, error) {
	return s.persist()
}

func (s *MemCachedStore) persist() (int, error) {
	if !s.private {
		s.plock.Lock()
		defer s.plock.Unlock()
	}

	s.mut.Lock()
	if len(s.mem) == 0 && len(s.del) == 0 {
		s.mut.Unlock()
		return 0, nil
	}
	put := make(map[string][]byte, len(s.mem))
	for k, v := range s.mem {
		put[k] = v
	}
	del := make(map[string][]byte, len(s.del))
	for k := range s.del {
		del[k] = nil
	}
	s.mut.Unlock()

	err := s.ps.PutChangeSet(put, del)
	if err != nil {
		return 0, err
	}

	s.mut.Lock()
	for k, v := range put {
		if cur, ok := s.mem[k]; ok && bytes.Equal(cur, v) {
			delete(s.mem, k)
		}
	}
	for k := range del {
		delete(s.del, k)
	}
	s.mut.Unlock()

	return len(put) + len(del), nil
}

// Seek implements the Store interface, merging the local overlay with
// the lower store's contents (local Put/Delete take precedence).
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	prefix := rng.Prefix
	lowBound := append(append([]byte{}, prefix...), rng.Start...)
	matches := func(k []byte) bool {
		if len(k) < len(prefix) || !bytes.Equal(k[:len(prefix)], prefix) {
			return false
		}
		if rng.Backwards {
			if len(rng.Start) > 0 && bytesCompare(k, lowBound) > 0 {
				return false
			}
			return true
		}
		return bytesCompare(k, lowBound) >= 0
	}

	s.mut.RLock()
	local := make(map[string][]byte)
	deleted := make(map[string]bool)
	for k, v := range s.mem {
		if matches([]byte(k)) {
			local[k] = v
		}
	}
	for k := range s.del {
		if matches([]byte(k)) {
			deleted[k] = true
		}
	}
	s.mut.RUnlock()

	merged := make(map[string][]byte)
	s.ps.Seek(SeekRange{Prefix: rng.Prefix, Start: rng.Start, Backwards: rng.Backwards}, func(k, v []byte) bool {
		merged[string(k)] = bytes.Clone(v)
		return true
	})
	for k, v := range local {
		merged[k] = v
	}
	for k := range deleted {
		delete(merged, k)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	cmp := getCmpFunc(rng.Backwards)
	sort.Slice(keys, func(i, j int) bool {
		return cmp([]byte(keys[i]), []byte(keys[j])) < 0
	})
	for _, k := range keys {
		if !f([]byte(k), merged[k]) {
			break
		}
	}
}

// SeekGC implements the Store interface by seeking over the merged view
// and tombstoning every entry the keep callback rejects.
func (s *MemCachedStore) SeekGC(rng SeekRange, keep func(k, v []byte) bool) error {
	var drop [][]byte
	s.Seek(rng, func(k, v []byte) bool {
		if !keep(k, v) {
			drop = append(drop, bytes.Clone(k))
		}
		return true
	})
	for _, k := range drop {
		s.Delete(k)
	}
	return nil
}

// Close implements the Store interface, discarding the local overlay.
// The lower store's lifecycle is the caller's responsibility.
func (s *MemCachedStore) Close() error {
	s.mut.Lock()
	s.mem = make(map[string][]byte)
	s.del = make(map[string]bool)
	s.mut.Unlock()
	return nil
}
