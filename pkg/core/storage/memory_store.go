package storage

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store, backed by a map
// guarded by a RWMutex. It never persists anything to disk.
type MemoryStore struct {
	mut sync.RWMutex
	mem map[string][]byte
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mem: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	v, ok := s.mem[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

// Put implements the Store interface.
func (s *MemoryStore) Put(key, value []byte) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.mem[string(key)] = value
	return nil
}

// Delete implements the Store interface.
func (s *MemoryStore) Delete(key []byte) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	delete(s.mem, string(key))
	return nil
}

// PutChangeSet implements the Store interface.
func (s *MemoryStore) PutChangeSet(put map[string][]byte, del map[string][]byte) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	for k, v := range put {
		s.mem[k] = v
	}
	for k := range del {
		delete(s.mem, k)
	}
	return nil
}

// Seek implements the Store interface.
func (s *MemoryStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	keys, values := s.seekKVs(rng)
	s.mut.RUnlock()
	for i := range keys {
		if !f(keys[i], values[i]) {
			break
		}
	}
}

// SeekGC implements the Store interface.
func (s *MemoryStore) SeekGC(rng SeekRange, keep func(k, v []byte) bool) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	keys, values := s.seekKVsUnlocked(rng)
	for i := range keys {
		if !keep(keys[i], values[i]) {
			delete(s.mem, string(keys[i]))
		}
	}
	return nil
}

func (s *MemoryStore) seekKVs(rng SeekRange) ([][]byte, [][]byte) {
	return s.seekKVsUnlocked(rng)
}

func (s *MemoryStore) seekKVsUnlocked(rng SeekRange) ([][]byte, [][]byte) {
	prefix := append(append([]byte{}, rng.Prefix...))
	lowBound := append(append([]byte{}, prefix...), rng.Start...)

	var keys [][]byte
	for k := range s.mem {
		kb := []byte(k)
		if len(kb) < len(prefix) || string(kb[:len(prefix)]) != string(prefix) {
			continue
		}
		if rng.Backwards {
			if len(rng.Start) > 0 && bytesCompare(kb, lowBound) > 0 {
				continue
			}
		} else if bytesCompare(kb, lowBound) < 0 {
			continue
		}
		keys = append(keys, kb)
	}

	cmp := getCmpFunc(rng.Backwards)
	sort.Slice(keys, func(i, j int) bool {
		return cmp(keys[i], keys[j]) < 0
	})

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = s.mem[string(k)]
	}
	return keys, values
}

// Close implements the Store interface.
func (s *MemoryStore) Close() error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.mem = make(map[string][]byte)
	return nil
}
