// Package storage provides a key-value abstraction over the node's
// persistent backends (BoltDB, LevelDB, or an in-memory map), plus a
// MemCachedStore overlay used to batch writes during block persistence.
package storage

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/core/storage/dboper"
)

// KeyPrefix is a storage context prefix, prepended to every key so that
// distinct subsystems (contract storage, MPT nodes, block index, ...)
// can share the same flat keyspace without colliding.
type KeyPrefix byte

// Key prefixes used throughout the blockchain store.
const (
	// DataExecutable is a prefix for storing executables (blocks, transactions).
	DataExecutable KeyPrefix = 0x01
	// DataMPT is used for MPT node entries identified by their hash.
	DataMPT KeyPrefix = 0x03
	// STAccount is used for account states.
	STAccount KeyPrefix = 0x40
	// STContract is used for deployed contract state entries.
	STContract KeyPrefix = 0x50
	// STStorage is used for contract storage items.
	STStorage KeyPrefix = 0x70
	// STTempStorage is used for temporary (to-be-batched) contract storage items.
	STTempStorage KeyPrefix = 0x71
	// STNEP11Transfers is used for NEP-11 transfer log entries.
	STNEP11Transfers KeyPrefix = 0x72
	// STNEP17Transfers is used for NEP-17 transfer log entries.
	STNEP17Transfers KeyPrefix = 0x73
	// STTokenTransferInfo is used for the per-account NEP-17/NEP-11 transfer counters.
	STTokenTransferInfo KeyPrefix = 0x74
	// STContractID is used for the deployed-contract id index.
	STContractID KeyPrefix = 0x75
	// IXHeaderHashList is used for batches of 2000 header hashes.
	IXHeaderHashList KeyPrefix = 0x80
	// SYSCurrentBlock is used for the current block hash/height entry.
	SYSCurrentBlock KeyPrefix = 0xc0
	// SYSCurrentHeader is used for the current header hash/height entry.
	SYSCurrentHeader KeyPrefix = 0xc1
	// SYSStateSyncCurrentBlockHeight is used for the state-sync point marker.
	SYSStateSyncCurrentBlockHeight KeyPrefix = 0xc2
	// SYSStateSyncPoint is used for the state-sync target height.
	SYSStateSyncPoint KeyPrefix = 0xc3
	// SYSStateJumpStage is used to track an in-progress state jump.
	SYSStateJumpStage KeyPrefix = 0xc4
	// SYSVersion is used for the database schema version entry.
	SYSVersion KeyPrefix = 0xf0
)

// Bytes returns the prefix as a single-byte slice, for building storage keys.
func (p KeyPrefix) Bytes() []byte { return []byte{byte(p)} }

// ErrKeyNotFound is returned by Store.Get when the requested key is absent.
var ErrKeyNotFound = errors.New("key not found")

// Store is the common interface every storage backend implements.
type Store interface {
	Batch
	Get([]byte) ([]byte, error)
	// PutChangeSet atomically applies put and del; values in put are
	// keyed by raw key string, del holds only the keys to remove (its
	// values, if any, are ignored).
	PutChangeSet(put map[string][]byte, del map[string][]byte) error
	Seek(rng SeekRange, f func(k, v []byte) bool)
	// SeekGC behaves like Seek, but f additionally controls whether the
	// visited pair is retained (true) or deleted (false) as part of a
	// garbage-collection pass, letting backends that support it do so
	// without a separate delete pass.
	SeekGC(rng SeekRange, keep func(k, v []byte) bool) error
	Close() error
}

// Batch is a minimal single-operation write interface, shared by Store
// and the MemCachedStore overlay built on top of it.
type Batch interface {
	Put(k, v []byte) error
	Delete(k []byte) error
}

// KeyValue is a simple (key, value) pair.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// KeyValueExists is a KeyValue with a flag noting whether the key was
// already present in the underlying persistent store, used to tell an
// overwrite ("Changed") from a fresh insertion ("Added").
type KeyValueExists struct {
	KeyValue
	Exists bool
}

// SeekRange describes a Seek/SeekGC range: every key with prefix Prefix,
// optionally only those ordered after (or, if Backwards, before) the key
// Prefix+Start.
type SeekRange struct {
	Prefix    []byte
	Start     []byte
	Backwards bool
}

// MemBatch is the change set accumulated by a MemCachedStore, ready to
// be applied to (or reported as a diff against) the underlying store.
type MemBatch struct {
	Put     []KeyValueExists
	Deleted []KeyValueExists
}

// BatchToOperations converts a MemBatch into a flat list of applied
// contract storage operations (entries outside the STStorage prefix,
// e.g. MPT nodes, are not contract-visible and are skipped), stripping
// the leading key-prefix byte and collapsing Put entries into
// "Added"/"Changed" based on Exists.
func BatchToOperations(b *MemBatch) []dboper.Operation {
	ops := make([]dboper.Operation, 0, len(b.Put)+len(b.Deleted))
	for _, kv := range b.Put {
		if len(kv.Key) == 0 || kv.Key[0] != byte(STStorage) {
			continue
		}
		state := "Added"
		if kv.Exists {
			state = "Changed"
		}
		ops = append(ops, dboper.Operation{
			State: state,
			Key:   kv.Key[1:],
			Value: kv.Value,
		})
	}
	for _, kv := range b.Deleted {
		if !kv.Exists || len(kv.Key) == 0 || kv.Key[0] != byte(STStorage) {
			continue
		}
		ops = append(ops, dboper.Operation{
			State: "Deleted",
			Key:   kv.Key[1:],
		})
	}
	return ops
}

// getCmpFunc returns the byte-slice comparator Seek should sort results
// with: ascending normally, descending when iterating backwards.
func getCmpFunc(backwards bool) func(a, b []byte) int {
	if backwards {
		return func(a, b []byte) int {
			return bytesCompare(b, a)
		}
	}
	return bytesCompare
}

func bytesCompare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
