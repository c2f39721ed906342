// Package dao provides the storage-backed data access layer the blockchain
// core persists its state through: blocks, transactions, contract storage,
// contract state, execution results and the handful of system counters
// (current height, schema version, state-sync progress) kept alongside them.
package dao

import (
	"encoding/binary"
	"errors"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/trigger"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// Entity kind markers for a DataExecutable record.
const (
	entityNone        byte = 0
	entityTransaction byte = 1
	entityBlock       byte = 2
	entityConflict    byte = 3
)

// ErrAlreadyExists is returned by HasTransaction when the queried hash
// belongs to a transaction already stored.
var ErrAlreadyExists = errors.New("dao: transaction already exists")

// ErrHasConflicts is returned by HasTransaction when the queried hash was
// declared as conflicting by an already-stored transaction's Conflicts
// attribute.
var ErrHasConflicts = errors.New("dao: conflicting transaction exists")

// DAO is the interface shared by Simple and Cached, letting callers use a
// plain or write-cached data layer interchangeably.
type DAO interface {
	GetAndDecode(entity io.Serializable, key []byte) error
	Put(entity io.Serializable, key []byte) error

	PutStorageItem(id int32, key []byte, si *state.StorageItem) error
	GetStorageItem(id int32, key []byte) *state.StorageItem
	DeleteStorageItem(id int32, key []byte) error
	Seek(id int32, rng storage.SeekRange, f func(k, v []byte) bool)

	GetBlock(hash util.Uint256) (*block.Block, error)
	GetBlockHash(index uint32) (util.Uint256, error)
	StoreAsBlock(b *block.Block, buf *io.BufBinWriter) error
	StoreAsCurrentBlock(b *block.Block, buf *io.BufBinWriter) error
	GetCurrentBlockHeight() (uint32, error)

	GetTransaction(hash util.Uint256) (*transaction.Transaction, uint32, error)
	StoreAsTransaction(tx *transaction.Transaction, index uint32, buf *io.BufBinWriter) error
	HasTransaction(hash util.Uint256) error

	AppendAppExecResult(aer *state.AppExecResult, buf *io.BufBinWriter) error
	GetAppExecResults(hash util.Uint256, trig trigger.Type) ([]state.AppExecResult, error)

	GetContractState(hash util.Uint160) (*state.Contract, error)
	PutContractState(cs *state.Contract) error
	DeleteContractState(hash util.Uint160) error

	GetVersion() (Version, error)
	PutVersion(v Version) error

	GetStateSyncPoint() (uint32, error)
	PutStateSyncPoint(p uint32) error
	GetStateSyncCurrentBlockHeight() (uint32, error)
	PutStateSyncCurrentBlockHeight(h uint32) error

	Persist() (int, error)
	GetWrapped() DAO
	GetPrivate() DAO
}

// Simple is the base DAO implementation: every call goes straight to Store,
// a private write-back cache layered over whatever backend was given to
// NewSimple.
type Simple struct {
	Store             storage.Store
	stateRootInHeader bool
	p2pSigExtensions  bool
}

// NewSimple creates a DAO over backend, with a private MemCachedStore
// overlay so writes can be staged and Persist-ed in one batch.
func NewSimple(backend storage.Store, stateRootInHeader, p2pSigExtensions bool) *Simple {
	return &Simple{
		Store:             storage.NewPrivateMemCachedStore(backend),
		stateRootInHeader: stateRootInHeader,
		p2pSigExtensions:  p2pSigExtensions,
	}
}

// GetWrapped returns a new Simple sharing this one's settings, with a fresh
// private cache layered on top of its Store.
func (dao *Simple) GetWrapped() DAO {
	return &Simple{
		Store:             storage.NewPrivateMemCachedStore(dao.Store),
		stateRootInHeader: dao.stateRootInHeader,
		p2pSigExtensions:  dao.p2pSigExtensions,
	}
}

// GetPrivate returns a new Simple with a fresh private cache layered on top
// of this one's Store, the same private-overlay mechanism GetWrapped uses.
func (dao *Simple) GetPrivate() DAO {
	return dao.GetWrapped()
}

// Persist flushes this DAO's cache to its underlying store.
func (dao *Simple) Persist() (int, error) {
	mc, ok := dao.Store.(*storage.MemCachedStore)
	if !ok {
		return 0, errors.New("dao: Store is not cached, nothing to persist")
	}
	return mc.Persist()
}

// Put serializes entity and stores it verbatim under key.
func (dao *Simple) Put(entity io.Serializable, key []byte) error {
	w := io.NewBufBinWriter()
	entity.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	return dao.Store.Put(key, w.Bytes())
}

// GetAndDecode reads key and decodes it into entity.
func (dao *Simple) GetAndDecode(entity io.Serializable, key []byte) error {
	data, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	r := io.NewBinReaderFromBuf(data)
	entity.DecodeBinary(r)
	return r.Err
}

// makeStorageItemKey builds a contract storage key: prefix, the contract's
// 4-byte little-endian id, then the raw item key.
func makeStorageItemKey(prefix storage.KeyPrefix, id int32, key []byte) []byte {
	b := make([]byte, 5+len(key))
	b[0] = byte(prefix)
	binary.LittleEndian.PutUint32(b[1:5], uint32(id))
	copy(b[5:], key)
	return b
}

// PutStorageItem stores si under the given contract id and key.
func (dao *Simple) PutStorageItem(id int32, key []byte, si *state.StorageItem) error {
	w := io.NewBufBinWriter()
	si.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	return dao.Store.Put(makeStorageItemKey(storage.STStorage, id, key), w.Bytes())
}

// GetStorageItem returns the stored item for id/key, or nil if absent.
func (dao *Simple) GetStorageItem(id int32, key []byte) *state.StorageItem {
	data, err := dao.Store.Get(makeStorageItemKey(storage.STStorage, id, key))
	if err != nil {
		return nil
	}
	si := &state.StorageItem{}
	r := io.NewBinReaderFromBuf(data)
	si.DecodeBinary(r)
	if r.Err != nil {
		return nil
	}
	return si
}

// DeleteStorageItem removes the stored item for id/key.
func (dao *Simple) DeleteStorageItem(id int32, key []byte) error {
	return dao.Store.Delete(makeStorageItemKey(storage.STStorage, id, key))
}

// Seek iterates, in key order, over every item stored under id whose key
// has the given prefix. f is called with the id/prefix stripped back off
// the key; iteration stops early once f returns false.
func (dao *Simple) Seek(id int32, rng storage.SeekRange, f func(k, v []byte) bool) {
	prefix := makeStorageItemKey(storage.STStorage, id, rng.Prefix)
	dao.Store.Seek(storage.SeekRange{Prefix: prefix, Backwards: rng.Backwards}, func(k, v []byte) bool {
		return f(k[len(prefix):], v)
	})
}

// containerRecord is the on-disk shape of a DataExecutable entry: an
// optional transaction/block payload plus any app execution results
// recorded against the same hash.
type containerRecord struct {
	Marker  byte
	Index   uint32
	Payload []byte
	Execs   [][]byte
}

func (r *containerRecord) EncodeBinary(w *io.BinWriter) {
	w.WriteB(r.Marker)
	w.WriteU32LE(r.Index)
	w.WriteVarBytes(r.Payload)
	w.WriteVarUint(uint64(len(r.Execs)))
	for _, e := range r.Execs {
		w.WriteVarBytes(e)
	}
}

func (r *containerRecord) DecodeBinary(br *io.BinReader) {
	r.Marker = br.ReadB()
	r.Index = br.ReadU32LE()
	r.Payload = br.ReadVarBytes()
	count := br.ReadVarUint()
	if br.Err != nil {
		return
	}
	execs := make([][]byte, count)
	for i := range execs {
		execs[i] = br.ReadVarBytes()
	}
	r.Execs = execs
}

func executableKey(hash util.Uint256) []byte {
	return append(storage.DataExecutable.Bytes(), hash.BytesBE()...)
}

func (dao *Simple) getContainerRecord(hash util.Uint256) (*containerRecord, error) {
	data, err := dao.Store.Get(executableKey(hash))
	if err != nil {
		return nil, err
	}
	rec := &containerRecord{}
	r := io.NewBinReaderFromBuf(data)
	rec.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return rec, nil
}

func (dao *Simple) putContainerRecord(hash util.Uint256, rec *containerRecord) error {
	w := io.NewBufBinWriter()
	rec.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	return dao.Store.Put(executableKey(hash), w.Bytes())
}

// StoreAsTransaction stores tx, indexed by the block index that included
// it, preserving any app execution results already recorded against its
// hash. When p2pSigExtensions is enabled, every hash tx's Conflicts
// attributes name is marked so HasTransaction reports it as conflicting.
func (dao *Simple) StoreAsTransaction(tx *transaction.Transaction, index uint32, buf *io.BufBinWriter) error {
	hash := tx.Hash()
	rec, err := dao.getContainerRecord(hash)
	if err != nil {
		rec = &containerRecord{}
	}
	rec.Marker = entityTransaction
	rec.Index = index
	rec.Payload = tx.Bytes()
	if err := dao.putContainerRecord(hash, rec); err != nil {
		return err
	}

	if !dao.p2pSigExtensions {
		return nil
	}
	for _, attr := range tx.Attributes {
		conflicts, ok := attr.Value.(*transaction.Conflicts)
		if !ok {
			continue
		}
		if _, err := dao.getContainerRecord(conflicts.Hash); err == nil {
			continue
		}
		if err := dao.putContainerRecord(conflicts.Hash, &containerRecord{Marker: entityConflict}); err != nil {
			return err
		}
	}
	return nil
}

// GetTransaction returns the stored transaction for hash along with the
// index of the block that included it.
func (dao *Simple) GetTransaction(hash util.Uint256) (*transaction.Transaction, uint32, error) {
	rec, err := dao.getContainerRecord(hash)
	if err != nil {
		return nil, 0, err
	}
	if rec.Marker != entityTransaction {
		return nil, 0, errors.New("dao: hash does not identify a transaction")
	}
	tx, err := transaction.NewTransactionFromBytes(rec.Payload)
	if err != nil {
		return nil, 0, err
	}
	return tx, rec.Index, nil
}

// HasTransaction reports whether hash is already occupied by a stored
// transaction (ErrAlreadyExists) or marked as conflicting by one
// (ErrHasConflicts), returning nil if it's free.
func (dao *Simple) HasTransaction(hash util.Uint256) error {
	rec, err := dao.getContainerRecord(hash)
	if err != nil {
		return nil
	}
	switch rec.Marker {
	case entityTransaction:
		return ErrAlreadyExists
	case entityConflict:
		return ErrHasConflicts
	default:
		return nil
	}
}

func blockIndexKey(index uint32) []byte {
	b := make([]byte, 5)
	b[0] = byte(storage.IXHeaderHashList)
	binary.LittleEndian.PutUint32(b[1:], index)
	return b
}

// StoreAsBlock stores b, preserving any app execution results already
// recorded against its hash, and indexes its hash by block index.
func (dao *Simple) StoreAsBlock(b *block.Block, buf *io.BufBinWriter) error {
	hash := b.Hash()
	rec, err := dao.getContainerRecord(hash)
	if err != nil {
		rec = &containerRecord{}
	}
	w := io.NewBufBinWriter()
	b.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	rec.Marker = entityBlock
	rec.Index = b.Index
	rec.Payload = w.Bytes()
	if err := dao.putContainerRecord(hash, rec); err != nil {
		return err
	}
	return dao.Store.Put(blockIndexKey(b.Index), hash.BytesBE())
}

// GetBlockHash returns the hash of the block stored at the given index.
func (dao *Simple) GetBlockHash(index uint32) (util.Uint256, error) {
	data, err := dao.Store.Get(blockIndexKey(index))
	if err != nil {
		return util.Uint256{}, err
	}
	return util.Uint256DecodeBytesBE(data)
}

// StoreAsCurrentBlock stores b and marks it as the chain's current tip.
func (dao *Simple) StoreAsCurrentBlock(b *block.Block, buf *io.BufBinWriter) error {
	if err := dao.StoreAsBlock(b, buf); err != nil {
		return err
	}
	h := b.Hash()
	val := make([]byte, util.Uint256Size+4)
	copy(val, h.BytesBE())
	binary.LittleEndian.PutUint32(val[util.Uint256Size:], b.Index)
	return dao.Store.Put(storage.SYSCurrentBlock.Bytes(), val)
}

// GetBlock returns the stored block for hash.
func (dao *Simple) GetBlock(hash util.Uint256) (*block.Block, error) {
	rec, err := dao.getContainerRecord(hash)
	if err != nil {
		return nil, err
	}
	if rec.Marker != entityBlock {
		return nil, errors.New("dao: hash does not identify a block")
	}
	b := &block.Block{}
	r := io.NewBinReaderFromBuf(rec.Payload)
	b.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return b, nil
}

// GetCurrentBlockHeight returns the index of the chain's current tip.
func (dao *Simple) GetCurrentBlockHeight() (uint32, error) {
	data, err := dao.Store.Get(storage.SYSCurrentBlock.Bytes())
	if err != nil {
		return 0, err
	}
	if len(data) < util.Uint256Size+4 {
		return 0, errors.New("dao: malformed current block record")
	}
	return binary.LittleEndian.Uint32(data[util.Uint256Size:]), nil
}

// AppendAppExecResult records aer as the newest execution result for its
// Container hash.
func (dao *Simple) AppendAppExecResult(aer *state.AppExecResult, buf *io.BufBinWriter) error {
	rec, err := dao.getContainerRecord(aer.Container)
	if err != nil {
		rec = &containerRecord{}
	}
	w := io.NewBufBinWriter()
	aer.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	rec.Execs = append(rec.Execs, w.Bytes())
	return dao.putContainerRecord(aer.Container, rec)
}

// GetAppExecResults returns every execution result recorded for hash whose
// Trigger matches trig (trigger.All matches everything).
func (dao *Simple) GetAppExecResults(hash util.Uint256, trig trigger.Type) ([]state.AppExecResult, error) {
	rec, err := dao.getContainerRecord(hash)
	if err != nil {
		return nil, err
	}
	res := make([]state.AppExecResult, 0, len(rec.Execs))
	for _, data := range rec.Execs {
		aer := state.AppExecResult{}
		r := io.NewBinReaderFromBuf(data)
		aer.DecodeBinary(r)
		if r.Err != nil {
			return nil, r.Err
		}
		if trig == trigger.All || aer.Trigger == trig {
			res = append(res, aer)
		}
	}
	return res, nil
}

func contractKey(hash util.Uint160) []byte {
	return append(storage.STContract.Bytes(), hash.BytesBE()...)
}

// GetContractState returns the stored contract state for hash.
func (dao *Simple) GetContractState(hash util.Uint160) (*state.Contract, error) {
	data, err := dao.Store.Get(contractKey(hash))
	if err != nil {
		return nil, err
	}
	cs := &state.Contract{}
	r := io.NewBinReaderFromBuf(data)
	cs.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return cs, nil
}

// PutContractState stores cs, keyed by its Hash.
func (dao *Simple) PutContractState(cs *state.Contract) error {
	w := io.NewBufBinWriter()
	cs.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	return dao.Store.Put(contractKey(cs.Hash), w.Bytes())
}

// DeleteContractState removes the stored contract state for hash.
func (dao *Simple) DeleteContractState(hash util.Uint160) error {
	return dao.Store.Delete(contractKey(hash))
}

// GetVersion returns the database schema version record.
func (dao *Simple) GetVersion() (Version, error) {
	data, err := dao.Store.Get(storage.SYSVersion.Bytes())
	if err != nil {
		return Version{}, err
	}
	return versionFromBytes(data)
}

// PutVersion stores the database schema version record.
func (dao *Simple) PutVersion(v Version) error {
	return dao.Store.Put(storage.SYSVersion.Bytes(), v.bytes())
}

func (dao *Simple) getUint32(prefix storage.KeyPrefix) (uint32, error) {
	data, err := dao.Store.Get(prefix.Bytes())
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, errors.New("dao: malformed uint32 record")
	}
	return binary.LittleEndian.Uint32(data), nil
}

func (dao *Simple) putUint32(prefix storage.KeyPrefix, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return dao.Store.Put(prefix.Bytes(), b)
}

// GetStateSyncPoint returns the state-sync target height.
func (dao *Simple) GetStateSyncPoint() (uint32, error) {
	return dao.getUint32(storage.SYSStateSyncPoint)
}

// PutStateSyncPoint stores the state-sync target height.
func (dao *Simple) PutStateSyncPoint(p uint32) error {
	return dao.putUint32(storage.SYSStateSyncPoint, p)
}

// GetStateSyncCurrentBlockHeight returns the state-sync progress marker.
func (dao *Simple) GetStateSyncCurrentBlockHeight() (uint32, error) {
	return dao.getUint32(storage.SYSStateSyncCurrentBlockHeight)
}

// PutStateSyncCurrentBlockHeight stores the state-sync progress marker.
func (dao *Simple) PutStateSyncCurrentBlockHeight(h uint32) error {
	return dao.putUint32(storage.SYSStateSyncCurrentBlockHeight, h)
}
