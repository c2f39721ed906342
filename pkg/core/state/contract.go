package state

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/nef"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/emit"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Contract holds everything the management contract persists about a
// deployed contract: its id, the number of times it has been updated, its
// script hash, compiled executable and manifest.
type Contract struct {
	ID            int32
	UpdateCounter uint16
	Hash          util.Uint160
	NEF           nef.File
	Manifest      manifest.Manifest
}

// NativeContract wraps Contract with the block indexes at which the
// native contract's schema went through an on-chain update, so clients
// can tell which version of the contract was active at a given height.
type NativeContract struct {
	Contract
	UpdateHistory []uint32
}

// contractAux is Contract's JSON shape.
type contractAux struct {
	ID            int32             `json:"id"`
	UpdateCounter uint16            `json:"updatecounter"`
	Hash          util.Uint160      `json:"hash"`
	NEF           nef.File          `json:"nef"`
	Manifest      manifest.Manifest `json:"manifest"`
}

// MarshalJSON implements the json.Marshaler interface.
func (c Contract) MarshalJSON() ([]byte, error) {
	return json.Marshal(contractAux{
		ID:            c.ID,
		UpdateCounter: c.UpdateCounter,
		Hash:          c.Hash,
		NEF:           c.NEF,
		Manifest:      c.Manifest,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *Contract) UnmarshalJSON(data []byte) error {
	var aux contractAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ID = aux.ID
	c.UpdateCounter = aux.UpdateCounter
	c.Hash = aux.Hash
	c.NEF = aux.NEF
	c.Manifest = aux.Manifest
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (c *Contract) EncodeBinary(w *io.BinWriter) {
	item, err := c.ToStackItem()
	if err != nil {
		w.SetError(err)
		return
	}
	stackitem.EncodeBinary(item, w)
}

// DecodeBinary implements the io.Serializable interface.
func (c *Contract) DecodeBinary(r *io.BinReader) {
	item := stackitem.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	r.Err = c.FromStackItem(item)
}

// ToStackItem converts c to a VM stack item.
func (c *Contract) ToStackItem() (stackitem.Item, error) {
	rawManifest, err := json.Marshal(c.Manifest)
	if err != nil {
		return nil, err
	}
	rawNef, err := c.NEF.Bytes()
	if err != nil {
		return nil, err
	}
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewBigInteger(big.NewInt(int64(c.ID))),
		stackitem.NewBigInteger(big.NewInt(int64(c.UpdateCounter))),
		stackitem.NewByteArray(c.Hash.BytesBE()),
		stackitem.NewByteArray(rawNef),
		stackitem.NewByteArray(rawManifest),
	}), nil
}

// FromStackItem fills c from a VM stack item produced by ToStackItem.
func (c *Contract) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("state: Contract stackitem is not an array")
	}
	if len(arr) != 5 {
		return errors.New("state: invalid Contract stackitem length")
	}

	id, ok := arr[0].Value().(*big.Int)
	if !ok {
		return errors.New("state: Contract id is not an integer")
	}
	if !id.IsInt64() || id.Int64() > math.MaxInt32 || id.Int64() < math.MinInt32 {
		return errors.New("state: Contract id out of int32 range")
	}
	c.ID = int32(id.Int64())

	counter, ok := arr[1].Value().(*big.Int)
	if !ok {
		return errors.New("state: Contract update counter is not an integer")
	}
	if !counter.IsInt64() || counter.Int64() > math.MaxUint16 || counter.Int64() < 0 {
		return errors.New("state: Contract update counter out of uint16 range")
	}
	c.UpdateCounter = uint16(counter.Int64())

	hashBytes, ok := arr[2].Value().([]byte)
	if !ok {
		return errors.New("state: Contract hash is not a byte string")
	}
	h, err := util.Uint160DecodeBytesBE(hashBytes)
	if err != nil {
		return err
	}
	c.Hash = h

	nefBytes, ok := arr[3].Value().([]byte)
	if !ok {
		return errors.New("state: Contract nef is not a byte string")
	}
	n, err := nef.FileFromBytes(nefBytes)
	if err != nil {
		return err
	}
	c.NEF = n

	manifestBytes, ok := arr[4].Value().([]byte)
	if !ok {
		return errors.New("state: Contract manifest is not a byte string")
	}
	var m manifest.Manifest
	if err := json.Unmarshal(manifestBytes, &m); err != nil {
		return err
	}
	c.Manifest = m

	return nil
}

// createContractHashFromScript derives the script hash a contract deployed
// by sender with the given script receives: RIPEMD160(SHA256(ABORT ++
// PUSHDATA(sender) ++ PUSHDATA(script))), matching the unforgeable script a
// verification attempt against the contract's own hash would have to
// reproduce.
func createContractHashFromScript(sender util.Uint160, script []byte) util.Uint160 {
	w := io.NewBufBinWriter()
	emit.Opcodes(w.BinWriter, opcode.ABORT)
	emit.Bytes(w.BinWriter, sender.BytesBE())
	emit.Bytes(w.BinWriter, script)
	if w.Err != nil {
		panic(w.Err)
	}
	return hash.Hash160(w.Bytes())
}

// CreateContractHashableScript builds the script whose hash identifies a
// contract deployed by sender, with the deployed NEF's checksum and the
// manifest name folded in so that redeploying the same bytecode under a
// different name or by a different sender yields a different address.
func CreateContractHashableScript(sender util.Uint160, checksum uint32, name string) []byte {
	w := io.NewBufBinWriter()
	emit.Opcodes(w.BinWriter, opcode.ABORT)
	emit.Bytes(w.BinWriter, sender.BytesBE())
	emit.Int(w.BinWriter, int64(checksum))
	emit.String(w.BinWriter, name)
	if w.Err != nil {
		panic(w.Err)
	}
	return w.Bytes()
}

// CreateContractHash derives the script hash a contract deployed by sender,
// with the given NEF checksum and manifest name, receives.
func CreateContractHash(sender util.Uint160, checksum uint32, name string) util.Uint160 {
	return hash.Hash160(CreateContractHashableScript(sender, checksum, name))
}
