package payload

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// InventoryType identifies the kind of item an Inv/GetData entry refers to.
type InventoryType byte

// Recognized inventory item kinds.
const (
	TXType         InventoryType = 0x2b
	BlockType      InventoryType = 0x2c
	ExtensibleType InventoryType = 0x2e
	P2PNotaryType  InventoryType = 0x50
)

// Valid reports whether t is one of the recognized inventory kinds.
func (t InventoryType) Valid() bool {
	switch t {
	case TXType, BlockType, ExtensibleType, P2PNotaryType:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface.
func (t InventoryType) String() string {
	switch t {
	case TXType:
		return "TX"
	case BlockType:
		return "block"
	case ExtensibleType:
		return "extensible"
	case P2PNotaryType:
		return "p2pNotaryRequest"
	default:
		return "unknown"
	}
}

// MaxHashesCount is the maximum number of hashes a single Inv/GetData
// payload may carry.
const MaxHashesCount = 500

// Inventory announces (Inv) or requests (GetData) a batch of items of a
// single type, identified by hash.
type Inventory struct {
	Type   InventoryType
	Hashes []util.Uint256
}

// NewInventory creates an Inventory payload of the given type.
func NewInventory(typ InventoryType, hashes []util.Uint256) *Inventory {
	return &Inventory{
		Type:   typ,
		Hashes: hashes,
	}
}

// EncodeBinary implements the io.Serializable interface.
func (p *Inventory) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(p.Type))
	w.WriteVarUint(uint64(len(p.Hashes)))
	for _, h := range p.Hashes {
		w.WriteBytes(h.BytesBE())
	}
}

// DecodeBinary implements the io.Serializable interface.
func (p *Inventory) DecodeBinary(r *io.BinReader) {
	p.Type = InventoryType(r.ReadB())
	if r.Err != nil {
		return
	}
	if !p.Type.Valid() {
		r.Err = errors.New("payload: invalid inventory type")
		return
	}
	l := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if l == 0 || l > MaxHashesCount {
		r.Err = errors.New("payload: invalid inventory hash count")
		return
	}
	hashes := make([]util.Uint256, l)
	for i := range hashes {
		var buf [util.Uint256Size]byte
		r.ReadBytes(buf[:])
		if r.Err != nil {
			return
		}
		h, err := util.Uint256DecodeBytesBE(buf[:])
		if err != nil {
			r.Err = err
			return
		}
		hashes[i] = h
	}
	p.Hashes = hashes
}
