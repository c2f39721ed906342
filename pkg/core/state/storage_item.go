// Package state defines the on-chain state records the blockchain's DAO
// layer persists: account balances, contract metadata, storage contents,
// NEP token tracking, oracle requests, consensus parameters and the rest
// of the per-block/per-contract state a full node keeps.
package state

import (
	"github.com/neocorelabs/neo-core/pkg/io"
)

// StorageItem is the value half of a contract storage key/value pair.
type StorageItem struct {
	Value []byte
}

// EncodeBinary implements the io.Serializable interface.
func (i *StorageItem) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(i.Value)
}

// DecodeBinary implements the io.Serializable interface.
func (i *StorageItem) DecodeBinary(r *io.BinReader) {
	i.Value = r.ReadVarBytes()
}
