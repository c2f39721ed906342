package state

import (
	"encoding/json"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// MPTRoot is a single entry in the state root chain: the root hash of the
// Merkle-Patricia trie committing to the whole blockchain's state as of
// Index, together with the witnesses authorizing it.
type MPTRoot struct {
	Version byte
	Index   uint32
	Root    util.Uint256
	Witness []transaction.Witness
}

// EncodeBinary implements the io.Serializable interface.
func (s *MPTRoot) EncodeBinary(w *io.BinWriter) {
	w.WriteB(s.Version)
	w.WriteU32LE(s.Index)
	w.WriteBytes(s.Root.BytesBE())
	w.WriteArray(s.Witness)
}

// DecodeBinary implements the io.Serializable interface.
func (s *MPTRoot) DecodeBinary(r *io.BinReader) {
	s.Version = r.ReadB()
	s.Index = r.ReadU32LE()
	var rootBytes [util.Uint256Size]byte
	r.ReadBytes(rootBytes[:])
	if r.Err != nil {
		return
	}
	root, err := util.Uint256DecodeBytesBE(rootBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	s.Root = root
	s.Witness = nil
	r.ReadArray(&s.Witness)
}

// mptRootAux is MPTRoot's JSON shape.
type mptRootAux struct {
	Version byte                  `json:"version"`
	Index   uint32                `json:"index"`
	Root    util.Uint256          `json:"roothash"`
	Witness []transaction.Witness `json:"witnesses,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface.
func (s MPTRoot) MarshalJSON() ([]byte, error) {
	return json.Marshal(mptRootAux{
		Version: s.Version,
		Index:   s.Index,
		Root:    s.Root,
		Witness: s.Witness,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *MPTRoot) UnmarshalJSON(data []byte) error {
	var aux mptRootAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Version = aux.Version
	s.Index = aux.Index
	s.Root = aux.Root
	s.Witness = aux.Witness
	return nil
}
