package consensus

import (
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// prepareResponse is sent by a validator that accepts the current round's
// proposed block, carrying its hash for the proposer to match against the
// prepareRequest it sent.
type prepareResponse struct {
	preparationHash util.Uint256
}

// PreparationHash returns the hash of the block p's sender is accepting.
func (p *prepareResponse) PreparationHash() util.Uint256 { return p.preparationHash }

// SetPreparationHash sets the hash of the block p's sender is accepting.
func (p *prepareResponse) SetPreparationHash(h util.Uint256) { p.preparationHash = h }

// EncodeBinary implements the io.Serializable interface.
func (p *prepareResponse) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(p.preparationHash.BytesBE())
}

// DecodeBinary implements the io.Serializable interface.
func (p *prepareResponse) DecodeBinary(r *io.BinReader) {
	var b [util.Uint256Size]byte
	r.ReadBytes(b[:])
	if r.Err != nil {
		return
	}
	h, err := util.Uint256DecodeBytesBE(b[:])
	if err != nil {
		r.Err = err
		return
	}
	p.preparationHash = h
}
