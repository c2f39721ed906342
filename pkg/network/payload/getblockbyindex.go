package payload

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/io"
)

// MaxHeadersAllowed is the maximum number of blocks/headers a single
// GetBlockByIndex request may ask for.
const MaxHeadersAllowed = 2000

// GetBlockByIndex requests a contiguous run of Count blocks (or -1 for
// "as many as the responder has") starting at IndexStart.
type GetBlockByIndex struct {
	IndexStart uint32
	Count      int16
}

// NewGetBlockByIndex creates a GetBlockByIndex request for count blocks
// starting at indexStart.
func NewGetBlockByIndex(indexStart uint32, count int16) *GetBlockByIndex {
	return &GetBlockByIndex{
		IndexStart: indexStart,
		Count:      count,
	}
}

// EncodeBinary implements the io.Serializable interface.
func (p *GetBlockByIndex) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(p.IndexStart)
	w.WriteU16LE(uint16(p.Count))
}

// DecodeBinary implements the io.Serializable interface.
func (p *GetBlockByIndex) DecodeBinary(r *io.BinReader) {
	p.IndexStart = r.ReadU32LE()
	p.Count = int16(r.ReadU16LE())
	if r.Err != nil {
		return
	}
	if p.Count < -1 || p.Count == 0 || p.Count > MaxHeadersAllowed {
		r.Err = errors.New("payload: invalid block count in GetBlockByIndex")
	}
}
