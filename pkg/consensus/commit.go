package consensus

import "github.com/neocorelabs/neo-core/pkg/io"

// signatureSize is an RFC 6979 signature size in bytes, as a raw r||s
// pair without a leading format byte.
const signatureSize = 64

// commit is sent once a validator has collected a quorum of matching
// prepare responses for the current round, carrying its own signature
// over the proposed block.
type commit struct {
	signature [signatureSize]byte
}

// Signature returns c's signature over the proposed block.
func (c *commit) Signature() []byte {
	return c.signature[:]
}

// EncodeBinary implements the io.Serializable interface.
func (c *commit) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(c.signature[:])
}

// DecodeBinary implements the io.Serializable interface.
func (c *commit) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(c.signature[:])
}
