package payload

import (
	"time"

	"github.com/neocorelabs/neo-core/pkg/io"
)

// Ping carries the sender's current height and a nonce, used for the
// periodic keep-alive exchange and RTT/height discovery between peers.
type Ping struct {
	LastBlockIndex uint32
	Nonce          uint32
	Timestamp      uint32
}

// NewPing creates a Ping payload for the given height and nonce, stamped
// with the current time.
func NewPing(blockIndex uint32, nonce uint32) *Ping {
	return &Ping{
		LastBlockIndex: blockIndex,
		Nonce:          nonce,
		Timestamp:      uint32(time.Now().Unix()),
	}
}

// EncodeBinary implements the io.Serializable interface.
func (p *Ping) EncodeBinary(br *io.BinWriter) {
	br.WriteU32LE(p.LastBlockIndex)
	br.WriteU32LE(p.Timestamp)
	br.WriteU32LE(p.Nonce)
}

// DecodeBinary implements the io.Serializable interface.
func (p *Ping) DecodeBinary(br *io.BinReader) {
	p.LastBlockIndex = br.ReadU32LE()
	p.Timestamp = br.ReadU32LE()
	p.Nonce = br.ReadU32LE()
}
