package payload

import (
	"time"

	"github.com/neocorelabs/neo-core/pkg/config/netmode"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/network/capability"
)

// MaxUserAgentLength is the maximum length the UserAgent string may have.
const MaxUserAgentLength = 1024

// Version is the payload of the handshake's first message: it tells the
// peer which network we're on, what software we run, our current height
// and which services we offer.
type Version struct {
	Magic        netmode.Magic
	Version      uint32
	Timestamp    uint32
	Nonce        uint32
	UserAgent    []byte
	Capabilities capability.Capabilities
}

// NewVersion creates a Version payload advertising the given capability
// list (e.g. a FullNode capability carrying the local height, plus a
// TCPServer/WSServer capability for every listener the node exposes).
func NewVersion(magic netmode.Magic, nonce uint32, userAgent string, caps capability.Capabilities) *Version {
	return &Version{
		Magic:        magic,
		Version:      0,
		Timestamp:    uint32(time.Now().Unix()),
		Nonce:        nonce,
		UserAgent:    []byte(userAgent),
		Capabilities: caps,
	}
}

// EncodeBinary implements the io.Serializable interface.
func (v *Version) EncodeBinary(br *io.BinWriter) {
	br.WriteU32LE(uint32(v.Magic))
	br.WriteU32LE(v.Version)
	br.WriteU32LE(v.Timestamp)
	br.WriteU32LE(v.Nonce)
	br.WriteVarBytes(v.UserAgent)
	v.Capabilities.EncodeBinary(br)
}

// DecodeBinary implements the io.Serializable interface.
func (v *Version) DecodeBinary(br *io.BinReader) {
	v.Magic = netmode.Magic(br.ReadU32LE())
	v.Version = br.ReadU32LE()
	v.Timestamp = br.ReadU32LE()
	v.Nonce = br.ReadU32LE()
	v.UserAgent = br.ReadVarBytes(MaxUserAgentLength)
	if br.Err != nil {
		return
	}
	v.Capabilities.DecodeBinary(br)
}
