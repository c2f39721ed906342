// Package capability defines the node capabilities advertised in a peer's
// Version handshake payload: what transports it listens on and whether it
// keeps full history.
package capability

import (
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/io"
)

// Type identifies the kind of capability a single entry carries.
type Type byte

// Known capability types. Types at or above Reserved may appear more than
// once in a single list; every other type must be unique.
const (
	TCPServerType Type = 0x01
	WSServerType  Type = 0x02
	FullNodeType  Type = 0x10
	ArchivalType  Type = 0x11
	Reserved      Type = 0xf0
)

// Capability is a single advertised capability entry.
type Capability interface {
	CapabilityType() Type
}

// Unknown is the fallback representation for a capability type this node
// doesn't recognize: it preserves the type and a single reserved payload
// byte so the entry round-trips without the caller needing to understand
// it.
type Unknown struct {
	Type byte
	Data byte
}

// CapabilityType implements the Capability interface.
func (u *Unknown) CapabilityType() Type { return Type(u.Type) }

// EncodeBinary implements the io.Serializable interface.
func (u *Unknown) EncodeBinary(w *io.BinWriter) {
	w.WriteB(u.Type)
	w.WriteB(u.Data)
}

// DecodeBinary implements the io.Serializable interface.
func (u *Unknown) DecodeBinary(r *io.BinReader) {
	u.Type = r.ReadB()
	u.Data = r.ReadB()
}

// Archival marks a node that keeps the full block/transaction archive
// rather than pruning it.
type Archival struct{}

// CapabilityType implements the Capability interface.
func (*Archival) CapabilityType() Type { return ArchivalType }

// EncodeBinary implements the io.Serializable interface.
func (*Archival) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(nil)
}

// DecodeBinary implements the io.Serializable interface.
func (*Archival) DecodeBinary(r *io.BinReader) {
	data := r.ReadVarBytes()
	if r.Err != nil {
		return
	}
	if len(data) != 0 {
		r.Err = fmt.Errorf("capability: non-empty Archival payload")
	}
}

// TCPServer advertises a plain TCP P2P listener on Port.
type TCPServer struct {
	Port uint16
}

// CapabilityType implements the Capability interface.
func (*TCPServer) CapabilityType() Type { return TCPServerType }

// EncodeBinary implements the io.Serializable interface.
func (s *TCPServer) EncodeBinary(w *io.BinWriter) { w.WriteU16BE(s.Port) }

// DecodeBinary implements the io.Serializable interface.
func (s *TCPServer) DecodeBinary(r *io.BinReader) { s.Port = r.ReadU16BE() }

// WSServer advertises a WebSocket P2P listener on Port.
type WSServer struct {
	Port uint16
}

// CapabilityType implements the Capability interface.
func (*WSServer) CapabilityType() Type { return WSServerType }

// EncodeBinary implements the io.Serializable interface.
func (s *WSServer) EncodeBinary(w *io.BinWriter) { w.WriteU16BE(s.Port) }

// DecodeBinary implements the io.Serializable interface.
func (s *WSServer) DecodeBinary(r *io.BinReader) { s.Port = r.ReadU16BE() }

// FullNode marks a node that serves the full chain starting at height
// StartHeight, as opposed to a light client.
type FullNode struct {
	StartHeight uint32
}

// CapabilityType implements the Capability interface.
func (*FullNode) CapabilityType() Type { return FullNodeType }

// EncodeBinary implements the io.Serializable interface.
func (n *FullNode) EncodeBinary(w *io.BinWriter) { w.WriteU32LE(n.StartHeight) }

// DecodeBinary implements the io.Serializable interface.
func (n *FullNode) DecodeBinary(r *io.BinReader) { n.StartHeight = r.ReadU32LE() }

// Capabilities is the capability list carried by a Version payload.
type Capabilities []Capability

// EncodeBinary implements the io.Serializable interface.
func (cs Capabilities) EncodeBinary(w *io.BinWriter) {
	w.WriteVarUint(uint64(len(cs)))
	for _, c := range cs {
		w.WriteB(byte(c.CapabilityType()))
		switch v := c.(type) {
		case *TCPServer:
			v.EncodeBinary(w)
		case *WSServer:
			v.EncodeBinary(w)
		case *FullNode:
			v.EncodeBinary(w)
		case *Archival:
			v.EncodeBinary(w)
		case *Unknown:
			w.WriteB(v.Data)
		default:
			w.SetError(fmt.Errorf("capability: unexpected type %T", c))
		}
	}
}

// DecodeBinary implements the io.Serializable interface.
func (cs *Capabilities) DecodeBinary(r *io.BinReader) {
	l := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	list := make(Capabilities, l)
	seen := make(map[Type]bool, l)
	for i := range list {
		typ := Type(r.ReadB())
		if r.Err != nil {
			return
		}
		if typ < Reserved {
			if seen[typ] {
				r.Err = fmt.Errorf("capability: duplicate capability type %x", byte(typ))
				return
			}
			seen[typ] = true
		}

		var c Capability
		switch typ {
		case TCPServerType:
			s := new(TCPServer)
			s.DecodeBinary(r)
			c = s
		case WSServerType:
			s := new(WSServer)
			s.DecodeBinary(r)
			c = s
		case FullNodeType:
			n := new(FullNode)
			n.DecodeBinary(r)
			c = n
		case ArchivalType:
			a := new(Archival)
			a.DecodeBinary(r)
			c = a
		default:
			c = &Unknown{Type: byte(typ), Data: r.ReadB()}
		}
		if r.Err != nil {
			return
		}
		list[i] = c
	}
	*cs = list
}
