package network

import (
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/network/payload"
)

// CommandType represents the command encoded in a message's header, telling
// the receiver how to decode the payload that follows.
type CommandType byte

// Recognized commands. TX/Block/Extensible deliberately share their byte
// value with the corresponding payload.InventoryType, since both describe
// the same three kinds of relayed content.
const (
	CMDVersion CommandType = 0x00
	CMDVerack  CommandType = 0x01

	CMDGetAddr CommandType = 0x10
	CMDAddr    CommandType = 0x11

	CMDPing CommandType = 0x18
	CMDPong CommandType = 0x19

	CMDGetBlockByIndex CommandType = 0x20
	CMDInv             CommandType = 0x27
	CMDGetData         CommandType = 0x28

	CMDTX         CommandType = 0x2b
	CMDBlock      CommandType = 0x2c
	CMDExtensible CommandType = 0x2e
)

// String implements the Stringer interface.
func (c CommandType) String() string {
	switch c {
	case CMDVersion:
		return "version"
	case CMDVerack:
		return "verack"
	case CMDGetAddr:
		return "getaddr"
	case CMDAddr:
		return "addr"
	case CMDPing:
		return "ping"
	case CMDPong:
		return "pong"
	case CMDGetBlockByIndex:
		return "getblockbyindex"
	case CMDInv:
		return "inv"
	case CMDGetData:
		return "getdata"
	case CMDTX:
		return "tx"
	case CMDBlock:
		return "block"
	case CMDExtensible:
		return "extensible"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(c))
	}
}

const (
	// compressedFlag marks a message whose payload was LZ4-compressed.
	compressedFlag byte = 0x1
	// compressionMinSize is the smallest raw payload size worth trying to
	// compress; below it framing overhead outweighs any gain.
	compressionMinSize = 1024
	// maxPayloadSize bounds a single message's raw (decompressed) payload.
	maxPayloadSize = 0x02000000
)

// errInvalidCommand is returned when a message header names a command this
// node doesn't recognize.
var errInvalidCommand = errors.New("network: invalid command")

// Message is a single framed unit of the wire protocol: flags, a command
// naming the payload's type, and the payload itself.
type Message struct {
	Flags   byte
	Command CommandType
	Payload io.Serializable
}

// NewMessage creates a Message carrying the given payload under cmd.
func NewMessage(cmd CommandType, p io.Serializable) *Message {
	return &Message{
		Command: cmd,
		Payload: p,
	}
}

// Bytes serializes the message to the wire: flags, command, then the
// payload framed as a length-prefixed (and possibly compressed) blob.
func (m *Message) Bytes() ([]byte, error) {
	var raw []byte
	if m.Payload != nil {
		bw := io.NewBufBinWriter()
		m.Payload.EncodeBinary(bw.BinWriter)
		if bw.Err != nil {
			return nil, bw.Err
		}
		raw = bw.Bytes()
	}

	flags := byte(0)
	body := raw
	if len(raw) > compressionMinSize {
		if compressed, err := compress(raw); err == nil && len(compressed) < len(raw) {
			flags |= compressedFlag
			body = compressed
		}
	}

	bw := io.NewBufBinWriter()
	bw.WriteB(flags)
	bw.WriteB(byte(m.Command))
	bw.WriteVarBytes(body)
	if bw.Err != nil {
		return nil, bw.Err
	}
	return bw.Bytes(), nil
}

// Decode reads a Message from r, decompressing and decoding its payload
// according to the command named in the header.
func (m *Message) Decode(r *io.BinReader) error {
	m.Flags = r.ReadB()
	m.Command = CommandType(r.ReadB())
	body := r.ReadVarBytes(maxPayloadSize)
	if r.Err != nil {
		return r.Err
	}

	raw := body
	if m.Flags&compressedFlag != 0 {
		decompressed, err := decompress(body, maxPayloadSize)
		if err != nil {
			return err
		}
		raw = decompressed
	}

	p, err := m.Command.newPayload()
	if err != nil {
		return err
	}
	m.Payload = p
	if p == nil {
		return nil
	}

	pr := io.NewBinReaderFromBuf(raw)
	p.DecodeBinary(pr)
	return pr.Err
}

// newPayload allocates the concrete Serializable this command's payload
// decodes into, or nil for commands with no payload.
func (c CommandType) newPayload() (io.Serializable, error) {
	switch c {
	case CMDVersion:
		return &payload.Version{}, nil
	case CMDVerack, CMDGetAddr:
		return nil, nil
	case CMDAddr:
		return &payload.AddressList{}, nil
	case CMDPing, CMDPong:
		return &payload.Ping{}, nil
	case CMDGetBlockByIndex:
		return &payload.GetBlockByIndex{}, nil
	case CMDInv, CMDGetData:
		return &payload.Inventory{}, nil
	case CMDTX:
		return &transaction.Transaction{}, nil
	case CMDBlock:
		return &block.Block{}, nil
	case CMDExtensible:
		return payload.NewExtensible(), nil
	default:
		return nil, errInvalidCommand
	}
}
