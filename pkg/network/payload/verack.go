package payload

import "github.com/neocorelabs/neo-core/pkg/io"

// Verack acknowledges a received and accepted Version payload, completing
// the handshake. It carries no data.
type Verack struct{}

// EncodeBinary implements the io.Serializable interface.
func (*Verack) EncodeBinary(*io.BinWriter) {}

// DecodeBinary implements the io.Serializable interface.
func (*Verack) DecodeBinary(*io.BinReader) {}
