package consensus

import "github.com/neocorelabs/neo-core/pkg/io"

// recoveryRequest is sent by a validator joining or rejoining a round,
// asking its peers to resend the messages it missed.
type recoveryRequest struct {
	timestamp uint64
}

// Timestamp returns the nanosecond-precision time the request was
// created, reconstructed from the millisecond value carried on the wire.
func (m *recoveryRequest) Timestamp() uint64 {
	return m.timestamp * nsInMs
}

// EncodeBinary implements the io.Serializable interface.
func (m *recoveryRequest) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(m.timestamp)
}

// DecodeBinary implements the io.Serializable interface.
func (m *recoveryRequest) DecodeBinary(r *io.BinReader) {
	m.timestamp = r.ReadU64LE()
}
