package consensus

import "github.com/neocorelabs/neo-core/pkg/io"

// ChangeViewReason records why a validator gave up on the current view
// and asked to move to the next one.
type ChangeViewReason byte

const (
	cvTimeout             ChangeViewReason = 0x0
	cvChangeAgreement     ChangeViewReason = 0x1
	cvTxNotFound          ChangeViewReason = 0x2
	cvTxRejectedByPolicy  ChangeViewReason = 0x3
	cvTxInvalid           ChangeViewReason = 0x4
	cvBlockRejectedByPolicy ChangeViewReason = 0x5
)

// String implements the fmt.Stringer interface.
func (r ChangeViewReason) String() string {
	switch r {
	case cvTimeout:
		return "Timeout"
	case cvChangeAgreement:
		return "ChangeAgreement"
	case cvTxNotFound:
		return "TxNotFound"
	case cvTxRejectedByPolicy:
		return "TxRejectedByPolicy"
	case cvTxInvalid:
		return "TxInvalid"
	case cvBlockRejectedByPolicy:
		return "BlockRejectedByPolicy"
	default:
		return "Unknown"
	}
}

// changeView is sent by a validator asking the round to move to the next
// view, along with the reason it's asking.
type changeView struct {
	timestamp     uint64
	reason        ChangeViewReason
	newViewNumber byte
}

// Timestamp returns the nanosecond-precision time the change view was
// created, reconstructed from the millisecond value carried on the wire.
func (c *changeView) Timestamp() uint64 {
	return c.timestamp * nsInMs
}

// NewViewNumber returns the view number c asks the round to move to. It's
// never marshaled: a receiving validator derives it from the enclosing
// Payload's own view number.
func (c *changeView) NewViewNumber() byte {
	return c.newViewNumber
}

// Reason returns why c's sender gave up on the current view.
func (c *changeView) Reason() ChangeViewReason {
	return c.reason
}

// EncodeBinary implements the io.Serializable interface.
func (c *changeView) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(c.timestamp)
	w.WriteB(byte(c.reason))
}

// DecodeBinary implements the io.Serializable interface.
func (c *changeView) DecodeBinary(r *io.BinReader) {
	c.timestamp = r.ReadU64LE()
	c.reason = ChangeViewReason(r.ReadB())
}
