package payload

import (
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// MaxSize is the maximum size of an Extensible payload's Data field.
const MaxSize = 65535

// ConsensusCategory is the Extensible category dBFT consensus messages are
// gossiped under.
const ConsensusCategory = "dBFT"

// errInvalidPadding is returned when an Extensible's witness-count marker
// byte is not the single fixed value a one-witness payload always carries.
var errInvalidPadding = errors.New("payload: invalid extensible witness padding")

// Extensible carries an application-defined, witness-signed message
// outside the consensus and transaction-relay paths: a state-root vote,
// a notary request, an oracle response, anything a node extension wants
// to gossip and have the recipient verify.
type Extensible struct {
	Category        string
	ValidBlockStart uint32
	ValidBlockEnd   uint32
	Sender          util.Uint160
	Data            []byte
	Witness         transaction.Witness

	hash *util.Uint256
}

// NewExtensible creates a new, empty Extensible payload.
func NewExtensible() *Extensible {
	return &Extensible{}
}

func (e *Extensible) encodeBinaryUnsigned(w *io.BinWriter) {
	w.WriteString(e.Category)
	w.WriteU32LE(e.ValidBlockStart)
	w.WriteU32LE(e.ValidBlockEnd)
	w.WriteBytes(e.Sender.BytesBE())
	w.WriteVarBytes(e.Data)
}

func (e *Extensible) decodeBinaryUnsigned(r *io.BinReader) {
	e.Category = r.ReadString()
	e.ValidBlockStart = r.ReadU32LE()
	e.ValidBlockEnd = r.ReadU32LE()
	var senderBytes [util.Uint160Size]byte
	r.ReadBytes(senderBytes[:])
	if r.Err != nil {
		return
	}
	sender, err := util.Uint160DecodeBytesBE(senderBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	e.Sender = sender
	e.Data = r.ReadVarBytes(MaxSize)
}

// EncodeBinary implements the io.Serializable interface.
func (e *Extensible) EncodeBinary(w *io.BinWriter) {
	e.encodeBinaryUnsigned(w)
	w.WriteB(1)
	e.Witness.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (e *Extensible) DecodeBinary(r *io.BinReader) {
	e.decodeBinaryUnsigned(r)
	if r.Err != nil {
		return
	}
	b := r.ReadB()
	if r.Err != nil {
		return
	}
	if b != 1 {
		r.Err = errInvalidPadding
		return
	}
	e.Witness.DecodeBinary(r)
}

// SignedPart returns the encoded bytes a witness over e signs: every field
// except the witness itself.
func (e *Extensible) SignedPart() []byte {
	w := io.NewBufBinWriter()
	e.encodeBinaryUnsigned(w.BinWriter)
	return w.Bytes()
}

// Hash returns the payload's signed-content hash, computed fresh unless
// already cached.
func (e *Extensible) Hash() util.Uint256 {
	if e.hash != nil {
		return *e.hash
	}
	w := io.NewBufBinWriter()
	e.encodeBinaryUnsigned(w.BinWriter)
	if w.Err != nil {
		panic(fmt.Errorf("payload: failed to hash extensible: %w", w.Err))
	}
	h := hash.Sha256(w.Bytes())
	e.hash = &h
	return h
}
