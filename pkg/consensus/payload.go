package consensus

import (
	"crypto/elliptic"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/config/netmode"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
)

// nsInMs is the number of nanoseconds in a millisecond: timestamps travel
// the wire in milliseconds but round timers work in nanoseconds.
const nsInMs = 1_000_000

// messageType identifies the kind of round-state message a Payload carries,
// using the same wire values the Neo N3 dBFT protocol always has.
type messageType byte

const (
	changeViewType      messageType = 0x00
	prepareRequestType  messageType = 0x20
	prepareResponseType messageType = 0x21
	commitType          messageType = 0x30
	recoveryRequestType messageType = 0x40
	recoveryMessageType messageType = 0x41
)

// String implements the fmt.Stringer interface.
func (t messageType) String() string {
	switch t {
	case changeViewType:
		return "ChangeView"
	case prepareRequestType:
		return "PrepareRequest"
	case prepareResponseType:
		return "PrepareResponse"
	case commitType:
		return "Commit"
	case recoveryRequestType:
		return "RecoveryRequest"
	case recoveryMessageType:
		return "RecoveryMessage"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", byte(t))
	}
}

// message is the round-state body a Payload wraps: a type tag, the view
// it was produced in, and the concrete message for that type.
type message struct {
	Type       messageType
	ViewNumber byte

	payload io.Serializable
}

// EncodeBinary implements the io.Serializable interface.
func (m *message) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(m.Type))
	w.WriteB(m.ViewNumber)
	m.payload.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (m *message) DecodeBinary(r *io.BinReader) {
	m.Type = messageType(r.ReadB())
	m.ViewNumber = r.ReadB()

	switch m.Type {
	case changeViewType:
		cv := new(changeView)
		// newViewNumber is not marshaled, it's derived from ViewNumber.
		cv.newViewNumber = m.ViewNumber + 1
		m.payload = cv
	case prepareRequestType:
		m.payload = new(prepareRequest)
	case prepareResponseType:
		m.payload = new(prepareResponse)
	case commitType:
		m.payload = new(commit)
	case recoveryRequestType:
		m.payload = new(recoveryRequest)
	case recoveryMessageType:
		m.payload = new(recoveryMessage)
	default:
		r.Err = fmt.Errorf("consensus: invalid message type 0x%02x", byte(m.Type))
		return
	}
	m.payload.DecodeBinary(r)
}

var errInvalidPayloadWitnessMarker = errors.New("consensus: invalid payload witness marker")

// Payload is a single consensus round-state message exchanged between
// validators: chain position, sender index, and a witness proving the
// sender's identity, wrapped around one of the six message kinds.
//
// Decoding a Payload off the wire only parses this header; the message
// itself stays as raw bytes in data until decodeData is called, so a node
// that's only relaying payloads to other validators never has to parse
// their contents.
type Payload struct {
	*message

	version        uint32
	validatorIndex uint16
	prevHash       util.Uint256
	height         uint32

	data []byte

	Witness transaction.Witness
}

// NewPayload creates an empty Payload meant to be used on network network.
func NewPayload(network netmode.Magic) *Payload {
	return &Payload{}
}

// Version returns p's version.
func (p *Payload) Version() uint32 {
	return p.version
}

// SetVersion sets p's version.
func (p *Payload) SetVersion(v uint32) {
	p.version = v
}

// PrevHash returns the hash of the block p's round extends.
func (p *Payload) PrevHash() util.Uint256 {
	return p.prevHash
}

// SetPrevHash sets the hash of the block p's round extends.
func (p *Payload) SetPrevHash(h util.Uint256) {
	p.prevHash = h
}

// ValidatorIndex returns the index of the validator that sent p, into the
// current round's sorted validator list.
func (p *Payload) ValidatorIndex() uint16 {
	return p.validatorIndex
}

// SetValidatorIndex sets the index of the validator that sent p.
func (p *Payload) SetValidatorIndex(i uint16) {
	p.validatorIndex = i
}

// Height returns the block index p's round is deciding.
func (p *Payload) Height() uint32 {
	return p.height
}

// SetHeight sets the block index p's round is deciding.
func (p *Payload) SetHeight(h uint32) {
	p.height = h
}

// ViewNumber returns the view p was produced in.
func (p *Payload) ViewNumber() byte {
	if p.message == nil {
		return 0
	}
	return p.message.ViewNumber
}

// SetViewNumber sets the view p was produced in.
func (p *Payload) SetViewNumber(view byte) {
	if p.message == nil {
		p.message = &message{}
	}
	p.message.ViewNumber = view
}

// Type returns the kind of message p carries.
func (p *Payload) Type() messageType {
	if p.message == nil {
		return 0
	}
	return p.message.Type
}

// SetType sets the kind of message p carries.
func (p *Payload) SetType(t messageType) {
	if p.message == nil {
		p.message = &message{}
	}
	p.message.Type = t
}

// Payload returns the concrete message p carries.
func (p *Payload) Payload() interface{} {
	if p.message == nil {
		return nil
	}
	return p.message.payload
}

// SetPayload sets the concrete message p carries and the type that goes
// with it.
func (p *Payload) SetPayload(pl io.Serializable) {
	if p.message == nil {
		p.message = &message{}
	}
	p.message.payload = pl
	switch pl.(type) {
	case *changeView:
		p.message.Type = changeViewType
	case *prepareRequest:
		p.message.Type = prepareRequestType
	case *prepareResponse:
		p.message.Type = prepareResponseType
	case *commit:
		p.message.Type = commitType
	case *recoveryRequest:
		p.message.Type = recoveryRequestType
	case *recoveryMessage:
		p.message.Type = recoveryMessageType
	}
}

// GetChangeView returns p's payload as a changeView.
func (p *Payload) GetChangeView() *changeView { return p.message.payload.(*changeView) }

// GetPrepareRequest returns p's payload as a prepareRequest.
func (p *Payload) GetPrepareRequest() *prepareRequest { return p.message.payload.(*prepareRequest) }

// GetPrepareResponse returns p's payload as a prepareResponse.
func (p *Payload) GetPrepareResponse() *prepareResponse {
	return p.message.payload.(*prepareResponse)
}

// GetCommit returns p's payload as a commit.
func (p *Payload) GetCommit() *commit { return p.message.payload.(*commit) }

// GetRecoveryRequest returns p's payload as a recoveryRequest.
func (p *Payload) GetRecoveryRequest() *recoveryRequest {
	return p.message.payload.(*recoveryRequest)
}

// GetRecoveryMessage returns p's payload as a recoveryMessage.
func (p *Payload) GetRecoveryMessage() *recoveryMessage {
	return p.message.payload.(*recoveryMessage)
}

// encodeData serializes p.message into p.data, refreshing it.
func (p *Payload) encodeData() {
	w := io.NewBufBinWriter()
	p.message.EncodeBinary(w.BinWriter)
	p.data = w.Bytes()
}

// decodeData parses p.data into p.message, if it hasn't been already.
func (p *Payload) decodeData() error {
	if p.message != nil {
		return nil
	}
	m := new(message)
	r := io.NewBinReaderFromBuf(p.data)
	m.DecodeBinary(r)
	if r.Err != nil {
		return r.Err
	}
	p.message = m
	return nil
}

func (p *Payload) encodeBinaryUnsigned(w *io.BinWriter) {
	w.WriteU32LE(p.version)
	w.WriteBytes(p.prevHash.BytesBE())
	w.WriteU32LE(p.height)
	w.WriteU16LE(p.validatorIndex)
	if p.message != nil {
		p.encodeData()
	}
	w.WriteVarBytes(p.data)
}

func (p *Payload) decodeBinaryUnsigned(r *io.BinReader) {
	p.version = r.ReadU32LE()
	var prevHashBytes [util.Uint256Size]byte
	r.ReadBytes(prevHashBytes[:])
	if r.Err != nil {
		return
	}
	prevHash, err := util.Uint256DecodeBytesBE(prevHashBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	p.prevHash = prevHash
	p.height = r.ReadU32LE()
	p.validatorIndex = r.ReadU16LE()
	p.data = r.ReadVarBytes()
	p.message = nil
}

// MarshalUnsigned encodes p excluding its witness.
func (p *Payload) MarshalUnsigned() []byte {
	w := io.NewBufBinWriter()
	p.encodeBinaryUnsigned(w.BinWriter)
	return w.Bytes()
}

// UnmarshalUnsigned decodes p from data, which must exclude a witness.
func (p *Payload) UnmarshalUnsigned(data []byte) error {
	r := io.NewBinReaderFromBuf(data)
	p.decodeBinaryUnsigned(r)
	return r.Err
}

// EncodeBinary implements the io.Serializable interface.
func (p *Payload) EncodeBinary(w *io.BinWriter) {
	p.encodeBinaryUnsigned(w)
	w.WriteB(1)
	p.Witness.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (p *Payload) DecodeBinary(r *io.BinReader) {
	p.decodeBinaryUnsigned(r)
	if r.Err != nil {
		return
	}
	b := r.ReadB()
	if r.Err != nil {
		return
	}
	if b != 1 {
		r.Err = errInvalidPayloadWitnessMarker
		return
	}
	p.Witness.DecodeBinary(r)
}

// Hash returns the hash of p's unsigned content, the value its witness
// signs.
func (p *Payload) Hash() util.Uint256 {
	return hash.Sha256(p.MarshalUnsigned())
}

// Sign signs p with key, filling in its witness.
func (p *Payload) Sign(key *privateKey) error {
	sig := key.PrivateKey.SignHash(p.Hash())
	p.Witness.InvocationScript = append([]byte{byte(opcode.PUSHDATA1), 64}, sig...)
	p.Witness.VerificationScript = keys.CreateSignatureRedeemScript(key.PublicKey())
	return nil
}

// Verify reports whether p's witness proves authorization for
// expectedScriptHash.
func (p *Payload) Verify(expectedScriptHash util.Uint160) bool {
	if p.Witness.ScriptHash() != expectedScriptHash {
		return false
	}
	pub, err := publicKeyFromSignatureScript(p.Witness.VerificationScript)
	if err != nil {
		return false
	}
	sig, err := signatureFromInvocationScript(p.Witness.InvocationScript)
	if err != nil {
		return false
	}
	h := p.Hash()
	return pub.Verify(sig, h.BytesBE())
}

// publicKeyFromSignatureScript extracts the public key pushed by a
// single-signature verification script built by
// keys.CreateSignatureRedeemScript.
func publicKeyFromSignatureScript(script []byte) (*keys.PublicKey, error) {
	if len(script) < 2 || script[0] != byte(opcode.PUSHDATA1) {
		return nil, errors.New("consensus: not a single-signature verification script")
	}
	n := int(script[1])
	if len(script) < 2+n {
		return nil, errors.New("consensus: truncated verification script")
	}
	return keys.NewPublicKeyFromBytes(script[2:2+n], elliptic.P256())
}

// signatureFromInvocationScript extracts the 64-byte signature pushed by a
// single-signature invocation script.
func signatureFromInvocationScript(script []byte) ([]byte, error) {
	if len(script) < 2 || script[0] != byte(opcode.PUSHDATA1) || script[1] != 64 {
		return nil, errors.New("consensus: not a single-signature invocation script")
	}
	if len(script) < 2+64 {
		return nil, errors.New("consensus: truncated invocation script")
	}
	return script[2 : 2+64], nil
}
