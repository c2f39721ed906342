package transaction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// AttrType identifies the kind of a transaction Attribute.
type AttrType byte

// Attribute type values.
const (
	// HighPriority marks a transaction for priority inclusion; it carries no value.
	HighPriority AttrType = 0x01
	// OracleResponseT marks an oracle contract's response to a request.
	OracleResponseT AttrType = 0x11
	// NotValidBeforeT bounds the earliest block height a transaction may be included in.
	NotValidBeforeT AttrType = 0x20
	// ConflictsT declares another transaction hash this one invalidates on acceptance.
	ConflictsT AttrType = 0x21
	// NotaryAssistedT marks a transaction as co-signed through the notary contract.
	NotaryAssistedT AttrType = 0x22
	// ReservedLowerBound is the first value of the plugin-reserved attribute range.
	ReservedLowerBound AttrType = 0xe0
	// ReservedUpperBound is the last value of the plugin-reserved attribute range.
	ReservedUpperBound AttrType = 0xff
)

// MaxOracleResultSize is the maximum length of an OracleResponse's Result.
const MaxOracleResultSize = 0xffff

// ErrInvalidResponseCode is returned when an OracleResponse carries an
// unrecognized response code.
var ErrInvalidResponseCode = errors.New("transaction: invalid oracle response code")

// ErrInvalidResult is returned when a non-Success OracleResponse carries a
// non-empty Result.
var ErrInvalidResult = errors.New("transaction: invalid oracle response result")

func (t AttrType) isReserved() bool {
	return t >= ReservedLowerBound && t <= ReservedUpperBound
}

// String returns the attribute type's JSON name.
func (t AttrType) String() string {
	switch t {
	case HighPriority:
		return "HighPriority"
	case OracleResponseT:
		return "OracleResponse"
	case NotValidBeforeT:
		return "NotValidBefore"
	case ConflictsT:
		return "Conflicts"
	case NotaryAssistedT:
		return "NotaryAssisted"
	default:
		if t.isReserved() {
			return "Reserved"
		}
		return fmt.Sprintf("Unknown(0x%x)", byte(t))
	}
}

func attrTypeFromString(s string) (AttrType, error) {
	switch s {
	case "HighPriority":
		return HighPriority, nil
	case "OracleResponse":
		return OracleResponseT, nil
	case "NotValidBefore":
		return NotValidBeforeT, nil
	case "Conflicts":
		return ConflictsT, nil
	case "NotaryAssisted":
		return NotaryAssistedT, nil
	default:
		return 0, fmt.Errorf("transaction: unknown attribute type %q", s)
	}
}

// AttrValue is the type-specific payload carried by an Attribute whose
// Type isn't HighPriority.
type AttrValue interface {
	io.Serializable
	toJSONMap(m map[string]interface{})
}

func newAttrValue(t AttrType) (AttrValue, error) {
	switch {
	case t == HighPriority:
		return nil, nil
	case t == OracleResponseT:
		return &OracleResponse{}, nil
	case t == NotValidBeforeT:
		return &NotValidBefore{}, nil
	case t == ConflictsT:
		return &Conflicts{}, nil
	case t == NotaryAssistedT:
		return &NotaryAssisted{}, nil
	case t.isReserved():
		return &Reserved{}, nil
	default:
		return nil, fmt.Errorf("transaction: unknown attribute type 0x%x", byte(t))
	}
}

// Attribute is a single transaction attribute: a Type tag plus its
// type-specific Value (nil for value-less types like HighPriority).
type Attribute struct {
	Type  AttrType
	Value AttrValue
}

// EncodeBinary implements the io.Serializable interface.
func (a *Attribute) EncodeBinary(w *io.BinWriter) {
	if a.Type != HighPriority && !knownAttrType(a.Type) && !a.Type.isReserved() {
		w.SetError(fmt.Errorf("transaction: unknown attribute type 0x%x", byte(a.Type)))
		return
	}
	w.WriteB(byte(a.Type))
	if a.Value != nil {
		a.Value.EncodeBinary(w)
	}
}

func knownAttrType(t AttrType) bool {
	switch t {
	case HighPriority, OracleResponseT, NotValidBeforeT, ConflictsT, NotaryAssistedT:
		return true
	default:
		return false
	}
}

// DecodeBinary implements the io.Serializable interface.
func (a *Attribute) DecodeBinary(r *io.BinReader) {
	t := AttrType(r.ReadB())
	if r.Err != nil {
		return
	}
	val, err := newAttrValue(t)
	if err != nil {
		r.Err = err
		return
	}
	if val != nil {
		val.DecodeBinary(r)
		if r.Err != nil {
			return
		}
	}
	a.Type = t
	a.Value = val
}

// MarshalJSON implements the json.Marshaler interface.
func (a *Attribute) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{"type": a.Type.String()}
	if a.Value != nil {
		a.Value.toJSONMap(m)
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	t, err := attrTypeFromString(head.Type)
	if err != nil {
		return err
	}
	val, err := newAttrValue(t)
	if err != nil {
		return err
	}
	if u, ok := val.(json.Unmarshaler); ok {
		if err := u.UnmarshalJSON(data); err != nil {
			return err
		}
	}
	a.Type = t
	a.Value = val
	return nil
}

// OracleResponseCode is the status an OracleResponse attribute carries.
type OracleResponseCode byte

// Oracle response codes.
const (
	Success              OracleResponseCode = 0x00
	ProtocolNotSupported  OracleResponseCode = 0x10
	ConsensusUnreachable  OracleResponseCode = 0x12
	NotFound              OracleResponseCode = 0x14
	Timeout               OracleResponseCode = 0x16
	Forbidden             OracleResponseCode = 0x18
	ResponseTooLarge      OracleResponseCode = 0x1a
	InsufficientFunds     OracleResponseCode = 0x1c
	Error                 OracleResponseCode = 0xff
)

func (c OracleResponseCode) String() string {
	switch c {
	case Success:
		return "Success"
	case ProtocolNotSupported:
		return "ProtocolNotSupported"
	case ConsensusUnreachable:
		return "ConsensusUnreachable"
	case NotFound:
		return "NotFound"
	case Timeout:
		return "Timeout"
	case Forbidden:
		return "Forbidden"
	case ResponseTooLarge:
		return "ResponseTooLarge"
	case InsufficientFunds:
		return "InsufficientFunds"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(0x%x)", byte(c))
	}
}

func oracleResponseCodeFromString(s string) (OracleResponseCode, error) {
	codes := []OracleResponseCode{Success, ProtocolNotSupported, ConsensusUnreachable,
		NotFound, Timeout, Forbidden, ResponseTooLarge, InsufficientFunds, Error}
	for _, c := range codes {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("transaction: unknown oracle response code %q", s)
}

func validResponseCode(c OracleResponseCode) bool {
	switch c {
	case Success, ProtocolNotSupported, ConsensusUnreachable, NotFound, Timeout,
		Forbidden, ResponseTooLarge, InsufficientFunds, Error:
		return true
	default:
		return false
	}
}

// OracleResponse is the value of an OracleResponseT attribute: the
// oracle request ID it answers, a status Code, and the (Code==Success only)
// response Result bytes.
type OracleResponse struct {
	ID     uint64
	Code   OracleResponseCode
	Result []byte
}

// EncodeBinary implements the io.Serializable interface.
func (o *OracleResponse) EncodeBinary(w *io.BinWriter) {
	w.WriteU64LE(o.ID)
	w.WriteB(byte(o.Code))
	w.WriteVarBytes(o.Result)
}

// DecodeBinary implements the io.Serializable interface.
func (o *OracleResponse) DecodeBinary(r *io.BinReader) {
	o.ID = r.ReadU64LE()
	o.Code = OracleResponseCode(r.ReadB())
	if r.Err != nil {
		return
	}
	if !validResponseCode(o.Code) {
		r.Err = ErrInvalidResponseCode
		return
	}
	o.Result = r.ReadVarBytes(MaxOracleResultSize)
	if r.Err != nil {
		return
	}
	if o.Code != Success && len(o.Result) != 0 {
		r.Err = ErrInvalidResult
		return
	}
}

func (o *OracleResponse) toJSONMap(m map[string]interface{}) {
	m["id"] = o.ID
	m["code"] = o.Code.String()
	m["result"] = base64Encode(o.Result)
}

// MarshalJSON implements the json.Marshaler interface.
func (o *OracleResponse) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{}
	o.toJSONMap(m)
	return json.Marshal(m)
}

type oracleResponseJSON struct {
	ID     uint64 `json:"id"`
	Code   string `json:"code"`
	Result string `json:"result"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (o *OracleResponse) UnmarshalJSON(data []byte) error {
	var aux oracleResponseJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	code, err := oracleResponseCodeFromString(aux.Code)
	if err != nil {
		return err
	}
	result, err := base64Decode(aux.Result)
	if err != nil {
		return err
	}
	o.ID = aux.ID
	o.Code = code
	o.Result = result
	return nil
}

// NotValidBefore is the value of a NotValidBeforeT attribute.
type NotValidBefore struct {
	Height uint32
}

// EncodeBinary implements the io.Serializable interface.
func (n *NotValidBefore) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(n.Height)
}

// DecodeBinary implements the io.Serializable interface.
func (n *NotValidBefore) DecodeBinary(r *io.BinReader) {
	n.Height = r.ReadU32LE()
}

func (n *NotValidBefore) toJSONMap(m map[string]interface{}) {
	m["height"] = n.Height
}

type notValidBeforeJSON struct {
	Height uint32 `json:"height"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *NotValidBefore) UnmarshalJSON(data []byte) error {
	var aux notValidBeforeJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Height = aux.Height
	return nil
}

// Conflicts is the value of a ConflictsT attribute: the hash of a
// transaction this one invalidates.
type Conflicts struct {
	Hash util.Uint256
}

// EncodeBinary implements the io.Serializable interface.
func (c *Conflicts) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(c.Hash[:])
}

// DecodeBinary implements the io.Serializable interface.
func (c *Conflicts) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(c.Hash[:])
}

func (c *Conflicts) toJSONMap(m map[string]interface{}) {
	m["hash"] = c.Hash
}

type conflictsJSON struct {
	Hash util.Uint256 `json:"hash"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *Conflicts) UnmarshalJSON(data []byte) error {
	var aux conflictsJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Hash = aux.Hash
	return nil
}

// NotaryAssisted is the value of a NotaryAssistedT attribute: the number
// of extra notary-supplied signer keys the transaction carries.
type NotaryAssisted struct {
	NKeys byte
}

// EncodeBinary implements the io.Serializable interface.
func (n *NotaryAssisted) EncodeBinary(w *io.BinWriter) {
	w.WriteB(n.NKeys)
}

// DecodeBinary implements the io.Serializable interface.
func (n *NotaryAssisted) DecodeBinary(r *io.BinReader) {
	n.NKeys = r.ReadB()
}

func (n *NotaryAssisted) toJSONMap(m map[string]interface{}) {
	m["nkeys"] = n.NKeys
}

type notaryAssistedJSON struct {
	NKeys byte `json:"nkeys"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *NotaryAssisted) UnmarshalJSON(data []byte) error {
	var aux notaryAssistedJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.NKeys = aux.NKeys
	return nil
}

// Reserved is the value of an attribute in the plugin-reserved range; it
// carries opaque bytes whose interpretation is plugin-specific.
type Reserved struct {
	Value []byte
}

// EncodeBinary implements the io.Serializable interface.
func (r *Reserved) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(r.Value)
}

// DecodeBinary implements the io.Serializable interface.
func (r *Reserved) DecodeBinary(br *io.BinReader) {
	r.Value = br.ReadVarBytes()
}

func (r *Reserved) toJSONMap(m map[string]interface{}) {
	m["value"] = base64Encode(r.Value)
}
