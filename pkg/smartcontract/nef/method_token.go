package nef

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/callflag"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// maxMethodLength bounds MethodToken.Method, matching the identifier
// length limit enforced on manifest method names.
const maxMethodLength = 32

var (
	errInvalidMethodName = errors.New("nef: method name is invalid")
	errInvalidCallFlag   = errors.New("nef: invalid call flag")
)

// MethodToken describes a single method of another contract that this
// contract's script calls directly (a "token" call), letting the VM
// resolve the target without a System.Contract.Call syscall.
type MethodToken struct {
	Hash       util.Uint160
	Method     string
	ParamCount uint16
	HasReturn  bool
	CallFlag   callflag.CallFlag
}

// EncodeBinary implements the io.Serializable interface.
func (t *MethodToken) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(t.Hash[:])
	w.WriteString(t.Method)
	w.WriteU16LE(t.ParamCount)
	w.WriteBool(t.HasReturn)
	w.WriteB(byte(t.CallFlag))
}

// DecodeBinary implements the io.Serializable interface.
func (t *MethodToken) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(t.Hash[:])
	t.Method = r.ReadString()
	t.ParamCount = r.ReadU16LE()
	t.HasReturn = r.ReadBool()
	t.CallFlag = callflag.CallFlag(r.ReadB())
	if r.Err != nil {
		return
	}
	if len(t.Method) == 0 || len(t.Method) > maxMethodLength || strings.HasPrefix(t.Method, "_") {
		r.Err = errInvalidMethodName
		return
	}
	if t.CallFlag&^callflag.All != 0 {
		r.Err = errInvalidCallFlag
	}
}

// methodTokenAux mirrors MethodToken's wire-compatible JSON shape: the
// contract hash is rendered little-endian (a historical quirk of this
// format) and the call flag as its raw numeric value, not its name.
type methodTokenAux struct {
	Hash       string `json:"hash"`
	Method     string `json:"method"`
	ParamCount uint16 `json:"paramcount"`
	HasReturn  bool   `json:"hasreturnvalue"`
	CallFlag   byte   `json:"callflags"`
}

// MarshalJSON implements the json.Marshaler interface.
func (t MethodToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(methodTokenAux{
		Hash:       "0x" + t.Hash.StringLE(),
		Method:     t.Method,
		ParamCount: t.ParamCount,
		HasReturn:  t.HasReturn,
		CallFlag:   byte(t.CallFlag),
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *MethodToken) UnmarshalJSON(data []byte) error {
	var aux methodTokenAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	h, err := util.Uint160DecodeStringLE(strings.TrimPrefix(aux.Hash, "0x"))
	if err != nil {
		return err
	}
	t.Hash = h
	t.Method = aux.Method
	t.ParamCount = aux.ParamCount
	t.HasReturn = aux.HasReturn
	t.CallFlag = callflag.CallFlag(aux.CallFlag)
	return nil
}
