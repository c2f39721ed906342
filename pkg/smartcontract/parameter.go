package smartcontract

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/encoding/bigint"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Parameter represents a typed value passed to (or returned from) a
// contract method invocation.
type Parameter struct {
	Type  ParamType
	Value interface{}
}

// ParameterPair is a single key/value entry of a MapType Parameter.
type ParameterPair struct {
	Key   Parameter `json:"key"`
	Value Parameter `json:"value"`
}

// Convertible is implemented by domain values that know how to turn
// themselves into a contract Parameter.
type Convertible interface {
	ToSCParameter() (Parameter, error)
}

// maxBigIntBits bounds the integers NewParameterFromString/UnmarshalJSON
// will accept, mirroring the VM's own Integer stack item limit.
const maxBigIntBits = stackitem.MaxBigIntegerSizeBits

// NewParameter creates a Parameter of typ from its string representation,
// as used by CLI/RPC input.
func NewParameter(typ ParamType, val string) (*Parameter, error) {
	v, err := adjustValToType(typ, val)
	if err != nil {
		return nil, err
	}
	if typ == IntegerType {
		v = big.NewInt(v.(int64))
	}
	return &Parameter{Type: typ, Value: v}, nil
}

// NewParameterFromString parses the CLI-style "[type:]value" syntax used
// for ad-hoc invocation arguments: a colon not escaped by a backslash and
// not preceded by one already splits an explicit type prefix from the
// value; everything else is a literal value with its type guessed (bool,
// integer, or string). The special "filebytes" pseudo-type reads the
// named file's raw bytes as a ByteArray value.
func NewParameterFromString(in string) (*Parameter, error) {
	var (
		buf     strings.Builder
		escaped bool
		hadType bool
		typStr  string
	)
	for i := 0; i < len(in); {
		r, size := utf8.DecodeRuneInString(in[i:])
		if r == utf8.RuneError && size == 1 {
			return nil, errors.New("smartcontract: invalid UTF-8 in parameter string")
		}
		i += size
		switch {
		case escaped:
			buf.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':' && !hadType:
			typStr = buf.String()
			buf.Reset()
			hadType = true
		default:
			buf.WriteRune(r)
		}
	}
	if escaped {
		return nil, errors.New("smartcontract: trailing escape character")
	}
	val := buf.String()
	if !hadType {
		switch val {
		case "true":
			return &Parameter{Type: BoolType, Value: true}, nil
		case "false":
			return &Parameter{Type: BoolType, Value: false}, nil
		}
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return &Parameter{Type: IntegerType, Value: big.NewInt(n)}, nil
		}
		return &Parameter{Type: StringType, Value: val}, nil
	}
	if typStr == "filebytes" {
		b, err := os.ReadFile(val)
		if err != nil {
			return nil, fmt.Errorf("smartcontract: can't read %s: %w", val, err)
		}
		return &Parameter{Type: ByteArrayType, Value: b}, nil
	}
	typ, err := ParseParamType(typStr)
	if err != nil {
		return nil, err
	}
	if typ == StringType {
		return &Parameter{Type: StringType, Value: val}, nil
	}
	return NewParameter(typ, val)
}

// NewParameterFromValue converts an arbitrary Go value into its Parameter
// representation, accepting the value kinds contract invocation helpers
// commonly pass: byte slices, strings, booleans, integers of any width,
// Parameter/*Parameter, hashes, public keys, Convertible implementations,
// and slices of any of the above (recursively converted to an
// ArrayType Parameter).
func NewParameterFromValue(value interface{}) (Parameter, error) {
	switch v := value.(type) {
	case nil:
		return Parameter{Type: AnyType, Value: nil}, nil
	case Parameter:
		return v, nil
	case *Parameter:
		return *v, nil
	case []byte:
		return Parameter{Type: ByteArrayType, Value: v}, nil
	case string:
		return Parameter{Type: StringType, Value: v}, nil
	case bool:
		return Parameter{Type: BoolType, Value: v}, nil
	case *big.Int:
		return Parameter{Type: IntegerType, Value: v}, nil
	case util.Uint160:
		return Parameter{Type: Hash160Type, Value: v}, nil
	case *util.Uint160:
		if v == nil {
			return Parameter{Type: AnyType, Value: nil}, nil
		}
		return Parameter{Type: Hash160Type, Value: *v}, nil
	case util.Uint256:
		return Parameter{Type: Hash256Type, Value: v}, nil
	case *util.Uint256:
		if v == nil {
			return Parameter{Type: AnyType, Value: nil}, nil
		}
		return Parameter{Type: Hash256Type, Value: *v}, nil
	case keys.PublicKey:
		return Parameter{Type: PublicKeyType, Value: v.Bytes()}, nil
	case *keys.PublicKey:
		return Parameter{Type: PublicKeyType, Value: v.Bytes()}, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Parameter{Type: IntegerType, Value: big.NewInt(rv.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Parameter{Type: IntegerType, Value: new(big.Int).SetUint64(rv.Uint())}, nil
	}

	if c, ok := value.(Convertible); ok {
		return c.ToSCParameter()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		res := make([]Parameter, n)
		for i := 0; i < n; i++ {
			p, err := NewParameterFromValue(rv.Index(i).Interface())
			if err != nil {
				return Parameter{}, err
			}
			res[i] = p
		}
		return Parameter{Type: ArrayType, Value: res}, nil
	case reflect.Map:
		return Parameter{}, fmt.Errorf("smartcontract: unsupported operation: %T type", value)
	}
	return Parameter{}, fmt.Errorf("smartcontract: unsupported operation: %T type", value)
}

// NewParametersFromValues converts each of values into a Parameter,
// stopping at the first conversion error.
func NewParametersFromValues(values ...interface{}) ([]Parameter, error) {
	res := make([]Parameter, len(values))
	for i, v := range values {
		p, err := NewParameterFromValue(v)
		if err != nil {
			return nil, err
		}
		res[i] = p
	}
	return res, nil
}

// ExpandParameterToEmitable converts p into the plain Go value the
// script-emitting layer accepts (the same value kinds emit.Param
// understands), recursing into ArrayType elements.
func ExpandParameterToEmitable(p Parameter) (interface{}, error) {
	switch p.Type {
	case BoolType, IntegerType, ByteArrayType, StringType:
		return p.Value, nil
	case Hash160Type:
		u, ok := p.Value.(util.Uint160)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Hash160 parameter value")
		}
		return u, nil
	case Hash256Type:
		u, ok := p.Value.(util.Uint256)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Hash256 parameter value")
		}
		return u, nil
	case PublicKeyType, SignatureType:
		b, ok := p.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid %s parameter value", p.Type)
		}
		return b, nil
	case AnyType:
		return nil, nil
	case ArrayType:
		items, ok := p.Value.([]Parameter)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Array parameter value")
		}
		res := make([]interface{}, len(items))
		for i, it := range items {
			v, err := ExpandParameterToEmitable(it)
			if err != nil {
				return nil, err
			}
			res[i] = v
		}
		return res, nil
	default:
		return nil, fmt.Errorf("smartcontract: %s can't be converted to an emitable value", p.Type)
	}
}

// ToStackItem converts p into its VM stack item representation.
func (p Parameter) ToStackItem() (stackitem.Item, error) {
	switch p.Type {
	case BoolType:
		b, ok := p.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Boolean parameter value")
		}
		return stackitem.NewBool(b), nil
	case IntegerType:
		n, ok := p.Value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Integer parameter value")
		}
		return stackitem.NewBigInteger(n), nil
	case ByteArrayType:
		b, ok := p.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid ByteArray parameter value")
		}
		return stackitem.NewByteArray(b), nil
	case StringType:
		s, ok := p.Value.(string)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid String parameter value")
		}
		return stackitem.NewByteArray([]byte(s)), nil
	case Hash160Type:
		u, ok := p.Value.(util.Uint160)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Hash160 parameter value")
		}
		return stackitem.NewByteArray(u.BytesBE()), nil
	case Hash256Type:
		u, ok := p.Value.(util.Uint256)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Hash256 parameter value")
		}
		return stackitem.NewByteArray(u.BytesBE()), nil
	case PublicKeyType, SignatureType:
		b, ok := p.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid %s parameter value", p.Type)
		}
		return stackitem.NewByteArray(b), nil
	case AnyType:
		return stackitem.Null{}, nil
	case ArrayType:
		items, ok := p.Value.([]Parameter)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Array parameter value")
		}
		res := make([]stackitem.Item, len(items))
		for i, it := range items {
			si, err := it.ToStackItem()
			if err != nil {
				return nil, err
			}
			res[i] = si
		}
		return stackitem.NewArray(res), nil
	case MapType:
		pairs, ok := p.Value.([]ParameterPair)
		if !ok {
			return nil, fmt.Errorf("smartcontract: invalid Map parameter value")
		}
		res := make([]stackitem.MapElement, len(pairs))
		for i, pr := range pairs {
			k, err := pr.Key.ToStackItem()
			if err != nil {
				return nil, err
			}
			v, err := pr.Value.ToStackItem()
			if err != nil {
				return nil, err
			}
			res[i] = stackitem.MapElement{Key: k, Value: v}
		}
		return stackitem.NewMapWithValue(res), nil
	default:
		return nil, fmt.Errorf("smartcontract: %s can't be converted to a stack item", p.Type)
	}
}

// jsonTypeNames maps ParamType to the (sometimes different) type name
// used in the Parameter JSON encoding.
var jsonTypeNames = map[ParamType]string{
	ByteArrayType: "ByteString",
}

func paramJSONTypeName(t ParamType) string {
	if s, ok := jsonTypeNames[t]; ok {
		return s
	}
	return t.String()
}

func paramTypeFromJSONName(s string) (ParamType, error) {
	if s == "ByteString" {
		return ByteArrayType, nil
	}
	return ParseParamType(s)
}

// MarshalJSON implements the json.Marshaler interface.
func (p Parameter) MarshalJSON() ([]byte, error) {
	type alias struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value,omitempty"`
	}
	a := alias{Type: paramJSONTypeName(p.Type)}

	var (
		raw []byte
		err error
	)
	switch p.Type {
	case UnknownType:
		return nil, errors.New("smartcontract: can't marshal an Unknown-typed parameter")
	case BoolType:
		b, ok := p.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as Boolean", p.Value)
		}
		raw, err = json.Marshal(b)
	case IntegerType:
		n, convErr := toBigInt(p.Value)
		if convErr != nil {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as Integer: %w", p.Value, convErr)
		}
		if bigIntFitsJSONNumber(n) {
			raw = []byte(n.String())
		} else {
			raw, err = json.Marshal(n.String())
		}
	case StringType:
		s, ok := p.Value.(string)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as String", p.Value)
		}
		raw, err = json.Marshal(s)
	case ByteArrayType:
		if p.Value == nil {
			raw = []byte("null")
			break
		}
		b, ok := p.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as ByteArray", p.Value)
		}
		raw, err = json.Marshal(base64.StdEncoding.EncodeToString(b))
	case SignatureType:
		if p.Value == nil {
			a.Value = nil
			return json.Marshal(a)
		}
		b, ok := p.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as Signature", p.Value)
		}
		raw, err = json.Marshal(base64.StdEncoding.EncodeToString(b))
	case PublicKeyType:
		b, ok := p.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as PublicKey", p.Value)
		}
		raw, err = json.Marshal(hex.EncodeToString(b))
	case Hash160Type:
		u, ok := p.Value.(util.Uint160)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as Hash160", p.Value)
		}
		raw, err = json.Marshal(u.String())
	case Hash256Type:
		u, ok := p.Value.(util.Uint256)
		if !ok {
			return nil, fmt.Errorf("smartcontract: can't marshal %v as Hash256", p.Value)
		}
		raw, err = json.Marshal(u.String())
	case ArrayType:
		arr, _ := p.Value.([]Parameter)
		if arr == nil {
			arr = []Parameter{}
		}
		raw, err = json.Marshal(arr)
	case MapType:
		pairs, _ := p.Value.([]ParameterPair)
		if pairs == nil {
			pairs = []ParameterPair{}
		}
		raw, err = json.Marshal(pairs)
	case InteropInterfaceType, AnyType, VoidType:
		raw = []byte("null")
	default:
		return nil, fmt.Errorf("smartcontract: can't marshal parameter of type %s", p.Type)
	}
	if err != nil {
		return nil, err
	}
	a.Value = raw
	return json.Marshal(a)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	typ, err := paramTypeFromJSONName(aux.Type)
	if err != nil {
		return err
	}
	p.Type = typ
	if len(aux.Value) == 0 || string(aux.Value) == "null" {
		p.Value = nil
		return nil
	}
	switch typ {
	case BoolType:
		var b bool
		if err := json.Unmarshal(aux.Value, &b); err != nil {
			return fmt.Errorf("smartcontract: invalid Boolean value: %w", err)
		}
		p.Value = b
	case IntegerType:
		var raw interface{}
		if err := json.Unmarshal(aux.Value, &raw); err != nil {
			return fmt.Errorf("smartcontract: invalid Integer value: %w", err)
		}
		var n *big.Int
		switch v := raw.(type) {
		case float64:
			n = new(big.Int)
			bf := big.NewFloat(v)
			n, _ = bf.Int(n)
		case string:
			var ok bool
			n, ok = new(big.Int).SetString(v, 10)
			if !ok {
				return fmt.Errorf("smartcontract: invalid Integer value: %s", v)
			}
		default:
			return fmt.Errorf("smartcontract: invalid Integer value")
		}
		if bits := len(bigint.ToBytes(n)) * 8; bits > maxBigIntBits {
			return errors.New("smartcontract: integer value too big")
		}
		p.Value = n
	case StringType:
		var s string
		if err := json.Unmarshal(aux.Value, &s); err != nil {
			return fmt.Errorf("smartcontract: invalid String value: %w", err)
		}
		p.Value = s
	case ByteArrayType:
		var s string
		if err := json.Unmarshal(aux.Value, &s); err != nil {
			return fmt.Errorf("smartcontract: invalid ByteArray value: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("smartcontract: invalid ByteArray value: %w", err)
		}
		p.Value = b
	case SignatureType:
		var s string
		if err := json.Unmarshal(aux.Value, &s); err != nil {
			return fmt.Errorf("smartcontract: invalid Signature value: %w", err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("smartcontract: invalid Signature value: %w", err)
		}
		p.Value = b
	case PublicKeyType:
		var s string
		if err := json.Unmarshal(aux.Value, &s); err != nil {
			return fmt.Errorf("smartcontract: invalid PublicKey value: %w", err)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("smartcontract: invalid PublicKey value: %w", err)
		}
		p.Value = b
	case Hash160Type:
		var s string
		if err := json.Unmarshal(aux.Value, &s); err != nil {
			return fmt.Errorf("smartcontract: invalid Hash160 value: %w", err)
		}
		u, err := util.Uint160DecodeStringBE(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return fmt.Errorf("smartcontract: invalid Hash160 value: %w", err)
		}
		p.Value = u
	case Hash256Type:
		var s string
		if err := json.Unmarshal(aux.Value, &s); err != nil {
			return fmt.Errorf("smartcontract: invalid Hash256 value: %w", err)
		}
		u, err := util.Uint256DecodeStringBE(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return fmt.Errorf("smartcontract: invalid Hash256 value: %w", err)
		}
		p.Value = u
	case ArrayType:
		var arr []Parameter
		if err := json.Unmarshal(aux.Value, &arr); err != nil {
			return fmt.Errorf("smartcontract: invalid Array value: %w", err)
		}
		p.Value = arr
	case MapType:
		var pairs []ParameterPair
		if err := json.Unmarshal(aux.Value, &pairs); err != nil {
			return fmt.Errorf("smartcontract: invalid Map value: %w", err)
		}
		p.Value = pairs
	case InteropInterfaceType:
		p.Value = nil
	default:
		return fmt.Errorf("smartcontract: can't unmarshal parameter of type %s", typ)
	}
	return nil
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, errors.New("not a finite number")
		}
		bi, _ := big.NewFloat(n).Int(nil)
		return bi, nil
	default:
		return nil, fmt.Errorf("can't convert %T to an integer", v)
	}
}

func bigIntFitsJSONNumber(n *big.Int) bool {
	return n.CmpAbs(big.NewInt(stackitem.MaxAllowedInteger)) <= 0
}
