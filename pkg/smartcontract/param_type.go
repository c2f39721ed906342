package smartcontract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/encoding/address"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// ParamType represents the Neo VM parameter/return type of a contract
// method argument or return value; its values coincide with the
// corresponding stackitem.Type bytes.
type ParamType int

// Possible parameter types.
const (
	UnknownType          ParamType = -1
	AnyType              ParamType = 0x00
	SignatureType        ParamType = 0x10
	BoolType             ParamType = 0x11
	IntegerType          ParamType = 0x12
	Hash160Type          ParamType = 0x14
	Hash256Type          ParamType = 0x15
	ByteArrayType        ParamType = 0x16
	PublicKeyType        ParamType = 0x17
	StringType           ParamType = 0x18
	ArrayType            ParamType = 0x20
	MapType              ParamType = 0x22
	InteropInterfaceType ParamType = 0x30
	VoidType             ParamType = 0xff
)

// String implements the fmt.Stringer interface.
func (pt ParamType) String() string {
	switch pt {
	case AnyType:
		return "Any"
	case SignatureType:
		return "Signature"
	case BoolType:
		return "Boolean"
	case IntegerType:
		return "Integer"
	case Hash160Type:
		return "Hash160"
	case Hash256Type:
		return "Hash256"
	case ByteArrayType:
		return "ByteArray"
	case PublicKeyType:
		return "PublicKey"
	case StringType:
		return "String"
	case ArrayType:
		return "Array"
	case MapType:
		return "Map"
	case InteropInterfaceType:
		return "InteropInterface"
	case VoidType:
		return "Void"
	default:
		return "Unknown"
	}
}

// ParseParamType is a user-friendly string-to-ParamType parser, case
// insensitive and accepting the common synonyms used in CLI/ABI input.
func ParseParamType(typ string) (ParamType, error) {
	switch strings.ToLower(typ) {
	case "any":
		return AnyType, nil
	case "signature":
		return SignatureType, nil
	case "bool", "boolean":
		return BoolType, nil
	case "int", "integer":
		return IntegerType, nil
	case "hash160":
		return Hash160Type, nil
	case "hash256":
		return Hash256Type, nil
	case "bytes", "bytearray", "byte[]":
		return ByteArrayType, nil
	case "key", "publickey":
		return PublicKeyType, nil
	case "string":
		return StringType, nil
	case "array":
		return ArrayType, nil
	case "map":
		return MapType, nil
	case "interopinterface":
		return InteropInterfaceType, nil
	case "void":
		return VoidType, nil
	default:
		return UnknownType, fmt.Errorf("smartcontract: bad parameter type: %s", typ)
	}
}

// ConvertToParamType converts an integer taken from a manifest/ABI
// description into the matching ParamType, rejecting unassigned values.
func ConvertToParamType(val int) (ParamType, error) {
	switch ParamType(val) {
	case UnknownType, AnyType, SignatureType, BoolType, IntegerType,
		Hash160Type, Hash256Type, ByteArrayType, PublicKeyType,
		StringType, ArrayType, MapType, InteropInterfaceType, VoidType:
		return ParamType(val), nil
	default:
		return UnknownType, fmt.Errorf("smartcontract: unknown parameter type: %d", val)
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (pt ParamType) MarshalJSON() ([]byte, error) {
	return json.Marshal(pt.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (pt *ParamType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	p, err := ParseParamType(s)
	if err != nil {
		return err
	}
	*pt = p
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (pt ParamType) MarshalYAML() (interface{}, error) {
	return pt.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (pt *ParamType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	p, err := ParseParamType(s)
	if err != nil {
		return err
	}
	*pt = p
	return nil
}

// inferParamType guesses the most specific ParamType that a raw
// (unprefixed) CLI-supplied string value could represent.
func inferParamType(s string) ParamType {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntegerType
	}
	if s == "true" || s == "false" {
		return BoolType
	}
	if _, err := address.StringToUint160(s); err == nil {
		return Hash160Type
	}
	if len(s)%2 == 0 {
		if b, err := hex.DecodeString(s); err == nil {
			switch len(b) {
			case util.Uint160Size:
				return Hash160Type
			case util.Uint256Size:
				return Hash256Type
			case 33:
				if b[0] == 0x02 || b[0] == 0x03 {
					return PublicKeyType
				}
			case 64:
				return SignatureType
			}
			return ByteArrayType
		}
	}
	return StringType
}

// adjustValToType converts a raw CLI-supplied value to the Go value
// matching typ, validating it along the way.
func adjustValToType(typ ParamType, val string) (interface{}, error) {
	switch typ {
	case SignatureType:
		b, err := hex.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("smartcontract: invalid signature: %w", err)
		}
		if len(b) != 64 {
			return nil, fmt.Errorf("smartcontract: invalid signature length: %d", len(b))
		}
		return b, nil
	case BoolType:
		switch val {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("smartcontract: invalid boolean value: %s", val)
		}
	case IntegerType:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("smartcontract: invalid integer value: %w", err)
		}
		return n, nil
	case Hash160Type:
		u, err := address.StringToUint160(val)
		if err == nil {
			return u, nil
		}
		u, err = util.Uint160DecodeStringBE(val)
		if err != nil {
			return nil, fmt.Errorf("smartcontract: invalid Hash160: %w", err)
		}
		return u, nil
	case Hash256Type:
		u, err := util.Uint256DecodeStringBE(val)
		if err != nil {
			return nil, fmt.Errorf("smartcontract: invalid Hash256: %w", err)
		}
		return u, nil
	case ByteArrayType:
		b, err := hex.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("smartcontract: invalid byte array: %w", err)
		}
		return b, nil
	case PublicKeyType:
		if _, err := keys.NewPublicKeyFromString(val); err != nil {
			return nil, fmt.Errorf("smartcontract: invalid public key: %w", err)
		}
		return hex.DecodeString(val)
	case StringType:
		return val, nil
	default:
		return nil, fmt.Errorf("smartcontract: %s parameters can't be supplied from a plain string", typ)
	}
}
