package stackitem

import "fmt"

// Type represents a Neo VM stack item type.
type Type byte

// Stack item types, matching the wire/JSON encoding used by the VM and
// contract ABI.
const (
	AnyT        Type = 0x00
	PointerT    Type = 0x10
	BooleanT    Type = 0x20
	IntegerT    Type = 0x21
	ByteArrayT  Type = 0x28
	BufferT     Type = 0x30
	ArrayT      Type = 0x40
	StructT     Type = 0x41
	MapT        Type = 0x48
	InteropT    Type = 0x60
	_InvalidT   Type = 0xff
)

// String implements the fmt.Stringer interface.
func (t Type) String() string {
	switch t {
	case AnyT:
		return "Any"
	case PointerT:
		return "Pointer"
	case BooleanT:
		return "Boolean"
	case IntegerT:
		return "Integer"
	case ByteArrayT:
		return "ByteString"
	case BufferT:
		return "Buffer"
	case ArrayT:
		return "Array"
	case StructT:
		return "Struct"
	case MapT:
		return "Map"
	case InteropT:
		return "InteropInterface"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// FromString converts a type's name into its Type.
func FromString(s string) (Type, error) {
	switch s {
	case "Any":
		return AnyT, nil
	case "Pointer":
		return PointerT, nil
	case "Boolean":
		return BooleanT, nil
	case "Integer":
		return IntegerT, nil
	case "ByteString":
		return ByteArrayT, nil
	case "Buffer":
		return BufferT, nil
	case "Array":
		return ArrayT, nil
	case "Struct":
		return StructT, nil
	case "Map":
		return MapT, nil
	case "InteropInterface":
		return InteropT, nil
	default:
		return _InvalidT, fmt.Errorf("stackitem: unknown type %q", s)
	}
}

// IsValid denotes whether t is a valid, exhaustively-matched stack item type.
func (t Type) IsValid() bool {
	switch t {
	case AnyT, PointerT, BooleanT, IntegerT, ByteArrayT, BufferT, ArrayT, StructT, MapT, InteropT:
		return true
	default:
		return false
	}
}
