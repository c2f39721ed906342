// Package stackitem implements the Neo VM's stack item type system:
// the values that live on the evaluation stack and in contract storage.
package stackitem

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/neocorelabs/neo-core/pkg/encoding/bigint"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// Size limits enforced by the VM and its serialization format.
const (
	// MaxBigIntegerSizeBits is the maximum size of an Integer item, in bits.
	MaxBigIntegerSizeBits = 32 * 8
	// MaxByteArrayComparableSize is the maximum length of a ByteString/Buffer
	// that can be compared with Equals; longer items make comparison panic.
	MaxByteArrayComparableSize = 64
	// MaxComparableNumOfItems bounds the number of items Equals will walk
	// through for nested Array/Struct/Map comparisons.
	MaxComparableNumOfItems = 2048
	// MaxArraySize is the maximum number of elements an Array/Struct/Map may hold.
	MaxArraySize = 1024
	// MaxSize is the maximum serialized size of a single stack item.
	MaxSize = 2 * 1024 * 1024
	// MaxSerialized is a count of minimal-sized elements that is guaranteed
	// to push a Serialize call past MaxSize; useful for building oversized
	// test fixtures.
	MaxSerialized = MaxSize / 8
	// MaxAllowedInteger is the largest integer value representable in JSON
	// without losing precision (2^53 - 1).
	MaxAllowedInteger = 1<<53 - 1
)

// ErrInvalidValue is returned when an item's value doesn't fit the target conversion.
var ErrInvalidValue = errors.New("invalid value")

// ErrTooBig is returned by Serialize when an item exceeds MaxSize.
var ErrTooBig = errors.New("too big item")

// Convertible is implemented by domain types that can round-trip through
// the VM stack item representation, e.g. for native contract storage or
// contract call argument/return marshaling.
type Convertible interface {
	ToStackItem() (Item, error)
	FromStackItem(Item) error
}

// Item is a Neo VM stack item.
type Item interface {
	// Value returns the Go value this item wraps.
	Value() interface{}
	// Dup returns a shallow duplicate: compound items share their contents
	// (and thus reference-equal sub-items) with the original.
	Dup() Item
	// ToBool converts the item to a boolean, per VM truthiness rules.
	ToBool() bool
	// Type reports the item's stack item type.
	Type() Type
	// Equals performs the "equal" comparison the VM's EQUAL opcode implements.
	Equals(Item) bool
	// String returns the item's type name (not its value), matching the VM's
	// internal debug representation.
	String() string
}

// Make wraps v, one of a number of supported Go kinds, in the matching Item.
// It panics if v's type isn't supported.
func Make(v interface{}) Item {
	switch val := v.(type) {
	case Item:
		return val
	case int:
		return NewBigInteger(big.NewInt(int64(val)))
	case int8:
		return NewBigInteger(big.NewInt(int64(val)))
	case int16:
		return NewBigInteger(big.NewInt(int64(val)))
	case int32:
		return NewBigInteger(big.NewInt(int64(val)))
	case int64:
		return NewBigInteger(big.NewInt(val))
	case uint8:
		return NewBigInteger(big.NewInt(int64(val)))
	case uint16:
		return NewBigInteger(big.NewInt(int64(val)))
	case uint32:
		return NewBigInteger(big.NewInt(int64(val)))
	case uint64:
		return NewBigInteger(new(big.Int).SetUint64(val))
	case *big.Int:
		return NewBigInteger(val)
	case []byte:
		return NewByteArray(val)
	case string:
		return NewByteArray([]byte(val))
	case bool:
		return NewBool(val)
	case []Item:
		return NewArray(val)
	case util.Uint160:
		return NewByteArray(val.BytesBE())
	case util.Uint256:
		return NewByteArray(val.BytesBE())
	case nil:
		panic("stackitem: cannot make an item from nil")
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return NewBigInteger(big.NewInt(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return NewBigInteger(new(big.Int).SetUint64(rv.Uint()))
		case reflect.Bool:
			return NewBool(rv.Bool())
		case reflect.String:
			return NewByteArray([]byte(rv.String()))
		case reflect.Slice:
			items := make([]Item, rv.Len())
			for i := range items {
				items[i] = Make(rv.Index(i).Interface())
			}
			return NewArray(items)
		}
		panic(fmt.Sprintf("stackitem: unsupported value type %T", v))
	}
}

// BigInteger is an Integer stack item.
type BigInteger struct {
	value *big.Int
}

// NewBigInteger creates a BigInteger item from v, panicking if v overflows
// MaxBigIntegerSizeBits.
func NewBigInteger(v *big.Int) *BigInteger {
	if bits := len(bigint.ToBytes(v)) * 8; bits > MaxBigIntegerSizeBits {
		panic("stackitem: integer too big")
	}
	return &BigInteger{value: v}
}

// Value implements the Item interface.
func (i *BigInteger) Value() interface{} { return i.value }

// Dup implements the Item interface.
func (i *BigInteger) Dup() Item { return &BigInteger{value: new(big.Int).Set(i.value)} }

// ToBool implements the Item interface.
func (i *BigInteger) ToBool() bool { return i.value.Sign() != 0 }

// Type implements the Item interface.
func (i *BigInteger) Type() Type { return IntegerT }

// String implements the Item interface.
func (i *BigInteger) String() string { return "BigInteger" }

// Equals implements the Item interface.
func (i *BigInteger) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*BigInteger)
	if !ok || val == nil {
		return false
	}
	return i.value.Cmp(val.value) == 0
}

// MarshalJSON implements the json.Marshaler interface.
func (i *BigInteger) MarshalJSON() ([]byte, error) {
	return []byte(i.value.String()), nil
}

// Bool is a Boolean stack item.
type Bool struct {
	value bool
}

// NewBool creates a Bool item.
func NewBool(v bool) *Bool { return &Bool{value: v} }

// Value implements the Item interface.
func (i *Bool) Value() interface{} { return i.value }

// Dup implements the Item interface.
func (i *Bool) Dup() Item { return &Bool{value: i.value} }

// ToBool implements the Item interface.
func (i *Bool) ToBool() bool { return i.value }

// Type implements the Item interface.
func (i *Bool) Type() Type { return BooleanT }

// String implements the Item interface.
func (i *Bool) String() string { return "Boolean" }

// Equals implements the Item interface.
func (i *Bool) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*Bool)
	if !ok || val == nil {
		return false
	}
	return i.value == val.value
}

// MarshalJSON implements the json.Marshaler interface.
func (i *Bool) MarshalJSON() ([]byte, error) {
	if i.value {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

// ByteArray is a ByteString stack item, the VM's immutable byte string type.
type ByteArray struct {
	value []byte
}

// NewByteArray creates a ByteArray item. A nil slice is normalized to empty.
func NewByteArray(b []byte) *ByteArray {
	if b == nil {
		b = []byte{}
	}
	return &ByteArray{value: b}
}

// Value implements the Item interface.
func (i *ByteArray) Value() interface{} { return i.value }

// Dup implements the Item interface.
func (i *ByteArray) Dup() Item { return i }

// ToBool implements the Item interface.
func (i *ByteArray) ToBool() bool {
	for _, b := range i.value {
		if b != 0 {
			return true
		}
	}
	return false
}

// Type implements the Item interface.
func (i *ByteArray) Type() Type { return ByteArrayT }

// String implements the Item interface.
func (i *ByteArray) String() string { return "ByteString" }

// Equals implements the Item interface.
func (i *ByteArray) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*ByteArray)
	if !ok || val == nil {
		return false
	}
	if len(i.value) > MaxByteArrayComparableSize || len(val.value) > MaxByteArrayComparableSize {
		panic("stackitem: byte array too big for comparison")
	}
	return bytesEqual(i.value, val.value)
}

// MarshalJSON implements the json.Marshaler interface.
func (i *ByteArray) MarshalJSON() ([]byte, error) {
	return marshalHexString(i.value)
}

// Buffer is a mutable byte buffer stack item.
type Buffer struct {
	value []byte
}

// NewBuffer creates a Buffer item. A nil slice is normalized to empty.
func NewBuffer(b []byte) *Buffer {
	if b == nil {
		b = []byte{}
	}
	return &Buffer{value: b}
}

// Value implements the Item interface.
func (i *Buffer) Value() interface{} { return i.value }

// Dup implements the Item interface, deep-copying the underlying bytes
// since Buffer is mutable.
func (i *Buffer) Dup() Item {
	b := make([]byte, len(i.value))
	copy(b, i.value)
	return &Buffer{value: b}
}

// ToBool implements the Item interface.
func (i *Buffer) ToBool() bool {
	for _, b := range i.value {
		if b != 0 {
			return true
		}
	}
	return false
}

// Type implements the Item interface.
func (i *Buffer) Type() Type { return BufferT }

// String implements the Item interface.
func (i *Buffer) String() string { return "Buffer" }

// Equals implements the Item interface: Buffer is reference-compared only.
func (i *Buffer) Equals(s Item) bool { return i == s }

// MarshalJSON implements the json.Marshaler interface.
func (i *Buffer) MarshalJSON() ([]byte, error) {
	return marshalHexString(i.value)
}

// Array is a mutable ordered list stack item, compared by reference.
type Array struct {
	value []Item
}

// NewArray creates an Array item.
func NewArray(items []Item) *Array { return &Array{value: items} }

// Value implements the Item interface.
func (i *Array) Value() interface{} { return i.value }

// Dup implements the Item interface: a shallow copy sharing elements.
func (i *Array) Dup() Item {
	items := make([]Item, len(i.value))
	copy(items, i.value)
	return &Array{value: items}
}

// ToBool implements the Item interface: arrays are always truthy.
func (i *Array) ToBool() bool { return true }

// Type implements the Item interface.
func (i *Array) Type() Type { return ArrayT }

// String implements the Item interface.
func (i *Array) String() string { return "Array" }

// Append adds v to the end of the array.
func (i *Array) Append(v Item) { i.value = append(i.value, v) }

// Len returns the number of elements.
func (i *Array) Len() int { return len(i.value) }

// Equals implements the Item interface: arrays are only reference-equal.
func (i *Array) Equals(s Item) bool { return i == s }

// MarshalJSON implements the json.Marshaler interface.
func (i *Array) MarshalJSON() ([]byte, error) {
	return marshalItemsJSON(i.value)
}

// Struct is an ordered list stack item compared by deep structural equality.
type Struct struct {
	value []Item
}

// NewStruct creates a Struct item.
func NewStruct(items []Item) *Struct { return &Struct{value: items} }

// Value implements the Item interface.
func (i *Struct) Value() interface{} { return i.value }

// Dup implements the Item interface: a shallow copy sharing elements.
func (i *Struct) Dup() Item {
	items := make([]Item, len(i.value))
	copy(items, i.value)
	return &Struct{value: items}
}

// ToBool implements the Item interface: structs are always truthy.
func (i *Struct) ToBool() bool { return true }

// Type implements the Item interface.
func (i *Struct) Type() Type { return StructT }

// String implements the Item interface.
func (i *Struct) String() string { return "Struct" }

// Len returns the number of fields.
func (i *Struct) Len() int { return len(i.value) }

// Clone performs a deep copy of the struct, recursing into nested structs
// and sharing every other item by reference. limit bounds the number of
// nested Struct values Clone may descend into; it errors out instead of
// exceeding that budget.
func (i *Struct) Clone(limit int) (*Struct, error) {
	res := &Struct{value: make([]Item, len(i.value))}
	for idx, elem := range i.value {
		st, ok := elem.(*Struct)
		if !ok {
			res.value[idx] = elem
			continue
		}
		if limit <= 0 {
			return nil, errors.New("stackitem: clone budget exceeded")
		}
		limit--
		cl, err := st.Clone(limit)
		if err != nil {
			return nil, err
		}
		res.value[idx] = cl
	}
	return res, nil
}

// Equals implements the Item interface: structs compare by deep structural
// equality, bounded by MaxComparableNumOfItems total visited items.
func (i *Struct) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*Struct)
	if !ok || val == nil {
		return false
	}
	count := 0
	return structEquals(i, val, &count)
}

func structEquals(a, b *Struct, count *int) bool {
	*count++
	if *count > MaxComparableNumOfItems {
		panic("stackitem: too many items to compare")
	}
	if len(a.value) != len(b.value) {
		return false
	}
	for idx := range a.value {
		ai, bi := a.value[idx], b.value[idx]
		as, aok := ai.(*Struct)
		bs, bok := bi.(*Struct)
		if aok != bok {
			return false
		}
		if aok {
			if !structEquals(as, bs, count) {
				return false
			}
			continue
		}
		*count++
		if *count > MaxComparableNumOfItems {
			panic("stackitem: too many items to compare")
		}
		if ai == nil || !ai.Equals(bi) {
			return false
		}
	}
	return true
}

// MarshalJSON implements the json.Marshaler interface.
func (i *Struct) MarshalJSON() ([]byte, error) {
	return marshalItemsJSON(i.value)
}

// MapElement is a single key/value pair stored in a Map.
type MapElement struct {
	Key   Item
	Value Item
}

// Map is a mutable key/value stack item, compared by reference.
type Map struct {
	value []MapElement
}

// NewMap creates an empty Map item.
func NewMap() *Map { return &Map{} }

// NewMapWithValue creates a Map item with the given contents.
func NewMapWithValue(v []MapElement) *Map { return &Map{value: v} }

// Value implements the Item interface.
func (i *Map) Value() interface{} { return i.value }

// Dup implements the Item interface: a shallow copy sharing keys/values.
func (i *Map) Dup() Item {
	m := make([]MapElement, len(i.value))
	copy(m, i.value)
	return &Map{value: m}
}

// ToBool implements the Item interface: maps are always truthy.
func (i *Map) ToBool() bool { return true }

// Type implements the Item interface.
func (i *Map) Type() Type { return MapT }

// String implements the Item interface.
func (i *Map) String() string { return "Map" }

// Len returns the number of key/value pairs.
func (i *Map) Len() int { return len(i.value) }

// Index returns the position of key in the map, or -1 if absent.
func (i *Map) Index(key Item) int {
	for idx, e := range i.value {
		if e.Key.Equals(key) {
			return idx
		}
	}
	return -1
}

// Add inserts or overwrites the value for key.
func (i *Map) Add(key, value Item) {
	if idx := i.Index(key); idx >= 0 {
		i.value[idx].Value = value
		return
	}
	i.value = append(i.value, MapElement{Key: key, Value: value})
}

// Drop removes the entry for key, if present.
func (i *Map) Drop(key Item) {
	idx := i.Index(key)
	if idx < 0 {
		return
	}
	i.value = append(i.value[:idx], i.value[idx+1:]...)
}

// Equals implements the Item interface: maps are only reference-equal.
func (i *Map) Equals(s Item) bool { return i == s }

// MarshalJSON implements the json.Marshaler interface.
func (i *Map) MarshalJSON() ([]byte, error) {
	return marshalMapJSON(i.value)
}

// Interop is a stack item wrapping an opaque Go value (a native interop
// handle, e.g. an iterator).
type Interop struct {
	value interface{}
}

// NewInterop creates an Interop item.
func NewInterop(v interface{}) *Interop { return &Interop{value: v} }

// Value implements the Item interface.
func (i *Interop) Value() interface{} { return i.value }

// Dup implements the Item interface.
func (i *Interop) Dup() Item { return i }

// ToBool implements the Item interface.
func (i *Interop) ToBool() bool { return true }

// Type implements the Item interface.
func (i *Interop) Type() Type { return InteropT }

// String implements the Item interface.
func (i *Interop) String() string { return "Interop" }

// Equals implements the Item interface: wrapped values compare by ==.
func (i *Interop) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*Interop)
	if !ok || val == nil {
		return false
	}
	return i.value == val.value
}

// MarshalJSON implements the json.Marshaler interface.
func (i *Interop) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%v", i.value)), nil
}

// Pointer is an instruction-pointer stack item, used for CALLA.
type Pointer struct {
	pos    int
	script []byte
}

// NewPointer creates a Pointer item referring to position pos in script.
func NewPointer(pos int, script []byte) *Pointer {
	return &Pointer{pos: pos, script: script}
}

// Value implements the Item interface.
func (i *Pointer) Value() interface{} { return i.pos }

// Position returns the instruction offset the pointer refers to.
func (i *Pointer) Position() int { return i.pos }

// Dup implements the Item interface.
func (i *Pointer) Dup() Item { return i }

// ToBool implements the Item interface.
func (i *Pointer) ToBool() bool { return true }

// Type implements the Item interface.
func (i *Pointer) Type() Type { return PointerT }

// String implements the Item interface.
func (i *Pointer) String() string { return "Pointer" }

// Equals implements the Item interface.
func (i *Pointer) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*Pointer)
	if !ok || val == nil {
		return false
	}
	return i.pos == val.pos && bytesEqual(i.script, val.script)
}

// Null is the VM's null value.
type Null struct{}

// Value implements the Item interface.
func (Null) Value() interface{} { return nil }

// Dup implements the Item interface.
func (n Null) Dup() Item { return n }

// ToBool implements the Item interface.
func (Null) ToBool() bool { return false }

// Type implements the Item interface.
func (Null) Type() Type { return AnyT }

// String implements the Item interface.
func (Null) String() string { return "Null" }

// Equals implements the Item interface: null equals only null.
func (n Null) Equals(s Item) bool {
	_, ok := s.(Null)
	return ok
}

// MarshalJSON implements the json.Marshaler interface.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// DeepCopy recursively clones item, preserving internal shared/cyclic
// references to the same sub-item as repeated references to the same
// copy (tracked via seen).
func DeepCopy(item Item) Item {
	return deepCopy(item, make(map[Item]Item))
}

func deepCopy(item Item, seen map[Item]Item) Item {
	if item == nil {
		return nil
	}
	if cp, ok := seen[item]; ok {
		return cp
	}
	switch t := item.(type) {
	case *BigInteger:
		return &BigInteger{value: new(big.Int).Set(t.value)}
	case *Bool:
		return &Bool{value: t.value}
	case *ByteArray:
		b := make([]byte, len(t.value))
		copy(b, t.value)
		return &ByteArray{value: b}
	case *Buffer:
		b := make([]byte, len(t.value))
		copy(b, t.value)
		return &Buffer{value: b}
	case *Pointer:
		return &Pointer{pos: t.pos, script: t.script}
	case *Interop:
		return &Interop{value: t.value}
	case Null:
		return Null{}
	case *Array:
		cp := &Array{value: make([]Item, len(t.value))}
		seen[item] = cp
		for idx, el := range t.value {
			cp.value[idx] = deepCopy(el, seen)
		}
		return cp
	case *Struct:
		cp := &Struct{value: make([]Item, len(t.value))}
		seen[item] = cp
		for idx, el := range t.value {
			cp.value[idx] = deepCopy(el, seen)
		}
		return cp
	case *Map:
		cp := &Map{value: make([]MapElement, len(t.value))}
		seen[item] = cp
		for idx, el := range t.value {
			cp.value[idx] = MapElement{
				Key:   deepCopy(el.Key, seen),
				Value: deepCopy(el.Value, seen),
			}
		}
		return cp
	default:
		return item
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
