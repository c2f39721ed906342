package manifest

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// ExtendedType is a richer description of a parameter/return value's shape
// than the base ParamType alone can express: struct field layouts, array
// element types, map key/value types, byte array lengths and interop
// interface names.
type ExtendedType struct {
	Type       smartcontract.ParamType `json:"type" yaml:"type"`
	Name       string                  `json:"namedtype,omitempty" yaml:"namedtype,omitempty"`
	Fields     []Parameter             `json:"fields,omitempty" yaml:"fields,omitempty"`
	Key        smartcontract.ParamType `json:"key,omitempty" yaml:"key,omitempty"`
	Value      *ExtendedType           `json:"value,omitempty" yaml:"value,omitempty"`
	Interface  string                  `json:"interface,omitempty" yaml:"interface,omitempty"`
	Length     int                     `json:"length,omitempty" yaml:"length,omitempty"`
	ForbidNull bool                    `json:"forbidnull,omitempty" yaml:"forbidnull,omitempty"`
}

var extendedTypeNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.]*$`)

// validInterfaceNames lists the well-known interop interface names allowed
// in the Interface field of an InteropInterfaceType ExtendedType.
var validInterfaceNames = map[string]bool{
	"IIterator": true,
}

// validMapKeyTypes lists the primitive, comparable ParamTypes allowed as a
// map's key type.
var validMapKeyTypes = map[smartcontract.ParamType]bool{
	smartcontract.SignatureType: true,
	smartcontract.BoolType:      true,
	smartcontract.IntegerType:   true,
	smartcontract.Hash160Type:   true,
	smartcontract.Hash256Type:   true,
	smartcontract.ByteArrayType: true,
	smartcontract.PublicKeyType: true,
	smartcontract.StringType:    true,
}

// IsValid checks that e's fields are mutually consistent: that only the
// fields applicable to e.Type are set, and that any nested types are
// themselves valid.
func (e *ExtendedType) IsValid() error {
	if _, err := smartcontract.ConvertToParamType(int(e.Type)); err != nil {
		return fmt.Errorf("manifest: ExtendedType: %w", err)
	}

	if e.Name != "" {
		if e.Type != smartcontract.ArrayType {
			return errors.New("manifest: `ExtendedType.Name` field can not be specified")
		}
		if len(e.Name) > 64 {
			return errors.New("manifest: `ExtendedType.Name` must not be longer than 64 characters")
		}
		if !extendedTypeNameRe.MatchString(e.Name) {
			return errors.New("manifest: `ExtendedType.Name` must start with a letter and contain only letters, digits and dots")
		}
	}

	if e.Length != 0 && e.Type != smartcontract.ByteArrayType {
		return errors.New("manifest: `ExtendedType.Length` field can not be specified")
	}

	if e.ForbidNull && e.Type != smartcontract.MapType {
		return errors.New("manifest: `ExtendedType.ForbidNull` field can not be specified")
	}

	if e.Interface != "" && e.Type != smartcontract.InteropInterfaceType {
		return errors.New("manifest: `ExtendedType.Interface` field can not be specified")
	}
	if e.Type == smartcontract.InteropInterfaceType {
		if e.Interface == "" {
			return errors.New("manifest: `ExtendedType.Interface` field is required")
		}
		if !validInterfaceNames[e.Interface] {
			return errors.New("manifest: invalid value for `ExtendedType.Interface` field")
		}
	}

	if e.Key != smartcontract.AnyType && e.Type != smartcontract.MapType {
		return errors.New("manifest: `ExtendedType.Key` field can not be specified")
	}
	if e.Type == smartcontract.MapType {
		if e.Key == smartcontract.AnyType {
			return errors.New("manifest: `ExtendedType.Key` field is required")
		}
		if !validMapKeyTypes[e.Key] {
			return errors.New("manifest: `ExtendedType.Key` type is not allowed for map definitions")
		}
	}

	if e.Value != nil && (e.Type != smartcontract.ArrayType || e.Name != "") {
		return errors.New("manifest: `ExtendedType.Value` field can not be specified")
	}
	if e.Fields != nil && (e.Type != smartcontract.ArrayType || e.Name == "") {
		return errors.New("manifest: `ExtendedType.Fields` field can not be specified")
	}

	if e.Type == smartcontract.ArrayType {
		if e.Name != "" {
			if len(e.Fields) == 0 {
				return errors.New("manifest: `ExtendedType.Fields` field is required")
			}
			for i := range e.Fields {
				if err := e.Fields[i].ExtendedTypeValid(); err != nil {
					return err
				}
			}
		} else {
			if e.Value == nil {
				return errors.New("manifest: `ExtendedType.Value` field is required")
			}
			if err := e.Value.IsValid(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExtendedTypeValid validates a Parameter's Type/ExtendedType pair as used
// within a struct-mode ExtendedType's Fields.
func (p *Parameter) ExtendedTypeValid() error {
	if _, err := smartcontract.ConvertToParamType(int(p.Type)); err != nil {
		return fmt.Errorf("manifest: field %s: %w", p.Name, err)
	}
	if p.ExtendedType != nil {
		if err := p.ExtendedType.IsValid(); err != nil {
			return fmt.Errorf("manifest: field %s: %w", p.Name, err)
		}
	}
	return nil
}

// ToStackItem converts e to a VM stack item.
func (e *ExtendedType) ToStackItem() stackitem.Item {
	m := stackitem.NewMap()
	m.Add(stackitem.NewByteArray([]byte("type")), stackitem.NewBigInteger(big.NewInt(int64(e.Type))))

	switch e.Type {
	case smartcontract.MapType:
		m.Add(stackitem.NewByteArray([]byte("forbidnull")), stackitem.NewBool(e.ForbidNull))
		m.Add(stackitem.NewByteArray([]byte("key")), stackitem.NewBigInteger(big.NewInt(int64(e.Key))))
	case smartcontract.ArrayType:
		if e.Name != "" {
			m.Add(stackitem.NewByteArray([]byte("namedtype")), stackitem.NewByteArray([]byte(e.Name)))
			fields := make([]stackitem.Item, len(e.Fields))
			for i, f := range e.Fields {
				fields[i] = stackitem.NewStruct([]stackitem.Item{
					stackitem.NewByteArray([]byte(f.Name)),
					stackitem.NewBigInteger(big.NewInt(int64(f.Type))),
				})
			}
			m.Add(stackitem.NewByteArray([]byte("fields")), stackitem.NewArray(fields))
		} else {
			var val stackitem.Item = stackitem.Null{}
			if e.Value != nil {
				val = e.Value.ToStackItem()
			}
			m.Add(stackitem.NewByteArray([]byte("value")), val)
		}
	case smartcontract.ByteArrayType:
		m.Add(stackitem.NewByteArray([]byte("length")), stackitem.NewBigInteger(big.NewInt(int64(e.Length))))
	case smartcontract.InteropInterfaceType:
		m.Add(stackitem.NewByteArray([]byte("interface")), stackitem.NewByteArray([]byte(e.Interface)))
	}
	return m
}

// mapLookup finds the value paired with the given ByteArray key in m, or
// returns (nil, false) if absent.
func mapLookup(m *stackitem.Map, key string) (stackitem.Item, bool) {
	for _, e := range m.Value().([]stackitem.MapElement) {
		if k, ok := e.Key.Value().([]byte); ok && string(k) == key {
			return e.Value, true
		}
	}
	return nil, false
}

// FromStackItem fills e from a VM stack item produced by ToStackItem.
func (e *ExtendedType) FromStackItem(item stackitem.Item) error {
	if item == nil {
		return errors.New("manifest: expected non-nil item")
	}
	m, ok := item.(*stackitem.Map)
	if !ok {
		return errors.New("manifest: invalid ExtendedType stackitem type")
	}

	typItem, ok := mapLookup(m, "type")
	if !ok {
		return errors.New("manifest: incorrect type")
	}
	typBig, ok := typItem.Value().(*big.Int)
	if !ok {
		return errors.New("manifest: type must be integer")
	}
	typ, err := smartcontract.ConvertToParamType(int(typBig.Int64()))
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	*e = ExtendedType{Type: typ}

	if v, ok := mapLookup(m, "namedtype"); ok {
		b, ok := v.Value().([]byte)
		if !ok {
			return errors.New("manifest: can't get namedtype")
		}
		e.Name = string(b)
	}

	if v, ok := mapLookup(m, "length"); ok {
		b, ok := v.Value().(*big.Int)
		if !ok {
			return errors.New("manifest: length must be integer or null")
		}
		e.Length = int(b.Int64())
	}

	if v, ok := mapLookup(m, "forbidnull"); ok {
		b, ok := v.Value().(bool)
		if !ok {
			return errors.New("manifest: forbidnull must be boolean or null")
		}
		e.ForbidNull = b
	}

	if v, ok := mapLookup(m, "interface"); ok {
		b, ok := v.Value().([]byte)
		if !ok {
			return errors.New("manifest: interface must be bytearray or null")
		}
		e.Interface = string(b)
	}

	if v, ok := mapLookup(m, "key"); ok {
		b, ok := v.Value().(*big.Int)
		if !ok {
			return errors.New("manifest: key must be integer or null")
		}
		kt, err := smartcontract.ConvertToParamType(int(b.Int64()))
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		e.Key = kt
	}

	if v, ok := mapLookup(m, "value"); ok {
		val := &ExtendedType{}
		if err := val.FromStackItem(v); err != nil {
			return fmt.Errorf("manifest: can't get value: %w", err)
		}
		e.Value = val
	}

	if v, ok := mapLookup(m, "fields"); ok {
		arr, ok := v.Value().([]stackitem.Item)
		if !ok {
			return errors.New("manifest: fields must be array or null")
		}
		fields := make([]Parameter, len(arr))
		for i, fi := range arr {
			if err := fields[i].FromStackItem(fi); err != nil {
				return err
			}
		}
		e.Fields = fields
	}

	return nil
}
