package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
	"gopkg.in/yaml.v3"
)

// Parameter represents a method or event argument: its name, its VM type,
// and (optionally) a richer ExtendedType description used by tooling that
// understands struct/array/map shapes beyond the base ParamType.
type Parameter struct {
	Name         string
	Type         smartcontract.ParamType
	ExtendedType *ExtendedType
}

// NewParameter returns a new Parameter with the given name and type.
func NewParameter(name string, typ smartcontract.ParamType) Parameter {
	return Parameter{Name: name, Type: typ}
}

// parameterAux is Parameter's JSON shape.
type parameterAux struct {
	Name         string                  `json:"name"`
	Type         smartcontract.ParamType `json:"type"`
	ExtendedType *ExtendedType           `json:"extendedtype,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface.
func (p Parameter) MarshalJSON() ([]byte, error) {
	aux := parameterAux{Name: p.Name, Type: p.Type, ExtendedType: p.ExtendedType}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	var aux parameterAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Name = aux.Name
	p.Type = aux.Type
	p.ExtendedType = aux.ExtendedType
	return nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. It accepts
// either "name" or "field" as the key for the Name field (some manifest
// fixtures use "field" for struct members) and reconciles a top-level
// Type with one nested under ExtendedType when both are present.
func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name         string     `yaml:"name"`
		Field        string     `yaml:"field"`
		Type         *yaml.Node `yaml:"type"`
		ExtendedType *ExtendedType `yaml:"extendedtype"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	name := raw.Name
	if name == "" {
		name = raw.Field
	}

	var (
		typ    smartcontract.ParamType
		hasTyp bool
	)
	if raw.Type != nil {
		if err := raw.Type.Decode(&typ); err != nil {
			return err
		}
		hasTyp = true
	}

	if raw.ExtendedType != nil {
		if hasTyp && typ != raw.ExtendedType.Type {
			return errors.New("manifest: conflicting types in parameter declaration")
		}
		if !hasTyp {
			typ = raw.ExtendedType.Type
		}
	}

	p.Name = name
	p.Type = typ
	p.ExtendedType = raw.ExtendedType
	return nil
}

// ToStackItem converts p to a VM stack item.
func (p *Parameter) ToStackItem() stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(p.Name)),
		stackitem.NewBigInteger(big.NewInt(int64(p.Type))),
	})
}

// FromStackItem fills p from a VM stack item produced by ToStackItem.
func (p *Parameter) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid Parameter stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("manifest: invalid Parameter stackitem length")
	}
	name, ok := s[0].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid Parameter name type")
	}
	typBig, ok := s[1].Value().(*big.Int)
	if !ok {
		return errors.New("manifest: invalid Parameter type field type")
	}
	typ, err := smartcontract.ConvertToParamType(int(typBig.Int64()))
	if err != nil {
		return fmt.Errorf("manifest: invalid Parameter type value: %w", err)
	}
	p.Name = string(name)
	p.Type = typ
	p.ExtendedType = nil
	return nil
}

// Parameters is a list of Parameter.
type Parameters []Parameter

// AreValid checks that every parameter has a valid type (and, if present, a
// valid ExtendedType) and that no two parameters share the same name.
func (ps Parameters) AreValid() error {
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if p.Name == "" {
			return errors.New("manifest: empty parameter name")
		}
		if seen[p.Name] {
			return fmt.Errorf("manifest: duplicate parameter name: %s", p.Name)
		}
		seen[p.Name] = true
		if _, err := smartcontract.ConvertToParamType(int(p.Type)); err != nil {
			return fmt.Errorf("manifest: parameter %s: %w", p.Name, err)
		}
		if p.Type == smartcontract.VoidType {
			return fmt.Errorf("manifest: parameter %s can't have Void type", p.Name)
		}
		if p.ExtendedType != nil {
			if err := p.ExtendedType.IsValid(); err != nil {
				return fmt.Errorf("manifest: parameter %s: %w", p.Name, err)
			}
		}
	}
	return nil
}
