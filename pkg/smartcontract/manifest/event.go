package manifest

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Event describes a single notification an executing contract may emit.
type Event struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// IsValid checks that e has a non-empty name and a set of parameters with
// unique names and valid types.
func (e *Event) IsValid() error {
	if e.Name == "" {
		return errors.New("manifest: empty event name")
	}
	return Parameters(e.Parameters).AreValid()
}

// ToStackItem converts e to a VM stack item.
func (e *Event) ToStackItem() stackitem.Item {
	params := make([]stackitem.Item, len(e.Parameters))
	for i := range e.Parameters {
		params[i] = e.Parameters[i].ToStackItem()
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(e.Name)),
		stackitem.NewArray(params),
	})
}

// FromStackItem fills e from a VM stack item produced by ToStackItem.
func (e *Event) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid Event stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("manifest: invalid Event stackitem length")
	}
	name, ok := s[0].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid Event name type")
	}
	params, ok := s[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid Event parameters type")
	}
	parsedParams := make([]Parameter, len(params))
	for i := range params {
		if err := parsedParams[i].FromStackItem(params[i]); err != nil {
			return err
		}
	}
	e.Name = string(name)
	e.Parameters = parsedParams
	return nil
}
