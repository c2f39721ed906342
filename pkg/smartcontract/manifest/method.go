package manifest

import (
	"errors"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Method describes a single contract method exposed through its ABI.
type Method struct {
	Name       string      `json:"name"`
	Offset     int         `json:"offset"`
	Parameters []Parameter `json:"parameters"`
	ReturnType smartcontract.ParamType `json:"returntype"`
	Safe       bool        `json:"safe"`
}

// ToStackItem converts m to a VM stack item.
func (m *Method) ToStackItem() stackitem.Item {
	params := make([]stackitem.Item, len(m.Parameters))
	for i := range m.Parameters {
		params[i] = m.Parameters[i].ToStackItem()
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(m.Name)),
		stackitem.NewArray(params),
		stackitem.NewBigInteger(big.NewInt(int64(m.ReturnType))),
		stackitem.NewBigInteger(big.NewInt(int64(m.Offset))),
		stackitem.NewBool(m.Safe),
	})
}

// FromStackItem fills m from a VM stack item produced by ToStackItem.
func (m *Method) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid Method stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 5 {
		return errors.New("manifest: invalid Method stackitem length")
	}
	name, ok := s[0].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid Method name type")
	}
	params, ok := s[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid Method parameters type")
	}
	parsedParams := make([]Parameter, len(params))
	for i := range params {
		if err := parsedParams[i].FromStackItem(params[i]); err != nil {
			return err
		}
	}
	retBig, ok := s[2].Value().(*big.Int)
	if !ok {
		return errors.New("manifest: invalid Method return type")
	}
	retTyp, err := smartcontract.ConvertToParamType(int(retBig.Int64()))
	if err != nil {
		return err
	}
	offsetBig, ok := s[3].Value().(*big.Int)
	if !ok {
		return errors.New("manifest: invalid Method offset")
	}
	safe, ok := s[4].Value().(bool)
	if !ok {
		return errors.New("manifest: invalid Method safe flag")
	}
	m.Name = string(name)
	m.Parameters = parsedParams
	m.ReturnType = retTyp
	m.Offset = int(offsetBig.Int64())
	m.Safe = safe
	return nil
}
