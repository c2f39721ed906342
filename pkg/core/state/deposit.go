package state

import (
	"errors"
	"math"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Deposit tracks an amount of GAS locked until a given block: used by the
// NEO native contract to hold a candidate's registration deposit and by
// the Notary native contract to hold a deposit backing assisted
// transactions.
type Deposit struct {
	Amount *big.Int
	Till   uint32
}

// ToStackItem converts d to a VM stack item.
func (d *Deposit) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(d.Amount),
		stackitem.NewBigInteger(big.NewInt(int64(d.Till))),
	}), nil
}

// FromStackItem fills d from a VM stack item produced by ToStackItem.
func (d *Deposit) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("state: Deposit stackitem is not a struct")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("state: invalid Deposit stackitem length")
	}

	amount, ok := s[0].Value().(*big.Int)
	if !ok {
		return errors.New("state: Deposit amount is not an integer")
	}

	till, ok := s[1].Value().(*big.Int)
	if !ok {
		return errors.New("state: Deposit till is not an integer")
	}
	if !till.IsInt64() || till.Sign() < 0 || till.Int64() > math.MaxUint32 {
		return errors.New("state: Deposit till out of uint32 range")
	}

	d.Amount = amount
	d.Till = uint32(till.Int64())
	return nil
}
