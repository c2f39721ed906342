package state

import (
	"errors"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// WhitelistFeeContract is a Policy native contract entry exempting (or
// discounting) a specific contract method call from the standard network
// fee calculation.
type WhitelistFeeContract struct {
	Hash   util.Uint160
	Method string
	ArgCnt int
	Fee    int64
}

// ToStackItem converts c to a VM stack item.
func (c *WhitelistFeeContract) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(c.Hash.BytesBE()),
		stackitem.NewByteArray([]byte(c.Method)),
		stackitem.NewBigInteger(big.NewInt(int64(c.ArgCnt))),
		stackitem.NewBigInteger(big.NewInt(c.Fee)),
	}), nil
}

// FromStackItem fills c from a VM stack item produced by ToStackItem.
func (c *WhitelistFeeContract) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("state: WhitelistFeeContract stackitem is not a struct")
	}
	if len(arr) != 4 {
		return errors.New("state: invalid struct length")
	}

	hashBytes, ok := arr[0].Value().([]byte)
	if !ok {
		return errors.New("state: invalid hash: not a byte string")
	}
	hash, err := util.Uint160DecodeBytesBE(hashBytes)
	if err != nil {
		return errors.New("state: invalid hash: " + err.Error())
	}

	methodBytes, ok := arr[1].Value().([]byte)
	if !ok {
		return errors.New("state: invalid method: not a byte string")
	}

	argCnt, ok := arr[2].Value().(*big.Int)
	if !ok {
		return errors.New("state: invalid argument count: not an integer")
	}

	fee, ok := arr[3].Value().(*big.Int)
	if !ok {
		return errors.New("state: invalid fee: not an integer")
	}

	c.Hash = hash
	c.Method = string(methodBytes)
	c.ArgCnt = int(argCnt.Int64())
	c.Fee = fee.Int64()
	return nil
}
