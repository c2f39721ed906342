package state

import (
	"errors"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// OracleRequest is a pending oracle request, as tracked by the Oracle
// native contract until a response satisfies it.
type OracleRequest struct {
	OriginalTxID      util.Uint256
	GasForResponse    int64
	URL               string
	Filter            *string
	CallbackContract  util.Uint160
	CallbackMethod    string
	UserData          []byte
}

// ToStackItem converts r to a VM stack item.
func (r *OracleRequest) ToStackItem() (stackitem.Item, error) {
	var filterItem stackitem.Item = stackitem.Null{}
	if r.Filter != nil {
		filterItem = stackitem.NewByteArray([]byte(*r.Filter))
	}
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteArray(r.OriginalTxID.BytesBE()),
		stackitem.NewBigInteger(big.NewInt(r.GasForResponse)),
		stackitem.NewByteArray([]byte(r.URL)),
		filterItem,
		stackitem.NewByteArray(r.CallbackContract.BytesBE()),
		stackitem.NewByteArray([]byte(r.CallbackMethod)),
		stackitem.NewByteArray(r.UserData),
	}), nil
}

// FromStackItem fills r from a VM stack item produced by ToStackItem.
func (r *OracleRequest) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("state: OracleRequest stackitem is not an array")
	}
	if len(arr) != 7 {
		return errors.New("state: invalid OracleRequest stackitem length")
	}

	txBytes, ok := arr[0].Value().([]byte)
	if !ok {
		return errors.New("state: OracleRequest txid is not a byte string")
	}
	txID, err := util.Uint256DecodeBytesBE(txBytes)
	if err != nil {
		return err
	}

	gas, ok := arr[1].Value().(*big.Int)
	if !ok {
		return errors.New("state: OracleRequest gas is not an integer")
	}

	urlBytes, ok := arr[2].Value().([]byte)
	if !ok {
		return errors.New("state: OracleRequest url is not a byte string")
	}

	var filter *string
	if _, isNull := arr[3].(stackitem.Null); !isNull {
		filterBytes, ok := arr[3].Value().([]byte)
		if !ok {
			return errors.New("state: OracleRequest filter is not a byte string")
		}
		f := string(filterBytes)
		filter = &f
	}

	contractBytes, ok := arr[4].Value().([]byte)
	if !ok {
		return errors.New("state: OracleRequest contract is not a byte string")
	}
	contract, err := util.Uint160DecodeBytesBE(contractBytes)
	if err != nil {
		return err
	}

	methodBytes, ok := arr[5].Value().([]byte)
	if !ok {
		return errors.New("state: OracleRequest method is not a byte string")
	}

	userData, ok := arr[6].Value().([]byte)
	if !ok {
		return errors.New("state: OracleRequest userdata is not a byte string")
	}

	r.OriginalTxID = txID
	r.GasForResponse = gas.Int64()
	r.URL = string(urlBytes)
	r.Filter = filter
	r.CallbackContract = contract
	r.CallbackMethod = string(methodBytes)
	r.UserData = userData
	return nil
}
