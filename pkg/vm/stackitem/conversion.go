package stackitem

import (
	"fmt"
	"math"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/util"
)

func wrongTypeErr(item Item, want string) error {
	return fmt.Errorf("invalid conversion: %s/%s", item.Type(), want)
}

func asBigInteger(item Item) (*big.Int, error) {
	b, ok := item.(*BigInteger)
	if !ok {
		return nil, wrongTypeErr(item, "Integer")
	}
	return b.value, nil
}

func asBytes(item Item) ([]byte, error) {
	switch t := item.(type) {
	case *ByteArray:
		return t.value, nil
	case *Buffer:
		return t.value, nil
	default:
		return nil, wrongTypeErr(item, "ByteString")
	}
}

// ToUint160 converts item to a util.Uint160, erroring if it isn't a byte
// string of the right length.
func ToUint160(item Item) (util.Uint160, error) {
	b, err := asBytes(item)
	if err != nil {
		return util.Uint160{}, err
	}
	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("%w: %s", ErrInvalidValue, err)
	}
	return u, nil
}

// ToUint256 converts item to a util.Uint256, erroring if it isn't a byte
// string of the right length.
func ToUint256(item Item) (util.Uint256, error) {
	b, err := asBytes(item)
	if err != nil {
		return util.Uint256{}, err
	}
	u, err := util.Uint256DecodeBytesBE(b)
	if err != nil {
		return util.Uint256{}, fmt.Errorf("%w: %s", ErrInvalidValue, err)
	}
	return u, nil
}

// ToInt32 converts item to an int32, erroring if the value is out of range.
func ToInt32(item Item) (int32, error) {
	v, err := asBigInteger(item)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64() < math.MinInt32 || v.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("bigint is not in int32 range")
	}
	return int32(v.Int64()), nil
}

// ToInt64 converts item to an int64, erroring if the value is out of range.
func ToInt64(item Item) (int64, error) {
	v, err := asBigInteger(item)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("bigint is not in int64 range")
	}
	return v.Int64(), nil
}

// ToUint8 converts item to a uint8, erroring if the value is out of range.
func ToUint8(item Item) (uint8, error) {
	v, err := asBigInteger(item)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() || v.Uint64() > math.MaxUint8 {
		return 0, fmt.Errorf("bigint is not in uint8 range")
	}
	return uint8(v.Uint64()), nil
}

// ToUint16 converts item to a uint16, erroring if the value is out of range.
func ToUint16(item Item) (uint16, error) {
	v, err := asBigInteger(item)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() || v.Uint64() > math.MaxUint16 {
		return 0, fmt.Errorf("bigint is not in uint16 range")
	}
	return uint16(v.Uint64()), nil
}

// ToUint32 converts item to a uint32, erroring if the value is out of range.
func ToUint32(item Item) (uint32, error) {
	v, err := asBigInteger(item)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() || v.Uint64() > math.MaxUint32 {
		return 0, fmt.Errorf("bigint is not in uint32 range")
	}
	return uint32(v.Uint64()), nil
}

// ToUint64 converts item to a uint64, erroring if the value is out of range.
func ToUint64(item Item) (uint64, error) {
	v, err := asBigInteger(item)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("bigint is not in uint64 range")
	}
	return v.Uint64(), nil
}
