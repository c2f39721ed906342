package stackitem

import "math/big"

// getBigArray builds a deeply nested Struct tree depth levels deep, each
// level branching into a handful of integer leaves, for serialization
// benchmarks that want a realistically large item.
func getBigArray(depth int) *Struct {
	if depth <= 0 {
		return NewStruct([]Item{
			NewBigInteger(big.NewInt(1)),
			NewBigInteger(big.NewInt(2)),
			NewBigInteger(big.NewInt(3)),
		})
	}
	return NewStruct([]Item{
		getBigArray(depth - 1),
		NewBigInteger(big.NewInt(int64(depth))),
	})
}
