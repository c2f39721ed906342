package native

import (
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// registerMethods wires the contract's Go methods into its Method/Metadata
// ABI so they're dispatchable by name and argument count.
func (l *Ledger) registerMethods() {
	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "currentHash",
			ReturnType: smartcontract.Hash256Type,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			hash, err := l.CurrentHash(ic.DAO)
			if err != nil {
				panic(err)
			}
			return stackitem.NewByteArray(hash.BytesBE())
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "currentIndex",
			ReturnType: smartcontract.IntegerType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			index, err := l.CurrentIndex(ic.DAO)
			if err != nil {
				panic(err)
			}
			return stackitem.NewBigInteger(big.NewInt(int64(index)))
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "getBlock",
			Parameters: []manifest.Parameter{manifest.NewParameter("indexOrHash", smartcontract.ByteArrayType)},
			ReturnType: smartcontract.ArrayType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			b := l.getBlockByIndexOrHash(ic, args[0])
			if b == nil {
				return stackitem.Null{}
			}
			return blockToStackItem(b)
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "getTransaction",
			Parameters: []manifest.Parameter{manifest.NewParameter("hash", smartcontract.Hash256Type)},
			ReturnType: smartcontract.ArrayType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			hash, err := stackitem.ToUint256(args[0])
			if err != nil {
				panic(err)
			}
			tx := l.GetTransaction(ic.DAO, hash, ic.MaxTraceableBlocks, currentHeightOf(ic))
			if tx == nil {
				return stackitem.Null{}
			}
			return transactionToStackItem(tx)
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name: "getTransactionFromBlock",
			Parameters: []manifest.Parameter{
				manifest.NewParameter("blockIndexOrHash", smartcontract.ByteArrayType),
				manifest.NewParameter("txIndex", smartcontract.IntegerType),
			},
			ReturnType: smartcontract.ArrayType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			b := l.getBlockByIndexOrHash(ic, args[0])
			if b == nil {
				return stackitem.Null{}
			}
			txIndex, err := stackitem.ToInt32(args[1])
			if err != nil {
				panic(err)
			}
			tx, err := l.GetTransactionFromBlock(ic.DAO, b.Hash(), int(txIndex), ic.MaxTraceableBlocks, currentHeightOf(ic))
			if err != nil {
				panic(err)
			}
			if tx == nil {
				return stackitem.Null{}
			}
			return transactionToStackItem(tx)
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "getTransactionHeight",
			Parameters: []manifest.Parameter{manifest.NewParameter("hash", smartcontract.Hash256Type)},
			ReturnType: smartcontract.IntegerType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			hash, err := stackitem.ToUint256(args[0])
			if err != nil {
				panic(err)
			}
			height, err := l.GetTransactionHeight(ic.DAO, hash, ic.MaxTraceableBlocks, currentHeightOf(ic))
			if err != nil {
				panic(err)
			}
			return stackitem.NewBigInteger(big.NewInt(height))
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "getTransactionVMState",
			Parameters: []manifest.Parameter{manifest.NewParameter("hash", smartcontract.Hash256Type)},
			ReturnType: smartcontract.IntegerType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			hash, err := stackitem.ToUint256(args[0])
			if err != nil {
				panic(err)
			}
			state := l.GetTransactionVMState(ic.DAO, hash, ic.MaxTraceableBlocks, currentHeightOf(ic))
			return stackitem.NewBigInteger(big.NewInt(int64(state)))
		},
	})

	l.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "getTransactionSigners",
			Parameters: []manifest.Parameter{manifest.NewParameter("hash", smartcontract.Hash256Type)},
			ReturnType: smartcontract.ArrayType,
			Safe:       true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			hash, err := stackitem.ToUint256(args[0])
			if err != nil {
				panic(err)
			}
			signers, err := l.GetTransactionSigners(ic.DAO, hash)
			if err != nil {
				panic(err)
			}
			return signersToStackItem(signers)
		},
	})
}

// getBlockByIndexOrHash resolves the "indexOrHash" argument shared by
// several methods: a 32-byte value is a block hash, anything shorter is
// read as a block index.
func (l *Ledger) getBlockByIndexOrHash(ic *interop.Context, item stackitem.Item) *block.Block {
	if raw, ok := item.Value().([]byte); ok && len(raw) == 32 {
		hash, err := stackitem.ToUint256(item)
		if err != nil {
			panic(err)
		}
		return l.GetBlock(ic.DAO, hash, ic.MaxTraceableBlocks, currentHeightOf(ic))
	}
	index, err := stackitem.ToUint32(item)
	if err != nil {
		panic(err)
	}
	return l.GetBlockByIndex(ic.DAO, index, ic.MaxTraceableBlocks, currentHeightOf(ic))
}

func currentHeightOf(ic *interop.Context) uint32 {
	if ic.Block == nil {
		return 0
	}
	return ic.Block.Index
}
