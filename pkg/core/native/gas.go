package native

import (
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// gasDecimals matches mainnet GAS's fractional precision: a GAS amount on
// the wire is always an integer number of this many fractional units.
const gasDecimals = 8

// GAS implements the GasToken native contract: the network's fee-paying
// NEP-17 asset. Balances are minted by block/transaction fee distribution
// (see Neo.onPersist) and burned when a transaction's system/network fee is
// charged, so GAS itself exposes no mint/burn VM method of its own.
type GAS struct {
	nep17Base
	md Metadata
}

// newGAS creates the GasToken native contract.
func newGAS() *GAS {
	g := &GAS{}
	g.id = gasContractID
	g.newBalance = func() state.NEP17BalanceHolder { return new(state.NEP17Balance) }
	g.md = newMetadata(nativenames.Gas, gasContractID)
	g.md.Manifest.SupportedStandards = []string{manifest.NEP17StandardName}
	g.registerMethods()
	return g
}

// Metadata returns the contract's static metadata.
func (g *GAS) Metadata() *Metadata { return &g.md }

func (g *GAS) registerMethods() {
	g.md.AddMethod(Method{
		MD:            manifest.Method{Name: "symbol", ReturnType: smartcontract.StringType, Safe: true},
		RequiredFlags: interop.NoneFlag,
		Func: func(_ *interop.Context, _ []stackitem.Item) stackitem.Item {
			return stackitem.NewByteArray([]byte("GAS"))
		},
	})
	g.md.AddMethod(Method{
		MD:            manifest.Method{Name: "decimals", ReturnType: smartcontract.IntegerType, Safe: true},
		RequiredFlags: interop.NoneFlag,
		Func: func(_ *interop.Context, _ []stackitem.Item) stackitem.Item {
			return stackitem.NewBigInteger(big.NewInt(gasDecimals))
		},
	})
	registerNEP17Methods(&g.md,
		Method{
			MD: manifest.Method{
				Name:       "balanceOf",
				ReturnType: smartcontract.IntegerType,
				Parameters: []manifest.Parameter{manifest.NewParameter("account", smartcontract.Hash160Type)},
				Safe:       true,
			},
			RequiredFlags: interop.ReadStates,
			Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
				acc, err := stackitem.ToUint160(args[0])
				if err != nil {
					panic(err)
				}
				return stackitem.NewBigInteger(g.BalanceOf(ic.DAO, acc))
			},
		},
		Method{
			MD: manifest.Method{
				Name:       "transfer",
				ReturnType: smartcontract.BoolType,
				Parameters: []manifest.Parameter{
					manifest.NewParameter("from", smartcontract.Hash160Type),
					manifest.NewParameter("to", smartcontract.Hash160Type),
					manifest.NewParameter("amount", smartcontract.IntegerType),
					manifest.NewParameter("data", smartcontract.AnyType),
				},
			},
			RequiredFlags: interop.States | interop.AllowNotify,
			Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
				from, err := stackitem.ToUint160(args[0])
				if err != nil {
					panic(err)
				}
				to, err := stackitem.ToUint160(args[1])
				if err != nil {
					panic(err)
				}
				amount, ok := args[2].Value().(*big.Int)
				if !ok {
					panic("native: transfer: amount is not an integer")
				}
				if err := g.transfer(ic, from, to, amount); err != nil {
					if err == ErrInsufficientFunds {
						return stackitem.NewBool(false)
					}
					panic(err)
				}
				return stackitem.NewBool(true)
			},
		},
		Method{
			MD:            manifest.Method{Name: "totalSupply", ReturnType: smartcontract.IntegerType, Safe: true},
			RequiredFlags: interop.ReadStates,
			Func: func(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
				return stackitem.NewBigInteger(g.totalSupply(ic.DAO))
			},
		},
	)
}

// Initialize seeds GAS's genesis allocation is left to the caller (there is
// no fixed mainnet-style premine modeled here); hf/newMD are accepted to
// match every native's lifecycle hook signature.
func (g *GAS) Initialize(ic *interop.Context, hf *config.Hardfork, newMD *HFSpecificContractMD) error {
	return nil
}

// BalanceOf returns acc's current GAS balance.
func (g *GAS) BalanceOf(d dao.DAO, acc util.Uint160) *big.Int {
	return g.getBalance(d, acc).Amount()
}

// Mint credits acc with amount GAS, used by block/transaction fee
// distribution and by Policy-exempt system operations.
func (g *GAS) Mint(ic *interop.Context, acc util.Uint160, amount *big.Int) error {
	return g.mint(ic, acc, amount)
}

// Burn debits acc by amount GAS, used to charge transaction fees.
func (g *GAS) Burn(ic *interop.Context, acc util.Uint160, amount *big.Int) error {
	return g.burn(ic, acc, amount)
}
