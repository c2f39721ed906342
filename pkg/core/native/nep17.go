package native

import (
	"errors"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

const (
	nep17BalancePrefix byte = 20
	nep17TotalSupplyKey byte = 11
)

// ErrInsufficientFunds is returned by nep17Base.transfer when the sender's
// balance is smaller than the amount being moved.
var ErrInsufficientFunds = errors.New("native: insufficient funds")

// nep17Base is the storage and transfer bookkeeping shared by every native
// NEP-17 token (GAS, NEO). Embedders provide their own symbol/decimals and
// balance record shape (NEP17Balance for GAS, NEOBalance for NEO) through
// the balanceFactory/onBalanceChanging hooks, mirroring the split between
// a token's ABI surface and its accounting.
type nep17Base struct {
	id int32

	// newBalance creates a zero-value balance record of this token's shape.
	newBalance func() state.NEP17BalanceHolder
	// onTransfer is called after a transfer's balances are computed but
	// before they're persisted, letting NEO move voting weight between
	// candidates as the moved amount changes hands; GAS leaves this nil.
	onTransfer func(ic *interop.Context, from, to util.Uint160, amount *big.Int, fromBal, toBal state.NEP17BalanceHolder)
}

func balanceKey(acc util.Uint160) []byte {
	b := make([]byte, 1+util.Uint160Size)
	b[0] = nep17BalancePrefix
	copy(b[1:], acc.BytesBE())
	return b
}

// getBalance reads acc's current balance record, returning a freshly
// created zero record if none is stored.
func (n *nep17Base) getBalance(d dao.DAO, acc util.Uint160) state.NEP17BalanceHolder {
	bal := n.newBalance()
	si := d.GetStorageItem(n.id, balanceKey(acc))
	if si == nil {
		return bal
	}
	if err := stackitem.DeserializeConvertible(si.Value, bal); err != nil {
		panic(err)
	}
	return bal
}

func (n *nep17Base) putBalance(d dao.DAO, acc util.Uint160, bal state.NEP17BalanceHolder) error {
	if bal.Amount().Sign() == 0 && !bal.HasExtra() {
		return d.DeleteStorageItem(n.id, balanceKey(acc))
	}
	data, err := stackitem.SerializeConvertible(bal)
	if err != nil {
		return err
	}
	return d.PutStorageItem(n.id, balanceKey(acc), &state.StorageItem{Value: data})
}

// totalSupply returns the token's current circulating supply.
func (n *nep17Base) totalSupply(d dao.DAO) *big.Int {
	si := d.GetStorageItem(n.id, []byte{nep17TotalSupplyKey})
	if si == nil {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(si.Value)
}

func (n *nep17Base) addToSupply(d dao.DAO, delta *big.Int) error {
	supply := new(big.Int).Add(n.totalSupply(d), delta)
	if supply.Sign() < 0 {
		return errors.New("native: negative total supply")
	}
	return d.PutStorageItem(n.id, []byte{nep17TotalSupplyKey}, &state.StorageItem{Value: supply.Bytes()})
}

// mint credits acc with amount, increasing total supply.
func (n *nep17Base) mint(ic *interop.Context, acc util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal := n.getBalance(ic.DAO, acc)
	bal.Add(amount)
	if err := n.putBalance(ic.DAO, acc, bal); err != nil {
		return err
	}
	return n.addToSupply(ic.DAO, amount)
}

// burn debits acc by amount, decreasing total supply. Returns
// ErrInsufficientFunds if acc's balance is too small.
func (n *nep17Base) burn(ic *interop.Context, acc util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal := n.getBalance(ic.DAO, acc)
	if bal.Amount().Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	bal.Add(new(big.Int).Neg(amount))
	if err := n.putBalance(ic.DAO, acc, bal); err != nil {
		return err
	}
	return n.addToSupply(ic.DAO, new(big.Int).Neg(amount))
}

// transfer moves amount from `from` to `to`, failing with
// ErrInsufficientFunds if the sender can't cover it. A zero amount between
// identical accounts is a no-op that still counts as a successful transfer,
// matching NEP-17 semantics.
func (n *nep17Base) transfer(ic *interop.Context, from, to util.Uint160, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("native: negative transfer amount")
	}
	fromBal := n.getBalance(ic.DAO, from)
	if amount.Sign() > 0 {
		if fromBal.Amount().Cmp(amount) < 0 {
			return ErrInsufficientFunds
		}
		fromBal.Add(new(big.Int).Neg(amount))
	}

	var toBal state.NEP17BalanceHolder
	if from.Equals(to) {
		toBal = fromBal
		toBal.Add(amount)
	} else {
		toBal = n.getBalance(ic.DAO, to)
		toBal.Add(amount)
	}

	if n.onTransfer != nil {
		n.onTransfer(ic, from, to, amount, fromBal, toBal)
	}

	if err := n.putBalance(ic.DAO, from, fromBal); err != nil {
		return err
	}
	if from.Equals(to) {
		return nil
	}
	return n.putBalance(ic.DAO, to, toBal)
}

// registerNEP17Methods wires the four standard NEP-17 read/write methods
// (symbol/decimals are contract-specific and registered by the caller)
// against balanceOf/transfer/totalSupply, shared by GAS and NEO.
func registerNEP17Methods(md *Metadata, balanceOf, transferFn Method, totalSupply Method) {
	md.AddMethod(totalSupply)
	md.AddMethod(balanceOf)
	md.AddMethod(transferFn)
	md.AddEvent(manifest.Event{
		Name: "Transfer",
		Parameters: []manifest.Parameter{
			manifest.NewParameter("from", smartcontract.Hash160Type),
			manifest.NewParameter("to", smartcontract.Hash160Type),
			manifest.NewParameter("amount", smartcontract.IntegerType),
		},
	})
}
