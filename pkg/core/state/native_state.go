package state

import (
	"crypto/elliptic"
	"errors"
	"math"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// NEP17BalanceHolder abstracts over the different per-account balance
// record shapes a native NEP-17 token may store (a bare NEP17Balance for
// GAS, a NEOBalance carrying vote state for NEO), so shared transfer
// bookkeeping can operate on whichever shape a given token uses without
// knowing about vote weights or claim heights.
type NEP17BalanceHolder interface {
	stackitem.Convertible
	// Amount returns a pointer to the record's balance, safe to mutate
	// in place.
	Amount() *big.Int
	// Add adjusts the balance by delta, which may be negative.
	Add(delta *big.Int)
	// HasExtra reports whether the record carries state beyond a zero
	// balance (e.g. NEO's vote target), so a zero-balance account that
	// still needs its record kept isn't pruned from storage.
	HasExtra() bool
}

// NEP17Balance is the per-account value stored by a NEP-17 token contract:
// just the current balance.
type NEP17Balance struct {
	Balance big.Int
}

// Amount implements NEP17BalanceHolder.
func (b *NEP17Balance) Amount() *big.Int { return &b.Balance }

// Add implements NEP17BalanceHolder.
func (b *NEP17Balance) Add(delta *big.Int) { b.Balance.Add(&b.Balance, delta) }

// HasExtra implements NEP17BalanceHolder.
func (b *NEP17Balance) HasExtra() bool { return false }

// ToStackItem converts b to a VM stack item.
func (b *NEP17Balance) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(&b.Balance),
	}), nil
}

// FromStackItem fills b from a VM stack item produced by ToStackItem.
func (b *NEP17Balance) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("state: NEP17Balance stackitem is not a struct")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 1 {
		return errors.New("state: invalid NEP17Balance stackitem length")
	}
	bal, ok := s[0].Value().(*big.Int)
	if !ok {
		return errors.New("state: NEP17Balance amount is not an integer")
	}
	b.Balance = *bal
	return nil
}

// Bytes appends b's binary stack item encoding to buf and returns the result.
func (b *NEP17Balance) Bytes(buf []byte) []byte {
	data, err := stackitem.SerializeConvertible(b)
	if err != nil {
		panic(err)
	}
	return append(buf, data...)
}

// NEP17BalanceFromBytes decodes a NEP17Balance from its binary stack item
// encoding. A nil or empty data is treated as a zero balance.
func NEP17BalanceFromBytes(data []byte) (*NEP17Balance, error) {
	b := new(NEP17Balance)
	if len(data) == 0 {
		return b, nil
	}
	if err := stackitem.DeserializeConvertible(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Validator is a registered NEO candidate and its current vote weight, as
// returned by the committee enrollment query.
type Validator struct {
	Key   *keys.PublicKey
	Votes *big.Int
}

// NEOBalance is the per-account value stored by the NEO native contract: a
// NEP17Balance plus the block at which it was last updated, the candidate
// it votes for (if any) and the per-NEO GAS reward rate as of the last
// claim, used to compute unclaimed GAS incrementally.
type NEOBalance struct {
	NEP17Balance
	BalanceHeight  uint32
	VoteTo         *keys.PublicKey
	LastGasPerVote big.Int
}

// HasExtra implements NEP17BalanceHolder, overriding NEP17Balance's: a NEO
// account with a vote cast or a nonzero claim checkpoint must keep its
// storage record even once its balance reaches zero.
func (b *NEOBalance) HasExtra() bool {
	return b.VoteTo != nil || b.BalanceHeight != 0 || b.LastGasPerVote.Sign() != 0
}

// ToStackItem converts b to a VM stack item.
func (b *NEOBalance) ToStackItem() (stackitem.Item, error) {
	var voteItem stackitem.Item = stackitem.Null{}
	if b.VoteTo != nil {
		voteItem = stackitem.NewByteArray(b.VoteTo.Bytes())
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(&b.Balance),
		stackitem.NewBigInteger(big.NewInt(int64(b.BalanceHeight))),
		voteItem,
		stackitem.NewBigInteger(&b.LastGasPerVote),
	}), nil
}

// FromStackItem fills b from a VM stack item produced by ToStackItem.
func (b *NEOBalance) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("state: NEOBalance stackitem is not a struct")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 4 {
		return errors.New("state: invalid NEOBalance stackitem length")
	}

	bal, ok := s[0].Value().(*big.Int)
	if !ok {
		return errors.New("state: NEOBalance amount is not an integer")
	}
	b.Balance = *bal

	height, ok := s[1].Value().(*big.Int)
	if !ok {
		return errors.New("state: NEOBalance height is not an integer")
	}
	if !height.IsInt64() || height.Sign() < 0 || height.Int64() > math.MaxUint32 {
		return errors.New("state: NEOBalance height out of uint32 range")
	}
	b.BalanceHeight = uint32(height.Int64())

	if _, ok := s[2].(stackitem.Null); ok {
		b.VoteTo = nil
	} else {
		voteBytes, ok := s[2].Value().([]byte)
		if !ok {
			return errors.New("state: NEOBalance voteTo is not a byte string")
		}
		pub, err := keys.NewPublicKeyFromBytes(voteBytes, elliptic.P256())
		if err != nil {
			return err
		}
		b.VoteTo = pub
	}

	lastGas, ok := s[3].Value().(*big.Int)
	if !ok {
		return errors.New("state: NEOBalance lastGasPerVote is not an integer")
	}
	b.LastGasPerVote = *lastGas

	return nil
}
