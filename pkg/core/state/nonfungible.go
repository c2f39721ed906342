package state

import (
	"bytes"
	"errors"
	"math/big"
	"unicode/utf8"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// NFTTokenState is the per-token record a NEP-11 non-divisible contract
// keeps: who owns the token and the name it was minted with.
type NFTTokenState struct {
	Owner util.Uint160
	Name  string
}

// ID returns the token's identifier, as handed out by the minting
// contract and used as its storage key suffix.
func (s *NFTTokenState) ID() []byte {
	return []byte(s.Name)
}

// ToStackItem converts s to a VM stack item.
func (s *NFTTokenState) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(s.Owner.BytesBE()),
		stackitem.NewByteArray([]byte(s.Name)),
	}), nil
}

// FromStackItem fills s from a VM stack item produced by ToStackItem. Items
// with extra trailing elements (as produced by contracts that extend the
// base token properties) are accepted; only the first two fields are read.
func (s *NFTTokenState) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("state: NFTTokenState stackitem is not a struct")
	}
	arr := st.Value().([]stackitem.Item)
	if len(arr) < 2 {
		return errors.New("state: invalid NFTTokenState stackitem length")
	}

	ownerBytes, ok := arr[0].Value().([]byte)
	if !ok {
		return errors.New("state: NFTTokenState owner is not a byte string")
	}
	owner, err := util.Uint160DecodeBytesBE(ownerBytes)
	if err != nil {
		return err
	}

	nameBytes, ok := arr[1].Value().([]byte)
	if !ok {
		return errors.New("state: NFTTokenState name is not a byte string")
	}
	if !utf8.Valid(nameBytes) {
		return errors.New("state: NFTTokenState name is not valid UTF-8")
	}

	s.Owner = owner
	s.Name = string(nameBytes)
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (s *NFTTokenState) EncodeBinary(w *io.BinWriter) {
	item, err := s.ToStackItem()
	if err != nil {
		w.SetError(err)
		return
	}
	stackitem.EncodeBinary(item, w)
}

// DecodeBinary implements the io.Serializable interface.
func (s *NFTTokenState) DecodeBinary(r *io.BinReader) {
	item := stackitem.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	r.Err = s.FromStackItem(item)
}

// ToMap converts s to the NEP-11 "properties" map returned by tokensOf-style
// read methods.
func (s *NFTTokenState) ToMap() *stackitem.Map {
	m := stackitem.NewMap()
	m.Add(stackitem.Make("name"), stackitem.NewByteArray([]byte(s.Name)))
	return m
}

// NEP17BalanceState is NEP17Balance's struct-only fields, embedded directly
// (rather than via NEP17Balance) because NFTAccountState's stack item shape
// does not nest a sub-struct for the balance.
type NEP17BalanceState struct {
	Balance big.Int
}

// NFTAccountState is the per-owner record a NEP-11 non-divisible contract
// keeps: the owner's current balance and the ids of the tokens they hold.
type NFTAccountState struct {
	NEP17BalanceState
	Tokens [][]byte
}

// ToStackItem converts s to a VM stack item.
func (s *NFTAccountState) ToStackItem() (stackitem.Item, error) {
	tokens := make([]stackitem.Item, len(s.Tokens))
	for i, t := range s.Tokens {
		tokens[i] = stackitem.NewByteArray(t)
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(&s.Balance),
		stackitem.NewArray(tokens),
	}), nil
}

// FromStackItem fills s from a VM stack item produced by ToStackItem.
func (s *NFTAccountState) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("state: NFTAccountState stackitem is not a struct")
	}
	arr := st.Value().([]stackitem.Item)
	if len(arr) != 2 {
		return errors.New("state: invalid NFTAccountState stackitem length")
	}

	bal, ok := arr[0].Value().(*big.Int)
	if !ok {
		return errors.New("state: NFTAccountState balance is not an integer")
	}

	tokenItems, ok := arr[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("state: NFTAccountState tokens is not an array")
	}
	tokens := make([][]byte, len(tokenItems))
	for i, ti := range tokenItems {
		tb, ok := ti.Value().([]byte)
		if !ok {
			return errors.New("state: NFTAccountState token id is not a byte string")
		}
		tokens[i] = tb
	}

	s.Balance = *bal
	s.Tokens = tokens
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (s *NFTAccountState) EncodeBinary(w *io.BinWriter) {
	item, err := s.ToStackItem()
	if err != nil {
		w.SetError(err)
		return
	}
	stackitem.EncodeBinary(item, w)
}

// DecodeBinary implements the io.Serializable interface.
func (s *NFTAccountState) DecodeBinary(r *io.BinReader) {
	item := stackitem.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	r.Err = s.FromStackItem(item)
}

// Add records id as held by the account, incrementing the balance. It
// reports whether id was newly added (false if already present).
func (s *NFTAccountState) Add(id []byte) bool {
	for _, t := range s.Tokens {
		if bytes.Equal(t, id) {
			return false
		}
	}
	s.Tokens = append(s.Tokens, id)
	s.Balance.Add(&s.Balance, big.NewInt(1))
	return true
}

// Remove drops id from the account's held tokens, decrementing the
// balance. It reports whether id was present.
func (s *NFTAccountState) Remove(id []byte) bool {
	for i, t := range s.Tokens {
		if bytes.Equal(t, id) {
			s.Tokens = append(s.Tokens[:i], s.Tokens[i+1:]...)
			s.Balance.Sub(&s.Balance, big.NewInt(1))
			return true
		}
	}
	return false
}
