package state

import (
	"encoding/binary"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/encoding/bigint"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// TokenTransferBatchSize is the number of transfers a benchmark/batch
// append round exercises; it has no bearing on the log's own format.
const TokenTransferBatchSize = 128

const (
	nep17Marker byte = iota
	nep11Marker
)

// NEP17Transfer is one recorded NEP-17 token transfer, kept in an
// account's transfer log for the address-history RPCs.
type NEP17Transfer struct {
	Asset        int32
	Counterparty util.Uint160
	Amount       *big.Int
	Block        uint32
	Timestamp    uint64
	Tx           util.Uint256
}

// EncodeBinary implements the io.Serializable interface.
func (t *NEP17Transfer) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(uint32(t.Asset))
	w.WriteBytes(t.Counterparty.BytesBE())
	w.WriteVarBytes(bigint.ToBytes(t.Amount))
	w.WriteU32LE(t.Block)
	w.WriteU64LE(t.Timestamp)
	w.WriteBytes(t.Tx.BytesBE())
}

// DecodeBinary implements the io.Serializable interface.
func (t *NEP17Transfer) DecodeBinary(r *io.BinReader) {
	t.Asset = int32(r.ReadU32LE())

	var cpBytes [util.Uint160Size]byte
	r.ReadBytes(cpBytes[:])
	if r.Err != nil {
		return
	}
	cp, err := util.Uint160DecodeBytesBE(cpBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	t.Counterparty = cp

	amount := r.ReadVarBytes()
	if r.Err != nil {
		return
	}
	t.Amount = bigint.FromBytes(amount)

	t.Block = r.ReadU32LE()
	t.Timestamp = r.ReadU64LE()

	var txBytes [util.Uint256Size]byte
	r.ReadBytes(txBytes[:])
	if r.Err != nil {
		return
	}
	tx, err := util.Uint256DecodeBytesBE(txBytes[:])
	if err != nil {
		r.Err = err
		return
	}
	t.Tx = tx
}

// NEP17Balances groups an account's current balance at every NEP-17
// contract it has ever interacted with, keyed by the contract's script
// hash, for RPC address-balance queries.
type NEP17Balances struct {
	Balances map[util.Uint160]NEP17Balance
}

// NEP11Transfer is one recorded NEP-11 token transfer: a NEP17Transfer plus
// the id of the non-fungible token that moved.
type NEP11Transfer struct {
	NEP17Transfer
	ID []byte
}

// EncodeBinary implements the io.Serializable interface.
func (t *NEP11Transfer) EncodeBinary(w *io.BinWriter) {
	t.NEP17Transfer.EncodeBinary(w)
	w.WriteVarBytes(t.ID)
}

// DecodeBinary implements the io.Serializable interface.
func (t *NEP11Transfer) DecodeBinary(r *io.BinReader) {
	t.NEP17Transfer.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	t.ID = r.ReadVarBytes()
}

// TokenTransferLog is an account's token transfer history, shared between
// NEP-17 and NEP-11 bookkeeping: entries are tagged with their kind and
// recorded newest first, in raw form, so a batch can be persisted and
// trimmed without deserializing every entry.
type TokenTransferLog struct {
	Raw []byte
}

// Size returns the number of transfers recorded in the log.
func (lg *TokenTransferLog) Size() int {
	if lg == nil {
		return 0
	}
	n := 0
	for buf := lg.Raw; len(buf) > 0; n++ {
		l, sz := binary.Uvarint(buf)
		buf = buf[sz+int(l):]
	}
	return n
}

// Append records tr (a *NEP17Transfer or *NEP11Transfer) as the newest
// transfer in the log.
func (lg *TokenTransferLog) Append(tr io.Serializable) error {
	marker := nep17Marker
	if _, ok := tr.(*NEP11Transfer); ok {
		marker = nep11Marker
	}

	w := io.NewBufBinWriter()
	w.WriteB(marker)
	tr.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	data := w.Bytes()

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
	entry := append(append([]byte{}, lenBuf[:n]...), data...)
	lg.Raw = append(entry, lg.Raw...)
	return nil
}

// ForEachNEP17 calls f for every recorded NEP-17 transfer, most recent
// first, stopping as soon as f returns false or an error.
func (lg *TokenTransferLog) ForEachNEP17(f func(*NEP17Transfer) (bool, error)) (bool, error) {
	if lg == nil {
		return true, nil
	}
	for buf := lg.Raw; len(buf) > 0; {
		l, sz := binary.Uvarint(buf)
		entry := buf[sz : sz+int(l)]
		buf = buf[sz+int(l):]
		if entry[0] != nep17Marker {
			continue
		}
		tr := new(NEP17Transfer)
		r := io.NewBinReaderFromBuf(entry[1:])
		tr.DecodeBinary(r)
		if r.Err != nil {
			return false, r.Err
		}
		cont, err := f(tr)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	return true, nil
}

// ForEachNEP11 calls f for every recorded NEP-11 transfer, most recent
// first, stopping as soon as f returns false or an error.
func (lg *TokenTransferLog) ForEachNEP11(f func(*NEP11Transfer) (bool, error)) (bool, error) {
	if lg == nil {
		return true, nil
	}
	for buf := lg.Raw; len(buf) > 0; {
		l, sz := binary.Uvarint(buf)
		entry := buf[sz : sz+int(l)]
		buf = buf[sz+int(l):]
		if entry[0] != nep11Marker {
			continue
		}
		tr := new(NEP11Transfer)
		r := io.NewBinReaderFromBuf(entry[1:])
		tr.DecodeBinary(r)
		if r.Err != nil {
			return false, r.Err
		}
		cont, err := f(tr)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}
	return true, nil
}
