// Package transaction provides everything to create a valid N3
// transaction.
package transaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/encoding/address"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// Size limits enforced on a transaction's contents.
const (
	// MaxScriptLength is the upper bound on a transaction's Script length.
	MaxScriptLength = 65535
	// MaxAttributes is the upper bound on the number of attributes.
	MaxAttributes = 16
	// MaxSigners is the upper bound on the number of signers.
	MaxSigners = 16
	// MaxTransactionSize is the upper bound on a transaction's total wire size.
	MaxTransactionSize = 102400
)

// DefaultVersion is the only transaction version the network accepts.
const DefaultVersion uint8 = 0

// ErrInvalidVersion is returned when a transaction's version isn't DefaultVersion.
var ErrInvalidVersion = errors.New("transaction: invalid version")

// ErrInvalidWitnessCount is returned when the number of witnesses doesn't
// match the number of signers.
var ErrInvalidWitnessCount = errors.New("transaction: witness count does not match signer count")

// Transaction is a Neo N3 transaction: it carries a single VM Script to
// execute, fee/lifetime bounds, a list of Signers authorizing it (each
// with a matching Witness in Scripts) and optional Attributes.
type Transaction struct {
	// Version is the transaction format version, currently always 0.
	Version uint8
	// Nonce is a random number to avoid hash collisions.
	Nonce uint32
	// SystemFee is the network fee paid for execution, in GAS fractions.
	SystemFee int64
	// NetworkFee is the fee paid for transaction size/verification, in GAS fractions.
	NetworkFee int64
	// ValidUntilBlock is the last block index (inclusive) this transaction may be included in.
	ValidUntilBlock uint32
	// Signers is the ordered list of accounts that must witness this transaction.
	Signers []Signer
	// Attributes carries additional, non-witnessed metadata.
	Attributes []Attribute
	// Script is the VM bytecode to execute.
	Script []byte
	// Scripts holds the witnesses, one per Signers entry, in the same order.
	Scripts []Witness

	hash    util.Uint256
	hashed  bool
	size    int
	sized   bool
}

// New creates a transaction with the given entry script and system fee;
// callers fill in the remaining fields (signers, attributes, etc.) before
// computing Hash or serializing it.
func New(script []byte, sysFee int64) *Transaction {
	return &Transaction{
		Version:   DefaultVersion,
		Script:    script,
		SystemFee: sysFee,
	}
}

// NewTrimmedTX creates a transaction stub carrying only its hash, used to
// represent a transaction inside a trimmed (header-only) block where the
// full body is stored separately.
func NewTrimmedTX(hash util.Uint256) *Transaction {
	return &Transaction{
		hash:   hash,
		hashed: true,
	}
}

// Hash returns the transaction's hash, the SHA256 of its signed (hashable)
// part. It is cached after the first call.
func (t *Transaction) Hash() util.Uint256 {
	if !t.hashed {
		t.createHash()
	}
	return t.hash
}

// Sender returns the account of the transaction's first signer, which
// pays its fees.
func (t *Transaction) Sender() util.Uint160 {
	if len(t.Signers) == 0 {
		return util.Uint160{}
	}
	return t.Signers[0].Account
}

// Size returns the transaction's encoded wire size, cached after the
// first call.
func (t *Transaction) Size() int {
	if !t.sized {
		t.size = io.GetVarSize(t)
	}
	return t.size
}

func (t *Transaction) createHash() {
	buf := io.NewBufBinWriter()
	t.encodeHashableFields(buf.BinWriter)
	t.hash = hash.Sha256(buf.Bytes())
	t.hashed = true
}

func (t *Transaction) encodeHashableFields(bw *io.BinWriter) {
	bw.WriteB(t.Version)
	bw.WriteU32LE(t.Nonce)
	bw.WriteLE(t.SystemFee)
	bw.WriteLE(t.NetworkFee)
	bw.WriteU32LE(t.ValidUntilBlock)
	bw.WriteArray(t.Signers)
	bw.WriteArray(t.Attributes)
	bw.WriteVarBytes(t.Script)
}

func (t *Transaction) decodeHashableFields(br *io.BinReader) {
	t.Version = br.ReadB()
	if br.Err == nil && t.Version != DefaultVersion {
		br.Err = ErrInvalidVersion
		return
	}
	t.Nonce = br.ReadU32LE()
	br.ReadLE(&t.SystemFee)
	br.ReadLE(&t.NetworkFee)
	t.ValidUntilBlock = br.ReadU32LE()
	br.ReadArray(&t.Signers, MaxSigners)
	if br.Err != nil {
		return
	}
	if len(t.Signers) == 0 {
		br.Err = errors.New("transaction: no signers")
		return
	}
	br.ReadArray(&t.Attributes, MaxAttributes)
	if br.Err != nil {
		return
	}
	t.Script = br.ReadVarBytes(MaxScriptLength)
	if br.Err != nil {
		return
	}
	if len(t.Script) == 0 {
		br.Err = errors.New("transaction: empty script")
		return
	}
	t.hashed = false
	t.createHash()
}

// EncodeBinary implements the io.Serializable interface.
func (t *Transaction) EncodeBinary(bw *io.BinWriter) {
	t.encodeHashableFields(bw)
	if len(t.Scripts) != len(t.Signers) {
		bw.SetError(ErrInvalidWitnessCount)
		return
	}
	bw.WriteArray(t.Scripts)
}

// DecodeBinary implements the io.Serializable interface.
func (t *Transaction) DecodeBinary(br *io.BinReader) {
	t.decodeHashableFields(br)
	if br.Err != nil {
		return
	}
	br.ReadArray(&t.Scripts, MaxSigners)
	if br.Err != nil {
		return
	}
	if len(t.Scripts) != len(t.Signers) {
		br.Err = ErrInvalidWitnessCount
		return
	}
	t.sized = false
}

// Bytes returns the transaction's full binary encoding.
func (t *Transaction) Bytes() []byte {
	buf := io.NewBufBinWriter()
	t.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		panic(buf.Err)
	}
	return buf.Bytes()
}

// NewTransactionFromBytes decodes a transaction previously produced by Bytes.
func NewTransactionFromBytes(b []byte) (*Transaction, error) {
	tx := &Transaction{}
	br := bytes.NewReader(b)
	r := io.NewBinReaderFromIO(br)
	tx.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	if br.Len() != 0 {
		return nil, errors.New("transaction: trailing data after transaction")
	}
	tx.size = len(b)
	tx.sized = true
	return tx, nil
}

type transactionAux struct {
	TxID            util.Uint256 `json:"hash"`
	Size            int          `json:"size"`
	Version         uint8        `json:"version"`
	Nonce           uint32       `json:"nonce"`
	Sender          string       `json:"sender"`
	SystemFee       string       `json:"sysfee"`
	NetworkFee      string       `json:"netfee"`
	ValidUntilBlock uint32       `json:"validuntilblock"`
	Signers         []Signer     `json:"signers"`
	Attributes      []Attribute  `json:"attributes"`
	Script          string       `json:"script"`
	Scripts         []Witness    `json:"witnesses"`
}

// MarshalJSON implements the json.Marshaler interface.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	signers := t.Signers
	if signers == nil {
		signers = []Signer{}
	}
	attrs := t.Attributes
	if attrs == nil {
		attrs = []Attribute{}
	}
	scripts := t.Scripts
	if scripts == nil {
		scripts = []Witness{}
	}
	return json.Marshal(transactionAux{
		TxID:            t.Hash(),
		Size:            t.Size(),
		Version:         t.Version,
		Nonce:           t.Nonce,
		Sender:          address.Uint160ToString(t.Sender()),
		SystemFee:       fmt.Sprintf("%d", t.SystemFee),
		NetworkFee:      fmt.Sprintf("%d", t.NetworkFee),
		ValidUntilBlock: t.ValidUntilBlock,
		Signers:         signers,
		Attributes:      attrs,
		Script:          base64Encode(t.Script),
		Scripts:         scripts,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var aux transactionAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	script, err := base64Decode(aux.Script)
	if err != nil {
		return fmt.Errorf("transaction: invalid script: %w", err)
	}
	var sysFee, netFee int64
	if _, err := fmt.Sscanf(aux.SystemFee, "%d", &sysFee); err != nil {
		return fmt.Errorf("transaction: invalid sysfee: %w", err)
	}
	if _, err := fmt.Sscanf(aux.NetworkFee, "%d", &netFee); err != nil {
		return fmt.Errorf("transaction: invalid netfee: %w", err)
	}
	t.Version = aux.Version
	t.Nonce = aux.Nonce
	t.SystemFee = sysFee
	t.NetworkFee = netFee
	t.ValidUntilBlock = aux.ValidUntilBlock
	t.Signers = aux.Signers
	t.Attributes = aux.Attributes
	t.Script = script
	t.Scripts = aux.Scripts
	t.hashed = false
	t.sized = false
	return nil
}
