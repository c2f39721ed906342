package native

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/trigger"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/vmstate"
)

// Ledger exposes read-only access to stored blocks and transactions. Every
// lookup is bounded by a traceability window: entries older than
// maxTraceableBlocks relative to the current height are reported as
// missing, matching what a verification/application run is allowed to see.
type Ledger struct {
	md Metadata
}

var errUnknownTransaction = errors.New("ledger: unknown transaction")

// newLedger creates the Ledger native contract.
func newLedger() *Ledger {
	l := &Ledger{md: newMetadata(nativenames.Ledger, ledgerContractID)}
	l.registerMethods()
	return l
}

// Metadata returns the contract's static metadata.
func (l *Ledger) Metadata() *Metadata { return &l.md }

func isTraceable(index, maxTraceableBlocks, currentHeight uint32) bool {
	return index <= currentHeight && currentHeight-index < maxTraceableBlocks
}

// GetBlock returns the stored block for hash, or nil if it's missing or
// outside the traceable window.
func (l *Ledger) GetBlock(d dao.DAO, hash util.Uint256, maxTraceableBlocks, currentHeight uint32) *block.Block {
	b, err := d.GetBlock(hash)
	if err != nil || !isTraceable(b.Index, maxTraceableBlocks, currentHeight) {
		return nil
	}
	return b
}

// GetBlockByIndex returns the stored block at the given index, or nil if
// it's missing or outside the traceable window.
func (l *Ledger) GetBlockByIndex(d dao.DAO, index, maxTraceableBlocks, currentHeight uint32) *block.Block {
	if !isTraceable(index, maxTraceableBlocks, currentHeight) {
		return nil
	}
	hash, err := d.GetBlockHash(index)
	if err != nil {
		return nil
	}
	b, err := d.GetBlock(hash)
	if err != nil {
		return nil
	}
	return b
}

// GetTransaction returns the stored transaction for hash, or nil if it's
// missing or outside the traceable window.
func (l *Ledger) GetTransaction(d dao.DAO, hash util.Uint256, maxTraceableBlocks, currentHeight uint32) *transaction.Transaction {
	tx, index, err := d.GetTransaction(hash)
	if err != nil || !isTraceable(index, maxTraceableBlocks, currentHeight) {
		return nil
	}
	return tx
}

// GetTransactionFromBlock returns the transaction at txIndex within the
// block identified by hash, or an error if the block, or the transaction
// index within it, doesn't exist.
func (l *Ledger) GetTransactionFromBlock(d dao.DAO, hash util.Uint256, txIndex int, maxTraceableBlocks, currentHeight uint32) (*transaction.Transaction, error) {
	b := l.GetBlock(d, hash, maxTraceableBlocks, currentHeight)
	if b == nil {
		return nil, nil
	}
	if txIndex < 0 || txIndex >= len(b.Transactions) {
		return nil, errors.New("ledger: transaction index out of range")
	}
	return b.Transactions[txIndex], nil
}

// GetTransactionHeight returns the block index the given transaction was
// included in, or an error if it's unknown, or -1 if it's outside the
// traceable window (matching CheckWitness-style "not found" semantics used
// by the chain's own height query).
func (l *Ledger) GetTransactionHeight(d dao.DAO, hash util.Uint256, maxTraceableBlocks, currentHeight uint32) (int64, error) {
	_, index, err := d.GetTransaction(hash)
	if err != nil {
		return -1, nil
	}
	if !isTraceable(index, maxTraceableBlocks, currentHeight) {
		return -1, nil
	}
	return int64(index), nil
}

// GetTransactionVMState returns the VM execution state the given
// transaction's application-trigger run ended in, or vmstate.None if the
// transaction is unknown or outside the traceable window.
func (l *Ledger) GetTransactionVMState(d dao.DAO, hash util.Uint256, maxTraceableBlocks, currentHeight uint32) vmstate.State {
	_, index, err := d.GetTransaction(hash)
	if err != nil || !isTraceable(index, maxTraceableBlocks, currentHeight) {
		return vmstate.None
	}
	results, err := d.GetAppExecResults(hash, trigger.Application)
	if err != nil || len(results) == 0 {
		return vmstate.None
	}
	return vmstate.State(results[0].VMState)
}

// GetTransactionSigners returns the signers declared by the given stored
// transaction.
func (l *Ledger) GetTransactionSigners(d dao.DAO, hash util.Uint256) ([]transaction.Signer, error) {
	tx, _, err := d.GetTransaction(hash)
	if err != nil {
		return nil, errUnknownTransaction
	}
	return tx.Signers, nil
}

// CurrentIndex returns the index of the chain's current tip.
func (l *Ledger) CurrentIndex(d dao.DAO) (uint32, error) {
	return d.GetCurrentBlockHeight()
}

// CurrentHash returns the hash of the chain's current tip block.
func (l *Ledger) CurrentHash(d dao.DAO) (util.Uint256, error) {
	height, err := d.GetCurrentBlockHeight()
	if err != nil {
		return util.Uint256{}, err
	}
	return d.GetBlockHash(height)
}
