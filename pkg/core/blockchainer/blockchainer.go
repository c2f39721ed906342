// Package blockchainer defines the interface the network and consensus
// layers use to drive and query the chain, without depending on its
// concrete storage/VM implementation.
package blockchainer

import (
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer/services"
	"github.com/neocorelabs/neo-core/pkg/core/mempool"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/trigger"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm"
)

// StateRoot is the subset of the state-root/MPT service the chain exposes,
// when the protocol configuration has it enabled.
type StateRoot interface {
	CurrentLocalStateRoot() util.Uint256
	CurrentValidatedHeight() uint32
}

// Blockchainer abstracts the concrete chain implementation for every
// consumer that only needs to drive or observe it: the P2P server, the
// consensus service and the RPC layer.
type Blockchainer interface {
	Blockqueuer
	Policer
	mempool.Feer

	ApplyPolicyToTxSet([]*transaction.Transaction) []*transaction.Transaction
	GetConfig() config.ProtocolConfiguration
	Close()

	HeaderHeight() uint32
	GetBlock(hash util.Uint256) (*block.Block, error)
	GetHeader(hash util.Uint256) (*block.Header, error)
	GetHeaderHash(int) util.Uint256
	CurrentHeaderHash() util.Uint256
	CurrentBlockHash() util.Uint256
	HasBlock(util.Uint256) bool
	HasTransaction(util.Uint256) bool
	GetTransaction(util.Uint256) (*transaction.Transaction, uint32, error)
	GetAppExecResults(util.Uint256, trigger.Type) ([]state.AppExecResult, error)

	GetContractState(hash util.Uint160) *state.Contract
	GetContractScriptHash(id int32) (util.Uint160, error)
	GetNativeContractScriptHash(name string) (util.Uint160, error)
	GetStorageItem(id int32, key []byte) state.StorageItem
	GetStorageItems(id int32) (map[string]state.StorageItem, error)

	GetCommittee() (keys.PublicKeys, error)
	GetValidators() ([]*keys.PublicKey, error)
	GetNextBlockValidators() ([]*keys.PublicKey, error)
	GetStandByCommittee() keys.PublicKeys
	GetStandByValidators() keys.PublicKeys
	GetEnrollments() ([]state.Validator, error)
	GetGoverningTokenBalance(acc util.Uint160) (*big.Int, uint32)
	GetUtilityTokenBalance(acc util.Uint160) *big.Int
	CalculateClaimable(acc util.Uint160, endHeight uint32) (*big.Int, error)

	ForEachNEP17Transfer(util.Uint160, func(*state.NEP17Transfer) (bool, error)) error
	GetNEP17Balances(util.Uint160) *state.NEP17Balances
	GetNatives() []state.NativeContract
	ManagementContractHash() util.Uint160

	IsExtensibleAllowed(util.Uint160) bool
	IsTxStillRelevant(t *transaction.Transaction, txpool *mempool.Pool, isPartialTx bool) bool
	VerifyTx(*transaction.Transaction) error
	VerifyWitness(util.Uint160, hash.Hashable, *transaction.Witness, int64) error
	InitVerificationVM(v *vm.VM, getContract func(util.Uint160) (*state.Contract, error), hash util.Uint160, witness *transaction.Witness) error
	GetTestVM(t trigger.Type, tx *transaction.Transaction, b *block.Block) *vm.VM

	PoolTx(t *transaction.Transaction, pools ...*mempool.Pool) error
	PoolTxWithData(t *transaction.Transaction, data interface{}, mp *mempool.Pool, feer mempool.Feer, verificationFunction func(bc Blockchainer, t *transaction.Transaction, data interface{}) error) error
	GetMemPool() *mempool.Pool
	RegisterPostBlock(f func(Blockchainer, *mempool.Pool, *block.Block))

	GetNotaryContractScriptHash() util.Uint160
	GetNotaryBalance(acc util.Uint160) *big.Int
	GetNotaryDepositExpiration(acc util.Uint160) uint32
	SetNotary(n services.Notary)
	SetOracle(o services.Oracle)
	GetPolicer() Policer
	GetStateModule() StateRoot

	SubscribeForBlocks(ch chan<- *block.Block)
	SubscribeForExecutions(ch chan<- *state.AppExecResult)
	SubscribeForNotifications(ch chan<- *state.NotificationEvent)
	SubscribeForTransactions(ch chan<- *transaction.Transaction)
	UnsubscribeFromBlocks(ch chan<- *block.Block)
	UnsubscribeFromExecutions(ch chan<- *state.AppExecResult)
	UnsubscribeFromNotifications(ch chan<- *state.NotificationEvent)
	UnsubscribeFromTransactions(ch chan<- *transaction.Transaction)
}
