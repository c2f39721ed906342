package native

import (
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// blockToStackItem converts b into the tuple representation exposed to
// contracts: hash, version, previous hash, merkle root, timestamp, nonce,
// index, primary index, next consensus and transaction count.
func blockToStackItem(b *block.Block) stackitem.Item {
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteArray(b.Hash().BytesBE()),
		stackitem.NewBigInteger(big.NewInt(int64(b.Version))),
		stackitem.NewByteArray(b.PrevHash.BytesBE()),
		stackitem.NewByteArray(b.MerkleRoot.BytesBE()),
		stackitem.NewBigInteger(big.NewInt(int64(b.Timestamp))),
		stackitem.NewBigInteger(big.NewInt(int64(b.Nonce))),
		stackitem.NewBigInteger(big.NewInt(int64(b.Index))),
		stackitem.NewBigInteger(big.NewInt(int64(b.PrimaryIndex))),
		stackitem.NewByteArray(b.NextConsensus.BytesBE()),
		stackitem.NewBigInteger(big.NewInt(int64(len(b.Transactions)))),
	})
}

// transactionToStackItem converts tx into the tuple representation exposed
// to contracts: hash, version, nonce, sender, system fee, network fee,
// valid-until-block and script.
func transactionToStackItem(tx *transaction.Transaction) stackitem.Item {
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteArray(tx.Hash().BytesBE()),
		stackitem.NewBigInteger(big.NewInt(int64(tx.Version))),
		stackitem.NewBigInteger(big.NewInt(int64(tx.Nonce))),
		stackitem.NewByteArray(tx.Sender().BytesBE()),
		stackitem.NewBigInteger(big.NewInt(tx.SystemFee)),
		stackitem.NewBigInteger(big.NewInt(tx.NetworkFee)),
		stackitem.NewBigInteger(big.NewInt(int64(tx.ValidUntilBlock))),
		stackitem.NewByteArray(tx.Script),
	})
}

// witnessConditionToStackItem converts c into its {Type, Value...} tuple.
// Only the condition's type is exposed for the bare condition kinds (no
// nested value); composite conditions are handled by their own callers.
func witnessConditionToStackItem(c transaction.WitnessCondition) stackitem.Item {
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewBigInteger(big.NewInt(int64(c.Type()))),
	})
}

// witnessRuleToStackItem converts r into its {Action, Condition} tuple.
func witnessRuleToStackItem(r transaction.WitnessRule) stackitem.Item {
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewBigInteger(big.NewInt(int64(r.Action))),
		witnessConditionToStackItem(r.Condition),
	})
}

// signerToStackItem converts s into the tuple representation exposed to
// contracts: account, scopes, allowed contracts, allowed groups and rules.
func signerToStackItem(s *transaction.Signer) stackitem.Item {
	contracts := make([]stackitem.Item, len(s.AllowedContracts))
	for i, c := range s.AllowedContracts {
		contracts[i] = stackitem.NewByteArray(c.BytesBE())
	}
	groups := make([]stackitem.Item, len(s.AllowedGroups))
	for i, g := range s.AllowedGroups {
		groups[i] = stackitem.NewByteArray(g.Bytes())
	}
	rules := make([]stackitem.Item, len(s.Rules))
	for i, r := range s.Rules {
		rules[i] = witnessRuleToStackItem(r)
	}
	return stackitem.NewArray([]stackitem.Item{
		stackitem.NewByteArray(s.Account.BytesBE()),
		stackitem.NewBigInteger(big.NewInt(int64(s.Scopes))),
		stackitem.NewArray(contracts),
		stackitem.NewArray(groups),
		stackitem.NewArray(rules),
	})
}

func signersToStackItem(signers []transaction.Signer) stackitem.Item {
	items := make([]stackitem.Item, len(signers))
	for i := range signers {
		items[i] = signerToStackItem(&signers[i])
	}
	return stackitem.NewArray(items)
}
