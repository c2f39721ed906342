package core

import (
	"encoding/hex"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/config/netmode"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/stretchr/testify/require"
)

func hexKey(priv *keys.PrivateKey) string {
	return hex.EncodeToString(priv.PublicKey().Bytes())
}

func testConfig(priv *keys.PrivateKey) config.ProtocolConfiguration {
	return config.ProtocolConfiguration{
		Magic:                       netmode.UnitTestNet,
		StandbyCommittee:            []string{hexKey(priv)},
		ValidatorsCount:             1,
		MemPoolSize:                 100,
		MaxTransactionsPerBlock:     512,
		MaxValidUntilBlockIncrement: 100,
	}
}

func newTestChain(t *testing.T) (*Blockchain, *keys.PrivateKey) {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	bc, err := NewBlockchain(storage.NewMemoryStore(), testConfig(priv), nil)
	require.NoError(t, err)
	return bc, priv
}

// witnessedGenesis builds a genesis (index 0) block whose witness is a
// plain single-signature script over the committee's key, so AddBlock's
// own checks (merkle root, chain continuity) have something to exercise.
func witnessedGenesis(bc *Blockchain, priv *keys.PrivateKey) *block.Block {
	b := &block.Block{
		Header: block.Header{
			Index:         0,
			NextConsensus: bc.committeeHash,
		},
	}
	b.RebuildMerkleRoot()
	b.Script.VerificationScript = keys.CreateSignatureRedeemScript(priv.PublicKey())
	b.Script.InvocationScript = append([]byte{0x0c, 0x40}, priv.SignHash(b.Hash())...)
	return b
}

func TestNewBlockchainBootstrapsNatives(t *testing.T) {
	bc, _ := newTestChain(t)
	require.Equal(t, uint32(0), bc.BlockHeight())
	require.False(t, bc.hasBlocks)
	require.NotZero(t, bc.FeePerByte())
	require.NotZero(t, bc.GetMaxVerificationGAS())
}

func TestAddBlockPersistsAndAdvancesHeight(t *testing.T) {
	bc, priv := newTestChain(t)
	genesis := witnessedGenesis(bc, priv)

	require.NoError(t, bc.AddBlock(genesis))
	require.Equal(t, uint32(0), bc.BlockHeight())
	require.Equal(t, genesis.Hash(), bc.CurrentBlockHash())
	require.True(t, bc.HasBlock(genesis.Hash()))

	got, err := bc.GetBlock(genesis.Hash())
	require.NoError(t, err)
	require.Equal(t, genesis.Index, got.Index)
}

func TestAddBlockRejectsOutOfOrder(t *testing.T) {
	bc, _ := newTestChain(t)

	bad := &block.Block{Header: block.Header{Index: 1}}
	bad.RebuildMerkleRoot()
	require.ErrorIs(t, bc.AddBlock(bad), ErrOutOfOrderBlock)
}

func TestAddBlockRejectsBadMerkleRoot(t *testing.T) {
	bc, _ := newTestChain(t)

	b := &block.Block{
		Header: block.Header{Index: 0, MerkleRoot: util.Uint256{1, 2, 3}},
	}
	require.ErrorIs(t, bc.AddBlock(b), ErrMerkleMismatch)
}

func TestAddBlockChainsFromPrevious(t *testing.T) {
	bc, priv := newTestChain(t)
	genesis := witnessedGenesis(bc, priv)
	require.NoError(t, bc.AddBlock(genesis))

	next := &block.Block{
		Header: block.Header{
			Index:         1,
			PrevHash:      genesis.Hash(),
			NextConsensus: bc.committeeHash,
		},
	}
	next.RebuildMerkleRoot()
	next.Script.VerificationScript = keys.CreateSignatureRedeemScript(priv.PublicKey())
	next.Script.InvocationScript = append([]byte{0x0c, 0x40}, priv.SignHash(next.Hash())...)

	require.NoError(t, bc.AddBlock(next))
	require.Equal(t, uint32(1), bc.BlockHeight())
	require.Equal(t, next.Hash(), bc.CurrentBlockHash())
}

func TestVerifyWitnessCheckSig(t *testing.T) {
	bc, priv := newTestChain(t)

	tx := transaction.New([]byte{0x40}, 0)
	tx.ValidUntilBlock = 50
	tx.Signers = []transaction.Signer{{Account: priv.PublicKey().GetScriptHash()}}

	sig := priv.SignHash(tx.Hash())
	verification := keys.CreateSignatureRedeemScript(priv.PublicKey())
	invocation := append([]byte{0x0c, 0x40}, sig...) // PUSHDATA1 64 <sig>
	w := transaction.Witness{InvocationScript: invocation, VerificationScript: verification}
	tx.Scripts = []transaction.Witness{w}

	err := bc.VerifyWitness(priv.PublicKey().GetScriptHash(), tx, &w, bc.GetMaxVerificationGAS())
	require.NoError(t, err)
}

func TestVerifyWitnessRejectsWrongScriptHash(t *testing.T) {
	bc, priv := newTestChain(t)

	tx := transaction.New([]byte{0x40}, 0)
	tx.ValidUntilBlock = 50

	verification := keys.CreateSignatureRedeemScript(priv.PublicKey())
	w := transaction.Witness{VerificationScript: verification}

	err := bc.VerifyWitness(util.Uint160{9, 9, 9}, tx, &w, bc.GetMaxVerificationGAS())
	require.Error(t, err)
}

func TestVerifyWitnessRejectsBadSignature(t *testing.T) {
	bc, priv := newTestChain(t)
	other, err := keys.NewPrivateKey()
	require.NoError(t, err)

	tx := transaction.New([]byte{0x40}, 0)
	tx.ValidUntilBlock = 50

	sig := other.SignHash(tx.Hash()) // signed with the wrong key
	verification := keys.CreateSignatureRedeemScript(priv.PublicKey())
	invocation := append([]byte{0x0c, 0x40}, sig...)
	w := transaction.Witness{InvocationScript: invocation, VerificationScript: verification}

	err = bc.VerifyWitness(priv.PublicKey().GetScriptHash(), tx, &w, bc.GetMaxVerificationGAS())
	require.Error(t, err)
}

func TestPoolTxRequiresValidWitness(t *testing.T) {
	bc, priv := newTestChain(t)

	tx := transaction.New([]byte{0x40}, 0)
	tx.ValidUntilBlock = 50
	tx.NetworkFee = 1_000_000
	tx.Signers = []transaction.Signer{{Account: priv.PublicKey().GetScriptHash()}}
	verification := keys.CreateSignatureRedeemScript(priv.PublicKey())
	tx.Scripts = []transaction.Witness{{VerificationScript: verification}} // no invocation script => unsigned

	require.Error(t, bc.PoolTx(tx))
}

func TestPoolTxAcceptsValidlyWitnessedTx(t *testing.T) {
	bc, priv := newTestChain(t)

	tx := transaction.New([]byte{0x40}, 0)
	tx.ValidUntilBlock = 50
	tx.NetworkFee = 100_000_000
	tx.Signers = []transaction.Signer{{Account: priv.PublicKey().GetScriptHash()}}
	verification := keys.CreateSignatureRedeemScript(priv.PublicKey())
	invocation := append([]byte{0x0c, 0x40}, priv.SignHash(tx.Hash())...)
	tx.Scripts = []transaction.Witness{{InvocationScript: invocation, VerificationScript: verification}}

	require.NoError(t, bc.PoolTx(tx))
	require.True(t, bc.GetMemPool().ContainsKey(tx.Hash()))
}

func TestAddHeadersTracksHeaderHeight(t *testing.T) {
	bc, _ := newTestChain(t)

	h0 := &block.Header{Index: 0}
	require.NoError(t, bc.AddHeaders(h0))
	require.Equal(t, uint32(0), bc.HeaderHeight())

	h1 := &block.Header{Index: 1, PrevHash: h0.Hash()}
	require.NoError(t, bc.AddHeaders(h1))
	require.Equal(t, uint32(1), bc.HeaderHeight())

	hdr, err := bc.GetHeader(h1.Hash())
	require.NoError(t, err)
	require.Equal(t, h1.Index, hdr.Index)
}

func TestAddHeadersRejectsGap(t *testing.T) {
	bc, _ := newTestChain(t)
	h1 := &block.Header{Index: 1}
	require.ErrorIs(t, bc.AddHeaders(h1), ErrOutOfOrderHeader)
}

func TestSubscribeForBlocksReceivesAddedBlock(t *testing.T) {
	bc, priv := newTestChain(t)

	ch := make(chan *block.Block, 1)
	bc.SubscribeForBlocks(ch)
	defer bc.UnsubscribeFromBlocks(ch)

	genesis := witnessedGenesis(bc, priv)
	require.NoError(t, bc.AddBlock(genesis))

	b := <-ch
	require.Equal(t, genesis.Hash(), b.Hash())
}

func TestCommitteeDerivesFromStandbyCommittee(t *testing.T) {
	bc, priv := newTestChain(t)

	committee, err := bc.GetCommittee()
	require.NoError(t, err)
	require.Len(t, committee, 1)
	require.True(t, committee[0].Equal(priv.PublicKey()))

	validators, err := bc.GetValidators()
	require.NoError(t, err)
	require.Len(t, validators, 1)
}
