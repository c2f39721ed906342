package consensus

import (
	"math/big"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/config/netmode"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer"
	"github.com/neocorelabs/neo-core/pkg/core/mempool"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/opcode"
	"github.com/stretchr/testify/require"
)

// testChain is a minimal blockchainer.Blockchainer fake, embedding the
// interface so only the methods a test actually exercises need overriding.
type testChain struct {
	blockchainer.Blockchainer

	height     uint32
	prevHash   util.Uint256
	validators []*keys.PublicKey
	cfg        config.ProtocolConfiguration
	pool       *mempool.Pool
	added      []*block.Block
}

func newTestChain(n int) (*testChain, []*privateKey) {
	privs := make([]*privateKey, n)
	for i := 0; i < n; i++ {
		priv, err := keys.NewPrivateKey()
		if err != nil {
			panic(err)
		}
		privs[i] = &privateKey{PrivateKey: priv}
	}
	pubs := make([]*keys.PublicKey, n)
	for i, p := range privs {
		pubs[i] = p.PublicKey()
	}
	return &testChain{
		validators: pubs,
		pool:       mempool.New(100, 0, false),
		cfg: config.ProtocolConfiguration{
			Magic:                   netmode.UnitTestNet,
			MaxTransactionsPerBlock: 512,
		},
	}, privs
}

func (c *testChain) BlockHeight() uint32                      { return c.height }
func (c *testChain) CurrentBlockHash() util.Uint256           { return c.prevHash }
func (c *testChain) GetValidators() ([]*keys.PublicKey, error) { return c.validators, nil }
func (c *testChain) GetConfig() config.ProtocolConfiguration  { return c.cfg }
func (c *testChain) GetMemPool() *mempool.Pool                { return c.pool }
func (c *testChain) GetStateModule() blockchainer.StateRoot   { return nil }
func (c *testChain) VerifyTx(*transaction.Transaction) error  { return nil }
func (c *testChain) HasTransaction(util.Uint256) bool         { return false }
func (c *testChain) ApplyPolicyToTxSet(txx []*transaction.Transaction) []*transaction.Transaction {
	return txx
}
func (c *testChain) AddBlock(b *block.Block) error {
	c.added = append(c.added, b)
	c.height = b.Index
	return nil
}

type feerStub struct{}

func (feerStub) FeePerByte() int64                           { return 0 }
func (feerStub) GetBaseExecFee() int64                       { return 30 }
func (feerStub) BlockHeight() uint32                         { return 0 }
func (feerStub) GetUtilityTokenBalance(util.Uint160) *big.Int { return big.NewInt(0) }
func (feerStub) P2PSigExtensionsEnabled() bool               { return false }

func TestQuorum(t *testing.T) {
	cases := []struct{ n, m int }{
		{1, 1}, {4, 3}, {7, 5}, {10, 7},
	}
	for _, c := range cases {
		require.Equal(t, c.m, quorum(c.n), "n=%d", c.n)
	}
}

func TestPrimaryIndex(t *testing.T) {
	require.Equal(t, -1, primaryIndex(5, 0, 0))
	require.Equal(t, 0, primaryIndex(4, 0, 4))
	require.Equal(t, 3, primaryIndex(4, 1, 4))
	// view advances past height: must wrap around rather than go negative.
	require.Equal(t, 1, primaryIndex(0, 3, 4))
}

func TestService_ValidatePayload(t *testing.T) {
	privs := getKeys(t, 3)
	pubs := make([]*keys.PublicKey, len(privs))
	for i, p := range privs {
		pubs[i] = p.PublicKey()
	}

	s := &service{validators: pubs}

	p := new(Payload)
	p.SetType(changeViewType)
	p.SetPayload(&changeView{timestamp: 1, newViewNumber: 1})
	p.SetValidatorIndex(1)
	require.NoError(t, p.Sign(privs[1]))
	require.True(t, s.validatePayload(p))

	t.Run("wrong validator index", func(t *testing.T) {
		bad := new(Payload)
		bad.SetType(changeViewType)
		bad.SetPayload(&changeView{timestamp: 1, newViewNumber: 1})
		bad.SetValidatorIndex(uint16(len(pubs)))
		require.NoError(t, bad.Sign(privs[1]))
		require.False(t, s.validatePayload(bad))
	})

	t.Run("mismatched signer", func(t *testing.T) {
		bad := new(Payload)
		bad.SetType(changeViewType)
		bad.SetPayload(&changeView{timestamp: 1, newViewNumber: 1})
		bad.SetValidatorIndex(0)
		require.NoError(t, bad.Sign(privs[1]))
		require.False(t, s.validatePayload(bad))
	})
}

func wrapPrepareRequest(req *prepareRequest) *Payload {
	p := new(Payload)
	p.SetType(prepareRequestType)
	p.SetPayload(req)
	return p
}

func TestService_VerifyRequest(t *testing.T) {
	chain, _ := newTestChain(4)
	s := &service{Config: Config{Chain: chain}}

	good := &prepareRequest{
		version:  uint8(block.VersionInitial),
		prevHash: chain.CurrentBlockHash(),
	}
	require.NoError(t, s.verifyRequest(wrapPrepareRequest(good)))

	t.Run("bad version", func(t *testing.T) {
		req := &prepareRequest{version: 1, prevHash: chain.CurrentBlockHash()}
		require.ErrorIs(t, s.verifyRequest(wrapPrepareRequest(req)), errInvalidVersion)
	})

	t.Run("bad prev hash", func(t *testing.T) {
		req := &prepareRequest{version: uint8(block.VersionInitial), prevHash: util.Uint256{1}}
		require.ErrorIs(t, s.verifyRequest(wrapPrepareRequest(req)), errInvalidPrevHash)
	})

	t.Run("too many transactions", func(t *testing.T) {
		chain.cfg.MaxTransactionsPerBlock = 1
		req := &prepareRequest{
			version:           uint8(block.VersionInitial),
			prevHash:          chain.CurrentBlockHash(),
			transactionHashes: []util.Uint256{{1}, {2}},
		}
		require.ErrorIs(t, s.verifyRequest(wrapPrepareRequest(req)), errInvalidTransactionsCount)
		chain.cfg.MaxTransactionsPerBlock = 512
	})
}

func TestService_GetTx(t *testing.T) {
	chain, _ := newTestChain(1)
	s := &service{Config: Config{Chain: chain}, txx: newTxCache(10)}

	tx := transaction.New([]byte{byte(opcode.PUSH1)}, 0)
	tx.Signers = []transaction.Signer{{Account: util.Uint160{1}}}
	require.Nil(t, s.getTx(tx.Hash()))

	s.txx.Add(tx)
	require.Equal(t, tx, s.getTx(tx.Hash()))
}

func TestService_GetVerifiedTx(t *testing.T) {
	chain, _ := newTestChain(1)
	s := &service{Config: Config{Chain: chain}, txx: newTxCache(10)}

	tx := transaction.New([]byte{byte(opcode.PUSH1)}, 0)
	tx.Signers = []transaction.Signer{{Account: util.Uint160{1}}}
	require.NoError(t, chain.pool.Add(tx, feerStub{}))

	txx := s.getVerifiedTx()
	require.Len(t, txx, 1)
	require.Equal(t, tx, txx[0])
}

func TestNewService(t *testing.T) {
	chain, privs := newTestChain(4)
	srv, err := NewService(Config{
		Chain:      chain,
		PrivateKey: privs[0].PrivateKey,
	})
	require.NoError(t, err)
	require.NotNil(t, srv)
	require.Equal(t, "consensus", srv.Name())

	_, err = NewService(Config{})
	require.Error(t, err)
}
