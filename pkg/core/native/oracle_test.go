package native

import (
	"math/big"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestOracle(t *testing.T) (*Oracle, *GAS, dao.DAO) {
	o := newOracle()
	g := newGAS()
	o.GAS = g
	d := dao.NewSimple(storage.NewMemoryStore(), false, false)
	ic := &interop.Context{DAO: d}
	require.NoError(t, o.Initialize(ic, nil, nil))
	require.NoError(t, g.Initialize(ic, nil, nil))
	return o, g, d
}

func TestOracle_GetSetPrice(t *testing.T) {
	o, _, d := newTestOracle(t)
	require.EqualValues(t, defaultOracleRequestPrice, o.GetPrice(d))

	require.NoError(t, o.SetPrice(d, 123))
	require.EqualValues(t, 123, o.GetPrice(d))

	require.Error(t, o.SetPrice(d, 0))
	require.Error(t, o.SetPrice(d, -1))
}

func TestOracle_Request(t *testing.T) {
	o, g, d := newTestOracle(t)
	callback := util.Uint160{1, 2, 3}
	ic := &interop.Context{DAO: d}
	require.NoError(t, g.Mint(ic, callback, big.NewInt(1_000_000_000)))

	filter := "$.result"
	id, err := o.Request(ic, "https://example.com/data", &filter, callback, "callback", o.GetPrice(d), []byte("user data"))
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	req, err := o.GetRequest(d, id)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/data", req.URL)
	require.Equal(t, filter, *req.Filter)
	require.Equal(t, callback, req.CallbackContract)
	require.Equal(t, "callback", req.CallbackMethod)
	require.Equal(t, []byte("user data"), req.UserData)

	ids, err := o.getIDList(d, oracleIDListKey(req.URL))
	require.NoError(t, err)
	require.Equal(t, IDList{id}, ids)

	t.Run("second request shares the URL's ID list", func(t *testing.T) {
		require.NoError(t, g.Mint(ic, callback, big.NewInt(1_000_000_000)))
		id2, err := o.Request(ic, req.URL, &filter, callback, "callback", o.GetPrice(d), nil)
		require.NoError(t, err)
		require.EqualValues(t, 2, id2)
		ids, err := o.getIDList(d, oracleIDListKey(req.URL))
		require.NoError(t, err)
		require.Equal(t, IDList{id, id2}, ids)
	})

	t.Run("url too long", func(t *testing.T) {
		longURL := make([]byte, MaxOracleURLLength+1)
		_, err := o.Request(ic, string(longURL), nil, callback, "callback", o.GetPrice(d), nil)
		require.Error(t, err)
	})

	t.Run("insufficient gas for response", func(t *testing.T) {
		_, err := o.Request(ic, "https://example.com", nil, callback, "callback", o.GetPrice(d)-1, nil)
		require.Error(t, err)
	})
}

func TestOracle_Respond(t *testing.T) {
	o, g, d := newTestOracle(t)
	callback := util.Uint160{9, 9, 9}
	ic := &interop.Context{DAO: d}
	require.NoError(t, g.Mint(ic, callback, big.NewInt(1_000_000_000)))

	id, err := o.Request(ic, "https://example.com/data", nil, callback, "callback", o.GetPrice(d), nil)
	require.NoError(t, err)

	req, err := o.Respond(ic, id, transaction.Success, []byte(`{"ok":true}`))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/data", req.URL)

	_, err = o.GetRequest(d, id)
	require.ErrorIs(t, err, ErrOracleRequestNotFound)

	ids, err := o.getIDList(d, oracleIDListKey(req.URL))
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = o.Respond(ic, id, transaction.Success, nil)
	require.Error(t, err)
}

func TestOracle_NodesForRole(t *testing.T) {
	o := newOracle()
	d := dao.NewSimple(storage.NewMemoryStore(), false, false)

	nodes, err := o.NodesForRole(d, 0)
	require.NoError(t, err)
	require.Nil(t, nodes)

	o.Designate = newDesignate()
	require.NoError(t, o.Designate.InitializeCache(0, d))
	nodes, err = o.NodesForRole(d, 0)
	require.NoError(t, err)
	require.Empty(t, nodes)
}
