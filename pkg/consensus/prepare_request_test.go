package consensus

import (
	"testing"

	"github.com/neocorelabs/neo-core/internal/random"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestPrepareRequest_Setters(t *testing.T) {
	var p prepareRequest

	p.SetVersion(1)
	require.EqualValues(t, 1, p.Version())

	p.SetPrevHash(util.Uint256{5, 6, 7})
	require.Equal(t, util.Uint256{5, 6, 7}, p.PrevHash())

	p.SetStateRootEnabled(true)
	require.True(t, p.StateRootEnabled())

	p.SetStateRoot(util.Uint256{9})
	require.Equal(t, util.Uint256{9}, p.StateRoot())

	p.SetTimestamp(123 * nsInMs)
	require.EqualValues(t, 123*nsInMs, p.Timestamp())

	p.SetNonce(8765)
	require.EqualValues(t, 8765, p.Nonce())

	var hashes [2]util.Uint256
	random.Fill(hashes[0][:])
	random.Fill(hashes[1][:])

	p.SetTransactionHashes(hashes[:])
	require.Equal(t, hashes[:], p.TransactionHashes())
}
