package payload

import (
	"testing"

	"github.com/neocorelabs/neo-core/internal/random"
	"github.com/neocorelabs/neo-core/internal/testserdes"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestInventoryEncodeDecode(t *testing.T) {
	hashes := []util.Uint256{random.Uint256(), random.Uint256()}
	inv := NewInventory(BlockType, hashes)
	testserdes.EncodeDecodeBinary(t, inv, new(Inventory))
}

func TestInventoryInvalidType(t *testing.T) {
	inv := NewInventory(InventoryType(0xff), []util.Uint256{random.Uint256()})
	data, err := testserdes.EncodeBinary(inv)
	require.NoError(t, err)
	require.Error(t, testserdes.DecodeBinary(data, new(Inventory)))
}

func TestInventoryEmptyHashes(t *testing.T) {
	inv := NewInventory(TXType, nil)
	data, err := testserdes.EncodeBinary(inv)
	require.NoError(t, err)
	require.Error(t, testserdes.DecodeBinary(data, new(Inventory)))
}
