package storage

import (
	"path/filepath"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func newBoltStoreForTesting(t testing.TB) Store {
	d := t.TempDir()
	store, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: filepath.Join(d, "test_bolt_db")})
	require.NoError(t, err)
	return store
}
