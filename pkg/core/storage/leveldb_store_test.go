package storage

import (
	"path/filepath"
	"testing"

	"github.com/neocorelabs/neo-core/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func newLevelDBForTesting(t testing.TB) Store {
	d := t.TempDir()
	store, err := NewLevelDBStore(dbconfig.LevelDBOptions{DataDirectoryPath: filepath.Join(d, "test_level_db")})
	require.NoError(t, err)
	return store
}
