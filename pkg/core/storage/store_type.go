package storage

import (
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/core/storage/dbconfig"
)

// NewStore creates a new Store for the backend named in cfg.Type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	switch cfg.Type {
	case dbconfig.LevelDB:
		return NewLevelDBStore(cfg.LevelDBOptions)
	case dbconfig.BoltDB:
		return NewBoltDBStore(cfg.BoltDBOptions)
	case dbconfig.InMemoryDB, "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("storage: unknown database type %q", cfg.Type)
	}
}
