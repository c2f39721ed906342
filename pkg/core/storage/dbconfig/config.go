// Package dbconfig describes the on-disk backend selection and its
// per-backend options, loaded from the node's YAML configuration.
package dbconfig

// Backend type names accepted by storage.NewStore.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

// LevelDBOptions configures the goleveldb-backed store.
type LevelDBOptions struct {
	DataDirectoryPath string `yaml:"DataDirectoryPath"`
}

// BoltDBOptions configures the bbolt-backed store.
type BoltDBOptions struct {
	FilePath string `yaml:"FilePath"`
}

// DBConfiguration selects and configures a storage backend.
type DBConfiguration struct {
	Type           string         `yaml:"Type"`
	LevelDBOptions LevelDBOptions `yaml:"LevelDBOptions"`
	BoltDBOptions  BoltDBOptions  `yaml:"BoltDBOptions"`
}
