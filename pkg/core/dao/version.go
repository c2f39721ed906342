package dao

import (
	"github.com/neocorelabs/neo-core/pkg/io"
)

// versionMagic prefixes the current binary encoding of a stored Version, so
// GetVersion can tell it apart from the plain semver string pre-N3 nodes
// wrote to the same key.
const versionMagic = 0xfe

// Version is the database schema version record kept under storage.SYSVersion.
type Version struct {
	Prefix byte
	Value  string
}

// bytes encodes v in the current (magic-prefixed) format.
func (v Version) bytes() []byte {
	w := io.NewBufBinWriter()
	w.WriteB(versionMagic)
	w.WriteB(v.Prefix)
	w.WriteString(v.Value)
	return w.Bytes()
}

// versionFromBytes decodes data written by Version.bytes, falling back to
// treating data as a bare, unprefixed semver string for databases created
// before the magic-byte format existed.
func versionFromBytes(data []byte) (Version, error) {
	if len(data) > 0 && data[0] == versionMagic {
		r := io.NewBinReaderFromBuf(data[1:])
		prefix := r.ReadB()
		value := r.ReadString()
		if r.Err != nil {
			return Version{}, r.Err
		}
		return Version{Prefix: prefix, Value: value}, nil
	}
	return Version{Value: string(data)}, nil
}
