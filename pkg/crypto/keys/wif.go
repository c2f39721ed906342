package keys

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/encoding/base58"
)

// WIFVersion is the version byte prefixed to a WIF-encoded private key.
const WIFVersion = 0x80

// WIF holds the decoded parts of a Wallet Import Format string.
type WIF struct {
	Version    byte
	Compressed bool
	PrivateKey *PrivateKey
}

// WIFEncode encodes a 32-byte private key scalar as a WIF string. A zero
// version defaults to WIFVersion.
func WIFEncode(key []byte, version byte, compressed bool) (string, error) {
	if len(key) != 32 {
		return "", errors.New("keys: invalid private key length")
	}
	if version == 0 {
		version = WIFVersion
	}

	buf := make([]byte, 0, 34)
	buf = append(buf, version)
	buf = append(buf, key...)
	if compressed {
		buf = append(buf, 0x01)
	}
	return base58.CheckEncode(buf), nil
}

// WIFDecode decodes a WIF string. A zero version defaults to WIFVersion.
func WIFDecode(wif string, version byte) (*WIF, error) {
	if version == 0 {
		version = WIFVersion
	}

	b, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, err
	}
	if len(b) != 33 && len(b) != 34 {
		return nil, errors.New("keys: invalid WIF length")
	}
	if b[0] != version {
		return nil, errors.New("keys: invalid WIF version")
	}

	compressed := len(b) == 34
	if compressed && b[33] != 0x01 {
		return nil, errors.New("keys: invalid WIF compression flag")
	}

	priv, err := NewPrivateKeyFromBytes(b[1:33])
	if err != nil {
		return nil, err
	}

	return &WIF{
		Version:    version,
		Compressed: compressed,
		PrivateKey: priv,
	}, nil
}
