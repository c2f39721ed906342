// Package address converts between Neo's Base58Check-encoded addresses
// and the underlying Uint160 script hash.
package address

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/encoding/base58"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// NeoVersion is the address version byte used by the network; it's
// what makes every N3 address start with the letter 'N'.
const NeoVersion = 0x35

// ErrBadAddressVersion is returned when a decoded address carries a
// version byte other than NeoVersion.
var ErrBadAddressVersion = errors.New("address: invalid version byte")

// Uint160ToString converts a script hash into its Base58Check address
// representation.
func Uint160ToString(u util.Uint160) string {
	b := u.BytesBE()
	payload := make([]byte, 0, 1+len(b))
	payload = append(payload, NeoVersion)
	payload = append(payload, b...)
	return base58.CheckEncode(payload)
}

// StringToUint160 parses a Base58Check address into its script hash,
// rejecting addresses with the wrong version byte or a malformed
// encoding.
func StringToUint160(s string) (util.Uint160, error) {
	b, err := base58.CheckDecode(s)
	if err != nil {
		return util.Uint160{}, err
	}
	if len(b) != 1+util.Uint160Size {
		return util.Uint160{}, errors.New("address: invalid length")
	}
	if b[0] != NeoVersion {
		return util.Uint160{}, ErrBadAddressVersion
	}
	return util.Uint160DecodeBytesBE(b[1:])
}
