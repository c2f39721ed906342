// Package base58 implements Base58Check encoding: Base58 with a leading
// version/payload byte string and a trailing 4-byte double-SHA256
// checksum, as used by Neo addresses and WIF-encoded private keys.
package base58

import (
	"crypto/sha256"
	"errors"

	"github.com/mr-tron/base58"
)

// checksumLen is the length, in bytes, of the trailing checksum.
const checksumLen = 4

// ErrInvalidFormat is returned by CheckDecode when the input is too
// short to contain a checksum or the checksum doesn't match.
var ErrInvalidFormat = errors.New("invalid format")

// checksum returns the first 4 bytes of SHA256(SHA256(input)).
func checksum(input []byte) (cksum [checksumLen]byte) {
	h := sha256.Sum256(input)
	h2 := sha256.Sum256(h[:])
	copy(cksum[:], h2[:checksumLen])
	return
}

// CheckEncode prepends nothing, appends a checksum to input, and encodes
// the result as a Base58 string.
func CheckEncode(input []byte) string {
	b := make([]byte, 0, len(input)+checksumLen)
	b = append(b, input...)
	cksum := checksum(input)
	b = append(b, cksum[:]...)
	return base58.Encode(b)
}

// CheckDecode decodes a Base58Check string, verifies its checksum, and
// returns the payload with the checksum stripped.
func CheckDecode(s string) ([]byte, error) {
	dec, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(dec) < checksumLen {
		return nil, ErrInvalidFormat
	}

	payload := dec[:len(dec)-checksumLen]
	want := checksum(payload)
	var got [checksumLen]byte
	copy(got[:], dec[len(dec)-checksumLen:])
	if got != want {
		return nil, ErrInvalidFormat
	}
	return payload, nil
}
