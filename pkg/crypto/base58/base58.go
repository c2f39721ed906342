// Package base58 provides the plain (checksum-less) Base58 alphabet
// codec, used where a checksum is applied separately or not at all.
package base58

import "github.com/mr-tron/base58"

// Encode returns the Base58 encoding of input.
func Encode(input []byte) string {
	return base58.Encode(input)
}

// Decode decodes a Base58 string back into bytes.
func Decode(input string) ([]byte, error) {
	return base58.Decode(input)
}
