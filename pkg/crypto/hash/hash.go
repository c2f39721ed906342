// Package hash provides the hash primitives used for block/transaction
// identifiers and script hashes: SHA256, double-SHA256, RIPEMD160 and
// their Hash160/Hash256 compositions, plus a Merkle tree builder.
package hash

import (
	"crypto/sha256"

	"github.com/neocorelabs/neo-core/pkg/util"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for Hash160
)

// Hashable is anything identified by a Uint256 hash, such as a transaction
// or a block header. Witness verification operates on the signed data of
// a Hashable, not its raw bytes.
type Hashable interface {
	Hash() util.Uint256
}

// Sha256 returns the SHA256 checksum of b as a Uint256.
func Sha256(b []byte) util.Uint256 {
	h := sha256.Sum256(b)
	u, _ := util.Uint256DecodeBytesBE(h[:])
	return u
}

// DoubleSha256 returns SHA256(SHA256(b)).
func DoubleSha256(b []byte) util.Uint256 {
	h1 := sha256.Sum256(b)
	h2 := sha256.Sum256(h1[:])
	u, _ := util.Uint256DecodeBytesBE(h2[:])
	return u
}

// RipeMD160 returns the RIPEMD160 digest of b as a Uint160.
func RipeMD160(b []byte) util.Uint160 {
	h := ripemd160.New()
	_, _ = h.Write(b)
	sum := h.Sum(nil)
	u, _ := util.Uint160DecodeBytesBE(sum)
	return u
}

// Hash160 returns RIPEMD160(SHA256(b)), Neo's script-hash function.
func Hash160(b []byte) util.Uint160 {
	sha := sha256.Sum256(b)
	return RipeMD160(sha[:])
}

// Checksum returns the first 4 bytes of the double-SHA256 digest of b,
// used as the wire/address checksum.
func Checksum(b []byte) []byte {
	h := DoubleSha256(b)
	be := h.BytesBE()
	return be[:4]
}
