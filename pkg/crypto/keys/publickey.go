package keys

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/neocorelabs/neo-core/pkg/encoding/address"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// PublicKey is an ECDSA public key on either the P-256 (the network's
// default curve) or secp256k1 curve.
type PublicKey ecdsa.PublicKey

// compressedLen is the length of a compressed SEC1-encoded point.
const compressedLen = 33

// SignatureLen is the length in bytes of a raw r||s ECDSA signature as
// produced by PrivateKey.Sign/SignHash.
const SignatureLen = 64

// Bytes returns the compressed SEC1 encoding of the point, or a single
// 0x00 byte for the point at infinity.
func (p *PublicKey) Bytes() []byte {
	if p.X == nil || p.Y == nil {
		return []byte{0x00}
	}
	b := make([]byte, compressedLen)
	if p.Y.Bit(0) == 0 {
		b[0] = 0x02
	} else {
		b[0] = 0x03
	}
	xBytes := p.X.Bytes()
	copy(b[1+compressedLen-1-len(xBytes):], xBytes)
	return b
}

// NewPublicKeyFromString parses a hex-encoded compressed (or
// uncompressed) public key, assuming the P-256 curve.
func NewPublicKeyFromString(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(b, elliptic.P256())
}

// NewPublicKeyFromBytes decodes a SEC1-encoded point on curve.
func NewPublicKeyFromBytes(b []byte, curve elliptic.Curve) (*PublicKey, error) {
	if len(b) == 1 && b[0] == 0x00 {
		return &PublicKey{Curve: curve}, nil
	}
	if len(b) != compressedLen {
		return nil, errors.New("keys: invalid public key length")
	}
	if b[0] != 0x02 && b[0] != 0x03 {
		return nil, errors.New("keys: invalid public key prefix")
	}

	x := new(big.Int).SetBytes(b[1:])
	y, err := decompressY(curve, x, b[0] == 0x03)
	if err != nil {
		return nil, err
	}
	return &PublicKey{Curve: curve, X: x, Y: y}, nil
}

// decompressY recovers the Y coordinate of a point on curve from its X
// coordinate and the sign bit of Y.
func decompressY(curve elliptic.Curve, x *big.Int, odd bool) (*big.Int, error) {
	params := curve.Params()
	ySq := new(big.Int).Exp(x, big.NewInt(3), params.P)
	threeX := new(big.Int).Mul(x, big.NewInt(3))
	ySq.Sub(ySq, threeX)
	ySq.Add(ySq, params.B)
	ySq.Mod(ySq, params.P)

	y := new(big.Int).ModSqrt(ySq, params.P)
	if y == nil {
		return nil, errors.New("keys: point not on curve")
	}
	if y.Bit(0) != boolToUint(odd) {
		y.Sub(params.P, y)
	}
	return y, nil
}

func boolToUint(b bool) uint {
	if b {
		return 1
	}
	return 0
}

// GetScriptHash returns the hash of the "verify single signature"
// redeem script for this key.
func (p *PublicKey) GetScriptHash() util.Uint160 {
	return hash.Hash160(CreateSignatureRedeemScript(p))
}

// Address returns the Base58Check address derived from the key's
// verification script.
func (p *PublicKey) Address() string {
	return address.Uint160ToString(p.GetScriptHash())
}

// checkSigInteropID is the syscall identifier for System.Crypto.CheckSig,
// computed the same way the VM resolves syscall names: the first 4
// bytes of SHA256(ASCII method name), read as a little-endian uint32.
var checkSigInteropID = interopMethodHash("System.Crypto.CheckSig")

func interopMethodHash(method string) uint32 {
	h := sha256.Sum256([]byte(method))
	return binary.LittleEndian.Uint32(h[:4])
}

// CreateSignatureRedeemScript builds the verification script that
// checks a single signature against pub: PUSHDATA1(pubkey) SYSCALL
// CheckSig.
func CreateSignatureRedeemScript(pub *PublicKey) []byte {
	b := pub.Bytes()
	script := make([]byte, 0, 2+len(b)+5)
	script = append(script, 0x0C, byte(len(b)))
	script = append(script, b...)
	script = append(script, 0x41)
	script = append(script,
		byte(checkSigInteropID),
		byte(checkSigInteropID>>8),
		byte(checkSigInteropID>>16),
		byte(checkSigInteropID>>24))
	return script
}

// Verify reports whether signature (a raw 64-byte r||s pair) is a valid
// signature over msgHash by this key.
func (p *PublicKey) Verify(signature []byte, msgHash []byte) bool {
	if p.X == nil || p.Y == nil || len(signature) != 64 {
		return false
	}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	pub := ecdsa.PublicKey(*p)
	return ecdsa.Verify(&pub, msgHash, r, s)
}

// EncodeBinary implements the io.Serializable interface.
func (p *PublicKey) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(p.Bytes())
}

// DecodeBinary implements the io.Serializable interface.
func (p *PublicKey) DecodeBinary(r *io.BinReader) {
	prefix := r.ReadB()
	if r.Err != nil {
		return
	}
	if prefix == 0x00 {
		p.Curve = elliptic.P256()
		return
	}
	buf := make([]byte, compressedLen-1)
	r.ReadBytes(buf)
	if r.Err != nil {
		return
	}
	full := append([]byte{prefix}, buf...)
	key, err := NewPublicKeyFromBytes(full, elliptic.P256())
	if err != nil {
		r.Err = err
		return
	}
	*p = *key
}

// Equal reports whether p and other encode the same point. A nil
// receiver or argument only equals another nil.
func (p *PublicKey) Equal(other *PublicKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return bytes.Equal(p.Bytes(), other.Bytes())
}

// MarshalJSON implements the json.Marshaler interface, encoding the key as
// a hex string of its compressed SEC1 point.
func (p *PublicKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hex.EncodeToString(p.Bytes()) + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pub, err := NewPublicKeyFromString(s)
	if err != nil {
		return err
	}
	*p = *pub
	return nil
}
