package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/nspcc-dev/rfc6979"

	"github.com/neocorelabs/neo-core/pkg/util"
)

// PrivateKey is an ECDSA private key, usually on the network's default
// P-256 curve but also supporting secp256k1 for cross-chain-compatible
// signatures.
type PrivateKey struct {
	ecdsa.PrivateKey
}

// NewPrivateKey generates a random P-256 private key.
func NewPrivateKey() (*PrivateKey, error) {
	return generate(elliptic.P256())
}

// NewSecp256k1PrivateKey generates a random secp256k1 private key.
func NewSecp256k1PrivateKey() (*PrivateKey, error) {
	return generate(secp256k1.S256())
}

func generate(curve elliptic.Curve) (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{PrivateKey: *key}, nil
}

// NewPrivateKeyFromBytes builds a P-256 private key from its 32-byte
// scalar representation.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, errors.New("keys: invalid private key length")
	}
	curve := elliptic.P256()
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = curve
	priv.D = new(big.Int).SetBytes(b)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(b)
	return &PrivateKey{PrivateKey: *priv}, nil
}

// NewPrivateKeyFromHex builds a P-256 private key from its hex-encoded
// scalar representation.
func NewPrivateKeyFromHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromWIF decodes a WIF string (with the default version)
// into a private key.
func NewPrivateKeyFromWIF(wif string) (*PrivateKey, error) {
	w, err := WIFDecode(wif, WIFVersion)
	if err != nil {
		return nil, err
	}
	return w.PrivateKey, nil
}

// String returns the hex encoding of the private key's 32-byte scalar.
func (p *PrivateKey) String() string {
	b := p.D.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return hex.EncodeToString(out)
}

// WIF returns the WIF encoding of the key, always compressed.
func (p *PrivateKey) WIF() string {
	b := p.D.Bytes()
	buf := make([]byte, 32)
	copy(buf[32-len(b):], b)
	w, _ := WIFEncode(buf, WIFVersion, true)
	return w
}

// Address returns the Base58Check address derived from the key's
// public counterpart.
func (p *PrivateKey) Address() string {
	return p.PublicKey().Address()
}

// PublicKey returns the public counterpart of the key.
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := PublicKey(p.PrivateKey.PublicKey)
	return &pub
}

// Sign computes a deterministic (RFC 6979) ECDSA signature over
// SHA256(data), returned as a fixed 64-byte r||s pair.
func (p *PrivateKey) Sign(data []byte) []byte {
	digest := sha256.Sum256(data)
	u, _ := util.Uint256DecodeBytesBE(digest[:])
	return p.SignHash(u)
}

// SignHash computes a deterministic ECDSA signature directly over h,
// which is treated as an already-computed digest.
func (p *PrivateKey) SignHash(h util.Uint256) []byte {
	digest := h.BytesBE()
	r, s, err := rfc6979.SignECDSA(p.Curve, p.D.Bytes(), digest, sha256.New)
	if err != nil {
		return nil
	}

	sig := make([]byte, 64)
	rb := r.Bytes()
	sb := s.Bytes()
	copy(sig[32-len(rb):32], rb)
	copy(sig[64-len(sb):64], sb)
	return sig
}

// Destroy zeroes the private scalar, so it no longer lingers in memory.
func (p *PrivateKey) Destroy() {
	if p.D != nil {
		p.D.SetInt64(0)
	}
}
