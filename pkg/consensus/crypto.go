package consensus

import (
	"crypto/elliptic"
	"crypto/sha256"
	"errors"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
)

// privateKey wraps keys.PrivateKey with the binary marshaling and
// message-signing shape the consensus round state needs to hold and
// exchange validator keys without depending on any external dBFT engine.
type privateKey struct {
	*keys.PrivateKey
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (p privateKey) MarshalBinary() ([]byte, error) {
	b := p.D.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (p *privateKey) UnmarshalBinary(data []byte) error {
	key, err := keys.NewPrivateKeyFromBytes(data)
	if err != nil {
		return err
	}
	p.PrivateKey = key
	return nil
}

// Sign computes a deterministic signature over data.
func (p privateKey) Sign(data []byte) ([]byte, error) {
	return p.PrivateKey.Sign(data), nil
}

// publicKey wraps keys.PublicKey with the same binary marshaling and
// message-verification shape as privateKey.
type publicKey struct {
	*keys.PublicKey
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (p publicKey) MarshalBinary() (data []byte, err error) {
	return p.PublicKey.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (p *publicKey) UnmarshalBinary(data []byte) error {
	pub, err := keys.NewPublicKeyFromBytes(data, elliptic.P256())
	if err != nil {
		return err
	}
	p.PublicKey = pub
	return nil
}

// Verify reports whether sig is a valid signature over msg by p, returning
// an error (rather than a bare bool) so it fits the same shape Sign does.
func (p publicKey) Verify(msg, sig []byte) error {
	hash := sha256.Sum256(msg)
	if p.PublicKey.Verify(sig, hash[:]) {
		return nil
	}
	return errors.New("consensus: signature verification failed")
}
