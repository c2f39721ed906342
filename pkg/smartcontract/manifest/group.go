package manifest

import (
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Group is a public key together with the signature it produced over a
// contract's hash, asserting the key holder's endorsement of that
// contract.
type Group struct {
	PublicKey *keys.PublicKey
	Signature []byte
}

type groupAux struct {
	PublicKey string `json:"pubkey"`
	Signature string `json:"signature"`
}

// MarshalJSON implements the json.Marshaler interface.
func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupAux{
		PublicKey: hex.EncodeToString(g.PublicKey.Bytes()),
		Signature: base64.StdEncoding.EncodeToString(g.Signature),
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (g *Group) UnmarshalJSON(data []byte) error {
	var aux groupAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	pub, err := keys.NewPublicKeyFromString(aux.PublicKey)
	if err != nil {
		return fmt.Errorf("manifest: invalid group public key: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(aux.Signature)
	if err != nil {
		return fmt.Errorf("manifest: invalid group signature: %w", err)
	}
	g.PublicKey = pub
	g.Signature = sig
	return nil
}

// ToStackItem converts g to a VM stack item.
func (g *Group) ToStackItem() stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray(g.PublicKey.Bytes()),
		stackitem.NewByteArray(g.Signature),
	})
}

// FromStackItem fills g from a VM stack item produced by ToStackItem.
func (g *Group) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid Group stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("manifest: invalid Group stackitem length")
	}
	pubBytes, ok := s[0].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid Group pubkey type")
	}
	pub, err := keys.NewPublicKeyFromBytes(pubBytes, elliptic.P256())
	if err != nil {
		return fmt.Errorf("manifest: invalid Group pubkey: %w", err)
	}
	sig, ok := s[1].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid Group signature type")
	}
	if len(sig) != keys.SignatureLen {
		return errors.New("manifest: invalid Group signature length")
	}
	g.PublicKey = pub
	g.Signature = sig
	return nil
}

// Groups is a list of Group.
type Groups []Group

// AreValid checks that every group's signature verifies over the SHA-256
// digest of contractHash's big-endian bytes, and that no two groups share
// the same public key.
func (gs Groups) AreValid(contractHash util.Uint160) error {
	digest := sha256.Sum256(contractHash.BytesBE())
	seen := make(map[string]bool, len(gs))
	for _, g := range gs {
		key := hex.EncodeToString(g.PublicKey.Bytes())
		if seen[key] {
			return errors.New("manifest: duplicate group public key")
		}
		seen[key] = true
		if !g.PublicKey.Verify(g.Signature, digest[:]) {
			return errors.New("manifest: invalid group signature")
		}
	}
	return nil
}

// Contains reports whether gs includes a group with the given public key.
func (gs Groups) Contains(pub *keys.PublicKey) bool {
	for i := range gs {
		if gs[i].PublicKey.Equal(pub) {
			return true
		}
	}
	return false
}
