package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// Size limits on a single witness's scripts, matching the network's
// transaction validation rules.
const (
	// MaxInvocationScript is the maximum length of a witness's invocation script.
	MaxInvocationScript = 1024
	// MaxVerificationScript is the maximum length of a witness's verification script.
	MaxVerificationScript = 1024
)

// Witness is the invocation/verification script pair proving a Signer
// authorized a transaction.
type Witness struct {
	InvocationScript   []byte
	VerificationScript []byte
}

// EncodeBinary implements the io.Serializable interface.
func (w *Witness) EncodeBinary(bw *io.BinWriter) {
	bw.WriteVarBytes(w.InvocationScript)
	bw.WriteVarBytes(w.VerificationScript)
}

// DecodeBinary implements the io.Serializable interface.
func (w *Witness) DecodeBinary(br *io.BinReader) {
	w.InvocationScript = br.ReadVarBytes(MaxInvocationScript)
	w.VerificationScript = br.ReadVarBytes(MaxVerificationScript)
}

type witnessAux struct {
	Invocation   string `json:"invocation"`
	Verification string `json:"verification"`
}

// MarshalJSON implements the json.Marshaler interface.
func (w *Witness) MarshalJSON() ([]byte, error) {
	return json.Marshal(witnessAux{
		Invocation:   base64Encode(w.InvocationScript),
		Verification: base64Encode(w.VerificationScript),
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (w *Witness) UnmarshalJSON(data []byte) error {
	var aux witnessAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	inv, err := base64Decode(aux.Invocation)
	if err != nil {
		return fmt.Errorf("transaction: invalid invocation script: %w", err)
	}
	ver, err := base64Decode(aux.Verification)
	if err != nil {
		return fmt.Errorf("transaction: invalid verification script: %w", err)
	}
	w.InvocationScript = inv
	w.VerificationScript = ver
	return nil
}

// ScriptHash returns the hash of w's verification script, i.e. the account
// this witness proves authorization for.
func (w *Witness) ScriptHash() util.Uint160 {
	return hash.Hash160(w.VerificationScript)
}

// Copy returns a value copy of w with its own underlying script arrays.
func (w *Witness) Copy() Witness {
	return Witness{
		InvocationScript:   append([]byte(nil), w.InvocationScript...),
		VerificationScript: append([]byte(nil), w.VerificationScript...),
	}
}
