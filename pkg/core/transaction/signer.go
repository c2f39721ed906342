package transaction

import (
	"encoding/json"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// MaxAttributeContracts/Groups/Rules bound the number of entries a
// CustomContracts/CustomGroups/Rules signer scope may carry.
const (
	maxAllowedContracts = 16
	maxAllowedGroups    = 16
	maxWitnessRules     = 16
)

// Signer describes an account whose witness must accompany a
// transaction, and the scope within which that witness is trusted.
type Signer struct {
	Account          util.Uint160
	Scopes           WitnessScope
	AllowedContracts []util.Uint160
	AllowedGroups    []*keys.PublicKey
	Rules            []WitnessRule
}

// EncodeBinary implements the io.Serializable interface.
func (s *Signer) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(s.Account[:])
	w.WriteB(byte(s.Scopes))
	if s.Scopes&CustomContracts != 0 {
		w.WriteVarUint(uint64(len(s.AllowedContracts)))
		for _, c := range s.AllowedContracts {
			w.WriteBytes(c[:])
		}
	}
	if s.Scopes&CustomGroups != 0 {
		w.WriteVarUint(uint64(len(s.AllowedGroups)))
		for _, g := range s.AllowedGroups {
			g.EncodeBinary(w)
		}
	}
	if s.Scopes&Rules != 0 {
		w.WriteVarUint(uint64(len(s.Rules)))
		for i := range s.Rules {
			s.Rules[i].EncodeBinary(w)
		}
	}
}

// DecodeBinary implements the io.Serializable interface.
func (s *Signer) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(s.Account[:])
	scopes, err := ScopesFromByte(r.ReadB())
	if r.Err != nil {
		return
	}
	if err != nil {
		r.Err = err
		return
	}
	s.Scopes = scopes
	if scopes&CustomContracts != 0 {
		n := r.ReadVarUint()
		if r.Err != nil {
			return
		}
		if n > maxAllowedContracts {
			r.Err = io.ErrArrayTooBig
			return
		}
		s.AllowedContracts = make([]util.Uint160, n)
		for i := range s.AllowedContracts {
			r.ReadBytes(s.AllowedContracts[i][:])
		}
	}
	if r.Err != nil {
		return
	}
	if scopes&CustomGroups != 0 {
		n := r.ReadVarUint()
		if r.Err != nil {
			return
		}
		if n > maxAllowedGroups {
			r.Err = io.ErrArrayTooBig
			return
		}
		s.AllowedGroups = make([]*keys.PublicKey, n)
		for i := range s.AllowedGroups {
			pk := &keys.PublicKey{}
			pk.DecodeBinary(r)
			s.AllowedGroups[i] = pk
		}
	}
	if r.Err != nil {
		return
	}
	if scopes&Rules != 0 {
		n := r.ReadVarUint()
		if r.Err != nil {
			return
		}
		if n > maxWitnessRules {
			r.Err = io.ErrArrayTooBig
			return
		}
		s.Rules = make([]WitnessRule, n)
		for i := range s.Rules {
			s.Rules[i].DecodeBinary(r)
		}
	}
}

type signerAux struct {
	Account          util.Uint160      `json:"account"`
	Scopes           WitnessScope      `json:"scopes"`
	AllowedContracts []util.Uint160    `json:"allowedcontracts,omitempty"`
	AllowedGroups    []*keys.PublicKey `json:"allowedgroups,omitempty"`
	Rules            []WitnessRule     `json:"rules,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface.
func (s *Signer) MarshalJSON() ([]byte, error) {
	return json.Marshal(signerAux{
		Account:          s.Account,
		Scopes:           s.Scopes,
		AllowedContracts: s.AllowedContracts,
		AllowedGroups:    s.AllowedGroups,
		Rules:            s.Rules,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Signer) UnmarshalJSON(data []byte) error {
	var aux signerAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Account = aux.Account
	s.Scopes = aux.Scopes
	s.AllowedContracts = aux.AllowedContracts
	s.AllowedGroups = aux.AllowedGroups
	s.Rules = aux.Rules
	return nil
}
