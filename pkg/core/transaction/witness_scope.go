package transaction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WitnessScope is a bitmask describing which parts of a transaction a
// Signer's witness applies to, limiting a signature's reach so a wallet
// doesn't have to blindly authorize every contract call in a transaction.
type WitnessScope byte

const (
	// None means the signature only authorizes the transaction itself,
	// not any contract call made from it.
	None WitnessScope = 0
	// CalledByEntry limits the signature to the entry script and scripts
	// called directly by it.
	CalledByEntry WitnessScope = 0x01
	// CustomContracts limits the signature to the explicitly listed
	// AllowedContracts.
	CustomContracts WitnessScope = 0x10
	// CustomGroups limits the signature to contracts belonging to one of
	// the explicitly listed AllowedGroups.
	CustomGroups WitnessScope = 0x20
	// Rules limits the signature to contracts matching one of the
	// listed WitnessRules.
	Rules WitnessScope = 0x40
	// Global authorizes every contract call; it can't be combined with
	// any other scope.
	Global WitnessScope = 0x80
)

var scopeNames = []struct {
	s WitnessScope
	n string
}{
	{Global, "Global"},
	{CalledByEntry, "CalledByEntry"},
	{CustomContracts, "CustomContracts"},
	{CustomGroups, "CustomGroups"},
	{Rules, "Rules"},
}

// ScopesFromByte converts a byte into a WitnessScope, rejecting unknown
// bits and any combination that includes Global alongside another scope.
func ScopesFromByte(b byte) (WitnessScope, error) {
	s := WitnessScope(b)
	if b == 0 {
		return None, nil
	}
	var known WitnessScope
	for _, e := range scopeNames {
		known |= e.s
	}
	if s&^known != 0 {
		return 0, fmt.Errorf("transaction: invalid scope byte 0x%x", b)
	}
	if s&Global != 0 && s != Global {
		return 0, fmt.Errorf("transaction: Global can't be combined with other scopes")
	}
	return s, nil
}

// ScopesFromString parses a comma-separated list of scope names (as used
// by the CLI and JSON-RPC interfaces) into a WitnessScope.
func ScopesFromString(s string) (WitnessScope, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("transaction: empty scope string")
	}
	parts := strings.Split(s, ",")
	var res WitnessScope
	for _, p := range parts {
		name := strings.TrimSpace(p)
		var found bool
		for _, e := range scopeNames {
			if e.n == name {
				if name == "Global" && res != 0 {
					return 0, fmt.Errorf("transaction: Global can't be combined with other scopes")
				}
				if res&Global != 0 {
					return 0, fmt.Errorf("transaction: Global can't be combined with other scopes")
				}
				res |= e.s
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("transaction: unknown scope %q", name)
		}
	}
	return res, nil
}

// String returns the comma-separated scope names making up s.
func (s WitnessScope) String() string {
	if s == None {
		return "None"
	}
	var names []string
	for _, e := range scopeNames {
		if s&e.s != 0 {
			names = append(names, e.n)
		}
	}
	return strings.Join(names, ",")
}

// MarshalJSON implements the json.Marshaler interface.
func (s WitnessScope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *WitnessScope) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "None" {
		*s = None
		return nil
	}
	v, err := ScopesFromString(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
