// Package callflag contains types and functions for manipulating
// callflags available for smart contract execution.
package callflag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CallFlag represents a call flag, a bitmask limiting what a contract
// invocation may do (read/write storage, call other contracts, send
// notifications).
type CallFlag byte

// Individual flag bits and their useful combinations.
const (
	ReadStates CallFlag = 1 << iota
	WriteStates
	AllowCall
	AllowNotify

	States   = ReadStates | WriteStates
	ReadOnly = ReadStates | AllowCall
	All      = States | AllowCall | AllowNotify

	NoneFlag CallFlag = 0
)

// Has returns true iff f has all of v's bits set.
func (f CallFlag) Has(v CallFlag) bool {
	return f&v == v
}

// namedFlags lists composite flags before the individual bits they're
// built from, so String prefers the shortest decomposition.
var namedFlags = []struct {
	Flag CallFlag
	Name string
}{
	{ReadOnly, "ReadOnly"},
	{States, "States"},
	{ReadStates, "ReadStates"},
	{WriteStates, "WriteStates"},
	{AllowCall, "AllowCall"},
	{AllowNotify, "AllowNotify"},
}

// String implements the fmt.Stringer interface.
func (f CallFlag) String() string {
	switch f {
	case NoneFlag:
		return "None"
	case All:
		return "All"
	}
	var (
		names []string
		rest  = f
	)
	for _, nf := range namedFlags {
		if rest&nf.Flag == nf.Flag {
			names = append(names, nf.Name)
			rest &^= nf.Flag
		}
	}
	return strings.Join(names, ", ")
}

// flagsByName maps individual/composite (but not All/None) flag names to
// their value, for use by FromString.
var flagsByName = map[string]CallFlag{
	"ReadStates":  ReadStates,
	"WriteStates": WriteStates,
	"AllowCall":   AllowCall,
	"AllowNotify": AllowNotify,
	"States":      States,
	"ReadOnly":    ReadOnly,
}

// FromString parses a CallFlag from its String representation.
func FromString(s string) (CallFlag, error) {
	switch s {
	case "None":
		return NoneFlag, nil
	case "All":
		return All, nil
	}
	var res CallFlag
	for _, tok := range strings.Split(s, ",") {
		name := tok
		if len(name) > 0 && name[0] == ' ' {
			name = name[1:]
		}
		flag, ok := flagsByName[name]
		if !ok {
			return 0, fmt.Errorf("callflag: unknown call flag: %q", tok)
		}
		res |= flag
	}
	return res, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (f CallFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *CallFlag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	flag, err := FromString(s)
	if err != nil {
		return err
	}
	*f = flag
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (f CallFlag) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (f *CallFlag) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	flag, err := FromString(s)
	if err != nil {
		return err
	}
	*f = flag
	return nil
}
