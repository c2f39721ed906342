// Package trigger contains the set of triggers a contract's Verify/
// onNEP17Payment/etc. method can be invoked under.
package trigger

import (
	"encoding/json"
	"fmt"
)

// Type represents the reason a script is being executed.
type Type byte

// Trigger types, matching the wire byte used in application execution
// results and verification contexts.
const (
	// OnPersist is triggered when a block is persisted, before any transaction runs.
	OnPersist Type = 0x01
	// PostPersist is triggered after all transactions in a block have been persisted.
	PostPersist Type = 0x02
	// Verification is triggered when a contract is used as a witness verifier.
	Verification Type = 0x20
	// Application is triggered for regular transaction/contract-call execution.
	Application Type = 0x40
	// All matches every trigger type; it's only used when querying stored results.
	All = OnPersist | PostPersist | Verification | Application
)

// String implements the fmt.Stringer interface.
func (t Type) String() string {
	switch t {
	case OnPersist:
		return "OnPersist"
	case PostPersist:
		return "PostPersist"
	case Verification:
		return "Verification"
	case Application:
		return "Application"
	case All:
		return "All"
	default:
		return fmt.Sprintf("Trigger(%d)", byte(t))
	}
}

// FromString converts a trigger's name into its Type.
func FromString(s string) (Type, error) {
	switch s {
	case "OnPersist":
		return OnPersist, nil
	case "PostPersist":
		return PostPersist, nil
	case "Verification":
		return Verification, nil
	case "Application":
		return Application, nil
	case "All":
		return All, nil
	default:
		return 0, fmt.Errorf("trigger: unknown type %q", s)
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := FromString(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
