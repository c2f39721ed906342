package manifest

import (
	"crypto/elliptic"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// PermissionType is the kind of contract a Permission's PermissionDesc
// targets.
type PermissionType byte

// Possible permission types.
const (
	PermissionWildcard PermissionType = iota
	PermissionHash
	PermissionGroup
)

// PermissionDesc identifies the contract(s) a Permission applies to: any
// contract (PermissionWildcard), a specific contract hash
// (PermissionHash, Value is a util.Uint160), or any contract belonging to
// a group (PermissionGroup, Value is a *keys.PublicKey).
type PermissionDesc struct {
	Type  PermissionType
	Value interface{}
}

// Equals reports whether d and other identify the same contract(s).
func (d PermissionDesc) Equals(other PermissionDesc) bool {
	if d.Type != other.Type {
		return false
	}
	switch d.Type {
	case PermissionWildcard:
		return true
	case PermissionHash:
		return d.Value.(util.Uint160).Equals(other.Value.(util.Uint160))
	case PermissionGroup:
		return d.Value.(*keys.PublicKey).Equal(other.Value.(*keys.PublicKey))
	default:
		return false
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (d PermissionDesc) MarshalJSON() ([]byte, error) {
	switch d.Type {
	case PermissionWildcard:
		return []byte(`"*"`), nil
	case PermissionHash:
		return json.Marshal("0x" + d.Value.(util.Uint160).StringLE())
	case PermissionGroup:
		return json.Marshal(hex.EncodeToString(d.Value.(*keys.PublicKey).Bytes()))
	default:
		return nil, fmt.Errorf("manifest: invalid permission desc type %d", d.Type)
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *PermissionDesc) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch {
	case s == "*":
		d.Type = PermissionWildcard
		d.Value = nil
	case len(s) >= 2 && s[:2] == "0x":
		u, err := util.Uint160DecodeStringLE(s[2:])
		if err != nil {
			return fmt.Errorf("manifest: invalid uint160 permission desc: %w", err)
		}
		d.Type = PermissionHash
		d.Value = u
	case len(s) == 66:
		pub, err := keys.NewPublicKeyFromString(s)
		if err != nil {
			return fmt.Errorf("manifest: invalid public key permission desc: %w", err)
		}
		d.Type = PermissionGroup
		d.Value = pub
	default:
		return fmt.Errorf("manifest: invalid permission desc string: %s", s)
	}
	return nil
}

// ToStackItem converts d to a VM stack item.
func (d *PermissionDesc) ToStackItem() stackitem.Item {
	switch d.Type {
	case PermissionHash:
		return stackitem.NewByteArray(d.Value.(util.Uint160).BytesBE())
	case PermissionGroup:
		return stackitem.NewByteArray(d.Value.(*keys.PublicKey).Bytes())
	default:
		return stackitem.Null{}
	}
}

// FromStackItem fills d from a VM stack item produced by ToStackItem.
func (d *PermissionDesc) FromStackItem(item stackitem.Item) error {
	if _, ok := item.(stackitem.Null); ok {
		d.Type = PermissionWildcard
		d.Value = nil
		return nil
	}
	b, ok := item.Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid PermissionDesc stackitem type")
	}
	switch len(b) {
	case util.Uint160Size:
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return fmt.Errorf("manifest: invalid PermissionDesc hash: %w", err)
		}
		d.Type = PermissionHash
		d.Value = u
	case 33:
		pub, err := keys.NewPublicKeyFromBytes(b, elliptic.P256())
		if err != nil {
			return fmt.Errorf("manifest: invalid PermissionDesc pubkey: %w", err)
		}
		d.Type = PermissionGroup
		d.Value = pub
	default:
		return errors.New("manifest: invalid PermissionDesc stackitem length")
	}
	return nil
}

// Permission describes the set of methods a contract is allowed to call
// on some other contract(s).
type Permission struct {
	Contract PermissionDesc `json:"contract"`
	Methods  WildStrings    `json:"methods"`
}

// NewPermission returns a new Permission of the given type. typ must be
// PermissionWildcard (no further args), PermissionHash (one util.Uint160
// arg) or PermissionGroup (one *keys.PublicKey arg); any other
// combination panics.
func NewPermission(typ PermissionType, args ...interface{}) *Permission {
	contract := PermissionDesc{Type: typ}
	switch typ {
	case PermissionWildcard:
		if len(args) != 0 {
			panic("manifest: wildcard permission takes no arguments")
		}
	case PermissionHash:
		if len(args) != 1 {
			panic("manifest: hash permission requires exactly one argument")
		}
		u, ok := args[0].(util.Uint160)
		if !ok {
			panic("manifest: hash permission argument must be util.Uint160")
		}
		contract.Value = u
	case PermissionGroup:
		if len(args) != 1 {
			panic("manifest: group permission requires exactly one argument")
		}
		pub, ok := args[0].(*keys.PublicKey)
		if !ok {
			panic("manifest: group permission argument must be *keys.PublicKey")
		}
		contract.Value = pub
	default:
		panic("manifest: unknown permission type")
	}
	return &Permission{Contract: contract}
}

// IsAllowed reports whether this permission allows calling method on the
// contract identified by hash, whose manifest is targetManifest.
func (p *Permission) IsAllowed(hash util.Uint160, targetManifest *Manifest, method string) bool {
	switch p.Contract.Type {
	case PermissionWildcard:
	case PermissionHash:
		if !p.Contract.Value.(util.Uint160).Equals(hash) {
			return false
		}
	case PermissionGroup:
		if !Groups(targetManifest.Groups).Contains(p.Contract.Value.(*keys.PublicKey)) {
			return false
		}
	default:
		return false
	}
	return p.Methods.Contains(method)
}

// ToStackItem converts p to a VM stack item.
func (p *Permission) ToStackItem() stackitem.Item {
	var methods stackitem.Item = stackitem.Null{}
	if !p.Methods.IsWildcard() {
		items := make([]stackitem.Item, len(p.Methods.Value))
		for i, m := range p.Methods.Value {
			items[i] = stackitem.NewByteArray([]byte(m))
		}
		methods = stackitem.NewArray(items)
	}
	return stackitem.NewStruct([]stackitem.Item{
		p.Contract.ToStackItem(),
		methods,
	})
}

// FromStackItem fills p from a VM stack item produced by ToStackItem.
func (p *Permission) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid Permission stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("manifest: invalid Permission stackitem length")
	}
	if err := p.Contract.FromStackItem(s[0]); err != nil {
		return fmt.Errorf("manifest: invalid Permission contract: %w", err)
	}
	if _, ok := s[1].(stackitem.Null); ok {
		p.Methods = WildStrings{}
		return nil
	}
	methods, ok := s[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid Permission methods type")
	}
	names := make([]string, len(methods))
	for i := range methods {
		b, ok := methods[i].Value().([]byte)
		if !ok {
			return errors.New("manifest: invalid Permission method name")
		}
		names[i] = string(b)
	}
	p.Methods = WildStrings{Value: names}
	return nil
}
