// Package manifest implements the contract manifest: the metadata
// container describing a contract's ABI, the groups and trusted contracts
// it declares, the standards it claims to support and its calling
// permissions, as deployed on chain alongside the contract's executable.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// Standard name constants recognized by Manifest.IsStandardSupported.
const (
	NEP11StandardName = "NEP-11"
	NEP17StandardName = "NEP-17"
	NEP26StandardName = "NEP-26"
	NEP27StandardName = "NEP-27"
)

// emptyFeatures is the canonical encoding of an empty Features object; the
// field is a holdover from the manifest format that no longer carries any
// defined keys, but a well-formed manifest still needs it present.
const emptyFeatures = "{}"

// Manifest describes everything a contract declares about itself: its
// ABI, group endorsements, trusted contracts, supported standards and the
// permissions it needs to call other contracts.
type Manifest struct {
	Name               string
	ABI                ABI
	Features           json.RawMessage
	Groups             []Group
	SupportedStandards []string
	Permissions        []Permission
	Trusts             WildPermissionDescs
	Extra              json.RawMessage
}

// NewManifest returns a bare manifest named name, with none of its
// collections initialized.
func NewManifest(name string) *Manifest {
	return &Manifest{Name: name}
}

// DefaultManifest returns a manifest named name with maximally permissive
// (wildcard) permissions and no trusted contracts, groups, standards or
// extra data.
func DefaultManifest(name string) *Manifest {
	m := NewManifest(name)
	m.ABI.Methods = []Method{}
	m.ABI.Events = []Event{}
	m.Features = json.RawMessage(emptyFeatures)
	m.Groups = []Group{}
	m.SupportedStandards = []string{}
	m.Permissions = []Permission{*NewPermission(PermissionWildcard)}
	m.Trusts.Restrict()
	m.Extra = json.RawMessage("null")
	return m
}

// manifestAux is Manifest's JSON shape, in the exact field order a
// manifest is rendered on chain.
type manifestAux struct {
	Groups             []Group             `json:"groups"`
	Features           json.RawMessage     `json:"features"`
	SupportedStandards []string            `json:"supportedstandards"`
	Name               string              `json:"name"`
	ABI                ABI                 `json:"abi"`
	Permissions        []Permission        `json:"permissions"`
	Trusts             WildPermissionDescs `json:"trusts"`
	Extra              json.RawMessage     `json:"extra"`
}

// MarshalJSON implements the json.Marshaler interface.
func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(manifestAux{
		Groups:             m.Groups,
		Features:           m.Features,
		SupportedStandards: m.SupportedStandards,
		Name:               m.Name,
		ABI:                m.ABI,
		Permissions:        m.Permissions,
		Trusts:             m.Trusts,
		Extra:              m.Extra,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var aux manifestAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Groups = aux.Groups
	m.Features = aux.Features
	m.SupportedStandards = aux.SupportedStandards
	m.Name = aux.Name
	m.ABI = aux.ABI
	m.Permissions = aux.Permissions
	m.Trusts = aux.Trusts
	m.Extra = aux.Extra
	return nil
}

// IsStandardSupported reports whether name appears in m's list of
// supported standards.
func (m *Manifest) IsStandardSupported(name string) bool {
	for _, s := range m.SupportedStandards {
		if s == name {
			return true
		}
	}
	return false
}

// CanCall reports whether m's permissions allow calling method on the
// contract identified by hash, whose manifest is targetManifest.
func (m *Manifest) CanCall(hash util.Uint160, targetManifest *Manifest, method string) bool {
	for i := range m.Permissions {
		if m.Permissions[i].IsAllowed(hash, targetManifest, method) {
			return true
		}
	}
	return false
}

// IsValid checks that m is internally consistent: its ABI is valid, its
// Features is well-formed (empty) JSON, its events/permissions/standards
// lists carry no duplicates, its trusted-contracts list is initialized
// and duplicate-free, its groups verify against contractHash, and the
// whole manifest fits in a serializable stack item.
func (m *Manifest) IsValid(contractHash util.Uint160, strict bool) error {
	if m.Name == "" {
		return errors.New("manifest: no name")
	}
	if err := m.ABI.IsValid(); err != nil {
		return err
	}

	if m.Features == nil {
		return errors.New("manifest: no features")
	}
	var features map[string]json.RawMessage
	if err := json.Unmarshal(m.Features, &features); err != nil {
		return fmt.Errorf("manifest: bad features: %w", err)
	}
	if len(features) != 0 {
		return errors.New("manifest: bad features")
	}

	seenStandards := make(map[string]bool, len(m.SupportedStandards))
	for _, s := range m.SupportedStandards {
		if s == "" {
			return errors.New("manifest: nameless standard")
		}
		if seenStandards[s] {
			return fmt.Errorf("manifest: duplicate standard: %s", s)
		}
		seenStandards[s] = true
	}

	seenPerms := make(map[string]bool, len(m.Permissions))
	for _, p := range m.Permissions {
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("manifest: bad permission: %w", err)
		}
		if seenPerms[string(b)] {
			return errors.New("manifest: duplicate permission")
		}
		seenPerms[string(b)] = true
	}

	if !m.Trusts.Wildcard && m.Trusts.Value == nil {
		return errors.New("manifest: trusts not initialized")
	}
	if !m.Trusts.IsWildcard() {
		seenTrusts := make([]PermissionDesc, 0, len(m.Trusts.Value))
		for _, t := range m.Trusts.Value {
			for _, seen := range seenTrusts {
				if seen.Equals(t) {
					return errors.New("manifest: duplicate trust entry")
				}
			}
			seenTrusts = append(seenTrusts, t)
		}
	}

	if err := Groups(m.Groups).AreValid(contractHash); err != nil {
		return err
	}

	item, err := m.ToStackItem()
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if _, err := stackitem.Serialize(item); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// escapedQuote is the two-byte sequence an escaped double quote takes
// inside a JSON string's content.
var escapedQuote = []byte{'\\', '"'}

// unicodeQuote is the six-byte " escape the reference node's JSON
// writer uses in place of escapedQuote.
var unicodeQuote = []byte{'\\', 'u', '0', '0', '2', '2'}

// extraToStackItem renders raw (a JSON value) into the compact byte form
// used in a manifest's stack-item encoding: whitespace removed, with
// escaped quotes within string values re-encoded as " to match the
// reference node's JSON writer.
func extraToStackItem(raw []byte) stackitem.Item {
	buf := new(bytes.Buffer)
	if err := json.Compact(buf, raw); err != nil {
		return stackitem.NewByteArray(raw)
	}
	normalized := bytes.ReplaceAll(buf.Bytes(), escapedQuote, unicodeQuote)
	return stackitem.NewByteArray(normalized)
}

// ToStackItem converts m to a VM stack item.
func (m *Manifest) ToStackItem() (stackitem.Item, error) {
	groups := make([]stackitem.Item, len(m.Groups))
	for i := range m.Groups {
		groups[i] = m.Groups[i].ToStackItem()
	}

	var features stackitem.Item = stackitem.NewMap()

	standards := make([]stackitem.Item, len(m.SupportedStandards))
	for i, s := range m.SupportedStandards {
		standards[i] = stackitem.NewByteArray([]byte(s))
	}

	permissions := make([]stackitem.Item, len(m.Permissions))
	for i := range m.Permissions {
		permissions[i] = m.Permissions[i].ToStackItem()
	}

	var trusts stackitem.Item
	if m.Trusts.IsWildcard() {
		trusts = stackitem.NewArray([]stackitem.Item{})
	} else {
		items := make([]stackitem.Item, len(m.Trusts.Value))
		for i := range m.Trusts.Value {
			items[i] = m.Trusts.Value[i].ToStackItem()
		}
		trusts = stackitem.NewArray(items)
	}

	extraRaw := m.Extra
	if extraRaw == nil {
		extraRaw = json.RawMessage("null")
	}
	extra := extraToStackItem(extraRaw)

	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(m.Name)),
		stackitem.NewArray(groups),
		features,
		stackitem.NewArray(standards),
		m.ABI.ToStackItem(),
		stackitem.NewArray(permissions),
		trusts,
		extra,
	}), nil
}

// FromStackItem fills m from a VM stack item produced by ToStackItem.
func (m *Manifest) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid Manifest stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 8 {
		return errors.New("manifest: invalid Manifest stackitem length")
	}

	name, ok := s[0].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid name type")
	}

	groupItems, ok := s[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid Groups type")
	}
	groups := make([]Group, len(groupItems))
	for i := range groupItems {
		if err := groups[i].FromStackItem(groupItems[i]); err != nil {
			return fmt.Errorf("manifest: invalid group: %w", err)
		}
	}

	if _, ok := s[2].(*stackitem.Map); !ok {
		return errors.New("manifest: invalid Features type")
	}

	standardItems, ok := s[3].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid SupportedStandards type")
	}
	standards := make([]string, len(standardItems))
	for i := range standardItems {
		b, ok := standardItems[i].Value().([]byte)
		if !ok {
			return errors.New("manifest: invalid supported standard")
		}
		standards[i] = string(b)
	}

	var abi ABI
	if err := abi.FromStackItem(s[4]); err != nil {
		return fmt.Errorf("manifest: invalid ABI: %w", err)
	}

	permItems, ok := s[5].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid Permissions type")
	}
	permissions := make([]Permission, len(permItems))
	for i := range permItems {
		if err := permissions[i].FromStackItem(permItems[i]); err != nil {
			return fmt.Errorf("manifest: invalid permission: %w", err)
		}
	}

	trustItems, ok := s[6].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid Trusts type")
	}
	trusts := make([]PermissionDesc, len(trustItems))
	for i := range trustItems {
		if err := trusts[i].FromStackItem(trustItems[i]); err != nil {
			return fmt.Errorf("manifest: invalid trust: %w", err)
		}
	}

	extraBytes, ok := s[7].Value().([]byte)
	if !ok {
		return errors.New("manifest: invalid extra type")
	}
	extra := json.RawMessage(extraBytes)

	m.Name = string(name)
	m.Groups = groups
	m.Features = json.RawMessage(emptyFeatures)
	m.SupportedStandards = standards
	m.ABI = abi
	m.Permissions = permissions
	m.Trusts = WildPermissionDescs{Value: trusts}
	m.Extra = extra
	return nil
}
