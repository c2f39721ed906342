package manifest

import "encoding/json"

// WildStrings is a string list that can be restricted to a concrete set of
// values or left as a wildcard ("*", any string allowed), as used by a
// Permission's set of allowed methods.
type WildStrings struct {
	// Value is nil for a wildcard, non-nil (possibly empty) once restricted.
	Value []string
}

// IsWildcard returns true when c matches any string.
func (c *WildStrings) IsWildcard() bool {
	return c.Value == nil
}

// Contains reports whether s is allowed by c.
func (c *WildStrings) Contains(s string) bool {
	if c.IsWildcard() {
		return true
	}
	for _, v := range c.Value {
		if v == s {
			return true
		}
	}
	return false
}

// Restrict turns c into an empty (non-wildcard) set.
func (c *WildStrings) Restrict() {
	c.Value = []string{}
}

// Add appends s to c's set of allowed values.
func (c *WildStrings) Add(s string) {
	c.Value = append(c.Value, s)
}

// MarshalJSON implements the json.Marshaler interface.
func (c WildStrings) MarshalJSON() ([]byte, error) {
	if c.Value == nil {
		return []byte(`"*"`), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *WildStrings) UnmarshalJSON(data []byte) error {
	if string(data) == `"*"` {
		c.Value = nil
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	c.Value = ss
	return nil
}

// WildPermissionDescs is a PermissionDesc list that can be restricted to a
// concrete set of values or left as a wildcard, as used by a Manifest's
// trusted contracts/groups list.
type WildPermissionDescs struct {
	Value    []PermissionDesc
	Wildcard bool
}

// IsWildcard returns true when c matches any PermissionDesc.
func (c *WildPermissionDescs) IsWildcard() bool {
	return c.Wildcard
}

// Contains reports whether d is allowed by c.
func (c *WildPermissionDescs) Contains(d PermissionDesc) bool {
	if c.IsWildcard() {
		return true
	}
	for _, v := range c.Value {
		if v.Equals(d) {
			return true
		}
	}
	return false
}

// Restrict turns c into an empty (non-wildcard) set.
func (c *WildPermissionDescs) Restrict() {
	c.Wildcard = false
	c.Value = []PermissionDesc{}
}

// Add appends d to c's set of allowed values.
func (c *WildPermissionDescs) Add(d PermissionDesc) {
	c.Value = append(c.Value, d)
}

// MarshalJSON implements the json.Marshaler interface.
func (c WildPermissionDescs) MarshalJSON() ([]byte, error) {
	if c.Wildcard {
		return []byte(`"*"`), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *WildPermissionDescs) UnmarshalJSON(data []byte) error {
	if string(data) == `"*"` {
		c.Wildcard = true
		c.Value = nil
		return nil
	}
	if string(data) == "null" {
		c.Wildcard = false
		c.Value = nil
		return nil
	}
	var ds []PermissionDesc
	if err := json.Unmarshal(data, &ds); err != nil {
		return err
	}
	c.Wildcard = false
	c.Value = ds
	return nil
}
