// Package standard checks contract manifests against well-known NEP
// interface definitions (NEP-17, NEP-11, ...).
package standard

import (
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
)

// Errors returned when a manifest fails to comply with a Standard.
var (
	ErrMethodMissing         = errors.New("method missing")
	ErrInvalidReturnType     = errors.New("invalid return type")
	ErrInvalidParameterCount = errors.New("invalid parameter count")
	ErrInvalidParameterType  = errors.New("invalid parameter type")
	ErrInvalidParameterName  = errors.New("invalid parameter name")
	ErrEventMissing          = errors.New("event missing")
	ErrSafeMethodMismatch    = errors.New("safe method mismatch")
)

// Standard is a named set of required and optional methods/events a
// contract's manifest can be checked against.
type Standard struct {
	Manifest manifest.Manifest
	// Optional lists methods that, if present with a matching parameter
	// count, are validated the same way as a required method; if present
	// with a different parameter count, or absent entirely, they are
	// skipped.
	Optional []manifest.Method
}

var registry = map[string]*Standard{
	manifest.NEP17StandardName: nep17Standard,
	manifest.NEP11StandardName: nep11Standard,
}

// Check verifies that m fully complies with the standard registered under
// name, including parameter names.
func Check(m *manifest.Manifest, name string) error {
	s, ok := registry[name]
	if !ok {
		return fmt.Errorf("standard: unknown standard %q", name)
	}
	return Comply(m, s)
}

// CheckABI verifies that m complies with the standard registered under
// name, ignoring parameter names.
func CheckABI(m *manifest.Manifest, name string) error {
	s, ok := registry[name]
	if !ok {
		return fmt.Errorf("standard: unknown standard %q", name)
	}
	return ComplyABI(m, s)
}

// Comply checks that m implements every required method and event of s,
// matching parameter names exactly.
func Comply(m *manifest.Manifest, s *Standard) error {
	return comply(m, s, true)
}

// ComplyABI checks that m implements every required method and event of
// s, ignoring parameter names.
func ComplyABI(m *manifest.Manifest, s *Standard) error {
	return comply(m, s, false)
}

func comply(m *manifest.Manifest, s *Standard, checkNames bool) error {
	for _, method := range s.Manifest.ABI.Methods {
		impl := m.ABI.GetMethod(method.Name, len(method.Parameters))
		if impl == nil {
			return fmt.Errorf("%w: %s/%d", ErrMethodMissing, method.Name, len(method.Parameters))
		}
		if err := checkMethodShape(method, *impl, checkNames); err != nil {
			return err
		}
	}
	for _, event := range s.Manifest.ABI.Events {
		if err := complyEvent(m, event, checkNames); err != nil {
			return err
		}
	}
	for _, method := range s.Optional {
		impl := m.ABI.GetMethod(method.Name, -1)
		if impl == nil {
			continue
		}
		if len(impl.Parameters) != len(method.Parameters) {
			continue
		}
		if err := checkMethodShape(method, *impl, checkNames); err != nil {
			return err
		}
	}
	return nil
}

func checkMethodShape(tmpl, impl manifest.Method, checkNames bool) error {
	if len(impl.Parameters) != len(tmpl.Parameters) {
		return fmt.Errorf("%w: %s", ErrInvalidParameterCount, tmpl.Name)
	}
	for i := range tmpl.Parameters {
		if tmpl.Parameters[i].Type != impl.Parameters[i].Type {
			return fmt.Errorf("%w: %s", ErrInvalidParameterType, tmpl.Name)
		}
		if checkNames && tmpl.Parameters[i].Name != impl.Parameters[i].Name {
			return fmt.Errorf("%w: %s", ErrInvalidParameterName, tmpl.Name)
		}
	}
	if tmpl.ReturnType != impl.ReturnType {
		return fmt.Errorf("%w: %s", ErrInvalidReturnType, tmpl.Name)
	}
	if tmpl.Safe != impl.Safe {
		return fmt.Errorf("%w: %s", ErrSafeMethodMismatch, tmpl.Name)
	}
	return nil
}

func complyEvent(m *manifest.Manifest, tmpl manifest.Event, checkNames bool) error {
	impl := m.ABI.GetEvent(tmpl.Name)
	if impl == nil {
		return fmt.Errorf("%w: %s", ErrEventMissing, tmpl.Name)
	}
	if len(impl.Parameters) != len(tmpl.Parameters) {
		return fmt.Errorf("%w: %s", ErrInvalidParameterCount, tmpl.Name)
	}
	for i := range tmpl.Parameters {
		if tmpl.Parameters[i].Type != impl.Parameters[i].Type {
			return fmt.Errorf("%w: %s", ErrInvalidParameterType, tmpl.Name)
		}
		if checkNames && tmpl.Parameters[i].Name != impl.Parameters[i].Name {
			return fmt.Errorf("%w: %s", ErrInvalidParameterName, tmpl.Name)
		}
	}
	return nil
}
