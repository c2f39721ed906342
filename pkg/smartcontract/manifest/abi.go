package manifest

import (
	"errors"
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// ABI describes every method and event a contract exposes.
type ABI struct {
	Methods []Method `json:"methods"`
	Events  []Event  `json:"events"`
}

// methodSignature is the identity of a method overload: its name together
// with the ordered list of its parameter types.
func methodSignature(m Method) string {
	sig := m.Name + "("
	for i, p := range m.Parameters {
		if i > 0 {
			sig += ","
		}
		sig += p.Type.String()
	}
	return sig + ")"
}

// IsValid checks that a's methods and events are individually valid, that
// no two methods share the same name and parameter-type signature, that
// method offsets are non-negative, and that no two events share a name.
func (a *ABI) IsValid() error {
	if len(a.Methods) == 0 {
		return errors.New("manifest: ABI has no methods")
	}
	seenMethods := make(map[string]bool, len(a.Methods))
	for _, m := range a.Methods {
		if m.Name == "" {
			return errors.New("manifest: empty method name")
		}
		if m.Offset < 0 {
			return fmt.Errorf("manifest: method %s has a negative offset", m.Name)
		}
		if err := Parameters(m.Parameters).AreValid(); err != nil {
			return fmt.Errorf("manifest: method %s: %w", m.Name, err)
		}
		sig := methodSignature(m)
		if seenMethods[sig] {
			return fmt.Errorf("manifest: duplicate method overload: %s", sig)
		}
		seenMethods[sig] = true
	}

	seenEvents := make(map[string]bool, len(a.Events))
	for _, e := range a.Events {
		if err := e.IsValid(); err != nil {
			return err
		}
		if seenEvents[e.Name] {
			return fmt.Errorf("manifest: duplicate event name: %s", e.Name)
		}
		seenEvents[e.Name] = true
	}
	return nil
}

// GetMethod returns the method named name. If paramCount is -1 it matches
// any arity, otherwise only a method with exactly paramCount parameters is
// returned.
func (a *ABI) GetMethod(name string, paramCount int) *Method {
	for i := range a.Methods {
		if a.Methods[i].Name == name && (paramCount == -1 || len(a.Methods[i].Parameters) == paramCount) {
			return &a.Methods[i]
		}
	}
	return nil
}

// GetEvent returns the event named name, or nil if there is none.
func (a *ABI) GetEvent(name string) *Event {
	for i := range a.Events {
		if a.Events[i].Name == name {
			return &a.Events[i]
		}
	}
	return nil
}

// ToStackItem converts a to a VM stack item.
func (a *ABI) ToStackItem() stackitem.Item {
	methods := make([]stackitem.Item, len(a.Methods))
	for i := range a.Methods {
		methods[i] = a.Methods[i].ToStackItem()
	}
	events := make([]stackitem.Item, len(a.Events))
	for i := range a.Events {
		events[i] = a.Events[i].ToStackItem()
	}
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewArray(methods),
		stackitem.NewArray(events),
	})
}

// FromStackItem fills a from a VM stack item produced by ToStackItem.
func (a *ABI) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("manifest: invalid ABI stackitem type")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("manifest: invalid ABI stackitem length")
	}
	methods, ok := s[0].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid ABI methods type")
	}
	parsedMethods := make([]Method, len(methods))
	for i := range methods {
		if err := parsedMethods[i].FromStackItem(methods[i]); err != nil {
			return err
		}
	}
	events, ok := s[1].Value().([]stackitem.Item)
	if !ok {
		return errors.New("manifest: invalid ABI events type")
	}
	parsedEvents := make([]Event, len(events))
	for i := range events {
		if err := parsedEvents[i].FromStackItem(events[i]); err != nil {
			return err
		}
	}
	a.Methods = parsedMethods
	a.Events = parsedEvents
	return nil
}
