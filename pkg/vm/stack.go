package vm

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// ErrInvalidStackIndex is returned when an operation addresses a stack slot
// that doesn't exist.
var ErrInvalidStackIndex = errors.New("vm: invalid stack index")

// Stack is a LIFO of stack items, indexed from the top (0 is the most
// recently pushed item), used for both the VM's shared evaluation stack and
// each Context's invocation-local stacks.
type Stack struct {
	elems []stackitem.Item
	refs  *RefCounter
}

// NewStack creates an empty Stack whose pushes/pops are tracked by refs (nil
// disables reference counting, used for stacks the VM doesn't size-limit).
func NewStack(refs *RefCounter) *Stack {
	return &Stack{refs: refs}
}

// Len returns the number of items on the stack.
func (s *Stack) Len() int { return len(s.elems) }

// Push places item on top of the stack.
func (s *Stack) Push(item stackitem.Item) {
	s.elems = append(s.elems, item)
	if s.refs != nil {
		s.refs.Add(item)
	}
}

// Pop removes and returns the top item. It panics if the stack is empty,
// mirroring the VM's own FAULT-on-underflow behavior at the call site.
func (s *Stack) Pop() stackitem.Item {
	item := s.Peek(0)
	s.elems = s.elems[:len(s.elems)-1]
	if s.refs != nil {
		s.refs.Remove(item)
	}
	return item
}

// Peek returns the item n positions from the top without removing it (n=0 is
// the top item).
func (s *Stack) Peek(n int) stackitem.Item {
	i := len(s.elems) - 1 - n
	if i < 0 || i >= len(s.elems) {
		panic(ErrInvalidStackIndex)
	}
	return s.elems[i]
}

// RemoveAt removes and returns the item n positions from the top.
func (s *Stack) RemoveAt(n int) stackitem.Item {
	i := len(s.elems) - 1 - n
	if i < 0 || i >= len(s.elems) {
		panic(ErrInvalidStackIndex)
	}
	item := s.elems[i]
	s.elems = append(s.elems[:i], s.elems[i+1:]...)
	if s.refs != nil {
		s.refs.Remove(item)
	}
	return item
}

// InsertAt inserts item so that it ends up n positions from the top.
func (s *Stack) InsertAt(item stackitem.Item, n int) {
	i := len(s.elems) - n
	if i < 0 || i > len(s.elems) {
		panic(ErrInvalidStackIndex)
	}
	s.elems = append(s.elems, nil)
	copy(s.elems[i+1:], s.elems[i:])
	s.elems[i] = item
	if s.refs != nil {
		s.refs.Add(item)
	}
}

// Clear empties the stack.
func (s *Stack) Clear() {
	if s.refs != nil {
		for _, item := range s.elems {
			s.refs.Remove(item)
		}
	}
	s.elems = nil
}

// ToArray returns the stack's items top-first.
func (s *Stack) ToArray() []stackitem.Item {
	out := make([]stackitem.Item, len(s.elems))
	for i, item := range s.elems {
		out[len(s.elems)-1-i] = item
	}
	return out
}
