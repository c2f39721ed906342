package vm

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// ErrInvalidSlotIndex is returned when LD/ST addresses a slot index that
// wasn't allocated by INITSLOT/INITSSLOT.
var ErrInvalidSlotIndex = errors.New("vm: invalid slot index")

// Slot is a fixed-size array of stack items backing a Context's static
// fields, local variables or arguments.
type Slot struct {
	items []stackitem.Item
	refs  *RefCounter
}

// NewSlot creates a Slot with size items, each initialized to Null.
func NewSlot(size int, refs *RefCounter) *Slot {
	s := &Slot{items: make([]stackitem.Item, size), refs: refs}
	for i := range s.items {
		s.items[i] = stackitem.Null{}
		if refs != nil {
			refs.Add(s.items[i])
		}
	}
	return s
}

// Size returns the number of slots.
func (s *Slot) Size() int { return len(s.items) }

// Get returns the item stored at i.
func (s *Slot) Get(i int) stackitem.Item {
	if i < 0 || i >= len(s.items) {
		panic(ErrInvalidSlotIndex)
	}
	return s.items[i]
}

// Set stores item at i, replacing whatever was there.
func (s *Slot) Set(i int, item stackitem.Item) {
	if i < 0 || i >= len(s.items) {
		panic(ErrInvalidSlotIndex)
	}
	if s.refs != nil {
		s.refs.Remove(s.items[i])
		s.refs.Add(item)
	}
	s.items[i] = item
}
