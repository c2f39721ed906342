package vm

import "github.com/neocorelabs/neo-core/pkg/vm/stackitem"

// MaxStackSize is the maximum number of items (counting every element
// nested inside arrays/structs/maps) allowed to be referenced from the
// stacks of a single VM invocation at once.
const MaxStackSize = 2 * 1024

// RefCounter tracks how many stack item slots are in use across every stack
// a VM owns (evaluation stack plus every context's argument/local/static
// slots), so pushing past MaxStackSize can be rejected instead of letting a
// contract exhaust memory.
type RefCounter struct {
	count int
}

// NewRefCounter creates an empty RefCounter.
func NewRefCounter() *RefCounter {
	return &RefCounter{}
}

// Count returns the number of tracked item slots.
func (r *RefCounter) Count() int { return r.count }

// Add accounts for item (and, if it's a freshly seen compound item, its
// elements) being referenced from a tracked stack.
func (r *RefCounter) Add(item stackitem.Item) {
	r.count++
	switch v := item.(type) {
	case *stackitem.Array:
		for _, e := range v.Value().([]stackitem.Item) {
			r.Add(e)
		}
	case *stackitem.Struct:
		for _, e := range v.Value().([]stackitem.Item) {
			r.Add(e)
		}
	case *stackitem.Map:
		for _, e := range v.Value().([]stackitem.MapElement) {
			r.Add(e.Key)
			r.Add(e.Value)
		}
	}
}

// Remove reverses a matching Add.
func (r *RefCounter) Remove(item stackitem.Item) {
	r.count--
	switch v := item.(type) {
	case *stackitem.Array:
		for _, e := range v.Value().([]stackitem.Item) {
			r.Remove(e)
		}
	case *stackitem.Struct:
		for _, e := range v.Value().([]stackitem.Item) {
			r.Remove(e)
		}
	case *stackitem.Map:
		for _, e := range v.Value().([]stackitem.MapElement) {
			r.Remove(e.Key)
			r.Remove(e.Value)
		}
	}
}
