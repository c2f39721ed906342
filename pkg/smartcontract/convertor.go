package smartcontract

import (
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// ParameterFromStackItem converts a VM stack item into its Parameter
// representation, recursing into Array/Struct/Map contents. seen tracks
// already-visited compound items to avoid infinite recursion on cyclic
// structures; visited items are rendered as an empty Array.
func ParameterFromStackItem(item stackitem.Item, seen map[stackitem.Item]bool) Parameter {
	if item == nil {
		return Parameter{Type: AnyType, Value: nil}
	}
	switch t := item.Type(); t {
	case stackitem.AnyT:
		return Parameter{Type: AnyType, Value: nil}
	case stackitem.BooleanT:
		return Parameter{Type: BoolType, Value: item.Value().(bool)}
	case stackitem.IntegerT:
		return Parameter{Type: IntegerType, Value: item.Value()}
	case stackitem.ByteArrayT, stackitem.BufferT:
		b, _ := item.Value().([]byte)
		return Parameter{Type: ByteArrayType, Value: b}
	case stackitem.ArrayT, stackitem.StructT:
		if seen[item] {
			return Parameter{Type: ArrayType, Value: []Parameter{}}
		}
		seen[item] = true
		items, _ := item.Value().([]stackitem.Item)
		res := make([]Parameter, len(items))
		for i, it := range items {
			res[i] = ParameterFromStackItem(it, seen)
		}
		return Parameter{Type: ArrayType, Value: res}
	case stackitem.MapT:
		if seen[item] {
			return Parameter{Type: MapType, Value: []ParameterPair{}}
		}
		seen[item] = true
		elems, _ := item.Value().([]stackitem.MapElement)
		res := make([]ParameterPair, len(elems))
		for i, e := range elems {
			res[i] = ParameterPair{
				Key:   ParameterFromStackItem(e.Key, seen),
				Value: ParameterFromStackItem(e.Value, seen),
			}
		}
		return Parameter{Type: MapType, Value: res}
	case stackitem.InteropT:
		return Parameter{Type: InteropInterfaceType, Value: nil}
	case stackitem.PointerT:
		return Parameter{Type: IntegerType, Value: item.Value()}
	default:
		return Parameter{Type: UnknownType, Value: nil}
	}
}
