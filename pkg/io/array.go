package io

import "reflect"

// writeArrayReflect implements WriteArray for slice/array values whose
// element type implements Serializable via a value or pointer receiver.
func writeArrayReflect(w *BinWriter, arr interface{}) {
	val := reflect.ValueOf(arr)
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		panic("io: WriteArray expects a slice or array")
	}
	if w.Err != nil {
		return
	}
	l := val.Len()
	w.WriteVarUint(uint64(l))
	for i := 0; i < l; i++ {
		elem := val.Index(i)
		s, ok := elem.Interface().(Serializable)
		if !ok && elem.CanAddr() {
			s, ok = elem.Addr().Interface().(Serializable)
		}
		if !ok {
			panic("io: WriteArray element does not implement Serializable")
		}
		s.EncodeBinary(w)
		if w.Err != nil {
			return
		}
	}
}

// readArrayReflect implements ReadArray for a pointer to a slice of
// pointer-to-Serializable elements, allocating each element and the slice
// itself.
func readArrayReflect(r *BinReader, arrPtr interface{}, maxCount int) {
	ptr := reflect.ValueOf(arrPtr)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Slice {
		panic("io: ReadArray expects a pointer to a slice")
	}
	sliceVal := ptr.Elem()
	elemType := sliceVal.Type().Elem()

	l := int(r.ReadVarUint())
	if r.Err != nil {
		return
	}
	if maxCount > 0 && l > maxCount {
		r.Err = ErrArrayTooBig
		return
	}
	out := reflect.MakeSlice(sliceVal.Type(), l, l)
	for i := 0; i < l; i++ {
		var elemPtr reflect.Value
		if elemType.Kind() == reflect.Ptr {
			elemPtr = reflect.New(elemType.Elem())
			out.Index(i).Set(elemPtr)
		} else {
			elemPtr = out.Index(i).Addr()
		}
		s, ok := elemPtr.Interface().(Serializable)
		if !ok {
			panic("io: ReadArray element does not implement Serializable")
		}
		s.DecodeBinary(r)
		if r.Err != nil {
			return
		}
	}
	sliceVal.Set(out)
}
