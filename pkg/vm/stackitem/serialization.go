package stackitem

import (
	"fmt"

	"github.com/neocorelabs/neo-core/pkg/encoding/bigint"
	"github.com/neocorelabs/neo-core/pkg/io"
)

// SerializationContext serializes a sequence of items sharing a single
// running size budget, so that a caller emitting many items one at a time
// (e.g. notification arguments accumulated over a transaction's execution)
// can still be held to one overall MaxSize limit instead of each item being
// checked in isolation.
type SerializationContext struct {
	size int
}

// NewSerializationContext creates an empty SerializationContext.
func NewSerializationContext() *SerializationContext {
	return &SerializationContext{}
}

// Serialize encodes item and returns its binary encoding. If limited is
// true, the item is rejected with ErrTooBig when encoding it would push
// the context's running total past MaxSize; the running total is only
// advanced on success.
func (sc *SerializationContext) Serialize(item Item, limited bool) ([]byte, error) {
	buf := io.NewBufBinWriter()
	if limited {
		encodeBinary(item, buf.BinWriter, buf)
	} else {
		encodeBinary(item, buf.BinWriter, nil)
	}
	if buf.Err != nil {
		return nil, buf.Err
	}
	data := buf.Bytes()
	if limited && sc.size+len(data) > MaxSize {
		return nil, ErrTooBig
	}
	sc.size += len(data)
	return data, nil
}

// Serialize encodes item into the Neo VM's binary stack item format,
// aborting with ErrTooBig as soon as the encoded size would exceed MaxSize
// rather than writing out the whole (oversized) tree.
func Serialize(item Item) ([]byte, error) {
	buf := io.NewBufBinWriter()
	encodeBinary(item, buf.BinWriter, buf)
	if buf.Err != nil {
		return nil, buf.Err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes an item previously produced by Serialize.
func Deserialize(data []byte) (Item, error) {
	r := io.NewBinReaderFromBuf(data)
	item := DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return item, nil
}

// SerializeConvertible converts v to a stack item and serializes it.
func SerializeConvertible(v Convertible) ([]byte, error) {
	item, err := v.ToStackItem()
	if err != nil {
		return nil, err
	}
	return Serialize(item)
}

// DeserializeConvertible deserializes data into a stack item and fills v from it.
func DeserializeConvertible(data []byte, v Convertible) error {
	item, err := Deserialize(data)
	if err != nil {
		return err
	}
	return v.FromStackItem(item)
}

// EncodeBinary writes item's binary encoding to w, following the
// io.Serializable convention. It performs no MaxSize bookkeeping; use
// Serialize when an oversized item must be rejected early.
func EncodeBinary(item Item, w *io.BinWriter) {
	encodeBinary(item, w, nil)
}

// EncodeBinaryStackItem is an alias of EncodeBinary kept for call sites
// that spell it out in full.
func EncodeBinaryStackItem(item Item, w *io.BinWriter) {
	EncodeBinary(item, w)
}

// DecodeBinaryStackItem is an alias of DecodeBinary kept for call sites
// that spell it out in full.
func DecodeBinaryStackItem(r *io.BinReader) Item {
	return DecodeBinary(r)
}

func encodeBinary(item Item, w *io.BinWriter, limit *io.BufBinWriter) {
	if w.Err != nil {
		return
	}
	if limit != nil && limit.Len() > MaxSize {
		w.SetError(ErrTooBig)
		return
	}
	switch t := item.(type) {
	case Null:
		w.WriteB(byte(AnyT))
	case *Bool:
		w.WriteB(byte(BooleanT))
		w.WriteBool(t.value)
	case *BigInteger:
		w.WriteB(byte(IntegerT))
		w.WriteVarBytes(bigint.ToBytes(t.value))
	case *ByteArray:
		w.WriteB(byte(ByteArrayT))
		w.WriteVarBytes(t.value)
	case *Buffer:
		w.WriteB(byte(BufferT))
		w.WriteVarBytes(t.value)
	case *Array:
		w.WriteB(byte(ArrayT))
		encodeBinaryItems(t.value, w, limit)
	case *Struct:
		w.WriteB(byte(StructT))
		encodeBinaryItems(t.value, w, limit)
	case *Map:
		w.WriteB(byte(MapT))
		w.WriteVarUint(uint64(len(t.value)))
		for _, e := range t.value {
			encodeBinary(e.Key, w, limit)
			if w.Err != nil {
				return
			}
			if limit != nil && limit.Len() > MaxSize {
				w.SetError(ErrTooBig)
				return
			}
			encodeBinary(e.Value, w, limit)
			if w.Err != nil {
				return
			}
		}
	default:
		w.SetError(fmt.Errorf("stackitem: %s cannot be serialized", item.Type()))
	}
}

func encodeBinaryItems(items []Item, w *io.BinWriter, limit *io.BufBinWriter) {
	w.WriteVarUint(uint64(len(items)))
	for _, it := range items {
		if limit != nil && limit.Len() > MaxSize {
			w.SetError(ErrTooBig)
			return
		}
		encodeBinary(it, w, limit)
		if w.Err != nil {
			return
		}
	}
}

// DecodeBinary reads an item previously written by EncodeBinary/Serialize.
func DecodeBinary(r *io.BinReader) Item {
	if r.Err != nil {
		return nil
	}
	typ := Type(r.ReadB())
	if r.Err != nil {
		return nil
	}
	switch typ {
	case AnyT:
		return Null{}
	case BooleanT:
		return NewBool(r.ReadBool())
	case IntegerT:
		b := r.ReadVarBytes(MaxBigIntegerSizeBits/8 + 1)
		if r.Err != nil {
			return nil
		}
		return &BigInteger{value: bigint.FromBytes(b)}
	case ByteArrayT:
		return NewByteArray(r.ReadVarBytes(MaxSize))
	case BufferT:
		return NewBuffer(r.ReadVarBytes(MaxSize))
	case ArrayT:
		return NewArray(decodeBinaryItems(r))
	case StructT:
		return NewStruct(decodeBinaryItems(r))
	case MapT:
		count := r.ReadVarUint()
		m := NewMap()
		for i := uint64(0); i < count && r.Err == nil; i++ {
			key := DecodeBinary(r)
			val := DecodeBinary(r)
			if r.Err != nil {
				return nil
			}
			m.Add(key, val)
		}
		return m
	default:
		r.Err = fmt.Errorf("stackitem: unknown wire type %d", byte(typ))
		return nil
	}
}

func decodeBinaryItems(r *io.BinReader) []Item {
	count := r.ReadVarUint()
	if r.Err != nil {
		return nil
	}
	items := make([]Item, 0, count)
	for i := uint64(0); i < count && r.Err == nil; i++ {
		items = append(items, DecodeBinary(r))
	}
	return items
}
