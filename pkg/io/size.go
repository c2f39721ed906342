package io

// countingWriter discards bytes while counting how many were written; it
// backs GetVarSize so callers can learn an encoded size without actually
// allocating the encoded bytes.
type countingWriter struct{ n int }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

// GetVarSize returns the number of bytes v would occupy once encoded in
// Neo's binary format. v may be a Serializable, a []byte (encoded as
// VarBytes), a string (encoded as VarString) or an integer type (encoded
// as VarUint).
func GetVarSize(v interface{}) int {
	cw := &countingWriter{}
	w := NewBinWriterFromIO(cw)

	switch val := v.(type) {
	case Serializable:
		val.EncodeBinary(w)
	case []byte:
		w.WriteVarBytes(val)
	case string:
		w.WriteString(val)
	case int:
		w.WriteVarUint(uint64(val))
	case int64:
		w.WriteVarUint(uint64(val))
	case uint64:
		w.WriteVarUint(val)
	case uint32:
		w.WriteVarUint(uint64(val))
	default:
		panic("io: GetVarSize: unsupported type")
	}
	return cw.n
}
