// Package io provides the binary (de)serialisation primitives shared by
// every wire and storage format in the node: fixed-width little/big-endian
// integers, Neo's VarInt/VarBytes/VarString encoding and a Serializable
// interface implemented by every hashable/storable type.
package io

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Serializable defines a binary encoding/decoding contract. Every type
// that is hashed, stored or sent over the wire implements it.
type Serializable interface {
	EncodeBinary(w *BinWriter)
	DecodeBinary(r *BinReader)
}

// BinWriter wraps an io.Writer and provides Neo-specific binary encoding
// helpers. Write errors are latched: once Err is set, all further writes
// are no-ops, so call sites can chain a batch of writes and check the
// error once at the end.
type BinWriter struct {
	w io.Writer
	// Err holds the first error encountered, if any; once set, every
	// subsequent write is a no-op.
	Err error

	uint64Buf [8]byte
}

// NewBinWriterFromIO creates a BinWriter writing to w.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// SetError sets the writer's error, making every subsequent write a no-op.
func (w *BinWriter) SetError(err error) { w.Err = err }

func (w *BinWriter) writeBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteU64LE writes a uint64 in little-endian format.
func (w *BinWriter) WriteU64LE(u64 uint64) {
	binary.LittleEndian.PutUint64(w.uint64Buf[:], u64)
	w.writeBytes(w.uint64Buf[:8])
}

// WriteU32LE writes a uint32 in little-endian format.
func (w *BinWriter) WriteU32LE(u32 uint32) {
	binary.LittleEndian.PutUint32(w.uint64Buf[:4], u32)
	w.writeBytes(w.uint64Buf[:4])
}

// WriteU16LE writes a uint16 in little-endian format.
func (w *BinWriter) WriteU16LE(u16 uint16) {
	binary.LittleEndian.PutUint16(w.uint64Buf[:2], u16)
	w.writeBytes(w.uint64Buf[:2])
}

// WriteU16BE writes a uint16 in big-endian format.
func (w *BinWriter) WriteU16BE(u16 uint16) {
	binary.BigEndian.PutUint16(w.uint64Buf[:2], u16)
	w.writeBytes(w.uint64Buf[:2])
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(u8 byte) {
	w.uint64Buf[0] = u8
	w.writeBytes(w.uint64Buf[:1])
}

// WriteBool writes a bool as a single 0x00/0x01 byte.
func (w *BinWriter) WriteBool(b bool) {
	if b {
		w.WriteB(1)
	} else {
		w.WriteB(0)
	}
}

// WriteBE writes a fixed-size value (array, slice, or integer) in
// big-endian byte order; it is mainly used for hashes and signatures,
// which are fixed-width byte arrays by convention.
func (w *BinWriter) WriteBE(v interface{}) {
	if w.Err != nil {
		return
	}
	w.Err = binary.Write(w.w, binary.BigEndian, v)
}

// WriteLE writes a fixed-size value in little-endian byte order.
func (w *BinWriter) WriteLE(v interface{}) {
	if w.Err != nil {
		return
	}
	w.Err = binary.Write(w.w, binary.LittleEndian, v)
}

// WriteBytes writes a byte slice as-is, with no length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	w.writeBytes(b)
}

// WriteVarUint writes val as a Neo VarInt: values below 0xFD are encoded
// as a single byte, otherwise a marker byte (0xFD/0xFE/0xFF) followed by
// the value in 2/4/8 little-endian bytes.
func (w *BinWriter) WriteVarUint(val uint64) {
	if w.Err != nil {
		return
	}
	switch {
	case val < 0xfd:
		w.WriteB(byte(val))
	case val < 0xFFFF:
		w.WriteB(0xfd)
		w.WriteU16LE(uint16(val))
	case val < 0xFFFFFFFF:
		w.WriteB(0xfe)
		w.WriteU32LE(uint32(val))
	default:
		w.WriteB(0xff)
		w.WriteU64LE(val)
	}
}

// WriteVarBytes writes a length-prefixed (VarInt) byte slice.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}

// WriteString writes a length-prefixed (VarInt) UTF-8 string.
func (w *BinWriter) WriteString(s string) {
	w.WriteVarBytes([]byte(s))
}

// WriteArray writes arr, which must be a slice or array of Serializable
// values (or pointers to them), as a VarInt length prefix followed by each
// element's binary encoding.
func (w *BinWriter) WriteArray(arr interface{}) {
	switch v := arr.(type) {
	case []Serializable:
		w.WriteVarUint(uint64(len(v)))
		for _, s := range v {
			s.EncodeBinary(w)
		}
		return
	}
	writeArrayReflect(w, arr)
}

// ErrNegativeLength is returned when a length-prefixed field would require
// a negative number of bytes, which can only happen due to decoder misuse.
var ErrNegativeLength = errors.New("negative length")

// maxUint32 clamps a var-size computation to a safe bound.
const maxUint32 = math.MaxUint32
