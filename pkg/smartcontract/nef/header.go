package nef

import (
	"bytes"
	"errors"

	"github.com/neocorelabs/neo-core/pkg/io"
)

// Magic identifies a NEF file; it is the little-endian encoding of the
// ASCII string "NEF3".
const Magic uint32 = 0x3346454E

// maxCompilerLength is the fixed on-wire size of Header.Compiler; shorter
// strings are null-padded, longer ones are rejected.
const maxCompilerLength = 64

var (
	errInvalidMagic        = errors.New("nef: invalid Magic")
	errCompilerFieldTooLong = errors.New("nef: Compiler field exceeds maximum length")
)

// Header is the fixed-size preamble of a NEF file: a magic number
// identifying the format, the name/version of the compiler that produced
// it, and the version string of the source it was compiled from.
type Header struct {
	Magic    uint32
	Compiler string
	Version  string
}

// EncodeBinary implements the io.Serializable interface.
func (h *Header) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(h.Magic)
	if len(h.Compiler) > maxCompilerLength {
		w.SetError(errCompilerFieldTooLong)
		return
	}
	buf := make([]byte, maxCompilerLength)
	copy(buf, h.Compiler)
	w.WriteBytes(buf)
	w.WriteString(h.Version)
}

// DecodeBinary implements the io.Serializable interface.
func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Magic = r.ReadU32LE()
	if r.Err != nil {
		return
	}
	if h.Magic != Magic {
		r.Err = errInvalidMagic
		return
	}
	buf := make([]byte, maxCompilerLength)
	r.ReadBytes(buf)
	if r.Err != nil {
		return
	}
	h.Compiler = string(bytes.TrimRight(buf, "\x00"))
	h.Version = r.ReadString()
}
