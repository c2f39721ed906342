// Package nef implements the NEF3 contract executable format: the
// container that pairs a compiled VM script with its compiler metadata,
// method tokens and a checksum, as deployed on chain alongside a
// contract's manifest.
package nef

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/io"
)

// MaxScriptLength is the largest script a NEF file may carry.
const MaxScriptLength = 512 * 1024

var (
	errInvalidReserved = errors.New("nef: reserved bytes must be zero")
	errEmptyScript     = errors.New("nef: script is empty")
	errChecksumMismatch = errors.New("nef: checksum verification failure")
)

// reservedBytes is written in the two 2-byte gaps the format reserves for
// future extensions; both must decode back to zero.
var reservedBytes [2]byte

// File is a complete NEF3 container.
type File struct {
	Header   Header
	Tokens   []MethodToken
	Script   []byte
	Checksum uint32
}

// EncodeBinary implements the io.Serializable interface.
func (h *File) EncodeBinary(w *io.BinWriter) {
	h.Header.EncodeBinary(w)
	w.WriteBytes(reservedBytes[:])
	w.WriteArray(h.Tokens)
	w.WriteBytes(reservedBytes[:])
	w.WriteVarBytes(h.Script)
	w.WriteU32LE(h.Checksum)
}

// DecodeBinary implements the io.Serializable interface.
func (h *File) DecodeBinary(r *io.BinReader) {
	h.Header.DecodeBinary(r)
	if r.Err != nil {
		return
	}

	var reserved [2]byte
	r.ReadBytes(reserved[:])
	if r.Err != nil {
		return
	}
	if reserved != reservedBytes {
		r.Err = errInvalidReserved
		return
	}

	h.Tokens = nil
	r.ReadArray(&h.Tokens)
	if r.Err != nil {
		return
	}

	r.ReadBytes(reserved[:])
	if r.Err != nil {
		return
	}
	if reserved != reservedBytes {
		r.Err = errInvalidReserved
		return
	}

	h.Script = r.ReadVarBytes(MaxScriptLength)
	if r.Err != nil {
		return
	}
	if len(h.Script) == 0 {
		r.Err = errEmptyScript
		return
	}

	h.Checksum = r.ReadU32LE()
	if r.Err != nil {
		return
	}
	if h.Checksum != h.CalculateChecksum() {
		r.Err = errChecksumMismatch
	}
}

// CalculateChecksum returns the checksum of h: the first four bytes,
// read little-endian, of the double-SHA256 digest of the file's encoding
// up to (but not including) the Checksum field itself.
func (h *File) CalculateChecksum() uint32 {
	buf := io.NewBufBinWriter()
	h.Header.EncodeBinary(buf.BinWriter)
	buf.WriteBytes(reservedBytes[:])
	buf.WriteArray(h.Tokens)
	buf.WriteBytes(reservedBytes[:])
	buf.WriteVarBytes(h.Script)
	return binary.LittleEndian.Uint32(hash.Checksum(buf.Bytes()))
}

// Bytes returns the binary encoding of h.
func (h File) Bytes() ([]byte, error) {
	buf := io.NewBufBinWriter()
	h.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return nil, buf.Err
	}
	return buf.Bytes(), nil
}

// NewFile creates a File wrapping script, with its checksum computed and
// no method tokens.
func NewFile(script []byte) (*File, error) {
	f := &File{
		Header: Header{Magic: Magic},
		Script: script,
	}
	if len(script) == 0 {
		return nil, errEmptyScript
	}
	if len(script) > MaxScriptLength {
		return nil, errors.New("nef: script is too long")
	}
	f.Checksum = f.CalculateChecksum()
	return f, nil
}

// FileFromBytes decodes a File from its binary encoding.
func FileFromBytes(data []byte) (File, error) {
	r := io.NewBinReaderFromBuf(data)
	f := File{}
	f.DecodeBinary(r)
	if r.Err != nil {
		return File{}, r.Err
	}
	return f, nil
}

// fileAux is File's flattened JSON shape: the header's fields are
// inlined rather than nested under a "header" key.
type fileAux struct {
	Magic    uint32        `json:"magic"`
	Compiler string        `json:"compiler"`
	Version  string        `json:"version,omitempty"`
	Tokens   []MethodToken `json:"tokens"`
	Script   []byte        `json:"script"`
	Checksum uint32        `json:"checksum"`
}

// MarshalJSON implements the json.Marshaler interface.
func (h File) MarshalJSON() ([]byte, error) {
	tokens := h.Tokens
	if tokens == nil {
		tokens = []MethodToken{}
	}
	return json.Marshal(fileAux{
		Magic:    h.Header.Magic,
		Compiler: h.Header.Compiler,
		Version:  h.Header.Version,
		Tokens:   tokens,
		Script:   h.Script,
		Checksum: h.Checksum,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *File) UnmarshalJSON(data []byte) error {
	var aux fileAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	h.Header = Header{Magic: aux.Magic, Compiler: aux.Compiler, Version: aux.Version}
	h.Tokens = aux.Tokens
	h.Script = aux.Script
	h.Checksum = aux.Checksum
	return nil
}
