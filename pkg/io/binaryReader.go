package io

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrArrayTooBig is returned by ReadArray/ReadVarBytes when the encoded
// length exceeds the caller-supplied maximum.
var ErrArrayTooBig = errors.New("io: array is too big")

// BinReader wraps an io.Reader and provides Neo-specific binary decoding
// helpers. Read errors are latched in Err; once set, further reads are
// no-ops returning the zero value, mirroring BinWriter's behaviour so
// callers can chain reads and check the error once.
type BinReader struct {
	r   io.Reader
	Err error

	uint64Buf [8]byte
}

// NewBinReaderFromIO creates a BinReader reading from ior.
func NewBinReaderFromIO(ior io.Reader) *BinReader {
	return &BinReader{r: ior}
}

// NewBinReaderFromBuf creates a BinReader reading from an in-memory buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return NewBinReaderFromIO(&byteReader{b: b})
}

// byteReader is a minimal bytes.Reader-alike avoiding an extra import for
// the common "decode from a []byte" case.
type byteReader struct {
	b []byte
	i int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

func (r *BinReader) readBytes(b []byte) {
	if r.Err != nil {
		return
	}
	_, r.Err = io.ReadFull(r.r, b)
}

// ReadU64LE reads a little-endian uint64.
func (r *BinReader) ReadU64LE() uint64 {
	r.readBytes(r.uint64Buf[:8])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(r.uint64Buf[:8])
}

// ReadU32LE reads a little-endian uint32.
func (r *BinReader) ReadU32LE() uint32 {
	r.readBytes(r.uint64Buf[:4])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(r.uint64Buf[:4])
}

// ReadU16LE reads a little-endian uint16.
func (r *BinReader) ReadU16LE() uint16 {
	r.readBytes(r.uint64Buf[:2])
	if r.Err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(r.uint64Buf[:2])
}

// ReadU16BE reads a big-endian uint16.
func (r *BinReader) ReadU16BE() uint16 {
	r.readBytes(r.uint64Buf[:2])
	if r.Err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(r.uint64Buf[:2])
}

// ReadB reads a single byte.
func (r *BinReader) ReadB() byte {
	r.readBytes(r.uint64Buf[:1])
	if r.Err != nil {
		return 0
	}
	return r.uint64Buf[0]
}

// ReadBool reads a single byte as a bool (nonzero is true).
func (r *BinReader) ReadBool() bool {
	return r.ReadB() != 0
}

// ReadBytes reads exactly len(b) bytes into b.
func (r *BinReader) ReadBytes(b []byte) {
	r.readBytes(b)
}

// ReadBE reads a fixed-size value in big-endian order into v, which must
// be a pointer or a fixed-size array.
func (r *BinReader) ReadBE(v interface{}) {
	if r.Err != nil {
		return
	}
	r.Err = binary.Read(r.r, binary.BigEndian, v)
}

// ReadLE reads a fixed-size value in little-endian order into v.
func (r *BinReader) ReadLE(v interface{}) {
	if r.Err != nil {
		return
	}
	r.Err = binary.Read(r.r, binary.LittleEndian, v)
}

// ReadVarUint reads a Neo VarInt-encoded uint64.
func (r *BinReader) ReadVarUint() uint64 {
	b := r.ReadB()
	if r.Err != nil {
		return 0
	}
	switch b {
	case 0xfd:
		return uint64(r.ReadU16LE())
	case 0xfe:
		return uint64(r.ReadU32LE())
	case 0xff:
		return r.ReadU64LE()
	default:
		return uint64(b)
	}
}

// ReadVarBytes reads a VarInt-length-prefixed byte slice. An optional
// maxSize caps the accepted length, failing closed with ErrArrayTooBig.
func (r *BinReader) ReadVarBytes(maxSize ...int) []byte {
	n := r.ReadVarUint()
	if r.Err != nil {
		return []byte{}
	}
	max := uint64(MaxArraySize)
	if len(maxSize) > 0 {
		max = uint64(maxSize[0])
	}
	if n > max {
		r.Err = ErrArrayTooBig
		return []byte{}
	}
	b := make([]byte, n)
	r.readBytes(b)
	if r.Err != nil {
		return []byte{}
	}
	return b
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func (r *BinReader) ReadString() string {
	return string(r.ReadVarBytes())
}

// ReadArray reads a VarInt-prefixed array of Serializable values into the
// slice pointed to by arrPtr, allocating elements as needed. An optional
// maxCount caps the accepted element count.
func (r *BinReader) ReadArray(arrPtr interface{}, maxCount ...int) {
	max := 0
	if len(maxCount) > 0 {
		max = maxCount[0]
	}
	readArrayReflect(r, arrPtr, max)
}

// MaxArraySize is the default cap applied to VarBytes/VarString reads that
// don't specify an explicit maximum; it matches the wire limit on a single
// P2P message payload.
const MaxArraySize = 0x02000000
