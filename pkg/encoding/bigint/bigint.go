// Package bigint converts between math/big.Int and the minimal two's
// complement little-endian byte encoding used by the VM's Integer stack
// item and by storage values that hold raw numeric state.
package bigint

import "math/big"

// MaxBytesLen is the maximum number of bytes a VM integer may occupy.
const MaxBytesLen = 33

// ToPreallocatedBytes encodes n into buf (appending and returning the
// grown slice), using the minimal-length two's complement little-endian
// representation. The sign is inferred from n; 0 encodes to an empty
// slice.
func ToPreallocatedBytes(n *big.Int, buf []byte) []byte {
	sign := n.Sign()
	if sign == 0 {
		return buf
	}

	isNeg := sign == -1
	bs := n.Bytes() // big-endian, magnitude only

	if isNeg {
		// Work on a copy: subtract 1 from the magnitude, we'll flip bits below.
		mag := new(big.Int).SetBytes(bs)
		mag.Sub(mag, big.NewInt(1))
		bs = mag.Bytes()
	}

	start := len(buf)
	buf = growAndReverse(buf, bs)

	if isNeg {
		for i := start; i < len(buf); i++ {
			buf[i] = ^buf[i]
		}
	}

	// Ensure the encoding carries the correct sign bit in its top byte,
	// padding with an extra 0x00/0xFF byte when the magnitude's own
	// high bit would otherwise flip the sign.
	last := len(buf) - 1
	if last >= start {
		if !isNeg && buf[last]&0x80 != 0 {
			buf = append(buf, 0x00)
		} else if isNeg && buf[last]&0x80 == 0 {
			buf = append(buf, 0xFF)
		}
	}
	return buf
}

// growAndReverse appends the big-endian bytes bs to buf in little-endian
// order.
func growAndReverse(buf []byte, bs []byte) []byte {
	for i := len(bs) - 1; i >= 0; i-- {
		buf = append(buf, bs[i])
	}
	return buf
}

// ToBytes encodes n the same way ToPreallocatedBytes does, into a
// freshly allocated slice.
func ToBytes(n *big.Int) []byte {
	return ToPreallocatedBytes(n, []byte{})
}

// FromBytes decodes data as a little-endian two's complement integer. An
// empty slice decodes to 0. FromBytes never panics: any byte slice, of
// any length, has a well-defined value.
func FromBytes(data []byte) *big.Int {
	n := new(big.Int)
	if len(data) == 0 {
		return n
	}

	isNeg := data[len(data)-1]&0x80 != 0

	be := make([]byte, len(data))
	for i, b := range data {
		be[len(data)-1-i] = b
	}

	if !isNeg {
		n.SetBytes(be)
		return n
	}

	for i := range be {
		be[i] = ^be[i]
	}
	n.SetBytes(be)
	n.Add(n, big.NewInt(1))
	n.Neg(n)
	return n
}
