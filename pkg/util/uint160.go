package util

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Uint160Size is the size of Uint160 in bytes.
const Uint160Size = 20

// Uint160 is a 20 byte long unsigned integer. It stores a script hash
// (hash160 of a verification script) in little-endian order, the same way
// the rest of the Neo ecosystem does.
type Uint160 [Uint160Size]byte

// Uint160DecodeBytesBE attempts to decode the given bytes, which should be
// in big-endian order, into a new Uint160.
func Uint160DecodeBytesBE(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("expected %d bytes, got %d", Uint160Size, len(b))
	}
	for i, v := range b {
		u[Uint160Size-i-1] = v
	}
	return u, nil
}

// Uint160DecodeBytesLE attempts to decode the given bytes into a new
// Uint160, assuming that they are in little-endian order.
func Uint160DecodeBytesLE(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("expected %d bytes, got %d", Uint160Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Uint160DecodeStringBE attempts to decode the given string (hex-encoded,
// big-endian) into a new Uint160.
func Uint160DecodeStringBE(s string) (u Uint160, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint160DecodeBytesBE(b)
}

// Uint160DecodeStringLE attempts to decode the given string (hex-encoded,
// little-endian) into a new Uint160.
func Uint160DecodeStringLE(s string) (u Uint160, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint160DecodeBytesLE(b)
}

// BytesBE returns a big-endian byte representation of u.
func (u Uint160) BytesBE() []byte {
	out := make([]byte, Uint160Size)
	for i, v := range u {
		out[Uint160Size-i-1] = v
	}
	return out
}

// BytesLE returns a little-endian byte representation of u.
func (u Uint160) BytesLE() []byte {
	out := make([]byte, Uint160Size)
	copy(out, u[:])
	return out
}

// Reverse returns a reversed copy of u.
func (u Uint160) Reverse() Uint160 {
	var ret Uint160
	for i, v := range u {
		ret[Uint160Size-i-1] = v
	}
	return ret
}

// Equals returns true if both Uint160 values are equal.
func (u Uint160) Equals(other Uint160) bool {
	return u == other
}

// CompareTo compares u to other byte by byte, returning a negative number,
// zero, or a positive number depending on whether u is less than, equal to,
// or greater than other, using whole-array lexicographic comparison of the
// stored (little-endian) bytes.
func (u Uint160) CompareTo(other Uint160) int {
	for i := Uint160Size - 1; i >= 0; i-- {
		if u[i] != other[i] {
			if u[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// StringBE produces a hex-encoded big-endian string from u.
func (u Uint160) StringBE() string {
	return hex.EncodeToString(u.BytesBE())
}

// StringLE produces a hex-encoded little-endian string from u.
func (u Uint160) StringLE() string {
	return hex.EncodeToString(u.BytesLE())
}

// String implements the fmt.Stringer interface and produces a "0x"-prefixed,
// big-endian representation (the canonical Neo human-readable hash form).
func (u Uint160) String() string {
	return "0x" + u.StringBE()
}

// MarshalJSON implements the json.Marshaler interface.
func (u Uint160) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + u.StringBE() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *Uint160) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = jsonUnquote(data, &js); err != nil {
		return err
	}
	js = trim0x(js)
	*u, err = Uint160DecodeStringBE(js)
	return err
}

// ErrInvalidUint160 is returned when a byte slice or string can't be
// interpreted as a Uint160.
var ErrInvalidUint160 = errors.New("invalid Uint160")
