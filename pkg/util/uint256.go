package util

import (
	"encoding/hex"
	"fmt"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// Uint256 is a 32 byte long unsigned integer, used for block and
// transaction hashes. Like Uint160 it is stored in little-endian order.
type Uint256 [Uint256Size]byte

// Uint256DecodeBytesBE attempts to decode the given big-endian bytes into a
// new Uint256.
func Uint256DecodeBytesBE(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected %d bytes, got %d", Uint256Size, len(b))
	}
	for i, v := range b {
		u[Uint256Size-i-1] = v
	}
	return u, nil
}

// Uint256DecodeBytesLE attempts to decode the given little-endian bytes
// into a new Uint256.
func Uint256DecodeBytesLE(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected %d bytes, got %d", Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Uint256DecodeStringBE attempts to decode the given hex-encoded,
// big-endian string into a new Uint256.
func Uint256DecodeStringBE(s string) (u Uint256, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytesBE(b)
}

// Uint256DecodeStringLE attempts to decode the given hex-encoded,
// little-endian string into a new Uint256.
func Uint256DecodeStringLE(s string) (u Uint256, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytesLE(b)
}

// BytesBE returns a big-endian byte representation of u.
func (u Uint256) BytesBE() []byte {
	out := make([]byte, Uint256Size)
	for i, v := range u {
		out[Uint256Size-i-1] = v
	}
	return out
}

// BytesLE returns a little-endian byte representation of u.
func (u Uint256) BytesLE() []byte {
	out := make([]byte, Uint256Size)
	copy(out, u[:])
	return out
}

// Equals returns true if both Uint256 values are equal.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// CompareTo compares u to other, treating both as little-endian byte
// arrays, returning a negative number, zero, or a positive number.
func (u Uint256) CompareTo(other Uint256) int {
	for i := Uint256Size - 1; i >= 0; i-- {
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
func (u Uint256) StringBE() string {
	return hex.EncodeToString(u.BytesBE())
}

// StringLE produces a hex-encoded little-endian string from u.
func (u Uint256) StringLE() string {
	return hex.EncodeToString(u.BytesLE())
}

// String implements the fmt.Stringer interface.
func (u Uint256) String() string {
	return "0x" + u.StringBE()
}

// MarshalJSON implements the json.Marshaler interface.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + u.StringBE() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *Uint256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = jsonUnquote(data, &js); err != nil {
		return err
	}
	js = trim0x(js)
	*u, err = Uint256DecodeStringBE(js)
	return err
}
