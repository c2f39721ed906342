// Package slice contains a handful of byte-slice helpers shared across
// encoding and hashing code.
package slice

// CopyReverse returns a new slice containing the reversed bytes of b,
// leaving b untouched.
func CopyReverse(b []byte) []byte {
	dst := make([]byte, len(b))
	for i, v := range b {
		dst[len(b)-i-1] = v
	}
	return dst
}

// Reverse reverses b in place.
func Reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Clean zeroes out b in place; used to scrub key material from memory once
// it's no longer needed.
func Clean(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
