package keys

import (
	"bytes"
	"sort"

	"github.com/neocorelabs/neo-core/pkg/io"
)

// PublicKeys is a list of public keys, ordered by their compressed
// encoding. Committee and validator lists are persisted and compared in
// this canonical order.
type PublicKeys []*PublicKey

func (keys PublicKeys) Len() int      { return len(keys) }
func (keys PublicKeys) Swap(i, j int) { keys[i], keys[j] = keys[j], keys[i] }
func (keys PublicKeys) Less(i, j int) bool {
	return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) < 0
}

// Sort orders the list in its canonical byte order, in place.
func (keys PublicKeys) Sort() { sort.Sort(keys) }

// Contains reports whether pub is present in the list.
func (keys PublicKeys) Contains(pub *PublicKey) bool {
	for _, k := range keys {
		if k.Equal(pub) {
			return true
		}
	}
	return false
}

// Unique returns a sorted copy of keys with duplicates removed.
func (keys PublicKeys) Unique() PublicKeys {
	cp := make(PublicKeys, len(keys))
	copy(cp, keys)
	sort.Sort(cp)
	out := cp[:0]
	for i, k := range cp {
		if i == 0 || !out[len(out)-1].Equal(k) {
			out = append(out, k)
		}
	}
	return out
}

// EncodeBinary implements the io.Serializable interface.
func (keys PublicKeys) EncodeBinary(w *io.BinWriter) {
	w.WriteVarUint(uint64(len(keys)))
	for _, k := range keys {
		k.EncodeBinary(w)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (keys *PublicKeys) DecodeBinary(r *io.BinReader) {
	n := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	list := make(PublicKeys, n)
	for i := range list {
		list[i] = new(PublicKey)
		list[i].DecodeBinary(r)
		if r.Err != nil {
			return
		}
	}
	*keys = list
}
