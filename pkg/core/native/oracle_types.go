package native

import (
	"crypto/elliptic"
	"errors"

	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// IDList is a sorted list of pending oracle request IDs sharing the same
// URL, stored under the request's URL-derived key so a single oracle
// response can resolve every request that asked for it.
type IDList []uint64

// EncodeBinary implements the io.Serializable interface.
func (l IDList) EncodeBinary(w *io.BinWriter) {
	items := make([]stackitem.Item, len(l))
	for i, id := range l {
		items[i] = stackitem.Make(id)
	}
	stackitem.EncodeBinary(stackitem.NewArray(items), w)
}

// DecodeBinary implements the io.Serializable interface.
func (l *IDList) DecodeBinary(r *io.BinReader) {
	it := stackitem.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	arr, ok := it.Value().([]stackitem.Item)
	if !ok {
		r.Err = errors.New("native: IDList is not an array")
		return
	}
	*l = make(IDList, len(arr))
	for i, item := range arr {
		id, err := stackitem.ToUint64(item)
		if err != nil {
			r.Err = err
			return
		}
		(*l)[i] = id
	}
}

// Remove deletes id from the list, reporting whether it was present.
func (l *IDList) Remove(id uint64) bool {
	for i, v := range *l {
		if v == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// NodeList is a list of node public keys designated for a given role,
// stored sorted by key bytes so repeated designation reads are
// deterministic.
type NodeList []*keys.PublicKey

// EncodeBinary implements the io.Serializable interface.
func (l NodeList) EncodeBinary(w *io.BinWriter) {
	items := make([]stackitem.Item, len(l))
	for i, pub := range l {
		items[i] = stackitem.NewByteArray(pub.Bytes())
	}
	stackitem.EncodeBinary(stackitem.NewArray(items), w)
}

// DecodeBinary implements the io.Serializable interface.
func (l *NodeList) DecodeBinary(r *io.BinReader) {
	it := stackitem.DecodeBinary(r)
	if r.Err != nil {
		return
	}
	arr, ok := it.Value().([]stackitem.Item)
	if !ok {
		r.Err = errors.New("native: NodeList is not an array")
		return
	}
	*l = make(NodeList, len(arr))
	for i, item := range arr {
		raw, ok := item.Value().([]byte)
		if !ok {
			r.Err = errors.New("native: NodeList element is not a byte string")
			return
		}
		pub, err := keys.NewPublicKeyFromBytes(raw, elliptic.P256())
		if err != nil {
			r.Err = err
			return
		}
		(*l)[i] = pub
	}
}

// Weight reports how many nodes are designated, used to size result arrays.
func (l NodeList) Weight() int { return len(l) }
