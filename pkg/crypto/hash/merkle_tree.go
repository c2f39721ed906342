package hash

import (
	"errors"

	"github.com/neocorelabs/neo-core/pkg/util"
)

// MerkleTreeNode is a single node of a MerkleTree.
type MerkleTreeNode struct {
	hash       util.Uint256
	parent     *MerkleTreeNode
	leftChild  *MerkleTreeNode
	rightChild *MerkleTreeNode
}

// Hash returns the node's hash.
func (n *MerkleTreeNode) Hash() util.Uint256 { return n.hash }

// IsLeaf returns true if the node has no children.
func (n *MerkleTreeNode) IsLeaf() bool {
	return n.leftChild == nil && n.rightChild == nil
}

// IsRoot returns true if the node has no parent.
func (n *MerkleTreeNode) IsRoot() bool {
	return n.parent == nil
}

// MerkleTree represents a Merkle tree over a list of transaction hashes.
type MerkleTree struct {
	root  *MerkleTreeNode
	depth int
}

// NewMerkleTree returns a newly built Merkle tree over hashes.
func NewMerkleTree(hashes []util.Uint256) (*MerkleTree, error) {
	if len(hashes) == 0 {
		return nil, errors.New("hash: empty hash list")
	}

	nodes := make([]*MerkleTreeNode, len(hashes))
	for i, h := range hashes {
		nodes[i] = &MerkleTreeNode{hash: h}
	}

	root := buildMerkleTree(nodes)
	return &MerkleTree{root: root, depth: 1}, nil
}

// Root returns the computed Merkle root hash.
func (t *MerkleTree) Root() util.Uint256 {
	return t.root.hash
}

// buildMerkleTree recursively pairs up nodes (duplicating the last one
// when the count is odd) until a single root node remains.
func buildMerkleTree(leaves []*MerkleTreeNode) *MerkleTreeNode {
	if len(leaves) == 0 {
		panic("hash: buildMerkleTree called with no leaves")
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	parents := make([]*MerkleTreeNode, (len(leaves)+1)/2)
	for i := range parents {
		parent := &MerkleTreeNode{}
		parent.leftChild = leaves[i*2]
		leaves[i*2].parent = parent

		if i*2+1 == len(leaves) {
			parent.rightChild = parent.leftChild
		} else {
			parent.rightChild = leaves[i*2+1]
			leaves[i*2+1].parent = parent
		}

		b1 := parent.leftChild.hash.BytesBE()
		b2 := parent.rightChild.hash.BytesBE()
		concat := append(append([]byte{}, b1...), b2...)
		parent.hash = DoubleSha256(concat)

		parents[i] = parent
	}

	return buildMerkleTree(parents)
}

// CalcMerkleRoot computes the Merkle root of hashes directly, without
// constructing the intermediate tree structure.
func CalcMerkleRoot(hashes []util.Uint256) util.Uint256 {
	if len(hashes) == 0 {
		return util.Uint256{}
	}
	level := make([]util.Uint256, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		next := make([]util.Uint256, (len(level)+1)/2)
		for i := range next {
			b1 := level[i*2].BytesBE()
			var b2 []byte
			if i*2+1 == len(level) {
				b2 = b1
			} else {
				b2 = level[i*2+1].BytesBE()
			}
			concat := append(append([]byte{}, b1...), b2...)
			next[i] = DoubleSha256(concat)
		}
		level = next
	}
	return level[0]
}
