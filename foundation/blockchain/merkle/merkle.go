// Package merkle provides a merkle tree over the block hashes of a chain so
// two chains can be compared by their root and a block's membership can be
// proven without the whole chain.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Proof orders. OrderLeft says the proof hash is concatenated before the
// running hash, OrderRight says it comes after.
const (
	OrderLeft  int64 = 0
	OrderRight int64 = 1
)

// ErrNotFound is returned when a proof is requested for a leaf that is not
// in the tree.
var ErrNotFound = errors.New("leaf not found in the tree")

// Tree represents a merkle tree. levels[0] holds the leaf hashes and the
// last level holds the root.
type Tree struct {
	levels       [][][]byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy(hashStrategy func() hash.Hash) func(t *Tree) {
	return func(t *Tree) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a merkle tree from the specified leaves. Each leaf is
// hashed once before it is placed in the tree.
func NewTree(leaves [][]byte, options ...func(t *Tree)) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.New("cannot construct tree with no content")
	}

	t := Tree{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = t.hash(leaf)
	}
	t.levels = append(t.levels, level)

	// An odd node at the end of a level is paired with itself.
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, t.hash(level[i], right))
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Root returns the merkle root.
func (t *Tree) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex returns the merkle root hex encoded.
func (t *Tree) RootHex() string {
	return hexutil.Encode(t.Root())
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving the leaf is in the tree.
func (t *Tree) Proof(leaf []byte) ([][]byte, []int64, error) {
	target := t.hash(leaf)

	index := -1
	for i, h := range t.levels[0] {
		if bytes.Equal(h, target) {
			index = i
			break
		}
	}

	if index == -1 {
		return nil, nil, ErrNotFound
	}

	var proof [][]byte
	var order []int64
	for _, level := range t.levels[:len(t.levels)-1] {
		switch {
		case index%2 == 1:
			proof = append(proof, level[index-1])
			order = append(order, OrderLeft)
		case index+1 < len(level):
			proof = append(proof, level[index+1])
			order = append(order, OrderRight)
		default:
			proof = append(proof, level[index])
			order = append(order, OrderRight)
		}
		index /= 2
	}

	return proof, order, nil
}

// VerifyProof reports whether the proof takes the leaf to the root.
func (t *Tree) VerifyProof(leaf []byte, proof [][]byte, order []int64) bool {
	if len(proof) != len(order) {
		return false
	}

	h := t.hash(leaf)
	for i, p := range proof {
		switch order[i] {
		case OrderLeft:
			h = t.hash(p, h)
		default:
			h = t.hash(h, p)
		}
	}

	return bytes.Equal(h, t.Root())
}

// hash hashes the concatenation of the parts.
func (t *Tree) hash(parts ...[]byte) []byte {
	h := t.hashStrategy()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
