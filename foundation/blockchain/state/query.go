package state

import (
	"errors"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrBlockNotFound is returned when a block is not part of the chain.
var ErrBlockNotFound = errors.New("block not found in the chain")

// Proof is the merkle proof that a block is part of this node's chain.
type Proof struct {
	BlockID string   `json:"block_id"`
	Hash    string   `json:"hash"`
	Root    string   `json:"root"`
	Proof   []string `json:"proof"`
	Order   []int64  `json:"order"`
}

// NodeID returns the id of this node.
func (s *State) NodeID() int {
	return s.nodeID
}

// NodeCount returns the number of nodes in the network.
func (s *State) NodeCount() int {
	return s.nodeCount
}

// IsPending reports whether the block is still waiting to be solved.
func (s *State) IsPending(blockID string) bool {
	return s.db.IsPending(blockID)
}

// QueryChain returns a copy of the verified chain in append order.
func (s *State) QueryChain() []database.Block {
	return s.db.List()
}

// QueryPending returns a copy of the unverified set, oldest first.
func (s *State) QueryPending() []database.Block {
	return s.db.Pending()
}

// VerifyChain recomputes the digest of every block in the chain and
// reports whether each one still matches its stored solution.
func (s *State) VerifyChain() bool {
	valid := s.db.RecomputeAndCheck()
	s.evHandler("state: VerifyChain: chain[%d]: valid[%t]", len(s.db.List()), valid)

	return valid
}

// QueryCredits returns the number of blocks each node solved. Every node
// in the network has an entry.
func (s *State) QueryCredits() map[int]int {
	return s.db.Credits(s.nodeCount)
}

// QueryKeys returns the public keys this node knows about.
func (s *State) QueryKeys() map[int][]byte {
	return s.keys.Copy()
}

// QueryBlock returns the verified block with the specified id.
func (s *State) QueryBlock(blockID string) (database.Block, error) {
	for _, block := range s.db.List() {
		if block.ID == blockID {
			return block, nil
		}
	}

	return database.Block{}, ErrBlockNotFound
}

// QueryRoot returns the merkle root over the hashes of the chain. Two nodes
// holding the same chain report the same root. An empty chain has no root.
func (s *State) QueryRoot() string {
	tree, err := chainTree(s.db.List())
	if err != nil {
		return ""
	}

	return tree.RootHex()
}

// QueryProof returns the merkle proof that the block is part of the chain.
func (s *State) QueryProof(blockID string) (Proof, error) {
	chain := s.db.List()

	tree, err := chainTree(chain)
	if err != nil {
		return Proof{}, ErrBlockNotFound
	}

	for _, block := range chain {
		if block.ID != blockID {
			continue
		}

		hashes, order, err := tree.Proof([]byte(block.Hash))
		if err != nil {
			return Proof{}, err
		}

		proof := Proof{
			BlockID: block.ID,
			Hash:    block.Hash,
			Root:    tree.RootHex(),
			Order:   order,
		}
		for _, h := range hashes {
			proof.Proof = append(proof.Proof, hexutil.Encode(h))
		}

		return proof, nil
	}

	return Proof{}, ErrBlockNotFound
}

// chainTree builds the merkle tree over the block hashes in chain order.
func chainTree(chain []database.Block) (*merkle.Tree, error) {
	leaves := make([][]byte, len(chain))
	for i, block := range chain {
		leaves[i] = []byte(block.Hash)
	}

	return merkle.NewTree(leaves)
}
