// Package database handles the in memory state of a node: the set of
// unverified blocks waiting to be solved and the verified chain.
package database

import (
	"sort"
	"sync"

	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
)

// Exporter interface represents the behavior required to be implemented by any
// package providing support for archiving the verified chain.
type Exporter interface {
	Export(blocks []Block) error
}

// =============================================================================

// Database manages the unverified set and the verified chain for a node.
type Database struct {
	mu       sync.RWMutex
	pending  map[string]Block
	chain    []Block
	verified map[string]struct{}
}

// New constructs an empty database.
func New() *Database {
	return &Database{
		pending:  make(map[string]Block),
		verified: make(map[string]struct{}),
	}
}

// AddPending adds the block to the unverified set. A block that is already
// part of the verified chain is not added and false is returned.
func (db *Database) AddPending(block Block) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.verified[block.ID]; exists {
		return false
	}

	db.pending[block.ID] = block
	return true
}

// IsPending reports whether the block is in the unverified set.
func (db *Database) IsPending(blockID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.pending[blockID]
	return exists
}

// RemovePending removes the block from the unverified set. Removing a block
// that is not there does nothing.
func (db *Database) RemovePending(blockID string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.pending, blockID)
}

// AppendVerified adds the block to the end of the chain. No validation
// is performed.
func (db *Database) AppendVerified(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.appendVerified(block)
}

// Finalize removes the block from the unverified set and appends it to the
// chain in one step. If the block is already in the chain nothing changes
// and false is returned.
func (db *Database) Finalize(block Block) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.pending, block.ID)

	if _, exists := db.verified[block.ID]; exists {
		return false
	}

	db.appendVerified(block)
	return true
}

// IsVerified reports whether the block is in the verified chain.
func (db *Database) IsVerified(blockID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.verified[blockID]
	return exists
}

// PeekLastHash returns the hash of the last block in the chain or the
// zero hash when the chain is empty.
func (db *Database) PeekLastHash() string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if len(db.chain) == 0 {
		return signature.ZeroHash
	}

	return db.chain[len(db.chain)-1].Hash
}

// List returns a copy of the verified chain in the order it was appended.
func (db *Database) List() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.chain))
	copy(blocks, db.chain)
	return blocks
}

// Pending returns a copy of the unverified set ordered by creation time.
func (db *Database) Pending() []Block {
	db.mu.RLock()
	blocks := make([]Block, 0, len(db.pending))
	for _, block := range db.pending {
		blocks = append(blocks, block)
	}
	db.mu.RUnlock()

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].TimeStamp < blocks[j].TimeStamp
	})

	return blocks
}

// RecomputeAndCheck recomputes the digest of every block in the chain and
// checks it still solves the puzzle and matches what the solver recorded.
// The seal catches a changed solver id, which the digest does not cover.
func (db *Database) RecomputeAndCheck() bool {
	for _, block := range db.List() {
		if block.SolverID < 0 || !block.IsSolved() || block.PrevHash == "" {
			return false
		}

		hash := block.Digest()
		if hash != block.Hash || !signature.IsHashSolved(hash) {
			return false
		}

		if !block.VerifySeal() {
			return false
		}
	}

	return true
}

// Credits returns the number of blocks in the chain solved by each node.
// Every node id in the network is present, even with a zero count.
func (db *Database) Credits(nodeCount int) map[int]int {
	credits := make(map[int]int, nodeCount)
	for i := range nodeCount {
		credits[i] = 0
	}

	for _, block := range db.List() {
		credits[block.SolverID]++
	}

	return credits
}

// appendVerified must be called while holding the write lock.
func (db *Database) appendVerified(block Block) {
	db.chain = append(db.chain, block)
	db.verified[block.ID] = struct{}{}
}
