package state

import (
	"context"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
)

// Bootstrap starts the key exchange. Only the bootstrap node announces on
// its own; every other node answers when the bootstrap key arrives.
func (s *State) Bootstrap() {
	if s.nodeID != s.bootstrapID {
		s.evHandler("state: Bootstrap: node[%d]: waiting on bootstrap node[%d]", s.nodeID, s.bootstrapID)
		return
	}

	s.evHandler("state: Bootstrap: node[%d]: starting key exchange", s.nodeID)
	s.NetSendKey()
}

// SubmitRecord creates a candidate block for the record signed by this node
// and multicasts it to every node, this node included.
func (s *State) SubmitRecord(record database.Record) (database.Block, error) {
	block, err := database.NewBlock(s.nodeID, record, s.privateKey)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: SubmitRecord: blk[%s]: created", block.ID)

	s.NetSendUnverified(block)

	return block, nil
}

// SolveBlock races to solve the candidate block. The block is linked to
// the current tip of this node's chain. A successful solve is finalized
// locally before the caller announces it. ErrSuperseded is returned when
// another node won the race.
func (s *State) SolveBlock(ctx context.Context, block database.Block) (database.Block, error) {
	block.PrevHash = s.db.PeekLastHash()
	block.SolverID = database.Unsolved

	s.evHandler("state: SolveBlock: blk[%s]: prevBlk[%s]", block.ID, block.PrevHash)

	solved, err := database.Solve(ctx, block, s.db.IsPending, s.pace, s.evHandler)
	if err != nil {
		return database.Block{}, err
	}

	solved.SetSolver(s.nodeID)

	// The verified copy may have landed while the last attempt ran.
	if !s.finalize(solved) {
		s.evHandler("state: SolveBlock: blk[%s]: superseded after solving", block.ID)
		return database.Block{}, database.ErrSuperseded
	}

	return solved, nil
}
