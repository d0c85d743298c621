package public

import (
	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
)

type block struct {
	ID          string          `json:"block_id"`
	TimeStamp   uint64          `json:"timestamp"`
	CreatorID   int             `json:"creator_id"`
	CreatorName string          `json:"creator_name"`
	Record      database.Record `json:"record"`
	PrevHash    string          `json:"prev_hash"`
	Solution    string          `json:"solution,omitempty"`
	SolverID    int             `json:"solver_id"`
	SolverName  string          `json:"solver_name,omitempty"`
	Hash        string          `json:"hash,omitempty"`
	Seal        string          `json:"seal,omitempty"`
	Signature   string          `json:"signature"`
}

func toBlock(blk database.Block) block {
	b := block{
		ID:          blk.ID,
		TimeStamp:   blk.TimeStamp,
		CreatorID:   blk.CreatorID,
		CreatorName: peer.New(blk.CreatorID).String(),
		Record:      blk.Record,
		PrevHash:    blk.PrevHash,
		Solution:    blk.Solution,
		SolverID:    blk.SolverID,
		Hash:        blk.Hash,
		Seal:        blk.Seal,
		Signature:   blk.Signature,
	}

	if blk.SolverID != database.Unsolved {
		b.SolverName = peer.New(blk.SolverID).String()
	}

	return b
}

func toBlocks(blks []database.Block) []block {
	blocks := make([]block, len(blks))
	for i, blk := range blks {
		blocks[i] = toBlock(blk)
	}
	return blocks
}

type submitted struct {
	Status  string `json:"status"`
	BlockID string `json:"block_id"`
}

type verification struct {
	Valid  bool   `json:"valid"`
	Blocks int    `json:"blocks"`
	Root   string `json:"root,omitempty"`
}

type credit struct {
	NodeID   int    `json:"node_id"`
	NodeName string `json:"node_name"`
	Credits  int    `json:"credits"`
}

type key struct {
	NodeID    int    `json:"node_id"`
	NodeName  string `json:"node_name"`
	PublicKey string `json:"public_key"`
	KeyName   string `json:"key_name"`
}
