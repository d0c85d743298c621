package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
)

// Set of errors returned when a message is rejected.
var (
	ErrUnknownCreator     = errors.New("creator's public key is not known")
	ErrInvalidSignature   = errors.New("block signature does not verify")
	ErrAlreadySolved      = errors.New("candidate block already carries a solution")
	ErrAlreadyVerified    = errors.New("block is already in the chain")
	ErrInvalidPublicKey   = errors.New("public key can't be parsed")
	ErrNodeOutsideNetwork = errors.New("node id is outside the network")
	ErrInvalidSeal        = errors.New("solved block does not match its seal")
)

// =============================================================================

// HandleKey decodes a key announcement received by the key listener.
func (s *State) HandleKey(data []byte) {
	var msg peer.KeyMsg
	if err := s.codec.Unmarshal(data, &msg); err != nil {
		s.evHandler("state: HandleKey: ERROR: decoding: %s", err)
		return
	}

	if err := s.ProcessKey(msg); err != nil {
		s.evHandler("state: HandleKey: node[%d]: WARNING: %s", msg.NodeID, err)
	}
}

// HandleUnverified decodes a candidate block received by the unverified
// listener.
func (s *State) HandleUnverified(data []byte) {
	var block database.Block
	if err := s.codec.Unmarshal(data, &block); err != nil {
		s.evHandler("state: HandleUnverified: ERROR: decoding: %s", err)
		return
	}

	if err := s.ProcessUnverified(block); err != nil {
		s.evHandler("state: HandleUnverified: blk[%s]: creator[%d]: WARNING: %s", block.ID, block.CreatorID, err)
	}
}

// HandleVerified decodes a solved block received by the verified listener.
func (s *State) HandleVerified(data []byte) {
	var block database.Block
	if err := s.codec.Unmarshal(data, &block); err != nil {
		s.evHandler("state: HandleVerified: ERROR: decoding: %s", err)
		return
	}

	if err := s.ProcessVerified(block); err != nil {
		s.evHandler("state: HandleVerified: blk[%s]: solver[%d]: WARNING: %s", block.ID, block.SolverID, err)
	}
}

// =============================================================================

// ProcessKey stores the announced key. When the key belongs to the bootstrap
// node and was not known before, this node answers by announcing its own key.
func (s *State) ProcessKey(msg peer.KeyMsg) error {
	if msg.NodeID < 0 || msg.NodeID >= s.nodeCount {
		return fmt.Errorf("%w: %d", ErrNodeOutsideNetwork, msg.NodeID)
	}

	if _, err := signature.ToPublicKey(msg.PublicKey); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}

	changed := s.keys.Put(msg.NodeID, msg.PublicKey)
	s.evHandler("state: ProcessKey: node[%d]: stored: known[%d]", msg.NodeID, s.keys.Len())

	if changed && msg.NodeID == s.bootstrapID && s.nodeID != s.bootstrapID {
		s.evHandler("state: ProcessKey: bootstrap key received: announcing key")
		s.NetSendKey()
	}

	return nil
}

// ProcessUnverified authenticates a candidate block against the creator's
// key, adds it to the unverified set and hands it to the solver.
func (s *State) ProcessUnverified(block database.Block) error {
	if block.IsSolved() {
		return ErrAlreadySolved
	}

	publicKey, exists := s.keys.Get(block.CreatorID)
	if !exists {
		return ErrUnknownCreator
	}

	if !block.VerifySignature(publicKey) {
		return ErrInvalidSignature
	}

	// The verified block may have arrived before the candidate did.
	if !s.db.AddPending(block) {
		return ErrAlreadyVerified
	}

	s.evHandler("state: ProcessUnverified: blk[%s]: creator[%d]: added to pending", block.ID, block.CreatorID)

	s.Worker.SignalSolve(block)

	return nil
}

// ProcessVerified takes a block solved by any node, removes it from the
// unverified set and appends it to the chain.
func (s *State) ProcessVerified(block database.Block) error {
	if !block.IsSolved() || block.SolverID < 0 {
		return errors.New("block carries no solution")
	}

	if !block.VerifySeal() {
		return ErrInvalidSeal
	}

	if !s.finalize(block) {
		return ErrAlreadyVerified
	}

	return nil
}

// finalize moves the block into the chain. The archive node exports the
// chain after every block it finalizes.
func (s *State) finalize(block database.Block) bool {
	if !s.db.Finalize(block) {
		return false
	}

	s.evHandler("state: finalize: blk[%s]: solver[%d]: prevBlk[%s]: chain[%d]", block.ID, block.SolverID, block.PrevHash, len(s.db.List()))

	if s.nodeID == s.archiveID && s.exporter != nil {
		s.export()
	}

	return true
}

// export writes the current chain through the exporter. Exports are
// serialized so an older snapshot never replaces a newer one.
func (s *State) export() {
	s.exportMu.Lock()
	defer s.exportMu.Unlock()

	if err := s.exporter.Export(s.db.List()); err != nil {
		s.evHandler("state: export: ERROR: %s", err)
		return
	}

	s.evHandler("state: export: chain exported")
}
