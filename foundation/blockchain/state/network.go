package state

import (
	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
)

// NetSendKey announces this node's public key to every node.
func (s *State) NetSendKey() {
	s.evHandler("state: NetSendKey: node[%d]", s.nodeID)

	msg := peer.KeyMsg{
		NodeID:    s.nodeID,
		PublicKey: signature.PublicKeyBytes(s.privateKey),
	}

	s.multicast(peer.KeyChannel, msg)
}

// NetSendUnverified sends a candidate block to every node.
func (s *State) NetSendUnverified(block database.Block) {
	s.evHandler("state: NetSendUnverified: blk[%s]", block.ID)

	s.multicast(peer.UnverifiedChannel, block)
}

// NetSendVerified sends a solved block to every node.
func (s *State) NetSendVerified(block database.Block) {
	s.evHandler("state: NetSendVerified: blk[%s]: solver[%d]", block.ID, block.SolverID)

	s.multicast(peer.VerifiedChannel, block)
}

// multicast encodes the value and sends it to every node on its own
// goroutine. Delivery is best effort, failures are only logged.
func (s *State) multicast(ch peer.Channel, v any) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		s.evHandler("state: multicast: %s: ERROR: encoding: %s", ch, err)
		return
	}

	s.senders.Add(1)
	go func() {
		defer s.senders.Done()
		s.net.Multicast(ch, data)
	}()
}
