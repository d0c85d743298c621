package peer

import (
	"bytes"
	"sync"
)

// KeyMsg is the message a node sends to announce its public key.
type KeyMsg struct {
	NodeID    int    `json:"node_id" msgpack:"node_id"`
	PublicKey []byte `json:"public_key" msgpack:"public_key"`
}

// =============================================================================

// KeyDirectory maintains the public key announced by each node. A missing
// entry means the key has not been learned yet.
type KeyDirectory struct {
	mu   sync.RWMutex
	keys map[int][]byte
}

// NewKeyDirectory constructs an empty key directory.
func NewKeyDirectory() *KeyDirectory {
	return &KeyDirectory{
		keys: make(map[int][]byte),
	}
}

// Put stores the public key for the node. Later writes for the same node
// replace the earlier key. It reports whether the stored key changed.
func (kd *KeyDirectory) Put(nodeID int, publicKey []byte) bool {
	key := make([]byte, len(publicKey))
	copy(key, publicKey)

	kd.mu.Lock()
	defer kd.mu.Unlock()

	current, exists := kd.keys[nodeID]
	kd.keys[nodeID] = key

	return !exists || !bytes.Equal(current, key)
}

// Get returns the public key for the node if it is known.
func (kd *KeyDirectory) Get(nodeID int) ([]byte, bool) {
	kd.mu.RLock()
	defer kd.mu.RUnlock()

	key, exists := kd.keys[nodeID]
	return key, exists
}

// Len returns the number of keys that are known.
func (kd *KeyDirectory) Len() int {
	kd.mu.RLock()
	defer kd.mu.RUnlock()

	return len(kd.keys)
}

// Copy returns a copy of the known keys.
func (kd *KeyDirectory) Copy() map[int][]byte {
	kd.mu.RLock()
	defer kd.mu.RUnlock()

	keys := make(map[int][]byte, len(kd.keys))
	for nodeID, key := range kd.keys {
		keys[nodeID] = key
	}
	return keys
}
