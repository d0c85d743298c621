// Package memory implements the archival export of the verified chain to
// memory.
package memory

import (
	"sync"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
)

// Memory keeps the last exported snapshot of the chain. This implements
// the database.Exporter interface.
type Memory struct {
	mu      sync.RWMutex
	blocks  []database.Block
	exports int
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Export stores a copy of the snapshot.
func (m *Memory) Export(blocks []database.Block) error {
	cpy := make([]database.Block, len(blocks))
	copy(cpy, blocks)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = cpy
	m.exports++

	return nil
}

// Blocks returns the last exported snapshot.
func (m *Memory) Blocks() []database.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.blocks
}

// Exports returns the number of times Export has been called.
func (m *Memory) Exports() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.exports
}
