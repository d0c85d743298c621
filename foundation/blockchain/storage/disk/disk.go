// Package disk implements the archival export of the verified chain to a
// single ledger file on disk.
package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardanlabs/medchain/foundation/blockchain/codec"
	"github.com/ardanlabs/medchain/foundation/blockchain/database"
)

// ledgerName is the base name of the file the chain is written to. The
// codec name is used as the extension.
const ledgerName = "BlockchainLedger"

// Disk represents the export implementation for writing the whole chain to
// one file on disk. This implements the database.Exporter interface.
type Disk struct {
	mu    sync.Mutex
	dir   string
	codec codec.Codec
}

// New constructs a Disk value for use. JSON output is indented so the
// ledger is human readable.
func New(dir string, cdc codec.Codec) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if _, ok := cdc.(codec.JSON); ok {
		cdc = codec.JSON{Indent: true}
	}

	return &Disk{dir: dir, codec: cdc}, nil
}

// Path returns the location of the ledger file.
func (d *Disk) Path() string {
	return filepath.Join(d.dir, fmt.Sprintf("%s.%s", ledgerName, d.codec.Name()))
}

// Export replaces the ledger file with the specified snapshot of the chain.
func (d *Disk) Export(blocks []database.Block) error {
	data, err := d.codec.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Write to a temporary file first so a reader never sees a partial ledger.
	tmp := d.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}

	if err := os.Rename(tmp, d.Path()); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}

	return nil
}

// Read loads the chain from the ledger file.
func (d *Disk) Read() ([]database.Block, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.Path())
	if err != nil {
		return nil, err
	}

	var blocks []database.Block
	if err := d.codec.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}

	return blocks, nil
}
