// Package keystore manages the private key files of the nodes and provides
// a name lookup for the public keys found in a key folder.
package keystore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const extension = ".ecdsa"

// FileName returns the name of the key file for the specified node.
func FileName(nodeID int) string {
	return fmt.Sprintf("node%d%s", nodeID, extension)
}

// Generate creates a new key for the node and writes it to the folder,
// replacing any key that is already there.
func Generate(folder string, nodeID int) (*ecdsa.PrivateKey, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, fmt.Errorf("creating key folder: %w", err)
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	if err := crypto.SaveECDSA(filepath.Join(folder, FileName(nodeID)), privateKey); err != nil {
		return nil, fmt.Errorf("saving key: %w", err)
	}

	return privateKey, nil
}

// LoadOrGenerate loads the node's key from the folder. When no key file
// exists a new key is generated and saved. It reports whether the key was
// generated.
func LoadOrGenerate(folder string, nodeID int) (*ecdsa.PrivateKey, bool, error) {
	path := filepath.Join(folder, FileName(nodeID))

	privateKey, err := crypto.LoadECDSA(path)
	switch {
	case err == nil:
		return privateKey, false, nil

	case errors.Is(err, fs.ErrNotExist):
		privateKey, err := Generate(folder, nodeID)
		if err != nil {
			return nil, false, err
		}
		return privateKey, true, nil

	default:
		return nil, false, fmt.Errorf("loading key %q: %w", path, err)
	}
}

// =============================================================================

// KeyStore maintains a map of public keys for name lookup.
type KeyStore struct {
	names map[string]string
}

// New constructs a KeyStore with the keys from the specified folder. A
// folder that does not exist yet produces an empty KeyStore.
func New(folder string) (*KeyStore, error) {
	ks := KeyStore{
		names: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if filepath.Ext(fileName) != extension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		publicKey := hexutil.Encode(signature.PublicKeyBytes(privateKey))
		ks.names[publicKey] = strings.TrimSuffix(filepath.Base(fileName), extension)

		return nil
	}

	if _, err := os.Stat(folder); errors.Is(err, fs.ErrNotExist) {
		return &ks, nil
	}

	if err := filepath.Walk(folder, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ks, nil
}

// Lookup returns the name for the specified public key. Unknown keys are
// returned hex encoded.
func (ks *KeyStore) Lookup(publicKey []byte) string {
	key := hexutil.Encode(publicKey)

	name, exists := ks.names[key]
	if !exists {
		return key
	}
	return name
}

// Copy returns a copy of the map of public keys and names.
func (ks *KeyStore) Copy() map[string]string {
	cpy := make(map[string]string, len(ks.names))
	for key, name := range ks.names {
		cpy[key] = name
	}
	return cpy
}
