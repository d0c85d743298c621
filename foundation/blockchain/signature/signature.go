// Package signature provides helper functions for handling the blockchain
// signature and hashing needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is the previous hash used
// by the first block solved on an empty chain.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// targetNibble is the leading hex character a digest must carry to solve
// the proof of work puzzle. There is no adjustable difficulty.
const targetNibble = '0'

// =============================================================================

// Hash returns a unique string for the value. The value is encoded to
// JSON and hashed with sha256. The result is a 0x prefixed string of
// 64 hex characters.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// The first hex character of the digest must match the target nibble.
func IsHashSolved(hash string) bool {
	if len(hash) != len(ZeroHash) || hash[:2] != "0x" {
		return false
	}

	return hash[2] == targetNibble
}

// =============================================================================

// Sign uses the specified private key to sign the data.
func Sign(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is missing")
	}

	// Sign the stamped hash with the private key to produce a signature.
	sig, err := crypto.Sign(stamp(data), privateKey)
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// Verify checks the signature was produced over the data by the private key
// associated with the specified public key. Any malformed input is treated
// as a failed verification.
func Verify(data []byte, publicKey []byte, sig []byte) bool {
	if len(publicKey) == 0 || len(sig) < crypto.RecoveryIDOffset {
		return false
	}

	// The recovery id is not part of the verification.
	rs := sig[:crypto.RecoveryIDOffset]

	return crypto.VerifySignature(publicKey, stamp(data), rs)
}

// PublicKeyBytes returns the uncompressed encoding of the public key
// that is shared with the other nodes.
func PublicKeyBytes(privateKey *ecdsa.PrivateKey) []byte {
	return crypto.FromECDSAPub(&privateKey.PublicKey)
}

// ToPublicKey parses the bytes produced by PublicKeyBytes.
func ToPublicKey(publicKey []byte) (*ecdsa.PublicKey, error) {
	return crypto.UnmarshalPubkey(publicKey)
}

// Encode returns the 0x prefixed hex form of the bytes.
func Encode(b []byte) string {
	return hexutil.Encode(b)
}

// Decode converts a 0x prefixed hex string back into bytes.
func Decode(s string) ([]byte, error) {
	return hexutil.Decode(s)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the Medchain stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	dataHash := crypto.Keccak256(data)

	// This stamp is used so signatures we produce when signing data
	// are always unique to this blockchain.
	stamp := []byte("\x19Medchain Signed Message:\n32")

	return crypto.Keccak256(stamp, dataHash)
}
