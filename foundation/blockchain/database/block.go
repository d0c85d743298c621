package database

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/google/uuid"
)

// Unsolved is the solver id carried by a block nobody has solved yet.
const Unsolved = -1

// ErrSuperseded is returned from Solve when another node finalized the
// block before a solution was found locally.
var ErrSuperseded = errors.New("block finalized by another node")

// =============================================================================

// Record represents the payload a block carries. The consensus core does
// not interpret it, it only hashes and signs it.
type Record struct {
	FirstName    string `json:"first_name" msgpack:"first_name" validate:"required"`
	LastName     string `json:"last_name" msgpack:"last_name" validate:"required"`
	DOB          string `json:"dob" msgpack:"dob" validate:"required"`
	SSN          string `json:"ssn" msgpack:"ssn" validate:"required"`
	Diagnosis    string `json:"diagnosis" msgpack:"diagnosis" validate:"required"`
	Treatment    string `json:"treatment" msgpack:"treatment" validate:"required"`
	Prescription string `json:"prescription" msgpack:"prescription" validate:"required"`
}

// Block represents a single record moving through the network. A block is
// unverified until a node finds a solution for it.
type Block struct {
	ID        string `json:"block_id" msgpack:"block_id"`     // Unique id assigned at creation.
	TimeStamp uint64 `json:"timestamp" msgpack:"timestamp"`   // Creation time in unix nanoseconds.
	CreatorID int    `json:"creator_id" msgpack:"creator_id"` // Node that created and signed the block.
	Record    Record `json:"record" msgpack:"record"`         // Payload.
	PrevHash  string `json:"prev_hash" msgpack:"prev_hash"`   // Tail hash of the solver's chain when solving began.
	Solution  string `json:"solution" msgpack:"solution"`     // Random value that solved the puzzle.
	SolverID  int    `json:"solver_id" msgpack:"solver_id"`   // Node that solved the block.
	Hash      string `json:"hash" msgpack:"hash"`             // Digest the solution produced.
	Seal      string `json:"seal" msgpack:"seal"`             // Hash over the solved block, solver id included.
	Signature string `json:"signature" msgpack:"signature"`   // Creator's signature, 0x hex encoded.
}

// NewBlock constructs a signed candidate block for the specified record.
func NewBlock(creatorID int, record Record, privateKey *ecdsa.PrivateKey) (Block, error) {
	b := Block{
		ID:        uuid.NewString(),
		TimeStamp: uint64(time.Now().UTC().UnixNano()),
		CreatorID: creatorID,
		Record:    record,
		SolverID:  Unsolved,
	}

	if err := b.Sign(privateKey); err != nil {
		return Block{}, fmt.Errorf("signing block: %w", err)
	}

	return b, nil
}

// Sign signs the canonical form of the block with the creator's key.
func (b *Block) Sign(privateKey *ecdsa.PrivateKey) error {
	data, err := json.Marshal(b.signingForm())
	if err != nil {
		return err
	}

	sig, err := signature.Sign(data, privateKey)
	if err != nil {
		return err
	}

	b.Signature = signature.Encode(sig)
	return nil
}

// VerifySignature checks the block was signed by the owner of the
// specified public key.
func (b Block) VerifySignature(publicKey []byte) bool {
	sig, err := signature.Decode(b.Signature)
	if err != nil {
		return false
	}

	data, err := json.Marshal(b.signingForm())
	if err != nil {
		return false
	}

	return signature.Verify(data, publicKey, sig)
}

// Digest returns the proof of work digest for the block. The solver id,
// the stored hash and the seal are not part of it.
func (b Block) Digest() string {
	b.SolverID = Unsolved
	b.Hash = ""
	b.Seal = ""

	return signature.Hash(b)
}

// SetSolver records the node that solved the block and seals the result.
func (b *Block) SetSolver(solverID int) {
	b.SolverID = solverID
	b.Seal = b.sealDigest()
}

// VerifySeal reports whether the solved block still matches its seal.
func (b Block) VerifySeal() bool {
	return b.Seal != "" && b.Seal == b.sealDigest()
}

// sealDigest hashes every field of the block except the seal itself.
func (b Block) sealDigest() string {
	b.Seal = ""

	return signature.Hash(b)
}

// IsSolved reports whether a solution has been attached to the block.
func (b Block) IsSolved() bool {
	return b.Solution != ""
}

// signingForm returns the block with the fields that are not covered by
// the creator's signature cleared. Solving never invalidates the signature.
func (b Block) signingForm() Block {
	b.Signature = ""
	b.PrevHash = ""
	b.Solution = ""
	b.SolverID = Unsolved
	b.Hash = ""
	b.Seal = ""

	return b
}

// =============================================================================

// Solve does the work of finding a solution for the specified block. Before
// a candidate solution is accepted, isPending is asked if the block is still
// waiting to be finalized. If not, another node won and ErrSuperseded is
// returned. The pace is the delay between attempts. The context is only used
// to stop solving when the node shuts down.
func Solve(ctx context.Context, block Block, isPending func(blockID string) bool, pace time.Duration, ev func(v string, args ...any)) (Block, error) {
	ev("database: Solve: SOLVING: started: blk[%s]", block.ID)
	defer ev("database: Solve: SOLVING: completed: blk[%s]", block.ID)

	var attempts uint64
	for {
		attempts++

		if ctx.Err() != nil {
			ev("database: Solve: SOLVING: CANCELLED: blk[%s]", block.ID)
			return Block{}, ctx.Err()
		}

		// Pick a fresh random solution and hash the block with it.
		block.Solution = uuid.NewString()
		hash := block.Digest()

		// Another node may have finalized this block since the last attempt.
		if !isPending(block.ID) {
			ev("database: Solve: SOLVING: SUPERSEDED: blk[%s]: attempts[%d]", block.ID, attempts)
			return Block{}, ErrSuperseded
		}

		if signature.IsHashSolved(hash) {
			block.Hash = hash
			ev("database: Solve: SOLVING: SOLVED: blk[%s]: prevBlk[%s]: hash[%s]: attempts[%d]", block.ID, block.PrevHash, hash, attempts)
			return block, nil
		}

		if pace > 0 {
			t := time.NewTimer(pace)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
	}
}
