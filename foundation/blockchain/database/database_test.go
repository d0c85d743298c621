package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkHexKey2 = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
)

var record = database.Record{
	FirstName:    "John",
	LastName:     "Smith",
	DOB:          "1996.03.07",
	SSN:          "123-45-6789",
	Diagnosis:    "Chickenpox",
	Treatment:    "BedRest",
	Prescription: "aspirin",
}

func ev(t *testing.T) func(v string, args ...any) {
	return func(v string, args ...any) {
		t.Logf(v, args...)
	}
}

func newBlock(t *testing.T, creatorID int) database.Block {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
	}

	block, err := database.NewBlock(creatorID, record, pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a block: %v", failed, err)
	}

	return block
}

func solve(t *testing.T, db *database.Database, block database.Block, solverID int) database.Block {
	block.PrevHash = db.PeekLastHash()

	solved, err := database.Solve(context.Background(), block, func(string) bool { return true }, 0, ev(t))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to solve the block: %v", failed, err)
	}
	solved.SetSolver(solverID)

	return solved
}

// =============================================================================

func Test_BlockSignature(t *testing.T) {
	t.Log("Given the need to authenticate the creator of a block.")
	{
		block := newBlock(t, 0)

		pk, _ := crypto.HexToECDSA(pkHexKey)
		pk2, _ := crypto.HexToECDSA(pkHexKey2)

		if !block.VerifySignature(signature.PublicKeyBytes(pk)) {
			t.Fatalf("\t%s\tShould verify with the creator's key.", failed)
		}
		t.Logf("\t%s\tShould verify with the creator's key.", success)

		if block.VerifySignature(signature.PublicKeyBytes(pk2)) {
			t.Fatalf("\t%s\tShould not verify with another node's key.", failed)
		}
		t.Logf("\t%s\tShould not verify with another node's key.", success)

		block.PrevHash = signature.ZeroHash
		block.Solution = "a9a1c2c4-2b8e-4b3e-9c4e-0c2a3c1e5f60"
		block.SolverID = 2
		if !block.VerifySignature(signature.PublicKeyBytes(pk)) {
			t.Fatalf("\t%s\tShould verify once the block is solved.", failed)
		}
		t.Logf("\t%s\tShould verify once the block is solved.", success)

		block.Record.Diagnosis = "Measles"
		if block.VerifySignature(signature.PublicKeyBytes(pk)) {
			t.Fatalf("\t%s\tShould not verify a tampered record.", failed)
		}
		t.Logf("\t%s\tShould not verify a tampered record.", success)
	}
}

func Test_Digest(t *testing.T) {
	t.Log("Given the need to hash a block deterministically.")
	{
		block := newBlock(t, 0)
		block.Solution = "solution"

		d1 := block.Digest()
		d2 := block.Digest()
		if d1 != d2 {
			t.Fatalf("\t%s\tShould get the same digest twice.", failed)
		}
		t.Logf("\t%s\tShould get the same digest twice.", success)

		block.SolverID = 1
		if block.Digest() != d1 {
			t.Fatalf("\t%s\tShould ignore the solver id.", failed)
		}
		t.Logf("\t%s\tShould ignore the solver id.", success)

		changes := []func(b *database.Block){
			func(b *database.Block) { b.ID = "other" },
			func(b *database.Block) { b.TimeStamp++ },
			func(b *database.Block) { b.CreatorID = 7 },
			func(b *database.Block) { b.Record.FirstName = "Jane" },
			func(b *database.Block) { b.PrevHash = signature.ZeroHash },
			func(b *database.Block) { b.Solution = "other" },
			func(b *database.Block) { b.Signature = "0x00" },
		}

		for i, change := range changes {
			b := block
			change(&b)
			if b.Digest() == d1 {
				t.Fatalf("\t%s\tTest %d:\tShould change the digest when a field changes.", failed, i)
			}
		}
		t.Logf("\t%s\tShould change the digest when any field changes.", success)
	}
}

func Test_RemovePending(t *testing.T) {
	t.Log("Given the need to remove unverified blocks.")
	{
		db := database.New()
		block := newBlock(t, 0)

		if !db.AddPending(block) {
			t.Fatalf("\t%s\tShould be able to add the block.", failed)
		}

		if !db.IsPending(block.ID) {
			t.Fatalf("\t%s\tShould find the block pending.", failed)
		}
		t.Logf("\t%s\tShould find the block pending.", success)

		db.RemovePending(block.ID)
		db.RemovePending(block.ID)

		if db.IsPending(block.ID) {
			t.Fatalf("\t%s\tShould not find the block after removal.", failed)
		}
		if n := len(db.Pending()); n != 0 {
			t.Fatalf("\t%s\tShould have no pending blocks, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould be able to remove the same block twice.", success)
	}
}

func Test_ConcurrentRemoval(t *testing.T) {
	db := database.New()

	const g = 20

	blocks := make([]database.Block, g)
	for i := range blocks {
		blocks[i] = newBlock(t, 0)
		db.AddPending(blocks[i])
	}

	var wg sync.WaitGroup
	wg.Add(g * 3)

	for i := range g {
		go func() {
			defer wg.Done()
			db.RemovePending(blocks[i].ID)
		}()
		go func() {
			defer wg.Done()
			db.IsPending(blocks[i].ID)
		}()
		go func() {
			defer wg.Done()
			db.Pending()
		}()
	}

	wg.Wait()

	if n := len(db.Pending()); n != 0 {
		t.Fatalf("Should have no pending blocks, got %d.", n)
	}
}

func Test_Chain(t *testing.T) {
	t.Log("Given the need to maintain the verified chain.")
	{
		db := database.New()

		if db.PeekLastHash() != signature.ZeroHash {
			t.Fatalf("\t%s\tShould get the zero hash for an empty chain.", failed)
		}
		t.Logf("\t%s\tShould get the zero hash for an empty chain.", success)

		b1 := newBlock(t, 0)
		db.AddPending(b1)
		b1 = solve(t, db, b1, 1)

		if !db.Finalize(b1) {
			t.Fatalf("\t%s\tShould be able to finalize the block.", failed)
		}
		t.Logf("\t%s\tShould be able to finalize the block.", success)

		if db.IsPending(b1.ID) {
			t.Fatalf("\t%s\tShould remove the finalized block from the pending set.", failed)
		}

		if db.Finalize(b1) {
			t.Fatalf("\t%s\tShould not finalize the same block twice.", failed)
		}
		t.Logf("\t%s\tShould not finalize the same block twice.", success)

		if db.AddPending(b1) {
			t.Fatalf("\t%s\tShould not accept a verified block as pending.", failed)
		}
		t.Logf("\t%s\tShould not accept a verified block as pending.", success)

		b2 := newBlock(t, 1)
		b2 = solve(t, db, b2, 2)
		db.AppendVerified(b2)

		if b2.PrevHash != b1.Hash {
			t.Fatalf("\t%s\tShould link the second block to the first.", failed)
		}

		list := db.List()
		if len(list) != 2 || list[0].ID != b1.ID || list[1].ID != b2.ID {
			t.Fatalf("\t%s\tShould list the chain in append order.", failed)
		}
		t.Logf("\t%s\tShould list the chain in append order.", success)

		if db.PeekLastHash() != b2.Hash {
			t.Fatalf("\t%s\tShould peek the hash of the tail.", failed)
		}

		credits := db.Credits(3)
		exp := map[int]int{0: 0, 1: 1, 2: 1}
		for nodeID, n := range exp {
			if credits[nodeID] != n {
				t.Logf("\t%s\tgot: %v", failed, credits)
				t.Logf("\t%s\texp: %v", failed, exp)
				t.Fatalf("\t%s\tShould tally the credits by solver.", failed)
			}
		}
		t.Logf("\t%s\tShould tally the credits by solver.", success)
	}
}

func Test_RecomputeAndCheck(t *testing.T) {
	type table struct {
		name    string
		corrupt func(b *database.Block)
	}

	tt := []table{
		{name: "solution", corrupt: func(b *database.Block) { b.Solution = b.Solution + "x" }},
		{name: "solver", corrupt: func(b *database.Block) { b.SolverID = database.Unsolved }},
		{name: "solverSwap", corrupt: func(b *database.Block) { b.SolverID = 2 }},
		{name: "seal", corrupt: func(b *database.Block) { b.Seal = signature.ZeroHash }},
		{name: "record", corrupt: func(b *database.Block) { b.Record.Treatment = "Surgery" }},
		{name: "hash", corrupt: func(b *database.Block) { b.Hash = signature.ZeroHash }},
	}

	t.Log("Given the need to check the integrity of the chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen corrupting the %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					db := database.New()
					for i := range 3 {
						db.AppendVerified(solve(t, db, newBlock(t, 0), i))
					}

					if !db.RecomputeAndCheck() {
						t.Fatalf("\t%s\tTest %d:\tShould pass before corruption.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould pass before corruption.", success, testID)

					bad := database.New()
					for i, block := range db.List() {
						if i == 1 {
							tst.corrupt(&block)
						}
						bad.AppendVerified(block)
					}

					if bad.RecomputeAndCheck() {
						t.Fatalf("\t%s\tTest %d:\tShould fail after corruption.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail after corruption.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_SolveSuperseded(t *testing.T) {
	t.Log("Given the need to stop solving when another node wins.")
	{
		db := database.New()
		block := newBlock(t, 0)
		db.AddPending(block)

		// The first few attempts see the block pending, then another node
		// finalizes it.
		var calls int
		isPending := func(id string) bool {
			calls++
			if calls == 3 {
				db.RemovePending(id)
			}
			return db.IsPending(id)
		}

		solved, err := database.Solve(context.Background(), block, isPending, 0, ev(t))
		switch {
		case err == nil:
			if calls >= 3 {
				t.Fatalf("\t%s\tShould not accept a solution after the removal.", failed)
			}
			if !signature.IsHashSolved(solved.Hash) {
				t.Fatalf("\t%s\tShould only return a solved block.", failed)
			}
			t.Logf("\t%s\tSolved before the removal happened.", success)
		case errors.Is(err, database.ErrSuperseded):
			t.Logf("\t%s\tShould stop with ErrSuperseded.", success)
		default:
			t.Fatalf("\t%s\tShould stop with ErrSuperseded: %v", failed, err)
		}

		_, err = database.Solve(context.Background(), block, db.IsPending, 0, ev(t))
		if !errors.Is(err, database.ErrSuperseded) {
			t.Fatalf("\t%s\tShould not solve a block that is no longer pending: %v", failed, err)
		}
		t.Logf("\t%s\tShould not solve a block that is no longer pending.", success)
	}
}

func Test_SolveCancelled(t *testing.T) {
	block := newBlock(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := database.Solve(ctx, block, func(string) bool { return true }, 0, ev(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Should stop when the context is cancelled: %v", err)
	}
}
