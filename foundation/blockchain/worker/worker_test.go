package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/network"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ardanlabs/medchain/foundation/blockchain/state"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

var record = database.Record{
	FirstName:    "John",
	LastName:     "Smith",
	DOB:          "1996.03.07",
	SSN:          "123-45-6789",
	Diagnosis:    "Chickenpox",
	Treatment:    "BedRest",
	Prescription: "aspirin",
}

// recorder keeps every event raised during a test.
type recorder struct {
	mu     sync.Mutex
	events []string

	inflight    int
	maxInflight int
}

func (r *recorder) handler(v string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case strings.HasPrefix(v, "worker: runSolveOperation: SOLVE: started"):
		r.inflight++
		r.maxInflight = max(r.maxInflight, r.inflight)
	case strings.HasPrefix(v, "worker: runSolveOperation: SOLVE: completed"):
		r.inflight--
	}

	r.events = append(r.events, fmt.Sprintf(v, args...))
}

func (r *recorder) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// newState constructs a single node that knows its own key. Its listeners
// are never started so multicasts go nowhere.
func newState(t *testing.T, rec *recorder) *state.State {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	st, err := state.New(state.Config{
		NodeID:      0,
		NodeCount:   1,
		BootstrapID: 0,
		ArchiveID:   0,
		PrivateKey:  pk,
		Network:     network.New(peer.DefaultPorts("127.0.0.1"), 1, 50*time.Millisecond, nil),
		Pace:        time.Millisecond,
		EvHandler:   rec.handler,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	msg := peer.KeyMsg{NodeID: 0, PublicKey: signature.PublicKeyBytes(pk)}
	if err := st.ProcessKey(msg); err != nil {
		t.Fatalf("\t%s\tShould be able to store the node's key: %v", failed, err)
	}

	return st
}

func newBlock(t *testing.T) database.Block {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	block, err := database.NewBlock(0, record, pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a block: %v", failed, err)
	}

	return block
}

// =============================================================================

func Test_SolveOneAtATime(t *testing.T) {
	t.Log("Given the need to solve queued blocks one at a time.")
	{
		var rec recorder
		st := newState(t, &rec)

		w := Run(st, rec.handler)
		defer st.Shutdown()

		const blocks = 5

		var ids []string
		for range blocks {
			block := newBlock(t)
			ids = append(ids, block.ID)

			if err := st.ProcessUnverified(block); err != nil {
				t.Fatalf("\t%s\tShould accept the block: %v", failed, err)
			}
		}

		deadline := time.Now().Add(10 * time.Second)
		for len(st.QueryChain()) < blocks && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}

		chain := st.QueryChain()
		if len(chain) != blocks {
			t.Fatalf("\t%s\tShould solve every block, got %d.", failed, len(chain))
		}
		t.Logf("\t%s\tShould solve every block.", success)

		rec.mu.Lock()
		maxInflight := rec.maxInflight
		rec.mu.Unlock()

		if maxInflight != 1 {
			t.Fatalf("\t%s\tShould never solve more than one block at a time, got %d.", failed, maxInflight)
		}
		t.Logf("\t%s\tShould never solve more than one block at a time.", success)

		prevHash := signature.ZeroHash
		for i, block := range chain {
			if block.ID != ids[i] {
				t.Fatalf("\t%s\tShould solve the blocks in arrival order.", failed)
			}

			if block.PrevHash != prevHash {
				t.Fatalf("\t%s\tShould link block %d to the tail of the chain.", failed, i)
			}
			prevHash = block.Hash
		}
		t.Logf("\t%s\tShould solve the blocks in arrival order and link them.", success)

		if w.Queued() != 0 {
			t.Fatalf("\t%s\tShould drain the queue, got %d.", failed, w.Queued())
		}
		t.Logf("\t%s\tShould drain the queue.", success)

		if !st.VerifyChain() {
			t.Fatalf("\t%s\tShould hold a valid chain.", failed)
		}
		t.Logf("\t%s\tShould hold a valid chain.", success)
	}
}

func Test_SolveSuperseded(t *testing.T) {
	t.Log("Given the need to abandon a block another node already solved.")
	{
		var rec recorder
		st := newState(t, &rec)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// The worker is built by hand so nothing consumes the queue.
		w := Worker{
			state:        st,
			ctx:          ctx,
			cancel:       cancel,
			shut:         make(chan struct{}),
			startSolving: make(chan bool, 1),
			evHandler:    rec.handler,
		}
		st.Worker = &w

		block := newBlock(t)
		if err := st.ProcessUnverified(block); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %v", failed, err)
		}

		if w.Queued() != 1 {
			t.Fatalf("\t%s\tShould queue the block for solving.", failed)
		}
		t.Logf("\t%s\tShould queue the block for solving.", success)

		// Another node wins the race while the block waits in the queue.
		other := block
		other.PrevHash = signature.ZeroHash
		other, err := database.Solve(ctx, other, func(string) bool { return true }, 0, rec.handler)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to solve the block: %v", failed, err)
		}
		other.SetSolver(7)

		if err := st.ProcessVerified(other); err != nil {
			t.Fatalf("\t%s\tShould append the other node's block: %v", failed, err)
		}

		queued, _ := w.next()
		w.runSolveOperation(queued)

		if n := rec.count("state: NetSendVerified"); n != 0 {
			t.Fatalf("\t%s\tShould not announce a block that was already verified, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould not announce a block that was already verified.", success)

		chain := st.QueryChain()
		if len(chain) != 1 || chain[0].SolverID != 7 {
			t.Fatalf("\t%s\tShould keep the winning node's block.", failed)
		}
		t.Logf("\t%s\tShould keep the winning node's block.", success)
	}
}

func Test_ShutdownCancelsSolve(t *testing.T) {
	t.Log("Given the need to stop solving when the node shuts down.")
	{
		var rec recorder
		st := newState(t, &rec)

		Run(st, rec.handler)

		block := newBlock(t)
		if err := st.ProcessUnverified(block); err != nil {
			t.Fatalf("\t%s\tShould accept the block: %v", failed, err)
		}

		done := make(chan struct{})
		go func() {
			st.Shutdown()
			close(done)
		}()

		select {
		case <-done:
			t.Logf("\t%s\tShould shut down while a block is queued.", success)
		case <-time.After(5 * time.Second):
			t.Fatalf("\t%s\tShould shut down while a block is queued.", failed)
		}
	}
}
