// Package worker implements the solving workflow for the blockchain. Each
// node runs a single solver that works through the candidate blocks in the
// order they arrived.
package worker

import (
	"context"
	"sync"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/state"
)

// Worker manages the POW workflow for the blockchain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	shut         chan struct{}
	startSolving chan bool
	evHandler    state.EventHandler

	mu    sync.Mutex
	queue []database.Block
}

// Run creates a worker, registers the worker with the state package, and
// starts up the solving goroutine.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:        st,
		ctx:          ctx,
		cancel:       cancel,
		shut:         make(chan struct{}),
		startSolving: make(chan bool, 1),
		evHandler:    evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.solveOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work. A solve in progress
// is cancelled and the blocks still queued are abandoned.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: cancel solving")
	w.cancel()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalSolve queues the block for solving. The queue is unbounded so a
// burst of candidates is never dropped. If there is already a signal
// pending in the channel, the solver will pick the block up anyway.
func (w *Worker) SignalSolve(block database.Block) {
	w.mu.Lock()
	w.queue = append(w.queue, block)
	length := len(w.queue)
	w.mu.Unlock()

	select {
	case w.startSolving <- true:
	default:
	}
	w.evHandler("worker: SignalSolve: blk[%s]: solving signaled: queued[%d]", block.ID, length)
}

// =============================================================================

// Queued returns the number of blocks waiting for the solver.
func (w *Worker) Queued() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.queue)
}

// next pops the oldest queued block.
func (w *Worker) next() (database.Block, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return database.Block{}, false
	}

	block := w.queue[0]
	w.queue[0] = database.Block{}
	w.queue = w.queue[1:]

	return block, true
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
