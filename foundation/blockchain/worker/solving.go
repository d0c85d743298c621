package worker

import (
	"errors"
	"time"

	"github.com/ardanlabs/medchain/foundation/blockchain/database"
)

// solveOperations handles solving. It is the only consumer of the queue so
// at most one block is being solved at any time.
func (w *Worker) solveOperations() {
	w.evHandler("worker: solveOperations: G started")
	defer w.evHandler("worker: solveOperations: G completed")

	for {
		select {
		case <-w.startSolving:
			for !w.isShutdown() {
				block, exists := w.next()
				if !exists {
					break
				}
				w.runSolveOperation(block)
			}
		case <-w.shut:
			w.evHandler("worker: solveOperations: received shut signal")
			return
		}
	}
}

// runSolveOperation races the other nodes to solve the block. The winner
// announces the solved block to every node.
func (w *Worker) runSolveOperation(block database.Block) {
	w.evHandler("worker: runSolveOperation: SOLVE: started: blk[%s]", block.ID)
	defer w.evHandler("worker: runSolveOperation: SOLVE: completed: blk[%s]", block.ID)

	// The block may have been verified while it sat in the queue.
	if !w.state.IsPending(block.ID) {
		w.evHandler("worker: runSolveOperation: SOLVE: blk[%s]: no longer pending", block.ID)
		return
	}

	t := time.Now()
	solved, err := w.state.SolveBlock(w.ctx, block)
	duration := time.Since(t)

	w.evHandler("worker: runSolveOperation: SOLVE: blk[%s]: duration[%v]", block.ID, duration)

	if err != nil {
		switch {
		case errors.Is(err, database.ErrSuperseded):
			w.evHandler("worker: runSolveOperation: SOLVE: blk[%s]: solved by another node", block.ID)
		case w.ctx.Err() != nil:
			w.evHandler("worker: runSolveOperation: SOLVE: blk[%s]: CANCEL: complete", block.ID)
		default:
			w.evHandler("worker: runSolveOperation: SOLVE: blk[%s]: ERROR: %s", block.ID, err)
		}
		return
	}

	// The block is already part of this node's chain. Share it with the
	// rest of the network.
	w.state.NetSendVerified(solved)
}
