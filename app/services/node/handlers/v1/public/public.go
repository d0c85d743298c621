// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	v1 "github.com/ardanlabs/medchain/business/web/v1"
	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
	"github.com/ardanlabs/medchain/foundation/blockchain/signature"
	"github.com/ardanlabs/medchain/foundation/blockchain/state"
	"github.com/ardanlabs/medchain/foundation/events"
	"github.com/ardanlabs/medchain/foundation/keystore"
	"github.com/ardanlabs/medchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	KS    *keystore.KeyStore
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	ch, err := h.Evts.Acquire(v.TraceID)
	if err != nil {
		return v1.NewRequestError(err, http.StatusServiceUnavailable)
	}
	defer h.Evts.Release(v.TraceID)

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitRecord creates a candidate block for the record and sends it to
// every node in the network.
func (h Handlers) SubmitRecord(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var record database.Record
	if err := web.Decode(r, &record); err != nil {
		if web.IsFieldErrors(err) {
			return err
		}
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	blk, err := h.State.SubmitRecord(record)
	if err != nil {
		return err
	}

	h.Log.Infow("submit record", "traceid", v.TraceID, "blk", blk.ID, "creator", blk.CreatorID)

	resp := submitted{
		Status:  "record sent to the network",
		BlockID: blk.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Chain returns the verified chain in the order this node appended it.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlocks(h.State.QueryChain()), http.StatusOK)
}

// Block returns the verified block with the specified id.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.QueryBlock(web.Param(r, "id"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toBlock(blk), http.StatusOK)
}

// Proof returns the merkle proof that the block is part of the chain.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	proof, err := h.State.QueryProof(web.Param(r, "id"))
	if err != nil {
		if errors.Is(err, state.ErrBlockNotFound) {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// Verify recomputes the digest of every block in the chain.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := verification{
		Valid:  h.State.VerifyChain(),
		Blocks: len(h.State.QueryChain()),
		Root:   h.State.QueryRoot(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Credits returns the number of blocks each node solved.
func (h Handlers) Credits(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tally := h.State.QueryCredits()

	credits := make([]credit, 0, len(tally))
	for nodeID, count := range tally {
		credits = append(credits, credit{
			NodeID:   nodeID,
			NodeName: peer.New(nodeID).String(),
			Credits:  count,
		})
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].NodeID < credits[j].NodeID })

	return web.Respond(ctx, w, credits, http.StatusOK)
}

// Pending returns the candidate blocks waiting to be solved.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlocks(h.State.QueryPending()), http.StatusOK)
}

// Keys returns the public keys this node learned from the key exchange.
func (h Handlers) Keys(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	known := h.State.QueryKeys()

	keys := make([]key, 0, len(known))
	for nodeID, publicKey := range known {
		k := key{
			NodeID:    nodeID,
			NodeName:  peer.New(nodeID).String(),
			PublicKey: signature.Encode(publicKey),
			KeyName:   signature.Encode(publicKey),
		}
		if h.KS != nil {
			k.KeyName = h.KS.Lookup(publicKey)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].NodeID < keys[j].NodeID })

	return web.Respond(ctx, w, keys, http.StatusOK)
}
