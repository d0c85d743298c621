// Package state is the core API for the blockchain node. It wires the key
// directory, the block store, the solver and the transport together and
// implements the rules for processing the messages nodes exchange.
package state

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/medchain/foundation/blockchain/codec"
	"github.com/ardanlabs/medchain/foundation/blockchain/database"
	"github.com/ardanlabs/medchain/foundation/blockchain/network"
	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks and keys.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for solving blocks.
type Worker interface {
	Shutdown()
	SignalSolve(block database.Block)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID      int
	NodeCount   int
	BootstrapID int
	ArchiveID   int
	PrivateKey  *ecdsa.PrivateKey
	Network     *network.Network
	Codec       codec.Codec
	Exporter    database.Exporter
	Pace        time.Duration
	EvHandler   EventHandler
}

// State manages the blockchain node.
type State struct {
	nodeID      int
	nodeCount   int
	bootstrapID int
	archiveID   int
	privateKey  *ecdsa.PrivateKey
	pace        time.Duration
	evHandler   EventHandler

	db       *database.Database
	keys     *peer.KeyDirectory
	net      *network.Network
	codec    codec.Codec
	exporter database.Exporter

	mu        sync.Mutex
	listeners []*network.Listener
	senders   sync.WaitGroup
	exportMu  sync.Mutex

	Worker Worker
}

// New constructs a new blockchain node for data management.
func New(cfg Config) (*State, error) {
	if cfg.NodeCount <= 0 {
		return nil, errors.New("node count must be positive")
	}

	if cfg.NodeID < 0 || cfg.NodeID >= cfg.NodeCount {
		return nil, fmt.Errorf("node id %d is outside the network of %d nodes", cfg.NodeID, cfg.NodeCount)
	}

	if cfg.PrivateKey == nil {
		return nil, errors.New("private key is missing")
	}

	if cfg.Network == nil {
		return nil, errors.New("network is missing")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	cdc := cfg.Codec
	if cdc == nil {
		cdc = codec.JSON{}
	}

	state := State{
		nodeID:      cfg.NodeID,
		nodeCount:   cfg.NodeCount,
		bootstrapID: cfg.BootstrapID,
		archiveID:   cfg.ArchiveID,
		privateKey:  cfg.PrivateKey,
		pace:        cfg.Pace,
		evHandler:   ev,

		db:       database.New(),
		keys:     peer.NewKeyDirectory(),
		net:      cfg.Network,
		codec:    cdc,
		exporter: cfg.Exporter,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Start opens the key, unverified and verified listeners for this node.
func (s *State) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ports := s.net.Ports()

	channels := []struct {
		ch      peer.Channel
		handler network.Handler
	}{
		{ch: peer.KeyChannel, handler: s.HandleKey},
		{ch: peer.UnverifiedChannel, handler: s.HandleUnverified},
		{ch: peer.VerifiedChannel, handler: s.HandleVerified},
	}

	for _, c := range channels {
		l, err := network.Listen(c.ch.String(), ports.Addr(c.ch, s.nodeID), c.handler, network.EventHandler(s.evHandler))
		if err != nil {
			for _, l := range s.listeners {
				l.Close()
			}
			s.listeners = nil
			return err
		}
		s.listeners = append(s.listeners, l)
	}

	return nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	// Stop accepting new messages first.
	s.mu.Lock()
	for _, l := range s.listeners {
		l.Close()
	}
	s.listeners = nil
	s.mu.Unlock()

	// Stop all solving activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Let the outbound multicasts finish.
	s.senders.Wait()

	return nil
}
