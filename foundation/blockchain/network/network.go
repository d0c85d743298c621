// Package network implements the point to point transport between nodes.
// A message is one connection: the sender writes the full payload and
// closes, the receiver reads until the sender closes.
package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ardanlabs/medchain/foundation/blockchain/peer"
)

// DefaultDialTimeout is used when no dial timeout is configured.
const DefaultDialTimeout = 2 * time.Second

// EventHandler defines a function that is called when events
// occur in the transport.
type EventHandler func(v string, args ...any)

// Handler processes the bytes of a single message received by a listener.
type Handler func(data []byte)

// =============================================================================

// Listener accepts connections on one address and hands every message to
// the handler on its own goroutine.
type Listener struct {
	name    string
	ln      net.Listener
	handler Handler
	ev      EventHandler
	wg      sync.WaitGroup
	shut    chan struct{}

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Listen starts accepting connections on the address. Each connection is
// handled by its own goroutine.
func Listen(name string, addr string, handler Handler, ev EventHandler) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s[%s]: %w", name, addr, err)
	}

	l := Listener{
		name:    name,
		ln:      ln,
		handler: handler,
		ev:      ev,
		shut:    make(chan struct{}),
		conns:   make(map[net.Conn]struct{}),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.acceptOperations()
	}()

	return &l, nil
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Close stops accepting connections, closes the connections still being
// read and waits for their goroutines to finish.
func (l *Listener) Close() error {
	close(l.shut)
	err := l.ln.Close()

	l.mu.Lock()
	for conn := range l.conns {
		conn.Close()
	}
	l.mu.Unlock()

	l.wg.Wait()

	return err
}

// track records an open connection. It reports false once the listener is
// closing, in which case the connection is not handled.
func (l *Listener) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.shut:
		return false
	default:
	}

	l.conns[conn] = struct{}{}
	return true
}

func (l *Listener) untrack(conn net.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.conns, conn)
}

// acceptOperations handles accepting new connections.
func (l *Listener) acceptOperations() {
	l.ev("network: acceptOperations: %s: G started: addr[%s]", l.name, l.Addr())
	defer l.ev("network: acceptOperations: %s: G completed", l.name)

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.shut:
				return
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			// One failed accept does not stop the listener.
			l.ev("network: acceptOperations: %s: ERROR: %s", l.name, err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if !l.track(conn) {
			conn.Close()
			return
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.untrack(conn)
			l.handleConnection(conn)
		}()
	}
}

// handleConnection reads the whole message and calls the handler.
func (l *Listener) handleConnection(conn net.Conn) {
	defer conn.Close()

	data, err := io.ReadAll(conn)
	if err != nil {
		l.ev("network: handleConnection: %s: remote[%s]: ERROR: %s", l.name, conn.RemoteAddr(), err)
		return
	}

	if len(data) == 0 {
		l.ev("network: handleConnection: %s: remote[%s]: WARNING: empty message", l.name, conn.RemoteAddr())
		return
	}

	l.handler(data)
}

// =============================================================================

// Network sends messages to the nodes of a fixed size network.
type Network struct {
	ports       peer.Ports
	peers       []peer.Peer
	dialTimeout time.Duration
	ev          EventHandler
}

// New constructs a network for the specified number of nodes.
func New(ports peer.Ports, nodeCount int, dialTimeout time.Duration, ev EventHandler) *Network {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	if ev == nil {
		ev = func(string, ...any) {}
	}

	return &Network{
		ports:       ports,
		peers:       peer.Network(nodeCount),
		dialTimeout: dialTimeout,
		ev:          ev,
	}
}

// Ports returns the address layout of the network.
func (n *Network) Ports() peer.Ports {
	return n.ports
}

// Peers returns the nodes in the network.
func (n *Network) Peers() []peer.Peer {
	peers := make([]peer.Peer, len(n.peers))
	copy(peers, n.peers)
	return peers
}

// Send opens a connection to the address, writes the data and closes.
func (n *Network) Send(addr string, data []byte) error {
	conn, err := net.DialTimeout("tcp", addr, n.dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		return err
	}

	return nil
}

// Multicast sends the data to the channel of every node, including this
// one. A failed send is logged and the remaining nodes are still tried.
// It returns the number of nodes the data was delivered to.
func (n *Network) Multicast(ch peer.Channel, data []byte) int {
	n.ev("network: Multicast: %s: started: peers[%d]", ch, len(n.peers))

	var sent int
	for _, pr := range n.peers {
		addr := n.ports.Addr(ch, pr.ID)
		if err := n.Send(addr, data); err != nil {
			n.ev("network: Multicast: %s: %s[%s]: WARNING: %s", ch, pr, addr, err)
			continue
		}
		sent++
	}

	n.ev("network: Multicast: %s: completed: sent[%d/%d]", ch, sent, len(n.peers))

	return sent
}
