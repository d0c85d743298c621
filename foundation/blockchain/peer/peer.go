// Package peer maintains the peer related information such as the
// deterministic addresses of every node and the public keys they announce.
package peer

import (
	"fmt"
	"net"
	"strconv"
)

// Channel identifies one of the three listeners every node runs.
type Channel int

// Set of listeners every node runs.
const (
	KeyChannel Channel = iota
	UnverifiedChannel
	VerifiedChannel
)

// String implements the fmt.Stringer interface.
func (c Channel) String() string {
	switch c {
	case KeyChannel:
		return "key"
	case UnverifiedChannel:
		return "unverified"
	case VerifiedChannel:
		return "verified"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// =============================================================================

// Default base ports. A node listens on the base port plus its node id.
const (
	DefaultKeyBase        = 4701
	DefaultUnverifiedBase = 4820
	DefaultVerifiedBase   = 4930
)

// Ports maps node ids to listener addresses. The mapping must be identical
// on every node for propagation to work.
type Ports struct {
	Host           string
	KeyBase        int
	UnverifiedBase int
	VerifiedBase   int
}

// DefaultPorts returns the port layout used when nothing is configured.
func DefaultPorts(host string) Ports {
	return Ports{
		Host:           host,
		KeyBase:        DefaultKeyBase,
		UnverifiedBase: DefaultUnverifiedBase,
		VerifiedBase:   DefaultVerifiedBase,
	}
}

// Port returns the port the specified node listens on for the channel.
func (p Ports) Port(ch Channel, nodeID int) int {
	switch ch {
	case KeyChannel:
		return p.KeyBase + nodeID
	case UnverifiedChannel:
		return p.UnverifiedBase + nodeID
	default:
		return p.VerifiedBase + nodeID
	}
}

// Addr returns the host:port the specified node listens on for the channel.
func (p Ports) Addr(ch Channel, nodeID int) string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port(ch, nodeID)))
}

// =============================================================================

// Peer represents information about a Node in the network.
type Peer struct {
	ID int
}

// New contructs a new peer value.
func New(id int) Peer {
	return Peer{
		ID: id,
	}
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return fmt.Sprintf("node%d", p.ID)
}

// Network returns the peers for a network of the specified size. Node ids
// are assigned 0 through count-1.
func Network(count int) []Peer {
	peers := make([]Peer, count)
	for i := range peers {
		peers[i] = New(i)
	}
	return peers
}
