// Package events fans the node's event messages out to any number of
// subscribers, such as websocket clients watching a node solve blocks.
package events

import (
	"errors"
	"fmt"
	"sync"
)

// subscriberBuffer is the number of messages a subscriber can fall behind
// before messages are dropped for it.
const subscriberBuffer = 100

// ErrClosed is returned when subscribing after the feed was shut down.
var ErrClosed = errors.New("event feed is shut down")

// subscriber is a single receiver of the feed.
type subscriber struct {
	ch      chan string
	dropped int
}

// Events is the node's event feed. Each subscriber is identified by the
// trace id of the request that registered it.
type Events struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool
}

// New constructs an empty event feed.
func New() *Events {
	return &Events{
		subs: make(map[string]*subscriber),
	}
}

// Acquire registers the subscriber and returns the channel its messages
// arrive on. Acquiring an id twice returns the same channel.
func (evt *Events) Acquire(id string) (<-chan string, error) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if evt.closed {
		return nil, ErrClosed
	}

	if sub, exists := evt.subs[id]; exists {
		return sub.ch, nil
	}

	sub := subscriber{ch: make(chan string, subscriberBuffer)}
	evt.subs[id] = &sub

	return sub.ch, nil
}

// Release removes the subscriber and closes its channel.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return nil
}

// Shutdown releases every subscriber. Later calls to Acquire fail.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	evt.closed = true
	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}

// Send delivers the message to every subscriber with room in its buffer
// and returns how many received it. A full subscriber misses the message.
func (evt *Events) Send(msg string) int {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	var delivered int
	for _, sub := range evt.subs {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			sub.dropped++
		}
	}

	return delivered
}

// Dropped returns the number of messages the subscriber missed.
func (evt *Events) Dropped(id string) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.dropped
	}

	return 0
}

// Len returns the number of subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}
