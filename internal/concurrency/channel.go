package concurrency

import (
	"sync"
	"time"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// Channel implements spec §4.9's FIFO channel: bounded (Capacity > 0),
// rendezvous (Capacity == 0, a send only completes once a receive actually
// takes the value), or unbounded (Capacity < 0). It's built directly on
// sync.Mutex/sync.Cond rather than a native Go channel so all three
// capacity modes share one implementation and Close never races a
// send-to-closed-channel panic the way closing a native channel would.
type Channel struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	queue    []value.Value
	capacity int
	closed   bool
}

// NewChannel creates a channel with the given capacity: >0 bounded, 0
// rendezvous, <0 unbounded.
func NewChannel(capacity int) *Channel {
	c := &Channel{capacity: capacity}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c
}

func chanClosedErr() error {
	return nerr.New(nerr.ChannelClosed, "channel is closed")
}

// Send blocks until the value is accepted (bounded/unbounded) or handed
// directly to a waiting receiver (rendezvous), returning ChannelClosed if
// the channel is or becomes closed first.
func (c *Channel) Send(v value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity == 0 {
		for len(c.queue) > 0 && !c.closed {
			c.notFull.Wait()
		}
		if c.closed {
			return chanClosedErr()
		}
		c.queue = append(c.queue, v)
		c.notEmpty.Signal()
		for len(c.queue) > 0 && !c.closed {
			c.notFull.Wait()
		}
		if c.closed && len(c.queue) > 0 {
			c.queue = nil
			return chanClosedErr()
		}
		return nil
	}

	for c.capacity > 0 && len(c.queue) >= c.capacity && !c.closed {
		c.notFull.Wait()
	}
	if c.closed {
		return chanClosedErr()
	}
	c.queue = append(c.queue, v)
	c.notEmpty.Signal()
	return nil
}

// Receive blocks until a value is available, returning ChannelClosed once
// the channel is closed and drained.
func (c *Channel) Receive() (value.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	if len(c.queue) == 0 {
		return nil, chanClosedErr()
	}
	v := c.queue[0]
	c.queue = c.queue[1:]
	c.notFull.Signal()
	return v, nil
}

// TryReceive returns immediately: (value, true) if one was queued,
// (Null, false) otherwise.
func (c *Channel) TryReceive() (value.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return value.Null, false
	}
	v := c.queue[0]
	c.queue = c.queue[1:]
	c.notFull.Signal()
	return v, true
}

// ReceiveTimeout behaves like Receive but returns a Timeout error if no
// value (and no close) arrives within d.
func (c *Channel) ReceiveTimeout(d time.Duration) (value.Value, error) {
	type result struct {
		v   value.Value
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := c.Receive()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-time.After(d):
		return nil, nerr.New(nerr.Timeout, "channel receive timed out after %s", d)
	}
}

// Close marks the channel closed, unblocking every pending Send and
// Receive. Closing an already-closed channel is a no-op.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
}

// IsClosed reports the channel's closed state.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len returns the number of values currently queued.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
