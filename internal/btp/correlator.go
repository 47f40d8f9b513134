package btp

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Correlator tracks outstanding request ids on one BTP connection,
// handing each a unique next request id and routing its eventual
// Response/Error frame back to the caller. A caller that tries to send
// a request id already outstanding gets an error rather than silently
// overwriting the older request's channel, per the connector's decision
// to error-on-send instead of logging and dropping the new caller.
type Correlator struct {
	next atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan Frame
}

// NewCorrelator returns an empty Correlator.
func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[uint32]chan Frame)}
}

// NextRequestID returns the next value of a 32-bit counter that wraps
// around; it does not consult the outstanding set, so Await is what
// rejects an id that is still outstanding.
func (c *Correlator) NextRequestID() uint32 {
	return c.next.Add(1)
}

// Await registers requestID as outstanding and returns the channel its
// Response/Error frame will be delivered on. Returns an error if
// requestID is already outstanding.
func (c *Correlator) Await(requestID uint32) (<-chan Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[requestID]; exists {
		return nil, fmt.Errorf("btp: request id %d is already outstanding on this connection", requestID)
	}
	ch := make(chan Frame, 1)
	c.pending[requestID] = ch
	return ch, nil
}

// Resolve delivers f to the waiter registered for f.RequestID, if any.
// Returns false if no waiter was outstanding (a late or duplicate reply).
func (c *Correlator) Resolve(f Frame) bool {
	c.mu.Lock()
	ch, ok := c.pending[f.RequestID]
	if ok {
		delete(c.pending, f.RequestID)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- f
	close(ch)
	return true
}

// Cancel drops the waiter for requestID without delivering a frame, used
// when a per-hop timeout abandons the request.
func (c *Correlator) Cancel(requestID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.pending[requestID]; ok {
		delete(c.pending, requestID)
		close(ch)
	}
}

// Outstanding returns the number of requests awaiting a response.
func (c *Correlator) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
