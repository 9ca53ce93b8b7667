package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Correlator hands out request identifiers and tracks the cancellation
// handle of every in-flight request. Ids are never reused; cancel after
// release is a no-op.
type Correlator struct {
	mutex    sync.RWMutex
	inflight map[string]context.CancelFunc
}

func NewCorrelator() *Correlator {
	return &Correlator{
		inflight: make(map[string]context.CancelFunc),
	}
}

// NewID generates a fresh request identifier.
func (c *Correlator) NewID() string {
	return uuid.NewString()
}

// Register associates a request id with its cancellation handle.
// Registering an id twice is a programming error.
func (c *Correlator) Register(id string, cancel context.CancelFunc) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.inflight[id]; exists {
		panic(fmt.Sprintf("relay: request id %s registered twice", id))
	}
	c.inflight[id] = cancel
}

// Cancel aborts the request if it is still in flight.
func (c *Correlator) Cancel(id string) {
	c.mutex.RLock()
	cancel, exists := c.inflight[id]
	c.mutex.RUnlock()

	if exists {
		cancel()
	}
}

// Release drops the request from the in-flight set.
func (c *Correlator) Release(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.inflight, id)
}

// InFlight returns the number of currently tracked requests.
func (c *Correlator) InFlight() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.inflight)
}
