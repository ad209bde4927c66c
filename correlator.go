package goOIDC

import (
	"context"
	"errors"
	"sync"
	"time"
)

// correlator routes authorization responses delivered from another context
// (popup handler, message channel, second HTTP handler) to the goroutine
// blocked in AwaitCallback. One delivery wins per flow; later deliveries
// are rejected rather than queued.
type correlator struct {
	mu      sync.Mutex
	waiters map[string]*callbackWaiter
}

type callbackWaiter struct {
	ch        chan CallbackResult
	delivered bool

	// dropped is closed when the slot is discarded, releasing any parked
	// awaiter immediately.
	dropped chan struct{}

	// alive reports whether the delivering side still exists. Nil means
	// no liveness signal is available and only the timeout applies.
	alive func() bool
}

// errWaiterDropped signals that the slot was discarded while a goroutine
// was parked on it. Callers translate it to the flow's terminal error.
var errWaiterDropped = errors.New("callback slot dropped")

func newCorrelator() *correlator {
	return &correlator{
		waiters: map[string]*callbackWaiter{},
	}
}

// register opens a delivery slot for the flow. Idempotent.
func (c *correlator) register(flowID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.waiters[flowID]; ok {
		return
	}
	c.waiters[flowID] = &callbackWaiter{
		ch:      make(chan CallbackResult, 1),
		dropped: make(chan struct{}),
	}
}

// bindLiveness attaches a probe for the delivering context.
func (c *correlator) bindLiveness(flowID string, alive func() bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.waiters[flowID]; ok {
		w.alive = alive
	}
}

// deliver hands the result to the waiter. The first delivery per flow is
// accepted; every later one reports ErrFlowCompleted.
func (c *correlator) deliver(flowID string, result CallbackResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.waiters[flowID]
	if !ok {
		return ErrFlowNotFound
	}
	if w.delivered {
		return ErrFlowCompleted
	}
	w.delivered = true
	w.ch <- result
	return nil
}

// drop discards the flow's slot and wakes any goroutine parked in await.
// Any delivery after drop is ErrFlowNotFound.
func (c *correlator) drop(flowID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.waiters[flowID]; ok {
		close(w.dropped)
		delete(c.waiters, flowID)
	}
}

// await blocks until a result is delivered, the slot is dropped, the
// timeout lapses, the delivering side is observed gone, or ctx is done.
// A timed-out slot is torn down by the caller via drop, so a late
// delivery reports ErrFlowNotFound.
func (c *correlator) await(ctx context.Context, flowID string, timeout, livenessInterval time.Duration) (CallbackResult, error) {
	c.mu.Lock()
	w, ok := c.waiters[flowID]
	c.mu.Unlock()
	if !ok {
		return CallbackResult{}, ErrFlowNotFound
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	probe := time.NewTicker(livenessInterval)
	defer probe.Stop()

	for {
		select {
		case result := <-w.ch:
			return result, nil
		case <-w.dropped:
			return CallbackResult{}, errWaiterDropped
		case <-deadline.C:
			return CallbackResult{}, ErrCallbackTimeout
		case <-probe.C:
			if w.alive != nil && !w.alive() {
				return CallbackResult{}, ErrCallbackTimeout
			}
		case <-ctx.Done():
			return CallbackResult{}, ctx.Err()
		}
	}
}
