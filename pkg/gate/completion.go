package gate

import (
	"context"
	"sync"
)

// Outcome records how one source settled.
type Outcome struct {
	Source string
	Err    error
}

// Completion resolves once every expected source has settled.
type Completion struct {
	mu       sync.Mutex
	expected map[string]struct{}
	settled  map[string]struct{}
	outcomes []Outcome
	done     chan struct{}
	closed   bool
	onReady  []func()
}

// NewCompletion expects the given source keys to settle. With no keys the
// completion is resolved immediately.
func NewCompletion(keys []string) *Completion {
	c := &Completion{
		settled: make(map[string]struct{}, len(keys)),
		done:    make(chan struct{}),
	}
	pending := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		pending[key] = struct{}{}
	}
	c.expected = pending
	if len(pending) == 0 {
		c.closed = true
		close(c.done)
	}
	return c
}

// Settle marks key as finished. Unknown keys and repeated settles are
// ignored. It reports whether this call resolved the completion.
func (c *Completion) Settle(key string, err error) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if _, ok := c.expected[key]; !ok {
		c.mu.Unlock()
		return false
	}
	if _, ok := c.settled[key]; ok {
		c.mu.Unlock()
		return false
	}
	c.settled[key] = struct{}{}
	c.outcomes = append(c.outcomes, Outcome{Source: key, Err: err})
	if len(c.settled) < len(c.expected) {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	close(c.done)
	callbacks := c.onReady
	c.onReady = nil
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return true
}

// OnReady runs fn once the completion resolves, immediately when it already
// has.
func (c *Completion) OnReady(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fn()
		return
	}
	c.onReady = append(c.onReady, fn)
	c.mu.Unlock()
}

// Done is closed once every source has settled.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Ready reports whether the completion has resolved.
func (c *Completion) Ready() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the completion resolves or ctx ends.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many sources have not settled yet.
func (c *Completion) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.expected) - len(c.settled)
}

// Outcomes returns the settled sources in settle order.
func (c *Completion) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Outcome(nil), c.outcomes...)
}
