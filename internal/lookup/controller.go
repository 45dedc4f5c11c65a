package lookup

import (
	"context"
	"sync"

	"cryptocloud/internal/market"
)

// LookupFunc is the composed lookup the controller drives, normally
// (*aggregate.Aggregator).Lookup.
type LookupFunc func(ctx context.Context, key string) (market.Detail, error)

// State is a snapshot of the controller's presentation-visible state.
type State struct {
	Key     string
	Loading bool
	Record  *market.Detail
	Err     error
}

// Controller serializes lookup state transitions behind a generation counter.
// Each new key mints a generation; a completion is applied only while its
// generation is still current, so superseded in-flight lookups have no
// observable effect. Cancellation of the superseded call is advisory: the
// previous generation's context is canceled, but correctness rests on the
// completion-time generation gate.
type Controller struct {
	lookup LookupFunc

	mu      sync.Mutex
	gen     uint64
	key     string
	loading bool
	record  *market.Detail
	err     error
	cancel  context.CancelFunc
}

func NewController(lookup LookupFunc) *Controller {
	return &Controller{lookup: lookup}
}

// Lookup starts an asynchronous lookup for key. Loading turns on and any
// previous error clears immediately. The returned channel closes when this
// generation's attempt finishes, whether its result was applied or discarded.
func (c *Controller) Lookup(ctx context.Context, key string) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.key = key
	c.loading = true
	c.err = nil
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		record, err := c.lookup(ctx, key)
		cancel()
		c.complete(gen, record, err)
	}()
	return done
}

func (c *Controller) complete(gen uint64, record market.Detail, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// Superseded; discard silently.
		return
	}
	c.loading = false
	if err != nil {
		c.record = nil
		c.err = err
		return
	}
	c.record = &record
	c.err = nil
}

// State returns the current presentation-visible state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Key: c.key, Loading: c.loading, Record: c.record, Err: c.err}
}
