package mathtex

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Controller owns the conversion state and sequences requests.
//
// Trigger may be called at any time, including while a request is in
// flight. Each dispatch is tagged with a sequence number and only the reply
// to the most recently issued request may update the state; replies to
// superseded requests are discarded when they arrive. In-flight requests are
// never cancelled, except by Close.
type Controller struct {
	requester Requester
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	input   string
	state   State
	seq     uint64
	changed chan struct{} // closed and replaced on every state change
	closed  bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger for state transitions.
func WithControllerLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates an idle Controller.
// Panics if r is nil (programmer error).
func NewController(r Requester, opts ...ControllerOption) *Controller {
	if r == nil {
		panic("mathtex: NewController requires a Requester")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		requester: r,
		logger:    discardLogger(),
		ctx:       ctx,
		cancel:    cancel,
		state:     idleState(),
		changed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input returns the current input text.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the current input text without triggering.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current state together with a channel that is closed
// on the next state change.
func (c *Controller) Snapshot() (State, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.changed
}

// Trigger starts a conversion of text and returns its sequence number.
// Blank text is a no-op: nothing is dispatched, the state is unchanged and
// ok is false. Trigger also returns false after Close.
func (c *Controller) Trigger(text string) (seq uint64, ok bool) {
	req, err := NewRequest(text)
	if err != nil {
		return 0, false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, false
	}
	c.seq++
	seq = c.seq
	c.replaceLocked(loadingState(seq))
	c.wg.Add(1)
	c.mu.Unlock()

	go c.dispatch(seq, req)
	return seq, true
}

// TriggerWithText sets the input to text and triggers it immediately.
func (c *Controller) TriggerWithText(text string) (uint64, bool) {
	c.SetInput(text)
	return c.Trigger(text)
}

// Wait blocks until the state leaves Loading or ctx is done.
// An Idle controller returns immediately.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	for {
		st, changed := c.Snapshot()
		if st.Phase != PhaseLoading {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels outstanding requests and waits for their goroutines.
// The state is left as it was.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) dispatch(seq uint64, req Request) {
	defer c.wg.Done()

	var (
		result Result
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("internal error: %v", r)
			}
		}()
		result, err = c.requester.Request(c.ctx, req.Text())
	}()

	c.resolve(seq, result, err)
}

// resolve applies the reply for seq unless a newer request superseded it.
func (c *Controller) resolve(seq uint64, result Result, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if seq != c.seq {
		c.logger.Debug("discarding superseded reply", "seq", seq, "latest", c.seq)
		return
	}

	if err != nil {
		st := failedState(seq, err)
		c.logger.Debug("conversion failed", "seq", seq, "kind", st.Kind, "err", err)
		c.replaceLocked(st)
		return
	}
	c.replaceLocked(succeededState(seq, result))
}

// replaceLocked swaps the state wholesale and wakes watchers.
// Caller must hold c.mu.
func (c *Controller) replaceLocked(st State) {
	c.state = st
	close(c.changed)
	c.changed = make(chan struct{})
	c.logger.Debug("state changed", "phase", st.Phase, "seq", st.Seq)
}
