package core

import "rpasync/hw"

// Future is a value that completes later, driven by repeated polls.
//
// Poll reports whether the future has completed and, if so, its result. When
// it returns false the waker has been stored and will be woken when the
// future can make progress. Cancel abandons the future and must undo
// everything Poll set up before it returns.
type Future interface {
	Poll(w Waker) (ready bool, err error)
	Cancel()
}

// FutureState is the lifecycle state of a Completion.
type FutureState uint8

const (
	FutureFresh FutureState = iota
	FutureArmed
	FutureDone
)

func (s FutureState) String() string {
	switch s {
	case FutureFresh:
		return "fresh"
	case FutureArmed:
		return "armed"
	case FutureDone:
		return "done"
	}
	return "state" + Itoa(int(s))
}

// Condition is the hardware side of a Completion: the interrupt condition it
// arms on a core and later disarms.
type Condition interface {
	Arm(core int)
	Disarm(core int)
}

// ImmediateChecker is implemented by conditions that can already be true
// before anything is armed, such as a pin that is at the awaited level.
type ImmediateChecker interface {
	Ready() (bool, error)
}

// Claimer is implemented by conditions whose resource admits one waiter per
// core, whichever handle it came from. Claim is taken on the first poll and
// released when the future is done.
type Claimer interface {
	Claim(core int) bool
	Release(core int)
}

// Completion is the shared future shape behind delays and pin waits.
//
// A Completion arms its condition on the first poll and disarms it exactly
// once: on the poll that observes the wake, or in Cancel.
type Completion struct {
	cond     Condition
	wakers   *WakerRegistry
	resource int

	state   FutureState
	core    int
	claimed bool
	err     error
	onDone  func()
}

// NewCompletion returns a fresh future that waits for cond on resource,
// using wakers to receive the interrupt's wake.
func NewCompletion(wakers *WakerRegistry, resource int, cond Condition) *Completion {
	return &Completion{
		cond:     cond,
		wakers:   wakers,
		resource: resource,
	}
}

// OnDone sets a function run once when the future reaches FutureDone by any
// path. The async handles use it to release their in-flight claim.
func (c *Completion) OnDone(fn func()) {
	c.onDone = fn
}

// State returns the lifecycle state.
func (c *Completion) State() FutureState {
	return c.state
}

// ArmedCore returns the core the condition was armed on.
func (c *Completion) ArmedCore() int {
	return c.core
}

func (c *Completion) finish(err error) {
	c.state = FutureDone
	c.err = err
	if c.claimed {
		c.claimed = false
		c.cond.(Claimer).Release(c.core)
	}
	if c.onDone != nil {
		fn := c.onDone
		c.onDone = nil
		fn()
	}
}

func (c *Completion) Poll(w Waker) (bool, error) {
	switch c.state {
	case FutureDone:
		LogError("poll invoked after ready")
		return true, c.err

	case FutureArmed:
		// Still registered means no interrupt has woken us yet.
		if c.wakers.Refresh(c.core, c.resource, w) {
			return false, nil
		}
		c.cond.Disarm(c.core)
		c.finish(nil)
		return true, nil
	}

	core := CurrentCore()
	if !hw.ValidCore(core) {
		LogError("future polled on invalid core " + Itoa(core))
		c.finish(ErrInvalidCore)
		return true, ErrInvalidCore
	}

	c.core = core
	if cl, ok := c.cond.(Claimer); ok {
		if !cl.Claim(core) {
			c.finish(ErrBusy)
			return true, ErrBusy
		}
		c.claimed = true
	}

	if chk, ok := c.cond.(ImmediateChecker); ok {
		ready, err := chk.Ready()
		if err != nil {
			c.finish(err)
			return true, err
		}
		if ready {
			c.finish(nil)
			return true, nil
		}
	}

	c.wakers.Register(core, c.resource, w)
	c.state = FutureArmed
	c.cond.Arm(core)
	return false, nil
}

func (c *Completion) Cancel() {
	switch c.state {
	case FutureArmed:
		c.cond.Disarm(c.core)
		c.wakers.Clear(c.core, c.resource)
		c.finish(ErrCancelled)
	case FutureFresh:
		c.finish(ErrCancelled)
	}
}

// Ready is a Future that is already complete with err.
type Ready struct {
	Err error
}

func (r Ready) Poll(Waker) (bool, error) { return true, r.Err }

func (Ready) Cancel() {}
