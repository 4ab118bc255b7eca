// Package digital provides awaitable level and edge waits on GPIO inputs.
//
// A wait enables the pin's event bits in the executing core's interrupt
// enable register. The bank ISR disables every event of a firing pin, clears
// its latched edges and wakes the task that was waiting on it.
package digital

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"rpasync/core"
	"rpasync/hw"
)

var (
	// ErrPinRange is returned for a pin the IO bank does not have.
	ErrPinRange = errors.New("digital: pin out of range")

	// ErrNoBank is returned before Init has installed the IO bank.
	ErrNoBank = errors.New("digital: io bank not initialised")

	// ErrNoDriver is returned when no GPIO driver is available to read pins.
	ErrNoDriver = errors.New("digital: no gpio driver")
)

// AsyncInput is an input pin upgraded to support awaiting level and edge
// events.
type AsyncInput struct {
	drv  core.GPIODriver
	bank *hw.IOBank
	pin  int
	busy atomic.Bool
}

// NewAsyncInput returns the awaitable form of pin, read through drv. A nil
// drv uses the driver registered with core.SetGPIODriver.
func NewAsyncInput(drv core.GPIODriver, pin core.GPIOPin) (*AsyncInput, error) {
	if drv == nil {
		drv = core.GPIO()
	}
	if drv == nil {
		return nil, ErrNoDriver
	}
	b := currentBank()
	if b == nil {
		return nil, ErrNoBank
	}
	if !b.ValidPin(int(pin)) {
		return nil, fmt.Errorf("pin %d: %w", pin, ErrPinRange)
	}
	return &AsyncInput{drv: drv, bank: b, pin: int(pin)}, nil
}

// Pin returns the pin number.
func (in *AsyncInput) Pin() core.GPIOPin {
	return core.GPIOPin(in.pin)
}

// IsHigh reads the pin.
func (in *AsyncInput) IsHigh() (bool, error) {
	return in.drv.GetPin(core.GPIOPin(in.pin))
}

// IsLow reads the pin.
func (in *AsyncInput) IsLow() (bool, error) {
	high, err := in.IsHigh()
	return !high, err
}

func (in *AsyncInput) start(cond core.Condition) (core.Future, error) {
	if !in.busy.CompareAndSwap(false, true) {
		return nil, core.ErrBusy
	}
	f := core.NewCompletion(wakers, in.pin, cond)
	f.OnDone(func() { in.busy.Store(false) })
	return f, nil
}

// High returns a future that completes once the pin is high. It completes
// on its first poll if the pin already is.
func (in *AsyncInput) High() (core.Future, error) {
	return in.start(&levelCondition{pinWait: pinWait{in: in}, high: true})
}

// Low returns a future that completes once the pin is low.
func (in *AsyncInput) Low() (core.Future, error) {
	return in.start(&levelCondition{pinWait: pinWait{in: in}, high: false})
}

// RisingEdge returns a future that completes on the next low-to-high
// transition after its first poll.
func (in *AsyncInput) RisingEdge() (core.Future, error) {
	return in.start(&edgeCondition{pinWait: pinWait{in: in}, ev: hw.EventEdgeHigh})
}

// FallingEdge returns a future that completes on the next high-to-low
// transition after its first poll.
func (in *AsyncInput) FallingEdge() (core.Future, error) {
	return in.start(&edgeCondition{pinWait: pinWait{in: in}, ev: hw.EventEdgeLow})
}

// AnyEdge returns a future that completes on the next transition in either
// direction.
func (in *AsyncInput) AnyEdge() (core.Future, error) {
	return in.start(&edgeCondition{pinWait: pinWait{in: in}, ev: hw.EventEdges})
}

func await(ctx context.Context, f core.Future, err error) error {
	if err != nil {
		return err
	}
	return core.Await(ctx, f)
}

// WaitForHigh blocks until the pin is high.
func (in *AsyncInput) WaitForHigh(ctx context.Context) error {
	f, err := in.High()
	return await(ctx, f, err)
}

// WaitForLow blocks until the pin is low.
func (in *AsyncInput) WaitForLow(ctx context.Context) error {
	f, err := in.Low()
	return await(ctx, f, err)
}

// WaitForRisingEdge blocks until the pin goes from low to high.
func (in *AsyncInput) WaitForRisingEdge(ctx context.Context) error {
	f, err := in.RisingEdge()
	return await(ctx, f, err)
}

// WaitForFallingEdge blocks until the pin goes from high to low.
func (in *AsyncInput) WaitForFallingEdge(ctx context.Context) error {
	f, err := in.FallingEdge()
	return await(ctx, f, err)
}

// WaitForAnyEdge blocks until the pin changes level.
func (in *AsyncInput) WaitForAnyEdge(ctx context.Context) error {
	f, err := in.AnyEdge()
	return await(ctx, f, err)
}

// pinWait holds the pin's per-core waiter slot for one wait, so two handles
// on the same pin cannot wait on the same core at once.
type pinWait struct {
	in *AsyncInput
}

func (w *pinWait) Claim(cpu int) bool {
	return claims[cpu][w.in.pin].CompareAndSwap(nil, w)
}

func (w *pinWait) Release(cpu int) {
	claims[cpu][w.in.pin].CompareAndSwap(w, nil)
}

// levelCondition waits for the pin to sit at one level. Level events are not
// latched, so a level reached between the immediate read and arming still
// raises the interrupt once enabled.
type levelCondition struct {
	pinWait
	high bool
}

func (c *levelCondition) event() hw.Event {
	if c.high {
		return hw.EventLevelHigh
	}
	return hw.EventLevelLow
}

func (c *levelCondition) Ready() (bool, error) {
	v, err := c.in.IsHigh()
	if err != nil {
		return false, err
	}
	return v == c.high, nil
}

func (c *levelCondition) Arm(cpu int) {
	c.in.bank.EnableEvents(cpu, c.in.pin, c.event())
}

func (c *levelCondition) Disarm(cpu int) {
	c.in.bank.DisableEvents(cpu, c.in.pin, c.event())
}

// edgeCondition waits for a transition. Edges latched before the wait began
// are cleared when arming so only new transitions complete it, unless the
// other core is waiting on the same edge: the latch is shared, and clearing
// it would lose that core's wakeup.
type edgeCondition struct {
	pinWait
	ev hw.Event
}

func (c *edgeCondition) Arm(cpu int) {
	ackUnshared(c.in.bank, cpu, c.in.pin, c.ev)
	c.in.bank.EnableEvents(cpu, c.in.pin, c.ev)
}

func (c *edgeCondition) Disarm(cpu int) {
	c.in.bank.DisableEvents(cpu, c.in.pin, c.ev)
	ackUnshared(c.in.bank, cpu, c.in.pin, c.ev)
}

// ackUnshared clears the latched edges in ev that no other core has enabled
// on pin.
func ackUnshared(b *hw.IOBank, cpu, pin int, ev hw.Event) {
	for other := 0; other < hw.NumCores; other++ {
		if other != cpu {
			ev &^= b.EnabledEvents(other, pin)
		}
	}
	if ev&hw.EventEdges != 0 {
		b.AckEvents(pin, ev)
	}
}
