// Package delay turns timer alarm channels into awaitable delays.
//
// Each alarm channel is one resource: a delay arms the channel's compare
// register and interrupt enable, the channel's ISR disables the interrupt and
// wakes the waiting task, and the task's next poll completes the delay.
package delay

import (
	"context"
	"errors"
	"fmt"
	"math"

	"rpasync/core"
	"rpasync/hw"
)

var (
	// ErrNoTimer is returned for a timer index that Init did not install.
	ErrNoTimer = errors.New("delay: timer not initialised")

	// ErrChannel is returned for an alarm channel outside 0..3.
	ErrChannel = errors.New("delay: invalid alarm channel")
)

// AsyncAlarm is an alarm channel upgraded to an awaitable delay source.
type AsyncAlarm struct {
	timer *hw.Timer
	index int
	ch    int
}

// NewAsyncAlarm returns the awaitable form of alarm channel ch of timer index
// timer. The caller gives up every other use of that channel. Handles for
// the same channel share its single in-flight delay.
func NewAsyncAlarm(timer, ch int) (*AsyncAlarm, error) {
	t := timerAt(timer)
	if t == nil {
		return nil, fmt.Errorf("timer %d: %w", timer, ErrNoTimer)
	}
	if ch < 0 || ch >= hw.AlarmsPerTimer {
		return nil, fmt.Errorf("channel %d: %w", ch, ErrChannel)
	}
	return &AsyncAlarm{timer: t, index: timer, ch: ch}, nil
}

func (a *AsyncAlarm) resource() int {
	return resourceOf(a.index, a.ch)
}

// After returns a future that completes us microseconds after its first
// poll. A zero delay completes immediately without touching the hardware.
// Only one future per alarm channel may be in flight, whichever handle
// started it; the future must be polled to completion or cancelled.
func (a *AsyncAlarm) After(us uint32) (core.Future, error) {
	if us == 0 {
		return core.Ready{}, nil
	}
	res := a.resource()
	f := core.NewCompletion(wakers, res, &alarmCondition{alarm: a, us: us})
	if !inFlight[res].CompareAndSwap(nil, f) {
		return nil, core.ErrBusy
	}
	f.OnDone(func() { inFlight[res].CompareAndSwap(f, nil) })
	return f, nil
}

// DelayUs waits for us microseconds.
func (a *AsyncAlarm) DelayUs(ctx context.Context, us uint32) error {
	f, err := a.After(us)
	if err != nil {
		return err
	}
	return core.Await(ctx, f)
}

// DelayNs waits for ns nanoseconds, rounded up to whole microseconds.
func (a *AsyncAlarm) DelayNs(ctx context.Context, ns uint32) error {
	return a.DelayUs(ctx, NsToUs(ns))
}

// DelayMs waits for ms milliseconds.
func (a *AsyncAlarm) DelayMs(ctx context.Context, ms uint32) error {
	us := core.Clamp(uint64(ms)*1000, 0, math.MaxUint32)
	return a.DelayUs(ctx, uint32(us))
}

// NsToUs converts nanoseconds to microseconds, rounding up.
func NsToUs(ns uint32) uint32 {
	return core.CeilDiv(ns, 1000)
}

// alarmCondition arms a one-shot compare at now+us on the alarm's channel.
type alarmCondition struct {
	alarm *AsyncAlarm
	us    uint32
}

func (c *alarmCondition) Arm(_ int) {
	t, ch := c.alarm.timer, c.alarm.ch
	deadline := t.Now() + uint64(c.us)

	t.Ack(ch)
	t.Schedule(ch, uint32(deadline))
	t.EnableIRQ(ch)

	// The counter may have passed the compare value while it was being
	// written; the channel would then wait a full wrap of the low word.
	if t.Now() >= deadline && t.IsArmed(ch) {
		t.Disarm(ch)
		t.ForceIRQ(ch)
	}
}

func (c *alarmCondition) Disarm(_ int) {
	t, ch := c.alarm.timer, c.alarm.ch
	t.DisableIRQ(ch)
	t.Disarm(ch)
}
