//go:build !tinygo

package sim

import (
	"sync"

	"rpasync/hw"
)

// Timer simulates the RP2 microsecond timer and its four alarm channels.
//
// The counter only moves when Advance or SetNow is called. A channel fires
// when an advance carries the low 32 bits of the counter onto its compare
// value: the channel disarms and its raw interrupt bit latches.
type Timer struct {
	mu    sync.Mutex
	now   uint64
	alarm [hw.AlarmsPerTimer]uint32
	armed uint32
	intr  uint32
	inte  uint32
	intf  uint32

	// BeforeLowRead, if set, runs every time TIMERAWL is read, before the
	// value is sampled. Tests use it to move the counter between the two
	// halves of a read.
	BeforeLowRead func()

	regs hw.Timer
}

// NewTimer returns a timer at tick zero with every channel idle.
func NewTimer() *Timer {
	t := &Timer{}
	t.regs = hw.Timer{
		RawH: &Func{GetFn: func() uint32 {
			t.mu.Lock()
			defer t.mu.Unlock()
			return uint32(t.now >> 32)
		}},
		RawL: &Func{GetFn: func() uint32 {
			if hook := t.BeforeLowRead; hook != nil {
				hook()
			}
			t.mu.Lock()
			defer t.mu.Unlock()
			return uint32(t.now)
		}},
		Armed: &Func{
			GetFn: t.locked(func() uint32 { return t.armed }),
			SetFn: func(v uint32) { t.update(func() { t.armed &^= v }) },
		},
		Intr: &Func{
			GetFn: t.locked(func() uint32 { return t.intr }),
			SetFn: func(v uint32) { t.update(func() { t.intr &^= v }) },
		},
		Inte: &Func{
			GetFn:       t.locked(func() uint32 { return t.inte }),
			SetFn:       func(v uint32) { t.update(func() { t.inte = v }) },
			SetBitsFn:   func(v uint32) { t.update(func() { t.inte |= v }) },
			ClearBitsFn: func(v uint32) { t.update(func() { t.inte &^= v }) },
		},
		Intf: &Func{
			GetFn:       t.locked(func() uint32 { return t.intf }),
			SetFn:       func(v uint32) { t.update(func() { t.intf = v }) },
			SetBitsFn:   func(v uint32) { t.update(func() { t.intf |= v }) },
			ClearBitsFn: func(v uint32) { t.update(func() { t.intf &^= v }) },
		},
		Ints: &Func{GetFn: t.locked(func() uint32 { return (t.intr | t.intf) & t.inte })},
	}
	for i := range t.regs.Alarm {
		ch := i
		t.regs.Alarm[ch] = &Func{
			GetFn: t.locked(func() uint32 { return t.alarm[ch] }),
			SetFn: func(v uint32) {
				t.update(func() {
					t.alarm[ch] = v
					t.armed |= hw.AlarmChannels[ch].Mask
				})
			},
		}
	}
	return t
}

func (t *Timer) locked(fn func() uint32) func() uint32 {
	return func() uint32 {
		t.mu.Lock()
		defer t.mu.Unlock()
		return fn()
	}
}

func (t *Timer) update(fn func()) {
	t.mu.Lock()
	fn()
	t.mu.Unlock()
}

// Regs returns the register view used by driver code.
func (t *Timer) Regs() *hw.Timer {
	return &t.regs
}

// Now returns the counter without going through the registers.
func (t *Timer) Now() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// SetNow moves the counter to us without firing any alarm.
func (t *Timer) SetNow(us uint64) {
	t.update(func() { t.now = us })
}

// Advance moves the counter forward by us, firing every armed channel whose
// compare value is passed.
func (t *Timer) Advance(us uint64) {
	if us == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	start := uint32(t.now)
	for _, ch := range hw.AlarmChannels {
		if t.armed&ch.Mask == 0 {
			continue
		}
		// distance from the tick after start to the compare value
		dist := uint64(t.alarm[ch.ID] - (start + 1))
		if dist < us {
			t.armed &^= ch.Mask
			t.intr |= ch.Mask
		}
	}
	t.now += us
}

// Pending returns the channel mask currently asserting an interrupt.
func (t *Timer) Pending() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return (t.intr | t.intf) & t.inte
}

// TimerState is a snapshot of the channel registers.
type TimerState struct {
	Alarm [hw.AlarmsPerTimer]uint32
	Armed uint32
	Intr  uint32
	Inte  uint32
	Intf  uint32
}

// State returns a snapshot of the channel registers.
func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerState{
		Alarm: t.alarm,
		Armed: t.armed,
		Intr:  t.intr,
		Inte:  t.inte,
		Intf:  t.intf,
	}
}
