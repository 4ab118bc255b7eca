// Package timedriver is the clock and alarm backend for a cooperative
// scheduler: a monotonic microsecond clock and a pool of four one-shot
// alarms on one hardware timer.
package timedriver

import (
	"errors"
	"math"
	"sync/atomic"

	"rpasync/core"
	"rpasync/hw"
)

// AlarmCount is the size of the alarm pool.
const AlarmCount = hw.AlarmsPerTimer

// disarmed is the deadline of an alarm that must not fire.
const disarmed = math.MaxUint64

const owner = "timedriver"

// ErrNoAlarm is returned by constructors that need an alarm after the pool
// is exhausted.
var ErrNoAlarm = errors.New("timedriver: no alarm available")

// AlarmHandle names an allocated alarm channel.
type AlarmHandle struct {
	id uint8
}

// ID returns the hardware channel behind the handle.
func (h AlarmHandle) ID() int {
	return int(h.id)
}

// Clock is what a scheduler needs from its time source.
type Clock interface {
	Now() uint64
	AllocateAlarm() (AlarmHandle, bool)
	SetAlarmCallback(h AlarmHandle, callback func(any), ctx any)
	SetAlarm(h AlarmHandle, deadline uint64) bool
}

type alarmSlot struct {
	deadline uint64
	callback func(any)
	ctx      any
}

// Driver implements Clock on one timer. Alarms are handed out once and
// never returned to the pool.
type Driver struct {
	timer     *hw.Timer
	allocated atomic.Uint32
	alarms    [AlarmCount]alarmSlot
}

var _ Clock = (*Driver)(nil)

// New returns a driver for t with every alarm disarmed. The timer is
// claimed so delay.Init cannot use it as well.
func New(t *hw.Timer) (*Driver, error) {
	if err := core.ClaimTimer(t, owner); err != nil {
		return nil, err
	}
	d := &Driver{timer: t}
	for i := range d.alarms {
		d.alarms[i].deadline = disarmed
	}
	return d, nil
}

// Now returns microseconds since boot.
func (d *Driver) Now() uint64 {
	return d.timer.Now()
}

// AllocateAlarm hands out the next unused alarm, or false once all four are
// taken.
func (d *Driver) AllocateAlarm() (AlarmHandle, bool) {
	for {
		n := d.allocated.Load()
		if n >= AlarmCount {
			core.LogWarn("timedriver: alarm pool exhausted")
			return AlarmHandle{}, false
		}
		if d.allocated.CompareAndSwap(n, n+1) {
			return AlarmHandle{id: uint8(n)}, true
		}
	}
}

func (d *Driver) allocatedHandle(h AlarmHandle) bool {
	if uint32(h.id) >= d.allocated.Load() {
		core.LogError("timedriver: alarm " + core.Itoa(int(h.id)) + " not allocated")
		return false
	}
	return true
}

// SetAlarmCallback sets the function called with ctx when alarm h fires.
// Nothing fires until SetAlarm gives the alarm a deadline.
func (d *Driver) SetAlarmCallback(h AlarmHandle, callback func(any), ctx any) {
	if !d.allocatedHandle(h) {
		return
	}
	state := core.EnterCritical()
	d.alarms[h.id].callback = callback
	d.alarms[h.id].ctx = ctx
	core.ExitCritical(state)
}

// SetAlarm arms alarm h for deadline. It returns false, leaving the alarm
// disarmed, if the deadline had already passed once the compare register
// was written; the caller must then treat the alarm as due.
func (d *Driver) SetAlarm(h AlarmHandle, deadline uint64) bool {
	if !d.allocatedHandle(h) {
		return false
	}
	n := int(h.id)

	state := core.EnterCritical()
	defer core.ExitCritical(state)

	a := &d.alarms[n]
	a.deadline = deadline
	d.timer.Schedule(n, uint32(deadline))

	if d.timer.Now() >= deadline {
		d.timer.Disarm(n)
		a.deadline = disarmed
		return false
	}
	return true
}

// CheckAlarm services the interrupt of channel n. An elapsed alarm is
// disarmed and its callback run after the critical section is left, so the
// callback may call SetAlarm. A compare match on the low word ahead of the
// full 64-bit deadline re-arms the channel. The interrupt is acknowledged
// in every case.
func (d *Driver) CheckAlarm(n int) {
	if n < 0 || n >= AlarmCount {
		core.LogError("timedriver: irq for invalid alarm " + core.Itoa(n))
		return
	}

	var (
		callback func(any)
		ctx      any
	)

	state := core.EnterCritical()
	d.timer.Ack(n)
	a := &d.alarms[n]
	if a.deadline != disarmed {
		if a.deadline <= d.timer.Now() {
			d.timer.Disarm(n)
			a.deadline = disarmed
			callback, ctx = a.callback, a.ctx
		} else {
			d.timer.Schedule(n, uint32(a.deadline))
		}
	}
	core.ExitCritical(state)

	if callback != nil {
		callback(ctx)
	}
}

// Deadline returns the deadline alarm h is armed for, or false if it is
// disarmed.
func (d *Driver) Deadline(h AlarmHandle) (uint64, bool) {
	if int(h.id) >= AlarmCount {
		return 0, false
	}
	state := core.EnterCritical()
	dl := d.alarms[h.id].deadline
	core.ExitCritical(state)
	return dl, dl != disarmed
}
