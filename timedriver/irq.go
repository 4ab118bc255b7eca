package timedriver

import (
	"sync/atomic"

	"rpasync/core"
	"rpasync/hw"
)

var driver atomic.Pointer[Driver]

// Init creates the process-wide driver on t and enables the interrupt of
// all four channels. Interrupts only assert once a channel fires, so
// enabling them up front is safe. Unmasking the timer lines at the
// interrupt controller is left to board code.
func Init(t *hw.Timer) (*Driver, error) {
	d, err := New(t)
	if err != nil {
		return nil, err
	}
	for ch := range hw.AlarmChannels {
		t.Disarm(ch)
		t.Ack(ch)
		t.EnableIRQ(ch)
	}
	driver.Store(d)
	core.LogDebug("timedriver: ready")
	return d, nil
}

// Default returns the driver installed by Init, or nil.
func Default() *Driver {
	return driver.Load()
}

// HandleIRQ is the interrupt handler for channel n of the time driver's
// timer.
func HandleIRQ(n int) {
	d := driver.Load()
	if d == nil {
		core.LogError("timedriver: irq before init")
		return
	}
	d.CheckAlarm(n)
}

// Pending reports whether channel n of the time driver's timer asserts its
// interrupt.
func Pending(n int) bool {
	d := driver.Load()
	return d != nil && d.timer.Pending(n)
}
