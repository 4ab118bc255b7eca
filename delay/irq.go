package delay

import (
	"fmt"
	"sync/atomic"

	"rpasync/core"
	"rpasync/hw"
)

const owner = "delay"

var (
	timers [hw.MaxTimers]*hw.Timer

	// one resource per (timer, channel)
	wakers = core.NewWakerRegistry(owner, hw.MaxTimers*hw.AlarmsPerTimer)

	// the delay occupying each channel
	inFlight [hw.MaxTimers * hw.AlarmsPerTimer]atomic.Pointer[core.Completion]
)

func resourceOf(timer, ch int) int {
	return timer*hw.AlarmsPerTimer + ch
}

func timerAt(i int) *hw.Timer {
	if i < 0 || i >= len(timers) {
		return nil
	}
	state := core.EnterCritical()
	t := timers[i]
	core.ExitCritical(state)
	return t
}

// Init installs the timers whose alarm channels back delays; ts[i] is timer
// i, and a nil entry leaves that timer unused. A timer already claimed by
// another owner is refused with core.ErrTimerReserved. Any waker or
// in-flight claim left from a previous Init is dropped. Channel interrupt enables are left alone: a
// channel is only touched once a delay is armed on it.
func Init(ts ...*hw.Timer) error {
	if len(ts) > hw.MaxTimers {
		return fmt.Errorf("delay: %d timers, at most %d", len(ts), hw.MaxTimers)
	}
	for i, t := range ts {
		if t == nil {
			continue
		}
		if err := core.ClaimTimer(t, owner); err != nil {
			return fmt.Errorf("delay: timer %d: %w", i, err)
		}
	}

	state := core.EnterCritical()
	timers = [hw.MaxTimers]*hw.Timer{}
	copy(timers[:], ts)
	core.ExitCritical(state)

	wakers.Reset()
	for i := range inFlight {
		inFlight[i].Store(nil)
	}
	for i, t := range ts {
		if t != nil {
			core.LogDebug("delay: timer " + core.Itoa(i) + " ready")
		}
	}
	return nil
}

// HandleIRQ services alarm channel ch of timer index timer. It is installed
// as the channel's interrupt handler: it disables the channel's interrupt so
// the line stops asserting, wakes the waiting task and acknowledges the
// interrupt. The poll that follows completes the delay.
func HandleIRQ(timer, ch int) {
	t := timerAt(timer)
	if t == nil || ch < 0 || ch >= hw.AlarmsPerTimer {
		core.LogError("delay: irq for unknown alarm " + core.Itoa(timer) + "/" + core.Itoa(ch))
		return
	}
	cpu := core.CurrentCore()
	if !hw.ValidCore(cpu) {
		core.LogError("delay: irq on invalid core " + core.Itoa(cpu))
		return
	}
	t.DisableIRQ(ch)

	// The timer interrupt is not banked per core. The waiter registered on
	// whichever core polled it, so both slots are woken; at most one is
	// occupied since each channel has a single in-flight delay.
	res := resourceOf(timer, ch)
	wakers.Wake(cpu, res)
	for c := 0; c < hw.NumCores; c++ {
		if c != cpu {
			wakers.Wake(c, res)
		}
	}

	t.Ack(ch)
}

// Pending reports whether alarm channel ch of timer index timer is asserting
// its interrupt. Cooperative hosts call it to dispatch HandleIRQ.
func Pending(timer, ch int) bool {
	t := timerAt(timer)
	return t != nil && t.Pending(ch)
}
