package digital

import (
	"sync/atomic"

	"rpasync/core"
	"rpasync/hw"
)

var (
	bank   *hw.IOBank
	wakers = core.NewWakerRegistry("digital", hw.MaxPins)

	// the wait holding each (core, pin) slot
	claims [hw.NumCores][hw.MaxPins]atomic.Pointer[pinWait]
)

func currentBank() *hw.IOBank {
	state := core.EnterCritical()
	b := bank
	core.ExitCritical(state)
	return b
}

// Init installs the IO bank serviced by HandleIRQ. Every pin event is
// disabled on both cores, latched edges are cleared and stale wakers and
// claims are dropped.
func Init(b *hw.IOBank) {
	state := core.EnterCritical()
	bank = b
	core.ExitCritical(state)

	wakers.Reset()
	for cpu := range claims {
		for pin := range claims[cpu] {
			claims[cpu][pin].Store(nil)
		}
	}
	for pin := 0; pin < b.NumPins; pin++ {
		for cpu := 0; cpu < hw.NumCores; cpu++ {
			b.DisableEvents(cpu, pin, hw.EventAll)
		}
		b.AckEvents(pin, hw.EventAll)
	}
	core.LogDebug("digital: io bank ready, " + core.Itoa(b.NumPins) + " pins")
}

// HandleIRQ services the IO bank interrupt on the executing core. For each
// pin with a pending event it disables all four of the pin's events on this
// core, clears its latched edges that the other core is not also waiting
// on, and wakes the waiter registered for it.
func HandleIRQ() {
	b := currentBank()
	if b == nil {
		core.LogError("digital: irq before init")
		return
	}
	cpu := core.CurrentCore()
	if !hw.ValidCore(cpu) {
		core.LogError("digital: irq on invalid core " + core.Itoa(cpu))
		return
	}

	for reg := 0; reg < b.Regs(); reg++ {
		status := b.Status(cpu, reg)
		if status == 0 {
			continue
		}
		for i := 0; i < hw.PinsPerReg; i++ {
			if hw.Event(status>>(uint(i)*4))&hw.EventAll == 0 {
				continue
			}
			pin := reg*hw.PinsPerReg + i
			b.DisableEvents(cpu, pin, hw.EventAll)
			ackUnshared(b, cpu, pin, hw.EventAll)
			wakers.Wake(cpu, pin)
		}
	}
}

// Pending reports whether the bank interrupt is asserted on core cpu.
// Cooperative hosts call it to dispatch HandleIRQ.
func Pending(cpu int) bool {
	b := currentBank()
	if b == nil {
		return false
	}
	for reg := 0; reg < b.Regs(); reg++ {
		if b.Status(cpu, reg) != 0 {
			return true
		}
	}
	return false
}
