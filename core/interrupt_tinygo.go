//go:build tinygo

package core

import (
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// State is the saved interrupt state returned by EnterCritical.
type State = interrupt.State

// SIO block: CPUID and the hardware spinlocks sit at the same offsets on
// RP2040 and RP2350.
const (
	sioBase          uintptr = 0xd0000000
	sioCPUIDOffset   uintptr = 0x000
	sioSpinlock0     uintptr = 0x100
	criticalSpinlock uintptr = 30
)

var (
	cpuid    = (*volatile.Register32)(unsafe.Pointer(sioBase + sioCPUIDOffset))
	spinlock = (*volatile.Register32)(unsafe.Pointer(sioBase + sioSpinlock0 + criticalSpinlock*4))
)

// EnterCritical disables interrupts on the executing core and claims the
// hardware spinlock reserved for this package, so the section also excludes
// the other core. Critical sections do not nest.
func EnterCritical() State {
	state := interrupt.Disable()
	// reading a spinlock claims it and returns non-zero on success
	for spinlock.Get() == 0 {
	}
	return state
}

// ExitCritical releases the spinlock and restores the interrupt state.
func ExitCritical(state State) {
	spinlock.Set(0)
	interrupt.Restore(state)
}

// CurrentCore returns the index of the executing core from SIO CPUID.
func CurrentCore() int {
	return int(cpuid.Get())
}
