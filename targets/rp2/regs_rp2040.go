//go:build tinygo && rp2040

package rp2

import (
	"runtime/interrupt"

	"rpasync/digital"
	"rpasync/hw"
)

var chip = hw.RP2040

var timerBases = [...]uintptr{0x40054000}

// TIMER register offsets.
const (
	timerAlarm0 uintptr = 0x10
	timerArmed  uintptr = 0x20
	timerRawH   uintptr = 0x24
	timerRawL   uintptr = 0x28
	timerIntr   uintptr = 0x34
	timerInte   uintptr = 0x38
	timerIntf   uintptr = 0x3c
	timerInts   uintptr = 0x40
)

// IO_BANK0 interrupt registers. Each core's INTE/INTF/INTS block is
// ioProcStride apart.
const (
	ioBank0Base  uintptr = 0x40014000
	ioIntr0      uintptr = 0x0f0
	ioProc0Inte0 uintptr = 0x100
	ioProc0Ints0 uintptr = 0x120
	ioProcStride uintptr = 0x030
)

// installIRQs registers every handler the bridge may need. interrupt.New
// takes constant arguments, so each line is spelled out; TIMER_IRQ_0
// belongs to the runtime's sleep timer.
func installIRQs() (timers [hw.MaxTimers][hw.AlarmsPerTimer]interrupt.Interrupt, bank interrupt.Interrupt) {
	timers[0][1] = interrupt.New(1, func(interrupt.Interrupt) { HandleTimerIRQ(0, 1) })
	timers[0][2] = interrupt.New(2, func(interrupt.Interrupt) { HandleTimerIRQ(0, 2) })
	timers[0][3] = interrupt.New(3, func(interrupt.Interrupt) { HandleTimerIRQ(0, 3) })
	bank = interrupt.New(13, func(interrupt.Interrupt) { digital.HandleIRQ() })
	return timers, bank
}
