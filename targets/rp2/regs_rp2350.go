//go:build tinygo && rp2350

package rp2

import (
	"runtime/interrupt"

	"rpasync/digital"
	"rpasync/hw"
)

var chip = hw.RP2350

var timerBases = [...]uintptr{0x400b0000, 0x400b8000}

// TIMER register offsets. LOCKED and SOURCE push the interrupt block down
// by eight bytes compared to RP2040.
const (
	timerAlarm0 uintptr = 0x10
	timerArmed  uintptr = 0x20
	timerRawH   uintptr = 0x24
	timerRawL   uintptr = 0x28
	timerIntr   uintptr = 0x3c
	timerInte   uintptr = 0x40
	timerIntf   uintptr = 0x44
	timerInts   uintptr = 0x48
)

// IO_BANK0 interrupt registers, six words per block for 48 pins.
const (
	ioBank0Base  uintptr = 0x40028000
	ioIntr0      uintptr = 0x230
	ioProc0Inte0 uintptr = 0x248
	ioProc0Ints0 uintptr = 0x278
	ioProcStride uintptr = 0x048
)

// installIRQs registers every handler the bridge may need. TIMER0_IRQ_0
// belongs to the runtime's sleep timer.
func installIRQs() (timers [hw.MaxTimers][hw.AlarmsPerTimer]interrupt.Interrupt, bank interrupt.Interrupt) {
	timers[0][1] = interrupt.New(1, func(interrupt.Interrupt) { HandleTimerIRQ(0, 1) })
	timers[0][2] = interrupt.New(2, func(interrupt.Interrupt) { HandleTimerIRQ(0, 2) })
	timers[0][3] = interrupt.New(3, func(interrupt.Interrupt) { HandleTimerIRQ(0, 3) })
	timers[1][0] = interrupt.New(4, func(interrupt.Interrupt) { HandleTimerIRQ(1, 0) })
	timers[1][1] = interrupt.New(5, func(interrupt.Interrupt) { HandleTimerIRQ(1, 1) })
	timers[1][2] = interrupt.New(6, func(interrupt.Interrupt) { HandleTimerIRQ(1, 2) })
	timers[1][3] = interrupt.New(7, func(interrupt.Interrupt) { HandleTimerIRQ(1, 3) })
	bank = interrupt.New(21, func(interrupt.Interrupt) { digital.HandleIRQ() })
	return timers, bank
}
