//go:build tinygo && (rp2040 || rp2350)

package rp2

import (
	"fmt"
	"runtime/interrupt"

	"rpasync/config"
	"rpasync/core"
	"rpasync/hw"
	"rpasync/protocol"
)

var (
	timerIRQs [hw.MaxTimers][hw.AlarmsPerTimer]interrupt.Interrupt
	bankIRQ   interrupt.Interrupt
)

// ChipName returns the chip this build targets, as used in board configs.
func ChipName() string {
	return chip.Name
}

func newTimer(base uintptr) *hw.Timer {
	t := &hw.Timer{
		RawH:  hw.MMIOAt(base, timerRawH),
		RawL:  hw.MMIOAt(base, timerRawL),
		Armed: hw.MMIOAt(base, timerArmed),
		Intr:  hw.MMIOAt(base, timerIntr),
		Inte:  hw.MMIOAt(base, timerInte),
		Intf:  hw.MMIOAt(base, timerIntf),
		Ints:  hw.MMIOAt(base, timerInts),
	}
	for ch := range t.Alarm {
		t.Alarm[ch] = hw.MMIOAt(base, timerAlarm0+uintptr(ch)*4)
	}
	return t
}

func newIOBank() *hw.IOBank {
	b := &hw.IOBank{NumPins: chip.NumPins}
	for reg := 0; reg < b.Regs(); reg++ {
		off := uintptr(reg) * 4
		b.Intr[reg] = hw.MMIOAt(ioBank0Base, ioIntr0+off)
		for cpu := 0; cpu < hw.NumCores; cpu++ {
			proc := uintptr(cpu)*ioProcStride + off
			b.Inte[cpu][reg] = hw.MMIOAt(ioBank0Base, ioProc0Inte0+proc)
			b.Ints[cpu][reg] = hw.MMIOAt(ioBank0Base, ioProc0Ints0+proc)
		}
	}
	return b
}

// Init brings up the bridge on this chip. A nil cfg selects the chip
// defaults. Diagnostics go to UART0 as framed records at cfg.LogBaud. Interrupts are unmasked on the calling core; a program that
// waits from core 1 calls EnableCoreIRQs there as well.
func Init(cfg *config.BoardConfig) (*Board, error) {
	if cfg == nil {
		cfg = config.DefaultBoardConfig(chip.Name)
	}
	if cfg.Chip != chip.Name {
		return nil, fmt.Errorf("%s: %w", cfg.Chip, ErrChip)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var timers [hw.MaxTimers]*hw.Timer
	for i := range timerBases {
		timers[i] = newTimer(timerBases[i])
	}

	uart, err := openLogUART(cfg.LogBaud)
	if err != nil {
		return nil, err
	}
	core.SetLogWriter(protocol.NewUARTLogWriter(uart))
	core.SetLogLevel(cfg.Level())
	core.SetLogClock(timers[0].Now)
	core.InitAsyncLog()

	gpio := NewPinDriver(chip.NumPins)
	pins, _ := cfg.Pins()
	for _, pin := range pins {
		if err := gpio.ConfigureInput(core.GPIOPin(pin)); err != nil {
			return nil, err
		}
	}

	b, err := Setup(cfg, timers, newIOBank(), gpio)
	if err != nil {
		return nil, err
	}

	timerIRQs, bankIRQ = installIRQs()
	b.EnableCoreIRQs()
	return b, nil
}

// EnableCoreIRQs unmasks, on the calling core, every interrupt line the
// board's drivers use.
func (b *Board) EnableCoreIRQs() {
	if i, ok := b.Config.DelayTimerIndex(); ok {
		for _, ch := range b.Config.DelayChannels {
			timerIRQs[i][ch].Enable()
		}
	}
	if i, ok := b.Config.TimeDriverTimerIndex(); ok {
		for ch := range hw.AlarmChannels {
			timerIRQs[i][ch].Enable()
		}
	}
	if len(b.pins) > 0 {
		bankIRQ.Enable()
	}
}
