// Package rp2 assembles the async bridge on an RP2040 or RP2350 board: it
// hands the configured timers to the delay and time drivers, gives IO bank 0
// to the pin waiters and routes interrupts to the right handler.
//
// Setup is hardware independent; Init (TinyGo builds only) maps the real
// peripherals, installs the interrupt handlers and calls Setup.
package rp2

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"rpasync/config"
	"rpasync/core"
	"rpasync/delay"
	"rpasync/digital"
	"rpasync/hw"
	"rpasync/timedriver"
)

var (
	ErrChip          = errors.New("rp2: board config is for another chip")
	ErrMissingTimer  = errors.New("rp2: configured timer not present")
	ErrNotConfigured = errors.New("rp2: resource not in board config")
	ErrNoClock       = errors.New("rp2: time driver disabled")
)

type timerRole uint8

const (
	roleNone timerRole = iota
	roleDelay
	roleClock
)

// Board is an assembled bridge.
type Board struct {
	Chip   hw.Chip
	Config *config.BoardConfig
	Timers [hw.MaxTimers]*hw.Timer
	Bank   *hw.IOBank
	GPIO   core.GPIODriver

	// Clock is nil unless time_driver_timer names a timer.
	Clock *timedriver.Driver

	roles      [hw.MaxTimers]timerRole
	delayTimer int
	pins       []int
}

var active atomic.Pointer[Board]

// Setup wires the drivers to the given peripherals according to cfg, which
// must already be validated. timers[i] is timer i; bank and gpio back the
// async pins.
func Setup(cfg *config.BoardConfig, timers [hw.MaxTimers]*hw.Timer, bank *hw.IOBank, gpio core.GPIODriver) (*Board, error) {
	chip, err := cfg.ChipInfo()
	if err != nil {
		return nil, err
	}
	pins, err := cfg.Pins()
	if err != nil {
		return nil, err
	}

	b := &Board{
		Chip:   chip,
		Config: cfg,
		Timers: timers,
		Bank:   bank,
		GPIO:   gpio,
		pins:   pins,
	}
	core.SetGPIODriver(gpio)

	if i, ok := cfg.DelayTimerIndex(); ok {
		if timers[i] == nil {
			return nil, fmt.Errorf("delay timer%d: %w", i, ErrMissingTimer)
		}
		ts := make([]*hw.Timer, i+1)
		ts[i] = timers[i]
		if err := delay.Init(ts...); err != nil {
			return nil, err
		}
		b.roles[i] = roleDelay
		b.delayTimer = i
	}

	if i, ok := cfg.TimeDriverTimerIndex(); ok {
		if timers[i] == nil {
			return nil, fmt.Errorf("time driver timer%d: %w", i, ErrMissingTimer)
		}
		d, err := timedriver.Init(timers[i])
		if err != nil {
			return nil, err
		}
		b.Clock = d
		b.roles[i] = roleClock
	}

	if bank != nil {
		digital.Init(bank)
	}

	active.Store(b)
	core.LogInfo("rp2: " + chip.Name + " ready, " + core.Itoa(len(pins)) + " async pin(s)")
	return b, nil
}

// Active returns the board installed by the last Setup.
func Active() *Board {
	return active.Load()
}

// Alarm returns a delay on one of the configured delay channels.
func (b *Board) Alarm(ch int) (*delay.AsyncAlarm, error) {
	if b.roles[b.delayTimer] != roleDelay || !slices.Contains(b.Config.DelayChannels, ch) {
		return nil, fmt.Errorf("delay channel %d: %w", ch, ErrNotConfigured)
	}
	return delay.NewAsyncAlarm(b.delayTimer, ch)
}

// Input returns an async input on one of the configured pins.
func (b *Board) Input(pin int) (*digital.AsyncInput, error) {
	if !slices.Contains(b.pins, pin) {
		return nil, fmt.Errorf("gpio%d: %w", pin, ErrNotConfigured)
	}
	return digital.NewAsyncInput(b.GPIO, core.GPIOPin(pin))
}

// Queue returns a new timer queue on the time driver.
func (b *Board) Queue() (*timedriver.Queue, error) {
	if b.Clock == nil {
		return nil, ErrNoClock
	}
	return timedriver.NewQueue(b.Clock)
}

// HandleTimerIRQ routes alarm channel ch of timer index timer to its owner.
func HandleTimerIRQ(timer, ch int) {
	b := active.Load()
	if b == nil || timer < 0 || timer >= hw.MaxTimers {
		core.LogError("rp2: timer irq before setup")
		return
	}
	switch b.roles[timer] {
	case roleDelay:
		delay.HandleIRQ(timer, ch)
	case roleClock:
		timedriver.HandleIRQ(ch)
	default:
		core.LogError("rp2: irq from unowned timer" + core.Itoa(timer))
	}
}

// ServicePending runs the handler of every asserting interrupt the board
// owns, as seen from the calling core, and returns how many ran. Boards
// without interrupt delivery, such as host simulations, call it in place of
// the NVIC.
func (b *Board) ServicePending() int {
	n := 0
	for timer, r := range b.roles {
		for ch := 0; ch < hw.AlarmsPerTimer; ch++ {
			switch {
			case r == roleDelay && delay.Pending(timer, ch):
			case r == roleClock && timedriver.Pending(ch):
			default:
				continue
			}
			HandleTimerIRQ(timer, ch)
			n++
		}
	}
	if b.Bank != nil && digital.Pending(core.CurrentCore()) {
		digital.HandleIRQ()
		n++
	}
	return n
}
