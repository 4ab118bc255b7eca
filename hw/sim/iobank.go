//go:build !tinygo

package sim

import (
	"errors"
	"sync"

	"rpasync/core"
	"rpasync/hw"
)

// ErrPinRange is returned by IOBank.GetPin for a pin the bank does not have.
var ErrPinRange = errors.New("sim: pin out of range")

// IOBank simulates IO bank 0: pin input levels, latched edge events and the
// per-core enable/status registers. It also serves pin levels as a
// core.GPIODriver.
type IOBank struct {
	mu      sync.Mutex
	numPins int
	level   [hw.MaxPins]bool
	edges   [hw.MaxIntRegs]uint32
	inte    [hw.NumCores][hw.MaxIntRegs]uint32
	readErr [hw.MaxPins]error

	regs hw.IOBank
}

// NewIOBank returns a bank of numPins pins, all low, nothing enabled.
func NewIOBank(numPins int) *IOBank {
	if numPins > hw.MaxPins {
		numPins = hw.MaxPins
	}
	b := &IOBank{numPins: numPins}
	b.regs.NumPins = numPins
	for i := 0; i < hw.MaxIntRegs; i++ {
		reg := i
		b.regs.Intr[reg] = &Func{
			GetFn: func() uint32 {
				b.mu.Lock()
				defer b.mu.Unlock()
				return b.raw(reg)
			},
			SetFn: func(v uint32) {
				b.mu.Lock()
				b.edges[reg] &^= v
				b.mu.Unlock()
			},
		}
		for c := 0; c < hw.NumCores; c++ {
			cpu := c
			b.regs.Inte[cpu][reg] = &Func{
				GetFn: func() uint32 {
					b.mu.Lock()
					defer b.mu.Unlock()
					return b.inte[cpu][reg]
				},
				SetFn: func(v uint32) {
					b.mu.Lock()
					b.inte[cpu][reg] = v
					b.mu.Unlock()
				},
				SetBitsFn: func(v uint32) {
					b.mu.Lock()
					b.inte[cpu][reg] |= v
					b.mu.Unlock()
				},
				ClearBitsFn: func(v uint32) {
					b.mu.Lock()
					b.inte[cpu][reg] &^= v
					b.mu.Unlock()
				},
			}
			b.regs.Ints[cpu][reg] = &Func{
				GetFn: func() uint32 {
					b.mu.Lock()
					defer b.mu.Unlock()
					return b.raw(reg) & b.inte[cpu][reg]
				},
			}
		}
	}
	return b
}

// raw computes INTR: live level bits plus latched edge bits.
func (b *IOBank) raw(reg int) uint32 {
	v := b.edges[reg]
	for k := 0; k < hw.PinsPerReg; k++ {
		pin := reg*hw.PinsPerReg + k
		if pin >= b.numPins {
			break
		}
		shift := uint(k) * 4
		if b.level[pin] {
			v |= uint32(hw.EventLevelHigh) << shift
		} else {
			v |= uint32(hw.EventLevelLow) << shift
		}
	}
	return v
}

// Regs returns the register view used by driver code.
func (b *IOBank) Regs() *hw.IOBank {
	return &b.regs
}

// SetLevel drives pin to the given level, latching an edge event when the
// level changes.
func (b *IOBank) SetLevel(pin int, high bool) {
	if pin < 0 || pin >= b.numPins {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.level[pin] == high {
		return
	}
	b.level[pin] = high
	reg, shift := hw.PinEvent(pin)
	if high {
		b.edges[reg] |= uint32(hw.EventEdgeHigh) << shift
	} else {
		b.edges[reg] |= uint32(hw.EventEdgeLow) << shift
	}
}

// Level returns the current level of pin.
func (b *IOBank) Level(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level[pin]
}

// Enabled returns the enable nibble of pin on core.
func (b *IOBank) Enabled(cpu, pin int) hw.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, shift := hw.PinEvent(pin)
	return hw.Event(b.inte[cpu][reg]>>shift) & hw.EventAll
}

// Latched returns the latched edge events of pin.
func (b *IOBank) Latched(pin int) hw.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	reg, shift := hw.PinEvent(pin)
	return hw.Event(b.edges[reg]>>shift) & hw.EventAll
}

// Pending reports whether any pin asserts the bank interrupt on core.
func (b *IOBank) Pending(cpu int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for reg := 0; reg < b.regs.Regs(); reg++ {
		if b.raw(reg)&b.inte[cpu][reg] != 0 {
			return true
		}
	}
	return false
}

// FailReads makes GetPin return err for pin until cleared with a nil err.
func (b *IOBank) FailReads(pin int, err error) {
	b.mu.Lock()
	b.readErr[pin] = err
	b.mu.Unlock()
}

func (b *IOBank) ConfigureInputPullUp(pin core.GPIOPin) error {
	if int(pin) >= b.numPins {
		return ErrPinRange
	}
	b.mu.Lock()
	b.level[pin] = true
	b.mu.Unlock()
	return nil
}

func (b *IOBank) ConfigureInputPullDown(pin core.GPIOPin) error {
	if int(pin) >= b.numPins {
		return ErrPinRange
	}
	b.mu.Lock()
	b.level[pin] = false
	b.mu.Unlock()
	return nil
}

func (b *IOBank) GetPin(pin core.GPIOPin) (bool, error) {
	if int(pin) >= b.numPins {
		return false, ErrPinRange
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.readErr[pin]; err != nil {
		return false, err
	}
	return b.level[pin], nil
}
