package hw

// NumCores is the number of processor cores on RP2 parts.
const NumCores = 2

// MaxPins is the largest GPIO count handled by IO bank 0 (RP2350B).
const MaxPins = 48

// PinsPerReg is the number of pins whose event nibbles share one
// INTR/INTE/INTS word.
const PinsPerReg = 8

// MaxIntRegs is the number of interrupt words needed for MaxPins.
const MaxIntRegs = MaxPins / PinsPerReg

// Event is a pin's 4-bit interrupt event nibble.
type Event uint32

// Event nibble bit order, fixed by the IO bank hardware.
const (
	EventLevelLow  Event = 1 << 0
	EventLevelHigh Event = 1 << 1
	EventEdgeLow   Event = 1 << 2
	EventEdgeHigh  Event = 1 << 3

	EventEdges Event = EventEdgeLow | EventEdgeHigh
	EventAll   Event = 0xf
)

// PinEvent locates the event nibble of pin in the interrupt words.
func PinEvent(pin int) (reg int, shift uint) {
	return pin / PinsPerReg, uint(pin%PinsPerReg) * 4
}

// IOBank holds the IO bank 0 interrupt registers.
//
// INTR is the raw status shared by both cores; its edge bits latch and are
// write-one-to-clear. INTE and INTS are replicated per core (PROC0_INTEn,
// PROC1_INTEn, ...), so each core arms and observes its own events.
type IOBank struct {
	NumPins int
	Intr    [MaxIntRegs]Register
	Inte    [NumCores][MaxIntRegs]Register
	Ints    [NumCores][MaxIntRegs]Register
}

// Regs returns the number of interrupt words in use.
func (b *IOBank) Regs() int {
	return (b.NumPins + PinsPerReg - 1) / PinsPerReg
}

// ValidPin reports whether pin exists on this bank.
func (b *IOBank) ValidPin(pin int) bool {
	return pin >= 0 && pin < b.NumPins
}

// ValidCore reports whether core indexes a processor.
func ValidCore(core int) bool {
	return core >= 0 && core < NumCores
}

// EnableEvents sets the enable bits ev for pin on core.
func (b *IOBank) EnableEvents(core, pin int, ev Event) {
	if !ValidCore(core) || !b.ValidPin(pin) {
		return
	}
	reg, shift := PinEvent(pin)
	b.Inte[core][reg].SetBits(uint32(ev&EventAll) << shift)
}

// DisableEvents clears the enable bits ev for pin on core.
func (b *IOBank) DisableEvents(core, pin int, ev Event) {
	if !ValidCore(core) || !b.ValidPin(pin) {
		return
	}
	reg, shift := PinEvent(pin)
	b.Inte[core][reg].ClearBits(uint32(ev&EventAll) << shift)
}

// EnabledEvents returns the enable nibble of pin on core.
func (b *IOBank) EnabledEvents(core, pin int) Event {
	if !ValidCore(core) || !b.ValidPin(pin) {
		return 0
	}
	reg, shift := PinEvent(pin)
	return Event(b.Inte[core][reg].Get()>>shift) & EventAll
}

// AckEvents clears the latched events ev of pin. Level bits are not latched
// and ignore the write.
func (b *IOBank) AckEvents(pin int, ev Event) {
	if !b.ValidPin(pin) {
		return
	}
	reg, shift := PinEvent(pin)
	b.Intr[reg].Set(uint32(ev&EventAll) << shift)
}

// Status returns interrupt status word reg as seen by core.
func (b *IOBank) Status(core, reg int) uint32 {
	if !ValidCore(core) || reg < 0 || reg >= b.Regs() {
		return 0
	}
	return b.Ints[core][reg].Get()
}
