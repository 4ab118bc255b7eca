package hw

// MaxTimers is the largest number of timer peripherals on an RP2 part.
const MaxTimers = 2

// Chip describes the resources of one RP2 variant.
type Chip struct {
	Name      string
	NumPins   int
	NumTimers int
}

var (
	RP2040 = Chip{Name: "rp2040", NumPins: 30, NumTimers: 1}
	RP2350 = Chip{Name: "rp2350", NumPins: 48, NumTimers: 2}
)

// ChipByName returns the chip descriptor for name.
func ChipByName(name string) (Chip, bool) {
	switch name {
	case RP2040.Name:
		return RP2040, true
	case RP2350.Name:
		return RP2350, true
	}
	return Chip{}, false
}
