// Package hw describes the few RP2040/RP2350 peripheral registers the async
// bridge touches: the microsecond timer with its four alarm channels and the
// IO bank interrupt registers.
//
// Registers are accessed through the Register interface so the same driver
// code runs against memory-mapped hardware (TinyGo builds) and against the
// simulated peripherals in package hw/sim (host builds and tests).
package hw

// Register is a 32-bit peripheral register.
//
// SetBits and ClearBits are single-write atomic operations. On RP2 parts they
// map to the atomic set and clear aliases every APB/AHB peripheral exposes at
// +0x2000 and +0x3000 from the register address, so concurrent
// read-modify-write from the other core or an ISR cannot lose bits.
type Register interface {
	Get() uint32
	Set(value uint32)
	SetBits(mask uint32)
	ClearBits(mask uint32)
}

// Atomic register alias offsets on RP2 peripherals.
const (
	AliasXor   = 0x1000
	AliasSet   = 0x2000
	AliasClear = 0x3000
)

// HasBits reports whether every bit of mask is set in r.
func HasBits(r Register, mask uint32) bool {
	return r.Get()&mask == mask
}
