//go:build tinygo

package hw

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is a memory-mapped register at a fixed peripheral address.
type MMIO uintptr

func (r MMIO) reg(alias uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(r) + alias))
}

func (r MMIO) Get() uint32 { return r.reg(0).Get() }

func (r MMIO) Set(value uint32) { r.reg(0).Set(value) }

// SetBits writes mask through the atomic set alias.
func (r MMIO) SetBits(mask uint32) { r.reg(AliasSet).Set(mask) }

// ClearBits writes mask through the atomic clear alias.
func (r MMIO) ClearBits(mask uint32) { r.reg(AliasClear).Set(mask) }

// MMIOAt returns the register at base+offset.
func MMIOAt(base, offset uintptr) MMIO {
	return MMIO(base + offset)
}
