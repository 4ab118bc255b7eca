//go:build !tinygo

// Package sim models the RP2 timer and IO bank interrupt registers in memory
// so the async bridge can be exercised on the host.
package sim

import "sync"

// Plain is a read/write register with atomic set/clear.
type Plain struct {
	mu sync.Mutex
	v  uint32
}

func (r *Plain) Get() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.v
}

func (r *Plain) Set(value uint32) {
	r.mu.Lock()
	r.v = value
	r.mu.Unlock()
}

func (r *Plain) SetBits(mask uint32) {
	r.mu.Lock()
	r.v |= mask
	r.mu.Unlock()
}

func (r *Plain) ClearBits(mask uint32) {
	r.mu.Lock()
	r.v &^= mask
	r.mu.Unlock()
}

// Func is a register whose accesses are forwarded to callbacks. A nil
// callback makes the access a no-op (reads return zero).
type Func struct {
	GetFn       func() uint32
	SetFn       func(uint32)
	SetBitsFn   func(uint32)
	ClearBitsFn func(uint32)
}

func (r *Func) Get() uint32 {
	if r.GetFn == nil {
		return 0
	}
	return r.GetFn()
}

func (r *Func) Set(value uint32) {
	if r.SetFn != nil {
		r.SetFn(value)
	}
}

func (r *Func) SetBits(mask uint32) {
	if r.SetBitsFn != nil {
		r.SetBitsFn(mask)
	}
}

func (r *Func) ClearBits(mask uint32) {
	if r.ClearBitsFn != nil {
		r.ClearBitsFn(mask)
	}
}
