package core

import (
	"testing"

	"rpasync/hw"
)

func TestRegistryWakeEmptiesSlot(t *testing.T) {
	r := NewWakerRegistry("test", 3)
	n := 0
	r.Register(1, 2, WakerFunc(func() { n++ }))

	r.Wake(0, 2)
	if n != 0 {
		t.Fatal("wake on core 0 reached core 1's waiter")
	}
	r.Wake(1, 2)
	r.Wake(1, 2)
	if n != 1 {
		t.Fatalf("woken %d times, want 1", n)
	}
	if r.Registered(1, 2) {
		t.Error("slot still occupied after wake")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewWakerRegistry("test", 1)
	var first, second int
	r.Register(0, 0, WakerFunc(func() { first++ }))
	r.Register(0, 0, WakerFunc(func() { second++ }))
	r.Wake(0, 0)
	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d", first, second)
	}
}

func TestRegistryRefresh(t *testing.T) {
	r := NewWakerRegistry("test", 1)
	if r.Refresh(0, 0, NewSignal()) {
		t.Fatal("refresh filled an empty slot")
	}
	r.Register(0, 0, NewSignal())
	s := NewSignal()
	if !r.Refresh(0, 0, s) {
		t.Fatal("refresh of occupied slot failed")
	}
	r.Wake(0, 0)
	select {
	case <-s.C():
	default:
		t.Fatal("refreshed waker not woken")
	}
	if r.Refresh(0, 0, s) {
		t.Error("refresh after wake reported occupied")
	}
}

func TestRegistryBounds(t *testing.T) {
	r := NewWakerRegistry("test", 2)
	ResetLogCounts()

	r.Register(hw.NumCores, 0, NewSignal())
	r.Register(0, 2, NewSignal())
	r.Wake(-1, 0)
	if r.Registered(0, 2) {
		t.Error("out-of-range resource registered")
	}
	if LogCount(LevelError) < 3 {
		t.Errorf("bad indexes logged %d errors", LogCount(LevelError))
	}
}

func TestRegistryClearAndReset(t *testing.T) {
	r := NewWakerRegistry("test", 2)
	woken := false
	r.Register(0, 1, WakerFunc(func() { woken = true }))
	r.Clear(0, 1)
	r.Wake(0, 1)
	if woken {
		t.Fatal("cleared waker was woken")
	}

	r.Register(0, 0, NewSignal())
	r.Register(1, 1, NewSignal())
	r.Reset()
	if r.Registered(0, 0) || r.Registered(1, 1) {
		t.Error("Reset left slots occupied")
	}
}

func TestSignalCoalesces(t *testing.T) {
	s := NewSignal()
	s.Wake()
	s.Wake()
	<-s.C()
	select {
	case <-s.C():
		t.Fatal("two wakes delivered twice")
	default:
	}
}
