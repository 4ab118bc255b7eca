package timedriver

import (
	"errors"
	"testing"

	"rpasync/core"
	"rpasync/hw/sim"
)

func newDriver(t *testing.T) (*sim.Timer, *Driver) {
	t.Helper()
	st := sim.NewTimer()
	d, err := Init(st.Regs())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return st, d
}

func TestNowMonotonicAcrossWrap(t *testing.T) {
	st, d := newDriver(t)
	st.SetNow(0xFFFF_FFF0)

	// every low-word read moves the counter on, so the low word wraps
	// between the two high-word samples of some read
	st.BeforeLowRead = func() { st.SetNow(st.Now() + 7) }
	defer func() { st.BeforeLowRead = nil }()

	last := d.Now()
	for i := 0; i < 10; i++ {
		now := d.Now()
		if now < last {
			t.Fatalf("Now went backwards: %#x after %#x", now, last)
		}
		last = now
	}
	if last < 1<<32 {
		t.Fatalf("counter never crossed the wrap: %#x", last)
	}
}

func TestAllocateAlarmSaturates(t *testing.T) {
	_, d := newDriver(t)
	core.ResetLogCounts()

	seen := map[int]bool{}
	for i := 0; i < AlarmCount; i++ {
		h, ok := d.AllocateAlarm()
		if !ok {
			t.Fatalf("allocation %d failed", i)
		}
		if seen[h.ID()] {
			t.Fatalf("handle %d issued twice", h.ID())
		}
		seen[h.ID()] = true
	}
	if _, ok := d.AllocateAlarm(); ok {
		t.Fatal("fifth allocation succeeded")
	}
	if core.LogCount(core.LevelWarn) == 0 {
		t.Error("exhaustion not logged")
	}
}

func TestSetAlarmPastDeadline(t *testing.T) {
	st, d := newDriver(t)
	h, _ := d.AllocateAlarm()
	called := false
	d.SetAlarmCallback(h, func(any) { called = true }, nil)

	st.SetNow(1000)
	for _, dl := range []uint64{0, 999, 1000} {
		if d.SetAlarm(h, dl) {
			t.Errorf("SetAlarm(%d) at now=1000 returned true", dl)
		}
		if st.State().Armed&(1<<h.ID()) != 0 {
			t.Errorf("SetAlarm(%d) left the channel armed", dl)
		}
		if _, armed := d.Deadline(h); armed {
			t.Errorf("SetAlarm(%d) left a deadline", dl)
		}
	}
	st.Advance(1 << 20)
	if st.Pending() != 0 {
		t.Error("elapsed alarm raised an interrupt")
	}
	HandleIRQ(h.ID())
	if called {
		t.Error("callback ran for an alarm that was never armed")
	}
}

func TestSetAlarmFiresCallback(t *testing.T) {
	st, d := newDriver(t)
	d.AllocateAlarm()
	h, _ := d.AllocateAlarm()

	var got any
	calls := 0
	d.SetAlarmCallback(h, func(ctx any) { calls++; got = ctx }, "tick")

	if !d.SetAlarm(h, 500) {
		t.Fatal("SetAlarm(500) at now=0 returned false")
	}
	st.Advance(499)
	if Pending(h.ID()) {
		t.Fatal("alarm fired early")
	}
	st.Advance(1)
	if !Pending(h.ID()) {
		t.Fatal("alarm did not fire at deadline")
	}
	HandleIRQ(h.ID())

	if calls != 1 || got != "tick" {
		t.Fatalf("callback calls=%d ctx=%v", calls, got)
	}
	if st.Pending() != 0 {
		t.Error("interrupt not acknowledged")
	}
	if _, armed := d.Deadline(h); armed {
		t.Error("deadline not reset after firing")
	}

	// the driver never re-arms on its own
	st.Advance(1 << 33)
	HandleIRQ(h.ID())
	if calls != 1 {
		t.Errorf("callback ran %d times", calls)
	}
}

func TestCallbackMayRearm(t *testing.T) {
	st, d := newDriver(t)
	h, _ := d.AllocateAlarm()

	fired := 0
	d.SetAlarmCallback(h, func(any) {
		fired++
		if fired < 3 {
			d.SetAlarm(h, d.Now()+100)
		}
	}, nil)
	d.SetAlarm(h, 100)

	for i := 0; i < 5; i++ {
		st.Advance(100)
		if Pending(h.ID()) {
			HandleIRQ(h.ID())
		}
	}
	if fired != 3 {
		t.Fatalf("fired %d times, want 3", fired)
	}
}

func TestSpuriousIRQ(t *testing.T) {
	st, d := newDriver(t)
	h, _ := d.AllocateAlarm()
	called := false
	d.SetAlarmCallback(h, func(any) { called = true }, nil)
	d.SetAlarm(h, 1000)

	regs := st.Regs()
	regs.ForceIRQ(h.ID())
	HandleIRQ(h.ID())

	if called {
		t.Error("callback ran before its deadline")
	}
	if st.Pending() != 0 {
		t.Error("spurious interrupt not acknowledged")
	}
	if dl, armed := d.Deadline(h); !armed || dl != 1000 {
		t.Errorf("deadline = %d, %v", dl, armed)
	}
}

func TestHighWordDeadline(t *testing.T) {
	st, d := newDriver(t)
	h, _ := d.AllocateAlarm()
	called := false
	d.SetAlarmCallback(h, func(any) { called = true }, nil)

	deadline := uint64(1)<<32 + 50
	if !d.SetAlarm(h, deadline) {
		t.Fatal("SetAlarm returned false")
	}

	// low word matches 2^32 us early
	st.Advance(50)
	if !Pending(h.ID()) {
		t.Fatal("low-word match did not fire")
	}
	HandleIRQ(h.ID())
	if called {
		t.Fatal("callback ran a full wrap early")
	}
	if st.State().Armed&(1<<h.ID()) == 0 {
		t.Fatal("channel not re-armed for the real deadline")
	}

	st.SetNow(deadline - 10)
	st.Advance(10)
	HandleIRQ(h.ID())
	if !called {
		t.Fatal("callback did not run at the deadline")
	}
}

func TestUnallocatedHandle(t *testing.T) {
	_, d := newDriver(t)
	if d.SetAlarm(AlarmHandle{id: 2}, 100) {
		t.Error("SetAlarm accepted an unallocated handle")
	}
}

func TestTimerReservedByDelay(t *testing.T) {
	st := sim.NewTimer()
	if err := core.ClaimTimer(st.Regs(), "delay"); err != nil {
		t.Fatalf("ClaimTimer: %v", err)
	}
	if _, err := New(st.Regs()); !errors.Is(err, core.ErrTimerReserved) {
		t.Fatalf("New err = %v, want ErrTimerReserved", err)
	}
}
