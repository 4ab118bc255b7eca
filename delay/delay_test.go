package delay

import (
	"context"
	"errors"
	"testing"
	"time"

	"rpasync/core"
	"rpasync/hw"
	"rpasync/hw/sim"
)

func setup(t *testing.T) (*sim.Timer, *AsyncAlarm) {
	t.Helper()
	st := sim.NewTimer()
	if err := Init(st.Regs()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a, err := NewAsyncAlarm(0, 0)
	if err != nil {
		t.Fatalf("NewAsyncAlarm: %v", err)
	}
	return st, a
}

func TestDelayFiresAtDeadline(t *testing.T) {
	st, a := setup(t)

	// an unrelated channel armed by someone else must be left alone
	regs := st.Regs()
	regs.Schedule(2, 90000)
	before := st.State()

	f, err := a.After(2000)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	sig := core.NewSignal()
	if ready, _ := f.Poll(sig); ready {
		t.Fatal("delay ready on first poll")
	}
	s := st.State()
	if s.Alarm[0] != 2000 || s.Armed&1 == 0 || s.Inte&1 == 0 {
		t.Fatalf("channel not armed: %+v", s)
	}

	st.Advance(1999)
	if Pending(0, 0) {
		t.Fatal("alarm fired one tick early")
	}
	st.Advance(2)
	if !Pending(0, 0) {
		t.Fatal("alarm did not fire at deadline")
	}

	HandleIRQ(0, 0)
	select {
	case <-sig.C():
	default:
		t.Fatal("ISR did not wake the task")
	}
	if st.Pending() != 0 {
		t.Errorf("interrupt still asserted after ISR: %#x", st.Pending())
	}

	ready, err := f.Poll(sig)
	if !ready || err != nil {
		t.Fatalf("poll after wake = %v, %v", ready, err)
	}
	s = st.State()
	if s.Inte != 0 || s.Intr != 0 {
		t.Errorf("channel left enabled or pending: %+v", s)
	}
	const other = 1 << 2
	if s.Alarm[2] != before.Alarm[2] || s.Armed&other != before.Armed&other {
		t.Errorf("channel 2 changed: before %+v after %+v", before, s)
	}
}

func TestDelayZeroIsImmediate(t *testing.T) {
	st, a := setup(t)

	f, err := a.After(0)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	ready, err := f.Poll(core.NewSignal())
	if !ready || err != nil {
		t.Fatalf("zero delay poll = %v, %v", ready, err)
	}
	if s := st.State(); s.Armed != 0 || s.Inte != 0 {
		t.Errorf("zero delay touched the timer: %+v", s)
	}
}

func TestDelaySpuriousPollStaysPending(t *testing.T) {
	st, a := setup(t)

	f, _ := a.After(50)
	sig := core.NewSignal()
	f.Poll(sig)
	for i := 0; i < 3; i++ {
		if ready, _ := f.Poll(sig); ready {
			t.Fatalf("spurious poll %d completed the delay", i)
		}
	}
	if s := st.State(); s.Armed&1 == 0 || s.Inte&1 == 0 {
		t.Errorf("spurious poll disarmed the channel: %+v", s)
	}
	if s := st.State(); s.Alarm[0] != 50 {
		t.Errorf("spurious poll re-armed the compare: %d", s.Alarm[0])
	}
}

func TestDelayBusy(t *testing.T) {
	_, a := setup(t)

	f, err := a.After(10)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	if _, err := a.After(10); !errors.Is(err, core.ErrBusy) {
		t.Fatalf("second After err = %v, want ErrBusy", err)
	}
	f.Cancel()
	if _, err := a.After(10); err != nil {
		t.Fatalf("After after cancel: %v", err)
	}
}

func TestDelayBusyAcrossHandles(t *testing.T) {
	st, a := setup(t)
	b, err := NewAsyncAlarm(0, 0)
	if err != nil {
		t.Fatalf("NewAsyncAlarm: %v", err)
	}

	fa, err := a.After(100)
	if err != nil {
		t.Fatalf("After: %v", err)
	}
	if _, err := b.After(5000); !errors.Is(err, core.ErrBusy) {
		t.Fatalf("second handle After err = %v, want ErrBusy", err)
	}

	sig := core.NewSignal()
	fa.Poll(sig)
	st.Advance(200)
	if !Pending(0, 0) {
		t.Fatal("first delay lost its compare")
	}
	HandleIRQ(0, 0)
	if ready, err := fa.Poll(sig); !ready || err != nil {
		t.Fatalf("poll = %v, %v", ready, err)
	}

	fb, err := b.After(10)
	if err != nil {
		t.Fatalf("After once channel is free: %v", err)
	}
	fb.Cancel()
}

func TestDelayStaleFutureKeepsNewClaim(t *testing.T) {
	_, a := setup(t)
	stale, _ := a.After(10)

	st := sim.NewTimer()
	if err := Init(st.Regs()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	a, _ = NewAsyncAlarm(0, 0)
	f, err := a.After(10)
	if err != nil {
		t.Fatalf("After after Init: %v", err)
	}
	stale.Cancel()
	if _, err := a.After(10); !errors.Is(err, core.ErrBusy) {
		t.Fatalf("stale cancel released the new delay: err = %v", err)
	}
	f.Cancel()
}

func TestDelayCancelDisarms(t *testing.T) {
	st, a := setup(t)

	f, _ := a.After(100)
	f.Poll(core.NewSignal())
	f.Cancel()

	s := st.State()
	if s.Inte != 0 || s.Armed != 0 {
		t.Errorf("cancel left channel armed: %+v", s)
	}
	if wakers.Registered(core.CurrentCore(), resourceOf(0, 0)) {
		t.Error("cancel left a waker registered")
	}
	st.Advance(200)
	if st.Pending() != 0 {
		t.Error("cancelled delay still raised an interrupt")
	}
}

func TestDelayMissedDeadlineForcesIRQ(t *testing.T) {
	st, a := setup(t)

	reads := 0
	st.BeforeLowRead = func() {
		reads++
		if reads == 2 {
			// the counter runs past the compare value while it is written
			st.SetNow(st.Now() + 500)
		}
	}

	f, _ := a.After(10)
	sig := core.NewSignal()
	f.Poll(sig)
	st.BeforeLowRead = nil

	s := st.State()
	if s.Intf&1 == 0 {
		t.Fatalf("missed deadline not forced: %+v", s)
	}
	if !Pending(0, 0) {
		t.Fatal("forced interrupt not asserted")
	}
	HandleIRQ(0, 0)
	if s := st.State(); s.Intf != 0 {
		t.Errorf("ISR left forced bit set: %+v", s)
	}
	if ready, err := f.Poll(sig); !ready || err != nil {
		t.Fatalf("poll after forced wake = %v, %v", ready, err)
	}
}

func TestDelayUsWithAwait(t *testing.T) {
	st, a := setup(t)

	done := make(chan error, 1)
	go func() { done <- a.DelayUs(context.Background(), 300) }()

	waitArmed(t, st, 0)
	st.Advance(300)
	HandleIRQ(0, 0)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("DelayUs: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DelayUs did not return after the alarm")
	}
}

func TestDelayContextCancel(t *testing.T) {
	st, a := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.DelayMs(ctx, 5) }()

	waitArmed(t, st, 0)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("DelayMs err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("DelayMs ignored cancellation")
	}
	if s := st.State(); s.Inte != 0 || s.Armed != 0 {
		t.Errorf("cancelled delay left channel armed: %+v", s)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	st, _ := setup(t)

	a1, _ := NewAsyncAlarm(0, 1)
	a3, _ := NewAsyncAlarm(0, 3)
	f1, _ := a1.After(100)
	f3, _ := a3.After(40)
	s1, s3 := core.NewSignal(), core.NewSignal()
	f1.Poll(s1)
	f3.Poll(s3)

	st.Advance(40)
	if !Pending(0, 3) || Pending(0, 1) {
		t.Fatalf("pending mask %#x, want channel 3 only", st.Pending())
	}
	HandleIRQ(0, 3)
	if ready, _ := f3.Poll(s3); !ready {
		t.Error("channel 3 delay not complete")
	}
	if ready, _ := f1.Poll(s1); ready {
		t.Error("channel 1 delay completed by channel 3 interrupt")
	}
	f1.Cancel()
}

func TestNsToUs(t *testing.T) {
	cases := []struct {
		ns, us uint32
	}{
		{0, 0},
		{1, 1},
		{999, 1},
		{1000, 1},
		{1001, 2},
		{2500, 3},
		{4294967295, 4294968},
	}
	for _, c := range cases {
		if got := NsToUs(c.ns); got != c.us {
			t.Errorf("NsToUs(%d) = %d, want %d", c.ns, got, c.us)
		}
	}
}

func TestNewAsyncAlarmErrors(t *testing.T) {
	setup(t)

	if _, err := NewAsyncAlarm(1, 0); !errors.Is(err, ErrNoTimer) {
		t.Errorf("uninstalled timer err = %v", err)
	}
	if _, err := NewAsyncAlarm(0, hw.AlarmsPerTimer); !errors.Is(err, ErrChannel) {
		t.Errorf("bad channel err = %v", err)
	}
}

func TestInitRefusesReservedTimer(t *testing.T) {
	st := sim.NewTimer()
	if err := core.ClaimTimer(st.Regs(), "timedriver"); err != nil {
		t.Fatalf("ClaimTimer: %v", err)
	}
	if err := Init(st.Regs()); !errors.Is(err, core.ErrTimerReserved) {
		t.Fatalf("Init err = %v, want ErrTimerReserved", err)
	}
}

func waitArmed(t *testing.T, st *sim.Timer, ch int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for st.State().Inte&hw.AlarmChannels[ch].Mask == 0 {
		if time.Now().After(deadline) {
			t.Fatal("channel never armed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHandleIRQInvalidCore(t *testing.T) {
	st, a := setup(t)
	defer core.SetCurrentCore(0)

	f, _ := a.After(10)
	sig := core.NewSignal()
	f.Poll(sig)
	st.Advance(20)
	before := st.State()
	errs := core.LogCount(core.LevelError)

	core.SetCurrentCore(5)
	HandleIRQ(0, 0)
	core.SetCurrentCore(0)

	if s := st.State(); s.Inte != before.Inte || s.Intr != before.Intr {
		t.Errorf("ISR on invalid core changed the timer: before %+v after %+v", before, s)
	}
	select {
	case <-sig.C():
		t.Fatal("ISR on invalid core woke the task")
	default:
	}
	if core.LogCount(core.LevelError) <= errs {
		t.Error("invalid core not logged")
	}
	f.Cancel()
}
