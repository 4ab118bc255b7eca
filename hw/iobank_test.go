package hw

import "testing"

func newBank(pins int) *IOBank {
	b := &IOBank{NumPins: pins}
	for r := 0; r < MaxIntRegs; r++ {
		b.Intr[r] = &word{}
		for c := 0; c < NumCores; c++ {
			b.Inte[c][r] = &word{}
			b.Ints[c][r] = &word{}
		}
	}
	return b
}

func TestPinEvent(t *testing.T) {
	cases := []struct {
		pin   int
		reg   int
		shift uint
	}{
		{0, 0, 0},
		{7, 0, 28},
		{8, 1, 0},
		{29, 3, 20},
		{47, 5, 28},
	}
	for _, c := range cases {
		reg, shift := PinEvent(c.pin)
		if reg != c.reg || shift != c.shift {
			t.Errorf("PinEvent(%d) = %d, %d; want %d, %d", c.pin, reg, shift, c.reg, c.shift)
		}
	}
}

func TestIOBankEnablesArePerCore(t *testing.T) {
	b := newBank(30)

	b.EnableEvents(0, 10, EventEdgeHigh)
	b.EnableEvents(1, 10, EventLevelLow)
	if ev := b.EnabledEvents(0, 10); ev != EventEdgeHigh {
		t.Errorf("core 0 events %#x", ev)
	}
	if ev := b.EnabledEvents(1, 10); ev != EventLevelLow {
		t.Errorf("core 1 events %#x", ev)
	}
	if got := b.Inte[0][1].Get(); got != uint32(EventEdgeHigh)<<8 {
		t.Errorf("PROC0_INTE1 = %#x", got)
	}

	b.DisableEvents(0, 10, EventAll)
	if b.EnabledEvents(0, 10) != 0 || b.EnabledEvents(1, 10) != EventLevelLow {
		t.Error("disable on core 0 leaked to core 1")
	}
}

func TestIOBankBounds(t *testing.T) {
	b := newBank(30)
	if b.Regs() != 4 {
		t.Errorf("Regs() = %d for 30 pins", b.Regs())
	}
	b.EnableEvents(0, 30, EventAll)
	b.EnableEvents(2, 1, EventAll)
	b.AckEvents(-1, EventAll)
	for r := 0; r < MaxIntRegs; r++ {
		if b.Inte[0][r].Get() != 0 || b.Inte[1][r].Get() != 0 || b.Intr[r].Get() != 0 {
			t.Fatalf("out-of-range access wrote word %d", r)
		}
	}
	if b.Status(0, 4) != 0 || b.Status(-1, 0) != 0 {
		t.Error("Status read outside the bank")
	}
	if newBank(48).Regs() != MaxIntRegs {
		t.Error("48-pin bank should use every word")
	}
}

func TestChipByName(t *testing.T) {
	c, ok := ChipByName("rp2350")
	if !ok || c.NumPins != 48 || c.NumTimers != 2 {
		t.Errorf("rp2350 = %+v, %v", c, ok)
	}
	if _, ok := ChipByName("esp32"); ok {
		t.Error("unknown chip accepted")
	}
}
