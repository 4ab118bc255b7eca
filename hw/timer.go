package hw

// AlarmsPerTimer is the number of compare/interrupt channels in one timer.
const AlarmsPerTimer = 4

// AlarmChannel describes one alarm channel of a timer. The same mask selects
// the channel in ARMED, INTR, INTE, INTF and INTS.
type AlarmChannel struct {
	ID   int
	Mask uint32
}

// AlarmChannels is the channel table shared by every handler that services
// timer alarms.
var AlarmChannels = [AlarmsPerTimer]AlarmChannel{
	{ID: 0, Mask: 1 << 0},
	{ID: 1, Mask: 1 << 1},
	{ID: 2, Mask: 1 << 2},
	{ID: 3, Mask: 1 << 3},
}

// Timer is the 64-bit microsecond timer peripheral.
//
// Writing ALARMn arms channel n; the channel fires when the low 32 bits of the
// counter equal the compare value, after which hardware clears its ARMED bit.
// ARMED, INTR are write-one-to-clear.
type Timer struct {
	RawH  Register // TIMERAWH, unlatched high word
	RawL  Register // TIMERAWL, unlatched low word
	Alarm [AlarmsPerTimer]Register
	Armed Register
	Intr  Register
	Inte  Register
	Intf  Register
	Ints  Register
}

// Now returns the counter value in microseconds since boot.
func (t *Timer) Now() uint64 {
	v, _ := readCounter(t.RawH, t.RawL)
	return v
}

// readCounter reads a 64-bit counter exposed as two racing 32-bit halves.
// The high word is sampled before and after the low word; when the two
// samples differ the low word wrapped in between and the read is repeated
// with the newer high word. reads is the number of loop iterations used.
func readCounter(hiReg, loReg Register) (value uint64, reads int) {
	hi := hiReg.Get()
	for {
		reads++
		lo := loReg.Get()
		hi2 := hiReg.Get()
		if hi == hi2 {
			return uint64(hi)<<32 | uint64(lo), reads
		}
		hi = hi2
	}
}

func validChannel(ch int) bool {
	return ch >= 0 && ch < AlarmsPerTimer
}

// Schedule writes the compare register of channel ch, arming it.
func (t *Timer) Schedule(ch int, target uint32) {
	if !validChannel(ch) {
		return
	}
	t.Alarm[ch].Set(target)
}

// Disarm stops channel ch from firing.
func (t *Timer) Disarm(ch int) {
	if !validChannel(ch) {
		return
	}
	t.Armed.Set(AlarmChannels[ch].Mask)
}

// IsArmed reports whether channel ch is waiting for its compare match.
func (t *Timer) IsArmed(ch int) bool {
	if !validChannel(ch) {
		return false
	}
	return HasBits(t.Armed, AlarmChannels[ch].Mask)
}

// EnableIRQ sets the interrupt enable bit of channel ch.
func (t *Timer) EnableIRQ(ch int) {
	if !validChannel(ch) {
		return
	}
	t.Inte.SetBits(AlarmChannels[ch].Mask)
}

// DisableIRQ clears the interrupt enable bit of channel ch.
func (t *Timer) DisableIRQ(ch int) {
	if !validChannel(ch) {
		return
	}
	t.Inte.ClearBits(AlarmChannels[ch].Mask)
}

// IRQEnabled reports whether the interrupt enable bit of channel ch is set.
func (t *Timer) IRQEnabled(ch int) bool {
	if !validChannel(ch) {
		return false
	}
	return HasBits(t.Inte, AlarmChannels[ch].Mask)
}

// ForceIRQ raises the interrupt of channel ch regardless of the counter.
func (t *Timer) ForceIRQ(ch int) {
	if !validChannel(ch) {
		return
	}
	t.Intf.SetBits(AlarmChannels[ch].Mask)
}

// Ack clears the raw and forced interrupt of channel ch.
func (t *Timer) Ack(ch int) {
	if !validChannel(ch) {
		return
	}
	t.Intr.Set(AlarmChannels[ch].Mask)
	t.Intf.ClearBits(AlarmChannels[ch].Mask)
}

// Pending reports whether channel ch is asserting its interrupt line.
func (t *Timer) Pending(ch int) bool {
	if !validChannel(ch) {
		return false
	}
	return HasBits(t.Ints, AlarmChannels[ch].Mask)
}
