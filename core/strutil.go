package core

// Itoa converts an integer to a string without the fmt package, which is too
// heavy for the MCU path and must not be used from interrupt handlers.
func Itoa(n int) string {
	if n < 0 {
		return "-" + Utoa(uint64(-int64(n)))
	}
	return Utoa(uint64(n))
}

// Utoa converts an unsigned integer to a string.
func Utoa(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}
