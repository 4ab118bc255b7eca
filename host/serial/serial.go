// Package serial opens the host end of a board's log UART.
package serial

import "io"

// Port is an open serial device. The native implementation uses
// github.com/tarm/serial; tests substitute pipes.
type Port interface {
	io.ReadWriteCloser

	Flush() error
}

// Config holds serial port settings.
type Config struct {
	// Device path, e.g. "/dev/ttyUSB0" or "COM3".
	Device string

	// Baud must match the board's log_baud. USB CDC ignores it.
	Baud int

	// ReadTimeout in milliseconds; 0 blocks.
	ReadTimeout int
}

// DefaultConfig returns the settings matching the board default log link.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
