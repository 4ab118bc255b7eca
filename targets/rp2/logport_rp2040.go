//go:build tinygo && rp2040

package rp2

import (
	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// openLogUART brings up UART0 on its default pins. uartx queues transmit
// data behind the UART interrupt, so the log worker does not spin on the
// hardware FIFO.
func openLogUART(baud uint32) (drivers.UART, error) {
	if err := uartx.UART0.Configure(uartx.UARTConfig{BaudRate: baud}); err != nil {
		return nil, err
	}
	return uartx.UART0, nil
}
