//go:build tinygo && rp2350

package rp2

import (
	"machine"

	"tinygo.org/x/drivers"
)

func openLogUART(baud uint32) (drivers.UART, error) {
	if err := machine.DefaultUART.Configure(machine.UARTConfig{BaudRate: baud}); err != nil {
		return nil, err
	}
	return machine.DefaultUART, nil
}
