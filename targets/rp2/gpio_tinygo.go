//go:build tinygo && (rp2040 || rp2350)

package rp2

import (
	"machine"

	"rpasync/core"
)

// PinDriver reads GPIO levels through the machine package.
type PinDriver struct {
	numPins int
}

func NewPinDriver(numPins int) *PinDriver {
	return &PinDriver{numPins: numPins}
}

func (d *PinDriver) pin(pin core.GPIOPin) (machine.Pin, error) {
	if int(pin) >= d.numPins {
		return machine.NoPin, ErrNotConfigured
	}
	return machine.Pin(pin), nil
}

func (d *PinDriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	p, err := d.pin(pin)
	if err != nil {
		return err
	}
	p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

// ConfigureInput configures pin as a floating input.
func (d *PinDriver) ConfigureInput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInput)
}

func (d *PinDriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *PinDriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

func (d *PinDriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, err := d.pin(pin)
	if err != nil {
		return false, err
	}
	return p.Get(), nil
}
