//go:build rp2040

package main

import (
	"machine"

	"stepcore/core"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// RP2040PWMDriver implements core.PWMDriver on the 8 hardware PWM slices.
// GPIO pin N maps to slice (N>>1)&7, channel N&1; pins sharing a slice share
// a frequency.
type RP2040PWMDriver struct {
	slices      map[uint8]uint32 // slice -> configured frequency (Hz)
	channels    map[uint32]uint8 // pin -> channel
	peripherals map[uint8]pwmPeripheral
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		slices:      make(map[uint8]uint32),
		channels:    make(map[uint32]uint8),
		peripherals: make(map[uint8]pwmPeripheral),
	}
}

// ConfigurePWM configures a pin for hardware PWM at the requested frequency
// and returns the frequency actually programmed.
func (d *RP2040PWMDriver) ConfigurePWM(pin core.PWMPin, frequencyHz uint32) (uint32, error) {
	pinNum := uint32(pin)
	sliceNum := uint8((pinNum >> 1) & 0x7)

	pwm, exists := d.peripherals[sliceNum]
	if !exists {
		pwm = pwmSlice(sliceNum)
		d.peripherals[sliceNum] = pwm
	}

	if frequencyHz == 0 {
		frequencyHz = 25000
	}
	period := uint64(1000000000) / uint64(frequencyHz)

	err := pwm.Configure(machine.PWMConfig{Period: period})
	if err != nil {
		return 0, err
	}

	channel, err := pwm.Channel(machine.Pin(pinNum))
	if err != nil {
		return 0, err
	}

	d.slices[sliceNum] = frequencyHz
	d.channels[pinNum] = channel
	return frequencyHz, nil
}

// SetDutyCycle sets the PWM duty cycle for a pin.
// value: 0 (fully off) to PWMMax (fully on)
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	pinNum := uint32(pin)

	channel, exists := d.channels[pinNum]
	if !exists {
		return nil
	}

	sliceNum := uint8((pinNum >> 1) & 0x7)
	pwm, exists := d.peripherals[sliceNum]
	if !exists {
		return nil
	}

	// Scale 0..PWMMax to 0..Top()
	duty := (uint32(value) * pwm.Top()) / uint32(core.PWMMax)
	pwm.Set(channel, duty)
	return nil
}

// DisablePWM stops driving a pin. TinyGo has no way to release the pin from
// the PWM mux, so zero duty stands in for disabled.
func (d *RP2040PWMDriver) DisablePWM(pin core.PWMPin) error {
	pinNum := uint32(pin)
	channel, exists := d.channels[pinNum]
	if !exists {
		return nil
	}

	sliceNum := uint8((pinNum >> 1) & 0x7)
	if pwm, ok := d.peripherals[sliceNum]; ok {
		pwm.Set(channel, 0)
	}
	delete(d.channels, pinNum)
	return nil
}

// pwmSlice returns the peripheral for a slice number (0-7).
func pwmSlice(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
