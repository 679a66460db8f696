//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"

	"stepcore/core"
)

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC.
// Channels 0-3 are the external inputs on GPIO26-GPIO29; channel 4 is the
// internal temperature sensor.
type RpAdcDriver struct {
	channels map[core.ADCChannelID]*machine.ADC
}

const adcTempChannel = 4

// NewRPAdcDriver constructs the driver and initializes the ADC peripheral.
func NewRPAdcDriver() *RpAdcDriver {
	machine.InitADC()
	return &RpAdcDriver{
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

// ConfigureChannel sets up a specific ADC channel (pin mux, etc.).
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	// The temperature sensor needs no pin mux; rawInternalTemp drives the
	// peripheral registers directly.
	if ch == adcTempChannel {
		return nil
	}

	if _, ok := d.channels[ch]; ok {
		return nil
	}

	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return errors.New("unsupported ADC channel")
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}

	d.channels[ch] = &adc
	return nil
}

// ReadRaw returns a raw 12-bit value (0-4095) from a channel. Called from the
// sample interrupt via the analog input filter; a single conversion takes
// about 2 us, well inside the sample period.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if ch == adcTempChannel {
		return core.ADCValue(rawInternalTemp()), nil
	}

	adc, ok := d.channels[ch]
	if !ok {
		if err := d.ConfigureChannel(ch); err != nil {
			return 0, err
		}
		adc = d.channels[ch]
	}

	return core.ADCValue(adc.Get()), nil
}

// rawInternalTemp returns the 12-bit raw reading of the internal temperature
// sensor.
func rawInternalTemp() uint16 {
	if rp.ADC.CS.Get()&rp.ADC_CS_EN == 0 {
		machine.InitADC()
	}

	rp.ADC.CS.SetBits(rp.ADC_CS_TS_EN)
	rp.ADC.CS.ReplaceBits(
		uint32(adcTempChannel)<<rp.ADC_CS_AINSEL_Pos,
		rp.ADC_CS_AINSEL_Msk,
		0,
	)

	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}

	return uint16(rp.ADC.RESULT.Get())
}
