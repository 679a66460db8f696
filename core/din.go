package core

// Digital input connector
// Samples the pin once per sample period through a short majority filter so a
// single noisy sample cannot flip the reported state or fire an edge callback.

import "errors"

// filterDepth is the number of agreeing samples required to change state.
const filterDepth = 3

// DigitalIn is a filtered digital input refreshed every sample period.
type DigitalIn struct {
	Pin      GPIOPin
	Inverted bool

	state   bool
	agree   uint8
	pending bool

	// Edge callbacks, invoked from the sample interrupt after the filter
	// settles. Must be fast and must not block.
	OnRise func()
	OnFall func()
}

// NewDigitalIn configures the pin as an input and registers the connector.
func NewDigitalIn(pin GPIOPin, pull PullMode, inverted bool) (*DigitalIn, error) {
	if gpioDriver == nil {
		return nil, errors.New("GPIO driver not configured")
	}
	if err := gpioDriver.ConfigureInput(pin, pull); err != nil {
		return nil, err
	}

	d := &DigitalIn{Pin: pin, Inverted: inverted}
	d.state = d.readRaw()
	d.pending = d.state
	if err := RegisterConnector(d); err != nil {
		return nil, err
	}
	return d, nil
}

// State returns the filtered input state.
func (d *DigitalIn) State() bool {
	return d.state
}

// Refresh runs one filter step. Part of the Connector interface.
func (d *DigitalIn) Refresh() {
	raw := d.readRaw()
	if raw == d.state {
		d.agree = 0
		d.pending = raw
		return
	}
	if raw != d.pending {
		d.pending = raw
		d.agree = 1
		return
	}
	d.agree++
	if d.agree < filterDepth {
		return
	}

	d.state = raw
	d.agree = 0
	if raw {
		if d.OnRise != nil {
			d.OnRise()
		}
	} else {
		if d.OnFall != nil {
			d.OnFall()
		}
	}
}

func (d *DigitalIn) readRaw() bool {
	v := gpioDriver.ReadPin(d.Pin)
	if d.Inverted {
		v = !v
	}
	return v
}
