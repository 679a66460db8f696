package core

// Analog input connector
// Reads the ADC on a divided sample schedule and runs a first-order IIR
// filter in the same fixed-point format the motion core uses. An optional
// range check trips a fault callback after a run of out-of-range readings.

import "errors"

// AnalogIn is a filtered analog input refreshed on the sample clock.
type AnalogIn struct {
	Channel ADCChannelID

	// SampleDivisor reads the ADC every Nth sample tick. Zero means every
	// tick.
	SampleDivisor uint16

	// FilterShift is the IIR time constant exponent: each reading moves the
	// filtered value by (raw - filtered) >> FilterShift. Zero disables
	// filtering.
	FilterShift uint8

	// Range check. Triggers OnFault after RangeCheckCount consecutive
	// readings outside [MinValue, MaxValue]. MaxValue zero disables.
	MinValue        ADCValue
	MaxValue        ADCValue
	RangeCheckCount uint8
	OnFault         func()

	divCount     uint16
	invalidCount uint8

	// Filter state in raw-value units left-shifted by FractBits
	filtered int64
	lastRaw  ADCValue
}

// NewAnalogIn configures the channel and registers the connector.
func NewAnalogIn(channel ADCChannelID, sampleDivisor uint16, filterShift uint8) (*AnalogIn, error) {
	if adcDriver == nil {
		return nil, errors.New("ADC driver not configured")
	}
	if err := adcDriver.ConfigureChannel(channel); err != nil {
		return nil, err
	}

	a := &AnalogIn{
		Channel:       channel,
		SampleDivisor: sampleDivisor,
		FilterShift:   filterShift,
	}
	if err := RegisterConnector(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Value returns the filtered reading.
func (a *AnalogIn) Value() ADCValue {
	return ADCValue(a.filtered >> FractBits)
}

// LastRaw returns the most recent unfiltered reading.
func (a *AnalogIn) LastRaw() ADCValue {
	return a.lastRaw
}

// Refresh performs one scheduled conversion. Part of the Connector interface.
func (a *AnalogIn) Refresh() {
	if a.SampleDivisor > 1 {
		a.divCount++
		if a.divCount < a.SampleDivisor {
			return
		}
		a.divCount = 0
	}

	raw, err := adcDriver.ReadRaw(a.Channel)
	if err != nil {
		return
	}
	a.lastRaw = raw

	target := int64(raw) << FractBits
	if a.FilterShift == 0 {
		a.filtered = target
	} else {
		a.filtered += (target - a.filtered) >> a.FilterShift
	}

	a.rangeCheck(raw)
}

func (a *AnalogIn) rangeCheck(raw ADCValue) {
	if a.MaxValue == 0 {
		return
	}
	if raw < a.MinValue || raw > a.MaxValue {
		a.invalidCount++
		// A count of zero faults on the first violation
		if a.invalidCount >= a.RangeCheckCount {
			a.invalidCount = 0
			if a.OnFault != nil {
				a.OnFault()
			}
		}
		return
	}
	a.invalidCount = 0
}
