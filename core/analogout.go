package core

// Analog output connector
// Hardware PWM duty output with the same default-state and max-duration
// watchdog discipline as DigitalOut.

import "errors"

// AnalogOut drives one hardware PWM channel.
type AnalogOut struct {
	Pin PWMPin

	// DefaultValue is the duty the output returns to on shutdown and when
	// the watchdog expires.
	DefaultValue PWMValue

	// MaxDuration limits how long the output may stay away from
	// DefaultValue, in sample ticks. Zero disables the watchdog.
	MaxDuration uint32

	// FrequencyHz is the actual carrier frequency after hardware rounding.
	FrequencyHz uint32

	value    PWMValue
	endTime  uint32
	checkEnd bool
	timer    Timer
}

var analogOuts []*AnalogOut

// NewAnalogOut configures the PWM channel at the requested carrier frequency
// and drives the default duty.
func NewAnalogOut(pin PWMPin, frequencyHz uint32, defaultValue PWMValue, maxDuration uint32) (*AnalogOut, error) {
	if pwmDriver == nil {
		return nil, errors.New("PWM driver not configured")
	}
	actual, err := pwmDriver.ConfigurePWM(pin, frequencyHz)
	if err != nil {
		return nil, err
	}

	a := &AnalogOut{
		Pin:          pin,
		DefaultValue: defaultValue,
		MaxDuration:  maxDuration,
		FrequencyHz:  actual,
		value:        defaultValue,
	}
	a.timer.Handler = a.endEvent
	if err := pwmDriver.SetDutyCycle(pin, defaultValue); err != nil {
		return nil, err
	}
	analogOuts = append(analogOuts, a)
	return a, nil
}

// Value returns the last commanded duty.
func (a *AnalogOut) Value() PWMValue {
	return a.value
}

// Set applies a new duty cycle. Values above full scale are clipped.
func (a *AnalogOut) Set(value PWMValue) error {
	if value > PWMMax {
		value = PWMMax
	}
	if err := pwmDriver.SetDutyCycle(a.Pin, value); err != nil {
		return err
	}
	a.value = value

	if a.MaxDuration != 0 && value != a.DefaultValue {
		a.endTime = SampleClock() + a.MaxDuration
		if !a.checkEnd {
			a.checkEnd = true
			a.timer.WakeTime = a.endTime
			ScheduleTimer(&a.timer)
		} else {
			CancelTimer(&a.timer)
			a.timer.WakeTime = a.endTime
			ScheduleTimer(&a.timer)
		}
	} else if value == a.DefaultValue {
		a.checkEnd = false
		CancelTimer(&a.timer)
	}
	return nil
}

// Shutdown returns the output to its default duty.
func (a *AnalogOut) Shutdown() {
	CancelTimer(&a.timer)
	a.checkEnd = false
	_ = pwmDriver.SetDutyCycle(a.Pin, a.DefaultValue)
	a.value = a.DefaultValue
}

// ShutdownAllAnalogOuts forces every configured output to its default duty.
// Called from the fault path.
func ShutdownAllAnalogOuts() {
	for _, a := range analogOuts {
		a.Shutdown()
	}
}

// ResetAnalogOuts clears the output registry (for tests).
func ResetAnalogOuts() {
	analogOuts = nil
}

// endEvent enforces the max-duration watchdog.
func (a *AnalogOut) endEvent(t *Timer) uint8 {
	if !a.checkEnd {
		return SF_DONE
	}
	a.checkEnd = false
	_ = pwmDriver.SetDutyCycle(a.Pin, a.DefaultValue)
	a.value = a.DefaultValue
	return SF_DONE
}
