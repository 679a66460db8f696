package core

// Digital output connector
// Immediate writes plus sample-clock scheduled operations: timed pulses,
// software PWM toggling, and a max-duration watchdog that returns the pin to
// its default state.

import "errors"

// DigitalOut drives one GPIO output. Scheduled operations run on the shared
// sample-clock timer list.
type DigitalOut struct {
	Pin GPIOPin

	// DefaultState is the safe state the pin returns to on shutdown and when
	// the max-duration watchdog expires.
	DefaultState bool

	// MaxDuration limits how long the pin may stay away from DefaultState,
	// in sample ticks. Zero disables the watchdog.
	MaxDuration uint32

	state    bool
	toggling bool
	endTime  uint32
	checkEnd bool

	// PWM timing, in sample ticks
	onTicks  uint32
	offTicks uint32

	timer Timer
}

// Global registry so every output can be forced to its default state at once.
var digitalOuts []*DigitalOut

// NewDigitalOut configures the pin as an output in its default state.
func NewDigitalOut(pin GPIOPin, defaultState bool, maxDuration uint32) (*DigitalOut, error) {
	if gpioDriver == nil {
		return nil, errors.New("GPIO driver not configured")
	}
	if err := gpioDriver.ConfigureOutput(pin); err != nil {
		return nil, err
	}

	d := &DigitalOut{
		Pin:          pin,
		DefaultState: defaultState,
		MaxDuration:  maxDuration,
		state:        defaultState,
	}
	d.timer.Handler = d.timerEvent
	if err := gpioDriver.SetPin(pin, defaultState); err != nil {
		return nil, err
	}
	digitalOuts = append(digitalOuts, d)
	return d, nil
}

// State returns the last commanded pin state.
func (d *DigitalOut) State() bool {
	return d.state
}

// Set drives the pin immediately and cancels any scheduled operation.
func (d *DigitalOut) Set(on bool) error {
	CancelTimer(&d.timer)
	d.toggling = false
	return d.apply(on)
}

// Pulse drives the pin away from its default state for the given number of
// sample ticks, then returns it to the default.
func (d *DigitalOut) Pulse(durationTicks uint32) error {
	if durationTicks == 0 {
		return d.Set(d.DefaultState)
	}
	if err := d.Set(!d.DefaultState); err != nil {
		return err
	}
	d.endTime = SampleClock() + durationTicks
	d.checkEnd = true
	d.timer.WakeTime = d.endTime
	ScheduleTimer(&d.timer)
	return nil
}

// SetPWM starts software PWM with the given on time and cycle time in sample
// ticks. A duty of zero or a full cycle degrades to a steady level.
func (d *DigitalOut) SetPWM(onTicks, cycleTicks uint32) error {
	if cycleTicks == 0 || onTicks >= cycleTicks {
		return d.Set(onTicks > 0)
	}
	if onTicks == 0 {
		return d.Set(false)
	}

	CancelTimer(&d.timer)
	d.onTicks = onTicks
	d.offTicks = cycleTicks - onTicks
	d.toggling = true

	if err := d.apply(true); err != nil {
		d.toggling = false
		return err
	}
	d.timer.WakeTime = SampleClock() + d.onTicks
	ScheduleTimer(&d.timer)
	return nil
}

// Shutdown returns the pin to its default state and stops all scheduling.
func (d *DigitalOut) Shutdown() {
	CancelTimer(&d.timer)
	d.toggling = false
	d.checkEnd = false
	_ = gpioDriver.SetPin(d.Pin, d.DefaultState)
	d.state = d.DefaultState
}

// ShutdownAllDigitalOuts forces every configured output to its default state.
// Called from the fault path.
func ShutdownAllDigitalOuts() {
	for _, d := range digitalOuts {
		d.Shutdown()
	}
}

// ResetDigitalOuts clears the output registry (for tests).
func ResetDigitalOuts() {
	digitalOuts = nil
}

// apply writes the pin and arms the max-duration watchdog when the new state
// differs from the default.
func (d *DigitalOut) apply(on bool) error {
	if err := gpioDriver.SetPin(d.Pin, on); err != nil {
		return err
	}
	d.state = on

	if d.MaxDuration != 0 && on != d.DefaultState {
		d.endTime = SampleClock() + d.MaxDuration
		if !d.checkEnd && !d.toggling {
			d.checkEnd = true
			d.timer.WakeTime = d.endTime
			ScheduleTimer(&d.timer)
		} else {
			d.checkEnd = true
		}
	} else if on == d.DefaultState {
		d.checkEnd = false
	}
	return nil
}

// timerEvent handles PWM toggling and watchdog expiry on the sample clock.
func (d *DigitalOut) timerEvent(t *Timer) uint8 {
	if d.checkEnd && SampleClock() >= d.endTime {
		// Watchdog expired: force the default state
		d.toggling = false
		d.checkEnd = false
		_ = gpioDriver.SetPin(d.Pin, d.DefaultState)
		d.state = d.DefaultState
		return SF_DONE
	}

	if !d.toggling {
		// Pulse completion
		_ = gpioDriver.SetPin(d.Pin, d.DefaultState)
		d.state = d.DefaultState
		d.checkEnd = false
		return SF_DONE
	}

	// PWM toggle
	next := !d.state
	if err := gpioDriver.SetPin(d.Pin, next); err != nil {
		d.toggling = false
		return SF_DONE
	}
	d.state = next

	var dur uint32
	if next {
		dur = d.onTicks
	} else {
		dur = d.offTicks
	}
	if d.checkEnd && t.WakeTime+dur >= d.endTime {
		t.WakeTime = d.endTime
		return SF_RESCHEDULE
	}
	t.WakeTime += dur
	return SF_RESCHEDULE
}
