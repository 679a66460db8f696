package core

// Motor axis connector
// Binds a motion profile generator to a step output backend and an enable
// line, and forwards each sample's burst and direction to the hardware.

import (
	"errors"
)

// MaxMotorAxes is the number of motor connectors the board can carry.
const MaxMotorAxes = 8

// MotorAxis is one stepper/servo motion connector. The embedded MotionAxis
// provides the full command API (Move, MoveVelocity, MoveStop*, limit
// setters, reference accessors).
type MotorAxis struct {
	MotionAxis

	Name    string
	StepPin uint8
	DirPin  uint8

	enabled   bool
	backend   StepOutput
	index     uint8
	lastState moveState
}

// Global axis registry
var (
	motorAxes     [MaxMotorAxes]*MotorAxis
	motorAxisCount uint8
)

// NewMotorAxis creates a motor axis connector and registers it for sample
// refresh. stepsPerSampleMax is the hardware ceiling on pulses per sample
// period; all velocity limits are clipped to it.
func NewMotorAxis(name string, stepPin, dirPin uint8, stepsPerSampleMax uint32) (*MotorAxis, error) {
	if motorAxisCount >= MaxMotorAxes {
		return nil, errors.New("motor axis count exceeds maximum")
	}

	m := &MotorAxis{
		Name:    name,
		StepPin: stepPin,
		DirPin:  dirPin,
	}
	m.MotionAxis = *NewMotionAxis(stepsPerSampleMax)
	m.dirOut = m.outputDirectionSignal
	m.index = motorAxisCount

	if stepOutputFactory != nil {
		backend := stepOutputFactory()
		if backend != nil {
			if err := m.InitBackend(backend); err != nil {
				return nil, err
			}
		}
	}

	motorAxes[motorAxisCount] = m
	motorAxisCount++

	if err := RegisterConnector(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MotorAxisAt returns a registered axis by index, or nil.
func MotorAxisAt(index uint8) *MotorAxis {
	if index >= motorAxisCount {
		return nil
	}
	return motorAxes[index]
}

// MotorAxisCount returns the number of registered axes.
func MotorAxisCount() uint8 {
	return motorAxisCount
}

// ResetMotorAxes clears the axis registry (for tests).
func ResetMotorAxes() {
	for i := range motorAxes {
		motorAxes[i] = nil
	}
	motorAxisCount = 0
}

// InitBackend attaches and initializes the step output hardware.
func (m *MotorAxis) InitBackend(backend StepOutput) error {
	m.backend = backend
	return backend.Init(m.StepPin, m.DirPin, false, false)
}

// Enable allows the axis to generate steps. The profile generator assumes it
// is only driven while enabled; enable/fault sequencing belongs to the
// caller.
func (m *MotorAxis) Enable() {
	m.enabled = true
}

// Disable stops step generation and abruptly clears any current move.
func (m *MotorAxis) Disable() {
	m.enabled = false
	m.MoveStopAbrupt()
	if m.backend != nil {
		m.backend.Stop()
	}
}

// Enabled reports whether the axis may generate steps.
func (m *MotorAxis) Enabled() bool {
	return m.enabled
}

// Refresh advances the profile generator by one sample and forwards the
// burst to the step output. Runs in the sample interrupt.
func (m *MotorAxis) Refresh() {
	if !m.enabled {
		return
	}

	m.advanceSample()

	if m.state != m.lastState {
		if m.state == moveStateIdle {
			RecordTrace(TraceMoveDone, m.index, uint32(m.PositionRefCommanded()))
		} else {
			RecordTrace(TraceSegment, m.index, uint32(m.state))
		}
		m.lastState = m.state
	}

	if burst := m.stepsPrevious; burst > 0 && m.backend != nil {
		m.backend.EmitSteps(uint32(burst))
	}
}

// outputDirectionSignal asserts the physical direction line whenever the
// generator begins a new directional segment.
func (m *MotorAxis) outputDirectionSignal(negative bool) {
	if m.backend != nil {
		m.backend.SetDirection(negative)
	}
}
