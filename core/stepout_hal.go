package core

// StepOutput defines the hardware abstraction for the step pulse emitter.
// Implementations can use PIO, GPIO bit-banging, or a timer/counter
// peripheral; the profile generator only hands them a per-sample burst and a
// direction.
type StepOutput interface {
	// Init initializes the step output hardware
	// stepPin: pin for step pulses
	// dirPin: pin for the direction signal
	// invertStep: invert step pin polarity
	// invertDir: invert direction pin polarity
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error

	// EmitSteps emits a burst of step pulses spread over one sample period.
	// Called from the sample interrupt; must not block.
	EmitSteps(count uint32)

	// SetDirection asserts the direction output
	// negative: true = negative direction
	// Must ensure proper dir-to-step setup time
	SetDirection(negative bool)

	// Stop immediately halts pulse output
	Stop()

	// Name returns the backend implementation name
	Name() string
}

// StepOutputInfo describes an available step output backend
type StepOutputInfo struct {
	Name           string
	MaxStepsSample uint32 // Maximum pulses per sample period
	MinPulseNs     uint32 // Minimum step pulse width (ns)
	TypicalJitter  uint32 // Typical timing jitter (ns)
}

// Backend factory, set by platform-specific code
var stepOutputFactory func() StepOutput

// SetStepOutputFactory registers the factory used when motor axes are
// created. Called by target initialization code.
func SetStepOutputFactory(factory func() StepOutput) {
	stepOutputFactory = factory
}
