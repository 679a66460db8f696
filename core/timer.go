package core

// Fixed-rate sample clock
//
// A single hardware timer interrupt drives SampleTick at SampleRateHz. The
// tick is the only context that advances the motion profile generators and
// refreshes connectors; everything the command API shares with it is guarded
// by the interrupt critical section.

// SampleRateHz is the fixed sample rate of the controller tick.
const SampleRateHz = 5000

// SampleClock returns the current sample counter.
func SampleClock() uint32 {
	return getSampleTicks()
}

// SetSampleClock sets the sample counter (for testing and hardware bring-up).
func SetSampleClock(ticks uint32) {
	setSampleTicks(ticks)
}

// SamplesFromMS converts milliseconds to sample ticks.
func SamplesFromMS(ms uint32) uint32 {
	return ms * SampleRateHz / 1000
}

// SamplesToMS converts sample ticks to milliseconds.
func SamplesToMS(ticks uint32) uint32 {
	return ticks * 1000 / SampleRateHz
}

// SampleTick advances the controller by one sample period. Invoked from the
// periodic timer interrupt (or a test harness): refreshes every registered
// connector, then dispatches any scheduled timers that have come due.
func SampleTick() {
	t := getSampleTicks() + 1
	setSampleTicks(t)

	refreshConnectors()

	currentTime = t
	TimerDispatch()
}
