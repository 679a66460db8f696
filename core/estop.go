package core

// Emergency stop fault latch
// A single board-wide latch fed by the hardware fault input, the host
// watchdog timeout, and software trips (ADC range faults, host command).
// Tripping abruptly stops every motor axis and forces all outputs to their
// default states. The latch stays set until explicitly cleared.

// Fault latch flags
const (
	faultArmed   = 1 << 0 // Latch may trip
	faultTripped = 1 << 1 // Latch has fired
)

// Fault reason codes
const (
	FaultReasonNone    = 0
	FaultReasonInput   = 1 // Hardware fault input asserted
	FaultReasonTimeout = 2 // Host watchdog expired
	FaultReasonHost    = 3 // Host commanded stop
	FaultReasonADC     = 4 // Analog input out of range
	FaultReasonLink    = 5 // Expansion link offline
)

// FaultSignal is a callback registered with the fault latch
type FaultSignal struct {
	Callback func(reason uint8) // Called when the latch trips
	Next     *FaultSignal
}

var (
	faultFlags   uint8 = faultArmed
	faultReason  uint8
	faultSignals *FaultSignal
	faultTimer   Timer
	faultInput   *DigitalIn
)

// InitEStopInput binds the hardware fault input pin to the latch. The input
// goes through the standard digital input filter, so a trip needs the same
// run of agreeing samples as any other input edge.
func InitEStopInput(pin GPIOPin, pull PullMode, inverted bool) error {
	din, err := NewDigitalIn(pin, pull, inverted)
	if err != nil {
		return err
	}
	din.OnRise = func() { TripEStop(FaultReasonInput) }
	faultInput = din
	return nil
}

// TripEStop fires the fault latch. Safe to call from the sample interrupt.
// The first trip wins; later trips are ignored until the latch is cleared.
func TripEStop(reason uint8) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if faultFlags&faultArmed == 0 {
		return
	}
	faultFlags &^= faultArmed
	faultFlags |= faultTripped
	faultReason = reason

	RecordTrace(TraceFault, 0, uint32(reason))

	for i := uint8(0); i < MotorAxisCount(); i++ {
		if m := MotorAxisAt(i); m != nil {
			m.Disable()
		}
	}
	ShutdownAllDigitalOuts()
	ShutdownAllAnalogOuts()

	for signal := faultSignals; signal != nil; signal = signal.Next {
		if signal.Callback != nil {
			signal.Callback(reason)
		}
	}
}

// EStopTripped reports whether the latch has fired.
func EStopTripped() bool {
	return faultFlags&faultTripped != 0
}

// EStopReason returns the reason code of the last trip.
func EStopReason() uint8 {
	return faultReason
}

// ClearEStop re-arms the latch. Motor axes stay disabled; the caller
// re-enables them once the fault cause is resolved.
func ClearEStop() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	faultFlags = faultArmed
	faultReason = FaultReasonNone
}

// AddFaultSignal registers a callback invoked when the latch trips.
func AddFaultSignal(callback func(reason uint8)) *FaultSignal {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	signal := &FaultSignal{
		Callback: callback,
		Next:     faultSignals,
	}
	faultSignals = signal
	return signal
}

// SetEStopTimeout arms the host watchdog: unless pushed forward again before
// the given sample clock, the latch trips with FaultReasonTimeout. A host
// that polls the board keeps pushing the deadline.
func SetEStopTimeout(clock uint32) {
	CancelTimer(&faultTimer)
	faultTimer.WakeTime = clock
	faultTimer.Handler = eStopTimeoutEvent
	ScheduleTimer(&faultTimer)
}

// CancelEStopTimeout disarms the host watchdog.
func CancelEStopTimeout() {
	CancelTimer(&faultTimer)
}

func eStopTimeoutEvent(t *Timer) uint8 {
	TripEStop(FaultReasonTimeout)
	return SF_DONE
}

// resetEStop restores the latch to its initial state (for tests).
func resetEStop() {
	CancelTimer(&faultTimer)
	faultFlags = faultArmed
	faultReason = FaultReasonNone
	faultSignals = nil
	faultInput = nil
}
