package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a motion event for post-mortem analysis
type TraceEvent struct {
	Kind  uint8  // Event kind code
	Axis  uint8  // Axis index
	Clock uint32 // Sample clock at event
	Value uint32 // Context-dependent value
}

// Event kind codes
const (
	TraceSegment  = 1 // Profile generator entered a new segment
	TraceMoveDone = 2 // Move completed
	TraceStop     = 3 // Stop command latched
	TraceFault    = 4 // Fault latch tripped
)

const (
	traceRingSize = 32 // Keep the last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	// Disabled by default; tick-path timing must not depend on it
	debugEnabled bool = false

	// Trace capture ring buffer (non-blocking, for post-mortem)
	traceRing     [traceRingSize]TraceEvent
	traceRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if the channel is full (drops the message)
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
			// Channel full, drop message
		}
	}
}

// RecordTrace captures a motion event in the ring buffer
// Always non-blocking; safe to call from the sample interrupt
func RecordTrace(kind, axis uint8, value uint32) {
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		Kind:  kind,
		Axis:  axis,
		Clock: SampleClock(),
		Value: value,
	}
	traceRingHead = (idx + 1) % traceRingSize
}

// DumpTraceRing outputs the trace ring buffer (call on shutdown/fault)
// Call from task context, not from the sample interrupt
func DumpTraceRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Motion Trace Dump ===")

	// Read from oldest to newest
	start := traceRingHead
	for i := uint8(0); i < traceRingSize; i++ {
		idx := (start + i) % traceRingSize
		evt := &traceRing[idx]
		if evt.Kind == 0 {
			continue // Empty slot
		}

		var name string
		switch evt.Kind {
		case TraceSegment:
			name = "SEGMENT"
		case TraceMoveDone:
			name = "MOVE_DONE"
		case TraceStop:
			name = "STOP"
		case TraceFault:
			name = "FAULT"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TRACE] " + name +
			" axis=" + itoa(int(evt.Axis)) +
			" clock=" + utoa(evt.Clock) +
			" value=" + utoa(evt.Value))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// TraceEvents visits the buffered events oldest first. Call from task
// context; events recorded during the walk may be missed or seen twice.
func TraceEvents(visit func(TraceEvent)) {
	start := traceRingHead
	for i := uint8(0); i < traceRingSize; i++ {
		evt := traceRing[(start+i)%traceRingSize]
		if evt.Kind == 0 {
			continue
		}
		visit(evt)
	}
}

// ClearTraceRing clears the trace buffer
func ClearTraceRing() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
