//go:build !tinygo

package core

// State is a placeholder for interrupt state on regular Go
type State uintptr

// disableInterrupts suspends the sample tick for the duration of a
// multi-field command update. No-op on regular Go, where tests drive the
// tick synchronously.
func disableInterrupts() State {
	return 0
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	// No-op
}
