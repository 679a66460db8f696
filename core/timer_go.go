//go:build !tinygo

package core

var sampleTicks uint32

// getSampleTicks returns the sample counter (regular Go implementation)
func getSampleTicks() uint32 {
	return sampleTicks
}

// setSampleTicks sets the sample counter (regular Go implementation)
func setSampleTicks(ticks uint32) {
	sampleTicks = ticks
}
