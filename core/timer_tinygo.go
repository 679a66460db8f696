//go:build tinygo

package core

import "sync/atomic"

var sampleTicksValue uint32

// getSampleTicks returns the sample counter
func getSampleTicks() uint32 {
	return atomic.LoadUint32(&sampleTicksValue)
}

// setSampleTicks sets the sample counter
func setSampleTicks(ticks uint32) {
	atomic.StoreUint32(&sampleTicksValue, ticks)
}
