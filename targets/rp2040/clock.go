//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"stepcore/core"
)

// RP2040 timer peripheral memory map. The hardware timer is a 64-bit
// microsecond counter running at 1 MHz.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// sampleIntervalUS is the sample period in microseconds (200 us at 5 kHz).
const sampleIntervalUS = 1000000 / core.SampleRateHz

// GetHardwareTime reads the low 32 bits of the microsecond counter.
// Wraps every ~71 minutes; compare with wraparound-safe arithmetic.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit microsecond counter.
func GetHardwareUptime() uint64 {
	// Read high, low, high again to detect rollover during the read
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// sampleDeadline is the hardware time of the next sample tick.
var sampleDeadline uint32

// initSampleClock arms the sample pacing against the hardware timer.
func initSampleClock() {
	sampleDeadline = GetHardwareTime() + sampleIntervalUS
}

// pollSampleClock runs one sample tick if its deadline has passed. The
// deadline advances by a fixed interval, so a late tick is followed by a
// short period rather than a lost sample. Returns true if a tick ran.
func pollSampleClock() bool {
	if int32(GetHardwareTime()-sampleDeadline) < 0 {
		return false
	}
	sampleDeadline += sampleIntervalUS
	core.SampleTick()
	return true
}
