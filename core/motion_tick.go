package core

import "math"

// Tick engine for the motion profile generator
//
// advanceSample is invoked exactly once per sample period from the sample
// interrupt. It advances the profile by one sample, computes the burst of
// whole steps to emit, and maintains the absolute position reference. All
// quantities are Q15; overshoot corrections interpolate with Q32
// percent-of-sample factors held in 64-bit intermediates.

// advanceSample advances the state machine by one sample period.
func (a *MotionAxis) advanceSample() {
	// Perform setup for a newly issued move. Handled ahead of the state
	// dispatch so the move enters its first real state without wasting a
	// sample.
	if a.state == moveStateStart {
		a.startSegment()
	}

	switch a.state {
	case moveStateIdle:
		return

	case moveStateAccel:
		if !a.tickAccel() {
			break
		}
		// Target velocity was crossed mid-sample; cruise logic runs in the
		// same sample in case deceleration must start immediately
		fallthrough

	case moveStateCruise:
		a.tickCruise()

	case moveStateDecel:
		a.tickDecel()

	case moveStateDecelVel:
		a.tickDecelVel()

	case moveStateChangeDir:
		a.tickChangeDir()

	case moveStateEnd:
		// Clean up after the move completes; no burst this sample
		a.posnCurrent = 0
		a.velCurrent = 0
		a.stepsSent = 0
		a.stepsPrevious = 0
		a.stepsCommanded = 0
		a.state = moveStateIdle
		a.velocityMove = false
		return
	}

	// Burst value: whole steps crossed since the previous sample
	prev := int32(a.posnCurrent>>FractBits) - a.stepsSent
	a.stepsPrevious = prev
	a.stepsSent += prev

	// Accumulate the absolute position reference in the segment direction
	if a.direction {
		a.posnAbsolute -= prev
	} else {
		a.posnAbsolute += prev
	}
}

// startSegment latches the move parameters and selects the entry state for a
// newly issued command.
func (a *MotionAxis) startSegment() {
	a.accelCurrent = a.accelLimit
	a.decelCurrent = a.decelLimit
	a.posnTarget = int64(a.stepsCommanded) << FractBits

	if a.velocityMove {
		if a.altVelLimit != 0 && a.velCurrent != 0 && a.direction != a.dirCommanded {
			// Moving the wrong way; ramp to zero first, then reverse
			a.velTarget = 0
			a.moveDirChange = true
		} else {
			a.velTarget = a.altVelLimit
			a.moveDirChange = false
		}
		if a.velTarget != 0 {
			// Notify the system of the direction of the issued move when
			// heading to a non-zero velocity
			a.direction = a.dirCommanded
			a.outputDirection()
		}

		switch {
		case a.velCurrent == a.velTarget:
			// Already at the correct velocity
			a.state = moveStateCruise
		case a.velCurrent > a.velTarget:
			a.state = moveStateDecelVel
		default:
			a.state = moveStateAccel
		}
		return
	}

	if a.velCurrent != 0 {
		if a.direction == a.dirCommanded {
			// Distance needed to slow to zero velocity at the decel limit.
			// If the commanded distance is shorter, we cannot stop in time
			// and must overshoot and come back.
			distToStop := (int64(a.velCurrent) * int64(a.velCurrent) /
				int64(a.decelCurrent)) >> 1
			a.moveDirChange = a.posnTarget-a.posnCurrent < distToStop
		} else {
			a.moveDirChange = true
		}
	} else {
		a.moveDirChange = false
		a.direction = a.dirCommanded
		if a.posnTarget != a.posnCurrent {
			// Notify the system of the direction of the issued move
			a.outputDirection()
		}
	}

	if a.moveDirChange {
		a.state = moveStateDecelVel
		a.velTarget = 0
		return
	}

	// If the move profile is a triangle (the distance cannot reach VelMax),
	// reduce the target to the peak velocity so the trapezoid logic applies
	// unchanged. Credit the steps that would have been used accelerating to
	// the current velocity.
	accelSteps := (int64(a.velCurrent) * int64(a.velCurrent) / 2) /
		int64(a.accelCurrent)
	rampDist := int64(a.velLimit)*int64(a.velLimit)/(2*int64(a.accelCurrent)) +
		int64(a.velLimit)*int64(a.velLimit)/(2*int64(a.decelCurrent))
	if rampDist-accelSteps > a.posnTarget {
		a.velTarget = a.trianglePeakVel()
	} else {
		a.velTarget = a.velLimit
	}

	if a.velCurrent > a.velTarget {
		a.state = moveStateDecelVel
	} else {
		a.state = moveStateAccel
	}
}

// trianglePeakVel computes the peak velocity of a triangular profile with
// distinct accel and decel rates:
//
//	v^2 = (2*D*Aa*Ad + v0^2*Ad) / (Aa + Ad)
//
// The products are formed in Q30 so the integer square root lands back in
// Q15.
func (a *MotionAxis) trianglePeakVel() int32 {
	sum := int64(a.accelCurrent) + int64(a.decelCurrent)
	harm := 2 * int64(a.accelCurrent) * int64(a.decelCurrent) / sum

	var vsq int64
	if harm != 0 && a.posnTarget > math.MaxInt64/harm {
		vsq = math.MaxInt64
	} else {
		vsq = a.posnTarget*harm +
			int64(a.velCurrent)*int64(a.velCurrent)/sum*int64(a.decelCurrent)
	}
	if vsq < 0 {
		vsq = 0
	}
	return clipInt32(int64(isqrt64(uint64(vsq))))
}

// tickAccel ramps up toward the target velocity. Returns true once the
// target is crossed, after retroactively correcting position and velocity
// to the exact crossing instant.
func (a *MotionAxis) tickAccel() bool {
	a.posnCurrent += int64(a.velCurrent) + int64(a.accelCurrent>>1)
	a.velCurrent += a.accelCurrent

	// Check for the target velocity or velocity overflow
	if a.velCurrent < a.velTarget && a.velCurrent > 0 {
		return false
	}

	// The discrete sample landed past the crossing point. The distance
	// overshoot is the fraction of the sample past the crossing times the
	// velocity overshoot, divided by two.
	overshoot := uint32(a.velCurrent - a.velTarget)
	pctSampleOver := (uint64(overshoot) << 32) / uint64(a.accelCurrent)
	// Divide by two built into the shift
	posnAdj := (pctSampleOver * uint64(overshoot)) >> 33

	a.velCurrent = a.velTarget
	// Correct the position for the overshoot, and take off one sample of
	// travel at target velocity so the cruise logic (which runs this same
	// sample) can decide whether deceleration starts immediately
	a.posnCurrent -= int64(posnAdj) + int64(a.velCurrent)

	a.posnDecel = a.posnTarget - a.decelDist()
	a.state = moveStateCruise
	return true
}

// tickCruise continues at the current velocity. Positional moves watch for
// the deceleration point; velocity moves cruise indefinitely.
func (a *MotionAxis) tickCruise() {
	a.posnCurrent += int64(a.velCurrent)

	if a.velocityMove {
		// Cruising at zero velocity means the move has ended
		if a.velCurrent == 0 {
			a.state = moveStateEnd
		}
		return
	}

	// Check for the decel position or position overflow
	if a.posnCurrent < a.posnDecel && a.posnCurrent > 0 {
		return
	}

	// A zero-length or already-satisfied move arrives here with no
	// velocity; there is no crossing instant to interpolate
	if a.velCurrent <= 0 {
		a.finishAtTarget()
		return
	}

	// Interpolate back to the instant the decel point was crossed
	overshoot := uint64(a.posnCurrent - a.posnDecel)
	pctSampleOver := (overshoot << 32) / uint64(a.velCurrent)
	velAdj := (pctSampleOver * uint64(a.decelCurrent)) >> 32
	// Divide by two built into the shift
	posnAdj := (pctSampleOver * velAdj) >> 33

	a.posnCurrent -= int64(posnAdj)
	a.velCurrent -= int32(velAdj)

	if a.posnCurrent >= a.posnTarget || a.velCurrent <= 0 || a.posnCurrent <= 0 {
		a.finishAtTarget()
		return
	}
	a.state = moveStateDecel
}

// tickDecel ramps down toward zero velocity at the target position.
func (a *MotionAxis) tickDecel() {
	a.posnCurrent += int64(a.velCurrent) - int64(a.decelCurrent>>1)
	a.velCurrent -= a.decelCurrent

	// Done if we overshot the target position, the ramp passed zero
	// velocity, or the position overflowed
	if a.posnCurrent >= a.posnTarget || a.velCurrent <= 0 || a.posnCurrent <= 0 {
		a.finishAtTarget()
	}
}

// tickDecelVel decelerates toward a velocity target rather than a position
// target. Used for velocity-move slowdowns and the first half of a
// direction reversal.
func (a *MotionAxis) tickDecelVel() {
	// Steps continue to accumulate while slowing down
	a.posnCurrent += int64(a.velCurrent) - int64(a.decelCurrent>>1)
	a.velCurrent -= a.decelCurrent

	if a.velCurrent > a.velTarget {
		return
	}

	// Snap the velocity to the target; discrete sampling leaves it slightly
	// past. Correct the position for the overshoot.
	overshoot := uint32(a.velTarget - a.velCurrent)
	pctSampleOver := (uint64(overshoot) << 32) / uint64(a.decelCurrent)
	posnAdj := (pctSampleOver * uint64(overshoot)) >> 33

	a.velCurrent = a.velTarget
	a.posnCurrent += int64(posnAdj)

	if a.moveDirChange {
		a.state = moveStateChangeDir
		return
	}
	a.posnDecel = a.posnTarget - a.decelDist()
	a.state = moveStateCruise
}

// tickChangeDir flips the axis around once a reversal has slowed to zero.
// The steps taken while slowing down accumulated in the old direction; fold
// them into the commanded distance for the new direction so the original
// position target is still met.
func (a *MotionAxis) tickChangeDir() {
	if a.direction == a.dirCommanded {
		// Went past the point where the command was issued; travel the
		// slow-down distance minus what remained of the old command
		a.stepsCommanded = clipInt32(int64(a.stepsSent) - int64(a.stepsCommanded))
	} else {
		// Reversing an opposite-direction command; the slow-down distance
		// adds to the requested travel
		a.stepsCommanded = clipInt32(int64(a.stepsCommanded) + int64(a.stepsSent))
	}

	// Stopped; flop directions and restart the segment scale, keeping the
	// fractional position
	a.dirCommanded = !a.direction
	a.stepsSent = 0
	a.posnCurrent &= fractMask

	a.state = moveStateStart
	a.moveDirChange = false
}

// finishAtTarget enforces exact arrival and ends the move.
func (a *MotionAxis) finishAtTarget() {
	a.accelCurrent = 0
	a.velCurrent = 0
	a.posnCurrent = a.posnTarget
	a.state = moveStateEnd
}

// decelDist returns the Q15 distance covered slowing from the current
// velocity to zero at the decel limit.
func (a *MotionAxis) decelDist() int64 {
	return int64((uint64(a.velCurrent) * uint64(a.velCurrent) /
		uint64(a.decelCurrent)) >> 1)
}
