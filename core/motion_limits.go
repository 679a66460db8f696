package core

// Limit configuration for the motion profile generator
//
// The setters convert caller units (step pulses/second, step pulses/second^2)
// into the Q15 per-sample representation and write only the pending limits.
// Pending values are latched into the active set at the start of the next
// move. Out-of-range values are clamped, never rejected; a controller must
// always have some defined limit.

// VelMax sets the maximum velocity for positional moves, in step
// pulses/second. Clipped to the step output's per-sample ceiling.
func (a *MotionAxis) VelMax(velMax uint32) {
	// Convert from step pulses/sec to step pulses/sample
	vel64 := (int64(velMax) << FractBits) / SampleRateHz
	// Enforce the max steps per sample time
	ceil := int64(a.stepsPerSampleMax) << FractBits
	if vel64 > ceil {
		vel64 = ceil
	}
	vel := clipInt32(vel64)
	// Enforce a minimum velocity of 1 Q15 step pulse/sample
	if vel < 1 {
		vel = 1
	}
	a.velLimitPending = vel
}

// altVelMax sets the velocity-move velocity limit, in step pulses/second.
// Velocity moves carry their own limit so a MoveVelocity command is not
// clipped by the positional VelMax.
func (a *MotionAxis) altVelMax(velMax int32) {
	vel64 := (int64(velMax) << FractBits) / SampleRateHz
	ceil := int64(a.stepsPerSampleMax) << FractBits
	if vel64 > ceil {
		vel64 = ceil
	}
	a.altVelLimitPending = clipInt32(vel64)
}

// convertAccel converts step pulses/sec^2 to Q15 step pulses/sample^2.
func convertAccel(pulsesPerSecSq uint32) int32 {
	accel64 := (int64(pulsesPerSecSq) << FractBits) / (SampleRateHz * SampleRateHz)
	accel := clipInt32(accel64)
	// The position increment divides the acceleration by two, so keep it
	// even, and enforce a minimum of 2 Q15 step pulses/sample^2
	accel &^= 1
	if accel < 2 {
		accel = 2
	}
	return accel
}

// AccelMax sets the maximum acceleration in step pulses/second^2.
func (a *MotionAxis) AccelMax(accelMax uint32) {
	a.accelLimitPending = convertAccel(accelMax)
}

// DecelMax sets the maximum deceleration in step pulses/second^2. Applies to
// the ramp-down portion of positional moves and to velocity-move slowdowns.
func (a *MotionAxis) DecelMax(decelMax uint32) {
	a.decelLimitPending = convertAccel(decelMax)
}

// EStopDecelMax sets the deceleration used by MoveStop and MoveStopTarget,
// in step pulses/second^2. A stop always uses at least the move's own
// deceleration limit.
func (a *MotionAxis) EStopDecelMax(decelMax uint32) {
	a.eStopDecelLimitPending = convertAccel(decelMax)
}

// StepsPerSampleMaxSet limits the velocity to the maximum burst the step
// output hardware can emit in one sample period. Interrupts any current
// move.
func (a *MotionAxis) StepsPerSampleMaxSet(maxSteps uint32) {
	a.MoveStopAbrupt()
	a.stepsPerSampleMax = maxSteps

	// Recalculate the pending velocity limit against the new ceiling
	vel64 := int64(maxSteps) << FractBits
	vel := clipInt32(vel64)
	if vel < 1 {
		vel = 1
	}
	if vel > a.velLimit {
		vel = a.velLimit
	}
	a.velLimitPending = vel
}
