package core

// Motion profile generator
// Converts a commanded move (absolute position, relative position, or target
// velocity) into a deterministic sequence of per-sample step bursts and a
// direction signal. All arithmetic is Q15 fixed point with 64-bit
// intermediates; the sample interrupt never allocates and never uses
// floating point.

// MoveTarget selects how the distance argument of Move is interpreted
type MoveTarget uint8

const (
	// MoveTargetAbsolute moves to an absolute position on the step counter
	MoveTargetAbsolute MoveTarget = iota
	// MoveTargetRelative moves relative to the end position of the current move
	MoveTargetRelative
)

// Motion profile states. Start is entered by the command API and is consumed
// at the top of the next sample; it never persists across samples.
type moveState uint8

const (
	moveStateIdle moveState = iota
	moveStateStart
	moveStateAccel
	moveStateCruise
	moveStateDecel
	moveStateDecelVel // decelerating toward a velocity target
	moveStateChangeDir
	moveStateEnd
)

// MotionAxis generates the motion profile for one step-and-direction axis.
// One instance exists per controlled actuator and lives for the process
// lifetime.
//
// Two execution contexts touch an axis: the command API (arbitrary caller
// context) and the sample tick (timer interrupt). Every multi-field update in
// the command API runs with the tick interrupt masked so the tick engine
// never observes a half-written command.
type MotionAxis struct {
	stepsPrevious     int32 // burst emitted on the previous sample
	stepsPerSampleMax uint32
	state             moveState
	direction         bool // latched direction of the executing segment (true = negative)

	posnAbsolute int32 // accumulated position reference in step pulses

	stepsCommanded int32 // magnitude of the distance for the current segment
	stepsSent      int32 // whole steps already emitted for the current segment

	velocityMove  bool // the active command is a velocity move
	moveDirChange bool // the command needs a direction reversal
	dirCommanded  bool // requested direction of the issued command

	// Active limits, Q15 step pulses per sample (per sample^2 for accel)
	velLimit        int32
	altVelLimit     int32 // velocity-move velocity limit
	accelLimit      int32
	decelLimit      int32
	eStopDecelLimit int32

	// Segment progress, Q15. The fractional part of posnCurrent survives
	// segment boundaries; only the integer part is reset.
	posnCurrent  int64
	velCurrent   int32
	accelCurrent int32 // acceleration applied while ramping up
	decelCurrent int32 // deceleration applied while ramping down
	posnTarget   int64
	velTarget    int32
	posnDecel    int64 // position at which deceleration must begin

	// Pending limits written by the configuration calls; latched into the
	// active set only when a new move starts
	velLimitPending        int32
	altVelLimitPending     int32
	accelLimitPending      int32
	decelLimitPending      int32
	eStopDecelLimitPending int32

	// Direction capability implemented by the enclosing connector; asserts
	// the physical direction signal. May be nil on a bare generator.
	dirOut func(negative bool)
}

// NewMotionAxis creates a motion axis limited to stepsPerSampleMax pulses per
// sample period.
func NewMotionAxis(stepsPerSampleMax uint32) *MotionAxis {
	return &MotionAxis{
		stepsPerSampleMax:      stepsPerSampleMax,
		velLimit:               1,
		accelLimit:             2,
		decelLimit:             2,
		eStopDecelLimit:        2,
		velLimitPending:        1,
		accelLimitPending:      2,
		decelLimitPending:      2,
		eStopDecelLimitPending: 2,
	}
}

// Move issues a positional move of dist step pulses.
//
// With immediate set, any in-flight move is merged seamlessly with the new
// command: the remaining distance of the old segment is folded into the new
// target, the fractional position residual is preserved and the velocity
// carries over. Without immediate, the call is rejected while a move is
// active and no state is touched.
//
// Returns true if the move was accepted.
func (a *MotionAxis) Move(dist int32, target MoveTarget, immediate bool) bool {
	// Block the tick interrupt while changing the command
	is := disableInterrupts()

	if !immediate && a.state != moveStateIdle {
		restoreInterrupts(is)
		return false
	}

	// Relative moves during a velocity move are based off of the current
	// position; there is no meaningful end position to extend
	if a.velocityMove {
		a.stepsCommanded = 0
		a.stepsSent = 0
	}

	switch target {
	case MoveTargetAbsolute:
		a.stepsCommanded = dist - a.posnAbsolute
	default:
		// Relative to the end position of the current move. The segment
		// scale is relative to the start of the move, so first take the
		// steps already sent off of the previous commanded amount, convert
		// magnitude-plus-direction into a signed distance, then add the new
		// command.
		a.stepsCommanded -= a.stepsSent
		if a.direction {
			a.stepsCommanded = -a.stepsCommanded
		}
		a.stepsCommanded += dist
	}

	// Reset the segment scale: zero the steps sent and the integer portion
	// of the current position. Partial steps are kept so motion stays
	// smooth across the merge.
	a.stepsSent = 0
	a.posnCurrent &= fractMask

	a.dirCommanded = a.stepsCommanded < 0
	if a.stepsCommanded < 0 {
		a.stepsCommanded = -a.stepsCommanded
	}

	a.velocityMove = false
	a.updatePendingMoveLimits()
	a.state = moveStateStart

	restoreInterrupts(is)
	return true
}

// MoveVelocity issues a velocity move at the given step rate in step
// pulses/second. Any existing move is overwritten. The caller polls
// CruiseVelocityReached or VelocityRefCommanded to learn when the target
// rate is reached.
func (a *MotionAxis) MoveVelocity(velocity int32) bool {
	is := disableInterrupts()

	a.dirCommanded = velocity < 0
	a.velocityMove = true

	vabs := velocity
	if vabs < 0 {
		vabs = -vabs
	}
	a.altVelMax(vabs)
	a.updatePendingMoveLimits()

	a.stepsCommanded = int32max
	a.posnCurrent &= fractMask
	a.stepsSent = 0

	a.state = moveStateStart

	restoreInterrupts(is)
	return true
}

// MoveStopAbrupt clears the current move and idles the axis immediately.
// The mechanical stop may be abrupt; callers use this only in fault
// conditions.
func (a *MotionAxis) MoveStopAbrupt() {
	is := disableInterrupts()

	a.posnCurrent = 0
	a.velCurrent = 0
	a.stepsSent = 0
	a.state = moveStateIdle
	a.velocityMove = false
	a.stepsCommanded = 0
	a.stepsPrevious = 0
	a.updatePendingMoveLimits()

	restoreInterrupts(is)
}

// MoveStop converts the live state into a deceleration ramp to zero
// velocity. The ramp uses the larger of the deceleration limit and the
// e-stop deceleration limit.
func (a *MotionAxis) MoveStop() {
	is := disableInterrupts()

	a.updatePendingMoveLimits()
	if a.eStopDecelLimit > a.decelLimit {
		a.decelLimit = a.eStopDecelLimit
	}
	a.velocityMove = true
	a.altVelLimit = 0
	a.state = moveStateStart

	restoreInterrupts(is)
}

// MoveStopTarget converts the live state into a deceleration ramp that
// arrives at the given absolute position. The segment will not accelerate
// above the current velocity, and decelerates at the larger of the
// deceleration limit and the e-stop deceleration limit. If the axis cannot
// stop within the remaining distance it overshoots and returns, like any
// other positional command.
func (a *MotionAxis) MoveStopTarget(target int32) {
	is := disableInterrupts()

	if a.velocityMove {
		a.stepsCommanded = 0
		a.stepsSent = 0
	}

	a.stepsCommanded = target - a.posnAbsolute
	a.stepsSent = 0
	a.posnCurrent &= fractMask

	a.dirCommanded = a.stepsCommanded < 0
	if a.stepsCommanded < 0 {
		a.stepsCommanded = -a.stepsCommanded
	}

	a.velocityMove = false
	a.updatePendingMoveLimits()
	if a.eStopDecelLimit > a.decelLimit {
		a.decelLimit = a.eStopDecelLimit
	}
	// Do not speed back up on the way to the stop target
	if a.velCurrent != 0 && a.velCurrent < a.velLimit {
		a.velLimit = a.velCurrent
	}
	a.state = moveStateStart

	restoreInterrupts(is)
}

// PositionRefSet overrides the absolute commanded position.
func (a *MotionAxis) PositionRefSet(posn int32) {
	a.posnAbsolute = posn
}

// PositionRefCommanded returns the absolute commanded position in step
// pulses.
func (a *MotionAxis) PositionRefCommanded() int32 {
	return a.posnAbsolute
}

// VelocityRefCommanded returns the momentary commanded velocity in step
// pulses/second, signed by the executing direction.
func (a *MotionAxis) VelocityRefCommanded() int32 {
	// Reverse the per-sample conversion done by the limit setters; add half
	// a step for rounding
	vel := int32((int64(a.velCurrent)*SampleRateHz + (1 << (FractBits - 1))) >> FractBits)
	if a.direction {
		return -vel
	}
	return vel
}

// TargetPosition returns the absolute position the current move will arrive
// at. While idle, or during a velocity move, it returns the current
// commanded position.
func (a *MotionAxis) TargetPosition() int32 {
	if a.state == moveStateIdle || a.velocityMove {
		return a.posnAbsolute
	}
	remaining := a.stepsCommanded - a.stepsSent
	if a.direction {
		return a.posnAbsolute - remaining
	}
	return a.posnAbsolute + remaining
}

// TargetVelocity returns the current segment's target velocity in step
// pulses/second, signed by the executing direction.
func (a *MotionAxis) TargetVelocity() int32 {
	vel := int32((int64(a.velTarget)*SampleRateHz + (1 << (FractBits - 1))) >> FractBits)
	if a.direction {
		return -vel
	}
	return vel
}

// StepsComplete reports whether no steps are being commanded to the axis.
// The actuator may still be settling after the last step is sent.
func (a *MotionAxis) StepsComplete() bool {
	return a.state == moveStateIdle
}

// CruiseVelocityReached reports whether the move has finished accelerating
// and is in the cruise portion of the profile.
func (a *MotionAxis) CruiseVelocityReached() bool {
	return a.state == moveStateCruise
}

// Direction returns the latched direction of the executing segment
// (true = negative). During a reversal this transiently differs from the
// requested direction.
func (a *MotionAxis) Direction() bool {
	return a.direction
}

// StepsPrevious returns the burst emitted on the previous sample. This is
// the value the external step-output sink consumes.
func (a *MotionAxis) StepsPrevious() int32 {
	return a.stepsPrevious
}

// outputDirection asserts the physical direction signal through the
// enclosing connector, if one is attached.
func (a *MotionAxis) outputDirection() {
	if a.dirOut != nil {
		a.dirOut(a.direction)
	}
}

// updatePendingMoveLimits latches the pending limits into the active set.
// Called only when a new move starts, so a limit change never perturbs a
// move already underway.
func (a *MotionAxis) updatePendingMoveLimits() {
	a.velLimit = a.velLimitPending
	a.altVelLimit = a.altVelLimitPending
	a.accelLimit = a.accelLimitPending
	a.decelLimit = a.decelLimitPending
	a.eStopDecelLimit = a.eStopDecelLimitPending
}
