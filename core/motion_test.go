package core

import "testing"

// Standard test configuration: 5000 Hz sample rate, 100 steps/sample output
// ceiling, 2000 steps/s velocity, 100k steps/s^2 accel and decel.
func newTestAxis() *MotionAxis {
	a := NewMotionAxis(100)
	a.VelMax(2000)
	a.AccelMax(100000)
	a.DecelMax(100000)
	a.EStopDecelMax(400000)
	return a
}

// runSamples advances the axis by n sample periods.
func runSamples(a *MotionAxis, n int) {
	for i := 0; i < n; i++ {
		a.advanceSample()
	}
}

// runUntilIdle ticks the axis until StepsComplete or the limit is reached.
// Returns the number of samples consumed.
func runUntilIdle(t *testing.T, a *MotionAxis, limit int) int {
	t.Helper()
	for i := 0; i < limit; i++ {
		a.advanceSample()
		if a.StepsComplete() {
			return i + 1
		}
	}
	t.Fatalf("move did not complete within %d samples (pos=%d vel=%d)",
		limit, a.PositionRefCommanded(), a.VelocityRefCommanded())
	return limit
}

// runToCruise ticks the axis until the cruise state is reached.
func runToCruise(t *testing.T, a *MotionAxis, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		a.advanceSample()
		if a.CruiseVelocityReached() {
			return
		}
	}
	t.Fatalf("cruise velocity not reached within %d samples", limit)
}

func TestMoveAbsoluteExactArrival(t *testing.T) {
	distances := []int32{5000, 1, 37, -5000, -123}

	for _, dist := range distances {
		a := newTestAxis()
		if !a.Move(dist, MoveTargetAbsolute, true) {
			t.Fatalf("Move(%d) rejected", dist)
		}
		runUntilIdle(t, a, 200000)
		if got := a.PositionRefCommanded(); got != dist {
			t.Errorf("Move(%d, absolute): arrived at %d", dist, got)
		}
	}
}

func TestMoveTriangleProfileExactArrival(t *testing.T) {
	// Distance far too short to reach the velocity limit: the profile must
	// degrade to a triangle and still arrive exactly
	a := newTestAxis()
	a.Move(10, MoveTargetAbsolute, true)

	sawCruise := false
	for i := 0; i < 100000; i++ {
		a.advanceSample()
		if a.CruiseVelocityReached() {
			sawCruise = true
		}
		if a.StepsComplete() {
			break
		}
	}
	if !a.StepsComplete() {
		t.Fatal("triangle move did not complete")
	}
	if got := a.PositionRefCommanded(); got != 10 {
		t.Errorf("triangle move arrived at %d, want 10", got)
	}
	// The peak of a 10-step triangle is well below the 2000 steps/s limit
	if sawCruise {
		// Cruise for at most the snap-to-peak instant; reaching the full
		// commanded velocity would be wrong
		if v := a.TargetVelocity(); v >= 2000 {
			t.Errorf("triangle peak velocity %d not reduced below limit", v)
		}
	}
}

func TestMoveRelativeExactArrival(t *testing.T) {
	a := newTestAxis()
	a.Move(300, MoveTargetRelative, true)
	runUntilIdle(t, a, 100000)
	a.Move(-1000, MoveTargetRelative, true)
	runUntilIdle(t, a, 100000)

	if got := a.PositionRefCommanded(); got != -700 {
		t.Errorf("relative moves arrived at %d, want -700", got)
	}
}

func TestMoveRejectedWhileActive(t *testing.T) {
	a := newTestAxis()
	a.Move(5000, MoveTargetAbsolute, true)
	runSamples(a, 50)

	targetBefore := a.TargetPosition()
	stateBefore := a.state

	if a.Move(9999, MoveTargetAbsolute, false) {
		t.Error("non-immediate Move accepted while a move was active")
	}
	if a.TargetPosition() != targetBefore {
		t.Errorf("rejected Move changed target: %d -> %d",
			targetBefore, a.TargetPosition())
	}
	if a.state != stateBefore {
		t.Error("rejected Move changed the move state")
	}

	runUntilIdle(t, a, 200000)
	if got := a.PositionRefCommanded(); got != 5000 {
		t.Errorf("original move corrupted by rejected command: pos %d", got)
	}

	// Once idle, the same non-immediate command is accepted
	if !a.Move(9999, MoveTargetAbsolute, false) {
		t.Error("non-immediate Move rejected while idle")
	}
}

func TestRelativeMoveBlending(t *testing.T) {
	// Two quick relative moves must merge into one continuous trajectory
	// with the same end position as a single combined move
	merged := newTestAxis()
	merged.Move(4000, MoveTargetRelative, true)
	runSamples(merged, 200) // still accelerating or cruising
	merged.Move(3000, MoveTargetRelative, true)
	runUntilIdle(t, merged, 200000)

	single := newTestAxis()
	single.Move(7000, MoveTargetRelative, true)
	runUntilIdle(t, single, 200000)

	got := merged.PositionRefCommanded()
	want := single.PositionRefCommanded()
	diff := got - want
	if diff < -1 || diff > 1 {
		t.Errorf("blended relative moves arrived at %d, single move at %d", got, want)
	}
}

func TestReversalWhileCruising(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runToCruise(t, a, 10000)
	runSamples(a, 2000)

	// Command the opposite direction mid-flight; the axis must slow down,
	// reverse, and land exactly on the new target
	a.Move(-3000, MoveTargetAbsolute, true)
	runUntilIdle(t, a, 400000)

	if got := a.PositionRefCommanded(); got != -3000 {
		t.Errorf("reversal arrived at %d, want -3000", got)
	}
}

func TestOvershootAndReturn(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runToCruise(t, a, 10000)
	runSamples(a, 2000)

	// Target just ahead of the current position: closer than the stopping
	// distance, so the axis must overshoot and come back
	target := a.PositionRefCommanded() + 2
	a.Move(target, MoveTargetAbsolute, true)
	runUntilIdle(t, a, 400000)

	if got := a.PositionRefCommanded(); got != target {
		t.Errorf("overshoot move arrived at %d, want %d", got, target)
	}
}

func TestVelocityMoveConvergence(t *testing.T) {
	a := newTestAxis()
	if !a.MoveVelocity(1500) {
		t.Fatal("MoveVelocity rejected")
	}

	// Ramp time is bounded by velocity/accel in per-sample units
	velQ := (int64(1500) << FractBits) / SampleRateHz
	accelQ := int64(convertAccel(100000))
	bound := int(velQ/accelQ) + 2

	runSamples(a, bound)
	if got := a.VelocityRefCommanded(); got != 1500 {
		t.Errorf("velocity %d after %d samples, want 1500", got, bound)
	}
	if !a.CruiseVelocityReached() {
		t.Error("cruise state not reached after ramp")
	}

	// The velocity must hold indefinitely
	runSamples(a, 5000)
	if got := a.VelocityRefCommanded(); got != 1500 {
		t.Errorf("velocity drifted to %d while cruising", got)
	}
	pos := a.PositionRefCommanded()
	runSamples(a, 1000)
	if a.PositionRefCommanded() <= pos {
		t.Error("position not advancing during a velocity move")
	}
}

func TestVelocityMoveReversal(t *testing.T) {
	a := newTestAxis()
	a.MoveVelocity(1500)
	runSamples(a, 200)

	a.MoveVelocity(-1500)
	runSamples(a, 1000)

	if got := a.VelocityRefCommanded(); got != -1500 {
		t.Errorf("velocity %d after reversal, want -1500", got)
	}
}

func TestVelocityMoveToZeroEnds(t *testing.T) {
	a := newTestAxis()
	a.MoveVelocity(1500)
	runSamples(a, 500)

	a.MoveVelocity(0)
	runUntilIdle(t, a, 10000)

	if got := a.VelocityRefCommanded(); got != 0 {
		t.Errorf("velocity %d after MoveVelocity(0), want 0", got)
	}
}

func TestLimitLatching(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runSamples(a, 20)

	// Change the velocity limit mid-move; the in-flight segment must not
	// react
	a.VelMax(500)

	runToCruise(t, a, 10000)
	if got := a.VelocityRefCommanded(); got != 2000 {
		t.Errorf("in-flight move cruises at %d, want the original 2000", got)
	}
	runUntilIdle(t, a, 400000)

	// The next move picks up the pending limit
	a.Move(50000, MoveTargetRelative, true)
	peak := int32(0)
	for i := 0; i < 600000; i++ {
		a.advanceSample()
		if v := a.VelocityRefCommanded(); v > peak {
			peak = v
		}
		if a.StepsComplete() {
			break
		}
	}
	if !a.StepsComplete() {
		t.Fatal("second move did not complete")
	}
	if peak > 501 {
		t.Errorf("second move peaked at %d, want <= 500", peak)
	}
}

func TestIdempotentMoveToCurrentPosition(t *testing.T) {
	a := newTestAxis()
	a.Move(777, MoveTargetAbsolute, true)
	runUntilIdle(t, a, 100000)

	a.Move(777, MoveTargetAbsolute, true)
	for i := 0; i < 5; i++ {
		a.advanceSample()
		if a.StepsPrevious() != 0 {
			t.Fatal("zero-distance move emitted steps")
		}
	}
	if !a.StepsComplete() {
		t.Error("zero-distance move did not complete immediately")
	}
	if got := a.PositionRefCommanded(); got != 777 {
		t.Errorf("zero-distance move shifted position to %d", got)
	}
}

func TestMoveStopAbrupt(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runToCruise(t, a, 10000)

	a.MoveStopAbrupt()
	if !a.StepsComplete() {
		t.Error("axis not idle after MoveStopAbrupt")
	}
	if got := a.VelocityRefCommanded(); got != 0 {
		t.Errorf("velocity %d after MoveStopAbrupt, want 0", got)
	}
	pos := a.PositionRefCommanded()
	runSamples(a, 100)
	if a.PositionRefCommanded() != pos {
		t.Error("axis moved after MoveStopAbrupt")
	}
}

func TestMoveStopRampsToZero(t *testing.T) {
	a := newTestAxis()
	a.MoveVelocity(2000)
	runSamples(a, 500)

	start := a.PositionRefCommanded()
	a.MoveStop()
	runUntilIdle(t, a, 10000)

	if got := a.VelocityRefCommanded(); got != 0 {
		t.Errorf("velocity %d after MoveStop, want 0", got)
	}
	// Stop distance is bounded by v^2/(2*decel) plus a sample of slack:
	// 2000^2 / (2*400000) = 5 steps at the e-stop rate
	travel := a.PositionRefCommanded() - start
	if travel < 0 || travel > 8 {
		t.Errorf("MoveStop travelled %d steps, want a short bounded ramp", travel)
	}
	pos := a.PositionRefCommanded()
	runSamples(a, 100)
	if a.PositionRefCommanded() != pos {
		t.Error("axis crept after MoveStop completed")
	}
}

func TestMoveStopTargetArrives(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runToCruise(t, a, 10000)
	runSamples(a, 1000)

	target := a.PositionRefCommanded() + 2000
	a.MoveStopTarget(target)
	runUntilIdle(t, a, 400000)

	if got := a.PositionRefCommanded(); got != target {
		t.Errorf("MoveStopTarget arrived at %d, want %d", got, target)
	}
}

func TestMoveStopTargetDoesNotSpeedUp(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runToCruise(t, a, 10000)

	cruise := a.VelocityRefCommanded()
	a.MoveStopTarget(a.PositionRefCommanded() + 3000)
	peak := int32(0)
	for i := 0; i < 400000; i++ {
		a.advanceSample()
		if v := a.VelocityRefCommanded(); v > peak {
			peak = v
		}
		if a.StepsComplete() {
			break
		}
	}
	if peak > cruise+1 {
		t.Errorf("MoveStopTarget accelerated: peak %d above cruise %d", peak, cruise)
	}
}

func TestVelocityLimitClippedToStepsPerSample(t *testing.T) {
	a := NewMotionAxis(10)
	// 10 steps/sample at 5000 Hz is 50000 steps/s; ask for far more
	a.VelMax(10000000)
	if want := int32(10) << FractBits; a.velLimitPending != want {
		t.Errorf("velLimitPending = %d, want clipped to %d", a.velLimitPending, want)
	}
}

func TestAccelLimitFloorAndEvenness(t *testing.T) {
	a := newTestAxis()
	a.AccelMax(0)
	if a.accelLimitPending != 2 {
		t.Errorf("zero accel not clamped to minimum: %d", a.accelLimitPending)
	}
	a.AccelMax(123456789)
	if a.accelLimitPending&1 != 0 {
		t.Errorf("accel limit %d not even", a.accelLimitPending)
	}
}

func TestPositionRefSet(t *testing.T) {
	a := newTestAxis()
	a.PositionRefSet(-4242)
	if got := a.PositionRefCommanded(); got != -4242 {
		t.Errorf("PositionRefCommanded = %d after PositionRefSet(-4242)", got)
	}

	// Absolute moves are relative to the new reference
	a.Move(0, MoveTargetAbsolute, true)
	runUntilIdle(t, a, 400000)
	if got := a.PositionRefCommanded(); got != 0 {
		t.Errorf("move to 0 after PositionRefSet arrived at %d", got)
	}
}

func TestDirectionOutputOnSegmentStart(t *testing.T) {
	a := newTestAxis()
	var asserted []bool
	a.dirOut = func(negative bool) {
		asserted = append(asserted, negative)
	}

	a.Move(-100, MoveTargetAbsolute, true)
	runSamples(a, 1)
	if len(asserted) == 0 || asserted[0] != true {
		t.Fatalf("negative move did not assert direction: %v", asserted)
	}

	runUntilIdle(t, a, 100000)
	a.Move(100, MoveTargetAbsolute, true)
	runSamples(a, 1)
	if asserted[len(asserted)-1] != false {
		t.Error("positive move did not assert positive direction")
	}
}

func TestVelocityMoveOverridesPositionMove(t *testing.T) {
	a := newTestAxis()
	a.Move(50000, MoveTargetAbsolute, true)
	runToCruise(t, a, 10000)

	if !a.MoveVelocity(500) {
		t.Fatal("MoveVelocity rejected during a position move")
	}
	runSamples(a, 5000)
	if got := a.VelocityRefCommanded(); got != 500 {
		t.Errorf("velocity %d after override, want 500", got)
	}
	if a.StepsComplete() {
		t.Error("velocity move reported complete while cruising")
	}
}

func TestBurstNeverExceedsCeiling(t *testing.T) {
	// 4 steps/sample ceiling; the per-sample burst must respect it even at
	// the highest configured velocity
	a := NewMotionAxis(4)
	a.VelMax(1000000)
	a.AccelMax(10000000)
	a.DecelMax(10000000)
	a.Move(20000, MoveTargetAbsolute, true)

	for i := 0; i < 400000; i++ {
		a.advanceSample()
		if b := a.StepsPrevious(); b < 0 || b > 5 {
			t.Fatalf("burst %d outside hardware ceiling", b)
		}
		if a.StepsComplete() {
			break
		}
	}
	if got := a.PositionRefCommanded(); got != 20000 {
		t.Errorf("ceiling-limited move arrived at %d, want 20000", got)
	}
}
