package core

import "testing"

// mockStepOutput records every burst and direction change it receives.
type mockStepOutput struct {
	initialized bool
	stepPin     uint8
	dirPin      uint8
	bursts      []uint32
	directions  []bool
	stopped     bool
}

func (m *mockStepOutput) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	m.initialized = true
	m.stepPin = stepPin
	m.dirPin = dirPin
	return nil
}

func (m *mockStepOutput) EmitSteps(count uint32) {
	m.bursts = append(m.bursts, count)
}

func (m *mockStepOutput) SetDirection(negative bool) {
	m.directions = append(m.directions, negative)
}

func (m *mockStepOutput) Stop() {
	m.stopped = true
}

func (m *mockStepOutput) Name() string { return "mock" }

func (m *mockStepOutput) totalSteps() uint32 {
	var sum uint32
	for _, b := range m.bursts {
		sum += b
	}
	return sum
}

func setupMotorTest(t *testing.T) (*MotorAxis, *mockStepOutput) {
	t.Helper()
	ResetConnectors()
	ResetMotorAxes()

	mock := &mockStepOutput{}
	SetStepOutputFactory(func() StepOutput { return mock })
	t.Cleanup(func() {
		SetStepOutputFactory(nil)
		ResetConnectors()
		ResetMotorAxes()
	})

	m, err := NewMotorAxis("m0", 2, 3, 100)
	if err != nil {
		t.Fatalf("NewMotorAxis: %v", err)
	}
	m.VelMax(2000)
	m.AccelMax(100000)
	m.DecelMax(100000)
	m.EStopDecelMax(400000)
	return m, mock
}

func TestMotorAxisForwardsBursts(t *testing.T) {
	m, mock := setupMotorTest(t)
	if !mock.initialized || mock.stepPin != 2 || mock.dirPin != 3 {
		t.Fatalf("backend not initialized with axis pins: %+v", mock)
	}

	m.Enable()
	m.Move(250, MoveTargetAbsolute, true)
	for i := 0; i < 200000; i++ {
		SampleTick()
		if m.StepsComplete() {
			break
		}
	}

	if !m.StepsComplete() {
		t.Fatal("move did not complete under SampleTick")
	}
	if got := mock.totalSteps(); got != 250 {
		t.Errorf("backend received %d steps, want 250", got)
	}
	if len(mock.directions) == 0 || mock.directions[0] != false {
		t.Errorf("positive move direction not asserted: %v", mock.directions)
	}
}

func TestMotorAxisDisabledEmitsNothing(t *testing.T) {
	m, mock := setupMotorTest(t)

	// Never enabled: commands are accepted but no samples are consumed and
	// no pulses reach the backend
	m.Move(100, MoveTargetAbsolute, true)
	for i := 0; i < 100; i++ {
		SampleTick()
	}
	if len(mock.bursts) != 0 {
		t.Errorf("disabled axis emitted %d bursts", len(mock.bursts))
	}
	if m.StepsComplete() {
		t.Error("disabled axis consumed the move")
	}
}

func TestMotorAxisDisableStopsBackend(t *testing.T) {
	m, mock := setupMotorTest(t)
	m.Enable()
	m.Move(100000, MoveTargetAbsolute, true)
	for i := 0; i < 500; i++ {
		SampleTick()
	}

	m.Disable()
	if !mock.stopped {
		t.Error("Disable did not stop the backend")
	}
	if !m.StepsComplete() {
		t.Error("Disable did not clear the active move")
	}

	sent := mock.totalSteps()
	for i := 0; i < 100; i++ {
		SampleTick()
	}
	if mock.totalSteps() != sent {
		t.Error("disabled axis kept emitting steps")
	}
}

func TestMotorAxisReversalAssertsDirection(t *testing.T) {
	m, mock := setupMotorTest(t)
	m.Enable()

	m.Move(-50, MoveTargetAbsolute, true)
	for i := 0; i < 200000; i++ {
		SampleTick()
		if m.StepsComplete() {
			break
		}
	}
	if len(mock.directions) == 0 || mock.directions[0] != true {
		t.Fatalf("negative move direction not asserted: %v", mock.directions)
	}
	if got := m.PositionRefCommanded(); got != -50 {
		t.Errorf("arrived at %d, want -50", got)
	}
	// The backend sees pulse counts only; the sign lives on the direction
	// line
	if got := mock.totalSteps(); got != 50 {
		t.Errorf("backend received %d pulses, want 50", got)
	}
}

func TestMotorAxisRegistry(t *testing.T) {
	ResetConnectors()
	ResetMotorAxes()
	t.Cleanup(func() {
		ResetConnectors()
		ResetMotorAxes()
	})

	for i := 0; i < MaxMotorAxes; i++ {
		if _, err := NewMotorAxis("m", uint8(i), uint8(i+8), 16); err != nil {
			t.Fatalf("axis %d: %v", i, err)
		}
	}
	if got := MotorAxisCount(); got != MaxMotorAxes {
		t.Fatalf("MotorAxisCount = %d, want %d", got, MaxMotorAxes)
	}
	if _, err := NewMotorAxis("overflow", 30, 31, 16); err == nil {
		t.Error("registry accepted more than MaxMotorAxes axes")
	}
	if MotorAxisAt(MaxMotorAxes) != nil {
		t.Error("out-of-range MotorAxisAt returned an axis")
	}
}
