package console

import (
	"strings"
	"testing"

	"stepcore/core"
)

// nullStepOutput satisfies core.StepOutput for console tests.
type nullStepOutput struct{}

func (nullStepOutput) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error { return nil }
func (nullStepOutput) EmitSteps(count uint32)                                      {}
func (nullStepOutput) SetDirection(negative bool)                                  {}
func (nullStepOutput) Stop()                                                       {}
func (nullStepOutput) Name() string                                                { return "null" }

func setupConsoleTest(t *testing.T) *core.MotorAxis {
	t.Helper()
	core.ResetConnectors()
	core.ResetMotorAxes()
	core.ResetTimers()
	core.SetSampleClock(0)
	core.SetStepOutputFactory(func() core.StepOutput { return nullStepOutput{} })
	t.Cleanup(func() {
		core.SetStepOutputFactory(nil)
		core.ResetConnectors()
		core.ResetMotorAxes()
		core.ResetTimers()
		core.ClearEStop()
	})

	m, err := core.NewMotorAxis("x", 2, 3, 100)
	if err != nil {
		t.Fatalf("NewMotorAxis: %v", err)
	}
	m.Enable()
	RegisterMotionCommands()
	return m
}

func dispatch(t *testing.T, line string) string {
	t.Helper()
	var out strings.Builder
	if err := Dispatch(line, &out); err != nil {
		t.Fatalf("Dispatch(%q): %v", line, err)
	}
	return out.String()
}

func TestConsoleMoveCommand(t *testing.T) {
	m := setupConsoleTest(t)

	if reply := dispatch(t, "vel 0 2000"); reply != "ok\n" {
		t.Errorf("vel reply = %q", reply)
	}
	dispatch(t, "acc 0 100000")
	dispatch(t, "dec 0 100000")

	if reply := dispatch(t, "move 0 500"); reply != "ok\n" {
		t.Fatalf("move reply = %q", reply)
	}
	for i := 0; i < 200000; i++ {
		core.SampleTick()
		if m.StepsComplete() {
			break
		}
	}
	if got := m.PositionRefCommanded(); got != 500 {
		t.Errorf("console move arrived at %d, want 500", got)
	}

	reply := dispatch(t, "pos 0")
	if !strings.Contains(reply, "pos=500") || !strings.Contains(reply, "done=1") {
		t.Errorf("pos reply = %q", reply)
	}
}

func TestConsoleBusyReply(t *testing.T) {
	setupConsoleTest(t)
	dispatch(t, "vel 0 2000")
	dispatch(t, "acc 0 100000")
	dispatch(t, "move 0 100000")
	core.SampleTick()

	// A queued (non-immediate) move is refused while one is active
	if reply := dispatch(t, "move 0 5 abs queue"); reply != "busy\n" {
		t.Errorf("queued move during active move: reply = %q", reply)
	}
}

func TestConsoleJogAndStop(t *testing.T) {
	m := setupConsoleTest(t)
	dispatch(t, "vel 0 2000")
	dispatch(t, "acc 0 100000")
	dispatch(t, "dec 0 100000")
	dispatch(t, "edec 0 400000")

	dispatch(t, "jog 0 1500")
	for i := 0; i < 1000; i++ {
		core.SampleTick()
	}
	if v := m.VelocityRefCommanded(); v != 1500 {
		t.Fatalf("jog velocity = %d", v)
	}

	dispatch(t, "stop 0")
	for i := 0; i < 10000; i++ {
		core.SampleTick()
		if m.StepsComplete() {
			break
		}
	}
	if v := m.VelocityRefCommanded(); v != 0 {
		t.Errorf("velocity %d after stop", v)
	}
}

func TestConsoleEStopAndClear(t *testing.T) {
	m := setupConsoleTest(t)
	dispatch(t, "vel 0 2000")
	dispatch(t, "acc 0 100000")
	dispatch(t, "move 0 100000")

	dispatch(t, "estop")
	if !core.EStopTripped() {
		t.Fatal("estop command did not trip the latch")
	}
	if m.Enabled() {
		t.Error("axis enabled after estop")
	}

	reply := dispatch(t, "status")
	if !strings.Contains(reply, "fault=") || strings.Contains(reply, "fault=0") {
		t.Errorf("status after estop = %q", reply)
	}

	dispatch(t, "clear")
	if core.EStopTripped() {
		t.Error("clear did not re-arm the latch")
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	setupConsoleTest(t)
	var out strings.Builder
	if err := Dispatch("warp 0 9000", &out); err == nil {
		t.Error("unknown command did not error")
	}
}

func TestConsoleTraceDump(t *testing.T) {
	m := setupConsoleTest(t)
	core.ClearTraceRing()
	dispatch(t, "vel 0 2000")
	dispatch(t, "acc 0 100000")
	dispatch(t, "dec 0 100000")

	dispatch(t, "move 0 200")
	for i := 0; i < 200000; i++ {
		core.SampleTick()
		if m.StepsComplete() {
			break
		}
	}

	reply := dispatch(t, "trace")
	if !strings.Contains(reply, "segment axis=0") {
		t.Errorf("trace missing segment event: %q", reply)
	}
	if !strings.Contains(reply, "done axis=0") {
		t.Errorf("trace missing completion event: %q", reply)
	}
	if !strings.HasSuffix(reply, "ok\n") {
		t.Errorf("trace reply not terminated: %q", reply)
	}
}

func TestConsoleWatchdog(t *testing.T) {
	setupConsoleTest(t)

	// wdt 10 arms a 10 ms deadline (50 sample ticks)
	if reply := dispatch(t, "wdt 10"); reply != "ok\n" {
		t.Fatalf("wdt reply = %q", reply)
	}
	for i := 0; i < 60; i++ {
		core.SampleTick()
	}
	if !core.EStopTripped() || core.EStopReason() != core.FaultReasonTimeout {
		t.Fatalf("watchdog expiry: tripped=%v reason=%d",
			core.EStopTripped(), core.EStopReason())
	}

	dispatch(t, "clear")
	dispatch(t, "wdt 10")
	dispatch(t, "wdt 0")
	for i := 0; i < 100; i++ {
		core.SampleTick()
	}
	if core.EStopTripped() {
		t.Error("watchdog fired after being disarmed")
	}
}

func TestConsolePollReportsErrors(t *testing.T) {
	setupConsoleTest(t)
	var out strings.Builder
	c := New(&out)

	c.Feed([]byte("zero 0\nbogus\n"))
	c.Poll()

	reply := out.String()
	if !strings.Contains(reply, "ok\n") {
		t.Errorf("valid command got no ok: %q", reply)
	}
	if !strings.Contains(reply, "err ") {
		t.Errorf("invalid command got no err: %q", reply)
	}
}
