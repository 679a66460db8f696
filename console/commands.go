package console

import (
	"errors"
	"io"
	"strconv"

	"stepcore/core"
)

// RegisterMotionCommands installs the built-in motion and I/O command set.
// Call once at startup, after the motor axes are created.
func RegisterMotionCommands() {
	Register("move", handleMove)
	Register("jog", handleJog)
	Register("stop", handleStop)
	Register("stopat", handleStopAt)
	Register("abrupt", handleAbrupt)
	Register("vel", handleVelMax)
	Register("acc", handleAccelMax)
	Register("dec", handleDecelMax)
	Register("edec", handleEStopDecelMax)
	Register("pos", handlePos)
	Register("zero", handleZero)
	Register("enable", handleEnable)
	Register("disable", handleDisable)
	Register("estop", handleEStop)
	Register("clear", handleClear)
	Register("status", handleStatus)
	Register("trace", handleTrace)
	Register("wdt", handleWatchdog)
}

var errNoAxis = errors.New("console: no such axis")

// axisArg resolves argument 0 as a motor axis index.
func axisArg(cmd *Command) (*core.MotorAxis, error) {
	idx, err := cmd.UintArg(0)
	if err != nil {
		return nil, err
	}
	m := core.MotorAxisAt(uint8(idx))
	if m == nil {
		return nil, errNoAxis
	}
	return m, nil
}

func writeOK(w io.Writer) error {
	_, err := io.WriteString(w, "ok\n")
	return err
}

// handleMove runs a point-to-point move.
// move <axis> <steps> [abs|rel] [now]
func handleMove(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	dist, err := cmd.Int32Arg(1)
	if err != nil {
		return err
	}

	target := core.MoveTargetAbsolute
	if cmd.StringArg(2, "abs") == "rel" {
		target = core.MoveTargetRelative
	}
	immediate := cmd.StringArg(3, "now") == "now"

	if !m.Move(dist, target, immediate) {
		_, err := io.WriteString(w, "busy\n")
		return err
	}
	return writeOK(w)
}

// handleJog runs a continuous velocity move.
// jog <axis> <steps-per-second>
func handleJog(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	vel, err := cmd.Int32Arg(1)
	if err != nil {
		return err
	}
	m.MoveVelocity(vel)
	return writeOK(w)
}

// handleStop ramps the axis to a standstill.
func handleStop(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	m.MoveStop()
	return writeOK(w)
}

// handleStopAt decelerates to a standstill at an absolute position.
// stopat <axis> <position>
func handleStopAt(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	target, err := cmd.Int32Arg(1)
	if err != nil {
		return err
	}
	m.MoveStopTarget(target)
	return writeOK(w)
}

// handleAbrupt halts the axis without deceleration.
func handleAbrupt(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	m.MoveStopAbrupt()
	return writeOK(w)
}

func handleVelMax(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	v, err := cmd.UintArg(1)
	if err != nil {
		return err
	}
	m.VelMax(v)
	return writeOK(w)
}

func handleAccelMax(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	v, err := cmd.UintArg(1)
	if err != nil {
		return err
	}
	m.AccelMax(v)
	return writeOK(w)
}

func handleDecelMax(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	v, err := cmd.UintArg(1)
	if err != nil {
		return err
	}
	m.DecelMax(v)
	return writeOK(w)
}

func handleEStopDecelMax(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	v, err := cmd.UintArg(1)
	if err != nil {
		return err
	}
	m.EStopDecelMax(v)
	return writeOK(w)
}

// handlePos reports the commanded position and velocity.
func handlePos(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, axisReport(m))
	return err
}

// handleZero sets the position reference.
// zero <axis> [value]
func handleZero(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	value := int32(0)
	if len(cmd.Args) > 1 {
		if value, err = cmd.Int32Arg(1); err != nil {
			return err
		}
	}
	m.PositionRefSet(value)
	return writeOK(w)
}

func handleEnable(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	m.Enable()
	return writeOK(w)
}

func handleDisable(cmd *Command, w io.Writer) error {
	m, err := axisArg(cmd)
	if err != nil {
		return err
	}
	m.Disable()
	return writeOK(w)
}

func handleEStop(cmd *Command, w io.Writer) error {
	core.TripEStop(core.FaultReasonHost)
	return writeOK(w)
}

func handleClear(cmd *Command, w io.Writer) error {
	core.ClearEStop()
	return writeOK(w)
}

// handleStatus reports every axis plus the fault latch.
func handleStatus(cmd *Command, w io.Writer) error {
	for i := uint8(0); i < core.MotorAxisCount(); i++ {
		m := core.MotorAxisAt(i)
		if m == nil {
			continue
		}
		line := "axis " + strconv.Itoa(int(i)) + " " + m.Name + " " + axisReport(m)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	fault := "fault=0\n"
	if core.EStopTripped() {
		fault = "fault=" + strconv.Itoa(int(core.EStopReason())) + "\n"
	}
	_, err := io.WriteString(w, fault)
	return err
}

// handleTrace dumps the motion event ring, oldest first.
func handleTrace(cmd *Command, w io.Writer) error {
	var err error
	core.TraceEvents(func(evt core.TraceEvent) {
		if err != nil {
			return
		}
		line := traceKindName(evt.Kind) +
			" axis=" + strconv.Itoa(int(evt.Axis)) +
			" clock=" + strconv.FormatUint(uint64(evt.Clock), 10) +
			" value=" + strconv.FormatUint(uint64(evt.Value), 10) + "\n"
		_, err = io.WriteString(w, line)
	})
	if err != nil {
		return err
	}
	return writeOK(w)
}

func traceKindName(kind uint8) string {
	switch kind {
	case core.TraceSegment:
		return "segment"
	case core.TraceMoveDone:
		return "done"
	case core.TraceStop:
		return "stop"
	case core.TraceFault:
		return "fault"
	default:
		return "event"
	}
}

// handleWatchdog arms or refreshes the host watchdog.
// wdt <ms>; zero disarms. A host that stops polling trips the fault latch.
func handleWatchdog(cmd *Command, w io.Writer) error {
	ms, err := cmd.UintArg(0)
	if err != nil {
		return err
	}
	if ms == 0 {
		core.CancelEStopTimeout()
	} else {
		core.SetEStopTimeout(core.SampleClock() + core.SamplesFromMS(ms))
	}
	return writeOK(w)
}

func axisReport(m *core.MotorAxis) string {
	done := "0"
	if m.StepsComplete() {
		done = "1"
	}
	enabled := "0"
	if m.Enabled() {
		enabled = "1"
	}
	return "pos=" + strconv.FormatInt(int64(m.PositionRefCommanded()), 10) +
		" target=" + strconv.FormatInt(int64(m.TargetPosition()), 10) +
		" vel=" + strconv.FormatInt(int64(m.VelocityRefCommanded()), 10) +
		" done=" + done + " en=" + enabled + "\n"
}
