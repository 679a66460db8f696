package config

import (
	"testing"

	"stepcore/core"
	"stepcore/expansion"
)

type fakeGPIO struct{ levels map[core.GPIOPin]bool }

func (g *fakeGPIO) ConfigureOutput(pin core.GPIOPin) error                  { return nil }
func (g *fakeGPIO) ConfigureInput(pin core.GPIOPin, pull core.PullMode) error { return nil }
func (g *fakeGPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.levels[pin] = value
	return nil
}
func (g *fakeGPIO) ReadPin(pin core.GPIOPin) bool { return g.levels[pin] }

type fakeADC struct{}

func (fakeADC) ConfigureChannel(ch core.ADCChannelID) error        { return nil }
func (fakeADC) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) { return 2000, nil }

type fakePWM struct{}

func (fakePWM) ConfigurePWM(pin core.PWMPin, frequencyHz uint32) (uint32, error) {
	return frequencyHz, nil
}
func (fakePWM) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error { return nil }
func (fakePWM) DisablePWM(pin core.PWMPin) error                        { return nil }

// fakeChain answers like a two-board expander chain.
type fakeChain struct{}

func (fakeChain) ConfigureBus(cfg core.SPIConfig) (interface{}, error) { return nil, nil }
func (fakeChain) Transfer(bus interface{}, tx, rx []byte) error {
	const boards = 2
	for i := range rx {
		rx[i] = 0
	}
	if _, payload, err := expansion.DecodeFrame(tx); err == nil {
		reply := make([]byte, expansion.FrameLen(len(payload)))
		expansion.EncodeFrame(reply, tx[1], make([]byte, len(payload)))
		copy(rx[boards:], reply)
		return nil
	}
	copy(rx[boards:], tx[:len(rx)-boards])
	return nil
}

type fakeStepOut struct{}

func (fakeStepOut) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error { return nil }
func (fakeStepOut) EmitSteps(count uint32)                                      {}
func (fakeStepOut) SetDirection(negative bool)                                  {}
func (fakeStepOut) Stop()                                                       {}
func (fakeStepOut) Name() string                                                { return "fake" }

func TestApplyBuildsBoard(t *testing.T) {
	core.ResetConnectors()
	core.ResetMotorAxes()
	core.ResetTimers()
	core.ResetDigitalOuts()
	core.ResetAnalogOuts()
	core.SetGPIODriver(&fakeGPIO{levels: make(map[core.GPIOPin]bool)})
	core.SetADCDriver(fakeADC{})
	core.SetPWMDriver(fakePWM{})
	core.SetSPIDriver(fakeChain{})
	core.SetStepOutputFactory(func() core.StepOutput { return fakeStepOut{} })
	t.Cleanup(func() {
		core.SetGPIODriver(nil)
		core.SetADCDriver(nil)
		core.SetPWMDriver(nil)
		core.SetSPIDriver(nil)
		core.SetStepOutputFactory(nil)
		core.ResetConnectors()
		core.ResetMotorAxes()
		core.ResetTimers()
		core.ResetDigitalOuts()
		core.ResetAnalogOuts()
		core.ClearEStop()
	})

	cfg, err := Load([]byte(`{
		"axes": [{"name": "x", "step_pin": 2, "dir_pin": 3, "enable_on_start": true}],
		"inputs": [{"name": "door", "pin": 20, "pull": "up"}],
		"outputs": [{"name": "brake", "pin": 9, "default_on": true}],
		"analog": [{"name": "temp", "channel": 0}],
		"pwm_outs": [{"name": "fan", "pin": 10}],
		"estop_pin": {"name": "estop", "pin": 15, "pull": "up"},
		"expansion_link": {"bus": 0}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	board, err := Apply(cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(board.Axes) != 1 || !board.Axes[0].Enabled() {
		t.Error("axis not built enabled")
	}
	if core.MotorAxisAt(0) == nil {
		t.Error("axis not registered")
	}
	if board.Inputs["door"] == nil || board.Outputs["brake"] == nil {
		t.Error("digital I/O not built")
	}
	if board.Analog["temp"] == nil || board.PWMOuts["fan"] == nil {
		t.Error("analog I/O not built")
	}
	if board.Link == nil || board.Link.Boards() != 2 {
		t.Errorf("expansion link not built: %+v", board.Link)
	}

	// The built connectors run on the sample clock without faulting
	for i := 0; i < 100; i++ {
		core.SampleTick()
	}
	if core.EStopTripped() {
		t.Errorf("sample loop tripped the fault latch: reason %d", core.EStopReason())
	}
}
