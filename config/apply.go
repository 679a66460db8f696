package config

import (
	"stepcore/core"
	"stepcore/expansion"
)

// Board holds the live connectors built from a configuration.
type Board struct {
	Axes    []*core.MotorAxis
	Inputs  map[string]*core.DigitalIn
	Outputs map[string]*core.DigitalOut
	Analog  map[string]*core.AnalogIn
	PWMOuts map[string]*core.AnalogOut
	Link    *expansion.Link
}

// Apply instantiates every connector the configuration names. The HAL
// drivers and the step output factory must be registered first.
func Apply(cfg *BoardConfig) (*Board, error) {
	b := &Board{
		Inputs:  make(map[string]*core.DigitalIn),
		Outputs: make(map[string]*core.DigitalOut),
		Analog:  make(map[string]*core.AnalogIn),
		PWMOuts: make(map[string]*core.AnalogOut),
	}

	for _, ac := range cfg.Axes {
		m, err := core.NewMotorAxis(ac.Name, ac.StepPin, ac.DirPin, ac.StepsPerSampleMax)
		if err != nil {
			return nil, err
		}
		m.VelMax(ac.VelMax)
		m.AccelMax(ac.AccelMax)
		m.DecelMax(ac.DecelMax)
		m.EStopDecelMax(ac.EStopDecelMax)
		if ac.EnableOnStart {
			m.Enable()
		}
		b.Axes = append(b.Axes, m)
	}

	for _, ic := range cfg.Inputs {
		din, err := core.NewDigitalIn(core.GPIOPin(ic.Pin), pullMode(ic.Pull), ic.Inverted)
		if err != nil {
			return nil, err
		}
		b.Inputs[ic.Name] = din
	}

	for _, oc := range cfg.Outputs {
		dout, err := core.NewDigitalOut(core.GPIOPin(oc.Pin), oc.DefaultOn,
			core.SamplesFromMS(oc.MaxDurationMS))
		if err != nil {
			return nil, err
		}
		b.Outputs[oc.Name] = dout
	}

	for _, ac := range cfg.Analog {
		ain, err := core.NewAnalogIn(core.ADCChannelID(ac.Channel), ac.SampleDivisor, ac.FilterShift)
		if err != nil {
			return nil, err
		}
		ain.MinValue = core.ADCValue(ac.MinValue)
		ain.MaxValue = core.ADCValue(ac.MaxValue)
		ain.RangeCheckCount = ac.RangeCheckCount
		if ac.MaxValue != 0 {
			ain.OnFault = func() { core.TripEStop(core.FaultReasonADC) }
		}
		b.Analog[ac.Name] = ain
	}

	for _, pc := range cfg.PWMOuts {
		ao, err := core.NewAnalogOut(core.PWMPin(pc.Pin), pc.FrequencyHz,
			core.PWMValue(pc.DefaultValue), core.SamplesFromMS(pc.MaxDurationMS))
		if err != nil {
			return nil, err
		}
		b.PWMOuts[pc.Name] = ao
	}

	if cfg.EStopPin != nil {
		err := core.InitEStopInput(core.GPIOPin(cfg.EStopPin.Pin),
			pullMode(cfg.EStopPin.Pull), cfg.EStopPin.Inverted)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Link != nil {
		link, err := expansion.OpenLink(core.SPIConfig{
			BusID: core.SPIBusID(cfg.Link.Bus),
			Mode:  core.SPIMode(cfg.Link.Mode),
			Rate:  cfg.Link.RateHz,
		})
		if err != nil {
			return nil, err
		}
		link.RefreshDivisor = cfg.Link.RefreshDivisor
		link.OnFault = func() { core.TripEStop(core.FaultReasonLink) }
		if err := core.RegisterConnector(link); err != nil {
			return nil, err
		}
		b.Link = link
	}

	return b, nil
}

func pullMode(s string) core.PullMode {
	switch s {
	case "up":
		return core.PullUp
	case "down":
		return core.PullDown
	default:
		return core.PullNone
	}
}
