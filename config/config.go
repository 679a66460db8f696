// Package config loads the board configuration: motor axes with their motion
// limits, digital and analog I/O points, the fault input, and the expansion
// link.
package config

import (
	"encoding/json"
	"errors"
)

// BoardConfig is the top-level configuration document.
type BoardConfig struct {
	Name string `json:"name"`

	Axes     []AxisConfig     `json:"axes"`
	Inputs   []InputConfig    `json:"inputs"`
	Outputs  []OutputConfig   `json:"outputs"`
	Analog   []AnalogInConfig `json:"analog"`
	PWMOuts  []PWMOutConfig   `json:"pwm_outs"`
	EStopPin *InputConfig     `json:"estop_pin"`
	Link     *LinkConfig      `json:"expansion_link"`
}

// AxisConfig describes one motor connector.
type AxisConfig struct {
	Name    string `json:"name"`
	StepPin uint8  `json:"step_pin"`
	DirPin  uint8  `json:"dir_pin"`

	// StepsPerSampleMax is the hardware burst ceiling per sample period.
	StepsPerSampleMax uint32 `json:"steps_per_sample_max"`

	// Motion limits in steps/s and steps/s^2
	VelMax        uint32 `json:"vel_max"`
	AccelMax      uint32 `json:"accel_max"`
	DecelMax      uint32 `json:"decel_max"`
	EStopDecelMax uint32 `json:"estop_decel_max"`

	EnableOnStart bool `json:"enable_on_start"`
}

// InputConfig describes one digital input point.
type InputConfig struct {
	Name     string `json:"name"`
	Pin      uint32 `json:"pin"`
	Pull     string `json:"pull"` // "up", "down", "none"
	Inverted bool   `json:"inverted"`
}

// OutputConfig describes one digital output point.
type OutputConfig struct {
	Name      string `json:"name"`
	Pin       uint32 `json:"pin"`
	DefaultOn bool   `json:"default_on"`

	// MaxDurationMS bounds how long the pin may stay away from its default
	// state. Zero disables the watchdog.
	MaxDurationMS uint32 `json:"max_duration_ms"`
}

// AnalogInConfig describes one analog input channel.
type AnalogInConfig struct {
	Name          string `json:"name"`
	Channel       uint8  `json:"channel"`
	SampleDivisor uint16 `json:"sample_divisor"`
	FilterShift   uint8  `json:"filter_shift"`

	// Range check in raw ADC counts; MaxValue zero disables
	MinValue        uint16 `json:"min_value"`
	MaxValue        uint16 `json:"max_value"`
	RangeCheckCount uint8  `json:"range_check_count"`
}

// PWMOutConfig describes one hardware PWM output.
type PWMOutConfig struct {
	Name          string `json:"name"`
	Pin           uint32 `json:"pin"`
	FrequencyHz   uint32 `json:"frequency_hz"`
	DefaultValue  uint32 `json:"default_value"`
	MaxDurationMS uint32 `json:"max_duration_ms"`
}

// LinkConfig describes the expansion link SPI bus.
type LinkConfig struct {
	Bus            uint8  `json:"bus"`
	Mode           uint8  `json:"mode"`
	RateHz         uint32 `json:"rate_hz"`
	RefreshDivisor uint16 `json:"refresh_divisor"`
}

var ErrDuplicateName = errors.New("config: duplicate name")

// Load parses a JSON configuration document and applies defaults.
func Load(jsonData []byte) (*BoardConfig, error) {
	var cfg BoardConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *BoardConfig) {
	if cfg.Name == "" {
		cfg.Name = "stepcore"
	}

	for i := range cfg.Axes {
		axis := &cfg.Axes[i]
		if axis.StepsPerSampleMax == 0 {
			axis.StepsPerSampleMax = 100
		}
		if axis.VelMax == 0 {
			axis.VelMax = 10000 // steps/s
		}
		if axis.AccelMax == 0 {
			axis.AccelMax = 100000 // steps/s^2
		}
		if axis.DecelMax == 0 {
			axis.DecelMax = axis.AccelMax
		}
		if axis.EStopDecelMax == 0 {
			axis.EStopDecelMax = 4 * axis.DecelMax
		}
	}

	for i := range cfg.Analog {
		ain := &cfg.Analog[i]
		if ain.SampleDivisor == 0 {
			ain.SampleDivisor = 5 // 1 kHz at the 5 kHz sample clock
		}
		if ain.FilterShift == 0 {
			ain.FilterShift = 3
		}
	}

	for i := range cfg.PWMOuts {
		p := &cfg.PWMOuts[i]
		if p.FrequencyHz == 0 {
			p.FrequencyHz = 25000
		}
	}

	if cfg.Link != nil {
		if cfg.Link.RateHz == 0 {
			cfg.Link.RateHz = 1000000
		}
		if cfg.Link.RefreshDivisor == 0 {
			cfg.Link.RefreshDivisor = 5
		}
	}
}

// validate rejects configurations that would alias connector names.
func validate(cfg *BoardConfig) error {
	seen := make(map[string]bool)
	check := func(name string) error {
		if name == "" {
			return nil
		}
		if seen[name] {
			return ErrDuplicateName
		}
		seen[name] = true
		return nil
	}

	for _, a := range cfg.Axes {
		if err := check(a.Name); err != nil {
			return err
		}
	}
	for _, in := range cfg.Inputs {
		if err := check(in.Name); err != nil {
			return err
		}
	}
	for _, out := range cfg.Outputs {
		if err := check(out.Name); err != nil {
			return err
		}
	}
	for _, ain := range cfg.Analog {
		if err := check(ain.Name); err != nil {
			return err
		}
	}
	for _, p := range cfg.PWMOuts {
		if err := check(p.Name); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the configuration used when no document is provided: one
// axis on the first step/dir pair and the fault input on pin 15.
func Default() *BoardConfig {
	cfg := &BoardConfig{
		Name: "stepcore",
		Axes: []AxisConfig{
			{
				Name:              "m0",
				StepPin:           2,
				DirPin:            3,
				StepsPerSampleMax: 100,
				VelMax:            10000,
				AccelMax:          100000,
				DecelMax:          100000,
				EStopDecelMax:     400000,
			},
		},
		EStopPin: &InputConfig{
			Name: "estop",
			Pin:  15,
			Pull: "up",
		},
	}
	applyDefaults(cfg)
	return cfg
}
