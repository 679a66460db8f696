//go:build rp2040

package main

import (
	"machine"
	"time"

	"stepcore/config"
	"stepcore/console"
	"stepcore/core"
)

// Board configuration. Loaded through the JSON config layer so bench builds
// and the firmware share one code path; edit and reflash to change the board.
const boardConfigJSON = `{
	"name": "stepcore",
	"axes": [
		{"name": "m0", "step_pin": 2, "dir_pin": 3, "enable_on_start": true},
		{"name": "m1", "step_pin": 4, "dir_pin": 5}
	],
	"estop_pin": {"name": "estop", "pin": 15, "pull": "up", "inverted": true}
}`

func main() {
	// Disable the watchdog on boot to clear any state left by a previous
	// reset cycle
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	// Register hardware drivers before any connector is built
	core.SetGPIODriver(NewRPGPIODriver())
	core.SetADCDriver(NewRPAdcDriver())
	core.SetPWMDriver(NewRP2040PWMDriver())
	core.SetSPIDriver(NewRP2040SPIDriver())
	core.SetStepOutputFactory(func() core.StepOutput { return newPIOStepOutput() })

	cfg, err := config.Load([]byte(boardConfigJSON))
	if err != nil {
		cfg = config.Default()
	}
	if _, err := config.Apply(cfg); err != nil {
		// A bad pin assignment leaves the board without motion; fall back
		// to a bare console so the fault is reportable.
		core.TripEStop(core.FaultReasonHost)
	}

	console.RegisterMotionCommands()
	con := console.New(machine.Serial)

	go serialReaderLoop(con)

	initSampleClock()

	for {
		// Recover from panics so a command bug cannot stop the sample loop
		func() {
			defer func() {
				if r := recover(); r != nil {
					core.TripEStop(core.FaultReasonHost)
				}
			}()

			if pollSampleClock() {
				// Ticks have priority; catch up before console work
				return
			}
			con.Poll()
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// serialReaderLoop feeds USB CDC bytes into the console line buffer.
func serialReaderLoop(con *console.Console) {
	var buf [1]byte
	for {
		if machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err == nil {
				buf[0] = b
				con.Feed(buf[:])
			}
			continue
		}
		time.Sleep(100 * time.Microsecond)
	}
}
