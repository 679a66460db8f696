//go:build rp2040

package main

// PIO step pulse generation
// One state machine per axis turns a per-sample burst into evenly spaced
// pulses, so the CPU only writes one FIFO word per sample period.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// Command word format:
//
//	Bits 0-15:  pulse count minus one
//	Bits 16-23: delay cycles between pulses
//	Bit 31:     direction level
//
// The program pulls a command, drives the direction pin, then emits X+1
// pulses with Y delay cycles after each one.
func buildStepProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1 (direction)
		// pulse_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

const stepProgramOrigin = 0 // Jump targets are absolute; load at offset 0

// PIO instruction rate and the cycle budget of one sample period. At 5 MHz a
// step costs 10 cycles plus the delay field, so a full 100-step burst exactly
// fills the 200 us window with zero delay.
const (
	pioClockDiv        = 25 // 125 MHz / 25 = 5 MHz
	pioCyclesPerSample = 1000
	pioCyclesPerStep   = 10
)

// PIOStepOutput implements core.StepOutput on one PIO state machine.
type PIOStepOutput struct {
	pio       *rp2pio.PIO
	sm        rp2pio.StateMachine
	stepPin   machine.Pin
	dirPin    machine.Pin
	direction bool
	offset    uint8
}

var nextStateMachine uint8

// newPIOStepOutput allocates the next free state machine on PIO0, then PIO1.
// Eight axes fit on the two PIO blocks.
func newPIOStepOutput() *PIOStepOutput {
	smNum := nextStateMachine
	nextStateMachine++

	pioHW := rp2pio.PIO0
	if smNum >= 4 {
		pioHW = rp2pio.PIO1
		smNum -= 4
	}

	return &PIOStepOutput{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

func (b *PIOStepOutput) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	b.stepPin = machine.Pin(stepPin)
	b.dirPin = machine.Pin(dirPin)

	b.sm.TryClaim()

	program := buildStepProgram()
	offset, err := b.pio.AddProgram(program, stepProgramOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	b.stepPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	b.dirPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.stepPin, 1)
	cfg.SetOutPins(b.dirPin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(pioClockDiv, 0)

	b.sm.Init(offset, cfg)

	// Pin directions must be set after Init
	b.sm.SetPindirsConsecutive(b.stepPin, 1, true)
	b.sm.SetPindirsConsecutive(b.dirPin, 1, true)
	b.sm.SetPinsConsecutive(b.stepPin, 1, false)
	b.sm.SetPinsConsecutive(b.dirPin, 1, false)

	b.sm.SetEnabled(true)
	return nil
}

// EmitSteps spreads count pulses over the sample period. Runs in the sample
// interrupt; the FIFO has room because the previous burst finished within its
// own period.
func (b *PIOStepOutput) EmitSteps(count uint32) {
	if count == 0 {
		return
	}
	if count > 0xFFFF {
		count = 0xFFFF
	}

	delay := uint32(0)
	if budget := pioCyclesPerSample / count; budget > pioCyclesPerStep {
		delay = budget - pioCyclesPerStep
		if delay > 255 {
			delay = 255
		}
	}

	cmd := (count - 1) | (delay << 16)
	if b.direction {
		cmd |= 1 << 31
	}

	if b.sm.IsTxFIFOFull() {
		return
	}
	b.sm.TxPut(cmd)
}

func (b *PIOStepOutput) SetDirection(negative bool) {
	b.direction = negative
}

// Stop drains the FIFO and restarts the state machine, halting pulses
// mid-burst.
func (b *PIOStepOutput) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.sm.SetEnabled(true)
}

func (b *PIOStepOutput) Name() string {
	return "pio"
}
