// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"fmt"
	"iter"
	"maps"

	"go.uber.org/zap"
)

const (
	MEM_SIZE = 8000 // Number of 64-bit memory cells.
)

var _machine_defines = map[string]string{
	"MEM_SIZE":       fmt.Sprintf("%v", MEM_SIZE),
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	"WIDTH_B":        fmt.Sprintf("%v", WIDTH_B),
	"WIDTH_H":        fmt.Sprintf("%v", WIDTH_H),
	"WIDTH_W":        fmt.Sprintf("%v", WIDTH_W),
	"WIDTH_DW":       fmt.Sprintf("%v", WIDTH_DW),
}

// nopLogger discards the trace when verbose logging is off.
var nopLogger = zap.NewNop()

// Machine is the simulation context of the register machine.
type Machine struct {
	Verbose bool        // Set to enable verbose logging.
	Logger  *zap.Logger // Destination of verbose logging; nil discards.

	Register [REGISTER_COUNT]int64 // Register bank.
	Memory   [MEM_SIZE]int64       // Word indexed memory.
	Pc       int                   // Index of the next instruction on the tape.

	Ticks int // Instructions executed since reset.

	tape   []Instruction  // Instruction tape, never modified by execution.
	labels map[string]int // Label to tape index.
}

// New creates a machine executing a flat tape. The machine owns the tape.
func New(tape []Instruction) (m *Machine) {
	m = &Machine{
		tape:   tape,
		labels: map[string]int{},
	}

	return
}

// NewLabeled resolves a labeled program and creates a machine executing it.
func NewLabeled(entries []Entry) (m *Machine, err error) {
	labels, tape, err := Resolve(entries)
	if err != nil {
		return
	}

	m = New(tape)
	m.labels = labels

	return
}

// Defines returns the machine constants, as assembler equates.
func Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Tape returns the instruction tape.
func (m *Machine) Tape() []Instruction {
	return m.tape
}

// Labels returns the label to tape index mapping.
func (m *Machine) Labels() iter.Seq2[string, int] {
	return maps.All(m.labels)
}

// Label returns the tape index of a label.
func (m *Machine) Label(name string) (index int, ok bool) {
	index, ok = m.labels[name]
	return
}

// Reg returns the value of a register. Registers never written, and
// registers outside of r0-r10, read as 0.
func (m *Machine) Reg(r Register) int64 {
	if !r.Valid() {
		return 0
	}

	return m.Register[r]
}

// SetReg sets the value of a register.
func (m *Machine) SetReg(r Register, value int64) (err error) {
	if !r.Valid() {
		err = ErrRegisterRange
		return
	}

	m.Register[r] = value

	return
}

// Reset the machine state.
// - Clears the registers and memory.
// - Rewinds the program counter to the start of the tape.
// - Zeros the tick counter.
func (m *Machine) Reset() {
	clear(m.Register[:])
	clear(m.Memory[:])
	m.Pc = 0
	m.Ticks = 0

	m.log().Debug("machine: reset")
}

// Done returns true if the program counter has run past the tape.
func (m *Machine) Done() bool {
	return m.Pc >= len(m.tape)
}

// log returns the verbose logger.
func (m *Machine) log() *zap.Logger {
	if !m.Verbose || m.Logger == nil {
		return nopLogger
	}

	return m.Logger
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text = fmt.Sprintf("% 5s: %d\n", "pc", m.Pc)
	for r, val := range m.Register {
		text += fmt.Sprintf("% 5s: %016X (%d)\n", Register(r), uint64(val), val)
	}

	// Only show memory cells that are in use.
	for n, val := range m.Memory {
		if val != 0 {
			text += fmt.Sprintf("[%04d]: %016X (%d)\n", n, uint64(val), val)
		}
	}

	return
}
