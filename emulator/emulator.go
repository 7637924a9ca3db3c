// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ezrec/bpfsim/bpf"
	"github.com/ezrec/bpfsim/internal"
)

// Emulator state. Machine + program listing.
type Emulator struct {
	Verbose      bool         // If set, enables verbose logging.
	*bpf.Machine              // Reference to the machine simulation.
	Program      *bpf.Program // Reference to the currently loaded program listing.

	MaxTicks int // If non-zero, the limit of ticks for Run.
}

// NewEmulator creates a new emulator, with an empty program.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: bpf.New(nil),
		Program: &bpf.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	emulator_defines := map[string]string{
		"MAX_TICKS": fmt.Sprintf("%v", emu.MaxTicks),
	}

	return internal.IterSeq2Concat(maps.All(emulator_defines),
		bpf.Defines(),
	)
}

// Load resolves a program listing, and replaces the machine with one
// executing it.
func (emu *Emulator) Load(prog *bpf.Program) (err error) {
	m, err := bpf.NewLabeled(prog.Entries())
	if err != nil {
		return
	}

	m.Logger = emu.Machine.Logger
	m.Verbose = emu.Verbose

	emu.Machine = m
	emu.Program = prog

	return
}

// Reset the machine state, keeping the loaded program.
func (emu *Emulator) Reset() {
	emu.Machine.Verbose = false
	emu.Machine.Reset()
	emu.Machine.Verbose = emu.Verbose
}

// SeedRegister sets a register from 'rN=VALUE' text.
func (emu *Emulator) SeedRegister(text string) (err error) {
	name, value, err := parseSeed(text)
	if err != nil {
		return
	}

	index, ok := strings.CutPrefix(name, "r")
	if !ok {
		err = fmt.Errorf("%w: %v", ErrSeedSyntax, text)
		return
	}

	n, err := strconv.Atoi(index)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSeedSyntax, text)
		return
	}

	err = emu.Machine.SetReg(bpf.Register(n), value)
	if err != nil {
		err = fmt.Errorf("%w: %v", err, text)
		return
	}

	return
}

// SeedMemory sets a memory cell from 'ADDRESS=VALUE' text.
func (emu *Emulator) SeedMemory(text string) (err error) {
	name, value, err := parseSeed(text)
	if err != nil {
		return
	}

	addr, err := strconv.ParseUint(name, 0, 64)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSeedSyntax, text)
		return
	}

	if addr >= bpf.MEM_SIZE {
		err = bpf.ErrAddress{Address: addr, Width: bpf.WIDTH_DW}
		return
	}

	emu.Machine.Memory[addr] = value

	return
}

// Seed applies register and memory seeds, reporting all failures.
func (emu *Emulator) Seed(regs []string, mems []string) (err error) {
	var errs []error
	for _, seed := range regs {
		errs = append(errs, emu.SeedRegister(seed))
	}
	for _, seed := range mems {
		errs = append(errs, emu.SeedMemory(seed))
	}

	return errors.Join(errs...)
}

// parseSeed splits 'NAME=VALUE' text.
func parseSeed(text string) (name string, value int64, err error) {
	name, str, ok := strings.Cut(text, "=")
	if !ok {
		err = fmt.Errorf("%w: %v", ErrSeedSyntax, text)
		return
	}

	value, err = strconv.ParseInt(strings.TrimSpace(str), 0, 64)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSeedSyntax, text)
		return
	}

	name = strings.TrimSpace(name)
	return
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	st, ok := emu.Program.Debug(emu.Machine.Pc)
	if !ok {
		return 0
	}

	return st.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set machine verbosity
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	done, err = emu.Machine.Step()

	return
}

// Run ticks the emulator until the program completes, or MaxTicks
// is exceeded.
func (emu *Emulator) Run() (err error) {
	for {
		if emu.MaxTicks > 0 && emu.Machine.Ticks >= emu.MaxTicks && !emu.Machine.Done() {
			err = &ErrRuntime{LineNo: emu.LineNo(), Err: ErrTickLimit}
			return
		}

		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			break
		}
	}

	if emu.Machine.Logger != nil && emu.Verbose {
		emu.Machine.Logger.Debug("emulator: done", zap.Int("ticks", emu.Machine.Ticks), zap.Error(err))
	}

	return
}
