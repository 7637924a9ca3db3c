// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"go.uber.org/zap"
)

// Step executes the instruction at the program counter.
//
// done is set when a stop instruction executes, or when the program
// counter is past the end of the tape. A stop does not advance the
// program counter.
func (m *Machine) Step() (done bool, err error) {
	if m.Done() {
		done = true
		return
	}

	if m.Pc < 0 {
		err = &ErrExec{Pc: m.Pc, Err: ErrPcRange}
		return
	}

	pc := m.Pc
	insn := m.tape[pc]

	defer func() {
		if err != nil {
			err = &ErrExec{Pc: pc, Insn: insn, Err: err}
		}
	}()

	done, err = m.Execute(insn)
	return
}

// Execute executes a single instruction at the current program counter.
func (m *Machine) Execute(insn Instruction) (done bool, err error) {
	log := m.log()
	log.Debug("exec", zap.Int("pc", m.Pc), zap.Stringer("insn", insn))

	if !insn.Dst.Valid() {
		err = ErrRegisterRange
		return
	}

	switch insn.Op.Class() {
	case CLASS_ALU:
		var value int64
		value, err = m.valueOfBinop(insn)
		if err != nil {
			return
		}
		m.Register[insn.Dst] = value
	case CLASS_NEG:
		m.Register[insn.Dst] = -m.Register[insn.Dst]
	case CLASS_LDDW:
		var value int64
		value, err = m.valueOf(insn.Src)
		if err != nil {
			return
		}
		m.Register[insn.Dst] = value
	case CLASS_LOAD:
		err = m.load(insn.Dst, insn.Src, insn.Op.Width())
		if err != nil {
			return
		}
	case CLASS_STORE:
		err = m.store(insn.Addr, insn.Src, insn.Op.Width())
		if err != nil {
			return
		}
	case CLASS_JUMP:
		var taken bool
		taken, err = m.doJump(insn)
		if err != nil {
			return
		}
		if taken {
			log.Debug("jump", zap.Int("pc", m.Pc+1))
		}
	case CLASS_STOP:
		m.Ticks++
		done = true
		return
	default:
		err = ErrOpcodeInvalid
		return
	}

	m.Ticks++
	m.Pc++

	return
}

// Run executes the tape until a stop instruction, the end of the tape,
// or an error.
func (m *Machine) Run() (err error) {
	for {
		var done bool
		done, err = m.Step()
		if done || err != nil {
			break
		}
	}

	m.log().Debug("run complete", zap.Int("pc", m.Pc), zap.Int("ticks", m.Ticks), zap.Error(err))

	return
}
