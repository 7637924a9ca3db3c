// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"golang.org/x/exp/constraints"
)

// Predicate compares the two operands of a conditional jump.
type Predicate[T constraints.Integer] func(a, b T) bool

var unsignedPredicate = map[Opcode]Predicate[uint64]{
	OP_JEQ:  func(a, b uint64) bool { return a == b },
	OP_JNE:  func(a, b uint64) bool { return a != b },
	OP_JSET: func(a, b uint64) bool { return a&b != 0 },
	OP_JGT:  func(a, b uint64) bool { return a > b },
	OP_JGE:  func(a, b uint64) bool { return a >= b },
	OP_JLT:  func(a, b uint64) bool { return a < b },
	OP_JLE:  func(a, b uint64) bool { return a <= b },
}

var signedPredicate = map[Opcode]Predicate[int64]{
	OP_JSGT: func(a, b int64) bool { return a > b },
	OP_JSGE: func(a, b int64) bool { return a >= b },
	OP_JSLT: func(a, b int64) bool { return a < b },
	OP_JSLE: func(a, b int64) bool { return a <= b },
}

// always is the predicate of an unconditional jump.
var always Predicate[int64] = func(a, b int64) bool { return true }

// branch reinterprets a and b as T, and if the predicate holds applies
// the offset to the program counter.
func branch[T constraints.Integer](m *Machine, a, b int64, off Operand, pred Predicate[T]) (taken bool, err error) {
	disp, err := m.valueOf(off)
	if err != nil {
		return
	}

	taken = pred(T(a), T(b))
	if taken {
		m.Pc += int(disp)
	}

	return
}

// doJump evaluates a jump instruction.
func (m *Machine) doJump(insn Instruction) (taken bool, err error) {
	if insn.Op == OP_JA {
		return branch(m, 0, 0, insn.Off, always)
	}

	a := m.Register[insn.Dst]
	b, err := m.valueOf(insn.Src)
	if err != nil {
		return
	}

	if pred, ok := unsignedPredicate[insn.Op]; ok {
		return branch(m, a, b, insn.Off, pred)
	}

	if pred, ok := signedPredicate[insn.Op]; ok {
		return branch(m, a, b, insn.Off, pred)
	}

	err = ErrOpcodeInvalid
	return
}
