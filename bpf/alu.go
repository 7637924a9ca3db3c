// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

// SHIFT_MASK clamps shift counts to the 64-bit register width.
const SHIFT_MASK = 0x3f

// valueOf resolves an operand to its 64-bit value.
func (m *Machine) valueOf(op Operand) (value int64, err error) {
	switch op.Kind {
	case OPERAND_IMM:
		value = int64(op.Imm)
	case OPERAND_LABEL:
		target, ok := m.labels[op.Label]
		if !ok {
			err = ErrLabelMissing(op.Label)
			return
		}
		// The dispatch loop adds one after every branch.
		value = int64(target - m.Pc - 1)
	case OPERAND_REG:
		if !op.Reg.Valid() {
			err = ErrRegisterRange
			return
		}
		value = m.Register[op.Reg]
	case OPERAND_IND:
		if !op.Reg.Valid() {
			err = ErrRegisterRange
			return
		}
		value = m.Register[op.Reg] + int64(op.Imm)
	default:
		err = ErrOpcodeInvalid
	}

	return
}

// valueOfBinop computes the result of an ALU instruction, using the current
// value of the destination register as the left hand side.
func (m *Machine) valueOfBinop(insn Instruction) (output int64, err error) {
	if insn.Op.Class() != CLASS_ALU {
		err = ErrOpcodeInvalid
		return
	}

	input := m.Register[insn.Dst]
	value, err := m.valueOf(insn.Src)
	if err != nil {
		return
	}

	output, err = doAlu(insn.Op, input, value)
	return
}

// doAlu performs the requested ALU operation.
func doAlu(op Opcode, input int64, value int64) (output int64, err error) {
	switch op {
	case OP_ADD:
		output = input + value
	case OP_SUB:
		output = input - value
	case OP_MUL:
		output = input * value
	case OP_DIV:
		if value == 0 {
			err = ErrDivisionByZero
			return
		}
		output = input / value
	case OP_OR:
		output = input | value
	case OP_AND:
		output = input & value
	case OP_LSH:
		output = input << (uint64(value) & SHIFT_MASK)
	case OP_RSH:
		// Logical shift, the sign bit is not extended.
		output = int64(uint64(input) >> (uint64(value) & SHIFT_MASK))
	case OP_MOD:
		if value == 0 {
			err = ErrDivisionByZero
			return
		}
		output = input % value
	case OP_XOR:
		output = input ^ value
	case OP_MOV:
		output = value
	case OP_ARSH:
		output = input >> (uint64(value) & SHIFT_MASK)
	default:
		err = ErrOpcodeInvalid
	}

	return
}
