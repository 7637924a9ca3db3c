// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"fmt"
)

// OperandKind selects how an Operand produces its value.
type OperandKind int

const (
	OPERAND_IMM   = OperandKind(0) // imm
	OPERAND_LABEL = OperandKind(1) // label
	OPERAND_REG   = OperandKind(2) // reg
	OPERAND_IND   = OperandKind(3) // ind
)

var operandKindName = [...]string{"imm", "label", "reg", "ind"}

func (kind OperandKind) String() string {
	if kind < 0 || int(kind) >= len(operandKindName) {
		return fmt.Sprintf("OperandKind(%d)", int(kind))
	}
	return operandKindName[kind]
}

// Operand is a value source for an instruction.
//
//   - OPERAND_IMM: the literal Imm, sign extended to 64 bits.
//   - OPERAND_LABEL: the pc-relative displacement to the instruction named by Label.
//   - OPERAND_REG: the current value of Reg.
//   - OPERAND_IND: the value of Reg plus Imm, used as a load/store address.
type Operand struct {
	Kind  OperandKind
	Imm   int32
	Reg   Register
	Label string
}

// Imm is an immediate literal operand.
func Imm(value int32) Operand {
	return Operand{Kind: OPERAND_IMM, Imm: value}
}

// Lbl is a label operand.
func Lbl(name string) Operand {
	return Operand{Kind: OPERAND_LABEL, Label: name}
}

// Reg is a register operand.
func Reg(reg Register) Operand {
	return Operand{Kind: OPERAND_REG, Reg: reg}
}

// Ind is a register plus offset operand.
func Ind(reg Register, offset int32) Operand {
	return Operand{Kind: OPERAND_IND, Reg: reg, Imm: offset}
}

// String returns the assembler syntax of the operand.
func (op Operand) String() string {
	switch op.Kind {
	case OPERAND_IMM:
		return fmt.Sprintf("%d", op.Imm)
	case OPERAND_LABEL:
		return op.Label
	case OPERAND_REG:
		return op.Reg.String()
	case OPERAND_IND:
		switch {
		case op.Imm > 0:
			return fmt.Sprintf("[%v+%d]", op.Reg, op.Imm)
		case op.Imm < 0:
			return fmt.Sprintf("[%v%d]", op.Reg, op.Imm)
		default:
			return fmt.Sprintf("[%v]", op.Reg)
		}
	}

	return fmt.Sprintf("<%v>", op.Kind)
}
