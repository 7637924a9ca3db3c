// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"fmt"
	"strings"
)

// Opcode is an instruction operation.
type Opcode int

const (
	OP_INVALID = Opcode(iota) // invalid

	// ALU operations: dst = dst <op> src
	OP_ADD  // add
	OP_SUB  // sub
	OP_MUL  // mul
	OP_DIV  // div
	OP_OR   // or
	OP_AND  // and
	OP_LSH  // lsh
	OP_RSH  // rsh
	OP_MOD  // mod
	OP_XOR  // xor
	OP_MOV  // mov
	OP_ARSH // arsh

	OP_NEG  // neg
	OP_LDDW // lddw

	// Indirect loads: dst = mem[src]
	OP_LDXB  // ldxb
	OP_LDXH  // ldxh
	OP_LDXW  // ldxw
	OP_LDXDW // ldxdw

	// Indirect stores: mem[addr] = src
	OP_STB  // stb
	OP_STH  // sth
	OP_STW  // stw
	OP_STDW // stdw

	// Jumps: if dst <cmp> src { pc += off }
	OP_JA   // ja
	OP_JEQ  // jeq
	OP_JNE  // jne
	OP_JSET // jset
	OP_JGT  // jgt
	OP_JGE  // jge
	OP_JLT  // jlt
	OP_JLE  // jle
	OP_JSGT // jsgt
	OP_JSGE // jsge
	OP_JSLT // jslt
	OP_JSLE // jsle

	OP_STOP // stop
)

// CodeClass is the dispatch category of an opcode.
type CodeClass int

const (
	CLASS_INVALID = CodeClass(0) // invalid
	CLASS_ALU     = CodeClass(1) // alu
	CLASS_NEG     = CodeClass(2) // neg
	CLASS_LDDW    = CodeClass(3) // lddw
	CLASS_LOAD    = CodeClass(4) // load
	CLASS_STORE   = CodeClass(5) // store
	CLASS_JUMP    = CodeClass(6) // jump
	CLASS_STOP    = CodeClass(7) // stop
)

// Memory access widths, in bits.
const (
	WIDTH_B  = 8
	WIDTH_H  = 16
	WIDTH_W  = 32
	WIDTH_DW = 64
)

type opcodeInfo struct {
	name  string
	class CodeClass
	width int
}

var opcodeTable = [...]opcodeInfo{
	OP_INVALID: {"invalid", CLASS_INVALID, 0},
	OP_ADD:     {"add", CLASS_ALU, 0},
	OP_SUB:     {"sub", CLASS_ALU, 0},
	OP_MUL:     {"mul", CLASS_ALU, 0},
	OP_DIV:     {"div", CLASS_ALU, 0},
	OP_OR:      {"or", CLASS_ALU, 0},
	OP_AND:     {"and", CLASS_ALU, 0},
	OP_LSH:     {"lsh", CLASS_ALU, 0},
	OP_RSH:     {"rsh", CLASS_ALU, 0},
	OP_MOD:     {"mod", CLASS_ALU, 0},
	OP_XOR:     {"xor", CLASS_ALU, 0},
	OP_MOV:     {"mov", CLASS_ALU, 0},
	OP_ARSH:    {"arsh", CLASS_ALU, 0},
	OP_NEG:     {"neg", CLASS_NEG, 0},
	OP_LDDW:    {"lddw", CLASS_LDDW, 0},
	OP_LDXB:    {"ldxb", CLASS_LOAD, WIDTH_B},
	OP_LDXH:    {"ldxh", CLASS_LOAD, WIDTH_H},
	OP_LDXW:    {"ldxw", CLASS_LOAD, WIDTH_W},
	OP_LDXDW:   {"ldxdw", CLASS_LOAD, WIDTH_DW},
	OP_STB:     {"stb", CLASS_STORE, WIDTH_B},
	OP_STH:     {"sth", CLASS_STORE, WIDTH_H},
	OP_STW:     {"stw", CLASS_STORE, WIDTH_W},
	OP_STDW:    {"stdw", CLASS_STORE, WIDTH_DW},
	OP_JA:      {"ja", CLASS_JUMP, 0},
	OP_JEQ:     {"jeq", CLASS_JUMP, 0},
	OP_JNE:     {"jne", CLASS_JUMP, 0},
	OP_JSET:    {"jset", CLASS_JUMP, 0},
	OP_JGT:     {"jgt", CLASS_JUMP, 0},
	OP_JGE:     {"jge", CLASS_JUMP, 0},
	OP_JLT:     {"jlt", CLASS_JUMP, 0},
	OP_JLE:     {"jle", CLASS_JUMP, 0},
	OP_JSGT:    {"jsgt", CLASS_JUMP, 0},
	OP_JSGE:    {"jsge", CLASS_JUMP, 0},
	OP_JSLT:    {"jslt", CLASS_JUMP, 0},
	OP_JSLE:    {"jsle", CLASS_JUMP, 0},
	OP_STOP:    {"stop", CLASS_STOP, 0},
}

// opcodeMap maps assembler mnemonics to opcodes.
var opcodeMap = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		if Opcode(op) == OP_INVALID {
			continue
		}
		m[info.name] = Opcode(op)
	}
	return m
}()

func (op Opcode) info() opcodeInfo {
	if op < 0 || int(op) >= len(opcodeTable) {
		return opcodeTable[OP_INVALID]
	}
	return opcodeTable[op]
}

func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opcodeTable) {
		return fmt.Sprintf("Opcode(%d)", int(op))
	}
	return opcodeTable[op].name
}

// Class returns the dispatch category of the opcode.
func (op Opcode) Class() CodeClass {
	return op.info().class
}

// Width returns the access width in bits of a load or store, or 0.
func (op Opcode) Width() int {
	return op.info().width
}

// Instruction is a single decoded instruction on the tape.
//
// Fields are used according to the opcode class:
//   - ALU, lddw, loads: Dst, Src
//   - neg: Dst
//   - stores: Addr, Src
//   - ja: Off
//   - conditional jumps: Dst, Src, Off
type Instruction struct {
	Op   Opcode
	Dst  Register
	Src  Operand
	Addr Operand
	Off  Operand
}

func makeAlu(op Opcode, dst Register, src Operand) Instruction {
	return Instruction{Op: op, Dst: dst, Src: src}
}

func makeStore(op Opcode, addr Operand, src Operand) Instruction {
	return Instruction{Op: op, Addr: addr, Src: src}
}

func makeJump(op Opcode, dst Register, src Operand, off Operand) Instruction {
	return Instruction{Op: op, Dst: dst, Src: src, Off: off}
}

func Add(dst Register, src Operand) Instruction  { return makeAlu(OP_ADD, dst, src) }
func Sub(dst Register, src Operand) Instruction  { return makeAlu(OP_SUB, dst, src) }
func Mul(dst Register, src Operand) Instruction  { return makeAlu(OP_MUL, dst, src) }
func Div(dst Register, src Operand) Instruction  { return makeAlu(OP_DIV, dst, src) }
func Or(dst Register, src Operand) Instruction   { return makeAlu(OP_OR, dst, src) }
func And(dst Register, src Operand) Instruction  { return makeAlu(OP_AND, dst, src) }
func Lsh(dst Register, src Operand) Instruction  { return makeAlu(OP_LSH, dst, src) }
func Rsh(dst Register, src Operand) Instruction  { return makeAlu(OP_RSH, dst, src) }
func Mod(dst Register, src Operand) Instruction  { return makeAlu(OP_MOD, dst, src) }
func Xor(dst Register, src Operand) Instruction  { return makeAlu(OP_XOR, dst, src) }
func Mov(dst Register, src Operand) Instruction  { return makeAlu(OP_MOV, dst, src) }
func Arsh(dst Register, src Operand) Instruction { return makeAlu(OP_ARSH, dst, src) }

// Neg negates a register.
func Neg(dst Register) Instruction { return Instruction{Op: OP_NEG, Dst: dst} }

// Lddw loads the value of an operand directly into a register.
func Lddw(dst Register, src Operand) Instruction { return makeAlu(OP_LDDW, dst, src) }

func Ldxb(dst Register, addr Operand) Instruction  { return makeAlu(OP_LDXB, dst, addr) }
func Ldxh(dst Register, addr Operand) Instruction  { return makeAlu(OP_LDXH, dst, addr) }
func Ldxw(dst Register, addr Operand) Instruction  { return makeAlu(OP_LDXW, dst, addr) }
func Ldxdw(dst Register, addr Operand) Instruction { return makeAlu(OP_LDXDW, dst, addr) }

func Stb(addr Operand, src Operand) Instruction  { return makeStore(OP_STB, addr, src) }
func Sth(addr Operand, src Operand) Instruction  { return makeStore(OP_STH, addr, src) }
func Stw(addr Operand, src Operand) Instruction  { return makeStore(OP_STW, addr, src) }
func Stdw(addr Operand, src Operand) Instruction { return makeStore(OP_STDW, addr, src) }

// Ja jumps unconditionally.
func Ja(off Operand) Instruction { return Instruction{Op: OP_JA, Off: off} }

// Conditional jumps, taken if dst <cmp> src.

func Jeq(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JEQ, dst, src, off)
}

func Jne(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JNE, dst, src, off)
}

func Jset(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JSET, dst, src, off)
}

func Jgt(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JGT, dst, src, off)
}

func Jge(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JGE, dst, src, off)
}

func Jlt(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JLT, dst, src, off)
}

func Jle(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JLE, dst, src, off)
}

func Jsgt(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JSGT, dst, src, off)
}

func Jsge(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JSGE, dst, src, off)
}

func Jslt(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JSLT, dst, src, off)
}

func Jsle(dst Register, src Operand, off Operand) Instruction {
	return makeJump(OP_JSLE, dst, src, off)
}

// Stop terminates execution.
func Stop() Instruction { return Instruction{Op: OP_STOP} }

// Operands returns the operands used by the instruction, in assembler order.
func (insn Instruction) Operands() (ops []Operand) {
	switch insn.Op.Class() {
	case CLASS_ALU, CLASS_LDDW, CLASS_LOAD:
		ops = []Operand{Reg(insn.Dst), insn.Src}
	case CLASS_NEG:
		ops = []Operand{Reg(insn.Dst)}
	case CLASS_STORE:
		ops = []Operand{insn.Addr, insn.Src}
	case CLASS_JUMP:
		if insn.Op == OP_JA {
			ops = []Operand{insn.Off}
		} else {
			ops = []Operand{Reg(insn.Dst), insn.Src, insn.Off}
		}
	}

	return
}

// String returns the instruction in assembler syntax.
func (insn Instruction) String() string {
	words := []string{insn.Op.String()}
	for _, op := range insn.Operands() {
		words = append(words, op.String())
	}

	return strings.Join(words, " ")
}
