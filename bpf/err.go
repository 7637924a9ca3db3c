// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"errors"

	"github.com/ezrec/bpfsim/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrDivisionByZero = errors.New(f("division by zero"))
	ErrOutOfBounds    = errors.New(f("address out of bounds"))
	ErrOpcodeInvalid  = errors.New(f("opcode invalid"))
	ErrRegisterRange  = errors.New(f("register out of range"))
	ErrPcRange        = errors.New(f("program counter out of range"))

	// Label resolution errors
	ErrLabelDuplicate = errors.New(f("label duplicated"))
	ErrLabelInvalid   = errors.New(f("label name empty"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrIndirectInvalid    = errors.New(f("indirect operand outside of load or store address"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrLabelMissing is returned when a label operand names no declared label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

func (el ErrLabelMissing) Is(err error) (ok bool) {
	_, ok = err.(ErrLabelMissing)
	return
}

// ErrAddress is returned when a computed memory index is outside of memory.
type ErrAddress struct {
	Address uint64 // Address after width truncation.
	Width   int    // Access width in bits.
}

func (err ErrAddress) Error() string {
	return f("address %#x (width %d) out of bounds", err.Address, err.Width)
}

func (err ErrAddress) Unwrap() error {
	return ErrOutOfBounds
}

// ErrExec locates a failure at a program counter.
type ErrExec struct {
	Pc   int
	Insn Instruction
	Err  error
}

func (err *ErrExec) Error() string {
	return f("pc %d '%v' %v", err.Pc, err.Insn, err.Err)
}

func (err *ErrExec) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a 32-bit number", string(err))
}

type ErrParseOperand string

func (err ErrParseOperand) Error() string {
	return f("'%v' is not a register, value or label", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
