// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Assembler is a macro assembler for the register machine.
//
// Each line holds an optional series of 'label:' prefixes, followed by
// a mnemonic and its space separated operands. Text after a ';' is a
// comment. Operands are registers (r0-r10), 32-bit numbers, character
// constants ('A'), $(...) compile-time expressions, indirect addresses
// ([r1], [r1+8], [r1-8]) or label names.
type Assembler struct {
	Verbose bool        // If set, verbosely logs the assembler actions.
	Logger  *zap.Logger // Destination of verbose logging.

	Statements []Statement // List of generated statements.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to tape indexes.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	pc        int // Tape index of the next instruction.
	expansion int // Count of macro expansions.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Predefines adds all of the defines as equates.
func (asm *Assembler) Predefines(defines iter.Seq2[string, string]) {
	for equ, value := range defines {
		asm.Predefine(equ, value)
	}
}

func (asm *Assembler) log() *zap.Logger {
	if !asm.Verbose || asm.Logger == nil {
		return nopLogger
	}

	return asm.Logger
}

// valueOf returns the value of a numeric word.
//
// Values from -0x80000000 to 0xffffffff are accepted; values above
// 0x7fffffff are taken as their 32-bit two's complement.
func (asm *Assembler) valueOf(word string) (value int32, err error) {
	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil || v64 < math.MinInt32 || v64 > math.MaxUint32 {
		err = ErrParseNumber(word)
		return
	}

	value = int32(uint32(v64))
	return
}

// operandOf parses a single operand word.
func (asm *Assembler) operandOf(word string) (op Operand, err error) {
	reg, ok := registerMap[word]
	if ok {
		op = Reg(reg)
		return
	}

	if strings.HasPrefix(word, "[") && strings.HasSuffix(word, "]") {
		op, err = asm.indirectOf(word[1 : len(word)-1])
		if err != nil {
			err = ErrParseOperand(word)
		}
		return
	}

	c := word[0]
	if c == '-' || c == '+' || (c >= '0' && c <= '9') {
		var value int32
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		op = Imm(value)
		return
	}

	if reLabel.MatchString(word) {
		op = Lbl(word)
		return
	}

	err = ErrParseOperand(word)
	return
}

// indirectOf parses the 'rN', 'rN+k' or 'rN-k' inside of an indirect operand.
func (asm *Assembler) indirectOf(text string) (op Operand, err error) {
	name := text
	offset := ""
	if n := strings.IndexAny(text, "+-"); n >= 0 {
		name = text[:n]
		offset = text[n:]
		if offset[0] == '+' {
			offset = offset[1:]
		}
	}

	reg, ok := registerMap[name]
	if !ok {
		err = ErrRegisterRange
		return
	}

	var value int32
	if len(offset) != 0 {
		value, err = asm.valueOf(offset)
		if err != nil {
			return
		}
	}

	op = Ind(reg, value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int32, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v64 int64
		v64, err = strconv.ParseInt(str, 0, 64)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < math.MinInt32 || st_int64 > math.MaxUint32 {
		err = ErrParseExpression(expr)
		return
	}
	value = int32(uint32(st_int64))
	return
}

// parseLine parses a single line into instruction words, recording
// equates, labels and macro expansions.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrParseOperand(label)
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.pc
		asm.Statements = append(asm.Statements, Statement{
			LineNo: lineno,
			Pc:     asm.pc,
			Words:  []string{words[0]},
			Entry:  Label(label),
		})
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per expansion.
		asm.expansion++
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.pc = 0
	asm.expansion = 0
	asm.Statements = asm.Statements[:0]
	asm.Label = make(map[string]int, 16)
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	log := asm.log()

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		log.Debug("asm", zap.Int("line", lineno), zap.String("text", text))

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final check of label references.
	for _, st := range asm.Statements {
		for _, op := range st.Entry.Insn.Operands() {
			if op.Kind != OPERAND_LABEL {
				continue
			}
			_, ok := asm.Label[op.Label]
			if !ok {
				lineno = st.LineNo
				line = strings.Join(st.Words, " ")
				err = ErrLabelMissing(op.Label)
				return
			}
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statements),
	}

	return
}

// parseWords converts the words of a line into an instruction statement.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	op, ok := opcodeMap[words[0]]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	args := words[1:]

	need := 0
	switch op.Class() {
	case CLASS_ALU, CLASS_LDDW, CLASS_LOAD, CLASS_STORE:
		need = 2
	case CLASS_NEG:
		need = 1
	case CLASS_JUMP:
		need = 3
		if op == OP_JA {
			need = 1
		}
	}

	if len(args) < need {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	ops := make([]Operand, need)
	for n, arg := range args {
		ops[n], err = asm.operandOf(arg)
		if err != nil {
			return
		}
	}

	insn := Instruction{Op: op}
	switch op.Class() {
	case CLASS_ALU, CLASS_LDDW, CLASS_LOAD:
		insn.Dst, err = asm.target(ops[0])
		insn.Src = ops[1]
	case CLASS_NEG:
		insn.Dst, err = asm.target(ops[0])
	case CLASS_STORE:
		insn.Addr = ops[0]
		insn.Src = ops[1]
	case CLASS_JUMP:
		if op == OP_JA {
			insn.Off = ops[0]
		} else {
			insn.Dst, err = asm.target(ops[0])
			insn.Src = ops[1]
			insn.Off = ops[2]
		}
		if insn.Off.Kind != OPERAND_IMM && insn.Off.Kind != OPERAND_LABEL {
			err = ErrTargetInvalid
		}
	}
	if err != nil {
		return
	}

	// Indirect operands only address loads and stores.
	if insn.Src.Kind == OPERAND_IND && op.Class() != CLASS_LOAD {
		err = ErrIndirectInvalid
		return
	}

	asm.Statements = append(asm.Statements, Statement{
		LineNo: lineno,
		Pc:     asm.pc,
		Words:  words,
		Entry:  Insn(insn),
	})
	asm.pc++

	return
}

// target requires an operand to be a destination register.
func (asm *Assembler) target(op Operand) (reg Register, err error) {
	if op.Kind != OPERAND_REG {
		err = ErrTargetInvalid
		return
	}

	reg = op.Reg
	return
}
