package bpf

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMachine_Unwritten(t *testing.T) {
	assert := assert.New(t)

	m := New(nil)
	for r := R0; r <= R10; r++ {
		assert.Equal(int64(0), m.Reg(r), r.String())
	}
	for n := range MEM_SIZE {
		if m.Memory[n] != 0 {
			t.Fatalf("memory %d not zero", n)
		}
	}

	done, err := m.Step()
	assert.NoError(err)
	assert.True(done)
	assert.True(m.Done())
}

func TestMachine_Add(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Add(R0, Imm(12)),
		Add(R1, Imm(13)),
		Add(R0, Reg(R1)),
		Stop(),
	})

	err := m.Run()
	assert.NoError(err)
	assert.Equal(int64(25), m.Reg(R0))
	assert.Equal(int64(13), m.Reg(R1))
	assert.Equal(3, m.Pc)
	assert.Equal(4, m.Ticks)
}

func TestMachine_Neg(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Add(R0, Imm(12)),
		Neg(R0),
		Stop(),
	})

	err := m.Run()
	assert.NoError(err)
	assert.Equal(int64(-12), m.Reg(R0))
}

func TestMachine_JaPastEnd(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Ja(Imm(5)),
		Stop(),
	})

	err := m.Run()
	assert.NoError(err)
	assert.Equal(6, m.Pc)
	assert.Equal(1, m.Ticks)
	assert.True(m.Done())
}

func fibEntries() []Entry {
	return []Entry{
		Insn(Lddw(R0, Imm(1))),
		Insn(Lddw(R1, Imm(0))),
		Insn(Lddw(R2, Imm(0))),
		Insn(Lddw(R3, Imm(10))),
		Label("TEST"),
		Insn(Jge(R2, Reg(R3), Lbl("FIN"))),
		Insn(Lddw(R4, Reg(R0))),
		Insn(Add(R0, Reg(R1))),
		Insn(Lddw(R1, Reg(R4))),
		Insn(Add(R2, Imm(1))),
		Insn(Ja(Lbl("TEST"))),
		Label("FIN"),
		Insn(Stop()),
	}
}

func TestMachine_Fibonacci(t *testing.T) {
	assert := assert.New(t)

	m, err := NewLabeled(fibEntries())
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	index, ok := m.Label("TEST")
	assert.True(ok)
	assert.Equal(4, index)
	index, ok = m.Label("FIN")
	assert.True(ok)
	assert.Equal(10, index)

	err = m.Run()
	assert.NoError(err)
	assert.Equal(int64(89), m.Reg(R0))
	assert.Equal(int64(55), m.Reg(R1))
	assert.Equal(int64(10), m.Reg(R2))
	assert.Equal(10, m.Pc)
}

func TestMachine_JltSkip(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Add(R0, Imm(3)),
		Add(R1, Imm(4)),
		Jlt(R0, Reg(R1), Imm(1)),
		Add(R0, Imm(20)),
		Stop(),
	})

	err := m.Run()
	assert.NoError(err)
	assert.Equal(int64(3), m.Reg(R0))
	assert.Equal(4, m.Pc)
}

func TestMachine_EndOfTape(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Add(R0, Imm(1)),
		Add(R0, Imm(1)),
	})

	err := m.Run()
	assert.NoError(err)
	assert.Equal(int64(2), m.Reg(R0))
	assert.Equal(2, m.Pc)
	assert.Equal(2, m.Ticks)
}

func TestMachine_TapeUnchanged(t *testing.T) {
	assert := assert.New(t)

	tape := []Instruction{
		Add(R0, Imm(1)),
		Stb(Imm(0), Reg(R0)),
		Stop(),
	}
	saved := append([]Instruction(nil), tape...)

	m := New(tape)
	assert.NoError(m.Run())
	assert.Equal(saved, m.Tape())
}

func TestMachine_Errors(t *testing.T) {
	table := [...]struct {
		name string
		tape []Instruction
		pc   int
		err  error
	}{
		{"div", []Instruction{Add(R0, Imm(1)), Div(R0, Imm(0))}, 1, ErrDivisionByZero},
		{"mod", []Instruction{Mod(R0, Reg(R1))}, 0, ErrDivisionByZero},
		{"invalid", []Instruction{{}}, 0, ErrOpcodeInvalid},
		{"opcode", []Instruction{{Op: Opcode(1000)}}, 0, ErrOpcodeInvalid},
		{"dst", []Instruction{Add(Register(11), Imm(1))}, 0, ErrRegisterRange},
		{"src", []Instruction{Add(R0, Reg(Register(-1)))}, 0, ErrRegisterRange},
		{"label", []Instruction{Ja(Lbl("NOWHERE"))}, 0, ErrLabelMissing("NOWHERE")},
		{"address", []Instruction{Ldxdw(R0, Imm(MEM_SIZE))}, 0, ErrOutOfBounds},
		{"pc", []Instruction{Ja(Imm(-3))}, -2, ErrPcRange},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			m := New(entry.tape)
			err := m.Run()
			assert.ErrorIs(err, entry.err)

			var exec *ErrExec
			assert.True(errors.As(err, &exec))
			assert.Equal(entry.pc, exec.Pc)
		})
	}
}

func TestMachine_RegisterRange(t *testing.T) {
	assert := assert.New(t)

	m := New(nil)
	assert.NoError(m.SetReg(R10, 5))
	assert.Equal(int64(5), m.Reg(R10))

	for _, r := range []Register{Register(-1), Register(REGISTER_COUNT), Register(100)} {
		assert.ErrorIs(m.SetReg(r, 1), ErrRegisterRange, r.String())
		assert.Equal(int64(0), m.Reg(r), r.String())
	}

	for r := R0; r < R10; r++ {
		assert.Equal(int64(0), m.Reg(r))
	}
}

func TestMachine_Reset(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Add(R3, Imm(7)),
		Stw(Imm(9), Reg(R3)),
		Stop(),
	})

	assert.NoError(m.Run())
	assert.Equal(int64(7), m.Reg(R3))
	assert.Equal(int64(7), m.Memory[9])

	m.Reset()
	assert.Equal(int64(0), m.Reg(R3))
	assert.Equal(int64(0), m.Memory[9])
	assert.Equal(0, m.Pc)
	assert.Equal(0, m.Ticks)

	// Runs identically after a reset.
	assert.NoError(m.Run())
	assert.Equal(int64(7), m.Reg(R3))
}

func TestMachine_String(t *testing.T) {
	assert := assert.New(t)

	m := New(nil)
	m.SetReg(R2, -1)
	m.Memory[12] = 0x2a

	text := m.String()
	assert.True(strings.Contains(text, "pc"))
	assert.True(strings.Contains(text, "r2: FFFFFFFFFFFFFFFF"))
	assert.True(strings.Contains(text, "[0012]: 000000000000002A"))
	assert.False(strings.Contains(text, "[0013]"))
}

func TestMachine_Defines(t *testing.T) {
	assert := assert.New(t)

	defines := map[string]string{}
	for key, value := range Defines() {
		defines[key] = value
	}

	assert.Equal("8000", defines["MEM_SIZE"])
	assert.Equal("11", defines["REGISTER_COUNT"])
	assert.Equal("64", defines["WIDTH_DW"])
}

func TestMachine_Verbose(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zap.DebugLevel)

	m := New([]Instruction{
		Add(R0, Imm(1)),
		Ja(Imm(0)),
		Stop(),
	})
	m.Logger = zap.New(core)

	// Silent unless verbose, sharing one discarding logger.
	assert.NoError(m.Run())
	assert.Equal(0, logs.Len())
	assert.Same(nopLogger, m.log())
	assert.Same(m.log(), m.log())

	m.Reset()
	m.Verbose = true
	assert.NoError(m.Run())
	assert.Equal(3, logs.FilterMessage("exec").Len())
	assert.Equal(1, logs.FilterMessage("jump").Len())
	assert.Equal(1, logs.FilterMessage("run complete").Len())
}
