package bpf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_Load(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Ldxdw(R0, Imm(0)),
		Stop(),
	})
	m.Memory[0] = 23

	assert.NoError(m.Run())
	assert.Equal(int64(23), m.Reg(R0))
}

func TestMemory_Store(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Lddw(R1, Imm(100)),
		Stdw(Imm(5), Imm(-9)),
		Stw(Reg(R1), Reg(R1)),
		Sth(Ind(R1, 8), Imm(0x1234)),
		Stb(Ind(R1, -1), Imm(0x7fffffff)),
		Ldxw(R2, Ind(R1, 8)),
		Stop(),
	})

	assert.NoError(m.Run())
	assert.Equal(int64(-9), m.Memory[5])
	assert.Equal(int64(100), m.Memory[100])
	assert.Equal(int64(0x1234), m.Memory[108])
	// The full value is stored regardless of the access width.
	assert.Equal(int64(0x7fffffff), m.Memory[99])
	assert.Equal(int64(0x1234), m.Reg(R2))
}

func TestMemory_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, addr := range []int32{0, 1, 255, 1000, MEM_SIZE - 1} {
		m := New([]Instruction{
			Lddw(R1, Imm(-12345)),
			Stdw(Imm(addr), Reg(R1)),
			Ldxdw(R2, Imm(addr)),
			Stop(),
		})
		assert.NoError(m.Run())
		assert.Equal(int64(-12345), m.Reg(R2))
	}
}

func TestMemory_Width(t *testing.T) {
	table := [...]struct {
		name    string
		width   int
		address int64
		index   uint64
		fault   bool
	}{
		{"b-wrap", WIDTH_B, 256 + 5, 5, false},
		{"b-negative", WIDTH_B, -1, 0xff, false},
		{"h-wrap", WIDTH_H, 0x10000 + 3, 3, false},
		{"h-fault", WIDTH_H, MEM_SIZE, MEM_SIZE, true},
		{"w-wrap", WIDTH_W, 0x100000000 + 7, 7, false},
		{"w-fault", WIDTH_W, -1, 0xffffffff, true},
		{"dw-last", WIDTH_DW, MEM_SIZE - 1, MEM_SIZE - 1, false},
		{"dw-fault", WIDTH_DW, MEM_SIZE, MEM_SIZE, true},
		{"dw-negative", WIDTH_DW, -1, ^uint64(0), true},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			m := New(nil)
			m.SetReg(R1, entry.address)

			index, err := m.address(Reg(R1), entry.width)
			if entry.fault {
				assert.ErrorIs(err, ErrOutOfBounds)
				var ea ErrAddress
				assert.True(errors.As(err, &ea))
				assert.Equal(entry.index, ea.Address)
				assert.Equal(entry.width, ea.Width)
				return
			}

			assert.NoError(err)
			assert.Equal(entry.index, index)
		})
	}
}

func TestMemory_Fault(t *testing.T) {
	assert := assert.New(t)

	m := New([]Instruction{
		Lddw(R1, Imm(MEM_SIZE)),
		Stdw(Reg(R1), Imm(1)),
		Stop(),
	})

	err := m.Run()
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.Equal(1, m.Pc)

	var exec *ErrExec
	assert.True(errors.As(err, &exec))
	assert.Equal(OP_STDW, exec.Insn.Op)

	// The same address wraps into range as a byte store.
	m = New([]Instruction{
		Lddw(R1, Imm(MEM_SIZE)),
		Stb(Reg(R1), Imm(1)),
		Stop(),
	})
	assert.NoError(m.Run())
	assert.Equal(int64(1), m.Memory[MEM_SIZE&0xff])
}
