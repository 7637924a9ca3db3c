package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/bpfsim/bpf"
)

func TestRenderRegisters(t *testing.T) {
	assert := assert.New(t)

	m := bpf.New(nil)
	m.SetReg(bpf.R3, -1)

	text := renderRegisters(m)
	assert.True(strings.Contains(text, "r3"))
	assert.True(strings.Contains(text, "r10"))
	assert.True(strings.Contains(text, "FFFFFFFFFFFFFFFF"))
}

func TestRenderMemory(t *testing.T) {
	assert := assert.New(t)

	m := bpf.New(nil)
	m.Memory[42] = 7

	text := renderMemory(m)
	assert.True(strings.Contains(text, "42"))
	assert.True(strings.Contains(text, "0000000000000007"))
}

func TestRenderListing(t *testing.T) {
	assert := assert.New(t)

	asm := &bpf.Assembler{}
	prog, err := asm.Parse(strings.NewReader("LOOP: add r0 1\njlt r0 5 LOOP\nEND:\n"))
	assert.NoError(err)

	text := renderListing(prog)
	assert.True(strings.Contains(text, "LOOP"))
	assert.True(strings.Contains(text, "add r0 1"))
	assert.True(strings.Contains(text, "jlt r0 5 LOOP"))
	assert.True(strings.Contains(text, "END"))
}
