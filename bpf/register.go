// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"fmt"
)

// Register is a register file index.
type Register int

const (
	R0  = Register(0)  // r0
	R1  = Register(1)  // r1
	R2  = Register(2)  // r2
	R3  = Register(3)  // r3
	R4  = Register(4)  // r4
	R5  = Register(5)  // r5
	R6  = Register(6)  // r6
	R7  = Register(7)  // r7
	R8  = Register(8)  // r8
	R9  = Register(9)  // r9
	R10 = Register(10) // r10
)

const (
	REGISTER_COUNT = 11 // Size of the register file.
)

// Valid returns true if the register is one of r0-r10.
func (r Register) Valid() bool {
	return r >= R0 && r <= R10
}

func (r Register) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Register(%d)", int(r))
	}
	return fmt.Sprintf("r%d", int(r))
}

// registerMap maps assembler register names.
var registerMap = map[string]Register{
	"r0":  R0,
	"r1":  R1,
	"r2":  R2,
	"r3":  R3,
	"r4":  R4,
	"r5":  R5,
	"r6":  R6,
	"r7":  R7,
	"r8":  R8,
	"r9":  R9,
	"r10": R10,
}
