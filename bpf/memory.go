// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

// address computes the memory index for an access of the given width.
//
// The operand value is truncated to its low 'width' bits; the result is
// not range limited, so narrow accesses wrap while 64-bit accesses can
// land outside of memory.
func (m *Machine) address(op Operand, width int) (index uint64, err error) {
	value, err := m.valueOf(op)
	if err != nil {
		return
	}

	cut := uint64(64 - width)
	index = (uint64(value) << cut) >> cut

	if index >= MEM_SIZE {
		err = ErrAddress{Address: index, Width: width}
		return
	}

	return
}

// load copies a memory cell into a register. The full cell is
// loaded, regardless of width.
func (m *Machine) load(dst Register, addr Operand, width int) (err error) {
	index, err := m.address(addr, width)
	if err != nil {
		return
	}

	m.Register[dst] = m.Memory[index]

	return
}

// store writes the value of an operand into a memory cell. The full
// value is stored, regardless of width.
func (m *Machine) store(addr Operand, val Operand, width int) (err error) {
	index, err := m.address(addr, width)
	if err != nil {
		return
	}

	value, err := m.valueOf(val)
	if err != nil {
		return
	}

	m.Memory[index] = value

	return
}
