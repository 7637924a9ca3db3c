// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ezrec/bpfsim/bpf"
)

// renderRegisters formats the program counter and register file.
func renderRegisters(m *bpf.Machine) string {
	regTable := table.NewWriter()
	regTable.SetTitle(fmt.Sprintf("pc %d, %d ticks", m.Pc, m.Ticks))
	regTable.AppendHeader(table.Row{"Register", "Hex", "Decimal"})

	for r := bpf.R0; r <= bpf.R10; r++ {
		val := m.Reg(r)
		regTable.AppendRow(table.Row{r, fmt.Sprintf("%016X", uint64(val)), val})
	}

	return regTable.Render()
}

// renderMemory formats the non-zero memory cells.
func renderMemory(m *bpf.Machine) string {
	memTable := table.NewWriter()
	memTable.SetTitle("Memory")
	memTable.AppendHeader(table.Row{"Address", "Hex", "Decimal"})

	for n, val := range m.Memory {
		if val == 0 {
			continue
		}
		memTable.AppendRow(table.Row{n, fmt.Sprintf("%016X", uint64(val)), val})
	}

	return memTable.Render()
}

// renderListing formats the resolved tape of a program listing.
func renderListing(prog *bpf.Program) string {
	tapeTable := table.NewWriter()
	tapeTable.AppendHeader(table.Row{"Pc", "Labels", "Instruction", "Line"})

	var labels []string
	for _, st := range prog.Statements {
		if st.Entry.IsLabel() {
			labels = append(labels, st.Entry.Label)
			continue
		}
		tapeTable.AppendRow(table.Row{st.Pc, strings.Join(labels, " "), st.Entry.Insn, st.LineNo})
		labels = nil
	}

	// Trailing labels name the end of the tape.
	if len(labels) != 0 {
		tapeTable.AppendFooter(table.Row{"", strings.Join(labels, " "), "", ""})
	}

	return tapeTable.Render()
}
