// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bpf

import (
	"fmt"
	"iter"
	"slices"
)

// EntryKind selects whether an Entry is an instruction or a label.
type EntryKind int

const (
	ENTRY_INSN  = EntryKind(0) // insn
	ENTRY_LABEL = EntryKind(1) // label
)

// Entry is an element of a labeled program: either an instruction, or
// a label naming the position of the next instruction.
type Entry struct {
	Kind  EntryKind   // Kind of entry.
	Label string      // Label name, for ENTRY_LABEL.
	Insn  Instruction // Instruction, for ENTRY_INSN.
}

// Label declares a label at the position of the next instruction.
func Label(name string) Entry {
	return Entry{Kind: ENTRY_LABEL, Label: name}
}

// Insn wraps an instruction as a labeled program entry.
func Insn(insn Instruction) Entry {
	return Entry{Kind: ENTRY_INSN, Insn: insn}
}

// IsLabel returns true if the entry is a label declaration.
func (entry Entry) IsLabel() bool {
	return entry.Kind == ENTRY_LABEL
}

// Resolve converts a labeled program into a flat tape and a map of label
// names to tape indexes.
//
// Label names must be non-empty and unique, and every label referenced by
// an instruction operand must be declared.
func Resolve(entries []Entry) (labels map[string]int, tape []Instruction, err error) {
	labels = make(map[string]int, 16)

	// First pass, bind labels to the count of instructions before them.
	var count int
	for _, entry := range entries {
		if !entry.IsLabel() {
			count++
			continue
		}
		if len(entry.Label) == 0 {
			err = ErrLabelInvalid
			return
		}
		_, ok := labels[entry.Label]
		if ok {
			err = fmt.Errorf("%w: %v", ErrLabelDuplicate, entry.Label)
			return
		}
		labels[entry.Label] = count
	}

	// Second pass, strip labels.
	tape = make([]Instruction, 0, count)
	for _, entry := range entries {
		if entry.IsLabel() {
			continue
		}
		for _, op := range entry.Insn.Operands() {
			if op.Kind != OPERAND_LABEL {
				continue
			}
			_, ok := labels[op.Label]
			if !ok {
				err = ErrLabelMissing(op.Label)
				return
			}
		}
		tape = append(tape, entry.Insn)
	}

	return
}

// Statement is a line of assembled source and the entry it produced.
type Statement struct {
	LineNo int      // Source line number.
	Pc     int      // Tape index of the instruction, or of the next instruction for labels.
	Words  []string // Source words.
	Entry  Entry    // Generated entry.
}

// Program is an assembled listing.
type Program struct {
	Statements []Statement
}

// Entries returns the labeled program.
func (prog *Program) Entries() (entries []Entry) {
	entries = make([]Entry, 0, len(prog.Statements))
	for _, st := range prog.Statements {
		entries = append(entries, st.Entry)
	}

	return
}

// Labels returns the labels declared in the listing, in source order.
func (prog *Program) Labels() (labels []string) {
	for _, st := range prog.Statements {
		if st.Entry.IsLabel() {
			labels = append(labels, st.Entry.Label)
		}
	}

	return
}

// Instructions iterates over the tape index and instruction of each statement.
func (prog *Program) Instructions() iter.Seq2[int, Instruction] {
	return func(yield func(pc int, insn Instruction) bool) {
		for _, st := range prog.Statements {
			if st.Entry.IsLabel() {
				continue
			}
			if !yield(st.Pc, st.Entry.Insn) {
				return
			}
		}
	}
}

// Debug returns the statement which generated the instruction at pc.
func (prog *Program) Debug(pc int) (st *Statement, ok bool) {
	n := slices.IndexFunc(prog.Statements, func(st Statement) bool {
		return !st.Entry.IsLabel() && st.Pc == pc
	})
	if n < 0 {
		return
	}

	return &prog.Statements[n], true
}
