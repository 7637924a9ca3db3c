// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package bpf implements a simulator and assembler for a simplified eBPF-like
// register machine.
//
// The machine consists of eleven 64-bit signed registers (r0-r10), a flat
// memory of MEM_SIZE 64-bit cells indexed by word, a program counter, and an
// instruction tape. Instructions cover 64-bit ALU operations, width-aware
// loads and stores, and conditional or unconditional jumps whose offsets may
// be given as symbolic labels.
//
// Programs are either built directly as a flat []Instruction, as a labeled
// []Entry resolved by Resolve, or assembled from text by the Assembler.
package bpf
