// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"

	"github.com/ezrec/bpfsim/bpf"
	"github.com/ezrec/bpfsim/emulator"
)

var logger = zap.NewNop()

// assemble parses a source file into a program listing.
func assemble(filename string, emu *emulator.Emulator, verbose bool) (prog *bpf.Program, err error) {
	inf, err := os.Open(filename)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &bpf.Assembler{
		Verbose: verbose,
		Logger:  logger,
	}
	asm.Predefines(emu.Defines())

	prog, err = asm.Parse(inf)
	return
}

func main() {
	var verbose bool
	var regs []string
	var mems []string
	var maxTicks int
	var dumpMem bool

	var rootCmd = &cobra.Command{
		Use:   "bpfsim",
		Short: "Register machine simulator",
		Long: `Assembles and executes programs for an eBPF-like register machine
with eleven 64-bit registers and a word addressed memory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				return
			}
			dev, err := zap.NewDevelopment()
			if err != nil {
				atexit.Fatalf("bpfsim: %v", err)
			}
			logger = dev
			atexit.Register(func() { _ = logger.Sync() })
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")

	var runCmd = &cobra.Command{
		Use:   "run FILE",
		Short: "Assemble and execute a program",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			filename := args[0]

			emu := emulator.NewEmulator()
			emu.Verbose = verbose
			emu.Machine.Logger = logger
			emu.MaxTicks = maxTicks

			prog, err := assemble(filename, emu, verbose)
			if err != nil {
				atexit.Fatalf("%v: %v", filename, err)
			}

			err = emu.Load(prog)
			if err != nil {
				atexit.Fatalf("%v: %v", filename, err)
			}

			err = emu.Seed(regs, mems)
			if err != nil {
				atexit.Fatalf("%v: %v", filename, err)
			}

			err = emu.Run()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRegisters(emu.Machine))
			if dumpMem {
				fmt.Fprintln(out, renderMemory(emu.Machine))
			}

			if err != nil {
				atexit.Fatalf("%v: %v", filename, err)
			}
		},
	}
	runCmd.Flags().StringArrayVar(&regs, "reg", nil, "Seed a register before execution (rN=VALUE)")
	runCmd.Flags().StringArrayVar(&mems, "mem", nil, "Seed a memory cell before execution (ADDRESS=VALUE)")
	runCmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "Maximum ticks to execute, or 0 for unlimited")
	runCmd.Flags().BoolVar(&dumpMem, "dump-mem", false, "Dump non-zero memory after execution")

	var asmCmd = &cobra.Command{
		Use:   "asm FILE",
		Short: "Assemble a program and print the resolved tape",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			filename := args[0]

			emu := emulator.NewEmulator()
			prog, err := assemble(filename, emu, verbose)
			if err != nil {
				atexit.Fatalf("%v: %v", filename, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderListing(prog))
		},
	}

	rootCmd.AddCommand(runCmd, asmCmd)

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
