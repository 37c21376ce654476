// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/mumips/emulator"
	"github.com/ezrec/mumips/translate"
)

// loadProgram loads assembly (.s, .asm) or a hex image into the emulator.
func loadProgram(emu *emulator.Emulator, path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
		err = emu.Assemble(inf)
	default:
		err = emu.LoadHex(inf)
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}

	return
}

func main() {
	var verbose bool
	var lang string

	var rootCmd = &cobra.Command{
		Use:           "mumips",
		Short:         "MIPS instruction set simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose mode")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "", "Message language, defaults to the system locale")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if len(lang) != 0 {
			translate.SetLanguage(lang)
		}
	}

	newEmulator := func(path string) (emu *emulator.Emulator, err error) {
		emu = emulator.NewEmulator()
		emu.Verbose = verbose
		err = loadProgram(emu, path)
		return
	}

	var limit int
	var simCmd = &cobra.Command{
		Use:   "sim PROGRAM",
		Short: "Simulate a program to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, err := newEmulator(args[0])
			if err != nil {
				return
			}

			out := cmd.OutOrStdout()
			sh := &Shell{Emulator: emu, Output: out, Limit: limit}
			err = sh.Sim()
			if err != nil {
				return
			}
			sh.Rdump()
			return
		},
	}
	simCmd.Flags().IntVarP(&limit, "limit", "l", emulator.CYCLE_LIMIT, "Instruction limit, 0 for none")

	var cycles int
	var runCmd = &cobra.Command{
		Use:   "run PROGRAM",
		Short: "Simulate a program for a number of instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, err := newEmulator(args[0])
			if err != nil {
				return
			}

			sh := &Shell{Emulator: emu, Output: cmd.OutOrStdout()}
			err = sh.Run(cycles)
			if err != nil {
				return
			}
			sh.Rdump()
			return
		},
	}
	runCmd.Flags().IntVarP(&cycles, "count", "n", 1, "Number of instructions to execute")

	var output string
	var asmCmd = &cobra.Command{
		Use:   "asm SOURCE",
		Short: "Assemble a source file to a hex program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu := emulator.NewEmulator()
			emu.Verbose = verbose

			inf, err := os.Open(args[0])
			if err != nil {
				return
			}
			defer inf.Close()

			err = emu.Assemble(inf)
			if err != nil {
				err = fmt.Errorf("%v: %w", args[0], err)
				return
			}

			if output == "-" {
				err = emu.Program.WriteHex(cmd.OutOrStdout())
				return
			}

			ouf, err := os.Create(output)
			if err != nil {
				return
			}
			defer ouf.Close()

			err = emu.Program.WriteHex(ouf)
			return
		},
	}
	asmCmd.Flags().StringVarP(&output, "output", "o", "-", "Hex image output")

	var history string
	var shellLimit int
	var shellCmd = &cobra.Command{
		Use:   "shell PROGRAM",
		Short: "Interactive simulator shell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu, err := newEmulator(args[0])
			if err != nil {
				return
			}

			sh := &Shell{Emulator: emu, Limit: shellLimit}
			err = sh.Interact(history)
			return
		},
	}
	shellCmd.Flags().StringVar(&history, "history", filepath.Join(os.TempDir(), "mumips_history.txt"), "Command history file")
	shellCmd.Flags().IntVarP(&shellLimit, "limit", "l", 0, "Instruction limit for 'sim', 0 for none")

	rootCmd.AddCommand(simCmd, runCmd, asmCmd, shellCmd)

	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}
