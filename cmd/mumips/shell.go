package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ezrec/mumips/cpu"
	"github.com/ezrec/mumips/emulator"
	"github.com/ezrec/mumips/translate"
)

var f = translate.From

var (
	ErrShellArgs     = errors.New(f("invalid arguments"))
	ErrShellRegister = errors.New(f("invalid register"))
	ErrShellValue    = errors.New(f("invalid value"))
)

const SHELL_PROMPT = "MU-MIPS SIM:> "

// Shell drives an emulator from simulator console commands.
type Shell struct {
	Emulator *emulator.Emulator
	Output   io.Writer
	Limit    int // Instruction limit for 'sim', 0 for none.
}

// printf writes a message, translated for the current locale.
func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprint(sh.Output, f(format, args...))
}

// dump writes generated text as is.
func (sh *Shell) dump(text string) {
	io.WriteString(sh.Output, text)
}

// Help lists the commands.
func (sh *Shell) Help() {
	sh.printf("------------------------------------------------------------------\n\n")
	sh.printf("\t**********MU-MIPS Help MENU**********\n\n")
	sh.printf("sim\t-- simulate program to completion \n")
	sh.printf("run <n>\t-- simulate program for <n> instructions\n")
	sh.printf("rdump\t-- dump register values\n")
	sh.printf("reset\t-- clears all registers/memory and re-loads the program\n")
	sh.printf("input <reg> <val>\t-- set GPR <reg> to <val>\n")
	sh.printf("mdump <start> <stop>\t-- dump memory from <start> to <stop> address\n")
	sh.printf("high <val>\t-- set the HI register to <val>\n")
	sh.printf("low <val>\t-- set the LO register to <val>\n")
	sh.printf("print\t-- print the program loaded into memory\n")
	sh.printf("?\t-- display help menu\n")
	sh.printf("quit\t-- exit the simulator\n\n")
	sh.printf("------------------------------------------------------------------\n\n")
}

// Loaded reports the size of the loaded program.
func (sh *Shell) Loaded() {
	sh.printf("Program loaded into memory.\n%d words written into memory.\n\n",
		len(sh.Emulator.Program.Binary()))
}

// Sim runs the program to completion.
func (sh *Shell) Sim() (err error) {
	if !sh.Emulator.Cpu.Running {
		sh.printf("Simulation Stopped.\n\n")
		return
	}

	sh.printf("Simulation Started...\n\n")
	_, err = sh.Emulator.RunAll(sh.Limit)
	if err != nil {
		return
	}
	sh.printf("Simulation Finished.\n\n")

	return
}

// Run executes n instructions.
func (sh *Shell) Run(n int) (err error) {
	if !sh.Emulator.Cpu.Running {
		sh.printf("Simulation Stopped\n\n")
		return
	}

	sh.printf("Running simulator for %d cycles...\n\n", n)
	ran, err := sh.Emulator.Run(n)
	if err != nil {
		return
	}
	if ran < n {
		sh.printf("Simulation Stopped.\n\n")
	}

	return
}

// Rdump prints the register file.
func (sh *Shell) Rdump() {
	sh.dump(sh.Emulator.Cpu.String())
}

// parseAddress parses a hex address, with or without the 0x prefix.
func parseAddress(word string) (addr uint32, err error) {
	digits := strings.TrimPrefix(strings.ToLower(word), "0x")
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		err = errors.Join(ErrShellValue, err)
		return
	}

	addr = uint32(value)
	return
}

// parseValue parses a C style integer (decimal, 0x hex, 0 octal).
func parseValue(word string) (value uint32, err error) {
	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil || v64 > 0xffffffff || v64 < -0x80000000 {
		err = errors.Join(ErrShellValue, err)
		return
	}

	value = uint32(v64)
	return
}

// parseRegister accepts a register number, or a register name.
func parseRegister(word string) (reg int, err error) {
	if r, ok := cpu.LookupRegister(word); ok {
		reg = int(r)
		return
	}

	r64, err := strconv.ParseUint(word, 10, 8)
	if err != nil || r64 >= 32 {
		err = ErrShellRegister
		return
	}

	reg = int(r64)
	return
}

// Execute runs a single console command line.
//
// Commands are selected the way the classic console does, by their
// leading letters, so 'r', 'rd' and 're' are run, rdump and reset.
func (sh *Shell) Execute(line string) (quit bool, err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	cmd := strings.ToLower(words[0])
	args := words[1:]

	wantArgs := func(count int) bool {
		if len(args) != count {
			err = ErrShellArgs
			return false
		}
		return true
	}

	switch {
	case cmd[0] == 's':
		err = sh.Sim()
	case cmd[0] == 'm':
		if !wantArgs(2) {
			return
		}
		var start, stop uint32
		start, err = parseAddress(args[0])
		if err != nil {
			return
		}
		stop, err = parseAddress(args[1])
		if err != nil {
			return
		}
		sh.dump(sh.Emulator.MemoryDump(start, stop))
	case cmd[0] == '?':
		sh.Help()
	case cmd[0] == 'q':
		sh.printf("**************************\n")
		sh.printf("Exiting MU-MIPS! Good Bye...\n")
		sh.printf("**************************\n")
		quit = true
	case strings.HasPrefix(cmd, "rd"):
		sh.Rdump()
	case strings.HasPrefix(cmd, "re"):
		err = sh.Emulator.Reset()
	case cmd[0] == 'r':
		if !wantArgs(1) {
			return
		}
		var n uint64
		n, err = strconv.ParseUint(args[0], 10, 31)
		if err != nil {
			err = errors.Join(ErrShellValue, err)
			return
		}
		err = sh.Run(int(n))
	case cmd[0] == 'i':
		if !wantArgs(2) {
			return
		}
		var reg int
		var value uint32
		reg, err = parseRegister(args[0])
		if err != nil {
			return
		}
		value, err = parseValue(args[1])
		if err != nil {
			return
		}
		err = sh.Emulator.Cpu.SetRegister(reg, value)
	case cmd[0] == 'h', cmd[0] == 'l':
		if !wantArgs(1) {
			return
		}
		var value uint32
		value, err = parseValue(args[0])
		if err != nil {
			return
		}
		if cmd[0] == 'h' {
			sh.Emulator.Cpu.SetHi(value)
		} else {
			sh.Emulator.Cpu.SetLo(value)
		}
	case cmd[0] == 'p':
		sh.dump(sh.Emulator.Disassemble())
	default:
		sh.printf("Invalid Command.\n")
	}

	return
}

// Interact runs the console on the terminal until 'quit' or end of input.
func (sh *Shell) Interact(history string) (err error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      SHELL_PROMPT,
		HistoryFile: history,
	})
	if err != nil {
		return
	}
	defer rl.Close()

	sh.Output = rl.Stdout()
	sh.Loaded()

	for {
		var line string
		line, err = rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				err = nil
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if err != nil {
			return
		}

		quit, cmd_err := sh.Execute(line)
		if cmd_err != nil {
			sh.printf("%v\n", cmd_err)
		}
		if quit {
			break
		}
	}

	return
}
