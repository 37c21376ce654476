// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/mumips/cpu"
	"github.com/ezrec/mumips/internal"
	"github.com/ezrec/mumips/memory"
)

const (
	CYCLE_LIMIT = 100_000_000 // Default safety bound for running to completion.
)

var _emulator_defines = map[string]string{
	"CYCLE_LIMIT": fmt.Sprintf("%v", CYCLE_LIMIT),
}

// Emulator state. CPU + memory + the loaded program.
type Emulator struct {
	Verbose  bool           // If set, enables verbose logging.
	*cpu.Cpu                // Reference to the CPU simulation.
	Memory   *memory.Memory // Address space the CPU is attached to.
	Program  *cpu.Program   // Reference to the currently loaded program listing.
}

// NewEmulator creates a new emulator, with an empty program.
func NewEmulator() (emu *Emulator) {
	mem := memory.NewMips()

	emu = &Emulator{
		Cpu:     cpu.NewCpu(mem),
		Memory:  mem,
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Memory.Defines(),
		emu.Cpu.Defines(),
	)
}

// Assemble parses assembly source with the emulator defines available as
// equates, then loads the result.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	err = emu.Load(prog)
	return
}

// LoadHex parses a hex program image, then loads it.
func (emu *Emulator) LoadHex(input io.Reader) (err error) {
	prog, err := cpu.ParseHex(input, memory.MEM_TEXT_BEGIN)
	if err != nil {
		return
	}

	err = emu.Load(prog)
	return
}

// Load replaces the program, and resets the emulator.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	emu.Program = prog
	err = emu.Reset()
	return
}

// Reset the emulator state
// - Zeros all of memory.
// - Resets the CPU.
// - Reloads the program into memory.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Memory.Reset()
	emu.Cpu.Reset()

	if emu.Program == nil {
		emu.Program = &cpu.Program{}
	}

	words := 0
	for addr, code := range emu.Program.Codes() {
		_, ok := emu.Memory.Segment(addr)
		if !ok {
			err = &ErrRuntime{LineNo: emu.Program.Debug(addr).LineNo, Err: ErrProgramUnmapped}
			return
		}
		if emu.Verbose {
			log.Printf("emulator: writing 0x%08x into address 0x%08x", code, addr)
		}
		emu.Cpu.LoadWord(addr, code)
		words++
	}

	if emu.Verbose {
		log.Printf("emulator: %d words loaded", words)
	}

	return
}

// Instructions returns the instructions executed since a reset.
func (emu *Emulator) Instructions() int {
	return emu.Cpu.Count
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() uint32 {
	return emu.Cpu.Current.Pc
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Current.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
// done is set once the CPU is no longer running.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if !emu.Cpu.Running {
		done = true
		return
	}

	err = emu.Cpu.Step()
	done = !emu.Cpu.Running
	if err != nil {
		// A faulted step leaves the PC on the failing instruction.
		err = &ErrRuntime{LineNo: emu.LineNo(), Err: err}
	}

	return
}

// Run executes up to n instructions, stopping early once done.
func (emu *Emulator) Run(n int) (ran int, err error) {
	if !emu.Cpu.Running {
		err = cpu.ErrHalted
		return
	}

	for ran < n {
		var done bool
		done, err = emu.Tick()
		if err != nil {
			return
		}
		ran++
		if done {
			break
		}
	}

	return
}

// RunAll executes until the CPU halts. A positive limit bounds the
// number of instructions, and ErrCycleLimit is returned when it is
// reached before the halt. The CPU stays runnable in that case.
func (emu *Emulator) RunAll(limit int) (ran int, err error) {
	if !emu.Cpu.Running {
		err = cpu.ErrHalted
		return
	}

	for {
		if limit > 0 && ran >= limit {
			err = &ErrRuntime{LineNo: emu.LineNo(), Err: ErrCycleLimit}
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil {
			return
		}
		ran++
		if done {
			break
		}
	}

	return
}

// MemoryDump renders the words from start to stop inclusive.
func (emu *Emulator) MemoryDump(start uint32, stop uint32) string {
	var text strings.Builder

	fmt.Fprintf(&text, "-------------------------------------------------------------\n")
	fmt.Fprintf(&text, "%s [0x%08x..0x%08x] :\n", f("Memory content"), start, stop)
	fmt.Fprintf(&text, "-------------------------------------------------------------\n")
	fmt.Fprintf(&text, "\t%s\t%s\n", f("[Address in Hex (Dec) ]"), f("[Value]"))
	for addr := start; addr <= stop; addr += 4 {
		fmt.Fprintf(&text, "\t0x%08x (%d) :\t0x%08x\n", addr, addr, emu.Memory.Read32(addr))
		if addr+4 < addr {
			break
		}
	}
	fmt.Fprintf(&text, "\n")

	return text.String()
}

// Disassemble renders the loaded program, as it is currently in memory.
func (emu *Emulator) Disassemble() string {
	var text strings.Builder

	for addr := range emu.Program.Codes() {
		word := emu.Memory.Read32(addr)
		inst, err := cpu.Decode(word)
		if err != nil {
			fmt.Fprintf(&text, "[0x%x]\t.word 0x%08x\n", addr, word)
			continue
		}
		fmt.Fprintf(&text, "[0x%x]\t%v\n", addr, inst)
	}

	return text.String()
}
