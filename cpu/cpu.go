package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/mumips/memory"
)

var _cpu_defines = map[string]string{
	"SYSCALL_EXIT": fmt.Sprintf("%d", SYSCALL_EXIT),
	"REG_COUNT":    fmt.Sprintf("%d", len(State{}.Register)),
}

// Cpu is the simulation context for a single MIPS processor.
//
// The processor state is double buffered: Current is what the executing
// instruction observes, Next collects its results and becomes Current when
// the step commits.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Bus Bus // Memory the CPU fetches from, loads from and stores to.

	Current State // State visible to the executing instruction.
	Next    State // State being built by the executing instruction.

	Count   int  // Committed instruction counter.
	Running bool // Cleared on halt, stop or fault.
}

// NewCpu creates a new CPU attached to a memory bus, reset and ready to run.
func NewCpu(bus Bus) (cpu *Cpu) {
	cpu = &Cpu{
		Bus: bus,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears all registers, HI and LO.
// - Zeros the instruction counter.
// - Sets PC to the start of the text segment.
// - Marks the CPU as running.
//
// Memory is not touched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Current.Reset()
	cpu.Current.Pc = memory.MEM_TEXT_BEGIN
	cpu.Next = cpu.Current
	cpu.Count = 0
	cpu.Running = true
}

// Stop halts the CPU. Run and Step will refuse to execute until Reset.
func (cpu *Cpu) Stop() {
	if cpu.Verbose && cpu.Running {
		log.Printf("cpu: stop at 0x%08x", cpu.Current.Pc)
	}

	cpu.Running = false
}

// SetRegister overrides a general purpose register in both the current and
// next state.
func (cpu *Cpu) SetRegister(reg int, value uint32) (err error) {
	if reg < 0 || reg >= len(cpu.Current.Register) {
		err = ErrRegisterInvalid
		return
	}

	cpu.Current.SetRegister(uint8(reg), value)
	cpu.Next.SetRegister(uint8(reg), value)

	return
}

// SetHi overrides the HI register.
func (cpu *Cpu) SetHi(value uint32) {
	cpu.Current.Hi = value
	cpu.Next.Hi = value
}

// SetLo overrides the LO register.
func (cpu *Cpu) SetLo(value uint32) {
	cpu.Current.Lo = value
	cpu.Next.Lo = value
}

// SetPc overrides the program counter.
func (cpu *Cpu) SetPc(value uint32) {
	cpu.Current.Pc = value
	cpu.Next.Pc = value
}

// LoadWord writes a program word into memory.
func (cpu *Cpu) LoadWord(addr uint32, word uint32) {
	cpu.Bus.Write32(addr, word)
}

// Fetch reads and decodes the instruction at the current PC.
func (cpu *Cpu) Fetch() (inst Instruction, word uint32, err error) {
	word = cpu.Bus.Read32(cpu.Current.Pc)
	inst, err = Decode(word)
	return
}

// Step executes a single instruction cycle: fetch, decode, execute, commit.
//
// A fault discards the partially built next state, stops the CPU and is
// returned as an *ErrFault.
func (cpu *Cpu) Step() (err error) {
	if !cpu.Running {
		err = ErrHalted
		return
	}

	pc := cpu.Current.Pc
	inst, word, err := cpu.Fetch()

	defer func() {
		if err != nil {
			cpu.Next = cpu.Current
			cpu.Running = false
			err = &ErrFault{Pc: pc, Word: word, Err: err}
			if cpu.Verbose {
				log.Printf("cpu: %v", err)
			}
		}
	}()

	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%08x: %v", pc, inst)
	}

	cpu.Next = cpu.Current

	halt, err := Execute(inst, &cpu.Current, &cpu.Next, cpu.Bus)
	if err != nil {
		return
	}

	cpu.Current = cpu.Next
	cpu.Count++

	if halt {
		if cpu.Verbose {
			log.Printf("cpu: halt at 0x%08x after %d instructions", pc, cpu.Count)
		}
		cpu.Running = false
	}

	return
}

// Run executes up to n instructions, stopping early on halt or fault.
func (cpu *Cpu) Run(n int) (ran int, err error) {
	if !cpu.Running {
		err = ErrHalted
		return
	}

	for ran < n && cpu.Running {
		err = cpu.Step()
		if err != nil {
			return
		}
		ran++
	}

	return
}

// RunAll executes until the CPU halts or faults.
// There is no bound: a program that never halts never returns.
func (cpu *Cpu) RunAll() (ran int, err error) {
	if !cpu.Running {
		err = ErrHalted
		return
	}

	for cpu.Running {
		err = cpu.Step()
		if err != nil {
			return
		}
		ran++
	}

	return
}

// DUMP_RULE separates the sections of a register dump.
const DUMP_RULE = "-------------------------------------"

// String returns the current CPU state as a register dump.
func (cpu *Cpu) String() string {
	var text strings.Builder

	fmt.Fprintf(&text, "%s\n%s\n%s\n", DUMP_RULE, f("Dumping Register Content"), DUMP_RULE)
	fmt.Fprintf(&text, "%s\t: %d\n", f("# Instructions Executed"), cpu.Count)
	fmt.Fprintf(&text, "PC\t: 0x%08x\n", cpu.Current.Pc)
	fmt.Fprintf(&text, "%s\n%s\t%s\n%s\n", DUMP_RULE, f("[Register]"), f("[Value]"), DUMP_RULE)
	for n, val := range cpu.Current.Register {
		fmt.Fprintf(&text, "[R%d]\t: 0x%08x\n", n, val)
	}
	fmt.Fprintf(&text, "%s\n", DUMP_RULE)
	fmt.Fprintf(&text, "[HI]\t: 0x%08x\n", cpu.Current.Hi)
	fmt.Fprintf(&text, "[LO]\t: 0x%08x\n", cpu.Current.Lo)
	fmt.Fprintf(&text, "%s\n", DUMP_RULE)

	return text.String()
}
