// Package cpu implements the processor and assembler for the μMIPS simulator.
//
// The CPU executes one 32-bit MIPS instruction per cycle against a double
// buffered processor state: 32 general-purpose registers (register 0 is
// hard-wired to zero), HI and LO, and the program counter. Decoding is a pure
// function from an instruction word to an R, I or J format record, and a
// single opcode table drives the decoder, the executor and the assembler.
//
// The assembler accepts MIPS assembly with labels, equates, compile-time
// $(...) expression evaluation and a few pseudo instructions, and produces
// a Program image that can be loaded at the start of the text segment.
package cpu
