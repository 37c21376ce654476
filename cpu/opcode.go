package cpu

import (
	"fmt"
	"strings"
)

// Format is the bit layout of an instruction word.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_R = Format(0) // R
	FORMAT_I = Format(1) // I
	FORMAT_J = Format(2) // J
)

// Primary opcode field values (bits 31..26).
const (
	OPCODE_SPECIAL = uint8(0x00) // R-format, selected by funct
	OPCODE_REGIMM  = uint8(0x01) // I-format, selected by rt
	OPCODE_J       = uint8(0x02)
	OPCODE_JAL     = uint8(0x03)
	OPCODE_BEQ     = uint8(0x04)
	OPCODE_BNE     = uint8(0x05)
	OPCODE_BLEZ    = uint8(0x06)
	OPCODE_BGTZ    = uint8(0x07)
	OPCODE_ADDI    = uint8(0x08)
	OPCODE_ADDIU   = uint8(0x09)
	OPCODE_SLTI    = uint8(0x0a)
	OPCODE_SLTIU   = uint8(0x0b)
	OPCODE_ANDI    = uint8(0x0c)
	OPCODE_ORI     = uint8(0x0d)
	OPCODE_XORI    = uint8(0x0e)
	OPCODE_LUI     = uint8(0x0f)
	OPCODE_LB      = uint8(0x20)
	OPCODE_LH      = uint8(0x21)
	OPCODE_LW      = uint8(0x23)
	OPCODE_LBU     = uint8(0x24)
	OPCODE_LHU     = uint8(0x25)
	OPCODE_SB      = uint8(0x28)
	OPCODE_SH      = uint8(0x29)
	OPCODE_SW      = uint8(0x2b)
)

// Function field values (bits 5..0) of OPCODE_SPECIAL.
const (
	FUNCT_SLL     = uint8(0x00)
	FUNCT_SRL     = uint8(0x02)
	FUNCT_SRA     = uint8(0x03)
	FUNCT_SLLV    = uint8(0x04)
	FUNCT_SRLV    = uint8(0x06)
	FUNCT_SRAV    = uint8(0x07)
	FUNCT_JR      = uint8(0x08)
	FUNCT_JALR    = uint8(0x09)
	FUNCT_SYSCALL = uint8(0x0c)
	FUNCT_MFHI    = uint8(0x10)
	FUNCT_MTHI    = uint8(0x11)
	FUNCT_MFLO    = uint8(0x12)
	FUNCT_MTLO    = uint8(0x13)
	FUNCT_MULT    = uint8(0x18)
	FUNCT_MULTU   = uint8(0x19)
	FUNCT_DIV     = uint8(0x1a)
	FUNCT_DIVU    = uint8(0x1b)
	FUNCT_ADD     = uint8(0x20)
	FUNCT_ADDU    = uint8(0x21)
	FUNCT_SUB     = uint8(0x22)
	FUNCT_SUBU    = uint8(0x23)
	FUNCT_AND     = uint8(0x24)
	FUNCT_OR      = uint8(0x25)
	FUNCT_XOR     = uint8(0x26)
	FUNCT_NOR     = uint8(0x27)
	FUNCT_SLT     = uint8(0x2a)
	FUNCT_SLTU    = uint8(0x2b)
)

// Rt field values of OPCODE_REGIMM.
const (
	REGIMM_BLTZ = uint8(0x00)
	REGIMM_BGEZ = uint8(0x01)
)

// Mnemonic identifies a decoded operation.
type Mnemonic int

const (
	OP_INVALID = Mnemonic(iota)
	OP_SLL
	OP_SRL
	OP_SRA
	OP_SLLV
	OP_SRLV
	OP_SRAV
	OP_JR
	OP_JALR
	OP_SYSCALL
	OP_MFHI
	OP_MTHI
	OP_MFLO
	OP_MTLO
	OP_MULT
	OP_MULTU
	OP_DIV
	OP_DIVU
	OP_ADD
	OP_ADDU
	OP_SUB
	OP_SUBU
	OP_AND
	OP_OR
	OP_XOR
	OP_NOR
	OP_SLT
	OP_SLTU
	OP_BLTZ
	OP_BGEZ
	OP_J
	OP_JAL
	OP_BEQ
	OP_BNE
	OP_BLEZ
	OP_BGTZ
	OP_ADDI
	OP_ADDIU
	OP_SLTI
	OP_SLTIU
	OP_ANDI
	OP_ORI
	OP_XORI
	OP_LUI
	OP_LB
	OP_LH
	OP_LW
	OP_LBU
	OP_LHU
	OP_SB
	OP_SH
	OP_SW
	op_count
)

// Syntax is the assembly operand layout of a mnemonic.
type Syntax int

//go:generate go tool stringer -linecomment -type=Syntax
const (
	SYNTAX_NONE         = Syntax(0)  // none
	SYNTAX_RD_RS_RT     = Syntax(1)  // rd, rs, rt
	SYNTAX_RD_RT_SHAMT  = Syntax(2)  // rd, rt, shamt
	SYNTAX_RD_RT_RS     = Syntax(3)  // rd, rt, rs
	SYNTAX_RS_RT        = Syntax(4)  // rs, rt
	SYNTAX_RD           = Syntax(5)  // rd
	SYNTAX_RS           = Syntax(6)  // rs
	SYNTAX_RD_RS        = Syntax(7)  // rd, rs
	SYNTAX_RT_RS_IMM    = Syntax(8)  // rt, rs, imm
	SYNTAX_RT_IMM       = Syntax(9)  // rt, imm
	SYNTAX_RT_MEM       = Syntax(10) // rt, imm(rs)
	SYNTAX_RS_RT_BRANCH = Syntax(11) // rs, rt, offset
	SYNTAX_RS_BRANCH    = Syntax(12) // rs, offset
	SYNTAX_TARGET       = Syntax(13) // target
)

// Extend is how an I-format immediate is widened to 32 bits.
type Extend int

// EXTEND_UPPER places the immediate in the upper half, for LUI.
//
//go:generate go tool stringer -linecomment -type=Extend
const (
	EXTEND_SIGN  = Extend(0) // sign
	EXTEND_ZERO  = Extend(1) // zero
	EXTEND_UPPER = Extend(2) // upper
)

// OpInfo describes the encoding of a mnemonic.
type OpInfo struct {
	Name   string
	Format Format
	Opcode uint8
	Select uint8 // funct for FORMAT_R, rt for OPCODE_REGIMM
	Syntax Syntax
	Extend Extend
}

// opTable is the single source of encoding truth. The decoder, the executor
// and the assembler all derive their lookups from it.
var opTable = [op_count]OpInfo{
	OP_INVALID: {Name: "invalid"},

	OP_SLL:     {"sll", FORMAT_R, OPCODE_SPECIAL, FUNCT_SLL, SYNTAX_RD_RT_SHAMT, EXTEND_SIGN},
	OP_SRL:     {"srl", FORMAT_R, OPCODE_SPECIAL, FUNCT_SRL, SYNTAX_RD_RT_SHAMT, EXTEND_SIGN},
	OP_SRA:     {"sra", FORMAT_R, OPCODE_SPECIAL, FUNCT_SRA, SYNTAX_RD_RT_SHAMT, EXTEND_SIGN},
	OP_SLLV:    {"sllv", FORMAT_R, OPCODE_SPECIAL, FUNCT_SLLV, SYNTAX_RD_RT_RS, EXTEND_SIGN},
	OP_SRLV:    {"srlv", FORMAT_R, OPCODE_SPECIAL, FUNCT_SRLV, SYNTAX_RD_RT_RS, EXTEND_SIGN},
	OP_SRAV:    {"srav", FORMAT_R, OPCODE_SPECIAL, FUNCT_SRAV, SYNTAX_RD_RT_RS, EXTEND_SIGN},
	OP_JR:      {"jr", FORMAT_R, OPCODE_SPECIAL, FUNCT_JR, SYNTAX_RS, EXTEND_SIGN},
	OP_JALR:    {"jalr", FORMAT_R, OPCODE_SPECIAL, FUNCT_JALR, SYNTAX_RD_RS, EXTEND_SIGN},
	OP_SYSCALL: {"syscall", FORMAT_R, OPCODE_SPECIAL, FUNCT_SYSCALL, SYNTAX_NONE, EXTEND_SIGN},
	OP_MFHI:    {"mfhi", FORMAT_R, OPCODE_SPECIAL, FUNCT_MFHI, SYNTAX_RD, EXTEND_SIGN},
	OP_MTHI:    {"mthi", FORMAT_R, OPCODE_SPECIAL, FUNCT_MTHI, SYNTAX_RS, EXTEND_SIGN},
	OP_MFLO:    {"mflo", FORMAT_R, OPCODE_SPECIAL, FUNCT_MFLO, SYNTAX_RD, EXTEND_SIGN},
	OP_MTLO:    {"mtlo", FORMAT_R, OPCODE_SPECIAL, FUNCT_MTLO, SYNTAX_RS, EXTEND_SIGN},
	OP_MULT:    {"mult", FORMAT_R, OPCODE_SPECIAL, FUNCT_MULT, SYNTAX_RS_RT, EXTEND_SIGN},
	OP_MULTU:   {"multu", FORMAT_R, OPCODE_SPECIAL, FUNCT_MULTU, SYNTAX_RS_RT, EXTEND_SIGN},
	OP_DIV:     {"div", FORMAT_R, OPCODE_SPECIAL, FUNCT_DIV, SYNTAX_RS_RT, EXTEND_SIGN},
	OP_DIVU:    {"divu", FORMAT_R, OPCODE_SPECIAL, FUNCT_DIVU, SYNTAX_RS_RT, EXTEND_SIGN},
	OP_ADD:     {"add", FORMAT_R, OPCODE_SPECIAL, FUNCT_ADD, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_ADDU:    {"addu", FORMAT_R, OPCODE_SPECIAL, FUNCT_ADDU, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_SUB:     {"sub", FORMAT_R, OPCODE_SPECIAL, FUNCT_SUB, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_SUBU:    {"subu", FORMAT_R, OPCODE_SPECIAL, FUNCT_SUBU, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_AND:     {"and", FORMAT_R, OPCODE_SPECIAL, FUNCT_AND, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_OR:      {"or", FORMAT_R, OPCODE_SPECIAL, FUNCT_OR, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_XOR:     {"xor", FORMAT_R, OPCODE_SPECIAL, FUNCT_XOR, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_NOR:     {"nor", FORMAT_R, OPCODE_SPECIAL, FUNCT_NOR, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_SLT:     {"slt", FORMAT_R, OPCODE_SPECIAL, FUNCT_SLT, SYNTAX_RD_RS_RT, EXTEND_SIGN},
	OP_SLTU:    {"sltu", FORMAT_R, OPCODE_SPECIAL, FUNCT_SLTU, SYNTAX_RD_RS_RT, EXTEND_SIGN},

	OP_BLTZ: {"bltz", FORMAT_I, OPCODE_REGIMM, REGIMM_BLTZ, SYNTAX_RS_BRANCH, EXTEND_SIGN},
	OP_BGEZ: {"bgez", FORMAT_I, OPCODE_REGIMM, REGIMM_BGEZ, SYNTAX_RS_BRANCH, EXTEND_SIGN},

	OP_J:   {"j", FORMAT_J, OPCODE_J, 0, SYNTAX_TARGET, EXTEND_SIGN},
	OP_JAL: {"jal", FORMAT_J, OPCODE_JAL, 0, SYNTAX_TARGET, EXTEND_SIGN},

	OP_BEQ:   {"beq", FORMAT_I, OPCODE_BEQ, 0, SYNTAX_RS_RT_BRANCH, EXTEND_SIGN},
	OP_BNE:   {"bne", FORMAT_I, OPCODE_BNE, 0, SYNTAX_RS_RT_BRANCH, EXTEND_SIGN},
	OP_BLEZ:  {"blez", FORMAT_I, OPCODE_BLEZ, 0, SYNTAX_RS_BRANCH, EXTEND_SIGN},
	OP_BGTZ:  {"bgtz", FORMAT_I, OPCODE_BGTZ, 0, SYNTAX_RS_BRANCH, EXTEND_SIGN},
	OP_ADDI:  {"addi", FORMAT_I, OPCODE_ADDI, 0, SYNTAX_RT_RS_IMM, EXTEND_SIGN},
	OP_ADDIU: {"addiu", FORMAT_I, OPCODE_ADDIU, 0, SYNTAX_RT_RS_IMM, EXTEND_SIGN},
	OP_SLTI:  {"slti", FORMAT_I, OPCODE_SLTI, 0, SYNTAX_RT_RS_IMM, EXTEND_SIGN},
	OP_SLTIU: {"sltiu", FORMAT_I, OPCODE_SLTIU, 0, SYNTAX_RT_RS_IMM, EXTEND_SIGN},
	OP_ANDI:  {"andi", FORMAT_I, OPCODE_ANDI, 0, SYNTAX_RT_RS_IMM, EXTEND_ZERO},
	OP_ORI:   {"ori", FORMAT_I, OPCODE_ORI, 0, SYNTAX_RT_RS_IMM, EXTEND_ZERO},
	OP_XORI:  {"xori", FORMAT_I, OPCODE_XORI, 0, SYNTAX_RT_RS_IMM, EXTEND_ZERO},
	OP_LUI:   {"lui", FORMAT_I, OPCODE_LUI, 0, SYNTAX_RT_IMM, EXTEND_UPPER},
	OP_LB:    {"lb", FORMAT_I, OPCODE_LB, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_LH:    {"lh", FORMAT_I, OPCODE_LH, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_LW:    {"lw", FORMAT_I, OPCODE_LW, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_LBU:   {"lbu", FORMAT_I, OPCODE_LBU, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_LHU:   {"lhu", FORMAT_I, OPCODE_LHU, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_SB:    {"sb", FORMAT_I, OPCODE_SB, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_SH:    {"sh", FORMAT_I, OPCODE_SH, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
	OP_SW:    {"sw", FORMAT_I, OPCODE_SW, 0, SYNTAX_RT_MEM, EXTEND_SIGN},
}

// Reverse lookups, built from opTable.
var (
	functMap  [64]Mnemonic
	regimmMap [32]Mnemonic
	opcodeMap [64]Mnemonic
	nameMap   = map[string]Mnemonic{}
)

func init() {
	for n := range op_count {
		op := Mnemonic(n)
		if op == OP_INVALID {
			continue
		}
		info := opTable[op]
		switch {
		case info.Opcode == OPCODE_SPECIAL:
			functMap[info.Select] = op
		case info.Opcode == OPCODE_REGIMM:
			regimmMap[info.Select] = op
		default:
			opcodeMap[info.Opcode] = op
		}
		nameMap[info.Name] = op
	}
}

// Info returns the encoding description of the mnemonic.
func (op Mnemonic) Info() OpInfo {
	if op <= OP_INVALID || op >= op_count {
		return opTable[OP_INVALID]
	}
	return opTable[op]
}

// String returns the assembler name of the mnemonic.
func (op Mnemonic) String() string {
	return op.Info().Name
}

// Valid returns true for a known mnemonic.
func (op Mnemonic) Valid() bool {
	return op > OP_INVALID && op < op_count
}

// LookupMnemonic finds a mnemonic by its (case insensitive) assembler name.
func LookupMnemonic(name string) (op Mnemonic, ok bool) {
	op, ok = nameMap[strings.ToLower(name)]
	return
}

// Well known register numbers.
const (
	REG_ZERO = uint8(0)
	REG_AT   = uint8(1)
	REG_V0   = uint8(2)
	REG_A0   = uint8(4)
	REG_SP   = uint8(29)
	REG_RA   = uint8(31)
)

// SYSCALL_EXIT in $v0 makes SYSCALL halt the processor.
const SYSCALL_EXIT = uint32(10)

// RegisterName holds the ABI names of the general purpose registers.
var RegisterName = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

var registerMap = map[string]uint8{}

func init() {
	for n, name := range RegisterName {
		registerMap[name] = uint8(n)
		registerMap[fmt.Sprintf("$%d", n)] = uint8(n)
	}
	registerMap["$s8"] = 30
}

// LookupRegister finds a register by ABI name ($t0) or number ($8).
func LookupRegister(name string) (reg uint8, ok bool) {
	reg, ok = registerMap[strings.ToLower(name)]
	return
}
