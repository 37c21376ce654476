package cpu

import (
	"fmt"
)

// Instruction is a decoded instruction word. It is one of RFormat, IFormat
// or JFormat.
type Instruction interface {
	Format() Format
	Mnemonic() Mnemonic
	Word() uint32
	String() string
}

// RFormat is a register instruction: opcode(6)=0 rs(5) rt(5) rd(5) shamt(5) funct(6).
type RFormat struct {
	Rs    uint8
	Rt    uint8
	Rd    uint8
	Shamt uint8
	Funct uint8
}

// IFormat is an immediate instruction: opcode(6) rs(5) rt(5) immediate(16).
type IFormat struct {
	Opcode    uint8
	Rs        uint8
	Rt        uint8
	Immediate uint16
}

// JFormat is a jump instruction: opcode(6) target(26).
type JFormat struct {
	Opcode uint8
	Target uint32 // Word index within the current 256MiB region.
}

var _ Instruction = RFormat{}
var _ Instruction = IFormat{}
var _ Instruction = JFormat{}

// Field extraction.
func fieldOpcode(word uint32) uint8 { return uint8((word >> 26) & 0x3f) }
func fieldRs(word uint32) uint8     { return uint8((word >> 21) & 0x1f) }
func fieldRt(word uint32) uint8     { return uint8((word >> 16) & 0x1f) }
func fieldRd(word uint32) uint8     { return uint8((word >> 11) & 0x1f) }
func fieldShamt(word uint32) uint8  { return uint8((word >> 6) & 0x1f) }
func fieldFunct(word uint32) uint8  { return uint8((word >> 0) & 0x3f) }

// Classify returns the format of an instruction word, from its opcode alone.
func Classify(word uint32) Format {
	switch fieldOpcode(word) {
	case OPCODE_SPECIAL:
		return FORMAT_R
	case OPCODE_J, OPCODE_JAL:
		return FORMAT_J
	}
	return FORMAT_I
}

// Decode converts an instruction word into its instruction record.
// Unknown encodings return ErrDecode.
func Decode(word uint32) (inst Instruction, err error) {
	switch Classify(word) {
	case FORMAT_R:
		r := RFormat{
			Rs:    fieldRs(word),
			Rt:    fieldRt(word),
			Rd:    fieldRd(word),
			Shamt: fieldShamt(word),
			Funct: fieldFunct(word),
		}
		inst = r
	case FORMAT_J:
		inst = JFormat{
			Opcode: fieldOpcode(word),
			Target: word & 0x03ffffff,
		}
	default:
		inst = IFormat{
			Opcode:    fieldOpcode(word),
			Rs:        fieldRs(word),
			Rt:        fieldRt(word),
			Immediate: uint16(word & 0xffff),
		}
	}

	if !inst.Mnemonic().Valid() {
		inst = nil
		err = ErrDecode(word)
		return
	}

	return
}

// MakeR creates a register format instruction.
func MakeR(op Mnemonic, rd, rs, rt, shamt uint8) RFormat {
	return RFormat{
		Rs:    rs & 0x1f,
		Rt:    rt & 0x1f,
		Rd:    rd & 0x1f,
		Shamt: shamt & 0x1f,
		Funct: op.Info().Select,
	}
}

// MakeI creates an immediate format instruction. For the REGIMM
// branches, rt is implied by the mnemonic and the argument is ignored.
func MakeI(op Mnemonic, rt, rs uint8, imm uint16) IFormat {
	info := op.Info()
	if info.Opcode == OPCODE_REGIMM {
		rt = info.Select
	}
	return IFormat{
		Opcode:    info.Opcode,
		Rs:        rs & 0x1f,
		Rt:        rt & 0x1f,
		Immediate: imm,
	}
}

// MakeJ creates a jump format instruction.
func MakeJ(op Mnemonic, target uint32) JFormat {
	return JFormat{
		Opcode: op.Info().Opcode,
		Target: target & 0x03ffffff,
	}
}

func (r RFormat) Format() Format { return FORMAT_R }

// Mnemonic resolves the funct field.
func (r RFormat) Mnemonic() Mnemonic {
	return functMap[r.Funct&0x3f]
}

// Word re-encodes the instruction.
func (r RFormat) Word() uint32 {
	return (uint32(OPCODE_SPECIAL) << 26) |
		(uint32(r.Rs&0x1f) << 21) |
		(uint32(r.Rt&0x1f) << 16) |
		(uint32(r.Rd&0x1f) << 11) |
		(uint32(r.Shamt&0x1f) << 6) |
		(uint32(r.Funct&0x3f) << 0)
}

func (r RFormat) String() (out string) {
	op := r.Mnemonic()
	rs := RegisterName[r.Rs&0x1f]
	rt := RegisterName[r.Rt&0x1f]
	rd := RegisterName[r.Rd&0x1f]

	switch op.Info().Syntax {
	case SYNTAX_NONE:
		out = op.String()
	case SYNTAX_RD_RS_RT:
		out = fmt.Sprintf("%v %v, %v, %v", op, rd, rs, rt)
	case SYNTAX_RD_RT_SHAMT:
		if r.Word() == 0 {
			return "nop"
		}
		out = fmt.Sprintf("%v %v, %v, %d", op, rd, rt, r.Shamt)
	case SYNTAX_RD_RT_RS:
		out = fmt.Sprintf("%v %v, %v, %v", op, rd, rt, rs)
	case SYNTAX_RS_RT:
		out = fmt.Sprintf("%v %v, %v", op, rs, rt)
	case SYNTAX_RD:
		out = fmt.Sprintf("%v %v", op, rd)
	case SYNTAX_RS:
		out = fmt.Sprintf("%v %v", op, rs)
	case SYNTAX_RD_RS:
		out = fmt.Sprintf("%v %v, %v", op, rd, rs)
	default:
		out = fmt.Sprintf(".word 0x%08x", r.Word())
	}

	return
}

func (i IFormat) Format() Format { return FORMAT_I }

// Mnemonic resolves the opcode field, and rt for REGIMM.
func (i IFormat) Mnemonic() Mnemonic {
	if i.Opcode == OPCODE_REGIMM {
		return regimmMap[i.Rt&0x1f]
	}
	return opcodeMap[i.Opcode&0x3f]
}

// Word re-encodes the instruction.
func (i IFormat) Word() uint32 {
	return (uint32(i.Opcode&0x3f) << 26) |
		(uint32(i.Rs&0x1f) << 21) |
		(uint32(i.Rt&0x1f) << 16) |
		uint32(i.Immediate)
}

// SignExtend returns the immediate sign-extended to 32 bits.
func (i IFormat) SignExtend() uint32 {
	return uint32(int32(int16(i.Immediate)))
}

// ZeroExtend returns the immediate zero-extended to 32 bits.
func (i IFormat) ZeroExtend() uint32 {
	return uint32(i.Immediate)
}

// Extended returns the immediate widened as the mnemonic requires.
func (i IFormat) Extended() uint32 {
	switch i.Mnemonic().Info().Extend {
	case EXTEND_ZERO:
		return i.ZeroExtend()
	case EXTEND_UPPER:
		return i.ZeroExtend() << 16
	}
	return i.SignExtend()
}

func (i IFormat) String() (out string) {
	op := i.Mnemonic()
	rs := RegisterName[i.Rs&0x1f]
	rt := RegisterName[i.Rt&0x1f]

	switch op.Info().Syntax {
	case SYNTAX_RT_RS_IMM:
		if op.Info().Extend == EXTEND_ZERO {
			out = fmt.Sprintf("%v %v, %v, 0x%x", op, rt, rs, i.Immediate)
		} else {
			out = fmt.Sprintf("%v %v, %v, %d", op, rt, rs, int16(i.Immediate))
		}
	case SYNTAX_RT_IMM:
		out = fmt.Sprintf("%v %v, 0x%x", op, rt, i.Immediate)
	case SYNTAX_RT_MEM:
		out = fmt.Sprintf("%v %v, %d(%v)", op, rt, int16(i.Immediate), rs)
	case SYNTAX_RS_RT_BRANCH:
		out = fmt.Sprintf("%v %v, %v, %d", op, rs, rt, int16(i.Immediate))
	case SYNTAX_RS_BRANCH:
		out = fmt.Sprintf("%v %v, %d", op, rs, int16(i.Immediate))
	default:
		out = fmt.Sprintf(".word 0x%08x", i.Word())
	}

	return
}

func (j JFormat) Format() Format { return FORMAT_J }

// Mnemonic resolves the opcode field.
func (j JFormat) Mnemonic() Mnemonic {
	return opcodeMap[j.Opcode&0x3f]
}

// Word re-encodes the instruction.
func (j JFormat) Word() uint32 {
	return (uint32(j.Opcode&0x3f) << 26) | (j.Target & 0x03ffffff)
}

// Address reconstructs the absolute jump target from the address of the
// jump itself.
func (j JFormat) Address(pc uint32) uint32 {
	return (pc & 0xf0000000) | ((j.Target & 0x03ffffff) << 2)
}

func (j JFormat) String() string {
	if !j.Mnemonic().Valid() {
		return fmt.Sprintf(".word 0x%08x", j.Word())
	}
	return fmt.Sprintf("%v 0x%07x", j.Mnemonic(), (j.Target&0x03ffffff)<<2)
}
