// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/mumips/memory"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two pass assembler for the MIPS subset executed by Cpu.
//
// The first pass sizes every line and assigns label addresses, the second
// pass encodes with all labels known, so forward references work anywhere.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Origin  uint32   // Address of the first word. Zero selects MEM_TEXT_BEGIN.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]uint32 // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	reParen  = regexp.MustCompile(`\$\([^\$]*\)`)
	reMemory = regexp.MustCompile(`^(.*)\((\$\w+)\)$`)
	reLabel  = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	addr, ok := asm.Label[word]
	if ok {
		value = addr
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 34)
	if err != nil || v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(int64(value32))
	}
	for key, addr := range asm.Label {
		if reLabel.MatchString(key) && !strings.Contains(key, ".") {
			pred[key] = starlark.MakeInt64(int64(addr))
		}
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// splitWords splits a line into words on whitespace and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// stripComment removes ';' and '#' comments.
func stripComment(text string) string {
	if n := strings.IndexAny(text, ";#"); n >= 0 {
		text = text[:n]
	}
	return strings.TrimSpace(text)
}

// splitLabels removes leading 'label:' words.
func splitLabels(words []string) (labels []string, rest []string) {
	rest = words
	for len(rest) > 0 && strings.HasSuffix(rest[0], ":") {
		labels = append(labels, rest[0][:len(rest[0])-1])
		rest = rest[1:]
	}
	return
}

// sizeOf returns the number of words a line will generate.
func sizeOf(words []string) (size int) {
	if len(words) == 0 {
		return
	}

	switch strings.ToLower(words[0]) {
	case ".equ":
		size = 0
	case ".word":
		size = len(words) - 1
	case "li", "halt":
		size = 2
	default:
		size = 1
	}

	return
}

// parseLine expands a line into words, and applies equates.
// Returns nil words for lines that generate no code.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	_, words = splitLabels(splitWords(line))
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.ToLower(words[0]) == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		_, ok = asm.Label[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = nil
		return
	}

	for n, word := range words {
		if n == 0 {
			continue
		}

		// Check for equates; also inside memory operands.
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
			continue
		}
		match := reMemory.FindStringSubmatch(word)
		if match != nil {
			equate, ok = asm.Equate[match[1]]
			if ok {
				words[n] = equate + "(" + match[2] + ")"
			}
		}
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	origin := asm.Origin
	if origin == 0 {
		origin = memory.MEM_TEXT_BEGIN
	}

	asm.Opcode = asm.Opcode[:0]
	asm.Label = make(map[string]uint32, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	// Pass 1: assign label addresses.
	addr := origin
	for n, text := range lines {
		lineno = n + 1
		line = stripComment(text)

		// Expressions may not be resolvable yet, and never change size.
		sized := reParen.ReplaceAllString(line, "0")
		labels, words := splitLabels(splitWords(sized))
		for _, label := range labels {
			if !reLabel.MatchString(label) {
				err = ErrLabelInvalid
				return
			}
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = addr
		}
		addr += 4 * uint32(sizeOf(words))
	}

	// Pass 2: encode.
	addr = origin
	for n, text := range lines {
		lineno = n + 1
		line = stripComment(text)

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		var codes []uint32
		codes, err = asm.parseWords(words, addr)
		if err != nil {
			return
		}

		if len(codes) == 0 {
			continue
		}

		asm.Opcode = append(asm.Opcode, Opcode{
			LineNo: lineno,
			Addr:   addr,
			Words:  words,
			Codes:  codes,
		})
		addr += 4 * uint32(len(codes))
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// register parses a register operand.
func (asm *Assembler) register(word string) (reg uint8, err error) {
	reg, ok := LookupRegister(word)
	if !ok {
		err = ErrParseRegister(word)
	}
	return
}

// immediate parses a 16 bit immediate operand. Both the signed and the
// unsigned 16 bit ranges are accepted.
func (asm *Assembler) immediate(word string) (imm uint16, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	signed := int32(value)
	if signed < -0x8000 || signed > 0xffff {
		err = errors.Join(ErrImmediateRange, ErrParseNumber(word))
		return
	}

	imm = uint16(value)
	return
}

// memoryOperand parses 'offset($rs)'. The offset may be omitted.
func (asm *Assembler) memoryOperand(word string) (rs uint8, imm uint16, err error) {
	match := reMemory.FindStringSubmatch(word)
	if match == nil {
		err = ErrParseRegister(word)
		return
	}

	rs, err = asm.register(match[2])
	if err != nil {
		return
	}

	if len(match[1]) != 0 {
		imm, err = asm.immediate(match[1])
	}

	return
}

// branchOffset computes the word displacement for a branch at addr. A label
// is converted to a displacement, a number is taken as the displacement.
func (asm *Assembler) branchOffset(word string, addr uint32) (imm uint16, err error) {
	target, ok := asm.Label[word]
	if !ok {
		if reLabel.MatchString(word) {
			err = ErrLabelMissing(word)
			return
		}
		return asm.immediate(word)
	}

	delta := int64(target) - int64(addr+4)
	if delta%4 != 0 || delta/4 < -0x8000 || delta/4 > 0x7fff {
		err = ErrTargetInvalid
		return
	}

	imm = uint16(int16(delta / 4))
	return
}

// jumpTarget computes the 26 bit target field for a jump at addr. Labels and
// numbers are both absolute addresses.
func (asm *Assembler) jumpTarget(word string, addr uint32) (target uint32, err error) {
	dest, ok := asm.Label[word]
	if !ok {
		if reLabel.MatchString(word) {
			err = ErrLabelMissing(word)
			return
		}
		dest, err = asm.valueOf(word)
		if err != nil {
			return
		}
	}

	if dest&3 != 0 || dest&0xf0000000 != addr&0xf0000000 {
		err = ErrTargetInvalid
		return
	}

	target = (dest >> 2) & 0x03ffffff
	return
}

// argCount checks the number of operands.
func argCount(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeValueMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// opArgCount checks the number of operands of an instruction, adding its
// operand usage to the error.
func opArgCount(op Mnemonic, args []string, count int) (err error) {
	err = argCount(args, count)
	if err != nil {
		err = errors.Join(err, ErrOperands(op))
	}
	return
}

// parseWords encodes the words of a line, placed at addr.
func (asm *Assembler) parseWords(words []string, addr uint32) (codes []uint32, err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	name := strings.ToLower(words[0])
	args := words[1:]

	// Pseudo instructions and directives.
	switch name {
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			var value uint32
			value, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			codes = append(codes, value)
		}
		return
	case "nop":
		err = argCount(args, 0)
		if err != nil {
			return
		}
		codes = append(codes, MakeR(OP_SLL, REG_ZERO, REG_ZERO, REG_ZERO, 0).Word())
		return
	case "halt":
		err = argCount(args, 0)
		if err != nil {
			return
		}
		codes = append(codes,
			MakeI(OP_ADDIU, REG_V0, REG_ZERO, uint16(SYSCALL_EXIT)).Word(),
			MakeR(OP_SYSCALL, 0, 0, 0, 0).Word(),
		)
		return
	case "move":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		var rd, rs uint8
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		rs, err = asm.register(args[1])
		if err != nil {
			return
		}
		codes = append(codes, MakeR(OP_ADDU, rd, rs, REG_ZERO, 0).Word())
		return
	case "li":
		err = argCount(args, 2)
		if err != nil {
			return
		}
		var rt uint8
		var value uint32
		rt, err = asm.register(args[0])
		if err != nil {
			return
		}
		value, err = asm.valueOf(args[1])
		if err != nil {
			return
		}
		codes = append(codes,
			MakeI(OP_LUI, rt, REG_ZERO, uint16(value>>16)).Word(),
			MakeI(OP_ORI, rt, rt, uint16(value)).Word(),
		)
		return
	}

	op, ok := LookupMnemonic(name)
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	var inst Instruction

	switch op.Info().Syntax {
	case SYNTAX_NONE:
		err = opArgCount(op, args, 0)
		if err != nil {
			return
		}
		inst = MakeR(op, 0, 0, 0, 0)
	case SYNTAX_RD_RS_RT, SYNTAX_RD_RT_RS:
		err = opArgCount(op, args, 3)
		if err != nil {
			return
		}
		var regs [3]uint8
		for n := range regs {
			regs[n], err = asm.register(args[n])
			if err != nil {
				return
			}
		}
		if op.Info().Syntax == SYNTAX_RD_RS_RT {
			inst = MakeR(op, regs[0], regs[1], regs[2], 0)
		} else {
			inst = MakeR(op, regs[0], regs[2], regs[1], 0)
		}
	case SYNTAX_RD_RT_SHAMT:
		err = opArgCount(op, args, 3)
		if err != nil {
			return
		}
		var rd, rt uint8
		var shamt uint32
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		rt, err = asm.register(args[1])
		if err != nil {
			return
		}
		shamt, err = asm.valueOf(args[2])
		if err != nil {
			return
		}
		if shamt > 31 {
			err = ErrShiftRange
			return
		}
		inst = MakeR(op, rd, REG_ZERO, rt, uint8(shamt))
	case SYNTAX_RS_RT:
		err = opArgCount(op, args, 2)
		if err != nil {
			return
		}
		var rs, rt uint8
		rs, err = asm.register(args[0])
		if err != nil {
			return
		}
		rt, err = asm.register(args[1])
		if err != nil {
			return
		}
		inst = MakeR(op, 0, rs, rt, 0)
	case SYNTAX_RD:
		err = opArgCount(op, args, 1)
		if err != nil {
			return
		}
		var rd uint8
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		inst = MakeR(op, rd, 0, 0, 0)
	case SYNTAX_RS:
		err = opArgCount(op, args, 1)
		if err != nil {
			return
		}
		var rs uint8
		rs, err = asm.register(args[0])
		if err != nil {
			return
		}
		inst = MakeR(op, 0, rs, 0, 0)
	case SYNTAX_RD_RS:
		// jalr rs => jalr $ra, rs
		if len(args) == 1 {
			args = []string{RegisterName[REG_RA], args[0]}
		}
		err = opArgCount(op, args, 2)
		if err != nil {
			return
		}
		var rd, rs uint8
		rd, err = asm.register(args[0])
		if err != nil {
			return
		}
		rs, err = asm.register(args[1])
		if err != nil {
			return
		}
		inst = MakeR(op, rd, rs, 0, 0)
	case SYNTAX_RT_RS_IMM:
		err = opArgCount(op, args, 3)
		if err != nil {
			return
		}
		var rt, rs uint8
		var imm uint16
		rt, err = asm.register(args[0])
		if err != nil {
			return
		}
		rs, err = asm.register(args[1])
		if err != nil {
			return
		}
		imm, err = asm.immediate(args[2])
		if err != nil {
			return
		}
		inst = MakeI(op, rt, rs, imm)
	case SYNTAX_RT_IMM:
		err = opArgCount(op, args, 2)
		if err != nil {
			return
		}
		var rt uint8
		var imm uint16
		rt, err = asm.register(args[0])
		if err != nil {
			return
		}
		imm, err = asm.immediate(args[1])
		if err != nil {
			return
		}
		inst = MakeI(op, rt, 0, imm)
	case SYNTAX_RT_MEM:
		err = opArgCount(op, args, 2)
		if err != nil {
			return
		}
		var rt, rs uint8
		var imm uint16
		rt, err = asm.register(args[0])
		if err != nil {
			return
		}
		rs, imm, err = asm.memoryOperand(args[1])
		if err != nil {
			return
		}
		inst = MakeI(op, rt, rs, imm)
	case SYNTAX_RS_RT_BRANCH:
		err = opArgCount(op, args, 3)
		if err != nil {
			return
		}
		var rs, rt uint8
		var imm uint16
		rs, err = asm.register(args[0])
		if err != nil {
			return
		}
		rt, err = asm.register(args[1])
		if err != nil {
			return
		}
		imm, err = asm.branchOffset(args[2], addr)
		if err != nil {
			return
		}
		inst = MakeI(op, rt, rs, imm)
	case SYNTAX_RS_BRANCH:
		err = opArgCount(op, args, 2)
		if err != nil {
			return
		}
		var rs uint8
		var imm uint16
		rs, err = asm.register(args[0])
		if err != nil {
			return
		}
		imm, err = asm.branchOffset(args[1], addr)
		if err != nil {
			return
		}
		inst = MakeI(op, 0, rs, imm)
	case SYNTAX_TARGET:
		err = opArgCount(op, args, 1)
		if err != nil {
			return
		}
		var target uint32
		target, err = asm.jumpTarget(args[0], addr)
		if err != nil {
			return
		}
		inst = MakeJ(op, target)
	default:
		err = ErrInstructionInvalid
		return
	}

	codes = append(codes, inst.Word())

	return
}
