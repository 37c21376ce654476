package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Opcode is a line of program source with the words it generated.
type Opcode struct {
	LineNo int      // Source line number.
	Addr   uint32   // Address of the first generated word.
	Words  []string // Source words.
	Codes  []uint32 // Generated instruction words.
}

// Program is a program image, as a list of source opcodes.
type Program struct {
	Opcodes []Opcode
}

// Debug maps an address back to the opcode that generated it.
type Debug struct {
	*Opcode
	Index int
}

func (prog *Program) Debug(addr uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && addr < op.Addr+4*uint32(len(op.Codes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr-op.Addr) / 4,
			}
			break
		}
	}

	return
}

// Binary returns the program words in order.
func (prog *Program) Binary() (bins []uint32) {
	for _, code := range prog.Codes() {
		bins = append(bins, code)
	}

	return
}

// Codes iterates over the program as address, word pairs.
func (prog *Program) Codes() iter.Seq2[uint32, uint32] {
	return func(yield func(addr uint32, code uint32) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Addr+4*uint32(n), code) {
					return
				}
			}
		}
	}
}

// WriteHex writes the program image, one hex word per line.
func (prog *Program) WriteHex(out io.Writer) (err error) {
	w := bufio.NewWriter(out)
	for _, code := range prog.Codes() {
		_, err = fmt.Fprintf(w, "0x%08x\n", code)
		if err != nil {
			return
		}
	}
	err = w.Flush()
	return
}

// ParseHex reads a program image of whitespace separated hex words,
// loaded at consecutive words from origin. Text after ';' or '#' is
// a comment.
func ParseHex(input io.Reader, origin uint32) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	prog = &Program{}
	addr := origin

	for scanner.Scan() {
		lineno++
		line = scanner.Text()

		text := line
		if n := strings.IndexAny(text, ";#"); n >= 0 {
			text = text[:n]
		}

		for _, word := range strings.Fields(text) {
			digits := strings.TrimPrefix(strings.ToLower(word), "0x")
			var value uint64
			value, err = strconv.ParseUint(digits, 16, 32)
			if err != nil {
				err = ErrParseNumber(word)
				return
			}
			prog.Opcodes = append(prog.Opcodes, Opcode{
				LineNo: lineno,
				Addr:   addr,
				Words:  []string{word},
				Codes:  []uint32{uint32(value)},
			})
			addr += 4
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if len(prog.Opcodes) == 0 {
		line = ""
		err = ErrImageEmpty
		return
	}

	return
}
