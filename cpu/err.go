package cpu

import (
	"errors"

	"github.com/ezrec/mumips/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted          = errors.New(f("simulation stopped"))
	ErrDivideByZero    = errors.New(f("divide by zero"))
	ErrRegisterInvalid = errors.New(f("register invalid"))

	// Instruction decode errors
	ErrOpcodeDecode = errors.New(f("decode"))

	// Program image errors
	ErrImageEmpty = errors.New(f("program image empty"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
	ErrShiftRange         = errors.New(f("shift amount out of range"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrDecode is an instruction word that matches no known encoding.
type ErrDecode uint32

func (ed ErrDecode) Error() string {
	return f("bad instruction 0x%08x (%v)", uint32(ed), Classify(uint32(ed)).String())
}

func (ed ErrDecode) Unwrap() error {
	return ErrOpcodeDecode
}

// ErrFault reports the location of a failed step.
type ErrFault struct {
	Pc   uint32
	Word uint32
	Err  error
}

func (err *ErrFault) Error() string {
	return f("fault at 0x%08x [0x%08x] %v", err.Pc, err.Word, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// ErrOperands describes the operands a mnemonic expects.
type ErrOperands Mnemonic

func (eo ErrOperands) Error() string {
	op := Mnemonic(eo)
	if op.Info().Syntax == SYNTAX_NONE {
		return f("usage: %v", op)
	}
	return f("usage: %v %v", op, op.Info().Syntax)
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
