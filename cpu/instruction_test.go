package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert := assert.New(t)

	for opcode := range uint32(64) {
		word := (opcode << 26) | 0x0123456
		form := Classify(word)
		switch opcode {
		case 0:
			assert.Equal(FORMAT_R, form)
		case 2, 3:
			assert.Equal(FORMAT_J, form)
		default:
			assert.Equal(FORMAT_I, form, "opcode 0x%02x", opcode)
		}
	}
}

func TestOpcodeStrings(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("R", FORMAT_R.String())
	assert.Equal("J", FORMAT_J.String())
	assert.Equal("Format(7)", Format(7).String())

	assert.Equal("rd, rt, shamt", OP_SLL.Info().Syntax.String())
	assert.Equal("rt, imm(rs)", OP_SW.Info().Syntax.String())
	assert.Equal("target", OP_JAL.Info().Syntax.String())
	assert.Equal("Syntax(-1)", Syntax(-1).String())

	assert.Equal("sign", OP_ADDI.Info().Extend.String())
	assert.Equal("zero", OP_ORI.Info().Extend.String())
	assert.Equal("upper", OP_LUI.Info().Extend.String())
}

func TestDecodeFields(t *testing.T) {
	assert := assert.New(t)

	// add $t2, $t0, $t1
	inst, err := Decode(0x01095020)
	assert.NoError(err)
	assert.Equal(RFormat{Rs: 8, Rt: 9, Rd: 10, Shamt: 0, Funct: FUNCT_ADD}, inst)
	assert.Equal(OP_ADD, inst.Mnemonic())
	assert.Equal(FORMAT_R, inst.Format())
	assert.Equal("add $t2, $t0, $t1", inst.String())

	// sra $t0, $t1, 4
	inst, err = Decode(0x00094103)
	assert.NoError(err)
	assert.Equal(RFormat{Rs: 0, Rt: 9, Rd: 8, Shamt: 4, Funct: FUNCT_SRA}, inst)
	assert.Equal("sra $t0, $t1, 4", inst.String())

	// addi $t0, $t1, -1
	inst, err = Decode(0x2128ffff)
	assert.NoError(err)
	assert.Equal(IFormat{Opcode: OPCODE_ADDI, Rs: 9, Rt: 8, Immediate: 0xffff}, inst)
	assert.Equal(uint32(0xffffffff), inst.(IFormat).SignExtend())
	assert.Equal(uint32(0x0000ffff), inst.(IFormat).ZeroExtend())
	assert.Equal(uint32(0xffffffff), inst.(IFormat).Extended())
	assert.Equal("addi $t0, $t1, -1", inst.String())

	// ori $t0, $t1, 0xffff
	inst, err = Decode(0x3528ffff)
	assert.NoError(err)
	assert.Equal(OP_ORI, inst.Mnemonic())
	assert.Equal(uint32(0x0000ffff), inst.(IFormat).Extended())

	// lui $t0, 0x1234
	inst, err = Decode(0x3c081234)
	assert.NoError(err)
	assert.Equal(OP_LUI, inst.Mnemonic())
	assert.Equal(uint32(0x12340000), inst.(IFormat).Extended())

	// lw $t0, 8($sp)
	inst, err = Decode(0x8fa80008)
	assert.NoError(err)
	assert.Equal(IFormat{Opcode: OPCODE_LW, Rs: REG_SP, Rt: 8, Immediate: 8}, inst)
	assert.Equal("lw $t0, 8($sp)", inst.String())

	// j 0x00400010
	inst, err = Decode(0x08100004)
	assert.NoError(err)
	assert.Equal(JFormat{Opcode: OPCODE_J, Target: 0x0100004}, inst)
	assert.Equal(uint32(0x00400010), inst.(JFormat).Address(0x00400000))
	assert.Equal(FORMAT_J, inst.Format())

	// nop
	inst, err = Decode(0)
	assert.NoError(err)
	assert.Equal(OP_SLL, inst.Mnemonic())
	assert.Equal("nop", inst.String())
}

func TestDecodeRegimm(t *testing.T) {
	assert := assert.New(t)

	inst, err := Decode(0x0500fffe) // bltz $t0, -2
	assert.NoError(err)
	assert.Equal(OP_BLTZ, inst.Mnemonic())
	assert.Equal("bltz $t0, -2", inst.String())

	inst, err = Decode(0x05010003) // bgez $t0, 3
	assert.NoError(err)
	assert.Equal(OP_BGEZ, inst.Mnemonic())

	_, err = Decode(0x05020003) // rt=2 is not implemented
	assert.ErrorIs(err, ErrOpcodeDecode)
	assert.Equal(ErrDecode(0x05020003), err)
}

func TestDecodeInvalid(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		word uint32
	}){
		{"funct 0x01", 0x00000001},
		{"funct 0x3f", 0x0000003f},
		{"break", 0x0000000d},
		{"cop0", 0x40000000},
		{"opcode 0x3f", 0xfc000000},
		{"lwl", 0x88000000},
	}

	for _, entry := range table {
		inst, err := Decode(entry.word)
		assert.Nil(inst, entry.name)
		assert.ErrorIs(err, ErrOpcodeDecode, entry.name)
		var ed ErrDecode
		assert.ErrorAs(err, &ed, entry.name)
		assert.Equal(entry.word, uint32(ed), entry.name)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for n := range op_count {
		op := Mnemonic(n)
		if !op.Valid() {
			continue
		}

		var inst Instruction
		switch op.Info().Format {
		case FORMAT_R:
			inst = MakeR(op, 3, 4, 5, 6)
		case FORMAT_I:
			inst = MakeI(op, 7, 8, 0x8123)
		case FORMAT_J:
			inst = MakeJ(op, 0x0123456)
		}

		decoded, err := Decode(inst.Word())
		assert.NoError(err, op.String())
		assert.Equal(inst, decoded, op.String())
		assert.Equal(op, decoded.Mnemonic(), op.String())
		assert.Equal(op.Info().Format, decoded.Format(), op.String())
	}
}

func TestMnemonicLookup(t *testing.T) {
	assert := assert.New(t)

	op, ok := LookupMnemonic("ADDIU")
	assert.True(ok)
	assert.Equal(OP_ADDIU, op)

	_, ok = LookupMnemonic("invalid")
	assert.False(ok)

	assert.False(OP_INVALID.Valid())
	assert.False(Mnemonic(1000).Valid())
	assert.Equal("invalid", Mnemonic(-1).String())
}

func TestRegisterLookup(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		reg  uint8
	}){
		{"$zero", 0},
		{"$0", 0},
		{"$v0", 2},
		{"$T0", 8},
		{"$8", 8},
		{"$sp", 29},
		{"$s8", 30},
		{"$fp", 30},
		{"$ra", 31},
		{"$31", 31},
	}

	for _, entry := range table {
		reg, ok := LookupRegister(entry.name)
		assert.True(ok, entry.name)
		assert.Equal(entry.reg, reg, entry.name)
	}

	for _, name := range []string{"t0", "$32", "$", "$xx"} {
		_, ok := LookupRegister(name)
		assert.False(ok, name)
	}
}

func FuzzDecode(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(0x01095020))
	f.Add(uint32(0x08100004))
	f.Add(uint32(0xffffffff))

	f.Fuzz(func(t *testing.T, word uint32) {
		assert := assert.New(t)

		inst, err := Decode(word)
		again, err_again := Decode(word)
		assert.Equal(inst, again)
		assert.Equal(err, err_again)

		if err != nil {
			assert.ErrorIs(err, ErrOpcodeDecode)
			return
		}

		assert.Equal(Classify(word), inst.Format())
		assert.True(inst.Mnemonic().Valid())

		// Fields are a lossless split of the word.
		assert.Equal(word, inst.Word())
	})
}
