package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/mumips/memory"
)

// newTestCpu loads the words at the start of the text segment.
func newTestCpu(words ...uint32) (cpu *Cpu) {
	cpu = NewCpu(memory.NewMips())
	for n, word := range words {
		cpu.LoadWord(memory.MEM_TEXT_BEGIN+uint32(n*4), word)
	}
	return
}

var haltWords = []uint32{
	MakeI(OP_ADDIU, REG_V0, REG_ZERO, uint16(SYSCALL_EXIT)).Word(),
	MakeR(OP_SYSCALL, 0, 0, 0, 0).Word(),
}

func TestCpuReset(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	assert.True(cpu.Running)
	assert.Equal(0, cpu.Count)
	assert.Equal(memory.MEM_TEXT_BEGIN, cpu.Current.Pc)
	assert.Equal(cpu.Current, cpu.Next)

	assert.NoError(cpu.SetRegister(8, 0x1234))
	cpu.SetHi(1)
	cpu.SetLo(2)
	cpu.SetPc(0x00400100)
	cpu.Count = 10
	cpu.Stop()
	assert.False(cpu.Running)

	cpu.Reset()
	assert.True(cpu.Running)
	assert.Equal(0, cpu.Count)
	assert.Equal(State{Pc: memory.MEM_TEXT_BEGIN}, cpu.Current)
	assert.Equal(cpu.Current, cpu.Next)
}

func TestCpuSetters(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()

	assert.NoError(cpu.SetRegister(8, 0x1234))
	assert.Equal(uint32(0x1234), cpu.Current.Register[8])
	assert.Equal(uint32(0x1234), cpu.Next.Register[8])

	assert.NoError(cpu.SetRegister(0, 0x1234))
	assert.Equal(uint32(0), cpu.Current.Register[0])
	assert.Equal(uint32(0), cpu.Next.Register[0])

	assert.ErrorIs(cpu.SetRegister(32, 1), ErrRegisterInvalid)
	assert.ErrorIs(cpu.SetRegister(-1, 1), ErrRegisterInvalid)

	cpu.SetHi(0xaaaa)
	cpu.SetLo(0x5555)
	cpu.SetPc(0x00400040)
	assert.Equal(uint32(0xaaaa), cpu.Next.Hi)
	assert.Equal(uint32(0x5555), cpu.Next.Lo)
	assert.Equal(uint32(0x00400040), cpu.Next.Pc)
	assert.Equal(cpu.Current, cpu.Next)
}

func TestCpuStep(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeI(OP_ADDIU, 8, REG_ZERO, 5).Word(),
		MakeI(OP_ADDIU, 9, REG_ZERO, 3).Word(),
		MakeR(OP_ADD, 10, 8, 9, 0).Word(),
	)

	for range 3 {
		assert.NoError(cpu.Step())
	}

	assert.Equal(3, cpu.Count)
	assert.Equal(uint32(8), cpu.Current.Register[10])
	assert.Equal(memory.MEM_TEXT_BEGIN+12, cpu.Current.Pc)
	assert.Equal(cpu.Current, cpu.Next)
	assert.True(cpu.Running)
}

func TestCpuHalt(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(haltWords...)

	ran, err := cpu.Run(10)
	assert.NoError(err)
	assert.Equal(2, ran)
	assert.Equal(2, cpu.Count)
	assert.False(cpu.Running)
	assert.Equal(memory.MEM_TEXT_BEGIN+8, cpu.Current.Pc)

	// Halted is terminal until reset.
	assert.ErrorIs(cpu.Step(), ErrHalted)
	_, err = cpu.Run(1)
	assert.ErrorIs(err, ErrHalted)
	_, err = cpu.RunAll()
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(2, cpu.Count)
}

func TestCpuRun(t *testing.T) {
	assert := assert.New(t)

	// Three nops, then halt.
	cpu := newTestCpu(append([]uint32{0, 0, 0}, haltWords...)...)

	ran, err := cpu.Run(2)
	assert.NoError(err)
	assert.Equal(2, ran)
	assert.True(cpu.Running)

	ran, err = cpu.Run(0)
	assert.NoError(err)
	assert.Equal(0, ran)

	ran, err = cpu.RunAll()
	assert.NoError(err)
	assert.Equal(3, ran)
	assert.Equal(5, cpu.Count)
	assert.False(cpu.Running)
}

func TestCpuStop(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(0, 0, 0)
	assert.NoError(cpu.Step())

	cpu.Stop()
	_, err := cpu.Run(5)
	assert.ErrorIs(err, ErrHalted)
	assert.Equal(1, cpu.Count)

	cpu.Reset()
	ran, err := cpu.Run(2)
	assert.NoError(err)
	assert.Equal(2, ran)
}

func TestCpuLoop(t *testing.T) {
	assert := assert.New(t)

	// Sum 1..10 into $t1.
	cpu := newTestCpu(
		MakeI(OP_ADDIU, 8, REG_ZERO, 10).Word(), // li $t0, 10
		MakeR(OP_ADDU, 9, 9, 8, 0).Word(),       // loop: addu $t1, $t1, $t0
		MakeI(OP_ADDIU, 8, 8, 0xffff).Word(),    // addiu $t0, $t0, -1
		MakeI(OP_BGTZ, 0, 8, 0xfffd).Word(),     // bgtz $t0, loop
		haltWords[0],
		haltWords[1],
	)

	ran, err := cpu.RunAll()
	assert.NoError(err)
	assert.Equal(1+3*10+2, ran)
	assert.Equal(uint32(55), cpu.Current.Register[9])
	assert.Equal(uint32(0), cpu.Current.Register[8])
}

func TestCpuCall(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeJ(OP_JAL, (memory.MEM_TEXT_BEGIN+20)>>2).Word(), // jal func
		0, // skipped, the link is past this slot
		haltWords[0],
		haltWords[1],
		0,
		MakeI(OP_ORI, 8, REG_ZERO, 0x4242).Word(), // func: ori $t0, $zero, 0x4242
		MakeR(OP_JR, 0, REG_RA, 0, 0).Word(),      // jr $ra
	)

	ran, err := cpu.RunAll()
	assert.NoError(err)
	assert.Equal(5, ran)
	assert.Equal(uint32(0x4242), cpu.Current.Register[8])
	assert.Equal(memory.MEM_TEXT_BEGIN+8, cpu.Current.Register[REG_RA])
}

func TestCpuFault(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeI(OP_ADDIU, 8, REG_ZERO, 5).Word(),
		0xfc000000,
	)

	assert.NoError(cpu.Step())
	before := cpu.Current

	err := cpu.Step()
	assert.ErrorIs(err, ErrOpcodeDecode)

	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.Equal(memory.MEM_TEXT_BEGIN+4, fault.Pc)
	assert.Equal(uint32(0xfc000000), fault.Word)

	assert.False(cpu.Running)
	assert.Equal(1, cpu.Count)
	assert.Equal(before, cpu.Current)
	assert.Equal(before, cpu.Next)
}

func TestCpuDivideFault(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeR(OP_MTHI, 0, 8, 0, 0).Word(),
		MakeR(OP_DIV, 0, 8, 9, 0).Word(),
	)
	assert.NoError(cpu.SetRegister(8, 0x77))

	ran, err := cpu.RunAll()
	assert.ErrorIs(err, ErrDivideByZero)
	assert.Equal(1, ran)
	assert.False(cpu.Running)
	assert.Equal(uint32(0x77), cpu.Current.Hi)
	assert.Equal(uint32(0), cpu.Current.Lo)
	assert.Equal(memory.MEM_TEXT_BEGIN+4, cpu.Current.Pc)
}

func TestCpuStoreLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(
		MakeI(OP_LUI, 8, 0, 0x1001).Word(),        // lui $t0, 0x1001
		MakeI(OP_ORI, 9, 0, 0xbeef).Word(),        // ori $t1, $zero, 0xbeef
		MakeI(OP_SW, 9, 8, 0x20).Word(),           // sw $t1, 0x20($t0)
		MakeI(OP_LW, 10, 8, 0x20).Word(),          // lw $t2, 0x20($t0)
		MakeI(OP_LB, 11, 8, 0x20).Word(),          // lb $t3, 0x20($t0)
		MakeI(OP_LHU, 12, 8, 0x20).Word(),         // lhu $t4, 0x20($t0)
		MakeR(OP_SUBU, 13, REG_ZERO, 9, 0).Word(), // subu $t5, $zero, $t1
	)

	ran, err := cpu.Run(7)
	assert.NoError(err)
	assert.Equal(7, ran)
	assert.Equal(uint32(0xbeef), cpu.Bus.Read32(memory.MEM_DATA_BEGIN+0x20))
	assert.Equal(uint32(0xbeef), cpu.Current.Register[10])
	assert.Equal(uint32(0xffffffef), cpu.Current.Register[11])
	assert.Equal(uint32(0xbeef), cpu.Current.Register[12])
	assert.Equal(uint32(0xffff4111), cpu.Current.Register[13])
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	assert.NoError(cpu.SetRegister(8, 0x1234))

	text := cpu.String()
	assert.True(strings.HasPrefix(text, DUMP_RULE+"\nDumping Register Content\n"+DUMP_RULE+"\n"))
	assert.True(strings.HasSuffix(text, "[LO]\t: 0x00000000\n"+DUMP_RULE+"\n"))
	assert.Contains(text, "# Instructions Executed\t: 0\n")
	assert.Contains(text, "PC\t: 0x00400000\n")
	assert.Contains(text, "[R8]\t: 0x00001234\n")
	assert.Contains(text, "[HI]\t: 0x00000000\n")

	// Dumped values are never grouped for the locale.
	cpu.Count = 1234
	assert.Contains(cpu.String(), "# Instructions Executed\t: 1234\n")
}

func TestCpuDefines(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	defines := map[string]string{}
	for key, value := range cpu.Defines() {
		defines[key] = value
	}

	assert.Equal("10", defines["SYSCALL_EXIT"])
	assert.Equal("32", defines["REG_COUNT"])
}
