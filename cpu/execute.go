package cpu

// Bus is the memory the execution engine operates on.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value uint8)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
}

// Execute evaluates a decoded instruction.
//
// All register reads observe current; all register writes land in next,
// which the caller must have initialised as a copy of current. Stores go
// straight to the bus. halt is set when the instruction requested the
// processor to stop.
func Execute(inst Instruction, current *State, next *State, bus Bus) (halt bool, err error) {
	next.Pc = current.Pc + 4

	switch in := inst.(type) {
	case RFormat:
		halt, err = executeR(in, current, next)
	case IFormat:
		err = executeI(in, current, next, bus)
	case JFormat:
		err = executeJ(in, current, next)
	default:
		err = ErrOpcodeDecode
	}

	return
}

// branchTarget applies a branch displacement, counted in instructions.
func branchTarget(pc uint32, offset uint32) uint32 {
	return pc + 4 + (offset << 2)
}

func executeR(in RFormat, current *State, next *State) (halt bool, err error) {
	rs := current.Register[in.Rs&0x1f]
	rt := current.Register[in.Rt&0x1f]
	rd := in.Rd

	switch in.Mnemonic() {
	case OP_SLL:
		next.SetRegister(rd, rt<<in.Shamt)
	case OP_SRL:
		next.SetRegister(rd, rt>>in.Shamt)
	case OP_SRA:
		next.SetRegister(rd, uint32(int32(rt)>>in.Shamt))
	case OP_SLLV:
		next.SetRegister(rd, rt<<(rs&0x1f))
	case OP_SRLV:
		next.SetRegister(rd, rt>>(rs&0x1f))
	case OP_SRAV:
		next.SetRegister(rd, uint32(int32(rt)>>(rs&0x1f)))
	case OP_JR:
		next.Pc = rs
	case OP_JALR:
		if rd == REG_ZERO {
			rd = REG_RA
		}
		next.SetRegister(rd, current.Pc+8)
		next.Pc = rs
	case OP_SYSCALL:
		halt = current.Register[REG_V0] == SYSCALL_EXIT
	case OP_MFHI:
		next.SetRegister(rd, current.Hi)
	case OP_MTHI:
		next.Hi = rs
	case OP_MFLO:
		next.SetRegister(rd, current.Lo)
	case OP_MTLO:
		next.Lo = rs
	case OP_MULT:
		product := uint64(int64(int32(rs)) * int64(int32(rt)))
		next.Lo = uint32(product)
		next.Hi = uint32(product >> 32)
	case OP_MULTU:
		product := uint64(rs) * uint64(rt)
		next.Lo = uint32(product)
		next.Hi = uint32(product >> 32)
	case OP_DIV:
		if rt == 0 {
			err = ErrDivideByZero
			return
		}
		// MinInt32 / -1 wraps to MinInt32, remainder 0.
		next.Lo = uint32(int32(rs) / int32(rt))
		next.Hi = uint32(int32(rs) % int32(rt))
	case OP_DIVU:
		if rt == 0 {
			err = ErrDivideByZero
			return
		}
		next.Lo = rs / rt
		next.Hi = rs % rt
	case OP_ADD, OP_ADDU:
		next.SetRegister(rd, rs+rt)
	case OP_SUB, OP_SUBU:
		next.SetRegister(rd, rs-rt)
	case OP_AND:
		next.SetRegister(rd, rs&rt)
	case OP_OR:
		next.SetRegister(rd, rs|rt)
	case OP_XOR:
		next.SetRegister(rd, rs^rt)
	case OP_NOR:
		next.SetRegister(rd, ^(rs | rt))
	case OP_SLT:
		next.SetRegister(rd, boolWord(int32(rs) < int32(rt)))
	case OP_SLTU:
		next.SetRegister(rd, boolWord(rs < rt))
	default:
		err = ErrDecode(in.Word())
	}

	return
}

func executeI(in IFormat, current *State, next *State, bus Bus) (err error) {
	rs := current.Register[in.Rs&0x1f]
	rt := current.Register[in.Rt&0x1f]
	imm := in.Extended()
	addr := rs + in.SignExtend()

	branch := func(taken bool) {
		if taken {
			next.Pc = branchTarget(current.Pc, in.SignExtend())
		}
	}

	switch in.Mnemonic() {
	case OP_BLTZ:
		branch(int32(rs) < 0)
	case OP_BGEZ:
		branch(int32(rs) >= 0)
	case OP_BEQ:
		branch(rs == rt)
	case OP_BNE:
		branch(rs != rt)
	case OP_BLEZ:
		branch(int32(rs) <= 0)
	case OP_BGTZ:
		branch(int32(rs) > 0)
	case OP_ADDI, OP_ADDIU:
		next.SetRegister(in.Rt, rs+imm)
	case OP_SLTI:
		next.SetRegister(in.Rt, boolWord(int32(rs) < int32(imm)))
	case OP_SLTIU:
		next.SetRegister(in.Rt, boolWord(rs < imm))
	case OP_ANDI:
		next.SetRegister(in.Rt, rs&imm)
	case OP_ORI:
		next.SetRegister(in.Rt, rs|imm)
	case OP_XORI:
		next.SetRegister(in.Rt, rs^imm)
	case OP_LUI:
		next.SetRegister(in.Rt, imm)
	case OP_LB:
		next.SetRegister(in.Rt, uint32(int32(int8(bus.Read8(addr)))))
	case OP_LH:
		next.SetRegister(in.Rt, uint32(int32(int16(bus.Read16(addr)))))
	case OP_LW:
		next.SetRegister(in.Rt, bus.Read32(addr))
	case OP_LBU:
		next.SetRegister(in.Rt, uint32(bus.Read8(addr)))
	case OP_LHU:
		next.SetRegister(in.Rt, uint32(bus.Read16(addr)))
	case OP_SB:
		bus.Write8(addr, uint8(rt))
	case OP_SH:
		bus.Write16(addr, uint16(rt))
	case OP_SW:
		bus.Write32(addr, rt)
	default:
		err = ErrDecode(in.Word())
	}

	return
}

func executeJ(in JFormat, current *State, next *State) (err error) {
	switch in.Mnemonic() {
	case OP_J:
		next.Pc = in.Address(current.Pc)
	case OP_JAL:
		next.SetRegister(REG_RA, current.Pc+8)
		next.Pc = in.Address(current.Pc)
	default:
		err = ErrDecode(in.Word())
	}

	return
}

func boolWord(cond bool) uint32 {
	if cond {
		return 1
	}
	return 0
}
