package cpu

// State is the architectural state of the processor.
type State struct {
	Pc       uint32     // Program counter.
	Register [32]uint32 // General purpose registers. Register 0 is always zero.
	Hi       uint32     // High word of MULT/DIV results.
	Lo       uint32     // Low word of MULT/DIV results.
}

// SetRegister writes a general purpose register. Writes to register 0
// are discarded.
func (st *State) SetRegister(reg uint8, value uint32) {
	reg &= 0x1f
	if reg == REG_ZERO {
		return
	}
	st.Register[reg] = value
}

// Reset zeroes the state.
func (st *State) Reset() {
	*st = State{}
}
