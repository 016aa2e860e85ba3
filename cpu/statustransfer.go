package cpu

import "fmt"

// field masks for MSR's 4-bit field-select nibble (bits[19:16]).
const (
	fieldControl = 1 << 0 // bits[7:0]  — mode, T, I, F (privileged only)
	fieldFlags   = 1 << 3 // bits[31:24] — N,Z,C,V
)

// ExecutePSRTransfer runs MRS and MSR against CPSR or SPSR, with the
// 4-bit per-field write mask the ARM2-class core this replaces never
// implemented (it only ever wrote the flag bits).
func (c *CPU) ExecutePSRTransfer(opcode uint32) error {
	isMSR := (opcode>>21)&1 != 0
	if !isMSR {
		return c.executeMRS(opcode)
	}
	return c.executeMSR(opcode)
}

func (c *CPU) executeMRS(opcode uint32) error {
	usesSPSR := (opcode>>22)&1 != 0
	rd := int((opcode >> 12) & 0xF)
	if rd == PC {
		return fmt.Errorf("cpu: MRS cannot target R15")
	}

	var value uint32
	if usesSPSR {
		if !c.HasSPSR() {
			return fmt.Errorf("cpu: MRS SPSR has no meaning in mode %s", c.CPSR.Mode)
		}
		value = c.SPSR().ToUint32()
	} else {
		value = c.CPSR.ToUint32()
	}

	c.SetRegister(rd, value)
	c.AdvancePC()
	return nil
}

func (c *CPU) executeMSR(opcode uint32) error {
	usesSPSR := (opcode>>22)&1 != 0
	immediateBit := (opcode>>25)&1 != 0
	fieldMask := (opcode >> 16) & 0xF

	var source uint32
	if immediateBit {
		imm := opcode & 0xFF
		rotate := ((opcode >> 8) & 0xF) * 2
		source = PerformShift(imm, int(rotate), ShiftROR, c.CPSR.C, true)
	} else {
		rm := int(opcode & 0xF)
		if rm == PC {
			return fmt.Errorf("cpu: MSR cannot take R15 as source")
		}
		source = c.GetRegister(rm)
	}

	byteMask := uint32(0)
	if fieldMask&fieldFlags != 0 {
		byteMask |= 0xFF000000
	}
	if fieldMask&fieldControl != 0 {
		byteMask |= 0x000000FF
	}
	// The two middle field bits (status/extension) gate bytes this
	// core doesn't define; they are accepted and ignored.

	if usesSPSR {
		if !c.HasSPSR() {
			return fmt.Errorf("cpu: MSR SPSR has no meaning in mode %s", c.CPSR.Mode)
		}
		spsr := c.SPSR()
		merged := (spsr.ToUint32() &^ byteMask) | (source & byteMask)
		spsr.FromUint32(merged)
		c.AdvancePC()
		return nil
	}

	// Unprivileged (user mode) writes may only touch the flag bits.
	if c.CPSR.Mode == ModeUser {
		byteMask &= 0xFF000000
	}

	current := c.CPSR.ToUint32()
	merged := (current &^ byteMask) | (source & byteMask)

	newMode := Mode(merged & 0x1F)
	if byteMask&0xFF != 0 && newMode != c.CPSR.Mode {
		c.SwitchMode(newMode)
	}
	c.CPSR.FromUint32(merged)

	c.AdvancePC()
	return nil
}
