package cpu

import "fmt"

// ExecuteMultiply runs MUL/MLA (32x32 -> 32 bit).
func (c *CPU) ExecuteMultiply(opcode uint32) error {
	accumulate := (opcode>>21)&0x1 != 0
	setFlags := (opcode>>20)&1 != 0

	rd := int((opcode >> 16) & 0xF)
	rn := int((opcode >> 12) & 0xF)
	rs := int((opcode >> 8) & 0xF)
	rm := int(opcode & 0xF)

	if rd == PC || rm == PC || rs == PC || (accumulate && rn == PC) {
		return fmt.Errorf("cpu: PC used as operand in multiply instruction")
	}

	result := c.GetRegister(rm) * c.GetRegister(rs)
	if accumulate {
		result += c.GetRegister(rn)
	}
	c.SetRegister(rd, result)

	if setFlags {
		c.CPSR.UpdateFlagsNZ(result)
	}

	c.AdvancePC()
	c.Cycles += uint64(multiplyCycles(c.GetRegister(rs))) - 1
	return nil
}

// ExecuteMultiplyLong runs UMULL/UMLAL/SMULL/SMLAL (32x32 -> 64 bit),
// the form the ARM2-class core this replaces never implemented.
func (c *CPU) ExecuteMultiplyLong(opcode uint32) error {
	signed := (opcode>>22)&0x1 != 0
	accumulate := (opcode>>21)&0x1 != 0
	setFlags := (opcode>>20)&1 != 0

	rdHi := int((opcode >> 16) & 0xF)
	rdLo := int((opcode >> 12) & 0xF)
	rs := int((opcode >> 8) & 0xF)
	rm := int(opcode & 0xF)

	if rdHi == PC || rdLo == PC || rs == PC || rm == PC || rdHi == rdLo {
		return fmt.Errorf("cpu: invalid register combination in multiply-long instruction")
	}

	var result uint64
	if signed {
		result = uint64(int64(int32(c.GetRegister(rm))) * int64(int32(c.GetRegister(rs))))
	} else {
		result = uint64(c.GetRegister(rm)) * uint64(c.GetRegister(rs))
	}

	if accumulate {
		acc := uint64(c.GetRegister(rdHi))<<32 | uint64(c.GetRegister(rdLo))
		result += acc
	}

	c.SetRegister(rdLo, uint32(result))
	c.SetRegister(rdHi, uint32(result>>32))

	if setFlags {
		c.CPSR.N = result&0x8000000000000000 != 0
		c.CPSR.Z = result == 0
	}

	c.AdvancePC()
	c.Cycles += uint64(multiplyCycles(c.GetRegister(rs)))
	return nil
}

// multiplyCycles estimates early-termination multiply timing: each
// non-zero 2-bit group of the multiplier costs an extra cycle.
func multiplyCycles(multiplier uint32) int {
	cycles := 2
	value := multiplier
	for i := 0; i < 16 && value != 0; i++ {
		if value&0x3 != 0 {
			cycles++
		}
		value >>= 2
	}
	if cycles > 16 {
		cycles = 16
	}
	return cycles
}
