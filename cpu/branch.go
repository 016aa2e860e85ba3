package cpu

// ExecuteBranch runs B/BL (cond != 0xF) and BLX-immediate (cond == 0xF,
// an unconditional switch to Thumb state carried in the top condition
// field per spec §4.9).
func (c *CPU) ExecuteBranch(opcode uint32, unconditionalBLX bool) error {
	link := (opcode>>24)&0x1 != 0

	offset := opcode & 0x00FFFFFF
	if offset&0x00800000 != 0 {
		offset |= 0xFF000000
	}

	base := c.Pc + 8
	if c.CPSR.T {
		base = c.Pc + 4
	}
	target := base + (offset << 2)

	if unconditionalBLX {
		// H bit (bit 24) supplies the extra half-word of target address
		// and this form always switches to Thumb state.
		if opcode&(1<<24) != 0 {
			target += 2
		}
		c.R[LR] = c.Pc + 4
		c.CPSR.T = true
		c.Pc = target &^ 1
		return nil
	}

	if link {
		returnAddr := c.Pc + 4
		if c.CPSR.T {
			returnAddr = c.Pc + 2
		}
		c.R[LR] = returnAddr
	}
	c.BranchTo(target)
	return nil
}

// ExecuteBranchExchange runs BX: branch to Rm, switching instruction
// set according to Rm's bit 0.
func (c *CPU) ExecuteBranchExchange(opcode uint32) error {
	rm := int(opcode & 0xF)
	c.BranchExchange(c.GetRegister(rm))
	return nil
}

// ExecuteBranchExchangeLink runs BLX (register form): like BX, but
// saves a return address in LR first.
func (c *CPU) ExecuteBranchExchangeLink(opcode uint32) error {
	rm := int(opcode & 0xF)
	target := c.GetRegister(rm)
	returnAddr := c.Pc + 4
	if c.CPSR.T {
		returnAddr = c.Pc + 2
	}
	c.R[LR] = returnAddr
	c.BranchExchange(target)
	return nil
}
