package cpu

import "fmt"

// Thumb load/store formats (6-13) compute their own effective address
// (Thumb's addressing modes are simple enough not to need the full ARM
// shifter/P-U-B-W decode), but defer the actual transfer to the memory
// controller the ARM handlers use, so both instruction sets share one
// access path.

func (c *CPU) thumbPCRelativeLoad(opcode uint16) error {
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) << 2
	base := (c.GetRegister(PC)) &^ 3
	value, err := c.Mem.ReadWord(base + imm)
	if err != nil {
		return fmt.Errorf("cpu: PC-relative load failed at 0x%08X: %w", base+imm, err)
	}
	c.R[rd] = value
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbLoadStoreRegisterOffset(opcode uint16) error {
	load := (opcode>>11)&1 != 0
	byteTransfer := (opcode>>10)&1 != 0
	signExtend := (opcode>>9)&1 != 0
	ro := int((opcode >> 6) & 0x7)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	addr := c.R[rb] + c.R[ro]

	if signExtend {
		// Format 8: LDRSB/LDRSH/LDRH/STRH selected by the H/S bits
		// reused from bits [11:10].
		h := (opcode >> 11) & 0x1
		s := (opcode >> 10) & 0x1
		switch {
		case s == 0 && h == 0: // STRH
			return c.memWriteErr(c.Mem.WriteHalfword(addr, uint16(c.R[rd])), addr)
		case s == 0 && h == 1: // LDRH
			v, err := c.Mem.ReadHalfword(addr)
			if err != nil {
				return c.memReadErr(err, addr)
			}
			c.R[rd] = uint32(v)
		case s == 1 && h == 0: // LDRSB
			v, err := c.Mem.ReadByte(addr)
			if err != nil {
				return c.memReadErr(err, addr)
			}
			c.R[rd] = uint32(int32(int8(v)))
		case s == 1 && h == 1: // LDRSH
			v, err := c.Mem.ReadHalfword(addr)
			if err != nil {
				return c.memReadErr(err, addr)
			}
			c.R[rd] = uint32(int32(int16(v)))
		}
		c.AdvancePC()
		return nil
	}

	if load {
		var value uint32
		var err error
		if byteTransfer {
			b, e := c.Mem.ReadByte(addr)
			value, err = uint32(b), e
		} else {
			value, err = c.Mem.ReadWord(addr)
		}
		if err != nil {
			return c.memReadErr(err, addr)
		}
		c.R[rd] = value
	} else {
		var err error
		if byteTransfer {
			err = c.Mem.WriteByte(addr, byte(c.R[rd]))
		} else {
			err = c.Mem.WriteWord(addr, c.R[rd])
		}
		if err != nil {
			return c.memWriteErrPlain(err)
		}
	}
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbLoadStoreImmediateOffset(opcode uint16) error {
	byteTransfer := (opcode>>12)&1 != 0
	load := (opcode>>11)&1 != 0
	imm := uint32((opcode >> 6) & 0x1F)
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	var addr uint32
	if byteTransfer {
		addr = c.R[rb] + imm
	} else {
		addr = c.R[rb] + imm*4
	}

	if load {
		var value uint32
		var err error
		if byteTransfer {
			b, e := c.Mem.ReadByte(addr)
			value, err = uint32(b), e
		} else {
			value, err = c.Mem.ReadWord(addr)
		}
		if err != nil {
			return c.memReadErr(err, addr)
		}
		c.R[rd] = value
	} else {
		var err error
		if byteTransfer {
			err = c.Mem.WriteByte(addr, byte(c.R[rd]))
		} else {
			err = c.Mem.WriteWord(addr, c.R[rd])
		}
		if err != nil {
			return c.memWriteErrPlain(err)
		}
	}
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbLoadStoreHalfword(opcode uint16) error {
	load := (opcode>>11)&1 != 0
	imm := uint32((opcode>>6)&0x1F) * 2
	rb := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	addr := c.R[rb] + imm
	if load {
		v, err := c.Mem.ReadHalfword(addr)
		if err != nil {
			return c.memReadErr(err, addr)
		}
		c.R[rd] = uint32(v)
	} else {
		if err := c.Mem.WriteHalfword(addr, uint16(c.R[rd])); err != nil {
			return c.memWriteErrPlain(err)
		}
	}
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbSPRelativeLoadStore(opcode uint16) error {
	load := (opcode>>11)&1 != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) << 2

	addr := c.R[SP] + imm
	if load {
		v, err := c.Mem.ReadWord(addr)
		if err != nil {
			return c.memReadErr(err, addr)
		}
		c.R[rd] = v
	} else {
		if err := c.Mem.WriteWord(addr, c.R[rd]); err != nil {
			return c.memWriteErrPlain(err)
		}
	}
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbLoadAddress(opcode uint16) error {
	usesSP := (opcode>>11)&1 != 0
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode&0xFF) << 2

	var base uint32
	if usesSP {
		base = c.R[SP]
	} else {
		base = c.GetRegister(PC) &^ 3
	}
	c.R[rd] = base + imm
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbAddOffsetToSP(opcode uint16) error {
	negative := (opcode>>7)&1 != 0
	imm := uint32(opcode&0x7F) << 2
	if negative {
		c.R[SP] -= imm
	} else {
		c.R[SP] += imm
	}
	c.AdvancePC()
	return nil
}

// thumbPushPop and thumbLoadStoreMultiple build the register list and
// P/U/W/L bits Thumb's encoding implies, then run them through the ARM
// load/store-multiple handler (spec §4.9's trampoline delegation).
func (c *CPU) thumbPushPop(opcode uint16) error {
	load := (opcode>>11)&1 != 0
	includeExtra := (opcode>>8)&1 != 0
	regList := opcode & 0xFF

	var armList uint32 = uint32(regList)
	if includeExtra {
		if load {
			armList |= 1 << PC
		} else {
			armList |= 1 << LR
		}
	}

	var armOpcode uint32
	if load {
		// POP == LDMIA SP!: P=0 U=1 W=1 L=1, Rn=SP
		armOpcode = blockTransferOpcode(false, true, true, true, SP, armList)
	} else {
		// PUSH == STMDB SP!: P=1 U=0 W=1 L=0, Rn=SP
		armOpcode = blockTransferOpcode(true, false, true, false, SP, armList)
	}
	return c.ExecuteLoadStoreMultiple(armOpcode)
}

func (c *CPU) thumbLoadStoreMultiple(opcode uint16) error {
	load := (opcode>>11)&1 != 0
	rb := int((opcode >> 8) & 0x7)
	regList := uint32(opcode & 0xFF)

	// LDMIA/STMIA Rb!: P=0 U=1 W=1, L set for load.
	armOpcode := blockTransferOpcode(false, true, true, load, rb, regList)
	return c.ExecuteLoadStoreMultiple(armOpcode)
}

// blockTransferOpcode builds an ARM LDM/STM opcode (unconditional,
// S=0) from its addressing-mode bits, used to translate Thumb's
// multiple-register formats onto the ARM handler.
func blockTransferOpcode(p, u, w, l bool, rn int, regList uint32) uint32 {
	opcode := uint32(0xE8000000)
	if p {
		opcode |= 1 << 24
	}
	if u {
		opcode |= 1 << 23
	}
	if w {
		opcode |= 1 << 21
	}
	if l {
		opcode |= 1 << 20
	}
	opcode |= uint32(rn) << 16
	opcode |= regList
	return opcode
}

func (c *CPU) memReadErr(err error, addr uint32) error {
	return fmt.Errorf("cpu: load failed at 0x%08X: %w", addr, err)
}

func (c *CPU) memWriteErrPlain(err error) error {
	return fmt.Errorf("cpu: store failed: %w", err)
}

func (c *CPU) memWriteErr(err error, addr uint32) error {
	if err != nil {
		return fmt.Errorf("cpu: store failed at 0x%08X: %w", addr, err)
	}
	c.AdvancePC()
	return nil
}
