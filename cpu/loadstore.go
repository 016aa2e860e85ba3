package cpu

import "fmt"

// ExecuteLoadStore runs LDR/STR/LDRB/STRB (decode.ArmLoadStore,
// halfword false) and the halfword/signed forms LDRH/STRH/LDRSB/LDRSH
// (decode.ArmLoadStoreHalfword, halfword true).
func (c *CPU) ExecuteLoadStore(opcode uint32, halfword bool) error {
	load := (opcode>>20)&1 != 0
	byteTransfer := (opcode>>22)&1 != 0
	writeBack := (opcode>>21)&1 != 0
	preIndexed := (opcode>>24)&1 != 0
	addOffset := (opcode>>23)&1 != 0

	rd := int((opcode >> 12) & 0xF)
	rn := int((opcode >> 16) & 0xF)

	baseAddr := c.GetRegister(rn)

	var offset uint32
	var signedByte, signedHalf bool

	if halfword {
		immediate := (opcode>>22)&1 != 0
		if immediate {
			hi := (opcode >> 8) & 0xF
			lo := opcode & 0xF
			offset = hi<<4 | lo
		} else {
			rm := int(opcode & 0xF)
			offset = c.GetRegister(rm)
		}
		sh := (opcode >> 5) & 0x3
		switch sh {
		case 0b01: // unsigned halfword
		case 0b10:
			signedByte = true
		case 0b11:
			signedHalf = true
		}
	} else {
		immediate := (opcode>>25)&1 == 0
		if immediate {
			offset = opcode & 0xFFF
		} else {
			rm := int(opcode & 0xF)
			offsetReg := c.GetRegister(rm)
			shiftType := ShiftType((opcode >> 5) & 0x3)
			shiftAmount := int((opcode >> 7) & 0x1F)
			if shiftType == ShiftROR && shiftAmount == 0 {
				shiftType = ShiftRRX
			}
			offset = PerformShift(offsetReg, shiftAmount, shiftType, c.CPSR.C, true)
		}
	}

	var effectiveAddr uint32
	if addOffset {
		effectiveAddr = baseAddr + offset
	} else {
		effectiveAddr = baseAddr - offset
	}

	accessAddr := baseAddr
	if preIndexed {
		accessAddr = effectiveAddr
	}

	if load {
		var value uint32
		var err error

		switch {
		case halfword && signedByte:
			b, e := c.Mem.ReadByte(accessAddr)
			err = e
			value = uint32(int32(int8(b)))
		case halfword && signedHalf:
			h, e := c.Mem.ReadHalfword(accessAddr)
			err = e
			value = uint32(int32(int16(h)))
		case halfword:
			h, e := c.Mem.ReadHalfword(accessAddr)
			err = e
			value = uint32(h)
		case byteTransfer:
			b, e := c.Mem.ReadByte(accessAddr)
			err = e
			value = uint32(b)
		default:
			value, err = c.Mem.ReadWord(accessAddr)
		}

		if err != nil {
			return fmt.Errorf("cpu: load failed at 0x%08X: %w", accessAddr, err)
		}

		if rd == PC {
			// A core family with interworking loads PC through this path too.
			c.BranchExchange(value)
		} else {
			c.SetRegister(rd, value)
		}
	} else {
		value := c.GetRegister(rd)
		var err error

		switch {
		case halfword:
			err = c.Mem.WriteHalfword(accessAddr, uint16(value))
		case byteTransfer:
			err = c.Mem.WriteByte(accessAddr, byte(value))
		default:
			err = c.Mem.WriteWord(accessAddr, value)
		}

		if err != nil {
			return fmt.Errorf("cpu: store failed at 0x%08X: %w", accessAddr, err)
		}
	}

	if (preIndexed && writeBack) || !preIndexed {
		if rn != PC {
			c.SetRegister(rn, effectiveAddr)
		}
	}

	if !(load && rd == PC) {
		c.AdvancePC()
	}
	return nil
}
