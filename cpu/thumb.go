package cpu

import "github.com/twincore/armduo/decode"

// ExecuteThumb dispatches a 16-bit Thumb opcode to its handler. The
// register-machine formats (shifts, ALU, hi-register ops, branches)
// are implemented natively, and so are the single load/store formats,
// which compute their address here and call the memory controller
// directly. PUSH/POP and LDMIA/STMIA are translated into the equivalent
// 32-bit ARM LDM/STM encoding and run through the ARM handler.
func (c *CPU) ExecuteThumb(op decode.ThumbOp, opcode uint16) error {
	switch op {
	case decode.ThumbShiftImmediate:
		return c.thumbShiftImmediate(opcode)
	case decode.ThumbAddSubtract:
		return c.thumbAddSubtract(opcode)
	case decode.ThumbImmediateOp:
		return c.thumbImmediateOp(opcode)
	case decode.ThumbALU:
		return c.thumbALU(opcode)
	case decode.ThumbHiRegisterOp:
		return c.thumbHiRegisterOp(opcode)
	case decode.ThumbPCRelativeLoad:
		return c.thumbPCRelativeLoad(opcode)
	case decode.ThumbLoadStoreRegisterOffset:
		return c.thumbLoadStoreRegisterOffset(opcode)
	case decode.ThumbLoadStoreImmediateOffset:
		return c.thumbLoadStoreImmediateOffset(opcode)
	case decode.ThumbLoadStoreHalfword:
		return c.thumbLoadStoreHalfword(opcode)
	case decode.ThumbSPRelativeLoadStore:
		return c.thumbSPRelativeLoadStore(opcode)
	case decode.ThumbLoadAddress:
		return c.thumbLoadAddress(opcode)
	case decode.ThumbAddOffsetToSP:
		return c.thumbAddOffsetToSP(opcode)
	case decode.ThumbPushPop:
		return c.thumbPushPop(opcode)
	case decode.ThumbLoadStoreMultiple:
		return c.thumbLoadStoreMultiple(opcode)
	case decode.ThumbConditionalBranch:
		return c.thumbConditionalBranch(opcode)
	case decode.ThumbSoftwareInterrupt:
		return c.thumbSoftwareInterrupt(opcode)
	case decode.ThumbUnconditionalBranch:
		return c.thumbUnconditionalBranch(opcode)
	case decode.ThumbLongBranchLink:
		return c.thumbLongBranchLink(opcode)
	default:
		return errUndefinedThumb(opcode)
	}
}

func errUndefinedThumb(opcode uint16) error {
	return &UndefinedInstructionError{Opcode: uint32(opcode), Thumb: true}
}

// UndefinedInstructionError is returned when no decode pattern (and no
// handler) recognizes an opcode; the run loop wraps it and returns it
// as a fatal error.
type UndefinedInstructionError struct {
	Opcode uint32
	Thumb  bool
}

func (e *UndefinedInstructionError) Error() string {
	if e.Thumb {
		return "cpu: undefined Thumb instruction"
	}
	return "cpu: undefined ARM instruction"
}

func (c *CPU) thumbShiftImmediate(opcode uint16) error {
	op := (opcode >> 11) & 0x3
	amount := int((opcode >> 6) & 0x1F)
	rm := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	value := c.R[rm]
	var kind ShiftType
	switch op {
	case 0:
		kind = ShiftLSL
	case 1:
		kind = ShiftLSR
	case 2:
		kind = ShiftASR
	}

	carry := CalculateShiftCarry(value, amount, kind, c.CPSR.C, true)
	result := PerformShift(value, amount, kind, c.CPSR.C, true)
	c.R[rd] = result
	c.CPSR.UpdateFlagsNZC(result, carry)
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbAddSubtract(opcode uint16) error {
	immediate := (opcode>>10)&1 != 0
	subtract := (opcode>>9)&1 != 0
	rnOrImm := uint32((opcode >> 6) & 0x7)
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	op1 := c.R[rs]
	var op2 uint32
	if immediate {
		op2 = rnOrImm
	} else {
		op2 = c.R[rnOrImm]
	}

	var result uint32
	var carry, overflow bool
	if subtract {
		result = op1 - op2
		carry = CalculateSubCarry(op1, op2)
		overflow = CalculateSubOverflow(op1, op2, result)
	} else {
		result = op1 + op2
		carry = CalculateAddCarry(op1, op2, result)
		overflow = CalculateAddOverflow(op1, op2, result)
	}
	c.R[rd] = result
	c.CPSR.UpdateFlagsNZCV(result, carry, overflow)
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbImmediateOp(opcode uint16) error {
	op := (opcode >> 11) & 0x3
	rd := int((opcode >> 8) & 0x7)
	imm := uint32(opcode & 0xFF)

	op1 := c.R[rd]
	var result uint32
	var carry, overflow bool
	write := true

	switch op {
	case 0: // MOV
		result = imm
		carry = c.CPSR.C
	case 1: // CMP
		result = op1 - imm
		carry = CalculateSubCarry(op1, imm)
		overflow = CalculateSubOverflow(op1, imm, result)
		write = false
	case 2: // ADD
		result = op1 + imm
		carry = CalculateAddCarry(op1, imm, result)
		overflow = CalculateAddOverflow(op1, imm, result)
	case 3: // SUB
		result = op1 - imm
		carry = CalculateSubCarry(op1, imm)
		overflow = CalculateSubOverflow(op1, imm, result)
	}

	if write {
		c.R[rd] = result
	}
	if op == 0 {
		c.CPSR.UpdateFlagsNZC(result, carry)
	} else {
		c.CPSR.UpdateFlagsNZCV(result, carry, overflow)
	}
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbALU(opcode uint16) error {
	op := (opcode >> 6) & 0xF
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)

	op1 := c.R[rd]
	op2 := c.R[rs]
	var result uint32
	var carry, overflow bool
	write := true
	isArith := false

	switch op {
	case 0x0: // AND
		result = op1 & op2
	case 0x1: // EOR
		result = op1 ^ op2
	case 0x2: // LSL
		amount := int(op2 & 0xFF)
		carry = CalculateShiftCarry(op1, amount, ShiftLSL, c.CPSR.C, false)
		result = PerformShift(op1, amount, ShiftLSL, c.CPSR.C, false)
		c.R[rd] = result
		c.CPSR.UpdateFlagsNZC(result, carry)
		c.AdvancePC()
		return nil
	case 0x3: // LSR
		amount := int(op2 & 0xFF)
		carry = CalculateShiftCarry(op1, amount, ShiftLSR, c.CPSR.C, false)
		result = PerformShift(op1, amount, ShiftLSR, c.CPSR.C, false)
		c.R[rd] = result
		c.CPSR.UpdateFlagsNZC(result, carry)
		c.AdvancePC()
		return nil
	case 0x4: // ASR
		amount := int(op2 & 0xFF)
		carry = CalculateShiftCarry(op1, amount, ShiftASR, c.CPSR.C, false)
		result = PerformShift(op1, amount, ShiftASR, c.CPSR.C, false)
		c.R[rd] = result
		c.CPSR.UpdateFlagsNZC(result, carry)
		c.AdvancePC()
		return nil
	case 0x5: // ADC
		carryIn := uint32(0)
		if c.CPSR.C {
			carryIn = 1
		}
		result = op1 + op2 + carryIn
		temp := op1 + op2
		carry = CalculateAddCarry(op1, op2, temp) || CalculateAddCarry(temp, carryIn, result)
		overflow = CalculateAddOverflow(op1, op2, result)
		isArith = true
	case 0x6: // SBC
		carryIn := uint32(1)
		if !c.CPSR.C {
			carryIn = 0
		}
		result = op1 - op2 - (1 - carryIn)
		carry = CalculateSubCarry(op1, op2+1-carryIn)
		overflow = CalculateSubOverflow(op1, op2+(1-carryIn), result)
		isArith = true
	case 0x7: // ROR
		amount := int(op2 & 0xFF)
		carry = CalculateShiftCarry(op1, amount, ShiftROR, c.CPSR.C, false)
		result = PerformShift(op1, amount, ShiftROR, c.CPSR.C, false)
		c.R[rd] = result
		c.CPSR.UpdateFlagsNZC(result, carry)
		c.AdvancePC()
		return nil
	case 0x8: // TST
		result = op1 & op2
		write = false
	case 0x9: // NEG
		result = 0 - op2
		carry = CalculateSubCarry(0, op2)
		overflow = CalculateSubOverflow(0, op2, result)
		isArith = true
	case 0xA: // CMP
		result = op1 - op2
		carry = CalculateSubCarry(op1, op2)
		overflow = CalculateSubOverflow(op1, op2, result)
		write = false
		isArith = true
	case 0xB: // CMN
		result = op1 + op2
		carry = CalculateAddCarry(op1, op2, result)
		overflow = CalculateAddOverflow(op1, op2, result)
		write = false
		isArith = true
	case 0xC: // ORR
		result = op1 | op2
	case 0xD: // MUL
		result = op1 * op2
	case 0xE: // BIC
		result = op1 &^ op2
	case 0xF: // MVN
		result = ^op2
	}

	if write {
		c.R[rd] = result
	}
	if isArith {
		c.CPSR.UpdateFlagsNZCV(result, carry, overflow)
	} else {
		c.CPSR.UpdateFlagsNZ(result)
	}
	c.AdvancePC()
	return nil
}

func (c *CPU) thumbHiRegisterOp(opcode uint16) error {
	op := (opcode >> 8) & 0x3
	h1 := (opcode >> 7) & 0x1
	h2 := (opcode >> 6) & 0x1
	rs := int((opcode>>3)&0x7) | int(h2<<3)
	rd := int(opcode&0x7) | int(h1<<3)

	switch op {
	case 0: // ADD
		c.SetRegister(rd, c.GetRegister(rd)+c.GetRegister(rs))
		if rd == PC {
			c.BranchTo(c.Pc)
		} else {
			c.AdvancePC()
		}
	case 1: // CMP
		op1 := c.GetRegister(rd)
		op2 := c.GetRegister(rs)
		result := op1 - op2
		c.CPSR.UpdateFlagsNZCV(result, CalculateSubCarry(op1, op2), CalculateSubOverflow(op1, op2, result))
		c.AdvancePC()
	case 2: // MOV
		c.SetRegister(rd, c.GetRegister(rs))
		if rd == PC {
			c.BranchTo(c.Pc)
		} else {
			c.AdvancePC()
		}
	case 3: // BX / BLX
		target := c.GetRegister(rs)
		if h1 != 0 {
			c.R[LR] = (c.Pc + 2) | 1
		}
		c.BranchExchange(target)
	}
	return nil
}

func (c *CPU) thumbUnconditionalBranch(opcode uint16) error {
	offset11 := uint32(opcode & 0x7FF)
	if offset11&0x400 != 0 {
		offset11 |= 0xFFFFF800
	}
	c.BranchTo(c.Pc + 4 + (offset11 << 1))
	return nil
}

func (c *CPU) thumbConditionalBranch(opcode uint16) error {
	cond := Condition((opcode >> 8) & 0xF)
	offset := uint32(opcode & 0xFF)
	if offset&0x80 != 0 {
		offset |= 0xFFFFFF00
	}
	if c.CPSR.Evaluate(cond) {
		c.BranchTo(c.Pc + 4 + (offset << 1))
	} else {
		c.AdvancePC()
	}
	return nil
}

func (c *CPU) thumbSoftwareInterrupt(opcode uint16) error {
	return &SoftwareInterruptError{Comment: uint32(opcode & 0xFF)}
}

// SoftwareInterruptError signals SWI/SWI-Thumb; the run loop catches it
// and drives the exception entry sequence rather than treating it as a
// fatal error (spec §7, "breakpoint hit is not an error" sibling case).
type SoftwareInterruptError struct{ Comment uint32 }

func (e *SoftwareInterruptError) Error() string { return "cpu: software interrupt" }

// thumbLongBranchLink runs the two-halfword BL/BLX instruction pair.
// The first halfword (H=0b10) stashes PC+4<<12-shifted high bits into
// LR; the second (H=0b11 for BL, H=0b01 for BLX) combines them into
// the final target. This needs its own two-step state rather than a
// single ARM-equivalent opcode, so it is not trampolined.
func (c *CPU) thumbLongBranchLink(opcode uint16) error {
	h := (opcode >> 11) & 0x3
	offset11 := uint32(opcode & 0x7FF)

	switch h {
	case 0b10: // first halfword
		signed := offset11
		if signed&0x400 != 0 {
			signed |= 0xFFFFF800
		}
		c.R[LR] = c.Pc + 4 + (signed << 12)
		c.AdvancePC()
		return nil
	case 0b11: // second halfword, BL
		target := c.R[LR] + (offset11 << 1)
		c.R[LR] = (c.Pc + 2) | 1
		c.BranchTo(target)
		return nil
	case 0b01: // second halfword, BLX suffix (ARMv5 interworking form)
		target := (c.R[LR] + (offset11 << 1)) &^ 3
		c.R[LR] = (c.Pc + 2) | 1
		c.CPSR.T = false
		c.Pc = target
		return nil
	}
	return errUndefinedThumb(opcode)
}
