package cpu

import "fmt"

// ExecuteLoadStoreMultiple runs LDM/STM, including the S-bit forced-
// user-bank form (spec §4.8) absent from the single-mode core this
// replaces.
func (c *CPU) ExecuteLoadStoreMultiple(opcode uint32) error {
	load := (opcode>>20)&1 != 0
	writeBack := (opcode>>21)&1 != 0
	forceUserOrRestorePSR := (opcode>>22)&1 != 0
	increment := (opcode>>23)&1 != 0
	preIndex := (opcode>>24)&1 != 0

	rn := int((opcode >> 16) & 0xF)
	regList := opcode & 0xFFFF

	baseAddr := c.GetRegister(rn)

	numRegs := 0
	firstReg := -1
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) != 0 {
			numRegs++
			if firstReg == -1 {
				firstReg = i
			}
		}
	}
	if numRegs == 0 {
		return fmt.Errorf("cpu: load/store multiple with empty register list")
	}

	regSpan := uint32(numRegs * 4)
	var addr, newBase uint32
	if increment {
		newBase = baseAddr + regSpan
		if preIndex {
			addr = baseAddr + 4
		} else {
			addr = baseAddr
		}
	} else {
		newBase = baseAddr - regSpan
		if preIndex {
			addr = baseAddr - regSpan
		} else {
			addr = baseAddr - regSpan + 4
		}
	}

	pcLoaded := false
	// S=1 on LDM/STM without R15 in the list forces access to the
	// user/system bank regardless of current mode (spec §4.8); S=1
	// with R15 in an LDM instead means "restore CPSR from SPSR",
	// handled below once the transfer completes.
	forceUserBank := forceUserOrRestorePSR && !(regList&(1<<uint(PC)) != 0)

	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}

		if load {
			value, err := c.Mem.ReadWord(addr)
			if err != nil {
				return fmt.Errorf("cpu: load multiple failed at 0x%08X: %w", addr, err)
			}
			if forceUserBank {
				c.SetUserRegister(i, value)
			} else if i == PC {
				c.BranchExchange(value)
			} else {
				c.SetRegister(i, value)
			}
			if i == PC {
				pcLoaded = true
			}
		} else {
			var value uint32
			if forceUserBank {
				value = c.UserRegister(i)
			} else {
				value = c.GetRegister(i)
			}
			switch {
			case i == PC:
				value = c.Pc + 12
			case i == rn && i != firstReg:
				// The base register stores its post-transfer value
				// unless it is the first register written (spec §4.8).
				value = newBase
			}
			if err := c.Mem.WriteWord(addr, value); err != nil {
				return fmt.Errorf("cpu: store multiple failed at 0x%08X: %w", addr, err)
			}
		}

		addr += 4
	}

	if writeBack && rn != PC {
		if forceUserBank {
			c.SetUserRegister(rn, newBase)
		} else {
			c.SetRegister(rn, newBase)
		}
	}

	if forceUserOrRestorePSR && load && pcLoaded {
		if c.HasSPSR() {
			saved := *c.SPSR()
			if saved.Mode != c.CPSR.Mode {
				c.SwitchMode(saved.Mode)
			}
			c.CPSR = saved
		}
	}

	if !pcLoaded {
		c.AdvancePC()
	}
	return nil
}
