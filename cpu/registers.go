package cpu

import "github.com/twincore/armduo/mem"

// Register aliases, as in the single-mode interpreter this one replaces.
const (
	R0  = 0
	R1  = 1
	R2  = 2
	R3  = 3
	R4  = 4
	R5  = 5
	R6  = 6
	R7  = 7
	R8  = 8
	R9  = 9
	R10 = 10
	R11 = 11
	R12 = 12
	SP  = 13
	LR  = 14
	PC  = 15
)

// CPU holds one processor core's architectural state: the current
// register view, CPSR, the banked-register sets for every mode listed
// in spec §3, and the FIQ-private R8-R12 bank.
type CPU struct {
	R    [15]uint32 // R0-R14, current-mode view
	Pc   uint32
	CPSR CPSR

	Mem *mem.Controller

	banks [numBanks]bankedRegs

	// R8-R12 are banked only for FIQ; every other mode shares one set.
	fiqHigh  [5]uint32
	userHigh [5]uint32

	Cycles uint64

	// PendingIRQ/PendingFIQ are sampled between instructions by the run
	// loop (spec §5); duocore sets them without holding the CPU's own
	// state lock, so they must stay simple word-sized flags.
	PendingIRQ bool
	PendingFIQ bool
}

// New creates a core reset into supervisor mode with interrupts masked,
// matching the ARM reset exception per spec §4.11, wired to the shared
// memory controller m.
func New(m *mem.Controller) *CPU {
	c := &CPU{Mem: m}
	c.Reset()
	return c
}

// Reset puts the core back into its post-reset state.
func (c *CPU) Reset() {
	for i := range c.R {
		c.R[i] = 0
	}
	c.Pc = 0
	c.Cycles = 0
	for i := range c.banks {
		c.banks[i] = bankedRegs{}
	}
	c.fiqHigh = [5]uint32{}
	c.userHigh = [5]uint32{}
	c.CPSR = CPSR{I: true, F: true, Mode: ModeSupervisor}
}

// GetRegister reads R0-R15. Reading PC returns PC plus the pipeline
// offset for the current instruction set (+8 in ARM state, +4 in Thumb
// state) per spec §3's "R15 seen as an operand" invariant.
func (c *CPU) GetRegister(reg int) uint32 {
	if reg == PC {
		if c.CPSR.T {
			return c.Pc + 4
		}
		return c.Pc + 8
	}
	return c.R[reg]
}

// SetRegister writes R0-R15. Writing PC through this path (ordinary
// data-processing destinations, not BX/BLX) causes a branch with the
// low address bits masked for the current instruction set, but never
// changes instruction set itself; use BranchExchange for interworking
// branches.
func (c *CPU) SetRegister(reg int, value uint32) {
	if reg == PC {
		if c.CPSR.T {
			c.Pc = value &^ 1
		} else {
			c.Pc = value &^ 3
		}
		return
	}
	c.R[reg] = value
}

// UserRegister reads R0-R14 from the user/system bank regardless of the
// current mode, used by LDM/STM's "^" form (S=1, R15 not in the list)
// per spec §4.8.
func (c *CPU) UserRegister(reg int) uint32 {
	if c.CPSR.Mode == ModeUser || c.CPSR.Mode == ModeSystem {
		return c.R[reg]
	}
	switch {
	case reg >= 8 && reg <= 12 && c.CPSR.Mode == ModeFIQ:
		return c.userHigh[reg-8]
	case reg == 13:
		return c.banks[bankUserSystem].r13
	case reg == 14:
		return c.banks[bankUserSystem].r14
	default:
		return c.R[reg]
	}
}

// SetUserRegister is UserRegister's write counterpart.
func (c *CPU) SetUserRegister(reg int, value uint32) {
	if c.CPSR.Mode == ModeUser || c.CPSR.Mode == ModeSystem {
		c.R[reg] = value
		return
	}
	switch {
	case reg >= 8 && reg <= 12 && c.CPSR.Mode == ModeFIQ:
		c.userHigh[reg-8] = value
	case reg == 13:
		c.banks[bankUserSystem].r13 = value
	case reg == 14:
		c.banks[bankUserSystem].r14 = value
	default:
		c.R[reg] = value
	}
}

// SwitchMode changes the current mode, banking out the outgoing mode's
// R13/R14 (and R8-R12 if leaving or entering FIQ) and banking in the
// new mode's set. CPSR.Mode is updated to newMode.
func (c *CPU) SwitchMode(newMode Mode) {
	oldMode := c.CPSR.Mode
	if newMode == oldMode {
		return
	}

	outBank := bankFor(oldMode)
	c.banks[outBank].r13 = c.R[SP]
	c.banks[outBank].r14 = c.R[LR]
	if oldMode == ModeFIQ {
		copy(c.fiqHigh[:], c.R[8:13])
	} else {
		copy(c.userHigh[:], c.R[8:13])
	}

	inBank := bankFor(newMode)
	c.R[SP] = c.banks[inBank].r13
	c.R[LR] = c.banks[inBank].r14
	if newMode == ModeFIQ {
		copy(c.R[8:13], c.fiqHigh[:])
	} else {
		copy(c.R[8:13], c.userHigh[:])
	}

	c.CPSR.Mode = newMode
}

// SPSR returns a pointer to the saved status register for the current
// mode. User and system mode have no SPSR; callers must not reach this
// path for them (spec §3, "no SPSR in user/system mode").
func (c *CPU) SPSR() *CPSR {
	return &c.banks[bankFor(c.CPSR.Mode)].spsr
}

// HasSPSR reports whether the current mode banks an SPSR.
func (c *CPU) HasSPSR() bool {
	return c.CPSR.Mode != ModeUser && c.CPSR.Mode != ModeSystem
}

// BranchTo sets PC to address, masking the word/halfword alignment bit
// for the current instruction set but never changing instruction set
// (plain B/BL semantics).
func (c *CPU) BranchTo(address uint32) {
	if c.CPSR.T {
		c.Pc = address &^ 1
	} else {
		c.Pc = address &^ 3
	}
}

// BranchExchange sets PC and switches instruction set according to
// address's bit 0, as used by BX, BLX(register), and any load of PC
// from memory on this core family (spec §4.9's interworking rule).
func (c *CPU) BranchExchange(address uint32) {
	c.CPSR.T = address&1 != 0
	if c.CPSR.T {
		c.Pc = address &^ 1
	} else {
		c.Pc = address &^ 3
	}
}

// AdvancePC moves PC past the instruction just executed: 4 bytes in ARM
// state, 2 in Thumb state.
func (c *CPU) AdvancePC() {
	if c.CPSR.T {
		c.Pc += 2
	} else {
		c.Pc += 4
	}
}
