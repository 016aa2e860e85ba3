package cpu

// Mode identifies a processor mode (the 5-bit M field of CPSR).
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	default:
		return "???"
	}
}

// CPSR is the current (or saved) program status register: condition
// flags, interrupt masks, the Thumb bit, and the processor mode.
type CPSR struct {
	N, Z, C, V bool
	I, F       bool // interrupt disable bits
	T          bool // Thumb state
	Mode       Mode
}

// ToUint32 packs the flags into the ARM CPSR bit layout.
func (c CPSR) ToUint32() uint32 {
	var v uint32
	if c.N {
		v |= 1 << 31
	}
	if c.Z {
		v |= 1 << 30
	}
	if c.C {
		v |= 1 << 29
	}
	if c.V {
		v |= 1 << 28
	}
	if c.I {
		v |= 1 << 7
	}
	if c.F {
		v |= 1 << 6
	}
	if c.T {
		v |= 1 << 5
	}
	v |= uint32(c.Mode) & 0x1F
	return v
}

// FromUint32 unpacks the ARM CPSR bit layout into the flags.
func (c *CPSR) FromUint32(v uint32) {
	c.N = v&(1<<31) != 0
	c.Z = v&(1<<30) != 0
	c.C = v&(1<<29) != 0
	c.V = v&(1<<28) != 0
	c.I = v&(1<<7) != 0
	c.F = v&(1<<6) != 0
	c.T = v&(1<<5) != 0
	c.Mode = Mode(v & 0x1F)
}

// bankIndex selects which banked-register slot a mode uses. User and
// System share one bank; every other mode listed in spec §3 gets its own.
type bankIndex int

const (
	bankUserSystem bankIndex = iota
	bankSupervisor
	bankAbort
	bankUndefined
	bankIRQ
	bankFIQ
	numBanks
)

func bankFor(m Mode) bankIndex {
	switch m {
	case ModeSupervisor:
		return bankSupervisor
	case ModeAbort:
		return bankAbort
	case ModeUndefined:
		return bankUndefined
	case ModeIRQ:
		return bankIRQ
	case ModeFIQ:
		return bankFIQ
	default: // ModeUser, ModeSystem, and any unrecognized mode fall back to user/system
		return bankUserSystem
	}
}

// bankedRegs holds one mode's private R13 (SP), R14 (LR), and SPSR.
// bankUserSystem's SPSR slot is unused (user/system mode has no SPSR).
type bankedRegs struct {
	r13, r14 uint32
	spsr     CPSR
}
