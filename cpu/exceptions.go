package cpu

// Exception vector offsets from the vector table base (spec §4.11).
const (
	VectorReset          = 0x00
	VectorUndefined      = 0x04
	VectorSoftwareInt    = 0x08
	VectorPrefetchAbort  = 0x0C
	VectorDataAbort      = 0x10
	VectorIRQ            = 0x18
	VectorFIQ            = 0x1C
)

// HighVectorBase is the vector table base address when high vectors
// are configured (spec §4.11); the alternative is 0x00000000.
const HighVectorBase = 0xFFFF0000

// exceptionInfo identifies which exception is being entered, carrying the mode,
// vector offset, link-register adjustment, and interrupt-mask changes
// that are specific to it.
type exceptionInfo struct {
	mode         Mode
	vector       uint32
	linkAdjust   uint32 // added to the return PC saved in LR
	disableIRQ   bool
	disableFIQ   bool
}

var (
	exceptionReset         = exceptionInfo{ModeSupervisor, VectorReset, 0, true, true}
	exceptionUndefined     = exceptionInfo{ModeUndefined, VectorUndefined, 4, true, false}
	exceptionSoftwareInt   = exceptionInfo{ModeSupervisor, VectorSoftwareInt, 4, true, false}
	exceptionPrefetchAbort = exceptionInfo{ModeAbort, VectorPrefetchAbort, 4, true, false}
	exceptionDataAbort     = exceptionInfo{ModeAbort, VectorDataAbort, 8, true, false}
	exceptionIRQ           = exceptionInfo{ModeIRQ, VectorIRQ, 4, true, false}
	exceptionFIQ           = exceptionInfo{ModeFIQ, VectorFIQ, 4, true, true}
)

// enter performs the common exception-entry sequence: bank into the
// exception's mode, save the return address (adjusted for the
// exception's pipeline offset) in the new mode's LR, save CPSR to the
// new mode's SPSR, then mask interrupts and force ARM state.
func (c *CPU) enter(info exceptionInfo, vectorBase uint32) {
	returnPC := c.Pc + info.linkAdjust
	savedCPSR := c.CPSR

	c.SwitchMode(info.mode)
	c.R[LR] = returnPC
	*c.SPSR() = savedCPSR

	c.CPSR.T = false
	if info.disableIRQ {
		c.CPSR.I = true
	}
	if info.disableFIQ {
		c.CPSR.F = true
	}

	c.Pc = vectorBase + info.vector
}

// EnterReset runs the reset exception.
func (c *CPU) EnterReset(vectorBase uint32) { c.enter(exceptionReset, vectorBase) }

// EnterUndefined runs the undefined-instruction exception.
func (c *CPU) EnterUndefined(vectorBase uint32) { c.enter(exceptionUndefined, vectorBase) }

// EnterSoftwareInterrupt runs the SWI exception.
func (c *CPU) EnterSoftwareInterrupt(vectorBase uint32) { c.enter(exceptionSoftwareInt, vectorBase) }

// EnterPrefetchAbort runs the prefetch-abort exception.
func (c *CPU) EnterPrefetchAbort(vectorBase uint32) { c.enter(exceptionPrefetchAbort, vectorBase) }

// EnterDataAbort runs the data-abort exception.
func (c *CPU) EnterDataAbort(vectorBase uint32) { c.enter(exceptionDataAbort, vectorBase) }

// EnterIRQ runs the IRQ exception, if IRQs are not currently masked.
func (c *CPU) EnterIRQ(vectorBase uint32) bool {
	if c.CPSR.I {
		return false
	}
	c.enter(exceptionIRQ, vectorBase)
	return true
}

// EnterFIQ runs the FIQ exception, if FIQs are not currently masked.
func (c *CPU) EnterFIQ(vectorBase uint32) bool {
	if c.CPSR.F {
		return false
	}
	c.enter(exceptionFIQ, vectorBase)
	return true
}
