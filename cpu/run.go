package cpu

import (
	"fmt"

	"github.com/twincore/armduo/decode"
)

// BreakpointHook is consulted before each instruction fetch; returning
// true halts Step before the instruction executes (spec §6, "set/clear
// breakpoint").
type BreakpointHook func(pc uint32, thumb bool) bool

// Core wraps a CPU with the decode caches and breakpoint hook needed to
// actually run it; CPU itself stays a plain register file so tests can
// construct one without a decoder.
type Core struct {
	CPU *CPU

	armCache   *decode.ArmCache
	thumbCache *decode.ThumbCache

	Breakpoint BreakpointHook

	// VectorBase selects the reset/exception vector table location
	// (spec §4.11); armduo maps it to HighVectorBase by default.
	VectorBase uint32
}

// NewCore creates a Core around c with fresh decode caches.
func NewCore(c *CPU) *Core {
	return &Core{
		CPU:        c,
		armCache:   decode.NewArmCache(),
		thumbCache: decode.NewThumbCache(),
		VectorBase: HighVectorBase,
	}
}

// StepResult reports what Step did, for callers that need to
// distinguish a breakpoint halt from a normal step.
type StepResult int

const (
	StepExecuted StepResult = iota
	StepBreakpoint
)

// Step fetches, decodes, and executes exactly one instruction,
// honoring the current condition code and instruction set. A fetch
// failure is fatal (spec §7), and so is an unimplemented opcode; SWI is
// the only handler error that enters an exception and continues.
func (core *Core) Step() (StepResult, error) {
	c := core.CPU

	if core.Breakpoint != nil && core.Breakpoint(c.Pc, c.CPSR.T) {
		return StepBreakpoint, nil
	}

	if c.CPSR.T {
		return core.stepThumb()
	}
	return core.stepARM()
}

func (core *Core) stepARM() (StepResult, error) {
	c := core.CPU

	opcode, err := c.Mem.FetchWord(c.Pc)
	if err != nil {
		return StepExecuted, fmt.Errorf("cpu: instruction fetch failed at 0x%08X: %w", c.Pc, err)
	}

	cond := Condition((opcode >> 28) & 0xF)
	op := core.armCache.Decode(opcode)
	// BLX (immediate) occupies the NV condition space, so it is not
	// subject to the condition check.
	if op != decode.ArmBranchLinkExchangeImmediate && !c.CPSR.Evaluate(cond) {
		c.AdvancePC()
		c.Cycles++
		return StepExecuted, nil
	}

	if err := core.executeARM(op, opcode); err != nil {
		// SWI is an expected trap: it enters the exception and
		// continues. Anything else (including an undefined opcode)
		// is fatal per the unimplemented-opcode error design: this
		// core does not guess at undefined-instruction semantics it
		// was never given a pattern for.
		if _, ok := err.(*SoftwareInterruptError); ok {
			c.EnterSoftwareInterrupt(core.VectorBase)
			return StepExecuted, nil
		}
		return StepExecuted, fmt.Errorf("cpu: unimplemented opcode 0x%08X at PC=0x%08X: %w", opcode, c.Pc, err)
	}
	c.Cycles++
	return StepExecuted, nil
}

func (core *Core) stepThumb() (StepResult, error) {
	c := core.CPU

	opcode, err := c.Mem.FetchHalfword(c.Pc)
	if err != nil {
		return StepExecuted, fmt.Errorf("cpu: instruction fetch failed at 0x%08X: %w", c.Pc, err)
	}

	op := core.thumbCache.Decode(opcode)
	if err := c.ExecuteThumb(op, opcode); err != nil {
		if _, ok := err.(*SoftwareInterruptError); ok {
			c.EnterSoftwareInterrupt(core.VectorBase)
			return StepExecuted, nil
		}
		return StepExecuted, fmt.Errorf("cpu: unimplemented opcode 0x%04X at PC=0x%08X: %w", opcode, c.Pc, err)
	}
	c.Cycles++
	return StepExecuted, nil
}

func (core *Core) executeARM(op decode.ArmOp, opcode uint32) error {
	c := core.CPU
	switch op {
	case decode.ArmDataProcessing:
		return c.ExecuteDataProcessing(opcode)
	case decode.ArmMultiply:
		return c.ExecuteMultiply(opcode)
	case decode.ArmMultiplyLong:
		return c.ExecuteMultiplyLong(opcode)
	case decode.ArmPSRTransfer:
		return c.ExecutePSRTransfer(opcode)
	case decode.ArmBranchExchange:
		return c.ExecuteBranchExchange(opcode)
	case decode.ArmBranchExchangeLink:
		return c.ExecuteBranchExchangeLink(opcode)
	case decode.ArmLoadStore:
		return c.ExecuteLoadStore(opcode, false)
	case decode.ArmLoadStoreHalfword:
		return c.ExecuteLoadStore(opcode, true)
	case decode.ArmLoadStoreMultiple:
		return c.ExecuteLoadStoreMultiple(opcode)
	case decode.ArmBranch:
		return c.ExecuteBranch(opcode, false)
	case decode.ArmBranchLinkExchangeImmediate:
		return c.ExecuteBranch(opcode, true)
	case decode.ArmSoftwareInterrupt:
		return &SoftwareInterruptError{Comment: opcode & 0xFFFFFF}
	default:
		return &UndefinedInstructionError{Opcode: opcode}
	}
}

// CheckInterrupts samples the pending IRQ/FIQ flags between
// instructions, as the run loop is required to (spec §5). FIQ takes
// priority over IRQ when both are pending.
func (core *Core) CheckInterrupts() {
	c := core.CPU
	if c.PendingFIQ && c.EnterFIQ(core.VectorBase) {
		c.PendingFIQ = false
		return
	}
	if c.PendingIRQ && c.EnterIRQ(core.VectorBase) {
		c.PendingIRQ = false
	}
}

// Run steps the core until budget instructions have executed, a
// breakpoint is hit, or an error occurs. budget of 0 means unbounded.
func (core *Core) Run(budget uint64) (StepResult, error) {
	var executed uint64
	for budget == 0 || executed < budget {
		core.CheckInterrupts()
		result, err := core.Step()
		if err != nil || result == StepBreakpoint {
			return result, err
		}
		executed++
	}
	return StepExecuted, nil
}
