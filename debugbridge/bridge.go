// Package debugbridge implements the pause/resume/step/peek/poke
// contract of spec §6 against a running duocore.System, the way the
// teacher's debugger package wraps vm.VM, minus the VM package's
// command-line surface (dropped per the Non-goals in SPEC_FULL.md).
package debugbridge

import (
	"fmt"

	"github.com/twincore/armduo/cpu"
	"github.com/twincore/armduo/duocore"
)

// Bridge is a debug-bridge client bound to one core of a System.
// Mutating calls (WriteReg, WriteMem, Step) require the core to be
// paused first, matching spec §6's "all mutating operations require
// the core to be paused".
type Bridge struct {
	sys  *duocore.System
	core duocore.CoreID

	breakpoints *breakpointSet
}

// New wires a Bridge to one core of sys. Installs the breakpoint hook
// on that core's decode loop, so Step/Run calls made directly against
// cpu.Core also honor bridge-managed breakpoints.
func New(sys *duocore.System, core duocore.CoreID) *Bridge {
	b := &Bridge{
		sys:         sys,
		core:        core,
		breakpoints: newBreakpointSet(),
	}
	sys.Cores[core].Breakpoint = func(pc uint32, thumb bool) bool {
		return b.breakpoints.hit(pc)
	}
	return b
}

// Pause halts the core after its in-flight step batch. IsRunning
// reports false once the halt has taken effect.
func (b *Bridge) Pause() {
	b.sys.Pause(b.core)
}

// Resume releases a paused core back to free-running.
func (b *Bridge) Resume() {
	b.sys.Resume(b.core)
}

// IsRunning reports whether the core is currently free-running (i.e.
// not paused). It does not distinguish "never started" from "running".
func (b *Bridge) IsRunning() bool {
	return !b.sys.IsPaused(b.core)
}

var errNotPaused = fmt.Errorf("debugbridge: core must be paused for this operation")

// Step advances the core by n instructions. The core must already be
// paused: Step runs the requested instructions itself, on the caller's
// goroutine, under the same hardware-state guard the free-running
// stepper would hold, then leaves the core paused again.
func (b *Bridge) Step(n int) error {
	if !b.sys.IsPaused(b.core) {
		return errNotPaused
	}
	var stepErr error
	b.sys.WithPausedCore(b.core, func() {
		c := b.sys.Cores[b.core]
		for i := 0; i < n; i++ {
			result, err := c.Step()
			if err != nil {
				stepErr = err
				return
			}
			if result == cpu.StepBreakpoint {
				return
			}
		}
	})
	return stepErr
}

// ReadReg reads register i (0-15, 15 is PC with the usual pipeline
// offset per cpu.CPU.GetRegister). Safe to call while running; it
// takes the hardware-state guard exclusively.
func (b *Bridge) ReadReg(i int) uint32 {
	var v uint32
	b.sys.WithPausedCore(b.core, func() {
		v = b.sys.Cores[b.core].CPU.GetRegister(i)
	})
	return v
}

// WriteReg writes register i. Requires the core to be paused.
func (b *Bridge) WriteReg(i int, v uint32) error {
	if !b.sys.IsPaused(b.core) {
		return errNotPaused
	}
	b.sys.WithPausedCore(b.core, func() {
		b.sys.Cores[b.core].CPU.SetRegister(i, v)
	})
	return nil
}

// ReadMem reads length bytes starting at addr. Safe to call while
// running.
func (b *Bridge) ReadMem(addr uint32, length int) ([]byte, error) {
	out := make([]byte, length)
	var err error
	b.sys.WithPausedCore(b.core, func() {
		err = b.sys.Cores[b.core].CPU.Mem.ReadBuf(addr, out)
	})
	return out, err
}

// WriteMem writes data starting at addr. Requires the core to be
// paused.
func (b *Bridge) WriteMem(addr uint32, data []byte) error {
	if !b.sys.IsPaused(b.core) {
		return errNotPaused
	}
	var err error
	b.sys.WithPausedCore(b.core, func() {
		err = b.sys.Cores[b.core].CPU.Mem.WriteBuf(addr, data)
	})
	return err
}

// CPSR reads the core's current status flags. Safe to call while
// running; it takes the hardware-state guard exclusively.
func (b *Bridge) CPSR() cpu.CPSR {
	var v cpu.CPSR
	b.sys.WithPausedCore(b.core, func() {
		v = b.sys.Cores[b.core].CPU.CPSR
	})
	return v
}

// SetBreakpoint arms a breakpoint at addr.
func (b *Bridge) SetBreakpoint(addr uint32) *Breakpoint {
	return b.breakpoints.add(addr)
}

// ClearBreakpoint disarms the breakpoint at addr, if any.
func (b *Bridge) ClearBreakpoint(addr uint32) error {
	return b.breakpoints.remove(addr)
}

// Breakpoints lists every armed breakpoint.
func (b *Bridge) Breakpoints() []*Breakpoint {
	return b.breakpoints.all()
}
