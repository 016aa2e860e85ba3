// Package devices holds the example memory-mapped peripherals that
// exercise mem.Device's register-hook framework: a timer, a DMA engine,
// an AES-style crypto block, and a framebuffer export (spec §4.2-4.3,
// §9). Their internals are collaborators, not fully specified; the
// register-window wiring against mem.Controller is what is tested.
package devices

import (
	"sync"

	"github.com/twincore/armduo/mem"
)

// Timer register offsets, matching the teacher's compact style of
// naming offsets as untyped constants next to the device that owns
// them.
const (
	timerCounter = 0x00 // current count, counts up every Tick
	timerReload  = 0x04 // value CNT resets to after it fires
	timerControl = 0x08 // bit0: enable, bit1: irq-on-overflow
)

const (
	timerCtrlEnable = 1 << 0
	timerCtrlIRQ    = 1 << 1
)

// Timer is a single free-running up-counter that reloads and optionally
// raises an interrupt request on overflow. It is owned by one core, so
// it needs no internal mutex (spec §5, "registers owned by a single
// core use lightweight interior mutability").
type Timer struct {
	*mem.RegisterFile

	irqPending bool
}

// NewTimer creates a Timer with its register window wired.
func NewTimer() *Timer {
	t := &Timer{RegisterFile: mem.NewRegisterFile(nil)}
	t.Owner = t
	t.DefineRegister(timerCounter, 0, nil, nil)
	t.DefineRegister(timerReload, 0, nil, nil)
	t.DefineRegister(timerControl, 0, nil, nil)
	return t
}

// Tick advances the counter by one and handles overflow. Called by the
// driver on its own pulse, not from a bus access (spec §9's "tick/poke"
// capability, distinct from the memory-controller capability).
func (t *Timer) Tick() {
	ctrl := t.RawWord(timerControl)
	if ctrl&timerCtrlEnable == 0 {
		return
	}

	count := t.RawWord(timerCounter) + 1
	if count == 0 {
		count = t.RawWord(timerReload)
		if ctrl&timerCtrlIRQ != 0 {
			t.irqPending = true
		}
	}
	t.SetRawWord(timerCounter, count)
}

// IRQPending reports and clears a pending overflow interrupt; the
// driver samples this once per tick batch to feed duocore.RaiseIRQ.
func (t *Timer) IRQPending() bool {
	pending := t.irqPending
	t.irqPending = false
	return pending
}

var _ mem.Device = (*Timer)(nil)

// guardedTimer wraps a Timer with a mutex for the cross-core case (spec
// §9: "cross-core devices add a mutex at the device level; never leak
// the mutex through the register hook"). Bus access and Tick both take
// the same lock so neither can race the other.
type guardedTimer struct {
	mu sync.Mutex
	t  *Timer
}

// NewSharedTimer returns a Timer usable from either core concurrently.
func NewSharedTimer() *guardedTimer {
	return &guardedTimer{t: NewTimer()}
}

func (g *guardedTimer) ReadByte(offset uint32) (byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t.ReadByte(offset)
}

func (g *guardedTimer) WriteByte(offset uint32, v byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t.WriteByte(offset, v)
}

func (g *guardedTimer) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.t.Tick()
}

func (g *guardedTimer) IRQPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t.IRQPending()
}

var _ mem.Device = (*guardedTimer)(nil)
