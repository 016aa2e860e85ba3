// Package duocore drives the two processor cores that share one guest
// address space: an ARM9-class core that owns boot and most of the
// workload, and an ARM11-class core that waits for a handshake signal
// from the ARM9 core before it starts fetching (spec §5).
package duocore

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twincore/armduo/cpu"
)

// CoreID names the two cores for logging and for addressing a core
// through the debug bridge.
type CoreID int

const (
	ARM9 CoreID = iota
	ARM11
)

func (id CoreID) String() string {
	if id == ARM9 {
		return "ARM9"
	}
	return "ARM11"
}

// JoinReport is returned by Join: the last known PC/LR of each core at
// the moment it stopped, and the error (if any) that stopped it. A
// worker panic is recovered and reported here rather than crashing the
// process (spec §7, "worker panic surfaced at join").
type JoinReport struct {
	LastPC [2]uint32
	LastLR [2]uint32
	Err    [2]error
}

// System owns both cores and the shared memory controller they
// contend over. Register state for a given core is only touched by
// that core's goroutine during a step batch; System.hwGuard exists so
// a debug-bridge reader (pause/peek/poke) can safely observe a core's
// registers between batches without racing the stepper.
type System struct {
	Cores [2]*cpu.Core

	hwGuard [2]sync.RWMutex

	running atomic.Bool
	arm9Up  atomic.Bool // set once ARM9 has completed its boot handshake

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}

	lastPC [2]atomic.Uint32
	lastLR [2]atomic.Uint32

	lastErrMu sync.Mutex
	lastErr   [2]error

	// paused gates a core's stepper independently of running: unlike
	// Stop, it can be released again. The debug bridge drives this
	// (spec §6's pause()/resume()); hwGuard is released while paused so
	// peek/poke can take it without waiting for a batch boundary.
	paused [2]atomic.Bool

	// StepBatch bounds how many instructions a core runs before
	// yielding the hardware-state lock and re-checking the run flag.
	StepBatch uint64

	// HandshakeSteps is how many ARM9 instructions run before ARM11 is
	// released to start fetching, standing in for the real boot
	// handshake (shared-memory flag + interrupt) the hardware uses.
	HandshakeSteps uint64

	arm9Steps atomic.Uint64
}

// NewSystem wires a System around two already-constructed cores.
func NewSystem(arm9, arm11 *cpu.Core) *System {
	return &System{
		Cores:          [2]*cpu.Core{arm9, arm11},
		StepBatch:      256,
		HandshakeSteps: 1,
		stopCh:         make(chan struct{}),
	}
}

// Start launches both core goroutines. Call Join to wait for them.
func (s *System) Start() {
	s.running.Store(true)
	s.wg.Add(2)
	go s.runCore(ARM9)
	go s.runCore(ARM11)
}

// Stop signals both cores to halt after their current batch. Safe to
// call more than once or concurrently with Join.
func (s *System) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		close(s.stopCh)
	})
}

// Join blocks until both cores have stopped, returning their last
// known PC/LR and any error (including a recovered panic).
func (s *System) Join() JoinReport {
	s.wg.Wait()
	var report JoinReport
	s.lastErrMu.Lock()
	defer s.lastErrMu.Unlock()
	for i := 0; i < 2; i++ {
		report.LastPC[i] = s.lastPC[i].Load()
		report.LastLR[i] = s.lastLR[i].Load()
		report.Err[i] = s.lastErr[i]
	}
	return report
}

func (s *System) runCore(id CoreID) (err error) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("duocore: %s panicked: %v", id, r)
		}
		s.recordErr(id, err)
	}()

	if id == ARM11 {
		s.waitForHandshake()
	}

	core := s.Cores[id]
	for s.running.Load() {
		select {
		case <-s.stopCh:
			return nil
		default:
		}

		if s.paused[id].Load() {
			time.Sleep(time.Millisecond)
			continue
		}

		s.hwGuard[id].Lock()
		result, stepErr := core.Run(s.StepBatch)
		s.lastPC[id].Store(core.CPU.Pc)
		s.lastLR[id].Store(core.CPU.R[cpu.LR])
		s.hwGuard[id].Unlock()

		if id == ARM9 {
			s.arm9Steps.Add(s.StepBatch)
			if s.arm9Steps.Load() >= s.HandshakeSteps {
				s.arm9Up.Store(true)
			}
		}

		if stepErr != nil {
			return stepErr
		}
		if result == cpu.StepBreakpoint {
			s.Stop()
			return nil
		}
	}
	return nil
}

func (s *System) waitForHandshake() {
	for !s.arm9Up.Load() {
		select {
		case <-s.stopCh:
			return
		default:
		}
	}
}

func (s *System) recordErr(id CoreID, err error) {
	if err == nil {
		return
	}
	s.lastErrMu.Lock()
	s.lastErr[id] = err
	s.lastErrMu.Unlock()
}
