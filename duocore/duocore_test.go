package duocore

import (
	"testing"
	"time"

	"github.com/twincore/armduo/cpu"
	"github.com/twincore/armduo/mem"
)

func newSystem(t *testing.T) *System {
	t.Helper()
	m := mem.NewController()
	if err := m.MapRegion("ram", 0x0, 0x10000, mem.NewRAM(0x10000)); err != nil {
		t.Fatal(err)
	}
	// Fill both cores' code with NOPs (MOV R0,R0) so they free-run
	// harmlessly until Stop is called.
	for addr := uint32(0); addr < 0x1000; addr += 4 {
		if err := m.WriteWord(addr, 0xE1A00000); err != nil {
			t.Fatal(err)
		}
	}
	// B 0x0 after the last NOP keeps execution inside the mapped RAM.
	if err := m.WriteWord(0x1000, 0xEAFFFBFE); err != nil {
		t.Fatal(err)
	}
	arm9 := cpu.NewCore(cpu.New(m))
	arm11 := cpu.NewCore(cpu.New(m))
	return NewSystem(arm9, arm11)
}

func TestArm11WaitsForHandshake(t *testing.T) {
	s := newSystem(t)
	s.HandshakeSteps = 1 << 20 // effectively never, for this short test
	s.StepBatch = 4
	s.Start()
	time.Sleep(10 * time.Millisecond)

	s.WithPausedCore(ARM11, func() {
		if s.Cores[ARM11].CPU.Cycles != 0 {
			t.Errorf("ARM11 should not have stepped before handshake, cycles=%d", s.Cores[ARM11].CPU.Cycles)
		}
	})
	s.Stop()
	s.Join()
}

func TestBothCoresRunAfterHandshake(t *testing.T) {
	s := newSystem(t)
	s.HandshakeSteps = 4
	s.StepBatch = 4
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	report := s.Join()

	if s.Cores[ARM9].CPU.Cycles == 0 {
		t.Error("ARM9 never stepped")
	}
	if s.Cores[ARM11].CPU.Cycles == 0 {
		t.Error("ARM11 never stepped after handshake")
	}
	for i, err := range report.Err {
		if err != nil {
			t.Errorf("core %d reported error: %v", i, err)
		}
	}
}

func TestRaiseIRQSetsPendingFlag(t *testing.T) {
	s := newSystem(t)
	s.RaiseIRQ(ARM9)
	if !s.Cores[ARM9].CPU.PendingIRQ {
		t.Error("expected PendingIRQ set after RaiseIRQ")
	}
}
