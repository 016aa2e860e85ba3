package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/twincore/armduo/cpu"
	"github.com/twincore/armduo/debugbridge"
	"github.com/twincore/armduo/duocore"
	"github.com/twincore/armduo/mem"
)

func newTestServer(t *testing.T) (*Server, *duocore.System) {
	t.Helper()
	m := mem.NewController()
	if err := m.MapRegion("ram", 0x0, 0x10000, mem.NewRAM(0x10000)); err != nil {
		t.Fatal(err)
	}
	for addr := uint32(0); addr < 0x1000; addr += 4 {
		if err := m.WriteWord(addr, 0xE1A00000); err != nil { // MOV R0,R0
			t.Fatal(err)
		}
	}
	arm9 := cpu.NewCore(cpu.New(m))
	arm11 := cpu.NewCore(cpu.New(m))
	sys := duocore.NewSystem(arm9, arm11)
	sys.StepBatch = 4
	sys.HandshakeSteps = 1

	bridges := map[duocore.CoreID]*debugbridge.Bridge{
		duocore.ARM9:  debugbridge.New(sys, duocore.ARM9),
		duocore.ARM11: debugbridge.New(sys, duocore.ARM11),
	}
	return NewServer("127.0.0.1:0", bridges, nil), sys
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.broadcaster.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", body["status"])
	}
}

func TestCorePauseResumeAndRegisters(t *testing.T) {
	s, sys := newTestServer(t)
	defer s.broadcaster.Close()
	sys.Start()
	defer func() { sys.Stop(); sys.Join() }()
	time.Sleep(5 * time.Millisecond)

	pause := httptest.NewRequest(http.MethodPost, "/api/v1/core/ARM9/pause", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, pause)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 pausing, got %d: %s", w.Code, w.Body.String())
	}

	regs := httptest.NewRequest(http.MethodGet, "/api/v1/core/ARM9/registers", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, regs)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 reading registers, got %d: %s", w.Code, w.Body.String())
	}
	var resp RegistersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !resp.Paused {
		t.Error("expected Paused=true after pause")
	}

	writeBody, _ := json.Marshal(RegisterWriteRequest{Index: 0, Value: 0x1234})
	write := httptest.NewRequest(http.MethodPut, "/api/v1/core/ARM9/registers", bytes.NewReader(writeBody))
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, write)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 writing register, got %d: %s", w.Code, w.Body.String())
	}

	resume := httptest.NewRequest(http.MethodPost, "/api/v1/core/ARM9/resume", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, resume)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 resuming, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUnknownCoreReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.broadcaster.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/core/ARM7/registers", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown core, got %d", w.Code)
	}
}

func TestFramebufferEndpointWithoutDeviceReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.broadcaster.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/framebuffer/top", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with no framebuffer configured, got %d", w.Code)
	}
}

func TestBreakpointSetAndList(t *testing.T) {
	s, sys := newTestServer(t)
	defer s.broadcaster.Close()
	sys.Start()
	defer func() { sys.Stop(); sys.Join() }()

	setBody, _ := json.Marshal(BreakpointRequest{Address: 0x100})
	set := httptest.NewRequest(http.MethodPost, "/api/v1/core/ARM9/breakpoint", bytes.NewReader(setBody))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, set)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 setting breakpoint, got %d: %s", w.Code, w.Body.String())
	}

	list := httptest.NewRequest(http.MethodGet, "/api/v1/core/ARM9/breakpoints", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, list)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing breakpoints, got %d: %s", w.Code, w.Body.String())
	}
	var resp BreakpointsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(resp.Breakpoints) != 1 || resp.Breakpoints[0].Address != 0x100 {
		t.Errorf("expected one breakpoint at 0x100, got %+v", resp.Breakpoints)
	}
}
