package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/twincore/armduo/debugbridge"
)

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request, name string, b *debugbridge.Bridge) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b.Pause()
	s.broadcaster.BroadcastExecutionEvent(name, "paused", nil)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request, name string, b *debugbridge.Bridge) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b.Resume()
	s.broadcaster.BroadcastExecutionEvent(name, "resumed", nil)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, name string, b *debugbridge.Bridge) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := StepRequest{Count: 1}
	_ = readJSON(r, &req) // missing/empty body keeps the Count: 1 default
	if req.Count < 1 {
		req.Count = 1
	}

	if err := b.Step(req.Count); err != nil {
		s.broadcaster.BroadcastExecutionEvent(name, "error", map[string]interface{}{"message": err.Error()})
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	resp := toRegistersResponse(b)
	s.broadcaster.BroadcastState(name, map[string]interface{}{"pc": resp.R[15]})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisters(w http.ResponseWriter, r *http.Request, b *debugbridge.Bridge) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toRegistersResponse(b))
	case http.MethodPut:
		var req RegisterWriteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Index < 0 || req.Index > 15 {
			writeError(w, http.StatusBadRequest, "register index must be 0-15")
			return
		}
		if err := b.WriteReg(req.Index, req.Value); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request, b *debugbridge.Bridge) {
	switch r.Method {
	case http.MethodGet:
		addr, length, err := parseMemoryQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := b.ReadMem(addr, length)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, MemoryResponse{Address: addr, Data: data})

	case http.MethodPut:
		var req MemoryWriteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := b.WriteMem(req.Address, req.Data); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func parseMemoryQuery(r *http.Request) (addr uint32, length int, err error) {
	q := r.URL.Query()
	a, err := strconv.ParseUint(q.Get("address"), 0, 32)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.Atoi(q.Get("length"))
	if err != nil {
		return 0, 0, err
	}
	if l <= 0 {
		return 0, 0, fmt.Errorf("api: length must be positive, got %d", l)
	}
	return uint32(a), l, nil
}

func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request, b *debugbridge.Bridge) {
	switch r.Method {
	case http.MethodPost:
		var req BreakpointRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		bp := b.SetBreakpoint(req.Address)
		writeJSON(w, http.StatusCreated, bp)

	case http.MethodDelete:
		addr, err := strconv.ParseUint(r.URL.Query().Get("address"), 0, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid or missing address")
			return
		}
		if err := b.ClearBreakpoint(uint32(addr)); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, b *debugbridge.Bridge) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, BreakpointsResponse{Breakpoints: b.Breakpoints()})
}
