package api

import (
	"github.com/twincore/armduo/debugbridge"
)

// RegistersResponse is the current register file of one core.
type RegistersResponse struct {
	R      [16]uint32 `json:"r"`
	CPSR   CPSRFlags  `json:"cpsr"`
	Paused bool       `json:"paused"`
}

// CPSRFlags is the subset of CPSR a client renders.
type CPSRFlags struct {
	N    bool   `json:"n"`
	Z    bool   `json:"z"`
	C    bool   `json:"c"`
	V    bool   `json:"v"`
	T    bool   `json:"t"`
	Mode string `json:"mode"`
}

// RegisterWriteRequest writes a single register.
type RegisterWriteRequest struct {
	Index int    `json:"index"`
	Value uint32 `json:"value"`
}

// MemoryResponse is a read of guest memory.
type MemoryResponse struct {
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
}

// MemoryWriteRequest writes guest memory.
type MemoryWriteRequest struct {
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
}

// StepRequest advances a paused core.
type StepRequest struct {
	Count int `json:"count"`
}

// BreakpointRequest arms a breakpoint.
type BreakpointRequest struct {
	Address uint32 `json:"address"`
}

// BreakpointsResponse lists a core's armed breakpoints.
type BreakpointsResponse struct {
	Breakpoints []*debugbridge.Breakpoint `json:"breakpoints"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse is a trivial acknowledgement body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func toRegistersResponse(b *debugbridge.Bridge) RegistersResponse {
	var resp RegistersResponse
	for i := 0; i < 16; i++ {
		resp.R[i] = b.ReadReg(i)
	}
	flags := b.CPSR()
	resp.CPSR = CPSRFlags{N: flags.N, Z: flags.Z, C: flags.C, V: flags.V, T: flags.T, Mode: flags.Mode.String()}
	resp.Paused = !b.IsRunning()
	return resp
}
