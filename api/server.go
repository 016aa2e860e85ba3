// Package api exposes an inspector HTTP/WebSocket surface over a
// running duocore.System: per-core debug-bridge operations (spec §6)
// as REST calls, plus a WebSocket feed of register-state,
// framebuffer-ready, and execution events driven by a Broadcaster.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/twincore/armduo/debugbridge"
	"github.com/twincore/armduo/devices"
	"github.com/twincore/armduo/duocore"
)

// Server is the inspector HTTP server.
type Server struct {
	bridges     map[string]*debugbridge.Bridge
	fb          *devices.Framebuffer
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	addr        string
}

// NewServer wires an inspector bound to addr. bridges is keyed by
// core name ("ARM9", "ARM11"); fb may be nil if no framebuffer device
// is configured.
func NewServer(addr string, bridges map[duocore.CoreID]*debugbridge.Bridge, fb *devices.Framebuffer) *Server {
	byName := make(map[string]*debugbridge.Bridge, len(bridges))
	for id, b := range bridges {
		byName[id.String()] = b
	}

	s := &Server{
		bridges:     byName,
		fb:          fb,
		broadcaster: NewBroadcaster(),
		mux:         http.NewServeMux(),
		addr:        addr,
	}
	s.registerRoutes()
	return s
}

// Broadcaster returns the event fan-out, for a caller (e.g. main's
// polling loop) that wants to push state snapshots as cores run.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/v1/core/", s.handleCoreRoute)
	s.mux.HandleFunc("/api/v1/framebuffer/top", s.handleFramebufferTop)
	s.mux.HandleFunc("/api/v1/framebuffer/bottom", s.handleFramebufferBottom)
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("inspector listening on http://%s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broadcaster.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin restricts CORS to localhost, matching the teacher's
// local-only inspector posture.
func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "file://") {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cores := make([]string, 0, len(s.bridges))
	for name := range s.bridges {
		cores = append(cores, name)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"cores":  cores,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleCoreRoute dispatches /api/v1/core/{name}/{action}.
func (s *Server) handleCoreRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/core/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "expected /api/v1/core/{name}/{action}")
		return
	}

	b, ok := s.bridges[parts[0]]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown core %q", parts[0]))
		return
	}

	switch parts[1] {
	case "pause":
		s.handlePause(w, r, parts[0], b)
	case "resume":
		s.handleResume(w, r, parts[0], b)
	case "step":
		s.handleStep(w, r, parts[0], b)
	case "registers":
		s.handleRegisters(w, r, b)
	case "memory":
		s.handleMemory(w, r, b)
	case "breakpoint":
		s.handleBreakpoint(w, r, b)
	case "breakpoints":
		s.handleListBreakpoints(w, r, b)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action %q", parts[1]))
	}
}

func (s *Server) handleFramebufferTop(w http.ResponseWriter, r *http.Request) {
	s.handleFramebuffer(w, r, s.fb.Top)
}

func (s *Server) handleFramebufferBottom(w http.ResponseWriter, r *http.Request) {
	s.handleFramebuffer(w, r, s.fb.Bottom)
}

func (s *Server) handleFramebuffer(w http.ResponseWriter, r *http.Request, read func() ([]byte, error)) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.fb == nil {
		writeError(w, http.StatusNotFound, "no framebuffer device configured")
		return
	}
	data, err := read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	format := s.fb.Format()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"width":         format.Width,
		"height":        format.Height,
		"bytesPerPixel": format.BytesPerPixel,
		"data":          data,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: error encoding json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message, Code: status})
}

func readJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return decoder.Decode(v)
}
