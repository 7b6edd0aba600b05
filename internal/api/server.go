// Package api exposes the station's external surface over HTTP: the full
// state snapshot, the operator command endpoints, and a server-sent event
// stream driven by the change notifier.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nevlife/nev-gcs/internal/monitoring"
	"github.com/nevlife/nev-gcs/internal/packet"
	"github.com/nevlife/nev-gcs/internal/state"
)

// Commander transmits the event packets operator requests trigger.
type Commander interface {
	SendEStop(active bool) error
	SendMode(mode int8) error
}

// Server routes operator requests to shared state and the vehicle link.
type Server struct {
	state    *state.State
	notifier *state.Notifier
	cmd      Commander
}

// NewServer creates a Server.
func NewServer(st *state.State, n *state.Notifier, cmd Commander) *Server {
	return &Server{state: st, notifier: n, cmd: cmd}
}

// ServeMux returns the station's HTTP routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.stateHandler)
	mux.HandleFunc("/api/cmd_mode", s.cmdModeHandler)
	mux.HandleFunc("/api/estop", s.estopHandler)
	mux.HandleFunc("/api/events", s.eventsHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("NEV ground control station\n"))
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.state.Snapshot())
}

type cmdModeRequest struct {
	Mode int `json:"mode"`
}

type estopRequest struct {
	Active bool `json:"active"`
}

func (s *Server) cmdModeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cmdModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	// Check the raw value before narrowing so out-of-range ints cannot
	// alias onto a valid mode mod 256.
	switch req.Mode {
	case int(packet.ModeIdle), int(packet.ModeControl), int(packet.ModeNav), int(packet.ModeRemote):
	default:
		http.Error(w, fmt.Sprintf("invalid mode: %d", req.Mode), http.StatusBadRequest)
		return
	}

	mode := int8(req.Mode)
	s.state.SetControlMode(mode)
	if err := s.cmd.SendMode(mode); err != nil {
		// The intent is applied; the next operator action or reconnect
		// resynchronises the vehicle. Report the transport failure.
		http.Error(w, "failed to send mode change", http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "mode": req.Mode})
}

func (s *Server) estopHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req estopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	s.state.SetControlEStop(req.Active)
	if err := s.cmd.SendEStop(req.Active); err != nil {
		http.Error(w, "failed to send e-stop", http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "active": req.Active})
}

// eventsHandler streams state snapshots as server-sent events. One event is
// sent immediately on connect, then one per change signal; the notifier's
// keepalive floor guarantees an event at least every five seconds.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id, ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(id)

	if !s.writeEvent(w, flusher) {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if !s.writeEvent(w, flusher) {
				return
			}
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher) bool {
	data, err := json.Marshal(s.state.Snapshot())
	if err != nil {
		monitoring.Logf("failed to marshal state snapshot: %v", err)
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}
