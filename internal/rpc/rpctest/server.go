// Package rpctest provides an in-process fake AIWhisperer backend for
// tests. It serves the same routes the real backend exposes, with
// scriptable failures, request capture, and event injection.
package rpctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// SwitchRequest is one captured POST /agents/switch body.
type SwitchRequest struct {
	AgentID   string `json:"agentId"`
	RequestID string `json:"requestId"`
}

// WriteRequest is one captured PUT /files body.
type WriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Server is the fake backend.
type Server struct {
	mu sync.Mutex

	httpSrv *httptest.Server

	agents        []types.Agent
	commands      []string
	failDiscovery bool
	failWrites    bool
	switchHook    func(SwitchRequest) error

	switches []SwitchRequest
	writes   []WriteRequest
	messages []string
	dispatch []map[string]any

	subscribers []chan types.ChannelMessage
}

// New starts a fake backend on a random local port.
func New() *Server {
	s := &Server{
		commands: []string{"help", "status", "agents", "clear"},
	}

	r := chi.NewRouter()
	r.Get("/agents", s.handleAgents)
	r.Post("/agents/switch", s.handleSwitch)
	r.Get("/commands", s.handleCommands)
	r.Post("/commands/dispatch", s.handleDispatch)
	r.Get("/files", s.handleReadFile)
	r.Put("/files", s.handleWriteFile)
	r.Get("/files/tree", s.handleTree)
	r.Post("/messages", s.handleMessage)
	r.Get("/events", s.handleEvents)

	s.httpSrv = httptest.NewServer(r)
	return s
}

// URL returns the backend's base URL.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Close shuts the backend down and terminates open event streams.
func (s *Server) Close() {
	s.mu.Lock()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	s.mu.Unlock()
	s.httpSrv.Close()
}

// SetAgents scripts the roster returned by GET /agents.
func (s *Server) SetAgents(agents []types.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = agents
}

// SetCommands scripts the discovery listing.
func (s *Server) SetCommands(cmds []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = cmds
}

// FailDiscovery makes GET /commands return 500.
func (s *Server) FailDiscovery(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDiscovery = fail
}

// FailWrites makes PUT /files return 500.
func (s *Server) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// SwitchHook installs a hook run for each switch request; returning an
// error fails that request. Used to delay or fail specific attempts.
func (s *Server) SwitchHook(hook func(SwitchRequest) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchHook = hook
}

// Switches returns captured switch requests in arrival order.
func (s *Server) Switches() []SwitchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SwitchRequest, len(s.switches))
	copy(out, s.switches)
	return out
}

// Writes returns captured direct file writes.
func (s *Server) Writes() []WriteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WriteRequest, len(s.writes))
	copy(out, s.writes)
	return out
}

// Messages returns captured conversation messages.
func (s *Server) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// PushEvent delivers a channel message to every open event stream.
func (s *Server) PushEvent(msg types.ChannelMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	agents := s.agents
	s.mu.Unlock()
	writeJSON(w, map[string]any{"agents": agents})
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.switches = append(s.switches, req)
	hook := s.switchHook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.failDiscovery
	cmds := s.commands
	s.mu.Unlock()

	if fail {
		http.Error(w, "discovery unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"commands": cmds})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.dispatch = append(s.dispatch, req)
	s.mu.Unlock()

	name, _ := req["command"].(string)
	writeJSON(w, map[string]any{"output": fmt.Sprintf("ran %s", name)})
}

// Dispatched returns captured dispatch request bodies.
func (s *Server) Dispatched() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.dispatch))
	copy(out, s.dispatch)
	return out
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.writes) - 1; i >= 0; i-- {
		if s.writes[i].Path == path {
			writeJSON(w, map[string]any{"content": s.writes[i].Content})
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	var req WriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	fail := s.failWrites
	if !fail {
		s.writes = append(s.writes, req)
	}
	s.mu.Unlock()

	if fail {
		http.Error(w, "write refused", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := make([]map[string]any, 0, len(s.writes))
	for _, wr := range s.writes {
		nodes = append(nodes, map[string]any{"path": wr.Path, "name": wr.Path, "isDir": false})
	}
	writeJSON(w, map[string]any{"nodes": nodes})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, req.Text)
	s.mu.Unlock()
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan types.ChannelMessage, 32)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return
			}
			data, _ := json.Marshal(msg)
			fmt.Fprintf(w, "event: channel.message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
