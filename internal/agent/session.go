package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
)

// StateKind enumerates the session machine's states.
type StateKind string

const (
	StateIdle      StateKind = "idle"
	StateActive    StateKind = "active"
	StateSwitching StateKind = "switching"
)

// State is a tagged snapshot of the session machine. AgentID is set for
// Active; From, To and RequestID are set for Switching. Modeling the
// machine this way keeps "switching with no target" unrepresentable.
type State struct {
	Kind      StateKind
	AgentID   string
	From      string
	To        string
	RequestID string
}

// SwitchError reports a failed agent handoff. The session reverts to the
// previously active agent.
type SwitchError struct {
	From      string
	To        string
	RequestID string
	Err       error
}

func (e *SwitchError) Error() string {
	return fmt.Sprintf("switch to agent %s failed: %v", e.To, e.Err)
}

func (e *SwitchError) Unwrap() error {
	return e.Err
}

// Switcher issues the agent switch RPC.
type Switcher interface {
	SwitchAgent(ctx context.Context, agentID, requestID string) error
}

// Session drives the current-agent state machine. There is no cancellation
// of in-flight switch RPCs; a newer switch supersedes older ones by request
// id, and responses for superseded ids are discarded, never applied.
type Session struct {
	mu    sync.Mutex
	state State

	roster *Registry
	rpc    Switcher
	bus    *event.Bus
}

// NewSession creates an idle session over the given roster.
func NewSession(roster *Registry, rpc Switcher, bus *event.Bus) *Session {
	if bus == nil {
		bus = event.Default()
	}
	return &Session{
		state:  State{Kind: StateIdle},
		roster: roster,
		rpc:    rpc,
		bus:    bus,
	}
}

// State returns a snapshot of the machine.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentAgentID returns the active agent id, or "" when idle or switching.
func (s *Session) CurrentAgentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind == StateActive {
		return s.state.AgentID
	}
	return ""
}

// Select activates an agent from idle. It is the same operation as Switch;
// the name marks the initial activation at startup.
func (s *Session) Select(ctx context.Context, agentID string) (string, error) {
	return s.Switch(ctx, agentID)
}

// Switch requests a handoff to the given agent and returns the issued
// request id. Switching to the already-active agent is a no-op: no RPC, no
// transition event, empty request id. The RPC runs asynchronously; its
// outcome lands in HandleResult.
func (s *Session) Switch(ctx context.Context, agentID string) (string, error) {
	if !s.roster.Exists(agentID) {
		return "", fmt.Errorf("agent not found: %s", agentID)
	}

	s.mu.Lock()
	if s.state.Kind == StateActive && s.state.AgentID == agentID {
		s.mu.Unlock()
		return "", nil
	}
	if s.state.Kind == StateSwitching && s.state.To == agentID {
		// Already heading there; the issued request stands.
		rid := s.state.RequestID
		s.mu.Unlock()
		return rid, nil
	}

	from := ""
	switch s.state.Kind {
	case StateActive:
		from = s.state.AgentID
	case StateSwitching:
		// Superseding an in-flight switch: the original source agent is
		// what we revert to on failure.
		from = s.state.From
	}

	requestID := ulid.Make().String()
	s.state = State{
		Kind:      StateSwitching,
		From:      from,
		To:        agentID,
		RequestID: requestID,
	}
	s.mu.Unlock()

	s.bus.PublishSync(event.Event{
		Type: event.AgentSwitchStarted,
		Data: event.AgentSwitchStartedData{FromID: from, ToID: agentID, RequestID: requestID},
	})

	go func() {
		err := s.rpc.SwitchAgent(ctx, agentID, requestID)
		s.HandleResult(requestID, err)
	}()

	return requestID, nil
}

// HandleResult applies the outcome of a switch RPC. Results for any request
// id other than the most recently issued one are discarded: last-issued
// request wins, not last-arrived response.
func (s *Session) HandleResult(requestID string, rpcErr error) error {
	s.mu.Lock()

	if s.state.Kind != StateSwitching || s.state.RequestID != requestID {
		s.mu.Unlock()
		logging.Component("session").Debug().
			Str("requestId", requestID).
			Msg("discarding stale switch response")
		return nil
	}

	from, to := s.state.From, s.state.To

	if rpcErr != nil {
		if from == "" {
			s.state = State{Kind: StateIdle}
		} else {
			s.state = State{Kind: StateActive, AgentID: from}
		}
		s.mu.Unlock()

		s.bus.PublishSync(event.Event{
			Type: event.AgentSwitchFailed,
			Data: event.AgentSwitchFailedData{AgentID: from, RequestID: requestID, Reason: rpcErr.Error()},
		})
		return &SwitchError{From: from, To: to, RequestID: requestID, Err: rpcErr}
	}

	s.state = State{Kind: StateActive, AgentID: to}
	s.mu.Unlock()

	s.bus.PublishSync(event.Event{
		Type: event.AgentSwitchComplete,
		Data: event.AgentSwitchCompleteData{AgentID: to, RequestID: requestID},
	})
	return nil
}
