// Package agent owns the conversation's agent state: the roster of
// available personas, the session state machine that drives handoffs, and
// the attribution rules that keep historical messages bound to the right
// persona after the roster changes.
package agent

import (
	"fmt"
	"sync"

	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// Registry manages the roster of available agents, keyed by id.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]types.Agent
	order  []string
}

// NewRegistry creates an empty roster.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]types.Agent)}
}

// Replace swaps the whole roster, preserving the given order. Used when a
// fresh roster listing arrives from the backend.
func (r *Registry) Replace(agents []types.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.agents = make(map[string]types.Agent, len(agents))
	r.order = r.order[:0]
	for _, a := range agents {
		if _, ok := r.agents[a.ID]; !ok {
			r.order = append(r.order, a.ID)
		}
		r.agents[a.ID] = a
	}
}

// Register adds or updates a single agent.
func (r *Registry) Register(a types.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[a.ID]; !ok {
		r.order = append(r.order, a.ID)
	}
	r.agents[a.ID] = a
}

// Unregister removes an agent by id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return
	}
	delete(r.agents, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get retrieves an agent by id.
func (r *Registry) Get(id string) (types.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return types.Agent{}, fmt.Errorf("agent not found: %s", id)
	}
	return a, nil
}

// Exists checks whether an agent is in the roster.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[id]
	return ok
}

// List returns the roster in registration order.
func (r *Registry) List() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// Count returns the roster size.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
