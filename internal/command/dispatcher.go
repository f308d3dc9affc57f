// Package command resolves and issues structured and slash commands
// against the backend's generic dispatch RPC.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/cenkalti/backoff/v4"

	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
)

// fallbackCommands keeps the UI operable when discovery is unreachable.
var fallbackCommands = []string{"help", "status", "agents", "clear"}

// suggestionDistance is the maximum edit distance for "did you mean".
const suggestionDistance = 3

// DispatchError reports a command that could not be dispatched. It never
// escapes as a panic; the event loop stays alive.
type DispatchError struct {
	Input      string
	Suggestion string // closest known command, if any
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("command %q: %v (did you mean %q?)", e.Input, e.Err, e.Suggestion)
	}
	return fmt.Sprintf("command %q: %v", e.Input, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Backend is the slice of the RPC client the dispatcher needs.
type Backend interface {
	ListCommands(ctx context.Context) ([]string, error)
	DispatchCommand(ctx context.Context, req rpc.CommandRequest) (*rpc.CommandResult, error)
}

// Dispatcher resolves command text and issues it to the backend.
type Dispatcher struct {
	mu         sync.RWMutex
	backend    Backend
	known      []string
	degraded   bool // discovery failed; running on the fallback list
	discovered bool // at least one discovery succeeded
}

// NewDispatcher creates a dispatcher that has not yet discovered anything;
// until Discover runs it accepts the fallback command set.
func NewDispatcher(backend Backend) *Dispatcher {
	d := &Dispatcher{backend: backend}
	d.known = append(d.known, fallbackCommands...)
	return d
}

// Discover queries the backend's capability listing, retrying briefly with
// exponential backoff. A first-time failure keeps the fixed minimal list so
// the client remains operable offline from discovery; a failed refresh
// keeps the last successful listing instead of shrinking it.
func (d *Dispatcher) Discover(ctx context.Context) []string {
	var cmds []string

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		var err error
		cmds, err = d.backend.ListCommands(ctx)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, 2), ctx))

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		if d.discovered {
			logging.Component("dispatcher").Warn().Err(err).
				Msg("command discovery refresh failed, keeping last listing")
			return append([]string(nil), d.known...)
		}
		logging.Component("dispatcher").Warn().Err(err).
			Msg("command discovery failed, using fallback list")
		d.known = append(d.known[:0], fallbackCommands...)
		d.degraded = true
		return append([]string(nil), d.known...)
	}

	sort.Strings(cmds)
	d.known = cmds
	d.degraded = false
	d.discovered = true
	return append([]string(nil), cmds...)
}

// Commands returns the currently known command names.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.known...)
}

// Degraded reports whether the dispatcher is running on the fallback list.
func (d *Dispatcher) Degraded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.degraded
}

// Dispatch resolves commandText and issues it. Accepted forms:
//
//	/name arg arg...
//	{"command": "...", "agent": "...", "args": {...}}
//
// The JSON form addresses structured commands, e.g. introspection requests
// aimed at a specific agent id.
func (d *Dispatcher) Dispatch(ctx context.Context, commandText string) (*rpc.CommandResult, error) {
	req, err := d.parse(commandText)
	if err != nil {
		return nil, err
	}

	if !d.knownCommand(req.Name) {
		return nil, &DispatchError{
			Input:      req.Name,
			Suggestion: d.suggest(req.Name),
			Err:        fmt.Errorf("unknown command"),
		}
	}

	result, err := d.backend.DispatchCommand(ctx, req)
	if err != nil {
		return nil, &DispatchError{Input: req.Name, Err: err}
	}
	return result, nil
}

func (d *Dispatcher) parse(text string) (rpc.CommandRequest, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") {
		var req rpc.CommandRequest
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return rpc.CommandRequest{}, &DispatchError{Input: text, Err: fmt.Errorf("malformed structured command: %w", err)}
		}
		if req.Name == "" {
			return rpc.CommandRequest{}, &DispatchError{Input: text, Err: fmt.Errorf("structured command missing \"command\" field")}
		}
		return req, nil
	}

	if !strings.HasPrefix(text, "/") {
		return rpc.CommandRequest{}, &DispatchError{Input: text, Err: fmt.Errorf("not a command")}
	}

	name, rest, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	if name == "" {
		return rpc.CommandRequest{}, &DispatchError{Input: text, Err: fmt.Errorf("empty command")}
	}
	return rpc.CommandRequest{Name: name, Input: strings.TrimSpace(rest)}, nil
}

func (d *Dispatcher) knownCommand(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.known {
		if c == name {
			return true
		}
	}
	return false
}

// suggest returns the known command closest to name within the edit
// distance cutoff.
func (d *Dispatcher) suggest(name string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	best := ""
	bestDist := suggestionDistance + 1
	for _, c := range d.known {
		if dist := levenshtein.ComputeDistance(name, c); dist < bestDist {
			best = c
			bestDist = dist
		}
	}
	return best
}
