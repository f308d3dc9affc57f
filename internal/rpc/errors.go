package rpc

import "fmt"

// TransportError wraps an RPC or network failure. It is surfaced inline to
// the user; the session stays usable.
type TransportError struct {
	Op     string // logical operation, e.g. "agents.switch"
	Status int    // HTTP status, 0 if the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("rpc %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
