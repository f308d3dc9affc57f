package rpc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// CommandRequest is a generic dispatch request. Free-text slash commands
// set Name and Input; structured commands also carry Args and optionally
// address a specific agent.
type CommandRequest struct {
	Name  string         `json:"command"`
	Input string         `json:"input,omitempty"`
	Agent string         `json:"agent,omitempty"`
	Args  map[string]any `json:"args,omitempty"`
}

// CommandResult is the backend's answer to a dispatched command.
type CommandResult struct {
	Output string `json:"output"`
}

// TreeNode is one entry of a directory listing.
type TreeNode struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
}

// ListAgents fetches the agent roster.
func (c *Client) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var out struct {
		Agents []types.Agent `json:"agents"`
	}
	if err := c.do(ctx, "agents.list", http.MethodGet, "/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// SwitchAgent asks the backend to hand the conversation to another agent.
// The request id travels with the call so the session machine can match the
// response against the most recently issued attempt.
func (c *Client) SwitchAgent(ctx context.Context, agentID, requestID string) error {
	in := map[string]string{"agentId": agentID, "requestId": requestID}
	return c.do(ctx, "agents.switch", http.MethodPost, "/agents/switch", in, nil)
}

// ListCommands fetches the backend's help/capability listing.
func (c *Client) ListCommands(ctx context.Context) ([]string, error) {
	var out struct {
		Commands []string `json:"commands"`
	}
	if err := c.do(ctx, "commands.list", http.MethodGet, "/commands", nil, &out); err != nil {
		return nil, err
	}
	return out.Commands, nil
}

// DispatchCommand sends a structured command for execution.
func (c *Client) DispatchCommand(ctx context.Context, req CommandRequest) (*CommandResult, error) {
	var out CommandResult
	if err := c.do(ctx, "commands.dispatch", http.MethodPost, "/commands/dispatch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadFile fetches a file's content from the workspace service.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	q := url.Values{"path": {path}}
	if err := c.do(ctx, "files.read", http.MethodGet, "/files?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// WriteFile writes a file through the workspace service (the direct path).
func (c *Client) WriteFile(ctx context.Context, path, content string) error {
	in := map[string]string{"path": path, "content": content}
	return c.do(ctx, "files.write", http.MethodPut, "/files", in, nil)
}

// ListTree lists the workspace tree under path.
func (c *Client) ListTree(ctx context.Context, path string) ([]TreeNode, error) {
	var out struct {
		Nodes []TreeNode `json:"nodes"`
	}
	q := url.Values{"path": {path}}
	if err := c.do(ctx, "files.tree", http.MethodGet, "/files/tree?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}

// SendMessage pushes text into the agent conversation channel. This is the
// carrier for both ordinary user turns and agent-mediated write
// instructions.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	in := map[string]string{"text": text}
	return c.do(ctx, "messages.send", http.MethodPost, "/messages", in, nil)
}
