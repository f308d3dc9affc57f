// Package workspace coordinates file operations against the remote
// workspace service, choosing between the direct write RPC and the
// agent-mediated conversation path.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// ErrNoSaveMethod is returned when neither the direct write RPC nor an
// agent conversation channel is available.
var ErrNoSaveMethod = errors.New("no save method available")

// OperationError reports a failed file operation and which path failed.
type OperationError struct {
	Path string
	Via  string // "direct" | "agent" | "none"
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("file operation on %s via %s: %v", e.Path, e.Via, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// FileService is the direct RPC surface of the workspace backend.
type FileService interface {
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
	ListTree(ctx context.Context, path string) ([]rpc.TreeNode, error)
}

// Conversation is the agent channel a write instruction can be sent into.
type Conversation interface {
	SendMessage(ctx context.Context, text string) error
}

// Coordinator owns unsaved-state tracking and the save path decision.
// Either dependency may be nil when the corresponding path is unavailable.
type Coordinator struct {
	mu    sync.Mutex
	dirty map[string]bool

	files FileService
	conv  Conversation
	cfg   types.SaveConfig
	bus   *event.Bus
}

// NewCoordinator creates a coordinator with the given save configuration.
func NewCoordinator(files FileService, conv Conversation, cfg types.SaveConfig, bus *event.Bus) *Coordinator {
	if bus == nil {
		bus = event.Default()
	}
	return &Coordinator{
		dirty: make(map[string]bool),
		files: files,
		conv:  conv,
		cfg:   cfg,
		bus:   bus,
	}
}

// MarkDirty flags a path as having unsaved changes.
func (c *Coordinator) MarkDirty(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[path] = true
}

// Dirty reports whether a path has unsaved changes.
func (c *Coordinator) Dirty(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[path]
}

func (c *Coordinator) setDirty(path string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v {
		c.dirty[path] = true
	} else {
		delete(c.dirty, path)
	}
}

// forceDirect reports whether the configuration pins this path to the
// direct write RPC, either globally or through a matching glob pattern.
func (c *Coordinator) forceDirect(path string) bool {
	if c.cfg.ForceDirect {
		return true
	}
	for _, pattern := range c.cfg.ForceDirectPatterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Save writes content to path. Decision policy, in order: forced direct
// setting, agent-mediated conversation channel, direct RPC fallback,
// failure when neither path exists. The agent-mediated path is optimistic:
// the unsaved flag is cleared before any confirmation that the write
// happened, and a write the agent fails to perform is not detected here.
func (c *Coordinator) Save(ctx context.Context, path, content string) error {
	switch {
	case c.forceDirect(path):
		if c.files == nil {
			return &OperationError{Path: path, Via: "none", Err: ErrNoSaveMethod}
		}
		return c.saveDirect(ctx, path, content)

	case c.conv != nil:
		return c.saveViaAgent(ctx, path, content)

	case c.files != nil:
		return c.saveDirect(ctx, path, content)

	default:
		return &OperationError{Path: path, Via: "none", Err: ErrNoSaveMethod}
	}
}

func (c *Coordinator) saveDirect(ctx context.Context, path, content string) error {
	if err := c.files.WriteFile(ctx, path, content); err != nil {
		// Flag stays set; the caller surfaces the error inline.
		c.setDirty(path, true)
		return &OperationError{Path: path, Via: "direct", Err: err}
	}

	c.setDirty(path, false)
	c.bus.Publish(event.Event{
		Type: event.FileSaved,
		Data: event.FileSavedData{Path: path, Via: "direct"},
	})
	return nil
}

func (c *Coordinator) saveViaAgent(ctx context.Context, path, content string) error {
	// Optimistic: cleared before the instruction is even sent.
	c.setDirty(path, false)

	instruction := writeInstruction(path, content)
	if err := c.conv.SendMessage(ctx, instruction); err != nil {
		logging.Component("workspace").Warn().Err(err).Str("path", path).
			Msg("write instruction did not reach the conversation channel")
		return &OperationError{Path: path, Via: "agent", Err: err}
	}

	c.bus.Publish(event.Event{
		Type: event.FileSaved,
		Data: event.FileSavedData{Path: path, Via: "agent"},
	})
	return nil
}

// writeInstruction builds the natural-language instruction the agent is
// expected to fulfill by invoking its write capability.
func writeInstruction(path, content string) string {
	return fmt.Sprintf(
		"Please write the following content to the file %q, replacing its current contents entirely:\n\n%s",
		path, content)
}

// Open reads a file through the workspace service.
func (c *Coordinator) Open(ctx context.Context, path string) (string, error) {
	if c.files == nil {
		return "", &OperationError{Path: path, Via: "none", Err: ErrNoSaveMethod}
	}
	content, err := c.files.ReadFile(ctx, path)
	if err != nil {
		return "", &OperationError{Path: path, Via: "direct", Err: err}
	}
	return content, nil
}

// ListTree lists the workspace tree under path.
func (c *Coordinator) ListTree(ctx context.Context, path string) ([]rpc.TreeNode, error) {
	if c.files == nil {
		return nil, &OperationError{Path: path, Via: "none", Err: ErrNoSaveMethod}
	}
	nodes, err := c.files.ListTree(ctx, path)
	if err != nil {
		return nil, &OperationError{Path: path, Via: "direct", Err: err}
	}
	return nodes, nil
}
