// Package render formats timeline entries for terminal display.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/DeanoC/AIWhisperer-sub003/internal/channel"
	"github.com/DeanoC/AIWhisperer-sub003/internal/timeline"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// Style controls how one channel's messages are printed.
type Style struct {
	Prefix  string
	Dimmed  bool
	Partial string
}

// Renderer writes a merged conversation view. Styles can be swapped at
// runtime, so access is mutex guarded.
type Renderer struct {
	mu     sync.RWMutex
	out    io.Writer
	styles map[types.Channel]Style
	name   func(types.ChatMessage) string
}

// NewRenderer creates a renderer with default per-channel styles. The
// name func resolves the display name for a chat message; nil falls
// back to the sender role.
func NewRenderer(out io.Writer, name func(types.ChatMessage) string) *Renderer {
	if name == nil {
		name = func(m types.ChatMessage) string { return string(m.Sender) }
	}
	return &Renderer{
		out:  out,
		name: name,
		styles: map[types.Channel]Style{
			types.ChannelAnalysis:   {Prefix: "(analysis)", Dimmed: true, Partial: " ..."},
			types.ChannelCommentary: {Prefix: "(commentary)", Dimmed: true, Partial: " ..."},
			types.ChannelFinal:      {Prefix: "", Partial: " ..."},
		},
	}
}

// SetStyle replaces the style for one channel.
func (r *Renderer) SetStyle(ch types.Channel, s Style) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[ch] = s
}

func (r *Renderer) style(ch types.Channel) Style {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.styles[ch]
}

// Timeline prints every entry in arrival order, skipping channel
// messages the filter result excludes, then a badge line with the
// unfiltered per-channel counts.
func (r *Renderer) Timeline(entries []timeline.Entry, result channel.FilterResult) {
	visible := make(map[types.ChannelKey]bool, len(result.Visible))
	for _, m := range result.Visible {
		visible[m.Key()] = true
	}

	for _, entry := range entries {
		switch entry.Kind {
		case timeline.KindChat:
			r.Chat(*entry.Chat)
		case timeline.KindChannel:
			if visible[entry.Channel.Key()] {
				r.Channel(*entry.Channel)
			}
		}
	}

	fmt.Fprintf(r.out, "-- analysis:%d commentary:%d final:%d\n",
		result.Counts[types.ChannelAnalysis],
		result.Counts[types.ChannelCommentary],
		result.Counts[types.ChannelFinal])
}

// Chat prints one chat message with its resolved display name. Error
// status is marked so a failed send stays distinguishable in place.
func (r *Renderer) Chat(msg types.ChatMessage) {
	mark := ""
	switch msg.Status {
	case types.StatusError:
		mark = " [failed]"
	case types.StatusPending:
		mark = " [sending]"
	}
	fmt.Fprintf(r.out, "[%s]%s %s\n", r.name(msg), mark, msg.Content)
}

// Channel prints one channel message with its channel style, pending
// marker while partial, and a one-line tool call summary when present.
func (r *Renderer) Channel(msg types.ChannelMessage) {
	s := r.style(msg.Channel)
	partial := ""
	if msg.Partial {
		partial = s.Partial
	}
	prefix := s.Prefix
	if prefix != "" {
		prefix += " "
	}
	fmt.Fprintf(r.out, "%s%s%s\n", prefix, msg.Content, partial)
	if len(msg.ToolCalls) > 0 {
		fmt.Fprintf(r.out, "  tools: %s\n", strings.Join(msg.ToolCalls, ", "))
	}
}
