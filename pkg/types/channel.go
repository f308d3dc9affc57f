package types

// Channel identifies a labeled sub-stream of agent output.
type Channel string

const (
	// ChannelAnalysis carries the agent's internal reasoning.
	ChannelAnalysis Channel = "analysis"
	// ChannelCommentary carries tool activity commentary.
	ChannelCommentary Channel = "commentary"
	// ChannelFinal carries the user-facing answer. It is always visible
	// and has no preference toggle.
	ChannelFinal Channel = "final"
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelAnalysis, ChannelCommentary, ChannelFinal:
		return true
	}
	return false
}

// ChannelMessage is a single streamed message on a channel. Identity is
// (Channel, ID); the server sends cumulative content snapshots for an
// identity, each tagged with a strictly increasing sequence number.
type ChannelMessage struct {
	ID        string   `json:"id"`
	Channel   Channel  `json:"channel"`
	Content   string   `json:"content"`
	Sequence  uint64   `json:"sequence"`
	Partial   bool     `json:"partial"`
	ToolCalls []string `json:"toolCalls,omitempty"`
	AgentID   string   `json:"agentId,omitempty"`
}

// Key returns the identity of the message within the keyed store.
func (m ChannelMessage) Key() ChannelKey {
	return ChannelKey{Channel: m.Channel, ID: m.ID}
}

// ChannelKey is the (channel, id) identity of a ChannelMessage.
type ChannelKey struct {
	Channel Channel
	ID      string
}

// VisibilityPreferences controls which channels are shown. There is
// deliberately no field for the final channel.
type VisibilityPreferences struct {
	ShowAnalysis   bool `json:"showAnalysis"`
	ShowCommentary bool `json:"showCommentary"`
}
