package event

import "github.com/DeanoC/AIWhisperer-sub003/pkg/types"

// ChannelMessageData is the data for channel.message events. It carries the
// raw inbound message; ingest decides whether it is applied or stale.
type ChannelMessageData struct {
	Message types.ChannelMessage `json:"message"`
}

// ChatMessageCreatedData is the data for chat.message.created events.
type ChatMessageCreatedData struct {
	Message *types.ChatMessage `json:"message"`
}

// ChatMessageUpdatedData is the data for chat.message.updated events.
// Only Status ever changes after creation.
type ChatMessageUpdatedData struct {
	Message *types.ChatMessage `json:"message"`
}

// AgentSwitchStartedData is the data for agent.switch.started events.
type AgentSwitchStartedData struct {
	FromID    string `json:"fromId,omitempty"`
	ToID      string `json:"toId"`
	RequestID string `json:"requestId"`
}

// AgentSwitchCompleteData is the data for agent.switch.completed events.
type AgentSwitchCompleteData struct {
	AgentID   string `json:"agentId"`
	RequestID string `json:"requestId"`
}

// AgentSwitchFailedData is the data for agent.switch.failed events.
type AgentSwitchFailedData struct {
	AgentID   string `json:"agentId"` // agent the session reverted to
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// FileSavedData is the data for file.saved events.
type FileSavedData struct {
	Path string `json:"path"`
	Via  string `json:"via"` // "direct" | "agent"
}
