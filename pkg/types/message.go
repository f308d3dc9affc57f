package types

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// MessageStatus tracks delivery state of a chat message.
type MessageStatus string

const (
	StatusPending  MessageStatus = "pending"
	StatusSent     MessageStatus = "sent"
	StatusReceived MessageStatus = "received"
	StatusError    MessageStatus = "error"
)

// ChatMessage is a turn-based message in the conversation history.
// Immutable once created except for Status.
type ChatMessage struct {
	ID        string        `json:"id"`
	Sender    Sender        `json:"sender"`
	Content   string        `json:"content"`
	Timestamp int64         `json:"timestamp"` // unix millis
	Status    MessageStatus `json:"status"`

	// AgentID binds the message to the agent that was active when it was
	// created. AgentSnapshot freezes that agent's display attributes so
	// attribution survives roster changes.
	AgentID       string         `json:"agentId,omitempty"`
	AgentSnapshot *AgentSnapshot `json:"agentSnapshot,omitempty"`
}

// AgentSnapshot is a frozen copy of an agent's display attributes,
// captured at message-creation time.
type AgentSnapshot struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}
