package types

// Agent is a persona in the roster the user can hand the conversation to.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
	Shortcut    string `json:"shortcut,omitempty"` // single-key selection hint
}

// Snapshot freezes the agent's display attributes.
func (a Agent) Snapshot() *AgentSnapshot {
	return &AgentSnapshot{
		Name:        a.Name,
		Color:       a.Color,
		Description: a.Description,
	}
}
