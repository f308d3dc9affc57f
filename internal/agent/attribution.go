package agent

import "github.com/DeanoC/AIWhisperer-sub003/pkg/types"

// Attribution resolves the display attributes for a chat message's agent
// binding, in priority order: live roster entry for the message's agent id,
// then the snapshot frozen at creation time, then unattributed. Historical
// messages keep their color and name even after the roster changes or the
// agent is removed.
func Attribution(msg types.ChatMessage, roster *Registry) (types.AgentSnapshot, bool) {
	if msg.AgentID != "" && roster != nil {
		if a, err := roster.Get(msg.AgentID); err == nil {
			return *a.Snapshot(), true
		}
	}
	if msg.AgentSnapshot != nil {
		return *msg.AgentSnapshot, true
	}
	return types.AgentSnapshot{}, false
}
