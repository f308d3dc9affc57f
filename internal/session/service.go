package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/DeanoC/AIWhisperer-sub003/internal/agent"
	"github.com/DeanoC/AIWhisperer-sub003/internal/channel"
	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/internal/timeline"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// Conversation is the outbound side of the chat: user turns are pushed to
// the backend through it.
type Conversation interface {
	SendMessage(ctx context.Context, text string) error
}

// Service owns conversation history and the merged timeline.
type Service struct {
	mu sync.Mutex

	store    *channel.Store
	log      *timeline.Log
	agents   *agent.Session
	roster   *agent.Registry
	conv     Conversation
	bus      *event.Bus
	messages map[string]*types.ChatMessage

	unsubs []func()
}

// NewService wires a history service over the given collaborators.
func NewService(agents *agent.Session, roster *agent.Registry, conv Conversation, bus *event.Bus) *Service {
	if bus == nil {
		bus = event.Default()
	}
	return &Service{
		store:    channel.NewStore(),
		log:      timeline.NewLog(),
		agents:   agents,
		roster:   roster,
		conv:     conv,
		bus:      bus,
		messages: make(map[string]*types.ChatMessage),
	}
}

// Start subscribes the service to inbound bus traffic. Call Stop to detach.
func (s *Service) Start() {
	s.unsubs = append(s.unsubs,
		s.bus.Subscribe(event.ChannelMessage, s.onChannelMessage),
		s.bus.Subscribe(event.AgentSwitchComplete, s.onSwitchComplete),
	)
}

// Stop detaches the service from the bus.
func (s *Service) Stop() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// onChannelMessage applies one inbound channel event. A stale sequence is
// dropped inside the store; a new identity is appended to the timeline.
func (s *Service) onChannelMessage(e event.Event) {
	data, ok := e.Data.(event.ChannelMessageData)
	if !ok {
		return
	}

	created, err := s.store.Apply(data.Message)
	if err != nil {
		// SequenceViolation: non-fatal, already logged at debug.
		return
	}
	if created {
		if ref, ok := s.store.Ref(data.Message.Key()); ok {
			s.log.AppendChannel(ref)
		}
	}
}

// onSwitchComplete appends the cosmetic handoff notice to history.
func (s *Service) onSwitchComplete(e event.Event) {
	data, ok := e.Data.(event.AgentSwitchCompleteData)
	if !ok {
		return
	}

	name := data.AgentID
	if s.roster != nil {
		if a, err := s.roster.Get(data.AgentID); err == nil {
			name = a.Name
		}
	}
	s.addMessage(&types.ChatMessage{
		ID:        newMessageID(),
		Sender:    types.SenderSystem,
		Content:   fmt.Sprintf("%s has joined the conversation", name),
		Timestamp: time.Now().UnixMilli(),
		Status:    types.StatusReceived,
		AgentID:   data.AgentID,
	})
}

// SendUserMessage records a user turn and pushes it to the backend. The
// message is created pending, appended immediately (the send must not delay
// local echo), then marked sent or error when the push resolves.
func (s *Service) SendUserMessage(ctx context.Context, content string) (*types.ChatMessage, error) {
	msg := &types.ChatMessage{
		ID:        newMessageID(),
		Sender:    types.SenderUser,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		Status:    types.StatusPending,
	}
	s.bindAgent(msg)
	s.addMessage(msg)

	if s.conv == nil {
		s.setStatus(msg, types.StatusError)
		return msg, fmt.Errorf("no conversation channel")
	}

	if err := s.conv.SendMessage(ctx, content); err != nil {
		s.setStatus(msg, types.StatusError)
		logging.Component("history").Warn().Err(err).Msg("user message not delivered")
		return msg, err
	}

	s.setStatus(msg, types.StatusSent)
	return msg, nil
}

// AddAgentMessage records a completed agent turn in history.
func (s *Service) AddAgentMessage(agentID, content string) *types.ChatMessage {
	msg := &types.ChatMessage{
		ID:        newMessageID(),
		Sender:    types.SenderAI,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		Status:    types.StatusReceived,
		AgentID:   agentID,
	}
	if s.roster != nil {
		if a, err := s.roster.Get(agentID); err == nil {
			msg.AgentSnapshot = a.Snapshot()
		}
	}
	s.addMessage(msg)
	return msg
}

// bindAgent stamps the currently active agent and freezes its display
// attributes onto the message.
func (s *Service) bindAgent(msg *types.ChatMessage) {
	if s.agents == nil {
		return
	}
	id := s.agents.CurrentAgentID()
	if id == "" {
		return
	}
	msg.AgentID = id
	if s.roster != nil {
		if a, err := s.roster.Get(id); err == nil {
			msg.AgentSnapshot = a.Snapshot()
		}
	}
}

func (s *Service) addMessage(msg *types.ChatMessage) {
	s.mu.Lock()
	s.messages[msg.ID] = msg
	s.mu.Unlock()

	s.log.AppendChat(msg)
	s.bus.PublishSync(event.Event{
		Type: event.ChatMessageCreated,
		Data: event.ChatMessageCreatedData{Message: msg},
	})
}

func (s *Service) setStatus(msg *types.ChatMessage, status types.MessageStatus) {
	s.mu.Lock()
	msg.Status = status
	s.mu.Unlock()

	s.bus.PublishSync(event.Event{
		Type: event.ChatMessageUpdated,
		Data: event.ChatMessageUpdatedData{Message: msg},
	})
}

// Timeline returns the merged timeline in placement order. Entries are
// resolved to value copies under the owning locks, so callers may read
// them freely while the stream keeps mutating the shared records.
func (s *Service) Timeline() []timeline.Entry {
	entries := s.log.Snapshot()
	out := make([]timeline.Entry, len(entries))

	s.mu.Lock()
	for i, e := range entries {
		if e.Kind == timeline.KindChat {
			copied := *e.Chat
			out[i] = timeline.Entry{Kind: e.Kind, Chat: &copied}
		}
	}
	s.mu.Unlock()

	for i, e := range entries {
		if e.Kind != timeline.KindChannel {
			continue
		}
		// Kind and identity fields are immutable after placement, so the
		// key read needs no lock; Get copies the rest under the store's.
		if msg, ok := s.store.Get(e.Channel.Key()); ok {
			out[i] = timeline.Entry{Kind: e.Kind, Channel: &msg}
		} else {
			out[i] = e
		}
	}
	return out
}

// Channels returns the current channel message snapshots.
func (s *Service) Channels() []types.ChannelMessage {
	return s.store.Snapshot()
}

// Visible filters the channel messages through the given preferences.
func (s *Service) Visible(prefs types.VisibilityPreferences) channel.FilterResult {
	return channel.Filter(s.store.Snapshot(), prefs)
}

// Attribution resolves the display attributes for one of this session's
// chat messages.
func (s *Service) Attribution(msg types.ChatMessage) (types.AgentSnapshot, bool) {
	return agent.Attribution(msg, s.roster)
}

func newMessageID() string {
	return ulid.Make().String()
}
