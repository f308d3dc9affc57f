// Package channel implements the keyed store for streamed channel messages
// and the visibility filter over it.
package channel

import (
	"fmt"
	"sync"

	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// SequenceViolation reports an event that arrived with a sequence number at
// or below the last applied one for its identity. Stale events are dropped;
// this error is informational and non-fatal.
type SequenceViolation struct {
	Key     types.ChannelKey
	Got     uint64
	Applied uint64
}

func (e *SequenceViolation) Error() string {
	return fmt.Sprintf("stale sequence %d for %s/%s (applied %d)",
		e.Got, e.Key.Channel, e.Key.ID, e.Applied)
}

// Store holds one entry per (channel, id) identity and enforces per-identity
// sequence monotonicity. Entries are created on first sight, mutated in
// place on later accepted events, and never deleted within a session.
type Store struct {
	mu      sync.RWMutex
	entries map[types.ChannelKey]*types.ChannelMessage
	order   []types.ChannelKey
}

// NewStore creates an empty channel message store.
func NewStore() *Store {
	return &Store{
		entries: make(map[types.ChannelKey]*types.ChannelMessage),
	}
}

// Apply applies an inbound event to the store. It returns created=true when
// the event established a new identity, and a *SequenceViolation when the
// event was stale and dropped. Content is replaced wholesale: the server
// sends cumulative snapshots, not deltas.
func (s *Store) Apply(msg types.ChannelMessage) (created bool, err error) {
	key := msg.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	if !ok {
		copied := msg
		s.entries[key] = &copied
		s.order = append(s.order, key)
		return true, nil
	}

	if msg.Sequence <= existing.Sequence {
		logging.Component("ingest").Debug().
			Str("channel", string(key.Channel)).
			Str("id", key.ID).
			Uint64("got", msg.Sequence).
			Uint64("applied", existing.Sequence).
			Msg("dropping stale channel event")
		return false, &SequenceViolation{Key: key, Got: msg.Sequence, Applied: existing.Sequence}
	}

	existing.Content = msg.Content
	existing.Sequence = msg.Sequence
	existing.Partial = msg.Partial
	existing.ToolCalls = msg.ToolCalls
	if msg.AgentID != "" {
		existing.AgentID = msg.AgentID
	}
	return false, nil
}

// Get returns a copy of the entry for the given identity.
func (s *Store) Get(key types.ChannelKey) (types.ChannelMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return types.ChannelMessage{}, false
	}
	return *entry, true
}

// Ref returns the stored entry itself for the given identity. The timeline
// holds these pointers so in-place content updates show up without
// re-appending; callers must not mutate through them.
func (s *Store) Ref(key types.ChannelKey) (*types.ChannelMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Snapshot returns copies of all entries in first-seen order.
func (s *Store) Snapshot() []types.ChannelMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.ChannelMessage, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.entries[key])
	}
	return out
}

// Len returns the number of distinct identities seen.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
