// Package timeline implements the merged conversation timeline as an
// append-only log. Entries are placed strictly in first-append order,
// regardless of their internal timestamps or sequence numbers, and never
// move afterwards. That discipline is what keeps earlier content from
// jumping around while later content streams in.
package timeline

import (
	"sync"

	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

// Kind discriminates the two entry variants.
type Kind string

const (
	KindChat    Kind = "chat"
	KindChannel Kind = "channel"
)

// Entry references either a chat message or a channel message. Exactly one
// of the pointers is set, matching Kind. Entries hold pointers so in-place
// content mutation by the owning component is visible without reordering.
type Entry struct {
	Kind    Kind
	Chat    *types.ChatMessage
	Channel *types.ChannelMessage
}

// entryKey dedupes appends; a key that is already placed keeps its position.
type entryKey struct {
	kind Kind
	ch   types.Channel
	id   string
}

// Log is the append-only merged timeline: an entry arena plus an insertion
// index. Appending an already-present key is a no-op, so the append-only
// invariant is enforced mechanically rather than by caller discipline.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[entryKey]int
}

// NewLog creates an empty timeline.
func NewLog() *Log {
	return &Log{index: make(map[entryKey]int)}
}

// AppendChat appends a chat message to the tail. Returns false if the
// message already occupies a position.
func (l *Log) AppendChat(msg *types.ChatMessage) bool {
	if msg == nil {
		return false
	}
	return l.append(entryKey{kind: KindChat, id: msg.ID}, Entry{Kind: KindChat, Chat: msg})
}

// AppendChannel appends a channel message to the tail. Returns false if the
// identity already occupies a position; content updates for a placed
// identity flow through the shared pointer, not through re-appending.
func (l *Log) AppendChannel(msg *types.ChannelMessage) bool {
	if msg == nil {
		return false
	}
	key := entryKey{kind: KindChannel, ch: msg.Channel, id: msg.ID}
	return l.append(key, Entry{Kind: KindChannel, Channel: msg})
}

func (l *Log) append(key entryKey, entry Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.index[key]; ok {
		return false
	}
	l.index[key] = len(l.entries)
	l.entries = append(l.entries, entry)
	return true
}

// Snapshot returns the timeline in placement order. Entries share their
// message pointers with whoever appended them; a caller reading while
// producers still mutate those records must resolve entries to copies
// under the producers' locks, as session.Service.Timeline does.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of placed entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Position returns the placement index of an entry, or -1 if it was never
// appended. Chat entries pass an empty channel.
func (l *Log) Position(kind Kind, ch types.Channel, id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if pos, ok := l.index[entryKey{kind: kind, ch: ch, id: id}]; ok {
		return pos
	}
	return -1
}
