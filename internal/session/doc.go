// Package session owns the conversation history: creating chat messages,
// folding streamed channel messages into the merged timeline, and keeping
// the two reconciled while the backend streams.
//
// # Architecture
//
// The service sits between the event bus and the two ordered structures:
//
//   - channel.Store: keyed ingest of streamed channel messages
//   - timeline.Log: the append-only merged view
//
// Inbound channel events (published on the bus by the transport layer) are
// applied to the store; the first event for a new (channel, id) identity
// also appends that entry to the timeline. Later events mutate the stored
// entry in place, which the timeline observes through the shared pointer;
// placed entries never move.
//
// Chat messages come from three places: user input (SendUserMessage, which
// also pushes the text to the backend conversation), explicit agent turn
// completion (AddAgentMessage), and system notices for agent handoffs
// (subscribed from the bus). Each chat message freezes the active agent's
// display attributes at creation time so attribution survives roster
// changes.
//
// Interleaving between chat and channel entries is strictly by first-append
// arrival order. Timestamps and sequence numbers play no part in placement.
package session
