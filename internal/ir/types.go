package ir

import (
	"cmp"
	"encoding/json"
	"slices"
)

// EventType identifies the kind of an editor event.
type EventType string

const (
	EventSnapshot        EventType = "snapshot"
	EventTransactionStep EventType = "transaction_step"
	EventPasteInternal   EventType = "paste_internal"
	EventPasteExternal   EventType = "paste_external"
	EventSubmission      EventType = "submission"
)

// ValidEventTypes defines allowed event types.
var ValidEventTypes = map[EventType]bool{
	EventSnapshot:        true,
	EventTransactionStep: true,
	EventPasteInternal:   true,
	EventPasteExternal:   true,
	EventSubmission:      true,
}

// IsPaste reports whether t is one of the two paste kinds.
func (t EventType) IsPaste() bool {
	return t == EventPasteInternal || t == EventPasteExternal
}

// CarriesDocument reports whether events of this type store a full document.
func (t EventType) CarriesDocument() bool {
	return t == EventSnapshot || t == EventSubmission
}

// EditorEvent is one entry of a session's append-only activity log.
type EditorEvent struct {
	SessionID string          `json:"sessionId"`
	Type      EventType       `json:"eventType"`
	Data      json.RawMessage `json:"eventData"`
	Timestamp int64           `json:"timestamp"`      // epoch ms
	Seq       int64           `json:"sequenceNumber"` // per-session logical clock
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one message in a conversation, sequenced like editor events.
type ChatMessage struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversationId"`
	Role           Role           `json:"role"`
	Content        string         `json:"content"`
	Timestamp      int64          `json:"timestamp"`      // epoch ms
	Seq            int64          `json:"sequenceNumber"` // per-session logical clock
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Conversation groups chat messages within a session.
type Conversation struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"` // epoch ms
}

// AllConversations is the read-only union view over every conversation of a
// session. It is never persisted.
const AllConversations = "all"

// Session is the summary of one writing session.
type Session struct {
	ID         string `json:"id"`
	CreatedAt  int64  `json:"createdAt"`
	EventCount int    `json:"eventCount"`
	ChatCount  int    `json:"chatCount"`
	FirstAt    int64  `json:"firstAt,omitempty"`
	LastAt     int64  `json:"lastAt,omitempty"`
}

// CompareEvents orders events by timestamp, breaking ties by Seq.
func CompareEvents(a, b EditorEvent) int {
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// SortEvents sorts events in place by (Timestamp, Seq).
func SortEvents(events []EditorEvent) {
	slices.SortStableFunc(events, CompareEvents)
}

// SortMessages sorts chat messages in place by (Timestamp, Seq).
func SortMessages(msgs []ChatMessage) {
	slices.SortStableFunc(msgs, func(a, b ChatMessage) int {
		if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}
