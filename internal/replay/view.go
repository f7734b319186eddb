package replay

import "github.com/roach88/prelude/internal/ir"

// ChatView is the chat panel as it looked at a point in time.
type ChatView struct {
	Messages []ir.ChatMessage
	// HighlightID is the newest visible message, or "" when none is visible.
	HighlightID string
}

// VisibleMessages returns the messages with timestamp <= t, filtered to one
// conversation or, for ir.AllConversations, the union of all of them.
func (s *Session) VisibleMessages(t int64, conversationID string) ChatView {
	view := ChatView{Messages: []ir.ChatMessage{}}
	for _, m := range s.Messages {
		if m.Timestamp > t {
			break
		}
		if conversationID != ir.AllConversations && m.ConversationID != conversationID {
			continue
		}
		view.Messages = append(view.Messages, m)
	}
	if n := len(view.Messages); n > 0 {
		view.HighlightID = view.Messages[n-1].ID
	}
	return view
}

// Banner is the transient notice shown over the replayed editor.
type Banner struct {
	Kind      ir.EventType `json:"kind"`
	Label     string       `json:"label"`
	Timestamp int64        `json:"timestamp"`
}

// BannerAt returns the banner for a paste or submission within the banner
// window ending at t: (t - window, t]. Pastes take precedence over
// submissions; within a kind the earliest recorded event wins.
func (s *Session) BannerAt(t int64) (Banner, bool) {
	from := t - s.cfg.BannerWindow.Milliseconds()
	recent := func(ev ir.EditorEvent) bool {
		return ev.Timestamp <= t && ev.Timestamp > from
	}

	for _, ev := range s.Events {
		if ev.Type.IsPaste() && recent(ev) {
			label := "Content Pasted"
			if ev.Type == ir.EventPasteExternal {
				label = "External Paste Blocked"
			}
			return Banner{Kind: ev.Type, Label: label, Timestamp: ev.Timestamp}, true
		}
	}
	for _, ev := range s.Events {
		if ev.Type == ir.EventSubmission && recent(ev) {
			return Banner{Kind: ev.Type, Label: "Submitted", Timestamp: ev.Timestamp}, true
		}
	}
	return Banner{}, false
}
