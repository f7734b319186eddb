package replay

import (
	"cmp"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/roach88/prelude/internal/ir"
)

// NavKind tags a navigable event.
type NavKind string

const (
	NavTypingStart   NavKind = "typing_start"
	NavChat          NavKind = "chat"
	NavPasteInternal NavKind = "paste_internal"
	NavPasteExternal NavKind = "paste_external"
	NavSubmission    NavKind = "submission"
)

// Preview lengths, in runes.
const (
	markerPreviewRunes = 100
	navPreviewRunes    = 50
)

// NavEvent is one entry of the jump-to-event index.
type NavEvent struct {
	Kind        NavKind `json:"kind" yaml:"kind"`
	Timestamp   int64   `json:"timestamp" yaml:"timestamp"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description" yaml:"description"`
	Time        string  `json:"time" yaml:"time"` // m:ss from session start
}

// BuildIndex merges typing-session starts, user chat messages, pastes, and
// submissions into one list sorted by timestamp. Equal timestamps keep that
// group order, then recording order within a group.
//
// events and msgs must be sorted by (timestamp, seq).
func BuildIndex(events []ir.EditorEvent, msgs []ir.ChatMessage, typing []TypingSession, start int64) []NavEvent {
	index := []NavEvent{}

	for i, s := range typing {
		index = append(index, NavEvent{
			Kind:        NavTypingStart,
			Timestamp:   s.Start,
			Label:       fmt.Sprintf("Typing Session %d", i+1),
			Description: "Started at " + FormatTime(s.Start, start),
			Time:        FormatTime(s.Start, start),
		})
	}

	n := 0
	for _, m := range msgs {
		if m.Role != ir.RoleUser {
			continue
		}
		n++
		index = append(index, NavEvent{
			Kind:        NavChat,
			Timestamp:   m.Timestamp,
			Label:       fmt.Sprintf("Chat Message %d", n),
			Description: Preview(m.Content, navPreviewRunes),
			Time:        FormatTime(m.Timestamp, start),
		})
	}

	n = 0
	for _, ev := range events {
		if !ev.Type.IsPaste() {
			continue
		}
		n++
		kind, label := NavPasteInternal, "Internal Paste"
		if ev.Type == ir.EventPasteExternal {
			kind, label = NavPasteExternal, "External Paste"
		}
		index = append(index, NavEvent{
			Kind:        kind,
			Timestamp:   ev.Timestamp,
			Label:       fmt.Sprintf("%s %d", label, n),
			Description: "At " + FormatTime(ev.Timestamp, start),
			Time:        FormatTime(ev.Timestamp, start),
		})
	}

	n = 0
	for _, ev := range events {
		if ev.Type != ir.EventSubmission {
			continue
		}
		n++
		index = append(index, NavEvent{
			Kind:        NavSubmission,
			Timestamp:   ev.Timestamp,
			Label:       fmt.Sprintf("Submission %d", n),
			Description: "At " + FormatTime(ev.Timestamp, start),
			Time:        FormatTime(ev.Timestamp, start),
		})
	}

	slices.SortStableFunc(index, func(a, b NavEvent) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return index
}

// Marker is a point drawn on the timeline bar.
type Marker struct {
	Kind     NavKind `json:"kind" yaml:"kind"`
	Position float64 `json:"position" yaml:"position"` // percent of the compressed duration
	Label    string  `json:"label" yaml:"label"`
	Content  string  `json:"content,omitempty" yaml:"content,omitempty"`
	Time     string  `json:"time" yaml:"time"`
}

// Markers returns timeline markers for user chat messages, pastes, and
// submissions, grouped in that order.
func Markers(tl *Timeline, events []ir.EditorEvent, msgs []ir.ChatMessage) []Marker {
	markers := []Marker{}
	pos := func(t int64) float64 { return tl.Progress(t) * 100 }

	for _, m := range msgs {
		if m.Role != ir.RoleUser {
			continue
		}
		markers = append(markers, Marker{
			Kind:     NavChat,
			Position: pos(m.Timestamp),
			Label:    "Chat Message",
			Content:  Preview(m.Content, markerPreviewRunes),
			Time:     FormatTime(m.Timestamp, tl.Start),
		})
	}

	for _, ev := range events {
		if !ev.Type.IsPaste() {
			continue
		}
		var content string
		if p, err := ir.DecodePaste(ev.Data); err == nil {
			content = p.Content
		}
		kind, label := NavPasteInternal, "Internal Paste"
		if ev.Type == ir.EventPasteExternal {
			kind, label = NavPasteExternal, "External Paste (Blocked)"
		}
		markers = append(markers, Marker{
			Kind:     kind,
			Position: pos(ev.Timestamp),
			Label:    label,
			Content:  Preview(content, markerPreviewRunes),
			Time:     FormatTime(ev.Timestamp, tl.Start),
		})
	}

	n := 0
	for _, ev := range events {
		if ev.Type != ir.EventSubmission {
			continue
		}
		n++
		markers = append(markers, Marker{
			Kind:     NavSubmission,
			Position: pos(ev.Timestamp),
			Label:    fmt.Sprintf("Submission %d", n),
			Time:     FormatTime(ev.Timestamp, tl.Start),
		})
	}
	return markers
}

// FormatTime renders t as m:ss elapsed since start.
func FormatTime(t, start int64) string {
	secs := max(0, (t-start)/1000)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Preview truncates s to n runes, appending "..." when cut.
func Preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
