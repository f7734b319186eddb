package testutil

import (
	"encoding/json"

	"github.com/roach88/prelude/internal/ir"
)

// SessionID is the session every builder stamps unless overridden.
const SessionID = "test-session"

// Snapshot builds a snapshot event whose document has one paragraph per line.
func Snapshot(seq, ts int64, lines ...string) ir.EditorEvent {
	return document(ir.EventSnapshot, seq, ts, lines)
}

// Submission builds a submission event whose document has one paragraph per line.
func Submission(seq, ts int64, lines ...string) ir.EditorEvent {
	return document(ir.EventSubmission, seq, ts, lines)
}

// Step builds a transaction_step inserting text at pos.
func Step(seq, ts int64, pos int, text string) ir.EditorEvent {
	var slice json.RawMessage
	if text != "" {
		slice = mustJSON(map[string]any{
			"content": []any{map[string]any{"type": "text", "text": text}},
		})
	}
	return ir.EditorEvent{
		SessionID: SessionID,
		Type:      ir.EventTransactionStep,
		Data:      mustJSON(ir.StepPayload{StepType: "replace", From: pos, To: pos, Slice: slice}),
		Timestamp: ts,
		Seq:       seq,
	}
}

// Paste builds a paste_internal or paste_external event.
func Paste(seq, ts int64, internal bool, content string) ir.EditorEvent {
	typ := ir.EventPasteExternal
	if internal {
		typ = ir.EventPasteInternal
	}
	return ir.EditorEvent{
		SessionID: SessionID,
		Type:      typ,
		Data:      mustJSON(ir.PastePayload{Content: content}),
		Timestamp: ts,
		Seq:       seq,
	}
}

// Malformed builds an event of the given type with a payload that fails
// schema validation.
func Malformed(typ ir.EventType, seq, ts int64) ir.EditorEvent {
	return ir.EditorEvent{
		SessionID: SessionID,
		Type:      typ,
		Data:      json.RawMessage(`{"not":"valid"`),
		Timestamp: ts,
		Seq:       seq,
	}
}

// UserMessage builds a user chat message in conversation "c1".
func UserMessage(id string, seq, ts int64, content string) ir.ChatMessage {
	return ir.ChatMessage{ID: id, ConversationID: "c1", Role: ir.RoleUser, Content: content, Timestamp: ts, Seq: seq}
}

// AssistantMessage builds an assistant chat message in conversation "c1".
func AssistantMessage(id string, seq, ts int64, content string) ir.ChatMessage {
	return ir.ChatMessage{ID: id, ConversationID: "c1", Role: ir.RoleAssistant, Content: content, Timestamp: ts, Seq: seq}
}

func document(typ ir.EventType, seq, ts int64, lines []string) ir.EditorEvent {
	data, err := ir.EncodeDocument(ir.ParagraphDocument(lines))
	if err != nil {
		panic(err)
	}
	return ir.EditorEvent{SessionID: SessionID, Type: typ, Data: data, Timestamp: ts, Seq: seq}
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
