package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/roach88/prelude/internal/ir"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// snapshotEvent builds a snapshot whose document is one paragraph of text.
func snapshotEvent(sessionID string, seq, ts int64, text string) ir.EditorEvent {
	data, err := ir.EncodeDocument(ir.ParagraphDocument([]string{text}))
	if err != nil {
		panic(err)
	}
	return ir.EditorEvent{SessionID: sessionID, Type: ir.EventSnapshot, Data: data, Timestamp: ts, Seq: seq}
}

func stepEvent(sessionID string, seq, ts int64) ir.EditorEvent {
	data, _ := json.Marshal(ir.StepPayload{StepType: "replace", From: 1, To: 1})
	return ir.EditorEvent{SessionID: sessionID, Type: ir.EventTransactionStep, Data: data, Timestamp: ts, Seq: seq}
}

func pasteEvent(sessionID string, seq, ts int64, internal bool, content string) ir.EditorEvent {
	typ := ir.EventPasteExternal
	if internal {
		typ = ir.EventPasteInternal
	}
	data, _ := json.Marshal(ir.PastePayload{Content: content})
	return ir.EditorEvent{SessionID: sessionID, Type: typ, Data: data, Timestamp: ts, Seq: seq}
}
