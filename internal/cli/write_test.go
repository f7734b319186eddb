package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/store"
)

func countTypes(events []ir.EditorEvent) map[ir.EventType]int {
	counts := map[ir.EventType]int{}
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}

func TestWrite_RecordsSession(t *testing.T) {
	db := newTestDB(t)

	// The reply is pasted before any internal paste clears the buffer.
	script := strings.Join([]string{
		"First paragraph",
		":chat What should come next?",
		":paste Add evidence.",
		":copy First",
		":paste First",
		":paste pasted from elsewhere",
		":submit",
		":show",
		":quit",
		"never read",
	}, "\n")

	out, _, err := execute(NewWriteCommand(textOpts(db)), script, "--session", "w1", "--reply", "Add evidence.")
	require.NoError(t, err)
	assert.Contains(t, out, "Session w1")
	assert.Contains(t, out, "Add evidence.")
	assert.Contains(t, out, "paste blocked")
	assert.Contains(t, out, "submitted")
	assert.Contains(t, out, "Saved session w1: 3 paragraphs, 3 pastes (1 blocked), 1 submissions")
	assert.NotContains(t, out, "never read")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	events, err := st.AllEvents(ctx, "w1")
	require.NoError(t, err)
	counts := countTypes(events)
	assert.Equal(t, 3, counts[ir.EventTransactionStep])
	assert.Equal(t, 2, counts[ir.EventPasteInternal])
	assert.Equal(t, 1, counts[ir.EventPasteExternal])
	assert.Equal(t, 1, counts[ir.EventSubmission])
	assert.Equal(t, 1, counts[ir.EventSnapshot])
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}

	snap, err := st.LatestSnapshot(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	doc, err := ir.DecodeDocument(snap.Data)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nAdd evidence.\nFirst", doc.PlainText())

	msgs, err := st.AllChatMessages(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Add evidence.", msgs[1].Content)

	convs, err := st.Conversations(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "What should come next?", convs[0].Title)
}

func TestWrite_ResumesSession(t *testing.T) {
	db := newTestDB(t)

	_, _, err := execute(NewWriteCommand(textOpts(db)), "Opening line\n:chat Is this good?\n", "--session", "w2", "--reply", "It works.")
	require.NoError(t, err)

	// EOF ends the first run; the second continues the same document and
	// can still paste the earlier reply.
	out, _, err := execute(NewWriteCommand(jsonOpts(db)), "Second line\n:paste It works.\n:quit\n", "--session", "w2")
	require.NoError(t, err)

	var result WriteResult
	decodeData(t, out, &result)
	assert.Equal(t, "w2", result.SessionID)
	assert.True(t, result.Resumed)
	assert.Equal(t, 2, result.Paragraphs)
	assert.Equal(t, 1, result.Pastes)
	assert.Zero(t, result.Blocked)
	assert.True(t, result.Dirty)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	events, err := st.AllEvents(context.Background(), "w2")
	require.NoError(t, err)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	snap, err := st.LatestSnapshot(context.Background(), "w2")
	require.NoError(t, err)
	doc, err := ir.DecodeDocument(snap.Data)
	require.NoError(t, err)
	assert.Equal(t, "Opening line\nSecond line\nIt works.", doc.PlainText())

	convs, err := st.Conversations(context.Background(), "w2")
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestWrite_ResumeAfterSubmissionIsClean(t *testing.T) {
	db := newTestDB(t)

	_, _, err := execute(NewWriteCommand(textOpts(db)), "Final draft\n:submit\n", "--session", "w4")
	require.NoError(t, err)

	out, _, err := execute(NewWriteCommand(jsonOpts(db)), ":quit\n", "--session", "w4")
	require.NoError(t, err)

	var result WriteResult
	decodeData(t, out, &result)
	assert.True(t, result.Resumed)
	assert.False(t, result.Dirty)
}

func TestWrite_UnknownCommandShowsHelp(t *testing.T) {
	db := newTestDB(t)

	out, _, err := execute(NewWriteCommand(textOpts(db)), ":dance\n", "--session", "w3")
	require.NoError(t, err)
	assert.Contains(t, out, ":paste [text]")
	assert.Contains(t, out, "0 paragraphs")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	exists, err := st.HasSession(context.Background(), "w3")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAppendParagraph(t *testing.T) {
	doc := appendParagraph(ir.EmptyDocument(), "one")
	assert.Equal(t, "one", doc.PlainText())
	assert.Equal(t, 0, endPosition(ir.EmptyDocument()))
	assert.Equal(t, 5, endPosition(doc))

	doc = appendParagraph(doc, "caf\u00e9")
	assert.Equal(t, "one\ncaf\u00e9", doc.PlainText())
	assert.Equal(t, 11, endPosition(doc))
}
