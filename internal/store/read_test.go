package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prelude/internal/ir"
)

func TestAllEvents_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Insert out of order; timestamps deliberately not monotonic.
	require.NoError(t, s.AppendEvents(ctx, []ir.EditorEvent{
		stepEvent("s1", 3, 900),
		snapshotEvent("s1", 1, 1000, "a"),
		stepEvent("s1", 2, 1000),
	}))

	events, err := s.AllEvents(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{events[0].Seq, events[1].Seq, events[2].Seq})
}

func TestAllEvents_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	events, err := s.AllEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestLatestSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	snap, err := s.LatestSnapshot(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, snap, "no snapshot yet is not an error")

	require.NoError(t, s.AppendEvents(ctx, []ir.EditorEvent{
		snapshotEvent("s1", 1, 1000, "a"),
		stepEvent("s1", 2, 1500),
		snapshotEvent("s1", 3, 2000, "b"),
		snapshotEvent("s1", 4, 2000, "c"), // same timestamp, later seq wins
		stepEvent("s1", 5, 3000),
	}))

	snap, err = s.LatestSnapshot(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(4), snap.Seq)

	doc, err := ir.DecodeDocument(snap.Data)
	require.NoError(t, err)
	assert.True(t, doc.Equal(ir.ParagraphDocument([]string{"c"})))
}

func TestSubmissions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := snapshotEvent("s1", 2, 2000, "final")
	sub.Type = ir.EventSubmission
	require.NoError(t, s.AppendEvents(ctx, []ir.EditorEvent{
		snapshotEvent("s1", 1, 1000, "draft"),
		sub,
	}))

	subs, err := s.Submissions(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(2), subs[0].Seq)
}

func TestMaxSeqs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxEventSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.AppendEvents(ctx, []ir.EditorEvent{stepEvent("s1", 1, 1), stepEvent("s1", 7, 2)}))
	seq, err = s.MaxEventSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)

	require.NoError(t, s.WriteConversation(ctx, ir.Conversation{ID: "c1", SessionID: "s1", Title: "t", CreatedAt: 1}))
	require.NoError(t, s.WriteChatMessage(ctx, ir.ChatMessage{ID: "m1", ConversationID: "c1", Role: ir.RoleUser, Content: "x", Timestamp: 2, Seq: 3}))
	seq, err = s.MaxChatSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestAllChatMessages_UnionAcrossConversations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteConversation(ctx, ir.Conversation{ID: "c1", SessionID: "s1", Title: "one", CreatedAt: 1}))
	require.NoError(t, s.WriteConversation(ctx, ir.Conversation{ID: "c2", SessionID: "s1", Title: "two", CreatedAt: 2}))
	require.NoError(t, s.WriteConversation(ctx, ir.Conversation{ID: "c3", SessionID: "other", Title: "x", CreatedAt: 3}))

	for _, m := range []ir.ChatMessage{
		{ID: "a", ConversationID: "c2", Role: ir.RoleUser, Content: "late", Timestamp: 300, Seq: 3},
		{ID: "b", ConversationID: "c1", Role: ir.RoleUser, Content: "early", Timestamp: 100, Seq: 1},
		{ID: "c", ConversationID: "c1", Role: ir.RoleAssistant, Content: "mid", Timestamp: 200, Seq: 2},
		{ID: "d", ConversationID: "c3", Role: ir.RoleUser, Content: "foreign", Timestamp: 150, Seq: 1},
	} {
		require.NoError(t, s.WriteChatMessage(ctx, m))
	}

	msgs, err := s.AllChatMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].ID)
	assert.Equal(t, "c", msgs[1].ID)
	assert.Equal(t, "a", msgs[2].ID)
}

func TestListSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEvents(ctx, []ir.EditorEvent{
		snapshotEvent("old", 1, 1000, "a"),
		stepEvent("old", 2, 4000),
	}))
	require.NoError(t, s.AppendEvent(ctx, snapshotEvent("new", 1, 9000, "b")))
	require.NoError(t, s.WriteConversation(ctx, ir.Conversation{ID: "c1", SessionID: "old", Title: "t", CreatedAt: 1500}))
	require.NoError(t, s.WriteChatMessage(ctx, ir.ChatMessage{ID: "m1", ConversationID: "c1", Role: ir.RoleUser, Content: "x", Timestamp: 2000, Seq: 3}))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, ir.Session{ID: "old", CreatedAt: 1000, EventCount: 2, ChatCount: 1, FirstAt: 1000, LastAt: 4000}, sessions[1])
}
