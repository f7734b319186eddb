package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/testutil"
)

// memSink records batches and can be told to fail.
type memSink struct {
	mu      sync.Mutex
	batches [][]ir.EditorEvent
	failing bool
	calls   int
}

func (s *memSink) AppendEvents(_ context.Context, events []ir.EditorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing {
		return errors.New("database is locked")
	}
	batch := make([]ir.EditorEvent, len(events))
	copy(batch, events)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *memSink) setFailing(f bool) {
	s.mu.Lock()
	s.failing = f
	s.mu.Unlock()
}

func (s *memSink) events() []ir.EditorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ir.EditorEvent
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func newTestTracker(t *testing.T, opts ...Option) (*Tracker, *memSink, *testutil.WallClock) {
	t.Helper()
	sink := &memSink{}
	clock := testutil.NewWallClockAt(1_000)
	tr := New("s1", sink, append([]Option{WithNow(clock.Now)}, opts...)...)
	return tr, sink, clock
}

func step() ir.StepPayload {
	return ir.StepPayload{StepType: "replace", From: 1, To: 1}
}

func TestTracker_SeqAssignedAtEnqueue(t *testing.T) {
	tr, sink, clock := newTestTracker(t)

	tr.TrackSnapshot(ir.EmptyDocument())
	clock.Advance(10 * time.Millisecond)
	tr.TrackTransactionStep(step())
	tr.TrackPaste("hello", true)

	assert.Equal(t, int64(3), tr.Clock().Current(), "seq stamped before any flush")
	assert.Equal(t, 3, tr.Pending())

	require.NoError(t, tr.Flush(context.Background()))
	events := sink.events()
	require.Len(t, events, 3)
	assert.Equal(t, []ir.EventType{ir.EventSnapshot, ir.EventTransactionStep, ir.EventPasteInternal},
		[]ir.EventType{events[0].Type, events[1].Type, events[2].Type})
	assert.Equal(t, int64(1000), events[0].Timestamp)
	assert.Equal(t, int64(1010), events[1].Timestamp)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, "s1", ev.SessionID)
		require.NoError(t, ir.ValidateEvent(ev))
	}
}

func TestTracker_FlushInBatches(t *testing.T) {
	tr, sink, _ := newTestTracker(t, WithBatching(2, 0))

	for i := 0; i < 5; i++ {
		tr.TrackTransactionStep(step())
	}
	require.NoError(t, tr.Flush(context.Background()))

	require.Len(t, sink.batches, 3)
	assert.Len(t, sink.batches[0], 2)
	assert.Len(t, sink.batches[2], 1)
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_FailedFlushRetainsOrderAndRetries(t *testing.T) {
	tr, sink, _ := newTestTracker(t)
	ctx := context.Background()

	tr.TrackTransactionStep(step())
	tr.TrackTransactionStep(step())

	sink.setFailing(true)
	err := tr.Flush(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, tr.Pending(), "failed events stay queued")
	assert.Equal(t, StatusReady, tr.Status())

	// Typing continues during the outage.
	tr.TrackTransactionStep(step())

	sink.setFailing(false)
	require.NoError(t, tr.ForceSave(ctx))

	events := sink.events()
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq, "seq strictly increasing across retry")
	}
}

func TestTracker_FlushEmptyIsNoop(t *testing.T) {
	tr, sink, _ := newTestTracker(t)

	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, 0, sink.calls)
	assert.Equal(t, StatusReady, tr.Status())
}

func TestTracker_ShouldTakeSnapshot_StepThreshold(t *testing.T) {
	tr, _, _ := newTestTracker(t, WithSnapshotPolicy(3, time.Hour))

	assert.False(t, tr.ShouldTakeSnapshot())
	tr.TrackTransactionStep(step())
	tr.TrackTransactionStep(step())
	assert.False(t, tr.ShouldTakeSnapshot())
	tr.TrackTransactionStep(step())
	assert.True(t, tr.ShouldTakeSnapshot())

	tr.TrackSnapshot(ir.EmptyDocument())
	assert.False(t, tr.ShouldTakeSnapshot(), "snapshot resets counters")
}

func TestTracker_ShouldTakeSnapshot_TimeThreshold(t *testing.T) {
	tr, _, clock := newTestTracker(t, WithSnapshotPolicy(100, 30*time.Second))

	clock.Advance(31 * time.Second)
	assert.False(t, tr.ShouldTakeSnapshot(), "no changes, nothing to snapshot")

	tr.TrackTransactionStep(step())
	assert.True(t, tr.ShouldTakeSnapshot())

	tr.TrackSnapshot(ir.EmptyDocument())
	tr.TrackTransactionStep(step())
	clock.Advance(29 * time.Second)
	assert.False(t, tr.ShouldTakeSnapshot())
	clock.Advance(time.Second)
	assert.True(t, tr.ShouldTakeSnapshot())
}

func TestTracker_PasteRecordsTextEitherWay(t *testing.T) {
	tr, sink, _ := newTestTracker(t)

	tr.TrackPaste("from the web", false)
	require.NoError(t, tr.Flush(context.Background()))

	events := sink.events()
	require.Len(t, events, 1)
	assert.Equal(t, ir.EventPasteExternal, events[0].Type)
	p, err := ir.DecodePaste(events[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "from the web", p.Content)
	assert.False(t, tr.DirtySinceSubmission(), "blocked paste does not change the document")
}

func TestTracker_DirtySinceSubmission(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	assert.False(t, tr.DirtySinceSubmission())
	tr.TrackTransactionStep(step())
	assert.True(t, tr.DirtySinceSubmission())

	tr.TrackSubmission(ir.ParagraphDocument([]string{"done"}))
	assert.False(t, tr.DirtySinceSubmission())

	tr.TrackPaste("more", true)
	assert.True(t, tr.DirtySinceSubmission())
}

func TestTracker_StatusTransitions(t *testing.T) {
	tr, _, clock := newTestTracker(t, WithSavedHold(2*time.Second))

	assert.Equal(t, StatusReady, tr.Status())
	tr.TrackTransactionStep(step())
	require.NoError(t, tr.Flush(context.Background()))
	assert.Equal(t, StatusSaved, tr.Status())

	clock.Advance(2 * time.Second)
	assert.Equal(t, StatusReady, tr.Status())
}

func TestTracker_RunFlushesOnBatchAndOnCancel(t *testing.T) {
	sink := &memSink{}
	tr := New("s1", sink, WithBatching(2, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	tr.TrackTransactionStep(step())
	tr.TrackTransactionStep(step())
	require.Eventually(t, func() bool { return len(sink.events()) == 2 }, time.Second, 5*time.Millisecond)

	tr.TrackTransactionStep(step())
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	assert.Len(t, sink.events(), 3, "final ForceSave on shutdown")
}

func TestTracker_RunFlushesOnInterval(t *testing.T) {
	sink := &memSink{}
	tr := New("s1", sink, WithBatching(100, 10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	tr.TrackTransactionStep(step())
	require.Eventually(t, func() bool { return len(sink.events()) == 1 }, time.Second, 5*time.Millisecond)
}
