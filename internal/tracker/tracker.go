package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roach88/prelude/internal/ir"
)

// Defaults for the snapshot policy and flush batching.
const (
	DefaultSnapshotEverySteps = 50
	DefaultSnapshotInterval   = 30 * time.Second
	DefaultBatchSize          = 20
	DefaultFlushInterval      = 2 * time.Second
	DefaultSavedHold          = 2 * time.Second
)

var tracer = otel.Tracer("github.com/roach88/prelude/internal/tracker")

// Sink is the append side of the event store.
type Sink interface {
	AppendEvents(ctx context.Context, events []ir.EditorEvent) error
}

// Status is the save indicator shown next to the editor.
type Status string

const (
	StatusReady  Status = "ready"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
)

// Tracker records one live session's activity.
type Tracker struct {
	sessionID string
	sink      Sink
	clock     *Clock
	queue     *pendingQueue
	now       func() time.Time
	logger    *slog.Logger

	snapshotEverySteps int
	snapshotInterval   time.Duration
	batchSize          int
	flushInterval      time.Duration
	savedHold          time.Duration

	// flushMu serializes flushes; mu guards the fields below.
	flushMu sync.Mutex
	mu      sync.Mutex

	stepsSinceSnapshot int
	lastSnapshotAt     time.Time
	dirty              bool // changed since the last submission
	status             Status
	savedAt            time.Time
	failedAttempts     int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the sequence clock. Use NewClockAt to resume a session.
func WithClock(c *Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithNow injects the wall clock used for timestamps and the snapshot timer.
func WithNow(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the tracker's logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithSnapshotPolicy sets the step-count and elapsed-time thresholds used by
// ShouldTakeSnapshot. Non-positive values keep the defaults.
func WithSnapshotPolicy(everySteps int, interval time.Duration) Option {
	return func(t *Tracker) {
		if everySteps > 0 {
			t.snapshotEverySteps = everySteps
		}
		if interval > 0 {
			t.snapshotInterval = interval
		}
	}
}

// WithBatching sets the flush batch size and the Run loop's timer interval.
// Non-positive values keep the defaults.
func WithBatching(size int, interval time.Duration) Option {
	return func(t *Tracker) {
		if size > 0 {
			t.batchSize = size
		}
		if interval > 0 {
			t.flushInterval = interval
		}
	}
}

// WithSavedHold sets how long Status reports "saved" before returning to
// "ready".
func WithSavedHold(d time.Duration) Option {
	return func(t *Tracker) { t.savedHold = d }
}

// New creates a tracker for a session.
func New(sessionID string, sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		sessionID:          sessionID,
		sink:               sink,
		clock:              NewClock(),
		now:                time.Now,
		logger:             slog.Default(),
		snapshotEverySteps: DefaultSnapshotEverySteps,
		snapshotInterval:   DefaultSnapshotInterval,
		batchSize:          DefaultBatchSize,
		flushInterval:      DefaultFlushInterval,
		savedHold:          DefaultSavedHold,
		status:             StatusReady,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.queue = newPendingQueue(t.batchSize)
	t.lastSnapshotAt = t.now()
	return t
}

// SessionID returns the tracked session.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Clock returns the tracker's sequence clock.
func (t *Tracker) Clock() *Clock {
	return t.clock
}

// TrackTransactionStep records one atomic document mutation.
func (t *Tracker) TrackTransactionStep(step ir.StepPayload) {
	data, err := json.Marshal(step)
	if err != nil {
		t.logger.Warn("dropping unserializable step", "session", t.sessionID, "error", err)
		return
	}

	t.mu.Lock()
	t.stepsSinceSnapshot++
	t.dirty = true
	t.mu.Unlock()

	t.enqueue(ir.EventTransactionStep, data)
}

// ShouldTakeSnapshot reports whether the step-count or elapsed-time
// threshold since the last snapshot has been reached. No I/O.
func (t *Tracker) ShouldTakeSnapshot() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stepsSinceSnapshot >= t.snapshotEverySteps {
		return true
	}
	return t.stepsSinceSnapshot > 0 && t.now().Sub(t.lastSnapshotAt) >= t.snapshotInterval
}

// TrackSnapshot records the full document and resets the snapshot policy.
func (t *Tracker) TrackSnapshot(doc ir.Document) {
	data, err := ir.EncodeDocument(doc)
	if err != nil {
		t.logger.Warn("dropping unserializable snapshot", "session", t.sessionID, "error", err)
		return
	}

	t.mu.Lock()
	t.stepsSinceSnapshot = 0
	t.lastSnapshotAt = t.now()
	t.mu.Unlock()

	t.enqueue(ir.EventSnapshot, data)
}

// TrackPaste records a paste attempt. The text is always kept for audit,
// whether or not the paste was allowed.
func (t *Tracker) TrackPaste(text string, internal bool) {
	data, err := json.Marshal(ir.PastePayload{Content: text})
	if err != nil {
		t.logger.Warn("dropping unserializable paste", "session", t.sessionID, "error", err)
		return
	}

	typ := ir.EventPasteExternal
	if internal {
		typ = ir.EventPasteInternal
		t.mu.Lock()
		t.dirty = true
		t.mu.Unlock()
	}
	t.enqueue(typ, data)
}

// TrackSubmission records a student-initiated checkpoint of the document.
func (t *Tracker) TrackSubmission(doc ir.Document) {
	data, err := ir.EncodeDocument(doc)
	if err != nil {
		t.logger.Warn("dropping unserializable submission", "session", t.sessionID, "error", err)
		return
	}

	t.mu.Lock()
	t.dirty = false
	t.mu.Unlock()

	t.enqueue(ir.EventSubmission, data)
}

// DirtySinceSubmission reports whether the document changed after the last
// submission. It gates the host's submit button.
func (t *Tracker) DirtySinceSubmission() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// MarkDirty sets the changed-since-submission flag, for example after
// loading a document that already differs from its last submission.
func (t *Tracker) MarkDirty(dirty bool) {
	t.mu.Lock()
	t.dirty = dirty
	t.mu.Unlock()
}

// Pending returns the number of events not yet written.
func (t *Tracker) Pending() int {
	return t.queue.Len()
}

// Status returns the save indicator state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusSaved && t.now().Sub(t.savedAt) >= t.savedHold {
		t.status = StatusReady
	}
	return t.status
}

// enqueue stamps seq and timestamp now, so ordering survives batching and
// partial flush failures.
func (t *Tracker) enqueue(typ ir.EventType, data json.RawMessage) {
	ev := ir.EditorEvent{
		SessionID: t.sessionID,
		Type:      typ,
		Data:      data,
		Timestamp: t.now().UnixMilli(),
		Seq:       t.clock.Next(),
	}
	t.queue.Push(ev)
	t.logger.Debug("event tracked", "session", t.sessionID, "seq", ev.Seq, "event_type", string(typ))
}

// Flush writes every pending event in batches. On failure the remaining
// events stay queued for the next attempt and the error is returned; it is
// also logged, so background callers may ignore it.
func (t *Tracker) Flush(ctx context.Context) error {
	t.flushMu.Lock()
	defer t.flushMu.Unlock()

	if t.queue.Len() == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "tracker.flush")
	defer span.End()
	span.SetAttributes(attribute.String("prelude.session_id", t.sessionID))

	t.setStatus(StatusSaving)

	written := 0
	for {
		batch := t.queue.Peek(t.batchSize)
		if len(batch) == 0 {
			break
		}

		if err := t.sink.AppendEvents(ctx, batch); err != nil {
			t.mu.Lock()
			t.failedAttempts++
			attempt := t.failedAttempts
			t.status = StatusReady
			t.mu.Unlock()

			t.logger.Warn("event flush failed; will retry",
				"session", t.sessionID,
				"seq_from", batch[0].Seq,
				"seq_to", batch[len(batch)-1].Seq,
				"attempt", attempt,
				"error", err,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("flush session %s: %w", t.sessionID, err)
		}

		t.queue.Ack(len(batch))
		written += len(batch)
	}

	t.mu.Lock()
	t.failedAttempts = 0
	t.status = StatusSaved
	t.savedAt = t.now()
	t.mu.Unlock()

	span.SetAttributes(attribute.Int("prelude.events_written", written))
	t.logger.Debug("events flushed", "session", t.sessionID, "count", written)
	return nil
}

// ForceSave flushes synchronously, best-effort. Hosts call it when the
// session is about to end.
func (t *Tracker) ForceSave(ctx context.Context) error {
	return t.Flush(ctx)
}

// Run flushes on every full batch and every flush interval until ctx is
// cancelled, then makes a final ForceSave. Flush failures are logged and
// retried on the next boundary.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info("tracker starting", "session", t.sessionID)

	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker stopping: context cancelled", "session", t.sessionID)
			// Final save must not inherit the cancellation.
			_ = t.ForceSave(context.WithoutCancel(ctx))
			return ctx.Err()

		case <-t.queue.Wait():
			_ = t.Flush(ctx)

		case <-ticker.C:
			_ = t.Flush(ctx)
		}
	}
}

func (t *Tracker) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}
