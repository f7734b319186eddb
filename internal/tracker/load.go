package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/prelude/internal/ir"
)

// SnapshotSource reads what a resuming editor needs from the store.
type SnapshotSource interface {
	LatestSnapshot(ctx context.Context, sessionID string) (*ir.EditorEvent, error)
	MaxEventSeq(ctx context.Context, sessionID string) (int64, error)
}

// Resume creates a tracker whose clock continues after the highest stored
// sequence number of the session.
func Resume(ctx context.Context, src SnapshotSource, sessionID string, sink Sink, opts ...Option) (*Tracker, error) {
	last, err := src.MaxEventSeq(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", sessionID, err)
	}
	opts = append([]Option{WithClock(NewClockAt(last))}, opts...)
	return New(sessionID, sink, opts...), nil
}

// LoadDocument returns the document an editor starts from: the latest
// snapshot, or the empty default document when there is none.
//
// A malformed snapshot also yields the empty document. The returned error is
// non-nil only when the store itself failed; the document is usable either
// way.
func LoadDocument(ctx context.Context, src SnapshotSource, sessionID string, logger *slog.Logger) (ir.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snap, err := src.LatestSnapshot(ctx, sessionID)
	if err != nil {
		return ir.EmptyDocument(), fmt.Errorf("load document: %w", err)
	}
	if snap == nil {
		return ir.EmptyDocument(), nil
	}

	if err := ir.ValidateEvent(*snap); err != nil {
		logger.Warn("skipping malformed snapshot", "session", sessionID, "seq", snap.Seq, "error", err)
		return ir.EmptyDocument(), nil
	}
	doc, err := ir.DecodeDocument(snap.Data)
	if err != nil || len(doc) == 0 {
		return ir.EmptyDocument(), nil
	}
	return doc, nil
}
