package replay

import (
	"log/slog"
	"sort"

	"github.com/roach88/prelude/internal/ir"
)

// Reconstruction is the document state at a point in time.
type Reconstruction struct {
	Document ir.Document
	// Basis is the snapshot the document came from; nil means the empty
	// default document.
	Basis *ir.EditorEvent
}

// DocumentAt returns the document at time t: the stored tree of the latest
// snapshot with timestamp <= t, or the empty document if there is none.
//
// events must be sorted by (timestamp, seq). Snapshots whose payload fails
// validation are skipped and logged, so reconstruction falls back to the
// nearest earlier valid snapshot.
func DocumentAt(events []ir.EditorEvent, t int64, logger *slog.Logger) Reconstruction {
	if logger == nil {
		logger = slog.Default()
	}

	for i := lastAtOrBefore(events, t); i >= 0; i-- {
		ev := events[i]
		if ev.Type != ir.EventSnapshot {
			continue
		}
		doc, err := decodeSnapshot(ev)
		if err != nil {
			logger.Warn("skipping malformed snapshot",
				"seq", ev.Seq,
				"event_type", string(ev.Type),
				"error", err,
			)
			continue
		}
		return Reconstruction{Document: doc, Basis: &events[i]}
	}
	return Reconstruction{Document: ir.EmptyDocument()}
}

// StepsSince returns the transaction steps recorded after basis up to and
// including t. With a nil basis it returns every step up to t. The steps
// are for display only; they are not applied to the document.
func StepsSince(events []ir.EditorEvent, basis *ir.EditorEvent, t int64) []ir.EditorEvent {
	steps := []ir.EditorEvent{}
	for i := 0; i <= lastAtOrBefore(events, t); i++ {
		ev := events[i]
		if ev.Type != ir.EventTransactionStep {
			continue
		}
		if basis != nil && ir.CompareEvents(ev, *basis) <= 0 {
			continue
		}
		steps = append(steps, ev)
	}
	return steps
}

// lastAtOrBefore returns the index of the last event with timestamp <= t,
// or -1.
func lastAtOrBefore(events []ir.EditorEvent, t int64) int {
	return sort.Search(len(events), func(i int) bool { return events[i].Timestamp > t }) - 1
}

func decodeSnapshot(ev ir.EditorEvent) (ir.Document, error) {
	if err := ir.ValidateEvent(ev); err != nil {
		return nil, err
	}
	doc, err := ir.DecodeDocument(ev.Data)
	if err != nil {
		return nil, &ir.PayloadError{Seq: ev.Seq, EventType: ev.Type, Err: err}
	}
	if len(doc) == 0 {
		return ir.EmptyDocument(), nil
	}
	return doc, nil
}
