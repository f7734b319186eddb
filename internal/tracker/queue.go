package tracker

import (
	"sync"

	"github.com/roach88/prelude/internal/ir"
)

// pendingQueue buffers stamped events until they are durably written.
//
// Events leave the queue only when a flush acknowledges them, so a failed
// write keeps them in place, in seq order, for the next attempt.
//
// The signal channel lets the Run loop wait for a batch boundary without
// polling (buffered, size 1, multiple signals coalesce).
type pendingQueue struct {
	mu        sync.Mutex
	events    []ir.EditorEvent
	batchSize int
	signal    chan struct{}
}

func newPendingQueue(batchSize int) *pendingQueue {
	return &pendingQueue{
		events:    make([]ir.EditorEvent, 0, batchSize),
		batchSize: batchSize,
		signal:    make(chan struct{}, 1),
	}
}

// Push appends an event and signals when a full batch is waiting.
func (q *pendingQueue) Push(ev ir.EditorEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	full := len(q.events) >= q.batchSize
	q.mu.Unlock()

	if full {
		select {
		case q.signal <- struct{}{}:
		default:
		}
	}
}

// Peek returns a copy of up to n events from the front of the queue.
func (q *pendingQueue) Peek(n int) []ir.EditorEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.events) {
		n = len(q.events)
	}
	out := make([]ir.EditorEvent, n)
	copy(out, q.events[:n])
	return out
}

// Ack removes the first n events after they were written.
func (q *pendingQueue) Ack(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.events) {
		n = len(q.events)
	}
	// Nil out acknowledged slots so their payloads can be collected.
	clear(q.events[:n])
	q.events = q.events[n:]
	if len(q.events) == 0 {
		q.events = make([]ir.EditorEvent, 0, q.batchSize)
	}
}

// Len returns the number of unwritten events.
func (q *pendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Wait returns the channel that fires when a full batch is pending.
func (q *pendingQueue) Wait() <-chan struct{} {
	return q.signal
}
