package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/prelude/internal/ir"
)

func TestPendingQueue_PeekDoesNotRemove(t *testing.T) {
	q := newPendingQueue(3)
	q.Push(ir.EditorEvent{Seq: 1})
	q.Push(ir.EditorEvent{Seq: 2})

	batch := q.Peek(10)
	assert.Len(t, batch, 2)
	assert.Equal(t, 2, q.Len())
}

func TestPendingQueue_AckRemovesFront(t *testing.T) {
	q := newPendingQueue(3)
	for i := int64(1); i <= 4; i++ {
		q.Push(ir.EditorEvent{Seq: i})
	}

	q.Ack(3)
	rest := q.Peek(10)
	assert.Len(t, rest, 1)
	assert.Equal(t, int64(4), rest[0].Seq)

	q.Ack(5)
	assert.Equal(t, 0, q.Len())
}

func TestPendingQueue_SignalsOnFullBatch(t *testing.T) {
	q := newPendingQueue(2)

	q.Push(ir.EditorEvent{Seq: 1})
	select {
	case <-q.Wait():
		t.Fatal("signalled before batch was full")
	default:
	}

	q.Push(ir.EditorEvent{Seq: 2})
	select {
	case <-q.Wait():
	default:
		t.Fatal("expected signal at batch boundary")
	}
}
