package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/prelude/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the recorded log to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Events   []ir.EditorEvent // Full log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nRecorded events:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s @%d\n", ev.Seq, ev.Type, ev.Timestamp)
		}
	}
	return buf.String()
}

// evaluate runs one assertion against a finished result.
func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertEventCount:
		return assertEventCount(r, a)
	case AssertEventOrder:
		return assertEventOrder(r, a)
	case AssertMessageCount:
		return assertMessageCount(r, a)
	case AssertDocumentAt:
		return assertDocumentAt(r, a)
	case AssertBannerAt:
		return assertBannerAt(r, a)
	case AssertDirty:
		return assertDirty(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertEventCount checks an event type occurs exactly Count times.
func assertEventCount(r *Result, a Assertion) error {
	n := 0
	for _, ev := range r.Replay.Events {
		if string(ev.Type) == a.Event {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%s to occur %d times", a.Event, a.Count),
		Actual:   fmt.Sprintf("occurred %d times", n),
		Events:   r.Replay.Events,
	}
}

// assertEventOrder checks the event types appear in the given order.
// Intervening events are allowed.
func assertEventOrder(r *Result, a Assertion) error {
	next := 0
	for _, ev := range r.Replay.Events {
		if next < len(a.Events) && string(ev.Type) == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: strings.Join(a.Events, " -> "),
		Actual:   fmt.Sprintf("matched %d of %d, stopped at %s", next, len(a.Events), a.Events[next]),
		Events:   r.Replay.Events,
	}
}

func assertMessageCount(r *Result, a Assertion) error {
	if n := len(r.Replay.Messages); n != a.Count {
		return &AssertionError{
			Type:     AssertMessageCount,
			Expected: fmt.Sprintf("%d chat messages", a.Count),
			Actual:   fmt.Sprintf("%d chat messages", n),
		}
	}
	return nil
}

// assertDocumentAt checks the reconstructed document at an offset.
func assertDocumentAt(r *Result, a Assertion) error {
	want := ir.ParagraphDocument(a.Lines)
	got := r.Replay.DocumentAt(r.at(a.At)).Document
	if got.Equal(want) {
		return nil
	}
	wantJSON, _ := ir.MarshalCanonical(want)
	gotJSON, _ := ir.MarshalCanonical(got)
	return &AssertionError{
		Type:     AssertDocumentAt,
		Expected: fmt.Sprintf("document at %d to be %s", a.At, wantJSON),
		Actual:   string(gotJSON),
		Events:   r.Replay.Events,
	}
}

// assertBannerAt checks the banner label at an offset. An empty label
// expects no banner.
func assertBannerAt(r *Result, a Assertion) error {
	b, ok := r.Replay.BannerAt(r.at(a.At))
	got := ""
	if ok {
		got = b.Label
	}
	if got == a.Label {
		return nil
	}
	return &AssertionError{
		Type:     AssertBannerAt,
		Expected: fmt.Sprintf("banner %q at %d", a.Label, a.At),
		Actual:   fmt.Sprintf("banner %q", got),
		Events:   r.Replay.Events,
	}
}

func assertDirty(r *Result, a Assertion) error {
	if r.Dirty == *a.Dirty {
		return nil
	}
	return &AssertionError{
		Type:     AssertDirty,
		Expected: fmt.Sprintf("dirty=%t", *a.Dirty),
		Actual:   fmt.Sprintf("dirty=%t", r.Dirty),
	}
}
