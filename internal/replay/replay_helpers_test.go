package replay

import (
	"testing"

	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/testutil"
)

// scenarioSession is the canonical session used across replay tests:
// snapshot A at 0, an internal paste at 5s, snapshot B at 70s, plus a chat
// exchange at 2s and 3s. One idle period spans 5s..70s.
func scenarioSession(t *testing.T) *Session {
	t.Helper()
	events := []ir.EditorEvent{
		testutil.Snapshot(1, 0, "A"),
		testutil.Paste(2, 5_000, true, "hello"),
		testutil.Snapshot(3, 70_000, "B"),
	}
	msgs := []ir.ChatMessage{
		testutil.UserMessage("m1", 1, 2_000, "How should I start?"),
		testutil.AssistantMessage("m2", 2, 3_000, "With a hook."),
	}
	return NewSession(testutil.SessionID, events, msgs, nil, DefaultConfig(), nil)
}
