package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/store"
	"github.com/roach88/prelude/internal/testutil"
)

// t0 is the first timestamp of the seeded session.
const t0 = int64(1_741_942_800_000)

// newTestDB returns the path of a fresh database file.
func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prelude.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	return path
}

// seedSession stores testutil.SessionID:
//
//	0:00 snapshot "Draft"        0:01 step
//	0:02 user "How do I start?"  0:03 assistant "With a hook."
//	0:05 internal paste          0:06 blocked paste
//	1:20 submission
//
// The 74s gap before the submission is idle.
func seedSession(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.AppendEvents(ctx, []ir.EditorEvent{
		testutil.Snapshot(1, t0, "Draft"),
		testutil.Step(2, t0+1000, 6, "!"),
		testutil.Paste(3, t0+5000, true, "With a hook."),
		testutil.Paste(4, t0+6000, false, "copied from the web"),
		testutil.Submission(5, t0+80000, "Draft", "With a hook."),
	}))
	require.NoError(t, st.WriteConversation(ctx, ir.Conversation{
		ID: "c1", SessionID: testutil.SessionID, Title: "Getting started", CreatedAt: t0 + 2000,
	}))
	require.NoError(t, st.WriteChatMessage(ctx, testutil.UserMessage("m1", 1, t0+2000, "How do I start?")))
	require.NoError(t, st.WriteChatMessage(ctx, testutil.AssistantMessage("m2", 2, t0+3000, "With a hook.")))
}

// execute runs cmd with args and returns stdout, stderr, and the error.
func execute(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeData unwraps a JSON CLIResponse into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func textOpts(db string) *RootOptions {
	return &RootOptions{Format: "text", Database: db}
}

func jsonOpts(db string) *RootOptions {
	return &RootOptions{Format: "json", Database: db}
}
