package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/chat"
	"github.com/roach88/prelude/internal/harness"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	SessionID string
}

// RecordResult reports a scripted recording.
type RecordResult struct {
	Scenario  string   `json:"scenario"`
	SessionID string   `json:"session_id"`
	Events    int      `json:"events"`
	Messages  int      `json:"messages"`
	Verdicts  []string `json:"verdicts"`
	Pass      bool     `json:"pass"`
	Errors    []string `json:"errors,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <scenario.yaml>",
		Short: "Record a scripted session into the database",
		Long: `Play a YAML scenario through the recorder (tracker, paste guard, and
chat session) and store the resulting session. Step offsets are applied to
the current wall-clock time. The scenario's assertions are checked against
the stored session.

Exit codes:
  0 - Recorded, all assertions hold
  1 - Recorded, but a paste verdict or assertion failed
  2 - Command error (invalid scenario, session exists, etc.)

Examples:
  prelude record demo.yaml --db ./prelude.db
  prelude record demo.yaml --session essay-7 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session ID (default: the scenario's, else a new UUIDv7)")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = scenario.Session
	}
	if sessionID == "" {
		sessionID = chat.UUIDv7Generator{}.Generate()
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	exists, err := st.HasSession(ctx, sessionID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to look up session", err)
	}
	if exists {
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s already exists", sessionID))
	}

	res, err := harness.RunInto(ctx, st, scenario, harness.Options{
		SessionID: sessionID,
		Start:     time.Now(),
		Logger:    opts.logger(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record scenario", err)
	}

	result := RecordResult{
		Scenario:  scenario.Name,
		SessionID: sessionID,
		Events:    len(res.Replay.Events),
		Messages:  len(res.Replay.Messages),
		Verdicts:  []string{},
		Pass:      res.Pass,
		Errors:    res.Errors,
	}
	for _, v := range res.Verdicts {
		result.Verdicts = append(result.Verdicts, v.String())
	}

	if opts.Format != "text" {
		if err := opts.formatter(cmd).Success(result); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Recorded %s as %s: %s events, %s chat messages\n",
			scenario.Name, idStyle.Render(sessionID),
			countStyle.Render(fmt.Sprint(result.Events)), countStyle.Render(fmt.Sprint(result.Messages)))
		for _, e := range res.Errors {
			fmt.Fprintln(out, blockedStyle.Render("FAIL ")+e)
		}
	}

	if !res.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d check(s) failed", len(res.Errors)))
	}
	return nil
}
