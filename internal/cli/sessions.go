package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/ir"
)

// SessionsResult lists the stored sessions.
type SessionsResult struct {
	Sessions []ir.Session `json:"sessions"`
	Total    int          `json:"total"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Long: `List every recorded session, newest first, with event and chat counts.

Examples:
  prelude sessions --db ./prelude.db
  prelude sessions --db ./prelude.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd.Context(), rootOpts, cmd)
		},
	}
	return cmd
}

func runSessions(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Format != "text" {
		return opts.formatter(cmd).Success(SessionsResult{Sessions: sessions, Total: len(sessions)})
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tEvents\tChat\tFirst\tLast\tLength")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range sessions {
		length := "-"
		if s.LastAt > 0 {
			length = formatDuration(s.LastAt - s.FirstAt)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			idStyle.Render(s.ID), s.EventCount, s.ChatCount,
			formatEpoch(s.FirstAt), formatEpoch(s.LastAt), length)
	}
	return w.Flush()
}
