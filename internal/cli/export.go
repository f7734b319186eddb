package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/prelude/internal/ir"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// Export is a session's complete log, as written by the export command.
type Export struct {
	LogVersion    string            `json:"log_version"`
	SessionID     string            `json:"session_id"`
	Events        []ir.EditorEvent  `json:"events"`
	Conversations []ir.Conversation `json:"conversations"`
	Messages      []ir.ChatMessage  `json:"messages"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session's event log and chat",
		Long: `Export every editor event, conversation, and chat message of a session
in sequence order. --format yaml writes YAML; any other format writes JSON.

Examples:
  prelude export 0192f0c4-... > session.json
  prelude export 0192f0c4-... --format yaml -o session.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command, sessionID string) error {
	ctx := cmd.Context()

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ok, err := st.HasSession(ctx, sessionID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to look up session", err)
	}
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s not found", sessionID))
	}

	exp := Export{LogVersion: ir.LogVersion, SessionID: sessionID}
	if exp.Events, err = st.AllEvents(ctx, sessionID); err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	if exp.Conversations, err = st.Conversations(ctx, sessionID); err != nil {
		return WrapExitError(ExitCommandError, "failed to read conversations", err)
	}
	if exp.Messages, err = st.AllChatMessages(ctx, sessionID); err != nil {
		return WrapExitError(ExitCommandError, "failed to read chat messages", err)
	}

	w := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeExport(w, exp, opts.Format); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}
	if opts.Output != "" {
		opts.formatter(cmd).VerboseLog("exported %d events and %d messages to %s",
			len(exp.Events), len(exp.Messages), opts.Output)
	}
	return nil
}

func writeExport(w io.Writer, exp Export, format string) error {
	if format == "yaml" {
		generic, err := toGeneric(exp)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(exp)
}
