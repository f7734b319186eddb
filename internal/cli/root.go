package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/config"
	"github.com/roach88/prelude/internal/telemetry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "yaml"
	Database string

	// Config and Logger are filled by the root command before any
	// subcommand runs. Subcommands built directly (as in tests) fall back
	// to defaults.
	Config config.Config
	Logger *slog.Logger

	shutdown func(context.Context) error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the prelude CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "prelude",
		Short: "prelude - record and replay writing sessions",
		Long: `Record a writing session as a sequenced activity log (document
snapshots, edit steps, pastes, submissions, and assistant chat), then replay
it on a compressed timeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.shutdown == nil {
				return nil
			}
			return opts.shutdown(context.WithoutCancel(cmd.Context()))
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $PRELUDE_DB_PATH or prelude.db)")

	// Add subcommands
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTimelineCommand(opts))
	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewWriteCommand(opts))

	return cmd
}

// setup loads the environment, installs the logger, and starts tracing.
// Flags take precedence over the environment.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg
	if o.Database == "" {
		o.Database = cfg.DBPath
	}

	level, _ := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.Logger)

	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Options{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
	})
	if err != nil {
		o.Logger.Warn("tracing disabled", "error", err)
	}
	o.shutdown = shutdown
	return nil
}

// Execute runs the CLI and returns the process exit code. Cancelling ctx
// stops playback and ends a write session with a final save.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
