package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/config"
	"github.com/roach88/prelude/internal/replay"
	"github.com/roach88/prelude/internal/store"
)

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// config returns the loaded configuration, or the defaults when the root
// command did not run.
func (o *RootOptions) config() config.Config {
	if o.Config.DBPath == "" {
		return config.Defaults()
	}
	return o.Config
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) openStore() (*store.Store, error) {
	if o.Database == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set PRELUDE_DB_PATH")
	}
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// loadSession reads a stored session for replay, failing with a command
// error if the ID is unknown.
func (o *RootOptions) loadSession(ctx context.Context, st *store.Store, sessionID string) (*replay.Session, error) {
	ok, err := st.HasSession(ctx, sessionID)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to look up session", err)
	}
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("session %s not found", sessionID))
	}
	sess, err := replay.Load(ctx, st, sessionID, o.config().Replay(), o.logger())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load session", err)
	}
	return sess, nil
}

// formatEpoch renders epoch ms as a UTC timestamp.
func formatEpoch(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

// formatDuration renders milliseconds as m:ss.
func formatDuration(ms int64) string {
	return replay.FormatTime(ms, 0)
}
