package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/replay"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Speed float64
	From  string
	Tick  time.Duration
}

// PlayEvent is one navigation event reached during playback.
type PlayEvent struct {
	OffsetMs int64           `json:"offset_ms"`
	Event    replay.NavEvent `json:"event"`
	Banner   string          `json:"banner,omitempty"`
}

// PlayResult summarizes a finished playback.
type PlayResult struct {
	SessionID string      `json:"session_id"`
	Speed     float64     `json:"speed"`
	Frames    int         `json:"frames"`
	Events    []PlayEvent `json:"events"`
	Final     string      `json:"final_text"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <session-id>",
		Short: "Play a session back in real time",
		Long: `Play a recorded session on the compressed timeline, printing each
navigation event as the playhead reaches it, then the final document.

Idle gaps are skipped: the playhead jumps from the start of a gap's hidden
interior to its end. Interrupt with Ctrl-C to stop early.

Examples:
  prelude play 0192f0c4-... --speed 10
  prelude play 0192f0c4-... --from 1:00 --speed 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd, args[0])
		},
	}

	cmd.Flags().Float64Var(&opts.Speed, "speed", 0, fmt.Sprintf("playback speed, one of %v (default from config)", replay.Speeds))
	cmd.Flags().StringVar(&opts.From, "from", "", "start offset (m:ss or milliseconds)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 100*time.Millisecond, "frame interval")

	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command, sessionID string) error {
	if opts.Tick <= 0 {
		return NewExitError(ExitCommandError, "--tick must be positive")
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	sess, err := opts.loadSession(ctx, st, sessionID)
	if err != nil {
		return err
	}

	player := replay.NewPlayer(sess)
	if opts.Speed != 0 {
		if err := player.SetSpeed(opts.Speed); err != nil {
			return WrapExitError(ExitCommandError, "invalid --speed", err)
		}
	}
	if opts.From != "" {
		offset, err := parseOffset(opts.From)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --from", err)
		}
		player.Seek(sess.Timeline.Start + offset)
	}

	text := opts.Format == "text"
	out := cmd.OutOrStdout()
	result := PlayResult{SessionID: sess.ID, Speed: player.Speed(), Events: []PlayEvent{}}

	// Events before the starting cursor are not replayed.
	next := 0
	for next < len(sess.Index) && sess.Index[next].Timestamp < player.Cursor() {
		next++
	}
	emit := func(cursor int64) {
		for ; next < len(sess.Index) && sess.Index[next].Timestamp <= cursor; next++ {
			ev := PlayEvent{OffsetMs: sess.Index[next].Timestamp - sess.Timeline.Start, Event: sess.Index[next]}
			if b, ok := sess.BannerAt(sess.Index[next].Timestamp); ok {
				ev.Banner = b.Label
			}
			result.Events = append(result.Events, ev)
			if text {
				writePlayEvent(out, ev)
			}
		}
	}

	if text {
		fmt.Fprintf(out, "%s at %gx\n", headerStyle.Render("Playing "+sess.ID), player.Speed())
	}
	emit(player.Cursor())

	ticker := time.NewTicker(opts.Tick)
	defer ticker.Stop()

	player.Play()
	err = player.Drive(ctx, ticker.C, func(f replay.Frame) {
		result.Frames++
		emit(f.Cursor)
	})
	if err != nil {
		return WrapExitError(ExitFailure, "playback interrupted", err)
	}

	result.Final = sess.DocumentAt(player.Cursor()).Document.PlainText()
	if !text {
		return opts.formatter(cmd).Success(result)
	}
	fmt.Fprintln(out, docStyle.Render(result.Final))
	return nil
}

func writePlayEvent(w io.Writer, ev PlayEvent) {
	line := fmt.Sprintf("%6s  %s", ev.Event.Time, kindStyle(string(ev.Event.Kind)).Render(ev.Event.Label))
	if ev.Banner != "" {
		line += "  " + bannerStyle.Render("["+ev.Banner+"]")
	}
	fmt.Fprintln(w, line)
}
