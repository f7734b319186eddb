package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/replay"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	At           string // offset from session start, "m:ss" or milliseconds
	Conversation string
}

// ReplayResult is the navigation view of a session.
type ReplayResult struct {
	SessionID    string              `json:"session_id"`
	DurationMs   int64               `json:"duration_ms"`
	CompressedMs int64               `json:"compressed_ms"`
	IdlePeriods  []replay.IdlePeriod `json:"idle_periods"`
	Index        []replay.NavEvent   `json:"index"`
	Frame        *ReplayFrame        `json:"frame,omitempty"`
}

// ReplayFrame is what the replay shows at one point in time.
type ReplayFrame struct {
	OffsetMs     int64            `json:"offset_ms"`
	Timestamp    int64            `json:"timestamp"`
	Document     ir.Document      `json:"document"`
	DocumentHash string           `json:"document_hash"`
	Banner       *replay.Banner   `json:"banner,omitempty"`
	Messages     []ir.ChatMessage `json:"messages"`
	HighlightID  string           `json:"highlight_id,omitempty"`
	PendingSteps int              `json:"pending_steps"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Show a session's navigation index, or its state at a point in time",
		Long: `Show the jump-to-event index of a recorded session: typing sessions,
chat messages, pastes, and submissions in time order.

With --at, also reconstruct the document, the current banner, and the chat
panel as they were at that offset from the session start.

Examples:
  prelude replay 0192f0c4-... --db ./prelude.db
  prelude replay 0192f0c4-... --at 1:05
  prelude replay 0192f0c4-... --at 65000 --conversation all --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "offset from session start (m:ss or milliseconds)")
	cmd.Flags().StringVar(&opts.Conversation, "conversation", ir.AllConversations, "conversation to show in the chat panel")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command, sessionID string) error {
	ctx := cmd.Context()

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := opts.loadSession(ctx, st, sessionID)
	if err != nil {
		return err
	}

	result := ReplayResult{
		SessionID:    sess.ID,
		DurationMs:   sess.Timeline.Duration(),
		CompressedMs: sess.Timeline.CompressedDuration(),
		IdlePeriods:  append([]replay.IdlePeriod{}, sess.Timeline.Idle...),
		Index:        sess.Index,
	}

	if opts.At != "" {
		offset, err := parseOffset(opts.At)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --at", err)
		}
		frame := buildFrame(sess, sess.Timeline.Clamp(sess.Timeline.Start+offset), opts.Conversation)
		result.Frame = &frame
	}

	if opts.Format != "text" {
		return opts.formatter(cmd).Success(result)
	}
	writeReplayText(cmd.OutOrStdout(), result)
	return nil
}

func buildFrame(sess *replay.Session, t int64, conversationID string) ReplayFrame {
	rec := sess.DocumentAt(t)
	view := sess.VisibleMessages(t, conversationID)
	frame := ReplayFrame{
		OffsetMs:     t - sess.Timeline.Start,
		Timestamp:    t,
		Document:     rec.Document,
		DocumentHash: ir.MustDocumentHash(rec.Document),
		Messages:     view.Messages,
		HighlightID:  view.HighlightID,
		PendingSteps: len(replay.StepsSince(sess.Events, rec.Basis, t)),
	}
	if b, ok := sess.BannerAt(t); ok {
		frame.Banner = &b
	}
	return frame
}

func writeReplayText(w io.Writer, r ReplayResult) {
	fmt.Fprintln(w, headerStyle.Render("Session "+r.SessionID))
	fmt.Fprintf(w, "Duration %s (compressed %s), %d idle period(s)\n\n",
		formatDuration(r.DurationMs), formatDuration(r.CompressedMs), len(r.IdlePeriods))

	if len(r.Index) == 0 {
		fmt.Fprintln(w, "No events recorded.")
	}
	for _, ev := range r.Index {
		fmt.Fprintf(w, "  %6s  %s  %s\n", ev.Time,
			kindStyle(string(ev.Kind)).Render(fmt.Sprintf("%-18s", ev.Label)),
			dimStyle.Render(ev.Description))
	}

	if r.Frame == nil {
		return
	}
	f := r.Frame
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render("At "+formatDuration(f.OffsetMs)))
	if f.Banner != nil {
		fmt.Fprintln(w, bannerStyle.Render(f.Banner.Label))
	}
	fmt.Fprintln(w, docStyle.Render(f.Document.PlainText()))
	if f.PendingSteps > 0 {
		fmt.Fprintf(w, "%d edit step(s) since the last snapshot\n", f.PendingSteps)
	}
	fmt.Fprintf(w, "Chat: %d message(s)\n", len(f.Messages))
	for _, m := range f.Messages {
		marker := " "
		if m.ID == f.HighlightID {
			marker = ">"
		}
		fmt.Fprintf(w, " %s %-9s %s\n", marker, m.Role, replay.Preview(m.Content, 60))
	}
}

// parseOffset accepts "m:ss" or a plain millisecond count.
func parseOffset(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if m, sec, ok := strings.Cut(s, ":"); ok {
		mins, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("minutes in %q: %w", s, err)
		}
		secs, err := strconv.ParseInt(sec, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("seconds in %q: %w", s, err)
		}
		if mins < 0 || secs < 0 || secs >= 60 {
			return 0, fmt.Errorf("offset %q out of range", s)
		}
		return (mins*60 + secs) * 1000, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("offset %q: %w", s, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("offset %q is negative", s)
	}
	return ms, nil
}
