package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/replay"
)

// TimelineOptions holds flags for the timeline command.
type TimelineOptions struct {
	*RootOptions
	Width int
}

// TimelineResult is the scrubber view of a session.
type TimelineResult struct {
	SessionID    string              `json:"session_id"`
	DurationMs   int64               `json:"duration_ms"`
	CompressedMs int64               `json:"compressed_ms"`
	IdlePeriods  []replay.IdlePeriod `json:"idle_periods"`
	Activity     []replay.Bar        `json:"activity"`
	Markers      []replay.Marker     `json:"markers"`
}

// Timeline glyphs.
const (
	glyphActivity   = '='
	glyphIdle       = '~'
	glyphChat       = 'c'
	glyphPaste      = 'p'
	glyphBlocked    = 'X'
	glyphSubmission = 'S'
)

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeline <session-id>",
		Short: "Draw a session's compressed timeline with activity and markers",
		Long: `Draw the compressed timeline of a session. Long idle gaps are collapsed
so only a few seconds at each edge remain; typing activity and markers for
chat messages, pastes, and submissions are placed along the bar.

Legend:
  =  typing activity     ~  collapsed idle gap
  c  chat message        p  internal paste
  X  blocked paste       S  submission`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(opts, cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Width, "width", 60, "bar width in characters")

	return cmd
}

func runTimeline(opts *TimelineOptions, cmd *cobra.Command, sessionID string) error {
	if opts.Width < 2 {
		return NewExitError(ExitCommandError, "--width must be at least 2")
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := opts.loadSession(cmd.Context(), st, sessionID)
	if err != nil {
		return err
	}

	result := TimelineResult{
		SessionID:    sess.ID,
		DurationMs:   sess.Timeline.Duration(),
		CompressedMs: sess.Timeline.CompressedDuration(),
		IdlePeriods:  append([]replay.IdlePeriod{}, sess.Timeline.Idle...),
		Activity:     sess.ActivityBars(),
		Markers:      sess.Markers(),
	}

	if opts.Format != "text" {
		return opts.formatter(cmd).Success(result)
	}
	writeTimelineText(cmd.OutOrStdout(), sess, result, opts.Width)
	return nil
}

// renderBar lays activity, idle collapse points, and markers onto width
// cells. Later layers overwrite earlier ones.
func renderBar(sess *replay.Session, bars []replay.Bar, markers []replay.Marker, width int) string {
	cells := []rune(strings.Repeat(" ", width))
	cell := func(percent float64) int {
		i := int(math.Round(percent / 100 * float64(width-1)))
		return min(max(i, 0), width-1)
	}

	for _, b := range bars {
		for i := cell(b.From); i <= cell(b.To); i++ {
			cells[i] = glyphActivity
		}
	}
	for _, p := range sess.Timeline.Idle {
		cells[cell(sess.Timeline.Progress(p.InteriorStart())*100)] = glyphIdle
	}
	for _, m := range markers {
		cells[cell(m.Position)] = markerGlyph(m.Kind)
	}
	return string(cells)
}

func markerGlyph(kind replay.NavKind) rune {
	switch kind {
	case replay.NavChat:
		return glyphChat
	case replay.NavPasteInternal:
		return glyphPaste
	case replay.NavPasteExternal:
		return glyphBlocked
	default:
		return glyphSubmission
	}
}

func writeTimelineText(w io.Writer, sess *replay.Session, r TimelineResult, width int) {
	fmt.Fprintln(w, headerStyle.Render("Session "+r.SessionID))
	fmt.Fprintf(w, "Duration %s, compressed to %s\n\n", formatDuration(r.DurationMs), formatDuration(r.CompressedMs))

	fmt.Fprintf(w, "0:00 [%s] %s\n\n", renderBar(sess, r.Activity, r.Markers, width), formatDuration(r.CompressedMs))

	for _, p := range r.IdlePeriods {
		fmt.Fprintf(w, "  idle %s to %s (%s hidden)\n",
			replay.FormatTime(p.Start, sess.Timeline.Start),
			replay.FormatTime(p.End, sess.Timeline.Start),
			formatDuration(p.CompressibleMs))
	}
	for _, m := range r.Markers {
		line := fmt.Sprintf("  %c %6s  %5.1f%%  %s", markerGlyph(m.Kind), m.Time, m.Position, m.Label)
		if m.Content != "" {
			line += "  " + dimStyle.Render(m.Content)
		}
		fmt.Fprintln(w, kindStyle(string(m.Kind)).Render(line))
	}
}
