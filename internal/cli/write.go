package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/roach88/prelude/internal/chat"
	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/provenance"
	"github.com/roach88/prelude/internal/store"
	"github.com/roach88/prelude/internal/tracker"
)

// WriteOptions holds flags for the write command.
type WriteOptions struct {
	*RootOptions
	SessionID string
	Replies   []string
}

// WriteResult summarizes an interactive session on exit.
type WriteResult struct {
	SessionID   string `json:"session_id"`
	Resumed     bool   `json:"resumed"`
	Paragraphs  int    `json:"paragraphs"`
	Pastes      int    `json:"pastes"`
	Blocked     int    `json:"blocked"`
	Submissions int    `json:"submissions"`
	Dirty       bool   `json:"dirty"`
}

const writeHelp = `Commands:
  <text>           append a paragraph
  :copy <text>     copy text from the document
  :paste [text]    paste text, or the system clipboard when omitted
  :chat <text>     ask the assistant
  :submit          submit the current document
  :snapshot        record a snapshot now
  :status          show save and submission state
  :show            print the document
  :quit            save and exit`

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write in a line-oriented editor while the session is recorded",
		Long: `Start (or resume) a writing session on stdin. Each plain line becomes a
paragraph; lines starting with ':' are commands. Every edit, paste, chat
message, and submission is recorded to the database.

Pastes are only allowed for text copied inside the session or taken from
the assistant's messages.

` + writeHelp + `

Examples:
  prelude write --db ./prelude.db
  prelude write --session essay-7 --reply "Try opening with a question."`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session ID to start or resume (default: a new UUIDv7)")
	cmd.Flags().StringArrayVar(&opts.Replies, "reply", nil, "canned assistant reply (repeatable, cycled)")

	return cmd
}

// writer is the state of one interactive session.
type writer struct {
	out       io.Writer
	tracker   *tracker.Tracker
	guard     *provenance.Guard
	clipboard *provenance.SystemClipboard
	chat      *chat.Session
	convID    string
	doc       ir.Document
	result    WriteResult
}

func runWrite(opts *WriteOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := opts.logger()

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = chat.UUIDv7Generator{}.Generate()
	}

	// Structured output is reserved for the final result.
	out := cmd.OutOrStdout()
	if opts.Format != "text" {
		out = cmd.ErrOrStderr()
	}

	w, err := newWriter(ctx, st, sessionID, opts, out)
	if err != nil {
		return err
	}
	w.result.SessionID = sessionID

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- w.tracker.Run(runCtx) }()

	fmt.Fprintf(w.out, "Session %s (type :help for commands)\n", idStyle.Render(sessionID))

	lines, stop := readLines(cmd.InOrStdin(), logger)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok || w.handle(ctx, line) {
				break loop
			}
		}
	}
	close(stop)

	w.tracker.TrackSnapshot(w.doc)
	cancel()
	<-done

	w.result.Dirty = w.tracker.DirtySinceSubmission()
	logger.Debug("write session ended", "session", sessionID, "pending", w.tracker.Pending())

	if opts.Format != "text" {
		return opts.formatter(cmd).Success(w.result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved session %s: %d paragraphs, %d pastes (%d blocked), %d submissions\n",
		idStyle.Render(sessionID), w.result.Paragraphs, w.result.Pastes, w.result.Blocked, w.result.Submissions)
	return nil
}

// readLines scans r on its own goroutine so a cancelled context can end the
// session while a read is blocked. The goroutine exits once stop is closed.
func readLines(r io.Reader, logger *slog.Logger) (<-chan string, chan<- struct{}) {
	lines := make(chan string)
	stop := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("input closed with error", "error", err)
		}
	}()
	return lines, stop
}

// newWriter wires the recorder for sessionID, resuming it if it already has
// events or chat messages.
func newWriter(ctx context.Context, st *store.Store, sessionID string, opts *WriteOptions, out io.Writer) (*writer, error) {
	logger := opts.logger()
	cfg := opts.config()

	exists, err := st.HasSession(ctx, sessionID)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to look up session", err)
	}

	trackerOpts := append(cfg.TrackerOptions(), tracker.WithLogger(logger))
	validator := provenance.NewValidator(append(cfg.ValidatorOptions(), provenance.WithLogger(logger))...)

	replies := opts.Replies
	if len(replies) == 0 {
		replies = []string{"I can't reach a model from here, but keep going: what is your main point?"}
	}
	completer := chat.NewScriptedCompleter(replies...)
	chatOpts := []chat.SessionOption{chat.WithRegistrar(validator), chat.WithLogger(logger)}

	w := &writer{out: out, clipboard: provenance.NewSystemClipboard(logger)}
	if exists {
		w.result.Resumed = true
		if w.tracker, err = tracker.Resume(ctx, st, sessionID, st, trackerOpts...); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to resume session", err)
		}
		if w.doc, err = tracker.LoadDocument(ctx, st, sessionID, logger); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load document", err)
		}
		dirty, err := changedSinceSubmission(ctx, st, sessionID, w.doc)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read submissions", err)
		}
		w.tracker.MarkDirty(dirty)
		if w.chat, err = chat.Resume(ctx, st, sessionID, st, completer, chatOpts...); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to resume chat", err)
		}
		if convs := w.chat.Conversations(); len(convs) > 0 {
			w.convID = convs[len(convs)-1].ID
		}
	} else {
		if err := st.EnsureSession(ctx, sessionID, time.Now().UnixMilli()); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create session", err)
		}
		w.tracker = tracker.New(sessionID, st, trackerOpts...)
		w.doc = ir.EmptyDocument()
		w.chat = chat.NewSession(sessionID, st, completer, chatOpts...)
	}
	w.guard = provenance.NewGuard(validator, w.tracker, logger)
	return w, nil
}

// changedSinceSubmission compares the loaded document with the latest
// submission. A session never submitted counts as changed once it has text.
func changedSinceSubmission(ctx context.Context, st *store.Store, sessionID string, doc ir.Document) (bool, error) {
	subs, err := st.Submissions(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if len(subs) == 0 {
		return !doc.Equal(ir.EmptyDocument()), nil
	}
	last, err := ir.DecodeDocument(subs[len(subs)-1].Data)
	if err != nil {
		return true, nil
	}
	return !doc.Equal(last), nil
}

// handle runs one input line and reports whether the session should end.
func (w *writer) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, ":") {
		w.insert(line)
		return false
	}

	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	switch name {
	case "quit", "q":
		return true

	case "copy":
		w.clipboard.Copy(w.guard, arg)
		fmt.Fprintln(w.out, dimStyle.Render("copied"))

	case "paste":
		w.paste(arg)

	case "chat":
		w.ask(ctx, arg)

	case "submit":
		w.tracker.TrackSubmission(w.doc)
		w.result.Submissions++
		fmt.Fprintln(w.out, bannerStyle.Render("submitted"))

	case "snapshot":
		w.tracker.TrackSnapshot(w.doc)
		fmt.Fprintln(w.out, dimStyle.Render("snapshot recorded"))

	case "status":
		fmt.Fprintf(w.out, "status=%s pending=%d dirty=%t\n",
			w.tracker.Status(), w.tracker.Pending(), w.tracker.DirtySinceSubmission())

	case "show":
		fmt.Fprintln(w.out, docStyle.Render(w.doc.PlainText()))

	default:
		fmt.Fprintln(w.out, writeHelp)
	}
	return false
}

// insert appends text as a new paragraph and records the step.
func (w *writer) insert(text string) {
	pos := endPosition(w.doc)
	w.doc = appendParagraph(w.doc, text)
	w.result.Paragraphs++

	slice, _ := ir.MarshalCanonical(map[string]any{
		"content": []any{paragraph(text)},
	})
	w.tracker.TrackTransactionStep(ir.StepPayload{StepType: "replace", From: pos, To: pos, Slice: slice})

	if w.tracker.ShouldTakeSnapshot() {
		w.tracker.TrackSnapshot(w.doc)
	}
}

func (w *writer) paste(arg string) {
	var (
		text    = arg
		verdict provenance.Verdict
	)
	if text == "" {
		text, verdict = w.clipboard.Paste(w.guard)
		if text == "" && verdict == provenance.Allow {
			fmt.Fprintln(w.out, dimStyle.Render("clipboard empty or unavailable"))
			return
		}
	} else {
		verdict = w.guard.OnPaste(text)
	}

	w.result.Pastes++
	if verdict == provenance.Block {
		w.result.Blocked++
		fmt.Fprintln(w.out, blockedStyle.Render("paste blocked: text was not copied in this session"))
		return
	}
	w.insert(text)
}

func (w *writer) ask(ctx context.Context, text string) {
	if w.convID == "" {
		conv, err := w.chat.NewConversation(ctx, chat.DefaultTitle)
		if err != nil {
			fmt.Fprintln(w.out, blockedStyle.Render("chat unavailable: "+err.Error()))
			return
		}
		w.convID = conv.ID
	}

	_, err := w.chat.Send(ctx, w.convID, text, chat.SendOptions{
		OnChunk: func(chunk string) { fmt.Fprint(w.out, chunk) },
	})
	fmt.Fprintln(w.out)
	if err != nil {
		fmt.Fprintln(w.out, blockedStyle.Render("chat failed: "+err.Error()))
	}
}

func paragraph(text string) map[string]any {
	content := []any{}
	if text != "" {
		content = append(content, map[string]any{"type": "text", "text": text, "styles": map[string]any{}})
	}
	return map[string]any{"type": "paragraph", "content": content}
}

// appendParagraph adds a paragraph, replacing the empty default document.
func appendParagraph(doc ir.Document, text string) ir.Document {
	if len(doc) == 1 && doc.PlainText() == "" {
		doc = ir.Document{}
	}
	return append(doc, ir.Block(paragraph(text)))
}

// endPosition is the document size in editor positions: each block
// contributes its text length plus an open and a close token.
func endPosition(doc ir.Document) int {
	if len(doc) == 1 && doc.PlainText() == "" {
		return 0
	}
	pos := 0
	for _, line := range strings.Split(doc.PlainText(), "\n") {
		pos += utf8.RuneCountInString(line) + 2
	}
	return pos
}
