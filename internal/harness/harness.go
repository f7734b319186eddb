package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/prelude/internal/chat"
	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/provenance"
	"github.com/roach88/prelude/internal/replay"
	"github.com/roach88/prelude/internal/store"
	"github.com/roach88/prelude/internal/testutil"
	"github.com/roach88/prelude/internal/tracker"
)

// Harness wires the recording stack to one in-memory store and a fake
// clock, so a scenario produces the same log on every run.
type Harness struct {
	store     *store.Store
	clock     *testutil.WallClock
	start     int64
	tracker   *tracker.Tracker
	validator *provenance.Validator
	guard     *provenance.Guard
	chat      *chat.Session
	convs     map[string]string // scenario name -> conversation ID
	logger    *slog.Logger
}

// Options adjust RunInto.
type Options struct {
	SessionID string       // overrides the scenario's session
	Start     time.Time    // session start; zero uses testutil.Epoch
	Logger    *slog.Logger // nil discards
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return RunInto(ctx, st, scenario, Options{})
}

// RunInto executes a scenario against st.
//
// Execution flow:
//  1. Create the clock, tracker, validator, guard and chat session
//  2. Execute steps, advancing the clock to each step's offset
//  3. Flush the tracker and load the session back for replay
//  4. Evaluate assertions against the replay
func RunInto(ctx context.Context, st *store.Store, scenario *Scenario, opts Options) (*Result, error) {
	h := newHarness(st, scenario, opts)

	result := NewResult()
	result.Start = h.start

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	if err := h.tracker.ForceSave(ctx); err != nil {
		return nil, fmt.Errorf("flush recorded events: %w", err)
	}
	result.Dirty = h.tracker.DirtySinceSubmission()

	sess, err := replay.Load(ctx, st, h.tracker.SessionID(), replay.DefaultConfig(), h.logger)
	if err != nil {
		return nil, err
	}
	result.Replay = sess

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

func newHarness(st *store.Store, scenario *Scenario, opts Options) *Harness {
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = scenario.Session
	}
	if sessionID == "" {
		sessionID = testutil.SessionID
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := testutil.NewWallClock()
	if !opts.Start.IsZero() {
		clock = testutil.NewWallClockAt(opts.Start.UnixMilli())
	}

	tr := tracker.New(sessionID, st,
		tracker.WithNow(clock.Now),
		tracker.WithLogger(logger),
	)
	validator := provenance.NewValidator(
		provenance.WithNow(clock.Now),
		provenance.WithLogger(logger),
	)

	var replies []string
	for _, step := range scenario.Steps {
		if step.Action == ActionChat {
			replies = append(replies, step.Reply)
		}
	}
	completer := chat.NewScriptedCompleter(replies...)

	return &Harness{
		store:     st,
		clock:     clock,
		start:     clock.UnixMilli(),
		tracker:   tr,
		validator: validator,
		guard:     provenance.NewGuard(validator, tr, logger),
		chat: chat.NewSession(sessionID, st, completer,
			chat.WithIDGenerator(&sequentialIDs{prefix: sessionID}),
			chat.WithNow(clock.Now),
			chat.WithLogger(logger),
			chat.WithRegistrar(validator),
		),
		convs:  make(map[string]string),
		logger: logger,
	}
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	h.clock.Set(h.start + step.At)

	switch step.Action {
	case ActionSnapshot:
		h.tracker.TrackSnapshot(ir.ParagraphDocument(step.Lines))

	case ActionSubmit:
		h.tracker.TrackSubmission(ir.ParagraphDocument(step.Lines))

	case ActionType:
		h.tracker.TrackTransactionStep(insertStep(step.Pos, step.Text))

	case ActionCopy:
		h.guard.OnCopy(step.Text)

	case ActionPaste:
		verdict := h.guard.OnPaste(step.Text)
		result.Verdicts = append(result.Verdicts, verdict)
		if step.Expect != "" && step.Expect != verdict.String() {
			result.AddError(fmt.Sprintf("steps[%d]: paste %q: expected %s, got %s",
				index, step.Text, step.Expect, verdict))
		}

	case ActionChat:
		convID, err := h.conversation(ctx, step.Conversation)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		if _, err := h.chat.Send(ctx, convID, step.Text, chat.SendOptions{}); err != nil {
			return fmt.Errorf("steps[%d]: chat: %w", index, err)
		}

	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, step.Action)
	}
	return nil
}

// conversation maps a scenario-local name to a stored conversation,
// opening one on first use.
func (h *Harness) conversation(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = "main"
	}
	if id, ok := h.convs[name]; ok {
		return id, nil
	}
	conv, err := h.chat.NewConversation(ctx, "")
	if err != nil {
		return "", err
	}
	h.convs[name] = conv.ID
	return conv.ID, nil
}

// insertStep builds a replace step inserting text at pos.
func insertStep(pos int, text string) ir.StepPayload {
	slice, _ := ir.MarshalCanonical(map[string]any{
		"content": []any{map[string]any{"type": "text", "text": text}},
	})
	return ir.StepPayload{StepType: "replace", From: pos, To: pos, Slice: slice}
}

// sequentialIDs yields <prefix>-1, <prefix>-2, ... so stored rows are
// reproducible. The prefix keeps IDs unique across sessions in one store.
type sequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *sequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// at converts a scenario offset to a timestamp.
func (r *Result) at(offset int64) int64 {
	return r.Start + offset
}
