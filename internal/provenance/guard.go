package provenance

import "log/slog"

// Verdict is a paste handler's decision.
type Verdict int

const (
	// Allow lets the host perform the default paste.
	Allow Verdict = iota + 1
	// Block tells the host to cancel the default paste action.
	Block
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Clipboard is the capability a host UI calls from its copy and paste
// handlers.
type Clipboard interface {
	OnCopy(selectionText string)
	OnPaste(candidateText string) Verdict
}

// PasteTracker records paste attempts in the activity log.
type PasteTracker interface {
	TrackPaste(text string, internal bool)
}

// Guard implements Clipboard by classifying pastes with a Validator and
// recording every attempt with a PasteTracker. External pastes are blocked.
type Guard struct {
	validator *Validator
	tracker   PasteTracker
	logger    *slog.Logger
}

var _ Clipboard = (*Guard)(nil)

// NewGuard creates a guard. tracker may be nil, in which case pastes are
// classified but not recorded.
func NewGuard(v *Validator, tracker PasteTracker, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{validator: v, tracker: tracker, logger: logger}
}

// OnCopy registers an in-app selection.
func (g *Guard) OnCopy(selectionText string) {
	if selectionText == "" {
		return
	}
	g.validator.MarkInternalCopy(selectionText)
}

// OnPaste classifies and records a paste. The copy buffer is cleared after
// an internal paste so a stale copy cannot authorize unrelated text.
func (g *Guard) OnPaste(candidateText string) Verdict {
	if candidateText == "" {
		return Allow
	}

	internal := g.validator.ValidatePaste(candidateText)
	if g.tracker != nil {
		g.tracker.TrackPaste(candidateText, internal)
	}

	if !internal {
		g.logger.Info("external paste blocked", "chars", len([]rune(candidateText)))
		return Block
	}
	g.validator.ClearCopyBuffer()
	return Allow
}
