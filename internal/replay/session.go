package replay

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/prelude/internal/ir"
)

// Source is the read side of the event store.
type Source interface {
	AllEvents(ctx context.Context, sessionID string) ([]ir.EditorEvent, error)
	AllChatMessages(ctx context.Context, sessionID string) ([]ir.ChatMessage, error)
	Conversations(ctx context.Context, sessionID string) ([]ir.Conversation, error)
}

// Session is a recorded session prepared for replay. It is read-only after
// construction and safe to share between players.
type Session struct {
	ID            string
	Events        []ir.EditorEvent // sorted by (timestamp, seq)
	Messages      []ir.ChatMessage // sorted by (timestamp, seq)
	Conversations []ir.Conversation
	Timeline      *Timeline
	Typing        []TypingSession
	Index         []NavEvent

	cfg    Config
	logger *slog.Logger
}

// Load reads a session's log from src and prepares it for replay.
func Load(ctx context.Context, src Source, sessionID string, cfg Config, logger *slog.Logger) (*Session, error) {
	events, err := src.AllEvents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", sessionID, err)
	}
	msgs, err := src.AllChatMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", sessionID, err)
	}
	convs, err := src.Conversations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", sessionID, err)
	}
	return NewSession(sessionID, events, msgs, convs, cfg, logger), nil
}

// NewSession sorts the inputs (copies; the caller's slices are untouched)
// and derives the timeline and navigation index.
func NewSession(id string, events []ir.EditorEvent, msgs []ir.ChatMessage, convs []ir.Conversation, cfg Config, logger *slog.Logger) *Session {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	events = slices.Clone(events)
	ir.SortEvents(events)
	msgs = slices.Clone(msgs)
	ir.SortMessages(msgs)

	tl := NewTimeline(events, msgs, cfg)
	typing := TypingSessions(activityTimes(events, msgs), cfg.IdleThreshold)

	return &Session{
		ID:            id,
		Events:        events,
		Messages:      msgs,
		Conversations: slices.Clone(convs),
		Timeline:      tl,
		Typing:        typing,
		Index:         BuildIndex(events, msgs, typing, tl.Start),
		cfg:           cfg,
		logger:        logger,
	}
}

// Config returns the settings the session was built with.
func (s *Session) Config() Config { return s.cfg }

// Empty reports whether the session has no recorded activity.
func (s *Session) Empty() bool {
	return len(s.Events) == 0 && len(s.Messages) == 0
}

// DocumentAt reconstructs the document at time t.
func (s *Session) DocumentAt(t int64) Reconstruction {
	return DocumentAt(s.Events, t, s.logger)
}

// StepsAt returns the unapplied transaction steps between the snapshot
// used at t and t itself.
func (s *Session) StepsAt(t int64) []ir.EditorEvent {
	return StepsSince(s.Events, s.DocumentAt(t).Basis, t)
}

// Markers returns the timeline markers.
func (s *Session) Markers() []Marker {
	return Markers(s.Timeline, s.Events, s.Messages)
}

// Bar is a typing session positioned on the compressed timeline.
type Bar struct {
	TypingSession
	From float64 `json:"from"` // percent
	To   float64 `json:"to"`   // percent
}

// ActivityBars positions each typing session on the compressed timeline.
func (s *Session) ActivityBars() []Bar {
	bars := make([]Bar, 0, len(s.Typing))
	for _, ts := range s.Typing {
		bars = append(bars, Bar{
			TypingSession: ts,
			From:          s.Timeline.Progress(ts.Start) * 100,
			To:            s.Timeline.Progress(ts.End) * 100,
		})
	}
	return bars
}
