package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/roach88/prelude/internal/ir"
	"github.com/roach88/prelude/internal/tracker"
)

// DefaultTitle names a conversation until its first message renames it.
const DefaultTitle = "New Chat"

// autoTitleRunes bounds a title derived from the first user message.
const autoTitleRunes = 50

// ErrUnknownConversation is returned for a conversation this session does
// not own.
var ErrUnknownConversation = errors.New("unknown conversation")

// Recorder is the write side of the store used by chat.
type Recorder interface {
	WriteConversation(ctx context.Context, conv ir.Conversation) error
	RenameConversation(ctx context.Context, conversationID, title string) error
	WriteChatMessage(ctx context.Context, msg ir.ChatMessage) error
}

// Source is the read side used to resume a session's chat.
type Source interface {
	Conversations(ctx context.Context, sessionID string) ([]ir.Conversation, error)
	AllChatMessages(ctx context.Context, sessionID string) ([]ir.ChatMessage, error)
	MaxChatSeq(ctx context.Context, sessionID string) (int64, error)
}

// Registrar receives chat text that is allowed to be pasted.
type Registrar interface {
	RegisterChatMessage(text string)
}

// Session is one writing session's chat panel.
type Session struct {
	sessionID    string
	recorder     Recorder
	completer    Completer
	registrar    Registrar
	ids          IDGenerator
	clock        *tracker.Clock
	now          func() time.Time
	logger       *slog.Logger
	systemPrompt string

	mu            sync.Mutex
	conversations []ir.Conversation
	history       map[string][]ir.ChatMessage
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIDGenerator sets the conversation and message ID source.
func WithIDGenerator(g IDGenerator) SessionOption {
	return func(s *Session) { s.ids = g }
}

// WithClock sets the chat sequence clock.
func WithClock(c *tracker.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithNow injects the wall clock used for timestamps.
func WithNow(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session's logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(p string) SessionOption {
	return func(s *Session) {
		if p != "" {
			s.systemPrompt = p
		}
	}
}

// WithRegistrar sets where chat text is registered for paste provenance.
func WithRegistrar(r Registrar) SessionOption {
	return func(s *Session) { s.registrar = r }
}

// NewSession creates an empty chat session.
func NewSession(sessionID string, recorder Recorder, completer Completer, opts ...SessionOption) *Session {
	s := &Session{
		sessionID:    sessionID,
		recorder:     recorder,
		completer:    completer,
		ids:          UUIDv7Generator{},
		clock:        tracker.NewClock(),
		now:          time.Now,
		logger:       slog.Default(),
		systemPrompt: DefaultSystemPrompt,
		history:      make(map[string][]ir.ChatMessage),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resume restores a session's conversations and messages from the store.
// Restored messages are registered for paste provenance again.
func Resume(ctx context.Context, src Source, sessionID string, recorder Recorder, completer Completer, opts ...SessionOption) (*Session, error) {
	last, err := src.MaxChatSeq(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume chat %s: %w", sessionID, err)
	}
	convs, err := src.Conversations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume chat %s: %w", sessionID, err)
	}
	msgs, err := src.AllChatMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume chat %s: %w", sessionID, err)
	}

	s := NewSession(sessionID, recorder, completer, append([]SessionOption{WithClock(tracker.NewClockAt(last))}, opts...)...)
	s.conversations = convs
	for _, m := range msgs {
		s.history[m.ConversationID] = append(s.history[m.ConversationID], m)
		s.register(m.Content)
	}
	return s, nil
}

// NewConversation creates and stores a conversation. An empty title uses
// DefaultTitle.
func (s *Session) NewConversation(ctx context.Context, title string) (ir.Conversation, error) {
	if title == "" {
		title = DefaultTitle
	}
	conv := ir.Conversation{
		ID:        s.ids.Generate(),
		SessionID: s.sessionID,
		Title:     title,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.recorder.WriteConversation(ctx, conv); err != nil {
		return ir.Conversation{}, fmt.Errorf("new conversation: %w", err)
	}

	s.mu.Lock()
	s.conversations = append(s.conversations, conv)
	s.mu.Unlock()
	return conv, nil
}

// Rename changes a conversation's title.
func (s *Session) Rename(ctx context.Context, conversationID, title string) error {
	s.mu.Lock()
	idx := s.indexLocked(conversationID)
	s.mu.Unlock()
	if idx < 0 {
		return fmt.Errorf("rename %s: %w", conversationID, ErrUnknownConversation)
	}

	if err := s.recorder.RenameConversation(ctx, conversationID, title); err != nil {
		return fmt.Errorf("rename %s: %w", conversationID, err)
	}
	s.mu.Lock()
	s.conversations[idx].Title = title
	s.mu.Unlock()
	return nil
}

// Conversations returns the session's conversations in creation order.
func (s *Session) Conversations() []ir.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ir.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// History returns a conversation's messages, or every message of the
// session for ir.AllConversations.
func (s *Session) History(conversationID string) []ir.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == ir.AllConversations {
		var all []ir.ChatMessage
		for _, msgs := range s.history {
			all = append(all, msgs...)
		}
		ir.SortMessages(all)
		return all
	}
	out := make([]ir.ChatMessage, len(s.history[conversationID]))
	copy(out, s.history[conversationID])
	return out
}

// SendOptions are per-message toggles from the chat input.
type SendOptions struct {
	WebSearch bool
	OnChunk   func(string) // receives the streamed reply, may be nil
}

// Send records the user's message, asks the completer for a reply, and
// records the reply. Both messages are registered for paste provenance.
//
// The first message of a conversation still carrying DefaultTitle renames
// it after its first 50 characters. Store write failures are logged and do
// not interrupt the chat; a completer failure is returned after the user
// message has been recorded.
func (s *Session) Send(ctx context.Context, conversationID, text string, opts SendOptions) (ir.ChatMessage, error) {
	if ir.AllConversations == conversationID {
		return ir.ChatMessage{}, fmt.Errorf("send: the %q view is read-only", ir.AllConversations)
	}

	s.mu.Lock()
	idx := s.indexLocked(conversationID)
	var autoTitle bool
	if idx >= 0 {
		autoTitle = len(s.history[conversationID]) == 0 && s.conversations[idx].Title == DefaultTitle
	}
	s.mu.Unlock()
	if idx < 0 {
		return ir.ChatMessage{}, fmt.Errorf("send to %s: %w", conversationID, ErrUnknownConversation)
	}

	userMsg := s.record(ctx, ir.ChatMessage{
		ConversationID: conversationID,
		Role:           ir.RoleUser,
		Content:        text,
		Metadata:       map[string]any{"webSearchEnabled": opts.WebSearch},
	})

	if autoTitle && strings.TrimSpace(text) != "" {
		if err := s.Rename(ctx, conversationID, titleFrom(text)); err != nil {
			s.logger.Warn("auto-title failed", "conversation", conversationID, "error", err)
		}
	}

	var reply strings.Builder
	res, err := s.completer.Complete(ctx, Request{
		Messages:     s.History(conversationID),
		SystemPrompt: s.systemPrompt,
		WebSearch:    opts.WebSearch,
	}, func(chunk string) {
		reply.WriteString(chunk)
		if opts.OnChunk != nil {
			opts.OnChunk(chunk)
		}
	})
	if err != nil {
		return userMsg, fmt.Errorf("chat completion: %w", err)
	}

	meta := map[string]any{
		"webSearchEnabled": opts.WebSearch,
		"webSearchUsed":    res.WebSearchUsed,
	}
	if res.Model != "" {
		meta["model"] = res.Model
	}
	if res.Tokens > 0 {
		meta["tokens"] = res.Tokens
	}
	return s.record(ctx, ir.ChatMessage{
		ConversationID: conversationID,
		Role:           ir.RoleAssistant,
		Content:        reply.String(),
		Metadata:       meta,
	}), nil
}

// record stamps, stores, remembers, and registers a message.
func (s *Session) record(ctx context.Context, msg ir.ChatMessage) ir.ChatMessage {
	msg.ID = s.ids.Generate()
	msg.Timestamp = s.now().UnixMilli()
	msg.Seq = s.clock.Next()

	if err := s.recorder.WriteChatMessage(ctx, msg); err != nil {
		s.logger.Warn("chat message write failed",
			"session", s.sessionID,
			"conversation", msg.ConversationID,
			"seq", msg.Seq,
			"error", err,
		)
	}

	s.mu.Lock()
	s.history[msg.ConversationID] = append(s.history[msg.ConversationID], msg)
	s.mu.Unlock()

	s.register(msg.Content)
	return msg
}

func (s *Session) register(text string) {
	if s.registrar != nil {
		s.registrar.RegisterChatMessage(text)
	}
}

func (s *Session) indexLocked(conversationID string) int {
	for i, c := range s.conversations {
		if c.ID == conversationID {
			return i
		}
	}
	return -1
}

func titleFrom(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= autoTitleRunes {
		return text
	}
	return string([]rune(text)[:autoTitleRunes]) + "..."
}
