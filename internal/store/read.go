package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/prelude/internal/ir"
)

// AllEvents returns every editor event of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) AllEvents(ctx context.Context, sessionID string) ([]ir.EditorEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, event_type, event_data, timestamp
		FROM editor_events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

// EventsByType returns a session's events of one type ordered by seq.
func (s *Store) EventsByType(ctx context.Context, sessionID string, t ir.EventType) ([]ir.EditorEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, event_type, event_data, timestamp
		FROM editor_events
		WHERE session_id = ? AND event_type = ?
		ORDER BY seq ASC
	`, sessionID, string(t))
	if err != nil {
		return nil, fmt.Errorf("query %s events: %w", t, err)
	}
	return collectEvents(rows)
}

// Submissions returns a session's submission events ordered by seq.
func (s *Store) Submissions(ctx context.Context, sessionID string) ([]ir.EditorEvent, error) {
	return s.EventsByType(ctx, sessionID, ir.EventSubmission)
}

// LatestSnapshot returns the most recent snapshot of a session, or nil if
// none exists. Ordering is timestamp DESC then seq DESC so equal timestamps
// resolve to the later write.
func (s *Store) LatestSnapshot(ctx context.Context, sessionID string) (*ir.EditorEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, seq, event_type, event_data, timestamp
		FROM editor_events
		WHERE session_id = ? AND event_type = ?
		ORDER BY timestamp DESC, seq DESC
		LIMIT 1
	`, sessionID, string(ir.EventSnapshot))

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &ev, nil
}

// MaxEventSeq returns the highest stored editor-event seq for a session,
// or 0 if the session has no events.
func (s *Store) MaxEventSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM editor_events WHERE session_id = ?`, sessionID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max event seq: %w", err)
	}
	return seq.Int64, nil
}

// MaxChatSeq returns the highest chat-message seq across a session's
// conversations, or 0 if there are none.
func (s *Store) MaxChatSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `
		SELECT MAX(m.seq)
		FROM chat_messages m
		JOIN conversations c ON m.conversation_id = c.id
		WHERE c.session_id = ?
	`, sessionID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max chat seq: %w", err)
	}
	return seq.Int64, nil
}

// AllChatMessages returns every chat message of every conversation in a
// session, ordered by (timestamp, seq, id).
//
// Returns an empty slice (not nil) if there are no messages.
func (s *Store) AllChatMessages(ctx context.Context, sessionID string) ([]ir.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.role, m.content, m.metadata, m.timestamp, m.seq
		FROM chat_messages m
		JOIN conversations c ON m.conversation_id = c.id
		WHERE c.session_id = ?
		ORDER BY m.timestamp ASC, m.seq ASC, m.id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []ir.ChatMessage{}
	for rows.Next() {
		var (
			msg  ir.ChatMessage
			role string
			meta string
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &meta, &msg.Timestamp, &msg.Seq); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.Role = ir.Role(role)
		if msg.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, fmt.Errorf("chat message %s: %w", msg.ID, err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return msgs, nil
}

// Conversations returns a session's conversations ordered by creation time.
func (s *Store) Conversations(ctx context.Context, sessionID string) ([]ir.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, title, created_at
		FROM conversations
		WHERE session_id = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	convs := []ir.Conversation{}
	for rows.Next() {
		var c ir.Conversation
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return convs, nil
}

// ListSessions returns a summary of every stored session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]ir.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id,
			s.created_at,
			(SELECT COUNT(*) FROM editor_events e WHERE e.session_id = s.id),
			(SELECT COUNT(*) FROM chat_messages m
				JOIN conversations c ON m.conversation_id = c.id
				WHERE c.session_id = s.id),
			(SELECT MIN(timestamp) FROM editor_events e WHERE e.session_id = s.id),
			(SELECT MAX(timestamp) FROM editor_events e WHERE e.session_id = s.id)
		FROM sessions s
		ORDER BY s.created_at DESC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		var (
			sess        ir.Session
			first, last sql.NullInt64
		)
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &sess.EventCount, &sess.ChatCount, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.FirstAt = first.Int64
		sess.LastAt = last.Int64
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// HasSession reports whether a session row exists.
func (s *Store) HasSession(ctx context.Context, sessionID string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("has session: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (ir.EditorEvent, error) {
	var (
		ev   ir.EditorEvent
		typ  string
		data string
	)
	if err := row.Scan(&ev.SessionID, &ev.Seq, &typ, &data, &ev.Timestamp); err != nil {
		return ir.EditorEvent{}, err
	}
	ev.Type = ir.EventType(typ)
	ev.Data = []byte(data)
	return ev, nil
}

func collectEvents(rows *sql.Rows) ([]ir.EditorEvent, error) {
	defer rows.Close()

	events := []ir.EditorEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
