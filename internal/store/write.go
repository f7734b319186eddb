package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/roach88/prelude/internal/ir"
)

// AppendEvent inserts a single editor event.
// Uses ON CONFLICT(session_id, seq) DO NOTHING for idempotency - a retried
// write of the same seq is silently ignored.
func (s *Store) AppendEvent(ctx context.Context, ev ir.EditorEvent) error {
	return s.AppendEvents(ctx, []ir.EditorEvent{ev})
}

// AppendEvents inserts a batch of editor events in one transaction.
// The owning session row is created on first use.
//
// Either the whole batch commits or none of it does; already-stored seqs
// are skipped, so callers may resend a batch after any failure.
func (s *Store) AppendEvents(ctx context.Context, events []ir.EditorEvent) (err error) {
	if len(events) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "store.AppendEvents")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("prelude.session_id", events[0].SessionID),
		attribute.Int("prelude.batch_size", len(events)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seen := make(map[string]bool)
	for _, ev := range events {
		if !ir.ValidEventTypes[ev.Type] {
			return fmt.Errorf("append events: seq %d: unknown event type %q", ev.Seq, ev.Type)
		}
		if !seen[ev.SessionID] {
			if err := ensureSession(ctx, tx, ev.SessionID, ev.Timestamp); err != nil {
				return fmt.Errorf("append events: %w", err)
			}
			seen[ev.SessionID] = true
		}

		data := string(ev.Data)
		if data == "" {
			data = "{}"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO editor_events
			(session_id, seq, event_type, event_data, timestamp)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_id, seq) DO NOTHING
		`,
			ev.SessionID,
			ev.Seq,
			string(ev.Type),
			data,
			ev.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append events: seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append events: commit: %w", err)
	}
	return nil
}

// EnsureSession creates a session row if one does not exist yet.
func (s *Store) EnsureSession(ctx context.Context, sessionID string, createdAt int64) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sessionID, createdAt); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

func ensureSession(ctx context.Context, tx *sql.Tx, sessionID string, createdAt int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, sessionID, createdAt); err != nil {
		return fmt.Errorf("ensure session %s: %w", sessionID, err)
	}
	return nil
}

// WriteConversation inserts a conversation, creating its session if needed.
// Duplicate IDs are silently ignored.
func (s *Store) WriteConversation(ctx context.Context, conv ir.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write conversation: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := ensureSession(ctx, tx, conv.SessionID, conv.CreatedAt); err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, session_id, title, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, conv.ID, conv.SessionID, conv.Title, conv.CreatedAt); err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write conversation: commit: %w", err)
	}
	return nil
}

// RenameConversation updates a conversation title.
func (s *Store) RenameConversation(ctx context.Context, conversationID, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET title = ? WHERE id = ?`, title, conversationID)
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rename conversation %s: %w", conversationID, sql.ErrNoRows)
	}
	return nil
}

// WriteChatMessage inserts a chat message. Duplicate IDs are silently ignored.
//
// Note: The conversation referenced by ConversationID must exist (foreign key constraint).
func (s *Store) WriteChatMessage(ctx context.Context, msg ir.ChatMessage) error {
	metaJSON, err := marshalMetadata(msg.Metadata)
	if err != nil {
		return fmt.Errorf("write chat message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages
		(id, conversation_id, role, content, metadata, timestamp, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		msg.ID,
		msg.ConversationID,
		string(msg.Role),
		msg.Content,
		metaJSON,
		msg.Timestamp,
		msg.Seq,
	); err != nil {
		return fmt.Errorf("write chat message: %w", err)
	}
	return nil
}
