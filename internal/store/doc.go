// Package store provides SQLite-backed durable storage for Prelude activity logs.
//
// The store implements an append-only log with:
//   - Sessions: one row per writing session, created on first append
//   - Editor events: snapshots, transaction steps, pastes, submissions
//   - Conversations: chat threads owned by a session
//   - Chat messages: user and assistant turns, sequenced like editor events
//
// # Ordering
//
// Editor events are keyed by (session_id, seq). Seq is assigned by the
// writer when an event is enqueued, so the log order survives batching and
// retried flushes. Reads return events ORDER BY seq ASC; consumers that need
// time order sort by (timestamp, seq).
//
// # Idempotency
//
// Appends use ON CONFLICT(session_id, seq) DO NOTHING. A batch that is
// retried after a partial failure never duplicates events.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
