// Package ir provides the shared data model for Prelude activity logs.
//
// This package contains type definitions, canonical serialization and payload
// schemas only. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - Seq is the per-session logical clock; timestamps are wall-clock epoch
//     milliseconds and may tie or regress, so ordering always falls back to Seq
//   - EventData is an opaque JSON payload; its shape depends on EventType
//   - All JSON tags use camelCase to match the editor's wire format
package ir
