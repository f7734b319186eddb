// Package provenance decides whether pasted text originated inside Prelude.
//
// A Validator is a per-session registry of copy fingerprints. Text enters the
// registry when the student copies a selection from the editor or chat panel,
// or when a chat message is rendered. A paste is internal iff the candidate
// text equals or is contained in a live entry.
//
// Matching is by content only. The editor and the chat renderer are separate
// surfaces with no shared clipboard metadata, so text equality is the only
// join key available.
//
// Guard joins a Validator with an activity tracker behind the Clipboard
// capability interface that host UIs implement.
package provenance
