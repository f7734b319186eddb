// Package chat records AI-assistant conversations as sequenced log entries.
//
// The language model itself is an opaque collaborator behind Completer.
// Session stores every user and assistant message with a per-session
// sequence number, exactly like editor events, and registers the text with
// the provenance validator so the student may paste it into the editor.
package chat
