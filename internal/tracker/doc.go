// Package tracker turns live editing activity into an ordered event log.
//
// A Tracker is created once per live session. Every Track* call stamps the
// event with the next sequence number immediately, at enqueue time, then
// buffers it. Buffered events are written to the store in batches by Flush,
// which Run calls on a batch boundary or a timer, and which ForceSave calls
// when the host is about to go away.
//
// Persistence failures are logged and retried on the next flush. They are
// never returned from a Track* call: a storage outage must not stop the
// student from typing.
//
// Single writer: one Tracker per session. Track* may be called concurrently
// with a background Run loop.
package tracker
