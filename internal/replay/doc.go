// Package replay reconstructs a recorded writing session for review.
//
// Everything here reads a finished (or live-tailing) event log and never
// mutates it. A Session bundles the sorted events, chat messages, and the
// derived Timeline; a Player walks a cursor across that timeline.
//
// # Time axis
//
// The axis spans the first to the last recorded activity, editor events and
// chat messages together. Gaps longer than the idle threshold become
// IdlePeriods. Each keeps an edge of real time visible at both ends; only
// the interior between the edges is compressed away for display and skipped
// during playback.
//
// # Reconstruction
//
// The document at time t is the latest valid snapshot at or before t, or
// the empty document. Transaction steps are not replayed forward: replay
// granularity is the snapshot cadence, and edits made between two snapshots
// appear only in the step log (see StepsSince).
package replay
