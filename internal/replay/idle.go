package replay

import (
	"slices"
	"time"
)

// IdlePeriod is a gap between consecutive activities longer than the idle
// threshold. All times are epoch milliseconds.
type IdlePeriod struct {
	Start          int64 `json:"start"`
	End            int64 `json:"end"`
	DurationMs     int64 `json:"durationMs"`
	CompressibleMs int64 `json:"compressibleMs"` // DurationMs minus both edges, never negative
	EdgeMs         int64 `json:"edgeMs"`
}

// InteriorStart is where the compressible span begins.
func (p IdlePeriod) InteriorStart() int64 { return p.Start + p.EdgeMs }

// InteriorEnd is the far edge playback snaps to.
func (p IdlePeriod) InteriorEnd() int64 { return p.InteriorStart() + p.CompressibleMs }

// TypingSession is a run of activity with no gap above the idle threshold.
type TypingSession struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Count int   `json:"count"` // activities in the run
}

// DurationMs returns the session length.
func (s TypingSession) DurationMs() int64 { return s.End - s.Start }

// DetectIdlePeriods finds every gap strictly longer than threshold between
// adjacent timestamps. Input order does not matter.
func DetectIdlePeriods(timestamps []int64, threshold, edge time.Duration) []IdlePeriod {
	ts := sortedCopy(timestamps)
	thresholdMs := threshold.Milliseconds()
	edgeMs := edge.Milliseconds()

	periods := []IdlePeriod{}
	for i := 0; i+1 < len(ts); i++ {
		gap := ts[i+1] - ts[i]
		if gap <= thresholdMs {
			continue
		}
		periods = append(periods, IdlePeriod{
			Start:          ts[i],
			End:            ts[i+1],
			DurationMs:     gap,
			CompressibleMs: max(0, gap-2*edgeMs),
			EdgeMs:         edgeMs,
		})
	}
	return periods
}

// TypingSessions groups timestamps into runs split wherever the gap to the
// previous activity exceeds threshold, the same rule DetectIdlePeriods uses.
func TypingSessions(timestamps []int64, threshold time.Duration) []TypingSession {
	ts := sortedCopy(timestamps)
	if len(ts) == 0 {
		return []TypingSession{}
	}
	thresholdMs := threshold.Milliseconds()

	sessions := []TypingSession{}
	cur := TypingSession{Start: ts[0], End: ts[0], Count: 1}
	for _, t := range ts[1:] {
		if t-cur.End <= thresholdMs {
			cur.End = t
			cur.Count++
			continue
		}
		sessions = append(sessions, cur)
		cur = TypingSession{Start: t, End: t, Count: 1}
	}
	return append(sessions, cur)
}

func sortedCopy(ts []int64) []int64 {
	out := slices.Clone(ts)
	slices.Sort(out)
	return out
}
