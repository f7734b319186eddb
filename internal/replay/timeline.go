package replay

import (
	"math"

	"github.com/roach88/prelude/internal/ir"
)

// Timeline maps real time to compressed display time for one session.
type Timeline struct {
	Start int64        `json:"start"`
	End   int64        `json:"end"`
	Idle  []IdlePeriod `json:"idlePeriods"`
}

// NewTimeline derives the time axis from a session's activity.
func NewTimeline(events []ir.EditorEvent, msgs []ir.ChatMessage, cfg Config) *Timeline {
	cfg = cfg.withDefaults()
	ts := activityTimes(events, msgs)
	tl := &Timeline{Idle: DetectIdlePeriods(ts, cfg.IdleThreshold, cfg.IdleEdge)}
	if len(ts) > 0 {
		tl.Start = ts[0]
		tl.End = ts[0]
		for _, t := range ts[1:] {
			tl.Start = min(tl.Start, t)
			tl.End = max(tl.End, t)
		}
	}
	return tl
}

// Duration is the real length of the session.
func (tl *Timeline) Duration() int64 { return tl.End - tl.Start }

// CompressedDuration is the length with every idle interior removed.
func (tl *Timeline) CompressedDuration() int64 {
	return tl.Compress(tl.End) - tl.Start
}

// Compress maps real time t to compressed time. For each idle period it
// removes the compressible span behind t; a t inside an interior collapses
// onto the interior's start. Compress is monotonically non-decreasing.
func (tl *Timeline) Compress(t int64) int64 {
	c := t
	for _, p := range tl.Idle {
		switch {
		case t >= p.InteriorEnd():
			c -= p.CompressibleMs
		case t > p.InteriorStart():
			c -= t - p.InteriorStart()
		}
	}
	return c
}

// Decompress maps compressed time back to real time by re-adding each
// period's compressible span once the cursor has passed its first edge.
//
// Decompress(Compress(t)) == t for every t outside an idle interior
// (InteriorStart, InteriorEnd]; interior points come back as InteriorStart.
func (tl *Timeline) Decompress(c int64) int64 {
	rt := c
	for _, p := range tl.Idle {
		if rt <= p.InteriorStart() {
			break
		}
		rt += p.CompressibleMs
	}
	return rt
}

// Scrub maps a fractional position p in [0,1] of the compressed duration to
// a real timestamp, clamped to [Start, End].
func (tl *Timeline) Scrub(p float64) int64 {
	if math.IsNaN(p) {
		p = 0
	}
	p = min(max(p, 0), 1)
	c := tl.Start + int64(math.Round(p*float64(tl.CompressedDuration())))
	return tl.Clamp(tl.Decompress(c))
}

// Progress returns t's position along the compressed duration, in [0,1].
func (tl *Timeline) Progress(t int64) float64 {
	d := tl.CompressedDuration()
	if d <= 0 {
		return 0
	}
	p := float64(tl.Compress(tl.Clamp(t))-tl.Start) / float64(d)
	return min(max(p, 0), 1)
}

// Clamp limits t to [Start, End].
func (tl *Timeline) Clamp(t int64) int64 {
	return min(max(t, tl.Start), tl.End)
}

// IdleAt returns the idle period whose compressible interior contains t.
func (tl *Timeline) IdleAt(t int64) (IdlePeriod, bool) {
	for _, p := range tl.Idle {
		if t > p.InteriorStart() && t < p.InteriorEnd() {
			return p, true
		}
	}
	return IdlePeriod{}, false
}

func activityTimes(events []ir.EditorEvent, msgs []ir.ChatMessage) []int64 {
	ts := make([]int64, 0, len(events)+len(msgs))
	for _, e := range events {
		ts = append(ts, e.Timestamp)
	}
	for _, m := range msgs {
		ts = append(ts, m.Timestamp)
	}
	return ts
}
