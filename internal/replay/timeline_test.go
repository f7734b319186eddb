package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeline_ScenarioCompress(t *testing.T) {
	tl := scenarioSession(t).Timeline

	assert.Equal(t, int64(0), tl.Start)
	assert.Equal(t, int64(70_000), tl.End)
	assert.Equal(t, int64(15_000), tl.Compress(70_000), "5s active + 5s edge + 5s edge")
	assert.Equal(t, int64(15_000), tl.CompressedDuration())
}

func TestTimeline_CompressMonotonic(t *testing.T) {
	tl := scenarioSession(t).Timeline

	prev := tl.Compress(tl.Start)
	for ts := tl.Start; ts <= tl.End; ts += 250 {
		c := tl.Compress(ts)
		assert.GreaterOrEqual(t, c, prev, "compress(%d)", ts)
		prev = c
	}
}

func TestTimeline_RoundTripOutsideInterior(t *testing.T) {
	tl := scenarioSession(t).Timeline

	for ts := tl.Start; ts <= tl.End; ts += 250 {
		if ts > 10_000 && ts <= 65_000 {
			continue
		}
		assert.Equal(t, ts, tl.Decompress(tl.Compress(ts)), "t=%d", ts)
	}
}

func TestTimeline_InteriorCollapsesToNearEdge(t *testing.T) {
	tl := scenarioSession(t).Timeline

	for _, ts := range []int64{10_001, 30_000, 65_000} {
		assert.Equal(t, int64(10_000), tl.Compress(ts))
		assert.Equal(t, int64(10_000), tl.Decompress(tl.Compress(ts)))
	}
}

func TestTimeline_Scrub(t *testing.T) {
	tl := scenarioSession(t).Timeline

	tests := []struct {
		p    float64
		want int64
	}{
		{0, 0},
		{0.5, 7_500},
		{0.7, 65_500},
		{1, 70_000},
		{-1, 0},
		{2, 70_000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tl.Scrub(tt.p), "p=%v", tt.p)
	}
}

func TestTimeline_Progress(t *testing.T) {
	tl := scenarioSession(t).Timeline

	assert.InDelta(t, 0.0, tl.Progress(0), 1e-9)
	assert.InDelta(t, 1.0/3, tl.Progress(5_000), 1e-9)
	assert.InDelta(t, 2.0/3, tl.Progress(40_000), 1e-9)
	assert.InDelta(t, 1.0, tl.Progress(70_000), 1e-9)
}

func TestTimeline_NoActivity(t *testing.T) {
	tl := NewTimeline(nil, nil, DefaultConfig())

	assert.Equal(t, int64(0), tl.CompressedDuration())
	assert.Equal(t, 0.0, tl.Progress(123))
	assert.Equal(t, int64(0), tl.Scrub(0.5))
}

func TestTimeline_IdleAt(t *testing.T) {
	tl := scenarioSession(t).Timeline

	_, ok := tl.IdleAt(10_000)
	assert.False(t, ok)
	p, ok := tl.IdleAt(30_000)
	assert.True(t, ok)
	assert.Equal(t, int64(5_000), p.Start)
}
