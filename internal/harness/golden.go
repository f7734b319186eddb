package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/prelude/internal/ir"
)

// ReplaySnapshot is what a golden file records about a replayed session.
// Times are offsets from the scenario start so the file is clock-independent.
type ReplaySnapshot struct {
	Scenario   string       `json:"scenario"`
	DurationMs int64        `json:"duration_ms"`
	Compressed int64        `json:"compressed_ms"`
	Events     []eventLine  `json:"events"`
	Index      []navLine    `json:"index"`
	Markers    []markerLine `json:"markers"`
	Verdicts   []string     `json:"verdicts"`
}

type eventLine struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`
	At   int64  `json:"at"`
}

type navLine struct {
	At          int64  `json:"at"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type markerLine struct {
	Kind     string  `json:"kind"`
	Label    string  `json:"label"`
	Position float64 `json:"position"` // percent, two decimals
	Content  string  `json:"content,omitempty"`
}

// Snapshot summarizes a result for golden comparison.
func Snapshot(name string, r *Result) ReplaySnapshot {
	s := ReplaySnapshot{
		Scenario: name,
		Events:   []eventLine{},
		Index:    []navLine{},
		Markers:  []markerLine{},
		Verdicts: []string{},
	}
	sess := r.Replay
	if sess == nil {
		return s
	}

	s.DurationMs = sess.Timeline.Duration()
	s.Compressed = sess.Timeline.CompressedDuration()
	for _, ev := range sess.Events {
		s.Events = append(s.Events, eventLine{Seq: ev.Seq, Type: string(ev.Type), At: ev.Timestamp - r.Start})
	}
	for _, nav := range sess.Index {
		s.Index = append(s.Index, navLine{
			At:          nav.Timestamp - r.Start,
			Kind:        string(nav.Kind),
			Label:       nav.Label,
			Description: nav.Description,
		})
	}
	for _, m := range sess.Markers() {
		s.Markers = append(s.Markers, markerLine{
			Kind:     string(m.Kind),
			Label:    m.Label,
			Position: math.Round(m.Position*100) / 100,
			Content:  m.Content,
		})
	}
	for _, v := range r.Verdicts {
		s.Verdicts = append(s.Verdicts, v.String())
	}
	return s
}

// MarshalSnapshot renders a snapshot as indented canonical JSON.
func MarshalSnapshot(s ReplaySnapshot) ([]byte, error) {
	data, err := ir.MarshalCanonical(s)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its replay against a golden
// file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-run result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(Snapshot(name, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
